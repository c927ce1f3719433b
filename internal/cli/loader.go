package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/revcon/internal/asset"
)

//go:embed schema.cue
var configSchema string

// LoadError represents an error that occurred during config loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InitConfig is the parsed and validated contents of an init config
// file: the engine configuration plus an optional set of seed actions.
type InitConfig struct {
	Config  asset.Config
	Actions []asset.Action
}

// configFile mirrors the YAML layout of an init config file.
// The json tags drive CUE encoding during schema validation.
type configFile struct {
	Owner       string        `yaml:"owner" json:"owner"`
	Executor    string        `yaml:"executor" json:"executor"`
	SweepDenoms []string      `yaml:"sweep_denoms" json:"sweep_denoms"`
	Targets     []targetEntry `yaml:"targets" json:"targets"`
	Actions     []actionEntry `yaml:"actions,omitempty" json:"actions,omitempty"`
}

type targetEntry struct {
	Address string `yaml:"address" json:"address"`
	Weight  uint64 `yaml:"weight" json:"weight"`
}

type actionEntry struct {
	Denom    string         `yaml:"denom" json:"denom"`
	Contract string         `yaml:"contract" json:"contract"`
	Limit    *uint64        `yaml:"limit,omitempty" json:"limit,omitempty"`
	Msg      map[string]any `yaml:"msg,omitempty" json:"msg,omitempty"`
}

// LoadInitConfig reads a YAML config file, validates it against the
// embedded CUE schema, and converts it to domain types.
func LoadInitConfig(path string) (*InitConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config file: %v", err)}
	}

	var raw configFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("%s: %v", path, err)}
	}

	return convertConfig(raw)
}

// validateAgainstSchema unifies the decoded file with the embedded CUE
// schema and checks the result is complete and consistent.
func validateAgainstSchema(raw configFile) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// convertConfig maps the file representation onto domain types and runs
// the domain-level validation (duplicate denoms, empty identities).
func convertConfig(raw configFile) (*InitConfig, error) {
	cfg := asset.Config{
		Owner:    raw.Owner,
		Executor: raw.Executor,
	}
	for _, d := range raw.SweepDenoms {
		cfg.SweepDenoms = append(cfg.SweepDenoms, asset.Denom(d))
	}
	for _, tg := range raw.Targets {
		cfg.Targets = append(cfg.Targets, asset.DistributionTarget{
			Address: tg.Address,
			Weight:  tg.Weight,
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}

	result := &InitConfig{Config: cfg}
	for _, ae := range raw.Actions {
		a := asset.Action{
			Denom:    asset.Denom(ae.Denom),
			Contract: ae.Contract,
			Limit:    math.MaxUint64, // absent limit means unlimited
		}
		if ae.Limit != nil {
			a.Limit = *ae.Limit
		}
		if ae.Msg != nil {
			msg, err := json.Marshal(ae.Msg)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("action %s: encoding msg: %v", ae.Denom, err)}
			}
			a.Msg = msg
		}
		if err := a.Validate(); err != nil {
			return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
		}
		result.Actions = append(result.Actions, a)
	}
	return result, nil
}
