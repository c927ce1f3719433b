package cli

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revcon/internal/asset"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfigYAML = `
owner: kujira1owner
executor: kujira1executor
sweep_denoms:
  - ukuji
targets:
  - address: kujira1fee
    weight: 1
  - address: kujira1team
    weight: 3
actions:
  - denom: uatom
    contract: kujira1fin
    limit: 1000
    msg:
      swap: {}
  - denom: uusdc
    contract: kujira1fin
`

func TestLoadInitConfig_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	ic, err := LoadInitConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "kujira1owner", ic.Config.Owner)
	assert.Equal(t, "kujira1executor", ic.Config.Executor)
	assert.Equal(t, []asset.Denom{"ukuji"}, ic.Config.SweepDenoms)
	require.Len(t, ic.Config.Targets, 2)
	assert.Equal(t, uint64(3), ic.Config.Targets[1].Weight)

	require.Len(t, ic.Actions, 2)
	assert.Equal(t, uint64(1000), ic.Actions[0].Limit)
	assert.JSONEq(t, `{"swap":{}}`, string(ic.Actions[0].Msg))

	// Absent limit means unlimited; absent msg stays absent.
	assert.Equal(t, uint64(math.MaxUint64), ic.Actions[1].Limit)
	assert.Nil(t, ic.Actions[1].Msg)
}

func TestLoadInitConfig_MissingFile(t *testing.T) {
	_, err := LoadInitConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, loadErrorCode(err))
}

func TestLoadInitConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "owner: [unclosed")

	_, err := LoadInitConfig(path)
	require.Error(t, err)
	assert.Equal(t, ErrCodeParse, loadErrorCode(err))
}

func TestLoadInitConfig_SchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "missing_owner",
			content: `
executor: kujira1executor
sweep_denoms: [ukuji]
targets:
  - address: kujira1fee
    weight: 1
`,
		},
		{
			name: "empty_executor",
			content: `
owner: kujira1owner
executor: ""
sweep_denoms: [ukuji]
targets:
  - address: kujira1fee
    weight: 1
`,
		},
		{
			name: "empty_target_address",
			content: `
owner: kujira1owner
executor: kujira1executor
sweep_denoms: [ukuji]
targets:
  - address: ""
    weight: 1
`,
		},
		{
			name: "empty_sweep_denom",
			content: `
owner: kujira1owner
executor: kujira1executor
sweep_denoms: [""]
targets:
  - address: kujira1fee
    weight: 1
`,
		},
		{
			name: "duplicate_sweep_denom",
			content: `
owner: kujira1owner
executor: kujira1executor
sweep_denoms: [ukuji, ukuji]
targets:
  - address: kujira1fee
    weight: 1
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.content)
			_, err := LoadInitConfig(path)
			require.Error(t, err)
			assert.Equal(t, ErrCodeSchema, loadErrorCode(err))
		})
	}
}
