package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "round_robin_conversion.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "round_robin_conversion", s.Name)
	assert.Equal(t, "kujira1owner", s.Config.Owner)
	assert.Len(t, s.Actions, 2)
	assert.Len(t, s.Steps, 2)
	require.NotNil(t, s.Expect)
	assert.Equal(t, "uusdc", s.Expect.Cursor)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	// "step" instead of "steps" - strict decoding catches the typo.
	path := writeScenarioFile(t, `
name: typo
description: typo test
config:
  owner: o
  executor: e
step:
  - crank:
      as: e
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing_name",
			content: `
description: d
config:
  owner: o
  executor: e
steps:
  - crank:
      as: e
`,
			wantErr: "name is required",
		},
		{
			name: "missing_config_identities",
			content: `
name: n
description: d
config:
  owner: o
steps:
  - crank:
      as: e
`,
			wantErr: "config.owner and config.executor are required",
		},
		{
			name: "no_steps",
			content: `
name: n
description: d
config:
  owner: o
  executor: e
steps: []
`,
			wantErr: "steps list is required",
		},
		{
			name: "ambiguous_step",
			content: `
name: n
description: d
config:
  owner: o
  executor: e
steps:
  - crank:
      as: e
    fund:
      denom: ukuji
      amount: 1
`,
			wantErr: "exactly one of",
		},
		{
			name: "crank_without_caller",
			content: `
name: n
description: d
config:
  owner: o
  executor: e
steps:
  - crank: {}
`,
			wantErr: "as is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenarioFile(t, tc.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
