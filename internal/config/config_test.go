package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlFixture = `
features:
  allow:
    - "async-await@v1.2.0"
    - "async-await@v1.0.0"
  deny:
    - "generator"
limits:
  max_call_stack_depth: 500
  max_loop_iterations: 1000000
  max_memory_bytes: 67108864
security:
  sanitize_stack_traces: true
  hide_host_error_text: false
`

const tomlFixture = `
[features]
allow = ["async-await@v1.2.0", "async-await@v1.0.0"]
deny = ["generator"]

[limits]
max_call_stack_depth = 500
max_loop_iterations = 1000000
max_memory_bytes = 67108864

[security]
sanitize_stack_traces = true
hide_host_error_text = false
`

func TestLoadYAMLParsesAndValidates(t *testing.T) {
	cfg, err := Load([]byte(yamlFixture))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Limits.MaxCallStackDepth)
	assert.Equal(t, int64(67108864), cfg.Limits.MaxMemoryBytes)
	assert.False(t, cfg.Security.HideHostErrorText)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load([]byte("not_a_real_field: true\n"))
	assert.Error(t, err)
}

func TestLoadTOMLAgreesWithYAMLForEquivalentDocument(t *testing.T) {
	yamlCfg, err := Load([]byte(yamlFixture))
	require.NoError(t, err)
	tomlCfg, err := LoadTOML([]byte(tomlFixture))
	require.NoError(t, err)

	if diff := cmp.Diff(yamlCfg, tomlCfg); diff != "" {
		t.Errorf("YAML and TOML configs diverged (-yaml +toml):\n%s", diff)
	}
}

func TestLoadTOMLRejectsInvalidSyntax(t *testing.T) {
	_, err := LoadTOML([]byte("this is not [[ valid toml"))
	assert.Error(t, err)
}

func TestResolveFeaturesSplitsAllowAndDenyTags(t *testing.T) {
	cfg, err := Load([]byte(yamlFixture))
	require.NoError(t, err)

	allow, deny, err := cfg.ResolveFeatures()
	require.NoError(t, err)
	assert.True(t, allow["async-await"])
	assert.True(t, deny["generator"])
}

func TestResolveFeaturesRejectsInvalidSemverSuffix(t *testing.T) {
	cfg := &Config{}
	cfg.Features.Allow = []string{"async-await@not-a-version"}

	_, _, err := cfg.ResolveFeatures()
	assert.Error(t, err)
}

func TestRedactBlanksSecurityFields(t *testing.T) {
	raw := `{"security":{"sanitize_stack_traces":true,"hide_host_error_text":false},"limits":{"max_call_stack_depth":500}}`
	redacted, err := Redact(raw)
	require.NoError(t, err)
	assert.Contains(t, redacted, `"sanitize_stack_traces":"<redacted>"`)
	assert.Contains(t, redacted, `"max_call_stack_depth":500`)
}

func TestRedactIsNoOpWhenSecurityFieldsAbsent(t *testing.T) {
	raw := `{"limits":{"max_call_stack_depth":500}}`
	redacted, err := Redact(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, redacted)
}
