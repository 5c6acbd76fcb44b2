// Package config loads and validates the evaluator's host-supplied
// configuration: feature gates, resource limits and security switches
// (spec §4.3 FeatureControl, §4.7 Limits, §6.3 SecurityOptions), read from
// YAML the way an embedding host's deployment tooling typically ships
// config, and validated against a JSON Schema before any of it reaches the
// interpreter.
package config

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/mod/semver"
)

//go:embed schema.json
var schemaFS embed.FS

// Config is the host-facing shape of one Interpreter's tunables, loaded
// from YAML (spec §6.2 Options plus §4.7 Limits).
type Config struct {
	Features struct {
		Allow []string `yaml:"allow" toml:"allow"`
		Deny  []string `yaml:"deny" toml:"deny"`
	} `yaml:"features" toml:"features"`

	Limits struct {
		MaxCallStackDepth int   `yaml:"max_call_stack_depth" toml:"max_call_stack_depth"`
		MaxLoopIterations int   `yaml:"max_loop_iterations" toml:"max_loop_iterations"`
		MaxMemoryBytes    int64 `yaml:"max_memory_bytes" toml:"max_memory_bytes"`
	} `yaml:"limits" toml:"limits"`

	Security struct {
		SanitizeStackTraces bool `yaml:"sanitize_stack_traces" toml:"sanitize_stack_traces"`
		HideHostErrorText   bool `yaml:"hide_host_error_text" toml:"hide_host_error_text"`
	} `yaml:"security" toml:"security"`
}

// Load parses and validates YAML config text, rejecting it if it fails
// schema validation (spec §9, "option objects are JSON-schema validated
// before use").
func Load(yamlText []byte) (*Config, error) {
	jsonText, err := yaml.YAMLToJSON(yamlText)
	if err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	schemaBytes, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("config: missing embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("config: bad schema: %w", err)
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		return nil, fmt.Errorf("config: schema compile failed: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(jsonText, &doc); err != nil {
		return nil, fmt.Errorf("config: invalid JSON produced from YAML: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(jsonText, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode failed: %w", err)
	}
	return &cfg, nil
}

// LoadTOML is the TOML-syntax counterpart to Load, for hosts that ship
// config in TOML rather than YAML (spec §6.2, "the config format is a host
// deployment detail, not part of the evaluator's contract"). It validates
// against the same embedded JSON Schema by round-tripping the decoded
// document through the schema validator's generic interface{} form.
func LoadTOML(tomlText []byte) (*Config, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(string(tomlText), &doc); err != nil {
		return nil, fmt.Errorf("config: invalid TOML: %w", err)
	}

	schemaBytes, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("config: missing embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("config: bad schema: %w", err)
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		return nil, fmt.Errorf("config: schema compile failed: %w", err)
	}
	if err := schema.Validate(normalizeTOMLDoc(doc)); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(tomlText), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode failed: %w", err)
	}
	return &cfg, nil
}

// normalizeTOMLDoc recursively converts map[string]interface{} (what
// BurntSushi/toml produces for nested tables) into the
// map[string]interface{}/[]interface{}/plain-scalar shape the JSON Schema
// validator expects; TOML's decoder already produces compatible scalar
// types, so only the container types need walking.
func normalizeTOMLDoc(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalizeTOMLDoc(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalizeTOMLDoc(val)
		}
		return out
	default:
		return x
	}
}

// FeatureSet is a tag -> allowed map ready to seed interp.FeatureControl.
type FeatureSet map[string]bool

// ResolveFeatures parses each entry of the allow/deny lists, which may
// optionally pin a feature to a minimum engine version as "tag@vX.Y.Z", and
// orders duplicate entries for the same tag by semver precedence so the
// highest-versioned line in the file wins (spec §9, "a feature tag may
// appear more than once across includes; the most specific version governs").
//
// The resolved map only records allow/deny by tag name: this interpreter
// does not yet version-gate individual features, so the version suffix is
// validated and used purely for ordering, not compared against a running
// engine version.
func (c *Config) ResolveFeatures() (allow, deny FeatureSet, err error) {
	allow, err = resolveTagList(c.Features.Allow)
	if err != nil {
		return nil, nil, fmt.Errorf("config: features.allow: %w", err)
	}
	deny, err = resolveTagList(c.Features.Deny)
	if err != nil {
		return nil, nil, fmt.Errorf("config: features.deny: %w", err)
	}
	return allow, deny, nil
}

func resolveTagList(entries []string) (FeatureSet, error) {
	versions := map[string]string{}
	out := FeatureSet{}
	for _, entry := range entries {
		tag, version, hasVersion := strings.Cut(entry, "@")
		if hasVersion {
			if !semver.IsValid(version) {
				return nil, fmt.Errorf("%q: invalid version suffix %q", entry, version)
			}
			if prev, ok := versions[tag]; ok && semver.Compare(version, prev) < 0 {
				continue
			}
			versions[tag] = version
		}
		out[tag] = true
	}
	return out, nil
}

// Redact produces a copy of a raw JSON config document with any
// `security.*` text fields blanked, for safe inclusion in diagnostic output
// (spec §6.3, "HideHostErrorText applies to config echoes too").
func Redact(rawJSON string) (string, error) {
	out := rawJSON
	var err error
	for _, path := range []string{"security.sanitize_stack_traces", "security.hide_host_error_text"} {
		if !gjson.Get(out, path).Exists() {
			continue
		}
		out, err = sjson.Set(out, path, "<redacted>")
		if err != nil {
			return "", err
		}
	}
	return out, nil
}
