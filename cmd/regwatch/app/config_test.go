package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// isolate runs the test from an empty directory so no stray .env or
// .regwatch.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.KeyField != constants.DefaultKeyField {
		t.Errorf("KeyField = %q, want %q", config.KeyField, constants.DefaultKeyField)
	}
	if config.NameField != constants.DefaultNameField {
		t.Errorf("NameField = %q, want %q", config.NameField, constants.DefaultNameField)
	}
	if !reflect.DeepEqual(config.WatchedFields, constants.DefaultWatchedFields()) {
		t.Errorf("WatchedFields = %v, want %v", config.WatchedFields, constants.DefaultWatchedFields())
	}
	if config.StoreKind != "json" || config.StorePath != constants.DefaultStorePath {
		t.Errorf("store = %s:%s, want json:%s", config.StoreKind, config.StorePath, constants.DefaultStorePath)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}

	types, err := config.ParsedFieldTypes()
	if err != nil {
		t.Fatalf("ParsedFieldTypes() failed: %v", err)
	}
	if types[constants.PaidupCapitalField] != snapshot.FieldTypeNumber {
		t.Errorf("PaidupCapital type = %q, want number", types[constants.PaidupCapitalField])
	}

	fills, err := config.ParsedFills()
	if err != nil {
		t.Fatalf("ParsedFills() failed: %v", err)
	}
	if !fills[constants.AuthorizedCapitalField].Equal(snapshot.Number(0)) {
		t.Errorf("AuthorizedCapital fill = %v, want 0", fills[constants.AuthorizedCapitalField])
	}
	if !fills[constants.StatusField].Equal(snapshot.String(constants.StatusUnknown)) {
		t.Errorf("CompanyStatus fill = %v, want Unknown", fills[constants.StatusField])
	}
}

// TestConfig_EnvironmentVariables verifies REGWATCH_ variables override defaults.
func TestConfig_EnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("REGWATCH_WATCHED_FIELDS", "CompanyStatus,CompanyClass")
	t.Setenv("REGWATCH_STORE_KIND", "sqlite")
	t.Setenv("REGWATCH_WORKERS", "4")
	t.Setenv("REGWATCH_LOG_LEVEL", "debug")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	want := []string{"CompanyStatus", "CompanyClass"}
	if !reflect.DeepEqual(config.WatchedFields, want) {
		t.Errorf("WatchedFields = %v, want %v", config.WatchedFields, want)
	}
	if config.StoreKind != "sqlite" {
		t.Errorf("StoreKind = %q, want sqlite", config.StoreKind)
	}
	if config.Workers != 4 {
		t.Errorf("Workers = %d, want 4", config.Workers)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
}

// TestConfig_EnvFile verifies .env loading.
func TestConfig_EnvFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("REGWATCH_NAME_FIELD=Name\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("REGWATCH_NAME_FIELD") })

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.NameField != "Name" {
		t.Errorf("NameField = %q, want Name", config.NameField)
	}
}

// TestConfig_File verifies an explicit YAML config file.
func TestConfig_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "regwatch.yaml")
	body := `key_field: RegNo
watched_fields:
  - Status
field_types:
  - Capital=number
fill_defaults:
  - Capital=1000
store:
  kind: yaml
  path: logs
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.KeyField != "RegNo" {
		t.Errorf("KeyField = %q, want RegNo", config.KeyField)
	}
	if config.StoreKind != "yaml" || config.StorePath != "logs" {
		t.Errorf("store = %s:%s, want yaml:logs", config.StoreKind, config.StorePath)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
}

// TestConfig_MissingFile verifies an explicit missing config file fails.
func TestConfig_MissingFile(t *testing.T) {
	dir := isolate(t)

	_, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
	if !errors.IsConfig(err) {
		t.Fatalf("LoadConfig() error = %v, want ConfigError", err)
	}
}

// TestConfig_Validate verifies malformed entries are rejected.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty key field", func(c *Config) { c.KeyField = " " }},
		{"empty name field", func(c *Config) { c.NameField = "" }},
		{"no watched fields", func(c *Config) { c.WatchedFields = nil }},
		{"entry without equals", func(c *Config) { c.FieldTypes = []string{"Capital"} }},
		{"unknown type", func(c *Config) { c.FieldTypes = []string{"Capital=date"} }},
		{"bad number fill", func(c *Config) { c.FillDefaults = []string{"AuthorizedCapital=lots"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			if err := config.Validate(); !errors.IsConfig(err) {
				t.Errorf("Validate() error = %v, want ConfigError", err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

// TestConfig_UpdateFromFlags verifies empty flag values keep loaded settings.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "error"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "error" {
		t.Errorf("empty flags overrode config: format=%q level=%q", config.Format, config.LogLevel)
	}

	config.UpdateFromFlags(false, false, false, "json", "trace")
	if config.Format != "json" || config.LogLevel != "trace" {
		t.Errorf("flags not applied: format=%q level=%q", config.Format, config.LogLevel)
	}
}

func validConfig() *Config {
	return &Config{
		KeyField:      constants.DefaultKeyField,
		NameField:     constants.DefaultNameField,
		WatchedFields: constants.DefaultWatchedFields(),
		FieldTypes:    []string{"AuthorizedCapital=number"},
		FillDefaults:  []string{"AuthorizedCapital=0", "CompanyStatus=Unknown"},
		StoreKind:     "json",
		StorePath:     constants.DefaultStorePath,
	}
}
