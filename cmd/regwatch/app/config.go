package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// EnvPrefix prefixes every environment variable regwatch reads.
const EnvPrefix = "REGWATCH"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Registry columns
	KeyField      string
	NameField     string
	StatusField   string
	StateField    string
	WatchedFields []string

	// FieldTypes declares column types as "Column=type" entries.
	FieldTypes []string

	// FillDefaults lists "Column=value" null replacements used by clean.
	FillDefaults []string

	// Reconciler tuning
	Workers      int
	ChainWorkers int
	CacheSize    int

	// Change log store
	StoreKind string
	StorePath string

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogOutput     string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (REGWATCH_*)
// 3. .env files
// 4. Config file (./.regwatch.yaml or ~/.regwatch.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", fmt.Sprintf("cannot read %s: %v", configFile, err), err)
		}
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(".regwatch")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", err.Error(), err)
			}
		}
	}

	config := &Config{
		ConfigFile: v.ConfigFileUsed(),

		KeyField:      v.GetString("key_field"),
		NameField:     v.GetString("name_field"),
		StatusField:   v.GetString("status_field"),
		StateField:    v.GetString("state_field"),
		WatchedFields: splitList(v.GetStringSlice("watched_fields")),
		FieldTypes:    splitList(v.GetStringSlice("field_types")),
		FillDefaults:  splitList(v.GetStringSlice("fill_defaults")),

		Workers:      v.GetInt("workers"),
		ChainWorkers: v.GetInt("chain_workers"),
		CacheSize:    v.GetInt("cache_size"),

		StoreKind: v.GetString("store.kind"),
		StorePath: v.GetString("store.path"),

		LogLevel:      v.GetString("log.level"),
		LogFormat:     v.GetString("log.format"),
		LogOutput:     v.GetString("log.output"),
		LogMaxSizeMB:  v.GetInt("log.max_size_mb"),
		LogMaxBackups: v.GetInt("log.max_backups"),
		LogMaxAgeDays: v.GetInt("log.max_age_days"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("key_field", constants.DefaultKeyField)
	v.SetDefault("name_field", constants.DefaultNameField)
	v.SetDefault("status_field", constants.StatusField)
	v.SetDefault("state_field", constants.StateField)
	v.SetDefault("watched_fields", constants.DefaultWatchedFields())
	v.SetDefault("field_types", []string{
		constants.AuthorizedCapitalField + "=number",
		constants.PaidupCapitalField + "=number",
	})
	v.SetDefault("fill_defaults", []string{
		constants.AuthorizedCapitalField + "=0",
		constants.PaidupCapitalField + "=0",
		constants.StatusField + "=" + constants.StatusUnknown,
	})
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("chain_workers", constants.DefaultWorkers)
	v.SetDefault("cache_size", constants.DefaultCacheSize)
	v.SetDefault("store.kind", "json")
	v.SetDefault("store.path", constants.DefaultStorePath)
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.max_size_mb", constants.LogRotationSizeMB)
	v.SetDefault("log.max_backups", constants.LogRotationBackups)
	v.SetDefault("log.max_age_days", constants.LogRotationAgeDays)
}

// Validate checks the entry lists parse and the column names are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.KeyField) == "" {
		return errors.NewConfigError("key_field", "must not be empty", nil)
	}
	if strings.TrimSpace(c.NameField) == "" {
		return errors.NewConfigError("name_field", "must not be empty", nil)
	}
	if len(c.WatchedFields) == 0 {
		return errors.NewConfigError("watched_fields", "must list at least one field", nil)
	}
	if _, err := c.ParsedFieldTypes(); err != nil {
		return err
	}
	if _, err := c.ParsedFills(); err != nil {
		return err
	}
	return nil
}

// ParsedFieldTypes returns FieldTypes as a column -> type map.
func (c *Config) ParsedFieldTypes() (map[string]snapshot.FieldType, error) {
	entries, err := parseEntries("field_types", c.FieldTypes)
	if err != nil {
		return nil, err
	}
	types := make(map[string]snapshot.FieldType, len(entries))
	for column, raw := range entries {
		ft, err := snapshot.ParseFieldType(raw)
		if err != nil {
			return nil, errors.NewConfigError("field_types", fmt.Sprintf("column %s: %v", column, err), err)
		}
		types[column] = ft
	}
	return types, nil
}

// ParsedFills returns FillDefaults as typed null replacements. Values of
// number columns are parsed as numbers.
func (c *Config) ParsedFills() (map[string]snapshot.Value, error) {
	entries, err := parseEntries("fill_defaults", c.FillDefaults)
	if err != nil {
		return nil, err
	}
	types, err := c.ParsedFieldTypes()
	if err != nil {
		return nil, err
	}
	fills := make(map[string]snapshot.Value, len(entries))
	for column, raw := range entries {
		if types[column] != snapshot.FieldTypeNumber {
			fills[column] = snapshot.String(raw)
			continue
		}
		n, err := snapshot.ParseNumber(raw)
		if err != nil {
			return nil, errors.NewConfigError("fill_defaults", fmt.Sprintf("column %s: %v", column, err), err)
		}
		fills[column] = snapshot.Number(n)
	}
	return fills, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. Variables
// already set win; .env.local is read first so it overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// splitList flattens comma-separated entries so env values such as
// "A,B" behave like YAML lists.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseEntries parses "Column=value" entries.
func parseEntries(key string, entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		column, value, ok := strings.Cut(entry, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, errors.NewConfigError(key, fmt.Sprintf("entry %q is not Column=value", entry), nil)
		}
		out[column] = strings.TrimSpace(value)
	}
	return out, nil
}
