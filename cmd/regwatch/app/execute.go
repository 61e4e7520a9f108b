package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/regwatch/cmd/regwatch/cmd/ask"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/chain"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/clean"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/diff"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/logs"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/summary"
	"github.com/agentstation/regwatch/cmd/regwatch/cmd/version"
	"github.com/agentstation/regwatch/internal/cmd/output"
	"github.com/agentstation/regwatch/pkg/logging"
)

// Execute runs the regwatch CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "regwatch",
		Short:   "Company registry change tracker",
		Version: a.version,
		Long: `Regwatch compares daily snapshots of a company registry and records
what changed: new incorporations, deregistrations and updates to watched
fields such as status and capital.

Change logs are saved per label and can be summarized or queried later.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	// Global flags are read in setupCommand so an unset flag never
	// clobbers a value from the config file or environment.
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./.regwatch.yaml or $HOME/.regwatch.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("regwatch {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	configFile := mustGetString(cmd, "config")
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}

	if configFile != "" {
		config, err := LoadConfig(configFile)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.config = config
		a.reconciler = nil
		a.mu.Unlock()
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(diff.NewCommand(a))
	rootCmd.AddCommand(chain.NewCommand(a))
	rootCmd.AddCommand(summary.NewCommand(a))
	rootCmd.AddCommand(ask.NewCommand(a))
	rootCmd.AddCommand(clean.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(logs.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
