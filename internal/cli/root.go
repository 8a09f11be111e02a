package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is the YAML config file. Falls back to $GENQ_CONFIG.
	ConfigPath string

	// Flag overrides, applied only when set on the command line.
	Driver      string
	DSN         string
	Definitions string
	LogLevel    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the genq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "genq",
		Short: "genq - generic record search",
		Long: `Search and patch any registered record type through one
schema-agnostic filter format, over HTTP or from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $GENQ_CONFIG)")
	flags.StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres|duckdb|memory)")
	flags.StringVar(&opts.DSN, "dsn", "", "database connection string")
	flags.StringVar(&opts.Definitions, "definitions", "", "CUE definitions for the memory driver")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewPatchCommand(opts))
	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// loadConfig resolves the configuration for a command: file and
// environment first, then any flag the user set explicitly.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}

	cfg, err := config.Load(path, nil)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = o.Driver
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = o.DSN
	}
	if flags.Changed("definitions") {
		cfg.Database.Definitions = o.Definitions
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
