// =============================================================================
// tabmerge - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tabmerge)
//   ├── processCmd (tabmerge process)
//   ├── validateCmd (tabmerge validate)
//   └── versionCmd (tabmerge version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --log-format)
//   2. Owning the viper instance that flags, environment and file feed into
//   3. Building the zap logger for the run
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/tabmerge/internal/config"
	"github.com/ginjaninja78/tabmerge/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// v collects defaults, environment overrides, the config file and bound
// flags. Flags are bound to it in each command's init.
var v = config.NewViper()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tabmerge",
	Short: "tabmerge - Merge tabular files into sorted and grouped TSV reports",
	Long: `tabmerge reads tabular records from CSV, JSON, XML, YAML, XLSX and SQLite
files, keeps the fields that every source has in common, and writes two
tab-separated reports:

  basic     every row, sorted by the order-by field (D1 by default)
  advanced  rows grouped by their dimension fields (names containing D)
            with every other field summed as an integer (M1 -> MS1)

Sources that cannot be read are skipped with a warning.

Example Usage:
  tabmerge process                          # Use the sources in config.yaml
  tabmerge process a.csv b.json c.xml       # Merge the given files
  tabmerge process --order-by D2 --dry-run  # Preview without writing
  tabmerge validate                         # Check that every source opens`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with status 1 on failure. An
// interrupt cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := executeSafely(ctx, rootCmd)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// executeSafely runs cmd and reports a panic as an error.
func executeSafely(ctx context.Context, cmd *cobra.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return cmd.ExecuteContext(ctx)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().String(
		"log-format",
		"console",
		"Log format: console or json",
	)
	v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration and validates it. Files given on the
// command line replace the configured sources. The config file is optional
// unless --config was set explicitly.
func loadConfig(cmd *cobra.Command, files []string) (*config.Config, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(v, cfgFile, required)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		cfg.Sources = config.SourcesFromPaths(files)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the run logger from the log settings. --verbose forces
// the debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: cfg.Log.Format})
}
