package main

import (
	"github.com/spf13/cobra"

	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
)

// globalFlags are shared by every subcommand and forwarded to config.Load.
type globalFlags struct {
	envFile  string
	dataPath string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "abcctl",
		Short: "Maintenance tool for the ABC book catalogue",
		Long: `abcctl seeds the catalogue with sample books and runs one-off
classifications against the configured genre model.

Configuration is read the same way as the server: flags, then environment
variables, then the .env file, then defaults.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Path to .env file")
	pf.StringVar(&flags.dataPath, "data-path", "", "Base directory for data files")
	pf.StringVar(&flags.dbPath, "db-path", "", "SQLite database file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newClassifyCmd(flags))

	return cmd
}

// load builds the configuration and a console logger from the global flags plus extra config flags.
func (f *globalFlags) load(extra ...string) (*config.Config, *logger.Logger, error) {
	args := []string{"-env-file", f.envFile}
	if f.dataPath != "" {
		args = append(args, "-data-path", f.dataPath)
	}
	if f.dbPath != "" {
		args = append(args, "-db-path", f.dbPath)
	}
	if f.logLevel != "" {
		args = append(args, "-log-level", f.logLevel)
	}
	args = append(args, extra...)

	cfg, err := config.Load(args)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      "pretty",
		Environment: cfg.App.Environment,
	})
	return cfg, log, nil
}
