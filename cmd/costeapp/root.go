package main

import (
	"github.com/spf13/cobra"

	"costeapp/internal/cli"
	"costeapp/internal/config"
	"costeapp/internal/log"
)

// daemonAnnotation marks commands whose logs go to stdout; the others log
// to stderr so their table output stays clean.
const daemonAnnotation = "daemon"

// env is what every subcommand gets after the root pre-run.
type env struct {
	configPath string
	cfg        *config.Config
	logger     *log.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:          "costeapp",
		Short:        "Fixed monthly costs: web app, mirror worker and CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadConfig(e.configPath)
			if err != nil {
				return err
			}
			out := cmd.ErrOrStderr()
			if cmd.Annotations[daemonAnnotation] == "true" {
				out = cmd.OutOrStdout()
			}
			e.cfg = cfg
			e.logger = cli.SetupLogger(cfg, out)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "TOML config file (default $"+config.ConfigFileEnv+")")

	root.AddCommand(
		newServeCmd(e),
		newWorkerCmd(e),
		newMigrateCmd(e),
		newListCmd(e),
		newAddCmd(e),
		newEditCmd(e),
	)
	return root
}
