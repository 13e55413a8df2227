// Package main is the entry point for the plf population loader.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/population-loader/internal/config"
	"github.com/lemonberrylabs/population-loader/internal/logging"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds state shared by subcommands once flags are resolved.
type app struct {
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "plf",
		Short:         "Population loader for experiment output files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			if err := config.Apply(cmd, configFile); err != nil {
				return err
			}
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			l, err := logging.New(cmd.ErrOrStderr(), level, format)
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("plf version {{.Version}}\n")

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error (env PLF_LOG_LEVEL)")
	root.PersistentFlags().String("log-format", "text", "Log format: text, json, json-pretty (env PLF_LOG_FORMAT)")
	root.PersistentFlags().String("config", "", "Optional YAML config file supplying flag values")

	root.AddCommand(newLoadCmd(a), newCheckCmd(a), newServeCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plf version %s (commit=%s, built=%s)\n", version, commit, date)
		},
	}
}
