package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/population-loader/pkg/loader"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <script.plf | script text>",
		Short: "Parse a loader script and print its evaluation plan without loading files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := loader.ReadSource(strings.Join(args, " "), a.logger)
			if err != nil {
				return err
			}
			plan, err := loader.New(loader.Options{Logger: a.logger}).Check(text)
			if err != nil {
				return err
			}
			_, err = plan.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
