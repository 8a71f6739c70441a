package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"costeapp/internal/cli"
)

func newListCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every fixed cost and the monthly total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.OpenApp(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ov, err := app.Service.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ov)
			}
			fmt.Fprintln(out, cli.RenderTitle("Costos Fijos"))
			fmt.Fprint(out, cli.RenderFixedCosts(ov, e.cfg.CurrencySymbol))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
