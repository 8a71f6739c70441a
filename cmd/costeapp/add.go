package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"costeapp/internal/cli"
	"costeapp/internal/core"
)

func newAddCmd(e *env) *cobra.Command {
	var name, amount string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a fixed cost (prompts when no flags are given)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("amount") {
				if err := addForm(&name, &amount).RunWithContext(cmd.Context()); err != nil {
					return err
				}
			}

			app, err := cli.OpenApp(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			fc, err := app.Service.Create(cmd.Context(), name, amount)
			var fieldErrs core.FieldErrors
			if errors.As(err, &fieldErrs) {
				fmt.Fprint(cmd.ErrOrStderr(), cli.RenderFieldErrors(fieldErrs))
				return errors.New("fixed cost not added")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Agregado #%d %s %s\n", fc.ID, fc.CostName, fc.MonthlyCost.Format(e.cfg.CurrencySymbol))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Cost name")
	cmd.Flags().StringVar(&amount, "amount", "", "Monthly cost, e.g. 120.50 or 120,50")
	return cmd
}

func addForm(name, amount *string) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Concepto").
			Value(name).
			Validate(validateName),
		huh.NewInput().
			Title("Costo mensual").
			Value(amount).
			Validate(validateAmount),
	))
}

func validateName(s string) error {
	if _, err := core.NormalizeCostName(s); err != nil {
		return errors.New(core.FieldMessage(err))
	}
	return nil
}

func validateAmount(s string) error {
	if _, err := core.ParseAmount(s); err != nil {
		return errors.New(core.FieldMessage(err))
	}
	return nil
}
