package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/presets"
)

var (
	budgetLevel         int
	budgetLayoutMethod  string
	budgetInitialLayout []int
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Print the VF2 call budget for an optimization level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := presets.ParseLayoutMethod(budgetLayoutMethod); err != nil {
			return err
		}
		var initial []int
		if cmd.Flags().Changed("initial-layout") {
			initial = budgetInitialLayout
			if initial == nil {
				initial = []int{}
			}
		}
		limit := presets.CallBudget(budgetLevel, budgetLayoutMethod, initial)
		if limit == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "unbounded (VF2 not budgeted)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), *limit)
		return nil
	},
}

func init() {
	budgetCmd.Flags().IntVarP(
		&budgetLevel,
		"level",
		"l",
		1,
		"optimization level",
	)
	budgetCmd.Flags().StringVar(
		&budgetLayoutMethod,
		"layout-method",
		"",
		"explicit layout method (trivial, vf2)",
	)
	budgetCmd.Flags().IntSliceVar(
		&budgetInitialLayout,
		"initial-layout",
		nil,
		"initial layout as comma separated physical qubits",
	)
}
