package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/compiler"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the assembled pipelines",
	Long: `Print every stage of the assembled pipelines with its run condition
and passes, in the order the compiler first runs them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		describePresets(cmd.OutOrStdout(), s.presets)
		return nil
	},
}

func describePresets(w io.Writer, p *compiler.Presets) {
	fmt.Fprintf(
		w,
		"target %s, optimization level %d, fingerprint %s\n",
		p.Target.Name,
		p.Config.Level(),
		p.Fingerprint,
	)

	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Pipeline").SetAlign(tabulate.ML)
	tab.Header("Stage").SetAlign(tabulate.MR)
	tab.Header("Condition").SetAlign(tabulate.ML)
	tab.Header("Passes").SetAlign(tabulate.ML)

	for _, pl := range p.Pipelines() {
		stages := pl.Stages()
		if len(stages) == 0 {
			row := tab.Row()
			row.Column(pl.Name())
			row.Column("-")
			row.Column("-")
			row.Column("(empty)")
			continue
		}
		for i, stage := range stages {
			cond := "always"
			if stage.Conditional() {
				cond = stage.Condition.String()
			}
			row := tab.Row()
			row.Column(pl.Name())
			row.Column(fmt.Sprint(i))
			row.Column(cond)
			row.Column(strings.Join(stage.PassNames(), ", "))
		}
	}
	tab.Print(w)
}
