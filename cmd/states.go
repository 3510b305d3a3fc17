package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Complement totals by state",
	RunE:  runStates,
}

func init() {
	addRealNationalFlag(statesCmd)
	rootCmd.AddCommand(statesCmd)
}

func runStates(_ *cobra.Command, _ []string) error {
	_, cat, eng, err := loadAll()
	if err != nil {
		return err
	}

	sum := eng.Summarize(cat.All(), nationalTotals(eng, cat, flagRealNational))
	if len(sum.States) == 0 {
		fmt.Println("\n  Catalog is empty.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("COMPLEMENTAÇÃO POR ESTADO  %d", eng.Year())))
	fmt.Println()

	rows := make([][]string, 0, len(sum.States)+2)
	for _, s := range sum.States {
		rows = append(rows, []string{
			s.UF,
			cli.FormatNumber(int64(s.Municipalities)),
			fmt.Sprintf("%d/%d", s.EligibleVAAT, s.EligibleVAAF),
			cli.FormatNumber(s.Enrollment),
			cli.FormatCompactBRL(s.VAAT),
			cli.FormatCompactBRL(s.VAAF),
			cli.FormatCompactBRL(s.Total),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"Total",
		cli.FormatNumber(int64(sum.Municipalities)),
		fmt.Sprintf("%d/%d", sum.EligibleVAAT, sum.EligibleVAAF),
		cli.FormatNumber(sum.Enrollment),
		cli.FormatCompactBRL(sum.VAAT),
		cli.FormatCompactBRL(sum.VAAF),
		cli.FormatCompactBRL(sum.Total),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"UF", "Municípios", "Eleg. VAAT/VAAF", "Matrículas", "VAAT", "VAAF", "Total"},
		Rows:    rows,
	}))

	maxTotal := sum.States[0].Total
	if maxTotal > 0 {
		fmt.Println()
		for _, s := range sum.States {
			fmt.Println(cli.RenderHorizontalBar(s.UF, 3, s.Total, maxTotal, 40, cli.FormatCompactBRL(s.Total)))
		}
	}

	if sum.Demo {
		fmt.Println()
		fmt.Println("  " + cli.RenderWarning(demoNotice))
	}
	return nil
}
