package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

var flagRealNational bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Catalog-wide complement summary",
	RunE:  runSummary,
}

func init() {
	addRealNationalFlag(rootCmd, summaryCmd)
	rootCmd.AddCommand(summaryCmd)
}

func addRealNationalFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().BoolVar(&flagRealNational, "real-national", false,
			"Use catalog-wide adjusted enrollment as the national denominator")
	}
}

// nationalTotals returns real denominators when requested, or nil totals
// (demo mode) otherwise.
func nationalTotals(eng *allocation.Engine, cat *catalog.Catalog, real bool) allocation.NationalTotals {
	if !real {
		return allocation.NationalTotals{}
	}
	return eng.NationalTotals(cat.All())
}

func runSummary(_ *cobra.Command, _ []string) error {
	_, cat, eng, err := loadAll()
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		fmt.Println("\n  Catalog is empty.")
		return nil
	}

	national := nationalTotals(eng, cat, flagRealNational)
	sum := eng.Summarize(cat.All(), national)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FUNDEB %d  Complementação da União", eng.Year())))
	fmt.Println()

	rows := [][]string{
		{"Municípios", cli.FormatNumber(int64(sum.Municipalities))},
		{"Estados", cli.FormatNumber(int64(len(sum.States)))},
		{"Matrículas", cli.FormatNumber(sum.Enrollment)},
		{"---"},
		{"Elegíveis VAAT", cli.FormatNumber(int64(sum.EligibleVAAT))},
		{"Elegíveis VAAF", cli.FormatNumber(int64(sum.EligibleVAAF))},
		{"---"},
		{"Fundo VAAT", cli.FormatCompactBRL(eng.Pool(model.VAAT))},
		{"Fundo VAAF", cli.FormatCompactBRL(eng.Pool(model.VAAF))},
		{"---"},
		{"Complementação VAAT", cli.RenderMoney(cli.FormatBRL(sum.VAAT))},
		{"Complementação VAAF", cli.RenderMoney(cli.FormatBRL(sum.VAAF))},
		{"Total", cli.RenderMoney(cli.FormatBRL(sum.Total))},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Indicador", "Valor"},
		Rows:    rows,
	}))

	top := topMunicipalities(eng, cat.All(), national, 5)
	if len(top) > 0 {
		fmt.Println()
		trows := make([][]string, 0, len(top))
		for _, r := range top {
			trows = append(trows, []string{
				r.Municipality,
				r.UF,
				cli.FormatCompactBRL(r.VAAT.Total),
				cli.FormatCompactBRL(r.VAAF.Total),
				cli.FormatCompactBRL(r.Total),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Maiores complementações",
			Headers: []string{"Município", "UF", "VAAT", "VAAF", "Total"},
			Rows:    trows,
		}))
	}

	if sum.Demo {
		fmt.Println()
		fmt.Println("  " + cli.RenderWarning(demoNotice))
	}
	return nil
}

const demoNotice = "Modo demonstração: denominador nacional estimado (município = 1/5000 do total). " +
	"Use --real-national para somar o catálogo."

func topMunicipalities(eng *allocation.Engine, records []model.Municipality, national allocation.NationalTotals, n int) []model.AllocationResult {
	results := make([]model.AllocationResult, 0, len(records))
	for _, m := range records {
		if r := eng.ComputeWith(m, national); r.Total > 0 {
			results = append(results, r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Total > results[j].Total })
	if len(results) > n {
		results = results[:n]
	}
	return results
}
