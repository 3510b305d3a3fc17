package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Statistical profile of the municipality catalog",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	r := catalog.BuildReport(cat.All())
	if r.Municipalities == 0 {
		fmt.Println("\n  Catalog is empty.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RELATÓRIO DO CATÁLOGO"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Indicador", "Valor"},
		Rows: [][]string{
			{"Municípios", cli.FormatNumber(int64(r.Municipalities))},
			{"Estados", cli.FormatNumber(int64(len(r.ByUF)))},
			{"Elegíveis VAAT", fmt.Sprintf("%s (%s)",
				cli.FormatNumber(int64(r.EligibleVAAT)), cli.FormatPercent(share(r.EligibleVAAT, r.Municipalities)))},
			{"Elegíveis VAAF", fmt.Sprintf("%s (%s)",
				cli.FormatNumber(int64(r.EligibleVAAF)), cli.FormatPercent(share(r.EligibleVAAF, r.Municipalities)))},
			{"---"},
			{"População total", cli.FormatNumber(r.Population.Total)},
			{"População média", cli.FormatDecimal(r.Population.Mean, 0)},
			{"População mediana", cli.FormatDecimal(r.Population.Median, 0)},
			{"Maior", fmt.Sprintf("%s (%s) %s", r.Population.Max.Name, r.Population.Max.UF,
				cli.FormatNumber(int64(r.Population.Max.Value)))},
			{"Menor", fmt.Sprintf("%s (%s) %s", r.Population.Min.Name, r.Population.Min.UF,
				cli.FormatNumber(int64(r.Population.Min.Value)))},
			{"---"},
			{"NSE médio", fmt.Sprintf("%s (%s a %s)", cli.FormatIndex(r.NSE.Mean, 1),
				cli.FormatIndex(r.NSE.Min, 1), cli.FormatIndex(r.NSE.Max, 1))},
			{"DRec médio", fmt.Sprintf("%s (%s a %s)", cli.FormatIndex(r.DRec.Mean, 3),
				cli.FormatIndex(r.DRec.Min, 3), cli.FormatIndex(r.DRec.Max, 3))},
		},
	}))

	fmt.Println()
	maxCount := 0
	for _, u := range r.ByUF {
		maxCount = max(maxCount, u.Count)
	}
	for _, u := range r.ByUF {
		fmt.Println(cli.RenderHorizontalBar(u.UF, 3, float64(u.Count), float64(maxCount), 30,
			cli.FormatNumber(int64(u.Count))))
	}
	return nil
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
