package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

var (
	flagMuniUF     string
	flagMuniSearch string
)

var municipalitiesCmd = &cobra.Command{
	Use:     "municipalities",
	Aliases: []string{"munis", "municipios"},
	Short:   "List catalog municipalities",
	RunE:    runMunicipalities,
}

func init() {
	municipalitiesCmd.Flags().StringVar(&flagMuniUF, "uf", "", "Filter to one state")
	municipalitiesCmd.Flags().StringVarP(&flagMuniSearch, "search", "s", "", "Name search, ignoring case and accents")
	rootCmd.AddCommand(municipalitiesCmd)
}

func runMunicipalities(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	uf := strings.ToUpper(strings.TrimSpace(flagMuniUF))
	var records []model.Municipality
	switch {
	case flagMuniSearch != "":
		records = cat.Search(flagMuniSearch, uf)
	case uf != "":
		records = cat.ByUF(uf)
	default:
		records = cat.All()
	}

	if len(records) == 0 {
		fmt.Println("\n  No municipalities matched.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, m := range records {
		rows = append(rows, []string{
			m.Name,
			m.UF,
			m.Code,
			cli.FormatNumber(m.Population),
			cli.FormatIndex(m.NSE, 1),
			cli.FormatIndex(m.DRec, 3),
			cli.FormatNumber(m.TotalEnrollment()),
			cli.FormatYesNo(m.EligibleVAAT),
			cli.FormatYesNo(m.EligibleVAAF),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Município", "UF", "IBGE", "População", "NSE", "DRec", "Matrículas", "VAAT", "VAAF"},
		Rows:    rows,
	}))
	fmt.Printf("  %s\n", cli.RenderMuted(fmt.Sprintf("%d de %d municípios", len(records), cat.Len())))
	return nil
}
