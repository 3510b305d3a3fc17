package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Education stages and their VAAT/VAAF weights",
	RunE:  runStages,
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}

func runStages(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	wt := eng.Weights()

	weight := func(c model.Category, s model.Stage) string {
		w, ok := wt.Weight(c, s)
		if !ok {
			return cli.RenderMuted("n/a")
		}
		return cli.FormatIndex(w, 2)
	}

	rows := make([][]string, 0, len(model.AllStages()))
	for _, s := range model.AllStages() {
		rows = append(rows, []string{
			s.Label(),
			string(s),
			weight(model.VAAT, s),
			weight(model.VAAF, s),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PONDERADORES  %d", eng.Year())))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Etapa", "Chave", "VAAT", "VAAF"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Printf("  Fundo VAAT: %s   Fundo VAAF: %s\n",
		cli.RenderMoney(cli.FormatCompactBRL(eng.Pool(model.VAAT))),
		cli.RenderMoney(cli.FormatCompactBRL(eng.Pool(model.VAAF))),
	)
	return nil
}
