package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

var (
	flagCalcUF           string
	flagCalcSet          []string
	flagCalcNationalVAAT float64
	flagCalcNationalVAAF float64
	flagCalcJSON         bool
)

var calcCmd = &cobra.Command{
	Use:   "calc <code|name>",
	Short: "Compute VAAT and VAAF complements for one municipality",
	Example: "  fundeb calc 2211001\n" +
		"  fundeb calc juazeiro --uf CE\n" +
		"  fundeb calc Teresina --set creche_integral=5000 --set eja=0",
	Args: cobra.MinimumNArgs(1),
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringVar(&flagCalcUF, "uf", "", "Restrict name lookup to a state")
	calcCmd.Flags().StringArrayVar(&flagCalcSet, "set", nil, "Override enrollment for a stage (stage=count), repeatable")
	calcCmd.Flags().Float64Var(&flagCalcNationalVAAT, "national-vaat", 0, "National adjusted VAAT enrollment")
	calcCmd.Flags().Float64Var(&flagCalcNationalVAAF, "national-vaaf", 0, "National adjusted VAAF enrollment")
	addRealNationalFlag(calcCmd)
	calcCmd.Flags().BoolVar(&flagCalcJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, args []string) error {
	_, cat, eng, err := loadAll()
	if err != nil {
		return err
	}

	m, err := cat.Resolve(strings.Join(args, " "), flagCalcUF)
	if err != nil {
		return err
	}

	overrides, err := parseOverrides(flagCalcSet)
	if err != nil {
		return err
	}

	national := nationalTotals(eng, cat, flagRealNational)
	current := eng.ComputeWith(m, national)

	edited := len(overrides) > 0
	if edited {
		scenario, err := m.WithEnrollment(overrides)
		if err != nil {
			return err
		}
		national = eng.Rebase(national, m, scenario)
		m = scenario
	}
	if cmd.Flags().Changed("national-vaat") {
		national.VAAT = &flagCalcNationalVAAT
	}
	if cmd.Flags().Changed("national-vaaf") {
		national.VAAF = &flagCalcNationalVAAF
	}
	result := eng.ComputeWith(m, national)

	if flagCalcJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(eng, m, result)
	if edited {
		printComparison(current, result)
	}
	return nil
}

// parseOverrides reads stage=count pairs.
func parseOverrides(pairs []string) (map[model.Stage]int64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[model.Stage]int64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want stage=count", p)
		}
		st, err := model.ParseStage(k)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid count in --set %q: %w", p, err)
		}
		out[st] = n
	}
	return out, nil
}

func printResult(eng *allocation.Engine, m model.Municipality, r model.AllocationResult) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s (%s)  %s", r.Municipality, r.UF, r.Code)))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Indicador", "Valor"},
		Rows: [][]string{
			{"População", cli.FormatNumber(m.Population)},
			{"NSE", cli.FormatIndex(r.NSE, 1)},
			{"Fator socioeconômico", cli.FormatIndex(allocation.SocioeconomicFactor(r.NSE), 3)},
			{"DRec", cli.FormatIndex(r.DRec, 3)},
			{"Matrículas", cli.FormatNumber(r.TotalEnrollment)},
		},
	}))

	for _, c := range model.Categories() {
		fmt.Println()
		printCategory(eng, c, r.Category(c))
	}

	fmt.Println()
	fmt.Printf("  Total de complementações: %s\n", cli.RenderMoney(cli.FormatBRL(r.Total)))
	if r.Demo() {
		fmt.Println()
		fmt.Println("  " + cli.RenderWarning(demoNotice))
	}
}

func printCategory(eng *allocation.Engine, c model.Category, cr model.CategoryResult) {
	title := fmt.Sprintf("%s  %s", c.Label(), cli.FormatEligibility(cr.Eligible))
	if !cr.Eligible {
		fmt.Printf("  %s\n", cli.RenderMuted(title))
		return
	}
	if len(cr.Breakdown) == 0 {
		fmt.Printf("  %s  %s\n", title, cli.RenderMuted("sem matrículas ponderáveis"))
		return
	}

	rows := make([][]string, 0, len(cr.Breakdown)+2)
	for _, s := range cr.Stages() {
		b := cr.Breakdown[s]
		w, _ := eng.Weights().Weight(c, s)
		rows = append(rows, []string{
			s.Label(),
			cli.FormatNumber(b.RawEnrollment),
			cli.FormatIndex(w, 2),
			cli.FormatDecimal(b.AdjustedEnrollment, 1),
			cli.FormatIndex(b.EffectiveWeight, 3),
			cli.FormatBRL(b.Amount),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"Total", "", "", cli.FormatDecimal(cr.AdjustedTotal(), 1), "", cli.FormatBRL(cr.Total),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Etapa", "Matrículas", "Ponderador", "Ajustadas", "Efetivo", "Valor"},
		Rows:    rows,
	}))
}

func printComparison(before, after model.AllocationResult) {
	row := func(label string, a, b float64) []string {
		return []string{label, cli.FormatBRL(a), cli.FormatBRL(b), formatDiff(b - a)}
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Dados atuais x cenário",
		Headers: []string{"", "Atual", "Cenário", "Diferença"},
		Rows: [][]string{
			row("VAAT", before.VAAT.Total, after.VAAT.Total),
			row("VAAF", before.VAAF.Total, after.VAAF.Total),
			{"---"},
			row("Total", before.Total, after.Total),
		},
	}))
}

func formatDiff(d float64) string {
	switch {
	case d > 0:
		return cli.RenderMoney("+" + cli.FormatBRL(d))
	case d < 0:
		return cli.RenderError("-" + cli.FormatBRL(-d))
	default:
		return cli.RenderMuted(cli.FormatBRL(0))
	}
}
