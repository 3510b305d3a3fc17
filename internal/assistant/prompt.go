package assistant

import (
	"fmt"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

const persona = `Você é especialista em financiamento da educação básica no Brasil, com foco no FUNDEB
(Fundo de Manutenção e Desenvolvimento da Educação Básica).

Suas tarefas:
1. Explicar de forma didática como funcionam as complementações VAAT e VAAF da União.
2. Responder dúvidas sobre a legislação do FUNDEB.
3. Quando houver um município selecionado, explicar os números calculados para ele.
4. Sugerir cenários de simulação que ajudem a entender o impacto das matrículas.

Diretrizes:
- Linguagem clara, sem jargão desnecessário.
- Cite as bases legais (Lei 14.113/2020 e portarias do MEC).
- Em cálculos, mostre o passo a passo.
- Seja conciso, mas completo.`

const legalHeader = `# CONTEXTO LEGAL DO FUNDEB

## Lei 14.113/2020 (FUNDEB permanente)

### Complementação da União

**VAAT (Valor Aluno Ano Total):** eleva as redes com menor valor por aluno a um patamar mínimo
nacional. Considera o nível socioeconômico (NSE) dos estudantes e a capacidade de arrecadação local.
Em 2025 alcança 2.425 municípios.

**VAAF (Valor Aluno Ano Fundeb):** complementa os fundos estaduais que não atingem o valor mínimo
nacional. Em 2025 alcança 10 estados e 1.849 municípios.`

const legalFooter = `### Ajustes multiplicativos

**NSE (Nível Socioeconômico):** fator entre 0,95 e 1,05, calculado como 0,95 + NSE/1000 e limitado
a esse intervalo.

**DRec (Disponibilidade de Recursos):** indicador de capacidade fiscal local, próximo de 1
(tipicamente entre 0,965 e 1,035).

### Fórmula
Matrículas ajustadas = matrículas × ponderador da etapa × fator NSE × DRec
Complementação do município = total nacional da modalidade × (matrículas ajustadas do município ÷
matrículas ajustadas de todos os municípios elegíveis)

### Bases legais
- Lei 14.113/2020, art. 5º (VAAT) e art. 6º (VAAF)
- Portaria MEC nº 567/2024 (ponderadores)`

const explainQuestion = `Explique passo a passo como chegamos aos valores calculados para este município.
Detalhe:
1. Como os ponderadores foram aplicados.
2. O impacto dos ajustes de NSE e DRec.
3. Como cada etapa educacional contribuiu para o total.
4. Por que o município é ou não elegível para cada complementação.`

// LegalContext renders the reference material given to the model. With a
// weight table it lists the active weights and national pools for year.
func LegalContext(wt *config.WeightTable, year int) string {
	var b strings.Builder
	b.WriteString(legalHeader)
	b.WriteString("\n\n")

	if wt != nil {
		b.WriteString("### Totais nacionais e ponderadores vigentes\n")
		for _, cat := range model.Categories() {
			b.WriteString("\n**")
			b.WriteString(cat.Label())
			b.WriteString("**")
			if pool, err := wt.Pool(cat, year); err == nil {
				fmt.Fprintf(&b, " (complementação %d: %s)", year, cli.FormatCompactBRL(pool))
			}
			b.WriteString(":\n")
			for _, s := range wt.Stages(cat) {
				w, _ := wt.Weight(cat, s)
				fmt.Fprintf(&b, "- %s: %s\n", s.Label(), cli.FormatIndex(w, 2))
			}
		}
		b.WriteString("\nEtapas ausentes da lista de uma modalidade não entram no cálculo dela.\n\n")
	}

	b.WriteString(legalFooter)
	return b.String()
}

// SystemPrompt assembles persona, legal context and, when present, the
// selected municipality's figures.
func SystemPrompt(knowledge string, result *model.AllocationResult) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(knowledge)
	if result != nil {
		b.WriteString("\n\nMUNICÍPIO SELECIONADO NA CALCULADORA:\n")
		b.WriteString(FormatContext(*result))
	}
	return b.String()
}

// FormatContext renders an allocation result as plain text for the prompt.
func FormatContext(r model.AllocationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nome: %s\n", orNA(r.Municipality))
	fmt.Fprintf(&b, "UF: %s\n", orNA(r.UF))
	if r.Code != "" {
		fmt.Fprintf(&b, "Código IBGE: %s\n", r.Code)
	}
	fmt.Fprintf(&b, "NSE: %s\n", cli.FormatIndex(r.NSE, 1))
	fmt.Fprintf(&b, "DRec: %s\n", cli.FormatIndex(r.DRec, 3))

	for _, cat := range model.Categories() {
		cr := r.Category(cat)
		fmt.Fprintf(&b, "\n%s:\n", cat.Label())
		fmt.Fprintf(&b, "- Elegível: %s\n", cli.FormatYesNo(cr.Eligible))
		fmt.Fprintf(&b, "- Valor total: %s\n", cli.FormatBRL(cr.Total))
		for _, s := range cr.Stages() {
			sb := cr.Breakdown[s]
			fmt.Fprintf(&b, "  - %s: %s matrículas, %s ajustadas, ponderador efetivo %s, %s\n",
				s.Label(),
				cli.FormatNumber(sb.RawEnrollment),
				cli.FormatDecimal(sb.AdjustedEnrollment, 2),
				cli.FormatIndex(sb.EffectiveWeight, 3),
				cli.FormatBRL(sb.Amount),
			)
		}
	}

	fmt.Fprintf(&b, "\nTotal de complementações: %s\n", cli.FormatBRL(r.Total))
	fmt.Fprintf(&b, "Matrículas totais: %s\n", cli.FormatNumber(r.TotalEnrollment))
	if r.Demo() {
		b.WriteString("\nATENÇÃO: valores em modo demonstração. O denominador nacional é uma aproximação " +
			"(o município é tratado como 1/5000 do total elegível), não a soma real. Deixe isso claro ao usuário.\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
