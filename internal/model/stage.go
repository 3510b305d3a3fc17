// Package model defines domain types for FUNDEB municipalities and allocation results.
package model

import (
	"fmt"
	"strings"
)

// Stage identifies an education stage whose enrollment is counted and weighted.
// The set is closed: catalogs and weight tables may only use these values.
type Stage string

const (
	StageCrecheIntegral     Stage = "creche_integral"
	StageCrecheParcial      Stage = "creche_parcial"
	StagePreEscolaIntegral  Stage = "pre_escola_integral"
	StagePreEscolaParcial   Stage = "pre_escola_parcial"
	StageAnosIniciaisUrbano Stage = "anos_iniciais_urbano"
	StageAnosIniciaisRural  Stage = "anos_iniciais_rural"
	StageAnosFinaisUrbano   Stage = "anos_finais_urbano"
	StageAnosFinaisRural    Stage = "anos_finais_rural"
	StageEnsinoMedioUrbano  Stage = "ensino_medio_urbano"
	StageEJA                Stage = "eja"
	StageEducacaoEspecial   Stage = "educacao_especial"
)

var allStages = []Stage{
	StageCrecheIntegral,
	StageCrecheParcial,
	StagePreEscolaIntegral,
	StagePreEscolaParcial,
	StageAnosIniciaisUrbano,
	StageAnosIniciaisRural,
	StageAnosFinaisUrbano,
	StageAnosFinaisRural,
	StageEnsinoMedioUrbano,
	StageEJA,
	StageEducacaoEspecial,
}

var stageLabels = map[Stage]string{
	StageCrecheIntegral:     "Creche Integral",
	StageCrecheParcial:      "Creche Parcial",
	StagePreEscolaIntegral:  "Pré-escola Integral",
	StagePreEscolaParcial:   "Pré-escola Parcial",
	StageAnosIniciaisUrbano: "Anos Iniciais Urbano",
	StageAnosIniciaisRural:  "Anos Iniciais Rural",
	StageAnosFinaisUrbano:   "Anos Finais Urbano",
	StageAnosFinaisRural:    "Anos Finais Rural",
	StageEnsinoMedioUrbano:  "Ensino Médio Urbano",
	StageEJA:                "EJA",
	StageEducacaoEspecial:   "Educação Especial",
}

// AllStages returns every stage in canonical display order.
func AllStages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Label returns a human-readable name for the stage.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// Index returns the canonical position of s, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range allStages {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStage converts a raw key into a Stage, rejecting unknown names.
func ParseStage(raw string) (Stage, error) {
	s := Stage(strings.TrimSpace(strings.ToLower(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// Category is one of the two complementary allowance categories.
type Category string

const (
	VAAT Category = "vaat"
	VAAF Category = "vaaf"
)

// Categories returns both categories in display order.
func Categories() []Category {
	return []Category{VAAT, VAAF}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == VAAT || c == VAAF
}

// Label returns the upper-case display name ("VAAT").
func (c Category) Label() string {
	return strings.ToUpper(string(c))
}

// ParseCategory converts a raw name into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.TrimSpace(strings.ToLower(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}
