package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

func TestDefaultWeights(t *testing.T) {
	wt, err := DefaultWeights()
	if err != nil {
		t.Fatalf("DefaultWeights: %v", err)
	}

	w, ok := wt.Weight(model.VAAT, model.StageCrecheIntegral)
	if !ok || w != 1.90 {
		t.Errorf("vaat creche_integral = %v, %v; want 1.90", w, ok)
	}
	w, ok = wt.Weight(model.VAAF, model.StagePreEscolaIntegral)
	if !ok || w != 1.50 {
		t.Errorf("vaaf pre_escola_integral = %v, %v; want 1.50", w, ok)
	}
	if _, ok := wt.Weight(model.VAAT, model.StageEnsinoMedioUrbano); ok {
		t.Error("ensino_medio_urbano should not apply to vaat")
	}

	pool, err := wt.Pool(model.VAAT, 2025)
	if err != nil || pool != 24_200_000_000 {
		t.Errorf("vaat pool = %v, %v", pool, err)
	}
	pool, err = wt.Pool(model.VAAF, 2025)
	if err != nil || pool != 26_900_000_000 {
		t.Errorf("vaaf pool = %v, %v", pool, err)
	}

	if years := wt.Years(); len(years) != 1 || years[0] != 2025 {
		t.Errorf("Years = %v, want [2025]", years)
	}
}

func TestPool_MissingYear(t *testing.T) {
	wt, err := DefaultWeights()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Pool(model.VAAT, 1999); err == nil {
		t.Error("expected error for year without a national total")
	}
}

func TestParseWeights_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "unknown stage",
			json: `{"vaat":{"doutorado":1},"vaaf":{"eja":1},"complementacao_total":{"vaat_2025":1,"vaaf_2025":1}}`,
			want: "invalid weights",
		},
		{
			name: "zero weight",
			json: `{"vaat":{"eja":0},"vaaf":{"eja":1},"complementacao_total":{"vaat_2025":1,"vaaf_2025":1}}`,
			want: "invalid weights",
		},
		{
			name: "missing category",
			json: `{"vaat":{"eja":1},"complementacao_total":{"vaat_2025":1}}`,
			want: "vaaf",
		},
		{
			name: "bad pool key",
			json: `{"vaat":{"eja":1},"vaaf":{"eja":1},"complementacao_total":{"vaat2025":1}}`,
			want: "invalid weights",
		},
		{
			name: "malformed json",
			json: `{"vaat":`,
			want: "weights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWeights([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadWeights_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ponderadores.json")
	doc := `{"vaat":{"creche_integral":2.0},"vaaf":{"eja":0.5},"complementacao_total":{"vaat_2026":10,"vaaf_2026":20}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	wt, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if got := wt.Stages(model.VAAT); len(got) != 1 || got[0] != model.StageCrecheIntegral {
		t.Errorf("Stages(vaat) = %v", got)
	}
	if p, err := wt.Pool(model.VAAF, 2026); err != nil || p != 20 {
		t.Errorf("Pool(vaaf, 2026) = %v, %v", p, err)
	}
}

func TestLoadWeights_MissingFile(t *testing.T) {
	if _, err := LoadWeights(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewWeightTable_CopiesInput(t *testing.T) {
	src := map[model.Category]map[model.Stage]float64{
		model.VAAT: {model.StageEJA: 1},
		model.VAAF: {model.StageEJA: 1},
	}
	wt, err := NewWeightTable(src, map[string]float64{"vaat_2025": 1, "vaaf_2025": 1})
	if err != nil {
		t.Fatal(err)
	}
	src[model.VAAT][model.StageEJA] = 99

	if w, _ := wt.Weight(model.VAAT, model.StageEJA); w != 1 {
		t.Errorf("table changed after caller mutated source map: %v", w)
	}
}
