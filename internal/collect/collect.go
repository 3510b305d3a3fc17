// Package collect builds a municipality catalog from IBGE data, filling the
// fields IBGE does not publish with deterministic estimates.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rodrigosramos/fundeb-mvp/internal/ibge"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

// Source provides municipality identities and population estimates.
type Source interface {
	Municipalities(ctx context.Context) ([]ibge.Municipality, []string, error)
	Population(ctx context.Context, year int) (map[string]int64, error)
}

// ProgressFunc is called as records are built.
// current is the number of records processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Options configures a collection run.
type Options struct {
	PopulationYear int
	Progress       ProgressFunc
	Log            zerolog.Logger
}

// Result holds the output of a collection run.
type Result struct {
	Records        []model.Municipality
	Skipped        []string
	WithPopulation int
}

// Run fetches identities and population, then builds one record per
// municipality, sorted by UF and name.
func Run(ctx context.Context, src Source, opts Options) (*Result, error) {
	if opts.PopulationYear == 0 {
		opts.PopulationYear = 2024
	}
	log := opts.Log.With().Str("component", "collect").Logger()

	munis, skipped, err := src.Municipalities(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching municipalities: %w", err)
	}
	for _, name := range skipped {
		log.Warn().Str("municipio", name).Msg("no state in IBGE hierarchy, skipping")
	}
	log.Info().Int("count", len(munis)).Msg("municipalities fetched")

	pop, err := src.Population(ctx, opts.PopulationYear)
	if err != nil {
		return nil, fmt.Errorf("fetching population: %w", err)
	}

	res := &Result{
		Records: make([]model.Municipality, 0, len(munis)),
		Skipped: skipped,
	}
	for i, m := range munis {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := pop[m.Code]
		if p > 0 {
			res.WithPopulation++
		}
		res.Records = append(res.Records, Build(m, p))
		if opts.Progress != nil {
			opts.Progress(i+1, len(munis))
		}
	}
	log.Info().
		Int("records", len(res.Records)).
		Int("with_population", res.WithPopulation).
		Msg("catalog built")

	sort.Slice(res.Records, func(i, j int) bool {
		if res.Records[i].UF != res.Records[j].UF {
			return res.Records[i].UF < res.Records[j].UF
		}
		return res.Records[i].Name < res.Records[j].Name
	})
	return res, nil
}

// Build assembles a catalog record from an IBGE identity and population.
func Build(m ibge.Municipality, population int64) model.Municipality {
	nse, drec := SynthesizeIndices(m.Code, m.UF, population)
	vaat, vaaf := SynthesizeEligibility(m.UF, nse)
	return model.Municipality{
		Code:         m.Code,
		Name:         m.Name,
		UF:           m.UF,
		Population:   population,
		NSE:          nse,
		DRec:         drec,
		Enrollment:   SynthesizeEnrollment(m.Code, population),
		EligibleVAAT: vaat,
		EligibleVAAF: vaaf,
	}
}

// WriteJSON writes records as an indented JSON array, replacing path atomically.
func WriteJSON(path string, records []model.Municipality) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".municipios-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
