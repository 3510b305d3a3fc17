package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultYear is the allocation year used when none is configured.
const DefaultYear = 2025

//go:embed data/ponderadores.json
var defaultWeightsJSON []byte

// WeightTable holds the per-category stage weights and the national pools
// keyed by "{category}_{year}". It is read-only once built.
type WeightTable struct {
	weights map[model.Category]map[model.Stage]float64
	pools   map[string]float64
}

type weightsFile struct {
	VAAT  map[string]float64 `json:"vaat"`
	VAAF  map[string]float64 `json:"vaaf"`
	Pools map[string]float64 `json:"complementacao_total"`
}

// DefaultWeights returns the bundled weight table.
func DefaultWeights() (*WeightTable, error) {
	wt, err := ParseWeights(defaultWeightsJSON)
	if err != nil {
		return nil, fmt.Errorf("bundled weights: %w", err)
	}
	return wt, nil
}

// LoadWeights reads and validates a weight table from a JSON file.
// An empty path selects the bundled table.
func LoadWeights(path string) (*WeightTable, error) {
	if path == "" {
		return DefaultWeights()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	wt, err := ParseWeights(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wt, nil
}

// ParseWeights validates raw JSON against the weight schema and builds a table.
func ParseWeights(data []byte) (*WeightTable, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(weightsSchema()),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("invalid weights: %s", strings.Join(errs, "; "))
	}

	var raw weightsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}

	weights := map[model.Category]map[model.Stage]float64{
		model.VAAT: make(map[model.Stage]float64, len(raw.VAAT)),
		model.VAAF: make(map[model.Stage]float64, len(raw.VAAF)),
	}
	for cat, src := range map[model.Category]map[string]float64{model.VAAT: raw.VAAT, model.VAAF: raw.VAAF} {
		for k, w := range src {
			s, err := model.ParseStage(k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cat, err)
			}
			weights[cat][s] = w
		}
	}
	return NewWeightTable(weights, raw.Pools)
}

// NewWeightTable builds a table from in-memory maps, copying them.
// Every category needs at least one stage, every weight and pool must be positive.
func NewWeightTable(weights map[model.Category]map[model.Stage]float64, pools map[string]float64) (*WeightTable, error) {
	wt := &WeightTable{
		weights: make(map[model.Category]map[model.Stage]float64, len(weights)),
		pools:   make(map[string]float64, len(pools)),
	}

	var errs []error
	for _, cat := range model.Categories() {
		src, ok := weights[cat]
		if !ok || len(src) == 0 {
			errs = append(errs, fmt.Errorf("category %s: no stage weights", cat))
			continue
		}
		dst := make(map[model.Stage]float64, len(src))
		for s, w := range src {
			if !s.Valid() {
				errs = append(errs, fmt.Errorf("category %s: unknown stage %q", cat, s))
				continue
			}
			if w <= 0 {
				errs = append(errs, fmt.Errorf("category %s: stage %s weight %v must be positive", cat, s, w))
				continue
			}
			dst[s] = w
		}
		wt.weights[cat] = dst
	}
	for cat := range weights {
		if !cat.Valid() {
			errs = append(errs, fmt.Errorf("unknown category %q", cat))
		}
	}

	for key, v := range pools {
		if _, _, err := parsePoolKey(key); err != nil {
			errs = append(errs, err)
			continue
		}
		if v <= 0 {
			errs = append(errs, fmt.Errorf("pool %s: amount %v must be positive", key, v))
			continue
		}
		wt.pools[key] = v
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return wt, nil
}

// Weight returns the base weight for a stage, and false when the stage
// does not apply to the category.
func (wt *WeightTable) Weight(cat model.Category, s model.Stage) (float64, bool) {
	w, ok := wt.weights[cat][s]
	return w, ok
}

// Stages returns the stages weighted for cat, in canonical order.
func (wt *WeightTable) Stages(cat model.Category) []model.Stage {
	var out []model.Stage
	for _, s := range model.AllStages() {
		if _, ok := wt.weights[cat][s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Pool returns the national allocation amount for a category-year.
func (wt *WeightTable) Pool(cat model.Category, year int) (float64, error) {
	key := PoolKey(cat, year)
	v, ok := wt.pools[key]
	if !ok {
		return 0, fmt.Errorf("no national total for %s", key)
	}
	return v, nil
}

// Years returns the years for which every category has a pool.
func (wt *WeightTable) Years() []int {
	counts := make(map[int]int)
	for key := range wt.pools {
		_, year, err := parsePoolKey(key)
		if err != nil {
			continue
		}
		counts[year]++
	}
	var years []int
	for y, n := range counts {
		if n == len(model.Categories()) {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// PoolKey formats the "{category}_{year}" key of the national totals.
func PoolKey(cat model.Category, year int) string {
	return fmt.Sprintf("%s_%d", cat, year)
}

func parsePoolKey(key string) (model.Category, int, error) {
	i := strings.LastIndexByte(key, '_')
	if i <= 0 {
		return "", 0, fmt.Errorf("pool key %q: want {category}_{year}", key)
	}
	cat, err := model.ParseCategory(key[:i])
	if err != nil {
		return "", 0, fmt.Errorf("pool key %q: %w", key, err)
	}
	year, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("pool key %q: bad year", key)
	}
	return cat, year, nil
}

func weightsSchema() map[string]interface{} {
	stages := make([]interface{}, 0, len(model.AllStages()))
	for _, s := range model.AllStages() {
		stages = append(stages, string(s))
	}
	stageWeights := map[string]interface{}{
		"type":                 "object",
		"minProperties":        1,
		"propertyNames":        map[string]interface{}{"enum": stages},
		"additionalProperties": map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
	}
	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []interface{}{"vaat", "vaaf", "complementacao_total"},
		"properties": map[string]interface{}{
			"vaat": stageWeights,
			"vaaf": stageWeights,
			"complementacao_total": map[string]interface{}{
				"type":          "object",
				"minProperties": 1,
				"patternProperties": map[string]interface{}{
					"^(vaat|vaaf)_[0-9]{4}$": map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
				},
				"additionalProperties": false,
			},
		},
	}
}
