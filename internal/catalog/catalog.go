// Package catalog loads the municipality catalog and answers lookups over it.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed data/municipios.json
var sampleJSON []byte

// ErrNotFound is returned when a lookup matches no municipality.
var ErrNotFound = errors.New("municipality not found")

// ErrAmbiguous is returned when a name lookup matches more than one municipality.
var ErrAmbiguous = errors.New("municipality name is ambiguous")

// Catalog is an immutable set of municipality records indexed by IBGE code.
type Catalog struct {
	records []model.Municipality
	byCode  map[string]int
	byUF    map[string][]int
}

// Sample returns the bundled demonstration catalog.
func Sample() (*Catalog, error) {
	c, err := Parse(bytes.NewReader(sampleJSON))
	if err != nil {
		return nil, fmt.Errorf("bundled catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog file. An empty path selects the bundled sample.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Sample()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a JSON array of municipality records.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(catalogSchema()),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for i, desc := range result.Errors() {
			if i == 10 {
				errs = append(errs, fmt.Sprintf("and %d more", len(result.Errors())-i))
				break
			}
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(errs, "; "))
	}

	var records []model.Municipality
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(records)
}

// New builds a catalog from records, rejecting invalid or duplicate entries.
// The records are copied.
func New(records []model.Municipality) (*Catalog, error) {
	c := &Catalog{
		records: make([]model.Municipality, 0, len(records)),
		byCode:  make(map[string]int, len(records)),
		byUF:    make(map[string][]int),
	}
	for _, m := range records {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if m.Enrollment == nil {
			m.Enrollment = map[model.Stage]int64{}
		}
		m.UF = strings.ToUpper(m.UF)
		if _, dup := c.byCode[m.Code]; dup {
			return nil, fmt.Errorf("duplicate codigo_ibge %s", m.Code)
		}
		idx := len(c.records)
		c.records = append(c.records, m.Clone())
		c.byCode[m.Code] = idx
		c.byUF[m.UF] = append(c.byUF[m.UF], idx)
	}
	for uf := range c.byUF {
		idxs := c.byUF[uf]
		sort.SliceStable(idxs, func(i, j int) bool {
			return fold(c.records[idxs[i]].Name) < fold(c.records[idxs[j]].Name)
		})
	}
	return c, nil
}

// Len returns the number of municipalities.
func (c *Catalog) Len() int { return len(c.records) }

// All returns copies of every record in catalog order.
func (c *Catalog) All() []model.Municipality {
	out := make([]model.Municipality, len(c.records))
	for i, m := range c.records {
		out[i] = m.Clone()
	}
	return out
}

// UFs returns the distinct state codes, sorted.
func (c *Catalog) UFs() []string {
	out := make([]string, 0, len(c.byUF))
	for uf := range c.byUF {
		out = append(out, uf)
	}
	sort.Strings(out)
	return out
}

// ByUF returns copies of the municipalities in a state, sorted by name.
func (c *Catalog) ByUF(uf string) []model.Municipality {
	idxs := c.byUF[strings.ToUpper(strings.TrimSpace(uf))]
	out := make([]model.Municipality, len(idxs))
	for i, idx := range idxs {
		out[i] = c.records[idx].Clone()
	}
	return out
}

// Find returns a copy of the municipality with the given IBGE code.
func (c *Catalog) Find(code string) (model.Municipality, error) {
	idx, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return model.Municipality{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return c.records[idx].Clone(), nil
}

// Search returns municipalities whose name contains query, ignoring case
// and accents. An empty uf searches every state.
func (c *Catalog) Search(query, uf string) []model.Municipality {
	q := fold(query)
	var pool []model.Municipality
	if uf != "" {
		pool = c.ByUF(uf)
	} else {
		pool = c.All()
	}
	var out []model.Municipality
	for _, m := range pool {
		if strings.Contains(fold(m.Name), q) {
			out = append(out, m)
		}
	}
	return out
}

// Resolve finds a municipality by IBGE code or, failing that, by exact
// (case- and accent-insensitive) name, optionally restricted to a state.
func (c *Catalog) Resolve(ref, uf string) (model.Municipality, error) {
	if m, err := c.Find(ref); err == nil {
		return m, nil
	}

	want := fold(ref)
	var matches []model.Municipality
	for _, m := range c.Search(ref, uf) {
		if fold(m.Name) == want {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return model.Municipality{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		ufs := make([]string, len(matches))
		for i, m := range matches {
			ufs[i] = m.UF
		}
		return model.Municipality{}, fmt.Errorf("%w: %s (%s); use --uf or the IBGE code",
			ErrAmbiguous, ref, strings.Join(ufs, ", "))
	}
}

// fold lower-cases s and strips diacritics ("São Luís" -> "sao luis").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func catalogSchema() map[string]interface{} {
	stages := make([]interface{}, 0, len(model.AllStages()))
	for _, s := range model.AllStages() {
		stages = append(stages, string(s))
	}
	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "array",
		"items": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"codigo_ibge", "nome", "uf", "nse", "drec", "matriculas"},
			"properties": map[string]interface{}{
				"codigo_ibge": map[string]interface{}{"type": "string", "pattern": "^[0-9]{7}$"},
				"nome":        map[string]interface{}{"type": "string", "minLength": 1},
				"uf":          map[string]interface{}{"type": "string", "pattern": "^[A-Za-z]{2}$"},
				"populacao":   map[string]interface{}{"type": "integer", "minimum": 0},
				"nse":         map[string]interface{}{"type": "number"},
				"drec":        map[string]interface{}{"type": "number"},
				"matriculas": map[string]interface{}{
					"type":                 "object",
					"propertyNames":        map[string]interface{}{"enum": stages},
					"additionalProperties": map[string]interface{}{"type": "integer", "minimum": 0},
				},
				"elegivel_vaat": map[string]interface{}{"type": "boolean"},
				"elegivel_vaaf": map[string]interface{}{"type": "boolean"},
			},
		},
	}
}
