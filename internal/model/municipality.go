package model

import (
	"errors"
	"fmt"
)

// Municipality is one catalog entry: identity, socioeconomic indices,
// enrollment by stage and per-category eligibility.
type Municipality struct {
	Code       string          `json:"codigo_ibge"`
	Name       string          `json:"nome"`
	UF         string          `json:"uf"`
	Population int64           `json:"populacao"`
	NSE        float64         `json:"nse"`
	DRec       float64         `json:"drec"`
	Enrollment map[Stage]int64 `json:"matriculas"`

	EligibleVAAT bool `json:"elegivel_vaat"`
	EligibleVAAF bool `json:"elegivel_vaaf"`
}

// Eligible reports the eligibility flag for the given category.
func (m Municipality) Eligible(c Category) bool {
	switch c {
	case VAAT:
		return m.EligibleVAAT
	case VAAF:
		return m.EligibleVAAF
	}
	return false
}

// TotalEnrollment sums raw counts across all stages, weighted or not.
func (m Municipality) TotalEnrollment() int64 {
	var total int64
	for _, n := range m.Enrollment {
		total += n
	}
	return total
}

// Clone returns a deep copy; edits to the clone never reach the original.
func (m Municipality) Clone() Municipality {
	out := m
	out.Enrollment = make(map[Stage]int64, len(m.Enrollment))
	for s, n := range m.Enrollment {
		out.Enrollment[s] = n
	}
	return out
}

// WithEnrollment returns a clone with the given stage counts replaced.
// Stages not present in overrides keep their original counts.
func (m Municipality) WithEnrollment(overrides map[Stage]int64) (Municipality, error) {
	out := m.Clone()
	for s, n := range overrides {
		if !s.Valid() {
			return m, fmt.Errorf("unknown stage %q", s)
		}
		if n < 0 {
			return m, fmt.Errorf("stage %s: negative enrollment %d", s, n)
		}
		out.Enrollment[s] = n
	}
	return out, nil
}

// Validate checks structural invariants of a record.
func (m Municipality) Validate() error {
	var errs []error
	if m.Code == "" {
		errs = append(errs, errors.New("missing codigo_ibge"))
	}
	if m.Name == "" {
		errs = append(errs, errors.New("missing nome"))
	}
	if m.Population < 0 {
		errs = append(errs, fmt.Errorf("negative populacao %d", m.Population))
	}
	for s, n := range m.Enrollment {
		if !s.Valid() {
			errs = append(errs, fmt.Errorf("unknown stage %q", s))
			continue
		}
		if n < 0 {
			errs = append(errs, fmt.Errorf("stage %s: negative enrollment %d", s, n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("municipality %s: %w", m.Code, errors.Join(errs...))
	}
	return nil
}
