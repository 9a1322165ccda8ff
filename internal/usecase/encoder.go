package usecase

import (
	"fmt"
	"log"

	"github.com/estatelens/backend/internal/domain"
)

// Encoding assigns stable integer codes to the labels of one categorical
// column. Codes are positional: Labels[code] == label. The label order is
// first-seen order from the fit call and must survive persistence unchanged,
// because a re-fit on different data would silently reassign codes.
type Encoding struct {
	Labels []string
	index  map[string]int
}

// FitEncoding builds an encoding from observed column values in first-seen
// order. Duplicate values keep their first code.
func FitEncoding(values []string) *Encoding {
	e := &Encoding{index: make(map[string]int)}
	for _, v := range values {
		if _, seen := e.index[v]; seen {
			continue
		}
		e.index[v] = len(e.Labels)
		e.Labels = append(e.Labels, v)
	}
	return e
}

// RestoreEncoding rebuilds an encoding from a persisted label list, keeping
// the positional code assignment exactly.
func RestoreEncoding(labels []string) *Encoding {
	e := &Encoding{Labels: labels, index: make(map[string]int, len(labels))}
	for i, label := range labels {
		e.index[label] = i
	}
	return e
}

// Encode returns the code for a label. A label unseen at fit time maps to the
// first code (0) and ok=false so the caller can log the substitution; failing
// the whole prediction for one new category value would make the service
// unusable.
func (e *Encoding) Encode(label string) (code int, ok bool) {
	if code, found := e.index[label]; found {
		return code, true
	}
	return 0, false
}

// Decode returns the label for a code.
func (e *Encoding) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Labels) {
		return "", fmt.Errorf("code %d out of range [0, %d)", code, len(e.Labels))
	}
	return e.Labels[code], nil
}

// Size returns the number of distinct labels.
func (e *Encoding) Size() int {
	return len(e.Labels)
}

// EncoderSet holds the fitted encodings for every categorical column of a
// model version. It is fit once at training time and read-only afterwards.
type EncoderSet struct {
	columns map[string]*Encoding
}

// NewEncoderSet creates an empty registry.
func NewEncoderSet() *EncoderSet {
	return &EncoderSet{columns: make(map[string]*Encoding)}
}

// RestoreEncoderSet rebuilds a registry from persisted label lists.
func RestoreEncoderSet(labels map[string][]string) *EncoderSet {
	set := NewEncoderSet()
	for column, list := range labels {
		set.columns[column] = RestoreEncoding(list)
	}
	return set
}

// Fit fits an encoding for one column.
func (s *EncoderSet) Fit(column string, values []string) *Encoding {
	enc := FitEncoding(values)
	s.columns[column] = enc
	return enc
}

// Encode encodes a value for a column. Querying a column the set was never
// fit on is a structural error. Unseen labels fall back to the first code
// with a logged warning.
func (s *EncoderSet) Encode(column, value string) (int, error) {
	enc, fitted := s.columns[column]
	if !fitted {
		return 0, fmt.Errorf("%w: %s", domain.ErrEncoderNotFitted, column)
	}
	code, seen := enc.Encode(value)
	if !seen {
		log.Printf("[encoder] WARN unseen label %q in column %q, falling back to code %d (%q)",
			value, column, code, enc.Labels[0])
	}
	return code, nil
}

// Encoding returns the fitted encoding for a column, if any.
func (s *EncoderSet) Encoding(column string) (*Encoding, bool) {
	enc, ok := s.columns[column]
	return enc, ok
}

// Labels exports the per-column label lists for persistence. Order within
// each list is the code assignment.
func (s *EncoderSet) Labels() map[string][]string {
	out := make(map[string][]string, len(s.columns))
	for column, enc := range s.columns {
		out[column] = enc.Labels
	}
	return out
}
