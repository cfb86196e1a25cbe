// Package cefr defines the CEFR proficiency bands used to tag question
// difficulty and to label a learner's final rating.
package cefr

import (
	"fmt"
	"strings"
)

// Band is one of the six ordered CEFR proficiency levels.
type Band int

const (
	A1 Band = iota
	A2
	B1
	B2
	C1
	C2
)

// Bands lists every band in ascending difficulty order.
var Bands = []Band{A1, A2, B1, B2, C1, C2}

var bandNames = [...]string{"A1", "A2", "B1", "B2", "C1", "C2"}

// String returns the canonical band label, e.g. "B2".
func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// Valid reports whether b is one of the six recognized bands.
func (b Band) Valid() bool {
	return b >= A1 && b <= C2
}

// Index returns the position of b in Bands.
func (b Band) Index() int {
	return int(b)
}

// Next returns the band one step harder than b, or false if b is C2.
func (b Band) Next() (Band, bool) {
	if b >= C2 {
		return b, false
	}
	return b + 1, true
}

// ParseBand parses a band label. Matching ignores case and surrounding whitespace.
func ParseBand(s string) (Band, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range bandNames {
		if s == name {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("unknown CEFR band %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid CEFR band %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
