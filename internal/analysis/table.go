package analysis

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/vdot-tables.json
var defaultTableJSON []byte

// ErrInvalidTable is returned when a table document fails validation
var ErrInvalidTable = errors.New("invalid VDOT table")

// Tier is one integer-keyed row of the VDOT table
type Tier struct {
	VDOT  int
	Times map[Distance]float64 // seconds
}

// Table is an immutable VDOT lookup table. Tiers are contiguous and
// sorted by ascending VDOT. A Table must be built with NewTable or one of
// the parse functions; the zero value is empty.
type Table struct {
	tiers     []Tier
	distances []Distance
}

// DefaultTable returns the table bundled with the binary
func DefaultTable() (*Table, error) {
	return ParseJSON(defaultTableJSON)
}

// ParseTableFile parses data using the format implied by name's extension.
// .yaml and .yml are read as YAML, everything else as JSON.
func ParseTableFile(name string, data []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a table document of the form
// {"30": {"5K": 1840, ...}, "31": {...}}
func ParseJSON(data []byte) (*Table, error) {
	var doc map[string]map[string]float64
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding table json: %w", err)
	}
	return fromDocument(doc)
}

// ParseYAML parses the YAML form of the table document
func ParseYAML(data []byte) (*Table, error) {
	var doc map[string]map[string]float64
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding table yaml: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]map[string]float64) (*Table, error) {
	rows := make(map[int]map[Distance]float64, len(doc))
	for key, times := range doc {
		vdot, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: key %q is not an integer", ErrInvalidTable, key)
		}
		row := make(map[Distance]float64, len(times))
		for d, secs := range times {
			row[Distance(d)] = secs
		}
		rows[vdot] = row
	}
	return NewTable(rows)
}

// NewTable builds a Table from rows keyed by VDOT and checks its invariants:
// keys are positive and contiguous, every tier has the same known distances,
// times shrink as VDOT grows and grow with distance.
func NewTable(rows map[int]map[Distance]float64) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidTable)
	}

	keys := make([]int, 0, len(rows))
	for k := range rows {
		if k <= 0 {
			return nil, fmt.Errorf("%w: VDOT %d must be positive", ErrInvalidTable, k)
		}
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for i := 1; i < len(keys); i++ {
		if keys[i] != keys[i-1]+1 {
			return nil, fmt.Errorf("%w: missing tier between %d and %d", ErrInvalidTable, keys[i-1], keys[i])
		}
	}

	// Column set comes from the first tier, ordered by length
	var cols []Distance
	for d := range rows[keys[0]] {
		if !d.IsKnown() {
			return nil, fmt.Errorf("%w: unknown distance %q in VDOT %d", ErrInvalidTable, d, keys[0])
		}
		cols = append(cols, d)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: VDOT %d has no distances", ErrInvalidTable, keys[0])
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Meters() < cols[j].Meters() })

	t := &Table{
		tiers:     make([]Tier, 0, len(keys)),
		distances: cols,
	}

	for i, k := range keys {
		row := rows[k]
		if len(row) != len(cols) {
			return nil, fmt.Errorf("%w: VDOT %d has %d distances, want %d", ErrInvalidTable, k, len(row), len(cols))
		}

		times := make(map[Distance]float64, len(cols))
		for j, d := range cols {
			secs, ok := row[d]
			if !ok {
				return nil, fmt.Errorf("%w: VDOT %d is missing %s", ErrInvalidTable, k, d)
			}
			if secs <= 0 {
				return nil, fmt.Errorf("%w: VDOT %d %s time %v must be positive", ErrInvalidTable, k, d, secs)
			}
			if j > 0 && secs <= times[cols[j-1]] {
				return nil, fmt.Errorf("%w: VDOT %d %s time %v is not longer than %s", ErrInvalidTable, k, d, secs, cols[j-1])
			}
			if i > 0 && secs >= t.tiers[i-1].Times[d] {
				return nil, fmt.Errorf("%w: VDOT %d %s time %v is not faster than VDOT %d", ErrInvalidTable, k, d, secs, k-1)
			}
			times[d] = secs
		}

		t.tiers = append(t.tiers, Tier{VDOT: k, Times: times})
	}

	return t, nil
}

// MinVDOT returns the slowest tier's key
func (t *Table) MinVDOT() int {
	return t.tiers[0].VDOT
}

// MaxVDOT returns the fastest tier's key
func (t *Table) MaxVDOT() int {
	return t.tiers[len(t.tiers)-1].VDOT
}

// Len returns the number of tiers
func (t *Table) Len() int {
	return len(t.tiers)
}

// Distances returns the distances present in the table, shortest first
func (t *Table) Distances() []Distance {
	out := make([]Distance, len(t.distances))
	copy(out, t.distances)
	return out
}

// Supports reports whether every tier has a time for d
func (t *Table) Supports(d Distance) bool {
	for _, x := range t.distances {
		if x == d {
			return true
		}
	}
	return false
}

// Time returns the table time for an integer VDOT and distance
func (t *Table) Time(vdot int, d Distance) (float64, bool) {
	idx := vdot - t.MinVDOT()
	if idx < 0 || idx >= len(t.tiers) {
		return 0, false
	}
	secs, ok := t.tiers[idx].Times[d]
	return secs, ok
}

// Tiers returns the VDOT keys in ascending order
func (t *Table) Tiers() []int {
	out := make([]int, len(t.tiers))
	for i, tier := range t.tiers {
		out[i] = tier.VDOT
	}
	return out
}
