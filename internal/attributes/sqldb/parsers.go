package sqldb

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrIncorrectResultSize is returned when a single subject query yields more
// than one row.
var ErrIncorrectResultSize = errors.New("incorrect result size")

// SingleRowParser maps the columns of a single row to attributes.
type SingleRowParser struct {
	columns map[string][]string
}

// NewSingleRowParser maps each column to one or more attribute names. Columns
// without a mapping are ignored. A nil mapping exposes every column under its
// own name.
func NewSingleRowParser(columns map[string][]string) *SingleRowParser {
	return &SingleRowParser{columns: cloneMapping(columns)}
}

func (p *SingleRowParser) ParseRows(rows []Row) (map[string][]any, error) {
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: expected at most 1 row, got %d", ErrIncorrectResultSize, len(rows))
	}
	row := rows[0]
	result := make(map[string][]any)
	for column, value := range row {
		if value == nil {
			continue
		}
		names := []string{column}
		if p.columns != nil {
			mapped, ok := p.columns[column]
			if !ok {
				continue
			}
			names = mapped
		}
		for _, n := range names {
			result[n] = append(result[n], value)
		}
	}
	return result, nil
}

func (p *SingleRowParser) PossibleAttributeNames() []string {
	return mappedNames(p.columns)
}

// MultiRowParser reads one attribute per row: the name column holds the
// attribute name and the value columns hold its values.
type MultiRowParser struct {
	nameColumn   string
	valueColumns []string
	attributes   map[string][]string
}

// NewMultiRowParser builds a parser for name/value rows. attributes translates
// the stored names into attribute names; rows with names it does not list are
// skipped. A nil attributes mapping keeps stored names as they are.
func NewMultiRowParser(nameColumn string, valueColumns []string, attributes map[string][]string) (*MultiRowParser, error) {
	if nameColumn == "" {
		return nil, errors.New("multi row parser needs a name column")
	}
	if len(valueColumns) == 0 {
		return nil, errors.New("multi row parser needs at least one value column")
	}
	return &MultiRowParser{
		nameColumn:   nameColumn,
		valueColumns: slices.Clone(valueColumns),
		attributes:   cloneMapping(attributes),
	}, nil
}

func (p *MultiRowParser) ParseRows(rows []Row) (map[string][]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	result := make(map[string][]any)
	for _, row := range rows {
		raw, ok := row[p.nameColumn]
		if !ok {
			return nil, fmt.Errorf("result has no column %q", p.nameColumn)
		}
		if raw == nil {
			continue
		}
		stored := fmt.Sprint(raw)
		names := []string{stored}
		if p.attributes != nil {
			mapped, ok := p.attributes[stored]
			if !ok {
				continue
			}
			names = mapped
		}
		for _, c := range p.valueColumns {
			value := row[c]
			if value == nil {
				continue
			}
			for _, n := range names {
				result[n] = append(result[n], value)
			}
		}
	}
	return result, nil
}

func (p *MultiRowParser) PossibleAttributeNames() []string {
	return mappedNames(p.attributes)
}

func cloneMapping(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	c := make(map[string][]string, len(m))
	for k, v := range m {
		if len(v) == 0 {
			v = []string{k}
		}
		c[k] = slices.Clone(v)
	}
	return c
}

func mappedNames(m map[string][]string) []string {
	if m == nil {
		return nil
	}
	names := []string{}
	for v := range maps.Values(m) {
		names = append(names, v...)
	}
	return names
}
