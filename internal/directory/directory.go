// Package directory composes several attribute sources into one.
package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"persondir.systems/persondir/internal/attributes"
)

var ErrDuplicateSource = errors.New("duplicate source")

type namedSource struct {
	name   string
	source attributes.Source
}

// Directory queries its sources in priority order. For every attribute the
// first source holding it wins.
type Directory struct {
	*attributes.QueryDao
	sources []namedSource
}

var (
	_ attributes.Source = (*Directory)(nil)
	_ attributes.Dao    = (*Directory)(nil)
)

func NewDirectory(defaultAttribute string) *Directory {
	d := &Directory{}
	d.QueryDao = attributes.NewDao(d, defaultAttribute)
	return d
}

// AddSource appends a source with the lowest priority so far.
func (d *Directory) AddSource(name string, s attributes.Source) error {
	if s == nil {
		return fmt.Errorf("%w: source %v is nil", attributes.ErrInvalidArgument, name)
	}
	if slices.ContainsFunc(d.sources, func(n namedSource) bool { return n.name == name }) {
		return fmt.Errorf("%w: %v", ErrDuplicateSource, name)
	}
	d.sources = append(d.sources, namedSource{name: name, source: s})
	return nil
}

// Source returns the named source.
func (d *Directory) Source(name string) (attributes.Source, bool) {
	for _, s := range d.sources {
		if s.name == name {
			return s.source, true
		}
	}
	return nil, false
}

// SourceNames lists sources in priority order.
func (d *Directory) SourceNames() []string {
	names := make([]string, len(d.sources))
	for i, s := range d.sources {
		names[i] = s.name
	}
	return names
}

// Lookup returns nil only when every source returns nil.
func (d *Directory) Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	if err := attributes.CheckSeed(seed); err != nil {
		return nil, err
	}
	var result map[string][]any
	for _, s := range d.sources {
		attrs, err := s.source.Lookup(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("error looking up attributes in %v: %w", s.name, err)
		}
		if attrs == nil {
			log.Debug("source has no match", "source", s.name)
			continue
		}
		if result == nil {
			result = make(map[string][]any, len(attrs))
		}
		attributes.MergeAttributes(result, attrs)
	}
	return result, nil
}

// PossibleAttributeNames is nil as soon as one source cannot know its names.
func (d *Directory) PossibleAttributeNames() []string {
	names := []string{}
	for _, s := range d.sources {
		n := s.source.PossibleAttributeNames()
		if n == nil {
			return nil
		}
		names = append(names, n...)
	}
	return attributes.NewNameSet(names...)
}
