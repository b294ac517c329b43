package attributes

import (
	"context"
)

// QueryDao lifts a Source into the full Dao contract. Identifier lookups are
// seeded with the default attribute and single-valued lookups keep the first
// value of every attribute.
type QueryDao struct {
	source           Source
	defaultAttribute string
}

var _ Dao = (*QueryDao)(nil)

// NewDao wraps source. An empty defaultAttribute falls back to
// DefaultAttributeName.
func NewDao(source Source, defaultAttribute string) *QueryDao {
	if defaultAttribute == "" {
		defaultAttribute = DefaultAttributeName
	}
	return &QueryDao{source: source, defaultAttribute: defaultAttribute}
}

// DefaultAttribute returns the seed key used by identifier lookups.
func (d *QueryDao) DefaultAttribute() string {
	return d.defaultAttribute
}

func (d *QueryDao) MultivaluedAttributes(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	if err := CheckSeed(seed); err != nil {
		return nil, err
	}
	return d.source.Lookup(ctx, seed)
}

func (d *QueryDao) MultivaluedAttributesFor(ctx context.Context, uid string) (map[string][]any, error) {
	return d.MultivaluedAttributes(ctx, map[string][]any{d.defaultAttribute: {uid}})
}

func (d *QueryDao) Attributes(ctx context.Context, seed map[string]any) (map[string]any, error) {
	if err := CheckSeed(seed); err != nil {
		return nil, err
	}
	result, err := d.source.Lookup(ctx, ToMultivalued(seed))
	if err != nil {
		return nil, err
	}
	return Collapse(result), nil
}

func (d *QueryDao) AttributesFor(ctx context.Context, uid string) (map[string]any, error) {
	return d.Attributes(ctx, map[string]any{d.defaultAttribute: uid})
}

func (d *QueryDao) PossibleAttributeNames() []string {
	return NewNameSet(d.source.PossibleAttributeNames()...)
}
