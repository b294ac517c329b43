// Package attributes defines the person attribute lookup contract shared by
// every backing source.
//
// A lookup takes a seed of attribute name to values and returns the attributes
// the source holds for the matching person. Results follow three rules:
//
//   - a populated map when the person exists and has attributes
//   - a non-nil empty map when the person exists without attributes
//   - nil when the person does not exist
//
// Errors raised while reading the backing store are returned as-is. Results
// are never a union of the seed and the source: a seed value only shows up in
// the result when the source itself holds it.
package attributes

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// DefaultAttributeName is the seed key used by single identifier lookups.
const DefaultAttributeName = "username"

// ErrInvalidArgument reports a missing required input such as a nil seed.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is the capability a backing store provides. Lookup must honor the
// nil/empty/populated rules of the package; PossibleAttributeNames returns nil
// when the source cannot know its attribute names.
type Source interface {
	Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error)
	PossibleAttributeNames() []string
}

// Dao is the full lookup contract consumed by directory callers.
type Dao interface {
	MultivaluedAttributes(ctx context.Context, seed map[string][]any) (map[string][]any, error)
	MultivaluedAttributesFor(ctx context.Context, uid string) (map[string][]any, error)
	Attributes(ctx context.Context, seed map[string]any) (map[string]any, error)
	AttributesFor(ctx context.Context, uid string) (map[string]any, error)
	PossibleAttributeNames() []string
}

// CheckSeed returns ErrInvalidArgument for a nil seed.
func CheckSeed[V any](seed map[string]V) error {
	if seed == nil {
		return fmt.Errorf("%w: the query seed cannot be nil", ErrInvalidArgument)
	}
	return nil
}

// HasKeys reports whether every name is a key of seed.
func HasKeys(seed map[string][]any, names []string) bool {
	for _, n := range names {
		if _, ok := seed[n]; !ok {
			return false
		}
	}
	return true
}

// ToMultivalued converts a single-valued map into the multi-valued form.
// Slices become value lists, everything else a one element list.
func ToMultivalued(m map[string]any) map[string][]any {
	if m == nil {
		return nil
	}
	result := make(map[string][]any, len(m))
	for k, v := range m {
		result[k] = ToValues(v)
	}
	return result
}

// ToValues turns a single attribute value into a value list.
func ToValues(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return slices.Clone(t)
	case []string:
		values := make([]any, len(t))
		for i, s := range t {
			values[i] = s
		}
		return values
	default:
		return []any{v}
	}
}

// Collapse reduces a multi-valued map to single values keeping the first
// value of each list. Attributes with no values collapse to nil.
func Collapse(m map[string][]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		if len(v) == 0 {
			result[k] = nil
			continue
		}
		result[k] = v[0]
	}
	return result
}

// MergeAttributes copies every key of lower that higher does not already hold.
// higher is modified in place and returned.
func MergeAttributes(higher map[string][]any, lower map[string][]any) map[string][]any {
	for k, v := range lower {
		if _, ok := higher[k]; !ok {
			higher[k] = slices.Clone(v)
		}
	}
	return higher
}
