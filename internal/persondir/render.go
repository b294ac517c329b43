package persondir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"persondir.systems/persondir/internal/attributes"
)

const (
	// NotFound is the text rendering of a nil result.
	NotFound = "no such person\n"
	// NoAttributes is the text rendering of a person found without attributes.
	NoAttributes = "no attributes\n"
)

// ParseSeed turns key=value pairs into a seed. Repeated keys collect values.
func ParseSeed(pairs []string) (map[string][]any, error) {
	seed := make(map[string][]any, len(pairs))
	for _, p := range pairs {
		k, v, found := strings.Cut(p, "=")
		if !found || k == "" {
			return nil, fmt.Errorf("invalid seed attribute %q, expected name=value", p)
		}
		seed[k] = append(seed[k], v)
	}
	return seed, nil
}

// RenderText prints one attribute per line in name order.
func RenderText(attrs map[string][]any) string {
	if attrs == nil {
		return NotFound
	}
	if len(attrs) == 0 {
		return NoAttributes
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	for _, k := range keys {
		values := make([]string, len(attrs[k]))
		for i, v := range attrs[k] {
			values[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(&sb, "%v: %v\n", k, strings.Join(values, ", "))
	}
	return sb.String()
}

// RenderJSON renders a result; a nil result becomes null.
func RenderJSON(attrs any) ([]byte, error) {
	return json.MarshalIndent(attrs, "", "  ")
}

// RenderSingle renders a single-valued result as text.
func RenderSingle(attrs map[string]any) string {
	if attrs == nil {
		return NotFound
	}
	return RenderText(attributes.ToMultivalued(attrs))
}

// Diff shows how right differs from left.
func Diff(left, right map[string][]any) (string, bool) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(RenderText(left), RenderText(right), false)
	if len(diffs) == 0 || (len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual) {
		return "", false
	}
	return dmp.DiffPrettyText(diffs), true
}
