package attributes

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// NewNameSet returns names sorted and de-duplicated in a freshly allocated
// slice. A nil input stays nil so unknowable name sets are preserved.
func NewNameSet(names ...string) []string {
	if names == nil {
		return nil
	}
	set := treeset.NewWithStringComparator()
	for _, n := range names {
		set.Add(n)
	}
	result := make([]string, set.Size())
	for k, v := range set.Values() {
		result[k] = v.(string)
	}
	return result
}
