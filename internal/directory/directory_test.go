package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"persondir.systems/persondir/internal/attributes"
	"persondir.systems/persondir/internal/attributes/mem"
)

type failingSource struct{ err error }

func (f failingSource) Lookup(context.Context, map[string][]any) (map[string][]any, error) {
	return nil, f.err
}

func (f failingSource) PossibleAttributeNames() []string { return nil }

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	staff := mem.NewMemoryStore("")
	staff.Add("alice", map[string]any{"mail": "a@x.com", "title": "Engineer"})
	staff.Add("bob", nil)
	ldap := mem.NewMemoryStore("")
	ldap.Add("alice", map[string]any{"mail": "wrong@x.com", "phone": "555-1212"})
	ldap.Add("carol", map[string]any{"mail": "c@x.com"})

	d := NewDirectory("")
	require.NoError(t, d.AddSource("staff", staff))
	require.NoError(t, d.AddSource("ldap", ldap))
	return d
}

func TestDirectoryLookup(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	assert.Equal(t, []string{"staff", "ldap"}, d.SourceNames())

	tests := []struct {
		name string
		uid  string
		want map[string][]any
	}{
		{
			name: "first source wins",
			uid:  "alice",
			want: map[string][]any{"mail": {"a@x.com"}, "title": {"Engineer"}, "phone": {"555-1212"}},
		},
		{
			name: "found without attributes",
			uid:  "bob",
			want: map[string][]any{},
		},
		{
			name: "only in lower source",
			uid:  "carol",
			want: map[string][]any{"mail": {"c@x.com"}},
		},
		{
			name: "nowhere",
			uid:  "ghost",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.MultivaluedAttributesFor(ctx, tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == nil, got == nil)
		})
	}

	_, err := d.MultivaluedAttributes(ctx, nil)
	assert.ErrorIs(t, err, attributes.ErrInvalidArgument)
	assert.Equal(t, []string{"mail", "phone", "title"}, d.PossibleAttributeNames())
}

func TestDirectorySources(t *testing.T) {
	d := newDirectory(t)
	assert.ErrorIs(t, d.AddSource("staff", mem.NewMemoryStore("")), ErrDuplicateSource)
	assert.ErrorIs(t, d.AddSource("nil", nil), attributes.ErrInvalidArgument)

	s, ok := d.Source("ldap")
	assert.True(t, ok)
	assert.NotNil(t, s)
	_, ok = d.Source("missing")
	assert.False(t, ok)
}

func TestDirectoryErrors(t *testing.T) {
	boom := errors.New("boom")
	d := newDirectory(t)
	require.NoError(t, d.AddSource("broken", failingSource{err: boom}))

	_, err := d.MultivaluedAttributesFor(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, d.PossibleAttributeNames())
}
