package attributes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	people map[string]map[string][]any
	names  []string
	seeds  []map[string][]any
}

func (f *fakeSource) Lookup(_ context.Context, seed map[string][]any) (map[string][]any, error) {
	f.seeds = append(f.seeds, seed)
	uid, ok := SeedUID(seed, DefaultAttributeName)
	if !ok {
		return nil, nil
	}
	person, ok := f.people[uid]
	if !ok {
		return nil, nil
	}
	return person, nil
}

func (f *fakeSource) PossibleAttributeNames() []string { return f.names }

func Test_Collapse(t *testing.T) {
	tests := []struct {
		name  string
		input map[string][]any
		want  map[string]any
	}{
		{
			name:  "nil stays nil",
			input: nil,
			want:  nil,
		},
		{
			name:  "empty stays empty",
			input: map[string][]any{},
			want:  map[string]any{},
		},
		{
			name: "first value wins",
			input: map[string][]any{
				"mail": {"a@x.com", "b@x.com"},
				"cn":   {"Alice"},
			},
			want: map[string]any{
				"mail": "a@x.com",
				"cn":   "Alice",
			},
		},
		{
			name: "no values collapse to nil",
			input: map[string][]any{
				"phone": {},
			},
			want: map[string]any{
				"phone": nil,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collapse(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
			}
		})
	}
}

func Test_ToMultivalued(t *testing.T) {
	assert.Nil(t, ToMultivalued(nil))
	got := ToMultivalued(map[string]any{
		"username": "alice",
		"groups":   []string{"staff", "admin"},
		"aliases":  []any{"al"},
		"empty":    nil,
	})
	assert.Equal(t, map[string][]any{
		"username": {"alice"},
		"groups":   {"staff", "admin"},
		"aliases":  {"al"},
		"empty":    {},
	}, got)
}

func Test_MergeAttributes(t *testing.T) {
	higher := map[string][]any{"mail": {"a@x.com"}}
	lower := map[string][]any{"mail": {"wrong@x.com"}, "cn": {"Alice"}}
	got := MergeAttributes(higher, lower)
	assert.Equal(t, map[string][]any{"mail": {"a@x.com"}, "cn": {"Alice"}}, got)
}

func Test_NewNameSet(t *testing.T) {
	assert.Nil(t, NewNameSet())
	assert.Equal(t, []string{}, NewNameSet([]string{}...))
	assert.Equal(t, []string{"cn", "mail", "sn"}, NewNameSet("sn", "mail", "cn", "mail"))
}

func Test_CheckSeed(t *testing.T) {
	var seed map[string][]any
	err := CheckSeed(seed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.NoError(t, CheckSeed(map[string]any{}))
}

func TestQueryDao(t *testing.T) {
	src := &fakeSource{
		people: map[string]map[string][]any{
			"alice": {"mail": {"a@x.com", "alice@x.com"}},
			"bob":   {},
		},
		names: []string{"mail", "cn", "mail"},
	}
	dao := NewDao(src, "")
	ctx := context.Background()
	assert.Equal(t, DefaultAttributeName, dao.DefaultAttribute())

	t.Run("nil seed", func(t *testing.T) {
		_, err := dao.MultivaluedAttributes(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = dao.Attributes(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, src.seeds)
	})

	t.Run("identifier lookup", func(t *testing.T) {
		got, err := dao.MultivaluedAttributesFor(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, map[string][]any{"mail": {"a@x.com", "alice@x.com"}}, got)
	})

	t.Run("single valued keeps first", func(t *testing.T) {
		got, err := dao.AttributesFor(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"mail": "a@x.com"}, got)
	})

	t.Run("found without attributes", func(t *testing.T) {
		got, err := dao.AttributesFor(ctx, "bob")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("not found", func(t *testing.T) {
		got, err := dao.AttributesFor(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("possible names are a sorted copy", func(t *testing.T) {
		names := dao.PossibleAttributeNames()
		assert.Equal(t, []string{"cn", "mail"}, names)
		names[0] = "changed"
		assert.Equal(t, []string{"cn", "mail"}, dao.PossibleAttributeNames())
	})
}

func Test_ExtractVaultAttributes(t *testing.T) {
	tests := []struct {
		name      string
		vault     PersonVault
		filter    VaultFilter
		wantFound bool
		want      map[string][]any
	}{
		{
			name: "person present",
			vault: PersonVault{
				People: map[string]map[string]any{
					"alice": {"mail": "a@x.com"},
				},
			},
			filter:    VaultFilter{UID: "alice"},
			wantFound: true,
			want:      map[string][]any{"mail": {"a@x.com"}},
		},
		{
			name: "person absent",
			vault: PersonVault{
				Defaults: map[string]any{"o": "Example"},
				People:   map[string]map[string]any{},
			},
			filter:    VaultFilter{UID: "alice"},
			wantFound: false,
			want:      map[string][]any{},
		},
		{
			name: "person without values",
			vault: PersonVault{
				People: map[string]map[string]any{"bob": {}},
			},
			filter:    VaultFilter{UID: "bob"},
			wantFound: true,
			want:      map[string][]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaults := map[string][]any{}
			person := map[string][]any{}
			found := ExtractVaultAttributes(defaults, person, tt.vault, tt.filter)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, person)
		})
	}
}

func Test_SortedVaultFiles(t *testing.T) {
	tests := []struct {
		name          string
		filter        VaultFilter
		vaultfiles    []string
		generalVaults []string
		loadAll       bool
		want          []string
	}{
		{
			name:          "empty inputs",
			filter:        VaultFilter{UID: "alice"},
			vaultfiles:    []string{},
			generalVaults: []string{},
			want:          []string{},
		},
		{
			name:          "general vaults in configured order",
			filter:        VaultFilter{UID: "alice"},
			vaultfiles:    []string{"vaults/people.toml", "vaults/vault.toml"},
			generalVaults: []string{"vault.toml", "people.toml"},
			want:          []string{"vaults/vault.toml", "vaults/people.toml"},
		},
		{
			name:          "person vault after general vaults",
			filter:        VaultFilter{UID: "alice"},
			vaultfiles:    []string{"vaults/alice.toml", "vaults/bob.toml", "vaults/vault.toml"},
			generalVaults: []string{"vault.toml"},
			want:          []string{"vaults/vault.toml", "vaults/alice.toml"},
		},
		{
			name:          "suffixed person vault",
			filter:        VaultFilter{UID: "alice", Suffix: "enc"},
			vaultfiles:    []string{"/v/people/vault.enc.yml", "/v/people/alice.enc.yml", "/v/people/bob.enc.yml"},
			generalVaults: []string{"vault.yml", "vault.enc.yml"},
			want:          []string{"/v/people/vault.enc.yml", "/v/people/alice.enc.yml"},
		},
		{
			name:          "suffix only matches after the uid",
			filter:        VaultFilter{UID: "alice", Suffix: "enc"},
			vaultfiles:    []string{"/v/people/alice.dev.yml", "/v/people/alice.yml"},
			generalVaults: []string{"vault.enc.yml"},
			want:          []string{"/v/people/alice.yml"},
		},
		{
			name:          "load all",
			filter:        VaultFilter{UID: "alice"},
			vaultfiles:    []string{"vaults/bob.toml", "vaults/vault.toml"},
			generalVaults: []string{"vault.toml"},
			loadAll:       true,
			want:          []string{"vaults/bob.toml", "vaults/vault.toml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortedVaultFiles(tt.filter, tt.vaultfiles, tt.generalVaults, tt.loadAll)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Lookup(t *testing.T) {
	vaults := map[string]PersonVault{
		"vault.toml": {
			Defaults: map[string]any{"o": "Example", "mail": "default@x.com"},
			People: map[string]map[string]any{
				"alice": {"mail": "old@x.com"},
				"bob":   {},
			},
		},
		"alice.toml": {
			People: map[string]map[string]any{
				"alice": {"mail": []any{"a@x.com", "alice@x.com"}},
			},
		},
	}
	decode := func(path string) (PersonVault, error) {
		return vaults[path], nil
	}
	files := []string{"alice.toml", "vault.toml"}
	general := []string{"vault.toml"}

	got, err := Lookup(map[string][]any{"username": {"alice"}}, "username", files, general, false, "", decode)
	require.NoError(t, err)
	assert.Equal(t, map[string][]any{
		"mail": {"a@x.com", "alice@x.com"},
		"o":    {"Example"},
	}, got)

	got, err = Lookup(map[string][]any{"username": {"ghost"}}, "username", files, general, false, "", decode)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Lookup(map[string][]any{"other": {"x"}}, "username", files, general, false, "", decode)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Lookup(nil, "username", files, general, false, "", decode)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	boom := errors.New("boom")
	_, err = Lookup(map[string][]any{"username": {"bob"}}, "username", files, general, false, "", func(string) (PersonVault, error) {
		return PersonVault{}, boom
	})
	assert.ErrorIs(t, err, boom)
}
