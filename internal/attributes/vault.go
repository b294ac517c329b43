package attributes

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// PersonVault is the decoded form of a person vault file.
type PersonVault struct {
	Defaults map[string]any            `toml:"defaults" yaml:"defaults" json:"defaults" ini:"defaults"`
	People   map[string]map[string]any `toml:"people" yaml:"people" json:"people" ini:"people"`
}

// VaultFilter selects the person a vault lookup is for.
type VaultFilter struct {
	UID string
	// Suffix is the environment tag carried by suffixed vault names such as
	// alice.prod.yml.
	Suffix string
}

// ExtractVaultAttributes copies the vault defaults into defaults and the
// entries for f.UID into person, later vaults overriding earlier ones. It
// reports whether the vault knows the person.
func ExtractVaultAttributes(defaults, person map[string][]any, vault PersonVault, f VaultFilter) bool {
	for k, v := range vault.Defaults {
		defaults[k] = ToValues(v)
	}
	entry, ok := vault.People[f.UID]
	if !ok {
		return false
	}
	for k, v := range entry {
		person[k] = ToValues(v)
	}
	return true
}

// SortedVaultFiles orders vault files for a lookup: general vaults in
// configured order, then files named after the person (<uid>.<ext>, or
// <uid>.<suffix>.<ext> when f.Suffix is set). With loadAll every vault file is
// returned in its discovered order.
func SortedVaultFiles(f VaultFilter, vaultfiles, generalVaults []string, loadAll bool) []string {
	if loadAll {
		return slices.Clone(vaultfiles)
	}
	generalFiles := make([]string, 0, len(vaultfiles))
	personFiles := make([]string, 0, len(vaultfiles))
	for _, g := range generalVaults {
		for _, v := range vaultfiles {
			if filepath.Base(v) == g {
				generalFiles = append(generalFiles, v)
			}
		}
	}
	for _, v := range vaultfiles {
		if slices.Contains(generalVaults, filepath.Base(v)) || f.UID == "" {
			continue
		}
		if isPersonVault(filepath.Base(v), f) {
			personFiles = append(personFiles, v)
		}
	}
	// person files go last so they override general vaults
	return append(generalFiles, personFiles...)
}

func isPersonVault(base string, f VaultFilter) bool {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == f.UID {
		return true
	}
	return f.Suffix != "" && stem == f.UID+"."+f.Suffix
}

// SeedUID returns the first value of the key attribute as a string.
func SeedUID(seed map[string][]any, key string) (string, bool) {
	values, ok := seed[key]
	if !ok || len(values) == 0 || values[0] == nil {
		return "", false
	}
	if s, ok := values[0].(string); ok {
		return s, true
	}
	return fmt.Sprint(values[0]), true
}

// Lookup runs the vault lookup shared by the file based sources. suffix is
// passed on to the person vault matching. decode is called once per selected
// vault file.
func Lookup(seed map[string][]any, key string, vaultfiles, generalVaults []string, loadAll bool, suffix string, decode func(path string) (PersonVault, error)) (map[string][]any, error) {
	if err := CheckSeed(seed); err != nil {
		return nil, err
	}
	uid, ok := SeedUID(seed, key)
	if !ok {
		return nil, nil
	}
	f := VaultFilter{UID: uid, Suffix: suffix}
	defaults := make(map[string][]any)
	person := make(map[string][]any)
	found := false
	for _, v := range SortedVaultFiles(f, vaultfiles, generalVaults, loadAll) {
		vault, err := decode(v)
		if err != nil {
			return nil, err
		}
		if ExtractVaultAttributes(defaults, person, vault, f) {
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	// defaults only fill what the person does not set
	return MergeAttributes(person, defaults), nil
}

// VaultAttributeNames lists every attribute name a set of vaults can produce.
func VaultAttributeNames(vaults ...PersonVault) []string {
	names := []string{}
	for _, v := range vaults {
		for k := range v.Defaults {
			names = append(names, k)
		}
		for _, p := range v.People {
			for k := range p {
				names = append(names, k)
			}
		}
	}
	return NewNameSet(names...)
}
