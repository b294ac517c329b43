package mem

import (
	"fmt"
	"maps"
	"slices"

	"github.com/knadh/koanf/v2"
	"persondir.systems/persondir/internal/attributes"
)

// Config holds people declared directly in the configuration file under
// [memory.people.<uid>].
type Config struct {
	KeyAttribute string                    `toml:"key_attribute"`
	People       map[string]map[string]any `toml:"people"`
}

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	c.KeyAttribute = k.String("memory.key_attribute")
	if c.KeyAttribute == "" {
		c.KeyAttribute = attributes.DefaultAttributeName
	}
	c.People = make(map[string]map[string]any)
	if !k.Exists("memory.people") {
		return &c, nil
	}
	raw, ok := k.Get("memory.people").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("memory.people must be a table")
	}
	for uid, v := range raw {
		switch attrs := v.(type) {
		case map[string]any:
			c.People[uid] = attrs
		case nil:
			c.People[uid] = map[string]any{}
		default:
			return nil, fmt.Errorf("memory.people.%v must be a table", uid)
		}
	}
	return &c, nil
}

func (c Config) Validate() error { return nil }

func (c Config) SourceType() string { return "memory" }

func (c Config) String() string {
	return fmt.Sprintf("Key attribute: %v\nPeople: %v\n", c.KeyAttribute, slices.Sorted(maps.Keys(c.People)))
}

// NewMemoryStoreFromConfig loads every configured person.
func NewMemoryStoreFromConfig(c Config) *MemoryStore {
	m := NewMemoryStore(c.KeyAttribute)
	for uid, attrs := range c.People {
		m.Add(uid, attrs)
	}
	return m
}
