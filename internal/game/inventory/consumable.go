package inventory

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// EffectKind names what a consumable does when used.
type EffectKind string

const (
	// EffectHeal restores a fixed amount of HP.
	EffectHeal EffectKind = "heal_hp"
)

// Effect describes a consumable's effect.
type Effect struct {
	Kind   EffectKind `yaml:"kind" json:"kind"`
	Amount int        `yaml:"amount" json:"amount"`
}

// Consumable is a single-use item owned in quantity.
type Consumable struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
	Effect      Effect `yaml:"effect" json:"effect"`
}

// Validate checks the consumable invariants.
func (c Consumable) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("consumable: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("consumable %q: name must not be empty", c.ID)
	}
	if c.Effect.Kind != EffectHeal {
		return fmt.Errorf("consumable %q: unknown effect kind %q", c.ID, c.Effect.Kind)
	}
	if c.Effect.Amount <= 0 {
		return fmt.Errorf("consumable %q: effect amount must be > 0", c.ID)
	}
	return nil
}

// Stack is an owned quantity of one consumable.
//
// Invariant: Quantity >= 1 for every stack held by a character.
type Stack struct {
	Item     Consumable `json:"item"`
	Quantity int        `json:"quantity"`
}

// LoadConsumables parses the consumable catalogue at path within fsys.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns validated consumables keyed by ID, or an error.
func LoadConsumables(fsys fs.FS, path string) (map[string]Consumable, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	var doc struct {
		Consumables []Consumable `yaml:"consumables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	out := make(map[string]Consumable, len(doc.Consumables))
	for _, c := range doc.Consumables {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := out[c.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate consumable %q", path, c.ID)
		}
		out[c.ID] = c
	}
	return out, nil
}
