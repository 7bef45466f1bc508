package loot

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// Name pool categories.
const (
	categoryPhysical = "physical"
	categoryMagical  = "magical"
	categoryNeutral  = "neutral"
)

// NamePools holds the word lists generated item names are assembled from.
type NamePools struct {
	// Prefixes maps a category (physical, magical, neutral) to its prefixes.
	Prefixes map[string][]string `yaml:"prefixes"`
	// Bases maps a slot to per-category base names. Slots without an
	// attack-type split carry a single neutral list.
	Bases map[inventory.Slot]map[string][]string `yaml:"bases"`
}

// LoadNamePools reads the name pool document from fsys.
//
// Postcondition: Returns validated pools or an error.
func LoadNamePools(fsys fs.FS) (NamePools, error) {
	var p NamePools
	if err := ruleset.Decode(fsys, ruleset.NamesFile, &p); err != nil {
		return NamePools{}, err
	}
	if err := p.Validate(); err != nil {
		return NamePools{}, err
	}
	return p, nil
}

// Validate checks that every category and every slot can produce a name.
func (p NamePools) Validate() error {
	var errs []error
	for _, c := range []string{categoryPhysical, categoryMagical, categoryNeutral} {
		if len(p.Prefixes[c]) == 0 {
			errs = append(errs, fmt.Errorf("prefixes.%s must not be empty", c))
		}
	}
	for _, slot := range inventory.Slots {
		bases := p.Bases[slot]
		if len(bases[categoryNeutral]) > 0 {
			continue
		}
		if len(bases[categoryPhysical]) == 0 || len(bases[categoryMagical]) == 0 {
			errs = append(errs, fmt.Errorf("bases.%s needs a neutral list or both physical and magical lists", slot))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("name pools: %w", errors.Join(errs...))
	}
	return nil
}

// baseNames returns the base-name list for slot in category.
func (p NamePools) baseNames(slot inventory.Slot, category string) []string {
	bases := p.Bases[slot]
	if names := bases[category]; len(names) > 0 {
		return names
	}
	return bases[categoryNeutral]
}

// prefixes returns the prefix list for slot in category. Only weapons and
// armor take attack-type prefixes.
func (p NamePools) prefixes(slot inventory.Slot, category string) []string {
	if slot == inventory.SlotWeapon || slot == inventory.SlotArmor {
		return p.Prefixes[category]
	}
	return p.Prefixes[categoryNeutral]
}
