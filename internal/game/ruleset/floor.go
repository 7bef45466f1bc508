package ruleset

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// UniqueTemplate is the fixed identity of a boss-dropped unique item.
type UniqueTemplate struct {
	Name        string         `yaml:"name"`
	Slot        inventory.Slot `yaml:"slot"`
	Icon        string         `yaml:"icon"`
	Description string         `yaml:"description"`
}

// FloorTheme describes the encounters of one story floor.
type FloorTheme struct {
	Number       int            `yaml:"number"`
	Name         string         `yaml:"name"`
	Enemies      []string       `yaml:"enemies"`
	EliteEnemies []string       `yaml:"elite_enemies"`
	Boss         string         `yaml:"boss"`
	Unique       UniqueTemplate `yaml:"unique"`
}

// Validate checks the floor theme invariants.
func (f FloorTheme) Validate() error {
	var errs []error
	if f.Number < 1 {
		errs = append(errs, fmt.Errorf("number must be >= 1, got %d", f.Number))
	}
	if len(f.Enemies) == 0 {
		errs = append(errs, errors.New("enemies must not be empty"))
	}
	if len(f.EliteEnemies) == 0 {
		errs = append(errs, errors.New("elite_enemies must not be empty"))
	}
	if f.Boss == "" {
		errs = append(errs, errors.New("boss must not be empty"))
	}
	if f.Unique.Name == "" {
		errs = append(errs, errors.New("unique.name must not be empty"))
	}
	if !f.Unique.Slot.Valid() {
		errs = append(errs, fmt.Errorf("unique.slot %q is not a valid slot", f.Unique.Slot))
	}
	if len(errs) > 0 {
		return fmt.Errorf("floor %d (%s): %w", f.Number, f.Name, errors.Join(errs...))
	}
	return nil
}
