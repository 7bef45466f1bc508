package ruleset

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// PotionID is the consumable granted by treasure and luck events.
const PotionID = "consumable-heal-s"

// Rules is the validated content catalogue for one run.
type Rules struct {
	heroes       map[string]character.Archetype
	heroOrder    []string
	difficulties map[string]Difficulty
	diffOrder    []string
	floors       []FloorTheme
	consumables  map[string]inventory.Consumable
}

// Load reads and validates the hero, difficulty, floor and consumable
// documents from fsys.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns a fully validated *Rules, or an error naming every
// invalid entry.
func Load(fsys fs.FS) (*Rules, error) {
	var heroes struct {
		Heroes []character.Archetype `yaml:"heroes"`
	}
	if err := Decode(fsys, HeroesFile, &heroes); err != nil {
		return nil, err
	}
	var diffs struct {
		Difficulties []Difficulty `yaml:"difficulties"`
	}
	if err := Decode(fsys, DifficultiesFile, &diffs); err != nil {
		return nil, err
	}
	var floors struct {
		Floors []FloorTheme `yaml:"floors"`
	}
	if err := Decode(fsys, FloorsFile, &floors); err != nil {
		return nil, err
	}
	consumables, err := inventory.LoadConsumables(fsys, ConsumablesFile)
	if err != nil {
		return nil, err
	}

	r := &Rules{
		heroes:       make(map[string]character.Archetype, len(heroes.Heroes)),
		difficulties: make(map[string]Difficulty, len(diffs.Difficulties)),
		floors:       floors.Floors,
		consumables:  consumables,
	}
	var errs []error
	for _, h := range heroes.Heroes {
		if err := h.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.heroes[h.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate hero %q", h.ID))
			continue
		}
		r.heroes[h.ID] = h
		r.heroOrder = append(r.heroOrder, h.ID)
	}
	for _, d := range diffs.Difficulties {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.difficulties[d.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate difficulty %q", d.ID))
			continue
		}
		r.difficulties[d.ID] = d
		r.diffOrder = append(r.diffOrder, d.ID)
	}
	for i, f := range r.floors {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
		}
		if f.Number != i+1 {
			errs = append(errs, fmt.Errorf("floor at position %d has number %d", i+1, f.Number))
		}
	}
	if len(r.heroes) == 0 {
		errs = append(errs, errors.New("at least one hero is required"))
	}
	if len(r.difficulties) == 0 {
		errs = append(errs, errors.New("at least one difficulty is required"))
	}
	if len(r.floors) == 0 {
		errs = append(errs, errors.New("at least one floor is required"))
	}
	if _, ok := r.consumables[PotionID]; !ok {
		errs = append(errs, fmt.Errorf("consumable %q is required", PotionID))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid content: %w", errors.Join(errs...))
	}
	return r, nil
}

// MustLoadDefault loads the embedded content.
//
// Postcondition: never returns nil; panics if the embedded content is invalid.
func MustLoadDefault() *Rules {
	r, err := Load(DefaultContent())
	if err != nil {
		panic("ruleset: embedded content invalid: " + err.Error())
	}
	return r
}

// Hero returns the hero archetype with id.
func (r *Rules) Hero(id string) (character.Archetype, bool) {
	h, ok := r.heroes[id]
	return h, ok
}

// HeroIDs lists hero ids in document order.
func (r *Rules) HeroIDs() []string {
	return append([]string(nil), r.heroOrder...)
}

// Difficulty returns the difficulty with id.
func (r *Rules) Difficulty(id string) (Difficulty, bool) {
	d, ok := r.difficulties[id]
	return d, ok
}

// DifficultyIDs lists difficulty ids in document order.
func (r *Rules) DifficultyIDs() []string {
	return append([]string(nil), r.diffOrder...)
}

// Floor returns the theme of floor number n (1-based).
func (r *Rules) Floor(n int) (FloorTheme, bool) {
	if n < 1 || n > len(r.floors) {
		return FloorTheme{}, false
	}
	return r.floors[n-1], true
}

// FloorCount is the number of story floors; clearing the last is victory.
func (r *Rules) FloorCount() int {
	return len(r.floors)
}

// Floors returns every floor theme in order.
func (r *Rules) Floors() []FloorTheme {
	return append([]FloorTheme(nil), r.floors...)
}

// Consumable returns the consumable with id.
func (r *Rules) Consumable(id string) (inventory.Consumable, bool) {
	c, ok := r.consumables[id]
	return c, ok
}

// Potion returns the small healing potion.
func (r *Rules) Potion() inventory.Consumable {
	return r.consumables[PotionID]
}
