package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Archetype holds the fixed starting attributes of a selectable hero.
type Archetype struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Avatar       string           `yaml:"avatar"`
	AttackType   stats.AttackType `yaml:"attack_type"`
	Vitality     float64          `yaml:"vitality"`
	Luck         float64          `yaml:"luck"`
	Attack       float64          `yaml:"attack"`
	Defense      float64          `yaml:"defense"`
	Speed        float64          `yaml:"speed"`
	MagicAttack  float64          `yaml:"magic_attack"`
	MagicDefense float64          `yaml:"magic_defense"`
	Precision    float64          `yaml:"precision"`
}

// Validate checks the archetype invariants.
//
// Postcondition: Returns nil iff all fields are valid, otherwise every violation joined.
func (a Archetype) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !a.AttackType.Valid() {
		errs = append(errs, fmt.Errorf("attack_type %q must be physical or magical", a.AttackType))
	}
	if a.Vitality < 1 {
		errs = append(errs, fmt.Errorf("vitality must be >= 1, got %v", a.Vitality))
	}
	if len(errs) > 0 {
		return fmt.Errorf("hero %q: %w", a.ID, errors.Join(errs...))
	}
	return nil
}

// New builds a fresh level-1 hero from a.
//
// Precondition: a.Validate() == nil.
// Postcondition: Level == 1, XP == 0, Gold == 0, HP == effective max HP,
// XPToNextLevel == xpToNext(1), and the record has empty equipment and inventory.
func New(a Archetype, xpToNext func(level int) int) Character {
	if err := a.Validate(); err != nil {
		panic("character: New precondition violated: " + err.Error())
	}
	c := Character{
		ID:         a.ID,
		Name:       a.Name,
		Avatar:     a.Avatar,
		Level:      1,
		AttackType: a.AttackType,
		Stats: stats.Block{
			Vitality:     a.Vitality,
			Luck:         a.Luck,
			Attack:       a.Attack,
			Defense:      a.Defense,
			Speed:        a.Speed,
			MagicAttack:  a.MagicAttack,
			MagicDefense: a.MagicDefense,
			Precision:    a.Precision,
		},
		BaseMagicAttack: a.MagicAttack,
		XPToNextLevel:   xpToNext(1),
		Equipment:       map[inventory.Slot]inventory.Item{},
		Consumables:     map[string]inventory.Stack{},
	}
	eff := Effective(&c)
	c.Stats.MaxHP = eff.Stats.MaxHP
	c.HP = eff.MaxHP()
	return c
}
