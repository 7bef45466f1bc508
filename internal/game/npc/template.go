// Package npc provides enemy archetype templates and the factory that scales
// them into combat-ready enemy records.
package npc

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Template defines an enemy archetype's base stats, loaded from YAML.
type Template struct {
	Name         string           `yaml:"name"`
	Avatar       string           `yaml:"avatar"`
	AttackType   stats.AttackType `yaml:"attack_type"`
	Vitality     float64          `yaml:"vitality"`
	Attack       float64          `yaml:"attack"`
	MagicAttack  float64          `yaml:"magic_attack"`
	Defense      float64          `yaml:"defense"`
	MagicDefense float64          `yaml:"magic_defense"`
	Speed        float64          `yaml:"speed"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff Name is non-empty, AttackType is valid,
// Vitality >= 1 and no base stat is negative; returns an error on the first
// violation otherwise.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("enemy template: name must not be empty")
	}
	if !t.AttackType.Valid() {
		return fmt.Errorf("enemy template %q: attack_type %q must be physical or magical", t.Name, t.AttackType)
	}
	if t.Vitality < 1 {
		return fmt.Errorf("enemy template %q: vitality must be >= 1", t.Name)
	}
	for name, v := range map[string]float64{
		"attack": t.Attack, "magic_attack": t.MagicAttack, "defense": t.Defense,
		"magic_defense": t.MagicDefense, "speed": t.Speed,
	} {
		if v < 0 {
			return fmt.Errorf("enemy template %q: %s must be >= 0", t.Name, name)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Catalogue is the set of enemy templates known to a run.
type Catalogue struct {
	templates map[string]*Template
	fallback  string
}

// LoadCatalogue reads the enemy document from fsys.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns a catalogue whose fallback template exists, or an
// error on the first parse or validate failure.
func LoadCatalogue(fsys fs.FS) (*Catalogue, error) {
	var doc struct {
		Fallback string     `yaml:"fallback"`
		Enemies  []Template `yaml:"enemies"`
	}
	if err := ruleset.Decode(fsys, ruleset.EnemiesFile, &doc); err != nil {
		return nil, err
	}
	c := &Catalogue{templates: make(map[string]*Template, len(doc.Enemies)), fallback: doc.Fallback}
	for i := range doc.Enemies {
		tmpl := &doc.Enemies[i]
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", ruleset.EnemiesFile, err)
		}
		if _, dup := c.templates[tmpl.Name]; dup {
			return nil, fmt.Errorf("loading %q: duplicate enemy %q", ruleset.EnemiesFile, tmpl.Name)
		}
		c.templates[tmpl.Name] = tmpl
	}
	if _, ok := c.templates[c.fallback]; !ok {
		return nil, fmt.Errorf("loading %q: fallback enemy %q is not defined", ruleset.EnemiesFile, c.fallback)
	}
	return c, nil
}

// Lookup returns the template named name, or the fallback template when the
// name is unknown.
//
// Postcondition: never returns nil; known reports whether name matched.
func (c *Catalogue) Lookup(name string) (tmpl *Template, known bool) {
	if t, ok := c.templates[name]; ok {
		return t, true
	}
	return c.templates[c.fallback], false
}

// Len reports how many templates are defined.
func (c *Catalogue) Len() int {
	return len(c.templates)
}
