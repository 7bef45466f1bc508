// Package stats defines the closed set of character statistics and the
// value block that carries them.
package stats

import (
	"fmt"
	"sort"
)

// Key identifies one numeric character statistic.
//
// Invariant: every Key value in [Vitality, AbsorptionReduction] is handled by
// Block.Get and Block.Add; no other values are valid.
type Key int

const (
	Vitality Key = iota
	Luck
	Attack
	Defense
	Speed
	Precision
	MagicAttack
	MagicDefense
	MaxHP
	CritChance
	CritMultiplier
	AbsorptionChance
	AbsorptionReduction
)

var keyNames = [...]string{
	Vitality:            "vitality",
	Luck:                "luck",
	Attack:              "attack",
	Defense:             "defense",
	Speed:               "speed",
	Precision:           "precision",
	MagicAttack:         "magicAttack",
	MagicDefense:        "magicDefense",
	MaxHP:               "maxHp",
	CritChance:          "critChance",
	CritMultiplier:      "critMultiplier",
	AbsorptionChance:    "absorptionChance",
	AbsorptionReduction: "absorptionReduction",
}

// AllKeys lists every Key in declaration order.
var AllKeys = []Key{
	Vitality, Luck, Attack, Defense, Speed, Precision,
	MagicAttack, MagicDefense, MaxHP,
	CritChance, CritMultiplier, AbsorptionChance, AbsorptionReduction,
}

// String returns the canonical camelCase name of k.
func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// Valid reports whether k is one of the declared keys.
func (k Key) Valid() bool {
	return k >= Vitality && k <= AbsorptionReduction
}

// IsChance reports whether k is a probability in [0, 1].
func (k Key) IsChance() bool {
	return k == CritChance || k == AbsorptionChance
}

// IsRatio reports whether k is a fractional multiplier or reduction.
func (k Key) IsRatio() bool {
	return k == CritMultiplier || k == AbsorptionReduction
}

// IsPercentage reports whether k is rendered and generated as a fraction.
func (k Key) IsPercentage() bool {
	return k.IsChance() || k.IsRatio()
}

// Allocatable reports whether attribute points may be spent on k.
func (k Key) Allocatable() bool {
	switch k {
	case Vitality, Luck, Attack, Defense, Speed, Precision, MagicAttack, MagicDefense:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("stats: invalid key %d", int(k))
	}
	return []byte(keyNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey resolves a canonical stat name to its Key.
//
// Postcondition: Returns the Key whose String() == name, or an error.
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), nil
		}
	}
	return 0, fmt.Errorf("stats: unknown stat %q", name)
}

// AttackType selects which offense/defense pair a character fights with.
type AttackType string

const (
	Physical AttackType = "physical"
	Magical  AttackType = "magical"
)

// Valid reports whether t is Physical or Magical.
func (t AttackType) Valid() bool {
	return t == Physical || t == Magical
}

// OffenseKey returns the stat used to deal damage with this attack type.
//
// Precondition: t.Valid().
func (t AttackType) OffenseKey() Key {
	switch t {
	case Physical:
		return Attack
	case Magical:
		return MagicAttack
	}
	panic(fmt.Sprintf("stats: AttackType.OffenseKey precondition violated: invalid attack type %q", string(t)))
}

// DefenseKey returns the stat a defender uses against this attack type.
//
// Precondition: t.Valid().
func (t AttackType) DefenseKey() Key {
	switch t {
	case Physical:
		return Defense
	case Magical:
		return MagicDefense
	}
	panic(fmt.Sprintf("stats: AttackType.DefenseKey precondition violated: invalid attack type %q", string(t)))
}

// Block holds one value per Key.
type Block struct {
	Vitality            float64 `json:"vitality"`
	Luck                float64 `json:"luck"`
	Attack              float64 `json:"attack"`
	Defense             float64 `json:"defense"`
	Speed               float64 `json:"speed"`
	Precision           float64 `json:"precision"`
	MagicAttack         float64 `json:"magicAttack"`
	MagicDefense        float64 `json:"magicDefense"`
	MaxHP               float64 `json:"maxHp"`
	CritChance          float64 `json:"critChance"`
	CritMultiplier      float64 `json:"critMultiplier"`
	AbsorptionChance    float64 `json:"absorptionChance"`
	AbsorptionReduction float64 `json:"absorptionReduction"`
}

// field returns a pointer to the field of b that stores k.
//
// Precondition: k.Valid().
func (b *Block) field(k Key) *float64 {
	switch k {
	case Vitality:
		return &b.Vitality
	case Luck:
		return &b.Luck
	case Attack:
		return &b.Attack
	case Defense:
		return &b.Defense
	case Speed:
		return &b.Speed
	case Precision:
		return &b.Precision
	case MagicAttack:
		return &b.MagicAttack
	case MagicDefense:
		return &b.MagicDefense
	case MaxHP:
		return &b.MaxHP
	case CritChance:
		return &b.CritChance
	case CritMultiplier:
		return &b.CritMultiplier
	case AbsorptionChance:
		return &b.AbsorptionChance
	case AbsorptionReduction:
		return &b.AbsorptionReduction
	}
	panic(fmt.Sprintf("stats: Block precondition violated: invalid key %d", int(k)))
}

// Get returns the value stored for k.
//
// Precondition: k.Valid().
func (b Block) Get(k Key) float64 {
	return *b.field(k)
}

// Set stores v for k.
//
// Precondition: k.Valid().
func (b *Block) Set(k Key, v float64) {
	*b.field(k) = v
}

// Add increments the value stored for k by delta.
//
// Precondition: k.Valid().
func (b *Block) Add(k Key, delta float64) {
	*b.field(k) += delta
}

// Bonuses is a sparse stat-key to bonus mapping carried by equipment.
type Bonuses map[Key]float64

// Keys returns the keys present in b in declaration order.
//
// Postcondition: the result is sorted ascending and deterministic for equal maps.
func (b Bonuses) Keys() []Key {
	keys := make([]Key, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns an independent copy of b.
func (b Bonuses) Clone() Bonuses {
	if b == nil {
		return nil
	}
	out := make(Bonuses, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ApplyTo adds every bonus in b to block in key order.
func (b Bonuses) ApplyTo(block *Block) {
	for _, k := range b.Keys() {
		block.Add(k, b[k])
	}
}
