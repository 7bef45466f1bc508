// Package combat implements attack resolution and the action-point battle
// scheduler.
package combat

// Side distinguishes the player from the enemy.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Outcome is the state of a battle.
type Outcome int

const (
	Ongoing Outcome = iota
	PlayerWon
	EnemyWon
	Cancelled
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case PlayerWon:
		return "victory"
	case EnemyWon:
		return "defeat"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EventKind names a battle log entry. Consumers render the text.
type EventKind string

const (
	EventStart         EventKind = "battle_start"
	EventMiss          EventKind = "attack_miss"
	EventHit           EventKind = "attack_hit"
	EventCritical      EventKind = "attack_critical"
	EventAbsorb        EventKind = "damage_absorbed"
	EventDetermination EventKind = "determination"
	EventVictory       EventKind = "victory"
	EventDefeat        EventKind = "defeat"
	EventCancelled     EventKind = "cancelled"
)

// Event is one structured battle log entry.
type Event struct {
	Tick     int       `json:"tick"`
	Kind     EventKind `json:"kind"`
	Attacker string    `json:"attacker,omitempty"`
	Defender string    `json:"defender,omitempty"`
	// Actor is the side that acted; meaningful for attack events.
	Actor    Side `json:"actor"`
	Damage   int  `json:"damage,omitempty"`
	Absorbed int  `json:"absorbed,omitempty"`
	// HP is the defender's HP after the event.
	HP    int     `json:"hp"`
	Stat  string  `json:"stat,omitempty"`
	Boost float64 `json:"boost,omitempty"`
}
