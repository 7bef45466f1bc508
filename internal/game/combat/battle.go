package combat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/character"
)

// ActionThreshold is the number of action points a side spends per attack.
const ActionThreshold = 100.0

// Battle is one fight between the player and an enemy, advanced one clock
// tick at a time.
//
// Battle works on its own copies of both records; callers read the results
// back through Player and Enemy once the battle is done. It is safe for
// concurrent use.
type Battle struct {
	mu sync.Mutex

	id        string
	player    character.Character
	enemy     character.Character
	playerAP  float64
	enemyAP   float64
	tick      int
	det       Determination
	outcome   Outcome
	attacking *Side
	src       Source
	log       []Event
}

// NewBattle starts a battle between two effective records.
//
// Precondition: both records have HP > 0 and valid attack types; at least one
// side has positive speed; src must be non-nil.
// Postcondition: both accumulators are zero and the log holds a start event.
func NewBattle(player, enemy character.Character, src Source) *Battle {
	if src == nil {
		panic("combat: NewBattle precondition violated: src must be non-nil")
	}
	if player.HP <= 0 || enemy.HP <= 0 {
		panic(fmt.Sprintf("combat: NewBattle precondition violated: hp player=%d enemy=%d", player.HP, enemy.HP))
	}
	if !player.AttackType.Valid() || !enemy.AttackType.Valid() {
		panic("combat: NewBattle precondition violated: invalid attack type")
	}
	if player.Stats.Speed <= 0 && enemy.Stats.Speed <= 0 {
		panic("combat: NewBattle precondition violated: neither side can act")
	}
	b := &Battle{
		id:     uuid.NewString(),
		player: player.Clone(),
		enemy:  enemy.Clone(),
		src:    src,
	}
	b.log = append(b.log, Event{Kind: EventStart, Attacker: player.Name, Defender: enemy.Name, HP: enemy.HP})
	return b
}

// ID returns the battle identifier.
func (b *Battle) ID() string { return b.id }

// Advance runs one clock tick and returns the events it produced.
//
// Each tick both sides gain their speed in action points. A side holding at
// least ActionThreshold acts; when both do, the side holding strictly more
// acts and the player loses ties. The actor spends exactly ActionThreshold.
// At most one attack resolves per tick.
//
// Postcondition: returns nil once Done.
func (b *Battle) Advance() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outcome != Ongoing {
		return nil
	}
	b.tick++
	b.playerAP += b.player.Stats.Speed
	b.enemyAP += b.enemy.Stats.Speed

	playerReady := b.playerAP >= ActionThreshold
	enemyReady := b.enemyAP >= ActionThreshold
	var actor Side
	switch {
	case playerReady && enemyReady:
		actor = SideEnemy
		if b.playerAP > b.enemyAP {
			actor = SidePlayer
		}
	case playerReady:
		actor = SidePlayer
	case enemyReady:
		actor = SideEnemy
	default:
		b.attacking = nil
		return nil
	}
	return b.act(actor)
}

func (b *Battle) act(actor Side) []Event {
	if actor == SidePlayer {
		b.playerAP -= ActionThreshold
	} else {
		b.enemyAP -= ActionThreshold
	}
	b.attacking = &actor

	attacker, defender := &b.player, &b.enemy
	if actor == SideEnemy {
		attacker, defender = &b.enemy, &b.player
	}
	res := ResolveAttack(*attacker, *defender, actor, b.det, b.src)
	defender.HP = res.DefenderHP

	base := Event{Tick: b.tick, Actor: actor, Attacker: attacker.Name, Defender: defender.Name, HP: defender.HP}
	var events []Event
	switch {
	case !res.Hit:
		ev := base
		ev.Kind = EventMiss
		events = append(events, ev)
	default:
		ev := base
		ev.Kind = EventHit
		if res.Critical {
			ev.Kind = EventCritical
		}
		ev.Damage = res.Damage
		ev.Absorbed = res.Absorbed
		events = append(events, ev)
		if res.Absorbed > 0 {
			ab := base
			ab.Kind = EventAbsorb
			ab.Absorbed = res.Absorbed
			events = append(events, ab)
		}
	}
	if res.Triggered != nil {
		b.det = *res.Triggered
		events = append(events, Event{
			Tick: b.tick, Kind: EventDetermination, Actor: SidePlayer,
			Attacker: b.player.Name, Stat: b.det.Stat.String(), Boost: b.det.Boost, HP: b.player.HP,
		})
	}
	if defender.HP == 0 {
		kind := EventVictory
		b.outcome = PlayerWon
		if actor == SideEnemy {
			kind = EventDefeat
			b.outcome = EnemyWon
		}
		events = append(events, Event{Tick: b.tick, Kind: kind, Actor: actor, Attacker: attacker.Name, Defender: defender.Name})
	}
	b.log = append(b.log, events...)
	return events
}

// Run advances the battle until it is done or maxTicks ticks have elapsed.
//
// Postcondition: returns the events produced by this call.
func (b *Battle) Run(maxTicks int) []Event {
	var events []Event
	for i := 0; i < maxTicks && !b.Done(); i++ {
		events = append(events, b.Advance()...)
	}
	return events
}

// Cancel aborts the battle. Further calls to Advance produce nothing.
//
// Postcondition: Outcome() == Cancelled unless the battle had already ended.
func (b *Battle) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outcome != Ongoing {
		return
	}
	b.outcome = Cancelled
	b.attacking = nil
	b.log = append(b.log, Event{Tick: b.tick, Kind: EventCancelled})
}

// Done reports whether the battle has ended for any reason.
func (b *Battle) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome != Ongoing
}

// Outcome returns the current outcome.
func (b *Battle) Outcome() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome
}

// Player returns a copy of the player's battle record.
func (b *Battle) Player() character.Character {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.player.Clone()
}

// Enemy returns a copy of the enemy's battle record.
func (b *Battle) Enemy() character.Character {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enemy.Clone()
}

// Attacking reports the side that acted on the latest tick, if any.
func (b *Battle) Attacking() (Side, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attacking == nil {
		return 0, false
	}
	return *b.attacking, true
}

// Determination returns the player's determination state.
func (b *Battle) Determination() Determination {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.det
}

// ActionPoints returns the current accumulators.
func (b *Battle) ActionPoints() (player, enemy float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playerAP, b.enemyAP
}

// Tick returns the number of ticks advanced so far.
func (b *Battle) Tick() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tick
}

// Log returns every event recorded so far, in order.
func (b *Battle) Log() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.log...)
}
