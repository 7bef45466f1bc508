package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ErrStepLimit is returned when the autopilot runs out of steps before the run ends.
var ErrStepLimit = errors.New("autopilot step limit reached")

// potionThreshold is the HP fraction below which the autopilot drinks a
// potion before a battle and prefers rest nodes.
const potionThreshold = 0.4

// Autopilot plays a run with simple fixed choices. It stands in for the
// presentation layer in the CLI and in tests.
type Autopilot struct {
	// MaxSteps bounds the number of decisions; survival runs never end on
	// their own while lives remain.
	MaxSteps int
	// Pacer paces battles in real time when non-nil; otherwise battles run
	// as fast as they resolve.
	Pacer *combat.Pacer
	// Continue spends extra lives after survival defeats.
	Continue bool
}

// Summary is the state of a run when the autopilot stopped.
type Summary struct {
	Phase   Phase `json:"phase"`
	Level   int   `json:"level"`
	Floor   int   `json:"floor,omitempty"`
	Wave    int   `json:"wave,omitempty"`
	Gold    int   `json:"gold"`
	Mastery int   `json:"mastery"`
	Steps   int   `json:"steps"`
}

// Play drives r until it is over, won, or out of steps.
//
// Precondition: a.MaxSteps > 0.
// Postcondition: returns ctx.Err() when cancelled, with the run abandoned
// even mid-battle, and ErrStepLimit when the step budget runs out; the
// summary reflects the run either way.
func (a Autopilot) Play(ctx context.Context, r *Run) (Summary, error) {
	if a.MaxSteps <= 0 {
		panic(fmt.Sprintf("session: Autopilot.Play precondition violated: max steps %d <= 0", a.MaxSteps))
	}
	steps := 0
	for ; steps < a.MaxSteps; steps++ {
		if err := ctx.Err(); err != nil {
			r.Abandon()
			return a.summarize(r, steps), err
		}
		done, err := a.step(ctx, r)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				r.Abandon()
			}
			return a.summarize(r, steps), err
		}
		if done {
			return a.summarize(r, steps+1), nil
		}
	}
	return a.summarize(r, steps), ErrStepLimit
}

func (a Autopilot) step(ctx context.Context, r *Run) (bool, error) {
	switch r.Phase() {
	case PhaseHeroSelect:
		return false, r.SelectHero(r.Config().Hero)
	case PhaseDifficultySelect:
		return false, r.SelectDifficulty(r.Config().Difficulty)
	case PhaseMap:
		return false, r.SelectNode(a.chooseNode(r))
	case PhaseFloorExit:
		return false, r.AdvanceFloor()
	case PhaseReady:
		a.drinkIfLow(r)
		if err := r.StartBattle(); err != nil {
			return false, err
		}
		return false, a.fight(ctx, r)
	case PhaseBattling:
		return false, a.fight(ctx, r)
	case PhaseLevelUp:
		if err := r.AutoDistribute(); err != nil {
			return false, err
		}
		return false, r.FinishLevelUp()
	case PhaseShop:
		return false, r.CloseShop()
	case PhaseTreasure, PhaseLuck:
		return false, r.Acknowledge()
	case PhaseOver:
		p := r.Player()
		if a.Continue && !r.Abandoned() && r.Config().Mode == ruleset.Survival && p.Lives > 0 {
			return false, r.Continue()
		}
		return true, nil
	case PhaseVictory:
		return true, nil
	}
	return false, fmt.Errorf("autopilot: unhandled phase %s", r.Phase())
}

func (a Autopilot) fight(ctx context.Context, r *Run) error {
	if a.Pacer != nil {
		return a.Pacer.Run(ctx, r.Stepper(ctx))
	}
	for !r.BattleDone() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Advance(ctx)
	}
	return nil
}

func (a Autopilot) drinkIfLow(r *Run) {
	p := r.EffectivePlayer()
	if float64(p.HP) >= float64(p.MaxHP())*potionThreshold {
		return
	}
	for id := range p.Consumables {
		if r.UseConsumable(id) == nil {
			return
		}
	}
}

// chooseNode picks the first reachable node, preferring a rest when hurt.
func (a Autopilot) chooseNode(r *Run) string {
	current := r.CurrentNode()
	nodes := r.Map()
	byID := make(map[string]world.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	cur := byID[current]
	p := r.EffectivePlayer()
	hurt := float64(p.HP) < float64(p.MaxHP())*potionThreshold
	var choice string
	for _, id := range cur.Connections {
		n := byID[id]
		if n.Completed {
			continue
		}
		if choice == "" {
			choice = id
		}
		if hurt && n.Type == world.Rest {
			return id
		}
	}
	return choice
}

func (a Autopilot) summarize(r *Run, steps int) Summary {
	p := r.Player()
	return Summary{
		Phase:   r.Phase(),
		Level:   p.Level,
		Floor:   r.FloorNumber(),
		Wave:    r.Wave(),
		Gold:    p.Gold,
		Mastery: r.MasteryEarned(),
		Steps:   steps,
	}
}
