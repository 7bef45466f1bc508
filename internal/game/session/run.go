// Package session orchestrates one single-player run: hero and difficulty
// selection, map navigation, node events, battles, level-ups, the shop, and
// the survival wave loop.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/mastery"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Phase is the screen a run is on.
type Phase string

const (
	PhaseHeroSelect       Phase = "hero_select"
	PhaseDifficultySelect Phase = "difficulty_select"
	PhaseMap              Phase = "map"
	PhaseReady            Phase = "ready"
	PhaseBattling         Phase = "battling"
	PhaseLevelUp          Phase = "level_up"
	PhaseShop             Phase = "shop"
	PhaseTreasure         Phase = "treasure"
	PhaseLuck             Phase = "luck"
	PhaseFloorExit        Phase = "floor_exit"
	PhaseOver             Phase = "over"
	PhaseVictory          Phase = "victory"
)

// Tuning of the run loop.
const (
	// ShopSize is the number of items a shop offers.
	ShopSize = 6
	// FloorAdvanceHeal is the heal fraction granted on reaching a new floor.
	FloorAdvanceHeal = 0.5
	// dangerJump is added to the next floor's danger when the player
	// out-levels the current danger by more than dangerSlack.
	dangerJump  = 5
	dangerSlack = 2
	// Survival opening and wave enemies.
	survivalOpener = "Giant Spider"
	survivalWave   = "Skeleton"
	feedBuffer     = 256
)

var (
	// ErrWrongPhase is returned when an operation is not valid on the current screen.
	ErrWrongPhase = errors.New("operation not valid in this phase")
	// ErrUnknownHero is returned when selecting a hero id the rules do not define.
	ErrUnknownHero = errors.New("unknown hero")
	// ErrUnknownDifficulty is returned when selecting an undefined difficulty.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrUnknownNode is returned when selecting a node id not on the floor.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNodeCompleted is returned when selecting an already visited node.
	ErrNodeCompleted = errors.New("node already completed")
	// ErrNodeNotReachable is returned when selecting a node not connected to the current one.
	ErrNodeNotReachable = errors.New("node not reachable from the current node")
	// ErrNotInStock is returned when buying an item the shop does not offer.
	ErrNotInStock = errors.New("item not in shop stock")
	// ErrNoLives is returned when continuing after a defeat without extra lives.
	ErrNoLives = errors.New("no extra lives left")
)

// Config is the explicit session configuration passed into a run.
type Config struct {
	Mode       ruleset.Mode
	Hero       string
	Difficulty string
	// AutoDistribute spends attribute points as soon as they are granted.
	AutoDistribute bool
	// AutoSpendGold runs the auto-shop when a survival shop closes.
	AutoSpendGold bool
}

// Deps are the collaborators a run draws on.
type Deps struct {
	Rules   *ruleset.Rules
	Enemies *npc.Catalogue
	Pools   loot.NamePools
	Source  dice.Source
	// Ledger records mastery points on defeat; nil disables mastery.
	Ledger *mastery.Ledger
	// Logger defaults to a no-op logger when nil.
	Logger *zap.Logger
}

// TreasureReward is the payload of a treasure node.
type TreasureReward struct {
	Item       *inventory.Item       `json:"item,omitempty"`
	Consumable *inventory.Consumable `json:"consumable,omitempty"`
	Gold       int                   `json:"gold,omitempty"`
}

// Run is one play-through from hero selection to victory or defeat.
// All methods are safe for concurrent use.
type Run struct {
	mu sync.Mutex

	id      string
	cfg     Config
	rules   *ruleset.Rules
	enemies *npc.Catalogue
	loot    *loot.Generator
	src     dice.Source
	roller  *dice.Roller
	ledger  *mastery.Ledger
	logger  *zap.Logger
	feed    *Feed

	phase      Phase
	player     character.Character
	difficulty ruleset.Difficulty
	enemy      character.Character
	battle     *combat.Battle
	alloc      *progression.Allocator
	points     int
	retrying   bool
	victory    *progression.Victory
	stock      []inventory.Item
	abandoned  bool
	mastery    int

	floorNum       int
	floor          *world.Floor
	current        string
	nodesTraversed int
	danger         int
	bossBuffed     bool
	treasure       *TreasureReward
	luck           *LuckResult

	wave int
}

// NewRun creates a run on the hero selection screen.
//
// Precondition: deps.Rules, deps.Enemies and deps.Source must be non-nil and
// deps.Pools must be valid.
// Postcondition: Returns an error if cfg.Mode is unknown.
func NewRun(cfg Config, deps Deps) (*Run, error) {
	if deps.Rules == nil || deps.Enemies == nil || deps.Source == nil {
		panic("session: NewRun precondition violated: rules, enemies and source must be non-nil")
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("creating run: unknown game mode %q", cfg.Mode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("run", id), zap.String("mode", string(cfg.Mode)))
	return &Run{
		id:      id,
		cfg:     cfg,
		rules:   deps.Rules,
		enemies: deps.Enemies,
		loot:    loot.NewGenerator(deps.Pools, deps.Rules.Floors(), deps.Source),
		src:     deps.Source,
		roller:  dice.NewLoggedRoller(deps.Source, logger),
		ledger:  deps.Ledger,
		logger:  logger,
		feed:    NewFeed(id, feedBuffer),
		phase:   PhaseHeroSelect,
	}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Config returns the run configuration.
func (r *Run) Config() Config { return r.cfg }

// Feed returns the run's notice feed.
func (r *Run) Feed() *Feed { return r.feed }

// Phase returns the current screen.
func (r *Run) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Player returns a copy of the stored player record.
func (r *Run) Player() character.Character {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.player.Clone()
}

// EffectivePlayer returns the combat-ready view of the player.
func (r *Run) EffectivePlayer() character.Character {
	r.mu.Lock()
	defer r.mu.Unlock()
	return character.Effective(&r.player)
}

// Enemy returns a copy of the current enemy, or false when none is set.
func (r *Run) Enemy() (character.Character, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enemy.ID == "" {
		return character.Character{}, false
	}
	if r.battle != nil {
		return r.battle.Enemy(), true
	}
	return r.enemy.Clone(), true
}

// Battle returns the battle in progress, or nil.
func (r *Run) Battle() *combat.Battle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.battle
}

// Difficulty returns the selected difficulty.
func (r *Run) Difficulty() ruleset.Difficulty {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.difficulty
}

// Points returns the unspent attribute points.
func (r *Run) Points() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alloc != nil {
		return r.alloc.Points()
	}
	return r.points
}

// Stock returns the items the open shop offers.
func (r *Run) Stock() []inventory.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Item, len(r.stock))
	for i, it := range r.stock {
		out[i] = it.Clone()
	}
	return out
}

// LastVictory returns the rewards of the most recent won battle.
func (r *Run) LastVictory() (progression.Victory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.victory == nil {
		return progression.Victory{}, false
	}
	return *r.victory, true
}

// Treasure returns the payload of the treasure screen.
func (r *Run) Treasure() (TreasureReward, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.treasure == nil {
		return TreasureReward{}, false
	}
	return *r.treasure, true
}

// Luck returns the payload of the luck screen.
func (r *Run) Luck() (LuckResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.luck == nil {
		return LuckResult{}, false
	}
	return *r.luck, true
}

// FloorNumber returns the current story floor, or 0 in survival.
func (r *Run) FloorNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.floorNum
}

// Map returns copies of the current floor's nodes.
func (r *Run) Map() []world.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.floor == nil {
		return nil
	}
	return r.floor.Nodes()
}

// CurrentNode returns the id of the node the player stands on.
func (r *Run) CurrentNode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// NodesTraversed returns the number of nodes visited on the current floor.
func (r *Run) NodesTraversed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodesTraversed
}

// Danger returns the base enemy level of the current floor.
func (r *Run) Danger() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.danger
}

// BossBuffed reports whether the current floor's boss carries the luck buff.
func (r *Run) BossBuffed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bossBuffed
}

// Wave returns the survival wave, or 0 in story.
func (r *Run) Wave() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wave
}

// MasteryEarned returns the mastery points awarded during this run.
func (r *Run) MasteryEarned() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mastery
}

// Abandoned reports whether the run was abandoned.
func (r *Run) Abandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abandoned
}

// Start selects the configured hero and difficulty.
func (r *Run) Start() error {
	if err := r.SelectHero(r.cfg.Hero); err != nil {
		return err
	}
	return r.SelectDifficulty(r.cfg.Difficulty)
}

// SelectHero creates a fresh level 1 hero from the archetype with id.
//
// Postcondition: on success the run moves to difficulty selection.
func (r *Run) SelectHero(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("select hero", PhaseHeroSelect); err != nil {
		return err
	}
	arch, ok := r.rules.Hero(id)
	if !ok {
		return r.reject("select hero", fmt.Errorf("select hero %q: %w", id, ErrUnknownHero))
	}
	r.player = character.New(arch, progression.XPToNextLevel)
	if r.cfg.Mode == ruleset.Survival {
		r.player.Lives = ruleset.SurvivalLives
	}
	r.logger.Info("hero selected", zap.String("hero", id))
	r.setPhase(PhaseDifficultySelect)
	return nil
}

// SelectDifficulty applies the starting grants of the difficulty with id and
// opens the first encounter.
//
// Postcondition: on success the player is at full HP; story runs land on the
// start node of floor 1, survival runs face the opening enemy.
func (r *Run) SelectDifficulty(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("select difficulty", PhaseDifficultySelect); err != nil {
		return err
	}
	diff, ok := r.rules.Difficulty(id)
	if !ok {
		return r.reject("select difficulty", fmt.Errorf("select difficulty %q: %w", id, ErrUnknownDifficulty))
	}
	r.difficulty = diff
	r.player.Gold += diff.StartingGold
	if diff.StartingItem {
		items := r.loot.Generate(1, 1, loot.Options{Rarity: inventory.Common, AttackType: r.player.AttackType})
		for _, it := range items {
			r.player = r.player.Acquire(it)
		}
	}
	r.player = r.player.FullHeal()
	r.logger.Info("difficulty selected", zap.String("difficulty", id))

	if r.cfg.Mode == ruleset.Survival {
		r.wave = 1
		r.enemy = r.spawn(survivalOpener, 1, character.TierNormal, "")
		r.setPhase(PhaseReady)
		return nil
	}
	r.enterFloor(1, 1)
	r.player = r.player.FullHeal()
	r.setPhase(PhaseMap)
	return nil
}

// Abandon leaves the run without awarding mastery, cancelling any battle.
func (r *Run) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseOver || r.phase == PhaseVictory {
		return
	}
	if r.battle != nil {
		r.battle.Cancel()
		r.battle = nil
	}
	r.abandoned = true
	r.logger.Info("run abandoned")
	r.setPhase(PhaseOver)
}

func (r *Run) spawn(name string, level int, tier character.Tier, id string) character.Character {
	return r.enemies.Spawn(npc.Request{
		Name:       name,
		Level:      level,
		Difficulty: r.difficulty,
		Mode:       r.cfg.Mode,
		Tier:       tier,
		BossBuff:   tier == character.TierBoss && r.bossBuffed,
		ID:         id,
	})
}

// expect returns ErrWrongPhase, logged, unless the run is in one of phases.
func (r *Run) expect(op string, phases ...Phase) error {
	for _, p := range phases {
		if r.phase == p {
			return nil
		}
	}
	return r.reject(op, fmt.Errorf("%s in phase %s: %w", op, r.phase, ErrWrongPhase))
}

// reject logs a refused operation; state is left untouched.
func (r *Run) reject(op string, err error) error {
	r.logger.Warn("operation refused", zap.String("op", op), zap.String("phase", string(r.phase)), zap.Error(err))
	return err
}

func (r *Run) setPhase(p Phase) {
	r.phase = p
	r.publish(Notice{Kind: NoticePhase})
}

func (r *Run) publish(n Notice) {
	n.Phase = r.phase
	if err := r.feed.Push(n); err != nil {
		r.logger.Debug("notice dropped", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}
