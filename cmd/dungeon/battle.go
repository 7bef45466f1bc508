package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// maxBattleTicks stops an unpaced battle that cannot end.
const maxBattleTicks = 100000

var battleCmd = &cobra.Command{
	Use:   "battle",
	Short: "Fight a single battle between a fresh hero and an enemy",
	Long: `Spawn a level 1 hero and an enemy, then run the battle to its end and print
the log.

  Example: dungeon battle --hero wizard --enemy Orc --level 2 --tier elite`,
	Args: cobra.NoArgs,
	RunE: runBattle,
}

func init() {
	f := battleCmd.Flags()
	f.String("hero", "knight", "hero id")
	f.String("enemy", "Skeleton", "enemy archetype name")
	f.Int("level", 1, "enemy level")
	f.String("tier", string(character.TierNormal), "enemy tier: normal, elite or boss")
	f.String("difficulty", "medium", "difficulty id")
	f.String("mode", string(ruleset.Story), "game mode: story or survival")
	f.Bool("boss-buff", false, "apply the boss buff")
	f.Bool("paced", false, "pace the battle in real time")
}

// battleRequest is the validated input of the battle command.
type battleRequest struct {
	hero  character.Archetype
	enemy npc.Request
	paced bool
}

func parseBattleFlags(cmd *cobra.Command, rules *ruleset.Rules) (battleRequest, error) {
	f := cmd.Flags()
	heroID, _ := f.GetString("hero")
	hero, ok := rules.Hero(heroID)
	if !ok {
		return battleRequest{}, fmt.Errorf("unknown hero %q", heroID)
	}
	diffID, _ := f.GetString("difficulty")
	diff, ok := rules.Difficulty(diffID)
	if !ok {
		return battleRequest{}, fmt.Errorf("unknown difficulty %q", diffID)
	}
	modeName, _ := f.GetString("mode")
	mode, err := ruleset.ParseMode(modeName)
	if err != nil {
		return battleRequest{}, err
	}
	level, _ := f.GetInt("level")
	if level < 1 {
		return battleRequest{}, fmt.Errorf("--level must be >= 1, got %d", level)
	}
	tierName, _ := f.GetString("tier")
	tier := character.Tier(tierName)
	if !tier.Valid() {
		return battleRequest{}, fmt.Errorf("unknown tier %q", tierName)
	}
	name, _ := f.GetString("enemy")
	buff, _ := f.GetBool("boss-buff")
	paced, _ := f.GetBool("paced")
	return battleRequest{
		hero: hero,
		enemy: npc.Request{
			Name:       name,
			Level:      level,
			Difficulty: diff,
			Mode:       mode,
			Tier:       tier,
			BossBuff:   buff && tier == character.TierBoss,
		},
		paced: paced,
	}, nil
}

func runBattle(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	req, err := parseBattleFlags(cmd, a.rules)
	if err != nil {
		return err
	}
	if _, known := a.enemies.Lookup(req.enemy.Name); !known {
		a.logger.Warn("unknown enemy, using the fallback", zap.String("enemy", req.enemy.Name))
	}

	player := character.New(req.hero, progression.XPToNextLevel)
	enemy := a.enemies.Spawn(req.enemy)
	b := combat.NewBattle(character.Effective(&player), enemy, a.src)

	out := cmd.OutOrStdout()
	show := func(events []combat.Event) {
		for _, e := range events {
			fmt.Fprintln(out, renderEvent(e))
		}
	}
	show(b.Log())

	if req.paced {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		pacer := combat.NewPacer(cfg.Game.Tick(), cfg.Game.Speed, show)
		if err := pacer.Run(ctx, b); err != nil {
			b.Cancel()
			show(b.Log()[len(b.Log())-1:])
			return err
		}
	} else {
		show(b.Run(maxBattleTicks))
	}

	a.logger.Info("battle finished",
		zap.String("battle", b.ID()),
		zap.String("outcome", b.Outcome().String()),
		zap.Int("ticks", b.Tick()),
	)
	fmt.Fprintf(out, "Outcome: %s after %d ticks.\n", b.Outcome(), b.Tick())
	return nil
}
