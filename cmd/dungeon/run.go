package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/mastery"
	"github.com/cory-johannsen/dungeon/internal/game/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a full run with the autopilot",
	Long: `Play a story or survival run from hero selection to the end, printing the
battle log and every event. Flags override the configuration file.

  Example: dungeon run --mode survival --hero archer --difficulty hard --seed 7`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("mode", "", "game mode: story or survival")
	f.String("hero", "", "hero id")
	f.String("difficulty", "", "difficulty id")
	f.Int("speed", 0, "battle speed multiplier, 1 to 3")
	f.Bool("paced", false, "pace battles in real time")
	f.Bool("continue", true, "spend extra lives after survival defeats")
	f.Bool("auto-distribute", false, "spend attribute points automatically")
	f.Bool("auto-spend-gold", false, "buy upgrades automatically when leaving the survival shop")
	f.Int("max-steps", 5000, "stop after this many decisions")
}

// applyRunFlags overrides the game settings with the flags the user set.
func applyRunFlags(cmd *cobra.Command, g *config.GameConfig) error {
	f := cmd.Flags()
	var err error
	if f.Changed("mode") {
		g.Mode, err = f.GetString("mode")
	}
	if err == nil && f.Changed("hero") {
		g.Hero, err = f.GetString("hero")
	}
	if err == nil && f.Changed("difficulty") {
		g.Difficulty, err = f.GetString("difficulty")
	}
	if err == nil && f.Changed("speed") {
		g.Speed, err = f.GetInt("speed")
	}
	if err == nil && f.Changed("auto-distribute") {
		g.AutoDistribute, err = f.GetBool("auto-distribute")
	}
	if err == nil && f.Changed("auto-spend-gold") {
		g.AutoSpendGold, err = f.GetBool("auto-spend-gold")
	}
	return err
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &cfg.Game); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	paced, _ := cmd.Flags().GetBool("paced")
	cont, _ := cmd.Flags().GetBool("continue")
	if maxSteps <= 0 {
		return fmt.Errorf("--max-steps must be > 0, got %d", maxSteps)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	ledger := mastery.NewLedger(ctx, store, a.logger)

	r, err := session.NewRun(cfg.Session(), session.Deps{
		Rules:   a.rules,
		Enemies: a.enemies,
		Pools:   a.pools,
		Source:  a.src,
		Ledger:  ledger,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	runs := session.NewManager()
	if err := runs.Add(r); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := range r.Feed().Notices() {
			for _, line := range renderNotice(n) {
				fmt.Fprintln(out, line)
			}
		}
	}()

	pilot := session.Autopilot{MaxSteps: maxSteps, Continue: cont}
	if paced {
		pilot.Pacer = combat.NewPacer(cfg.Game.Tick(), cfg.Game.Speed, nil)
	}
	a.logger.Info("run started",
		zap.String("run", r.ID()),
		zap.String("mode", cfg.Game.Mode),
		zap.String("hero", cfg.Game.Hero),
		zap.String("difficulty", cfg.Game.Difficulty),
	)
	summary, playErr := pilot.Play(ctx, r)

	if err := runs.Remove(r.ID()); err != nil {
		a.logger.Warn("removing run", zap.Error(err))
	}
	wg.Wait()

	fmt.Fprintln(out, "---")
	if err := writeYAML(out, summary); err != nil {
		return err
	}
	switch {
	case errors.Is(playErr, session.ErrStepLimit):
		a.logger.Warn("run stopped at the step limit", zap.Int("steps", summary.Steps))
		return nil
	case playErr != nil:
		return playErr
	}
	return nil
}
