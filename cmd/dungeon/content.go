package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Generate and print a story floor",
	Long: `Generate the node graph of one story floor and print it layer by layer.

  Example: dungeon map --floor 2 --seed 42`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

var lootCmd = &cobra.Command{
	Use:   "loot",
	Short: "Generate equipment items",
	Long: `Generate items around a level, optionally forcing a rarity or a boss's unique drop.

  Example: dungeon loot --level 8 --count 6 --shop
  Example: dungeon loot --level 12 --unique "Red Dragon"`,
	Args: cobra.NoArgs,
	RunE: runLoot,
}

func init() {
	mapCmd.Flags().Int("floor", 1, "floor number")
	mapCmd.Flags().Bool("yaml", false, "print the nodes as YAML")

	f := lootCmd.Flags()
	f.Int("level", 1, "player level")
	f.Int("count", 6, "number of items")
	f.String("rarity", "", "force a rarity: Common, Rare, Epic or Legendary")
	f.String("attack-type", "", "bias items to physical or magical")
	f.Int("floor-offset", 0, "added to every item level")
	f.Bool("shop", false, "apply the shop markup")
	f.String("unique", "", "boss whose unique item to generate")
}

func runMap(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	n, _ := cmd.Flags().GetInt("floor")
	theme, ok := a.rules.Floor(n)
	if !ok {
		return fmt.Errorf("--floor must be between 1 and %d, got %d", a.rules.FloorCount(), n)
	}
	floor := world.Generate(n, theme, a.src)
	if err := floor.Validate(); err != nil {
		return fmt.Errorf("generated floor is invalid: %w", err)
	}

	out := cmd.OutOrStdout()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return writeYAML(out, floor.Nodes())
	}
	fmt.Fprintf(out, "Floor %d: %s (boss %s)\n", n, theme.Name, theme.Boss)
	renderFloor(out, floor.Nodes())
	return nil
}

// lootOptions validates the loot flags.
func lootOptions(cmd *cobra.Command) (level, count int, opts loot.Options, err error) {
	f := cmd.Flags()
	level, _ = f.GetInt("level")
	count, _ = f.GetInt("count")
	if level < 1 {
		return 0, 0, opts, fmt.Errorf("--level must be >= 1, got %d", level)
	}
	if count < 0 {
		return 0, 0, opts, fmt.Errorf("--count must be >= 0, got %d", count)
	}
	rarity, _ := f.GetString("rarity")
	opts.Rarity = inventory.Rarity(rarity)
	if rarity != "" && (!opts.Rarity.Valid() || opts.Rarity == inventory.Unique) {
		return 0, 0, opts, fmt.Errorf("unknown rarity %q; use --unique for boss items", rarity)
	}
	at, _ := f.GetString("attack-type")
	opts.AttackType = stats.AttackType(at)
	if at != "" && !opts.AttackType.Valid() {
		return 0, 0, opts, fmt.Errorf("unknown attack type %q", at)
	}
	opts.FloorOffset, _ = f.GetInt("floor-offset")
	opts.Shop, _ = f.GetBool("shop")
	opts.UniqueOwner, _ = f.GetString("unique")
	return level, count, opts, nil
}

func runLoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	level, count, opts, err := lootOptions(cmd)
	if err != nil {
		return err
	}
	gen := loot.NewGenerator(a.pools, a.rules.Floors(), a.src)
	if opts.UniqueOwner != "" && !gen.HasUnique(opts.UniqueOwner) {
		return fmt.Errorf("%q drops no unique item", opts.UniqueOwner)
	}
	out := cmd.OutOrStdout()
	for _, it := range gen.Generate(level, count, opts) {
		fmt.Fprintln(out, renderItem(it))
	}
	return nil
}
