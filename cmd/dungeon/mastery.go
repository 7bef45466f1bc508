package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dungeon/internal/game/mastery"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Show the mastery points banked by every hero",
	Long: `Read the mastery record from the configured storage backend and print the
points each hero has earned and spent.`,
	Args: cobra.NoArgs,
	RunE: runMastery,
}

func runMastery(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	store, closeStore, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	return writeMastery(cmd, data)
}

func writeMastery(cmd *cobra.Command, data mastery.Data) error {
	out := cmd.OutOrStdout()
	if len(data) == 0 {
		fmt.Fprintln(out, "No mastery points banked yet.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HERO\tTOTAL\tSPENT\tAVAILABLE")
	for _, id := range data.IDs() {
		r := data[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", id, r.TotalPoints, r.SpentPoints, r.Available())
	}
	return tw.Flush()
}
