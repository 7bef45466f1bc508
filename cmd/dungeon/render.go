package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// renderEvent returns the English line for one battle event.
func renderEvent(e combat.Event) string {
	switch e.Kind {
	case combat.EventStart:
		return fmt.Sprintf("%s faces %s (%d hp).", e.Attacker, e.Defender, e.HP)
	case combat.EventMiss:
		return fmt.Sprintf("[%d] %s misses %s.", e.Tick, e.Attacker, e.Defender)
	case combat.EventHit:
		return fmt.Sprintf("[%d] %s hits %s for %d (%d hp left).", e.Tick, e.Attacker, e.Defender, e.Damage, e.HP)
	case combat.EventCritical:
		return fmt.Sprintf("[%d] %s lands a critical hit on %s for %d (%d hp left)!", e.Tick, e.Attacker, e.Defender, e.Damage, e.HP)
	case combat.EventAbsorb:
		return fmt.Sprintf("[%d] %s absorbs %d damage.", e.Tick, e.Defender, e.Absorbed)
	case combat.EventDetermination:
		return fmt.Sprintf("[%d] %s is determined: %s +%.0f%%.", e.Tick, e.Attacker, e.Stat, e.Boost*100)
	case combat.EventVictory:
		return fmt.Sprintf("[%d] %s defeats %s.", e.Tick, e.Attacker, e.Defender)
	case combat.EventDefeat:
		return fmt.Sprintf("[%d] %s falls to %s.", e.Tick, e.Defender, e.Attacker)
	case combat.EventCancelled:
		return fmt.Sprintf("[%d] The battle is abandoned.", e.Tick)
	}
	return fmt.Sprintf("[%d] %s", e.Tick, e.Kind)
}

// renderNotice returns the lines shown for n. Phase changes render nothing.
func renderNotice(n session.Notice) []string {
	p := n.Params
	switch n.Kind {
	case session.NoticeBattle:
		lines := make([]string, len(n.Events))
		for i, e := range n.Events {
			lines[i] = renderEvent(e)
		}
		return lines
	case session.NoticeVictory:
		line := fmt.Sprintf("Victory: +%v xp, +%v gold.", p["xp"], p["gold"])
		if levels, ok := p["levels"].(int); ok && levels > 0 {
			line += fmt.Sprintf(" Level up x%d, %v attribute points.", levels, p["points"])
		}
		if unique, ok := p["unique"]; ok {
			line += fmt.Sprintf(" Unique drop: %v!", unique)
		}
		return []string{line}
	case session.NoticeMastery:
		return []string{fmt.Sprintf("Earned %v mastery points (%v total).", p["points"], p["total"])}
	case session.NoticeRest:
		return []string{fmt.Sprintf("You rest and recover %v hp.", p["hp"])}
	case session.NoticeTreasure:
		return []string{fmt.Sprintf("Treasure: %v.", p["summary"])}
	case session.NoticeLuck:
		return []string{"Luck: " + luckText(fmt.Sprint(p["kind"]))}
	case session.NoticeFloor:
		return []string{fmt.Sprintf("You descend to floor %v and recover %v hp.", p["floor"], p["hp"])}
	case session.NoticePurchase:
		return []string{fmt.Sprintf("Bought %v for %v gold.", p["item"], p["cost"])}
	case session.NoticeSale:
		return []string{fmt.Sprintf("Sold %v for %v gold.", p["item"], p["gold"])}
	case session.NoticeNewEnemy:
		return []string{fmt.Sprintf("Wave %v: a level %v %v approaches.", p["wave"], p["level"], p["enemy"])}
	case session.NoticeConsumable:
		return []string{fmt.Sprintf("Used %v, recovered %v hp.", p["id"], p["hp"])}
	case session.NoticeContinue:
		return []string{fmt.Sprintf("You rise again. %v lives left.", p["lives"])}
	case session.NoticeAutoBuy:
		items, _ := p["items"].([]string)
		return []string{"Auto-shop bought: " + strings.Join(items, ", ") + "."}
	case session.NoticeAttributes:
		return []string{fmt.Sprintf("Distributed %v attribute points.", p["points"])}
	case session.NoticeRunComplete:
		return []string{fmt.Sprintf("The dungeon is conquered at level %v!", p["level"])}
	}
	return nil
}

func luckText(kind string) string {
	switch session.LuckKind(kind) {
	case session.LuckTrap:
		return "a trap springs!"
	case session.LuckItem:
		return "you find an item."
	case session.LuckAttribute:
		return "you feel stronger."
	case session.LuckGold:
		return "you find a purse of gold."
	case session.LuckConsumable:
		return "you find a potion."
	case session.LuckElite:
		return "the dungeon grows more dangerous."
	case session.LuckBossBuff:
		return "the boss grows stronger."
	}
	return kind + "."
}

// renderItem returns a one-line description of it.
func renderItem(it inventory.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s L%d %dg", it.Icon, it.Rarity, it.Name, it.Level, it.Cost)
	for _, k := range it.Stats.Keys() {
		fmt.Fprintf(&b, " %s%+.0f", k, it.Stats[k])
	}
	return b.String()
}

// renderFloor prints the floor layer by layer.
func renderFloor(w io.Writer, nodes []world.Node) {
	byLayer := map[int][]world.Node{}
	for _, n := range nodes {
		byLayer[n.Layer] = append(byLayer[n.Layer], n)
	}
	layers := make([]int, 0, len(byLayer))
	for l := range byLayer {
		layers = append(layers, l)
	}
	sort.Ints(layers)
	for _, l := range layers {
		fmt.Fprintf(w, "layer %d\n", l)
		for _, n := range byLayer[l] {
			label := string(n.Type)
			if n.Enemy != "" {
				label += " " + n.Enemy
			}
			if n.Completed {
				label += " (done)"
			}
			if len(n.Connections) > 0 {
				fmt.Fprintf(w, "  %s %s -> %s\n", n.ID, label, strings.Join(n.Connections, ", "))
			} else {
				fmt.Fprintf(w, "  %s %s\n", n.ID, label)
			}
		}
	}
}

// writeYAML writes v as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
