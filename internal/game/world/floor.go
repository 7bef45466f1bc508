// Package world generates and tracks the branching node map of a story floor.
package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// NodeType classifies the encounter at a map node.
type NodeType string

const (
	Battle      NodeType = "battle"
	EliteBattle NodeType = "elite_battle"
	Treasure    NodeType = "treasure"
	Rest        NodeType = "rest"
	Boss        NodeType = "boss"
	Shop        NodeType = "shop"
	Luck        NodeType = "luck"
	Exit        NodeType = "exit"
)

// IsBattle reports whether visiting a node of type t starts a battle.
func (t NodeType) IsBattle() bool {
	return t == Battle || t == EliteBattle || t == Boss
}

// Layout and generation constants.
const (
	// IntermediateLayers is the number of layers between the start and the boss.
	IntermediateLayers = 8
	// MaxNodesPerLayer caps the width of an intermediate layer.
	MaxNodesPerLayer = 4
	// StartHeal is the heal fraction of the start rest node.
	StartHeal = 1.0
	// RestHeal is the heal fraction of generated rest nodes.
	RestHeal = 0.3

	branchChance   = 0.4
	verticalSpread = 30.0
	minY           = 10.0
	maxY           = 90.0
	centerY        = 50.0
	startX         = 5.0
	bossX          = 95.0
	exitX          = 105.0
)

// nodeTypeThresholds is the cumulative distribution of intermediate node types.
var nodeTypeThresholds = []struct {
	below float64
	typ   NodeType
}{
	{0.55, Battle},
	{0.70, EliteBattle},
	{0.82, Treasure},
	{0.90, Rest},
	{0.96, Shop},
	{1.00, Luck},
}

// Node is one encounter location on a floor map.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	// X and Y are layout coordinates in percent; they carry no gameplay meaning.
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Layer int     `json:"layer"`
	// Connections lists the ids of nodes reachable in one step.
	Connections []string `json:"connections"`
	// Enemy names the enemy archetype fought at battle nodes.
	Enemy string `json:"enemy,omitempty"`
	// RestHeal is the fraction of max HP restored at rest nodes.
	RestHeal  float64 `json:"restHeal,omitempty"`
	Completed bool    `json:"completed"`
	// Reward summarizes what the node yielded once resolved.
	Reward string `json:"reward,omitempty"`
}

// Floor is the generated node graph of one story floor.
//
// Invariant: the graph is a DAG whose edges go from a lower to a higher
// layer; every node is reachable from the start node and reaches the boss;
// the boss connects only to the exit; the exit has no connections.
type Floor struct {
	Number int
	theme  ruleset.FloorTheme
	nodes  []Node
	index  map[string]int
}

// StartID returns the id of the start node of floor n.
func StartID(n int) string { return fmt.Sprintf("node-%d-0-0", n) }

// BossID returns the id of the boss node of floor n.
func BossID(n int) string { return fmt.Sprintf("node-%d-boss", n) }

// ExitID returns the id of the exit node of floor n.
func ExitID(n int) string { return fmt.Sprintf("node-%d-exit", n) }

func layerX(layer int) float64 {
	return float64(layer)*(bossX-startX)/float64(IntermediateLayers+1) + startX
}

// Generate builds the map of floor number from theme.
//
// Precondition: number >= 1; src must be non-nil; theme.Validate() == nil.
// Postcondition: the returned floor satisfies Validate.
func Generate(number int, theme ruleset.FloorTheme, src dice.Source) *Floor {
	if number < 1 {
		panic(fmt.Sprintf("world: Generate precondition violated: floor number %d < 1", number))
	}
	if src == nil {
		panic("world: Generate precondition violated: src must be non-nil")
	}
	if err := theme.Validate(); err != nil {
		panic("world: Generate precondition violated: " + err.Error())
	}

	f := &Floor{Number: number, theme: theme, index: map[string]int{}}
	start := f.add(Node{ID: StartID(number), Type: Rest, X: startX, Y: centerY, RestHeal: StartHeal})

	prev := []int{start}
	counter := 1
	for layer := 1; layer <= IntermediateLayers; layer++ {
		var cur []int
		for _, parent := range prev {
			edges := 1
			if src.Float64() < branchChance {
				edges = 2
			}
			for e := 0; e < edges && len(cur) < MaxNodesPerLayer; e++ {
				n := Node{
					ID:    fmt.Sprintf("node-%d-%d-%d", number, layer, counter),
					Type:  rollNodeType(src),
					X:     layerX(layer),
					Layer: layer,
				}
				counter++
				switch n.Type {
				case Battle:
					n.Enemy = dice.Pick(src, theme.Enemies)
				case EliteBattle:
					n.Enemy = dice.Pick(src, theme.EliteEnemies)
				case Rest:
					n.RestHeal = RestHeal
				}
				y := f.nodes[parent].Y + dice.Uniform(src, -verticalSpread, verticalSpread)
				n.Y = math.Max(minY, math.Min(maxY, y))
				idx := f.add(n)
				f.link(parent, idx)
				cur = append(cur, idx)
			}
		}
		if len(cur) == 0 {
			parent := dice.Pick(src, prev)
			idx := f.add(Node{
				ID:    fmt.Sprintf("node-%d-%d-%d", number, layer, counter),
				Type:  Battle,
				X:     layerX(layer),
				Y:     centerY,
				Layer: layer,
				Enemy: theme.Enemies[0],
			})
			counter++
			f.link(parent, idx)
			cur = append(cur, idx)
		}
		// Parents starved by the width cap still need a way forward.
		for _, parent := range prev {
			if len(f.nodes[parent].Connections) == 0 {
				f.link(parent, dice.Pick(src, cur))
			}
		}
		prev = cur
	}

	boss := f.add(Node{ID: BossID(number), Type: Boss, X: bossX, Y: centerY, Layer: IntermediateLayers + 1, Enemy: theme.Boss})
	for _, parent := range prev {
		f.link(parent, boss)
	}
	exit := f.add(Node{ID: ExitID(number), Type: Exit, X: exitX, Y: centerY, Layer: IntermediateLayers + 2})
	f.link(boss, exit)
	return f
}

func rollNodeType(src dice.Source) NodeType {
	r := src.Float64()
	for _, t := range nodeTypeThresholds {
		if r < t.below {
			return t.typ
		}
	}
	return Luck
}

func (f *Floor) add(n Node) int {
	f.index[n.ID] = len(f.nodes)
	f.nodes = append(f.nodes, n)
	return len(f.nodes) - 1
}

func (f *Floor) link(from, to int) {
	f.nodes[from].Connections = append(f.nodes[from].Connections, f.nodes[to].ID)
}

// Theme returns the floor's theme.
func (f *Floor) Theme() ruleset.FloorTheme { return f.theme }

// Node returns a copy of the node with id.
func (f *Floor) Node(id string) (Node, bool) {
	i, ok := f.index[id]
	if !ok {
		return Node{}, false
	}
	n := f.nodes[i]
	n.Connections = append([]string(nil), n.Connections...)
	return n, true
}

// Nodes returns copies of every node in generation order.
func (f *Floor) Nodes() []Node {
	out := make([]Node, len(f.nodes))
	for i, n := range f.nodes {
		n.Connections = append([]string(nil), n.Connections...)
		out[i] = n
	}
	return out
}

// Start returns the start node.
func (f *Floor) Start() Node {
	n, _ := f.Node(StartID(f.Number))
	return n
}

// Boss returns the boss node.
func (f *Floor) Boss() Node {
	n, _ := f.Node(BossID(f.Number))
	return n
}

// Exit returns the exit node.
func (f *Floor) Exit() Node {
	n, _ := f.Node(ExitID(f.Number))
	return n
}

// Connected reports whether to is reachable from from in one step.
func (f *Floor) Connected(from, to string) bool {
	i, ok := f.index[from]
	if !ok {
		return false
	}
	for _, c := range f.nodes[i].Connections {
		if c == to {
			return true
		}
	}
	return false
}

// Complete marks the node with id as visited and records its reward summary.
//
// Postcondition: returns false if id is unknown.
func (f *Floor) Complete(id, reward string) bool {
	i, ok := f.index[id]
	if !ok {
		return false
	}
	f.nodes[i].Completed = true
	if reward != "" {
		f.nodes[i].Reward = reward
	}
	return true
}

// UpgradeBattles turns up to n unvisited Battle nodes into EliteBattle nodes
// fighting a theme elite.
//
// Postcondition: returns the ids of the upgraded nodes; fewer than n when not
// enough candidates exist.
func (f *Floor) UpgradeBattles(n int, src dice.Source) []string {
	var candidates []int
	for i, node := range f.nodes {
		if node.Type == Battle && !node.Completed {
			candidates = append(candidates, i)
		}
	}
	var upgraded []string
	for ; n > 0 && len(candidates) > 0; n-- {
		k := src.Intn(len(candidates))
		i := candidates[k]
		candidates = append(candidates[:k], candidates[k+1:]...)
		f.nodes[i].Type = EliteBattle
		f.nodes[i].Enemy = dice.Pick(src, f.theme.EliteEnemies)
		upgraded = append(upgraded, f.nodes[i].ID)
	}
	return upgraded
}

// Validate checks the floor invariants.
//
// Postcondition: Returns nil iff every invariant of Floor holds, otherwise
// every violation joined.
func (f *Floor) Validate() error {
	var errs []error
	var bosses, exits int
	for _, n := range f.nodes {
		switch n.Type {
		case Boss:
			bosses++
			if len(n.Connections) != 1 || n.Connections[0] != ExitID(f.Number) {
				errs = append(errs, fmt.Errorf("boss %q must connect only to the exit", n.ID))
			}
		case Exit:
			exits++
			if len(n.Connections) != 0 {
				errs = append(errs, fmt.Errorf("exit %q must have no connections", n.ID))
			}
		}
		for _, c := range n.Connections {
			j, ok := f.index[c]
			if !ok {
				errs = append(errs, fmt.Errorf("node %q connects to unknown node %q", n.ID, c))
				continue
			}
			if f.nodes[j].Layer <= n.Layer {
				errs = append(errs, fmt.Errorf("edge %q -> %q does not move forward", n.ID, c))
			}
		}
	}
	if bosses != 1 {
		errs = append(errs, fmt.Errorf("expected exactly one boss, found %d", bosses))
	}
	if exits != 1 {
		errs = append(errs, fmt.Errorf("expected exactly one exit, found %d", exits))
	}
	if _, ok := f.index[StartID(f.Number)]; !ok {
		errs = append(errs, errors.New("start node missing"))
	} else {
		reached := f.reachableFrom(StartID(f.Number))
		for _, n := range f.nodes {
			if !reached[n.ID] {
				errs = append(errs, fmt.Errorf("node %q is unreachable from the start", n.ID))
			}
		}
	}
	if _, ok := f.index[BossID(f.Number)]; ok {
		for _, n := range f.nodes {
			if n.Type == Exit || n.Type == Boss {
				continue
			}
			if !f.reachableFrom(n.ID)[BossID(f.Number)] {
				errs = append(errs, fmt.Errorf("node %q cannot reach the boss", n.ID))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("floor %d: %w", f.Number, errors.Join(errs...))
	}
	return nil
}

func (f *Floor) reachableFrom(id string) map[string]bool {
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		i, ok := f.index[cur]
		if !ok {
			continue
		}
		for _, c := range f.nodes[i].Connections {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return seen
}
