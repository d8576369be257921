package mcts

import (
	"github.com/brensch/mcts2048/executor/rollout"
	"github.com/brensch/mcts2048/game"
)

const noChild int32 = -1

// node is either a decision node (before a move) or a chance node (after a
// move, before the spawn). Nodes live in Tree.nodes and refer to each other
// by index.
type node struct {
	Visits int
	Value  float64

	chance bool

	// decision
	children [game.NumDirections]int32
	blocked  uint8 // bit d set: d changes nothing from this node

	// chance
	reward int              // score of the move into this node
	next   map[string]int32 // post-spawn key -> decision node
}

func (n *node) isBlocked(d game.Direction) bool {
	return n.blocked&(1<<uint(d)) != 0
}

// Mean is Value/Visits, or 0 before the first visit.
func (n *node) Mean() float64 {
	if n.Visits == 0 {
		return 0
	}
	return n.Value / float64(n.Visits)
}

// Config holds search configuration.
type Config struct {
	// Simulations is the number of root-to-leaf walks per search.
	Simulations int
	// C weighs exploration in the UCB formula. Values are in score units,
	// so it is usually large (hundreds).
	C       float64
	Rollout rollout.Policy
}

// DefaultConfig mirrors the tuned defaults of the self-play driver.
func DefaultConfig() Config {
	return Config{
		Simulations: 1000,
		C:           800,
		Rollout:     rollout.Policy{Strategy: rollout.Uniform},
	}
}

// Tree is the result of one Search. It is owned by the caller and never
// shared with another search.
type Tree struct {
	nodes    []node
	maxDepth int
	sims     int
}

func newTree(capacity int) *Tree {
	t := &Tree{nodes: make([]node, 0, capacity)}
	t.newDecision()
	return t
}

func (t *Tree) newDecision() int32 {
	t.nodes = append(t.nodes, node{children: [game.NumDirections]int32{noChild, noChild, noChild, noChild}})
	return int32(len(t.nodes) - 1)
}

func (t *Tree) newChance(reward int) int32 {
	t.nodes = append(t.nodes, node{chance: true, reward: reward})
	return int32(len(t.nodes) - 1)
}

// follow returns the decision node under chance node ci for key, creating it
// on first sight.
func (t *Tree) follow(ci int32, key []byte) int32 {
	c := &t.nodes[ci]
	if c.next == nil {
		c.next = make(map[string]int32, 2)
	}
	if di, ok := c.next[string(key)]; ok {
		return di
	}
	di := t.newDecision()
	// newDecision may have moved the arena.
	t.nodes[ci].next[string(key)] = di
	return di
}

// ChildStats describes one direction at the root.
type ChildStats struct {
	Visits   int
	Value    float64
	Mean     float64
	Reward   int
	Outcomes int
	Blocked  bool
	Expanded bool
}

// RootStats reports the root's chance children in direction order.
func (t *Tree) RootStats() [game.NumDirections]ChildStats {
	var out [game.NumDirections]ChildStats
	root := &t.nodes[0]
	for _, d := range game.Directions {
		out[d].Blocked = root.isBlocked(d)
		ci := root.children[d]
		if ci == noChild {
			continue
		}
		c := &t.nodes[ci]
		out[d] = ChildStats{
			Visits:   c.Visits,
			Value:    c.Value,
			Mean:     c.Mean(),
			Reward:   c.reward,
			Outcomes: len(c.next),
			Expanded: true,
		}
	}
	return out
}

// RootVisits is the number of simulations that reached the root.
func (t *Tree) RootVisits() int { return t.nodes[0].Visits }

// RootMean is the root's average value.
func (t *Tree) RootMean() float64 { return t.nodes[0].Mean() }

// Size is the number of nodes of both kinds.
func (t *Tree) Size() int { return len(t.nodes) }

// MaxDepth is the deepest decision level reached. The root is depth 0.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Simulations is the number of simulations run.
func (t *Tree) Simulations() int { return t.sims }
