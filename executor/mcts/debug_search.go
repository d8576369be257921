package mcts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brensch/mcts2048/game"
)

// Summary renders the root statistics and the most visited line of play.
// It is meant for humans (cmd/debugsearch), not for parsing.
func (t *Tree) Summary() string {
	var sb strings.Builder
	root := &t.nodes[0]
	fmt.Fprintf(&sb, "sims=%d root_visits=%d root_mean=%.1f nodes=%d max_depth=%d\n",
		t.sims, root.Visits, root.Mean(), t.Size(), t.MaxDepth())

	for d, cs := range t.RootStats() {
		dir := game.Direction(d)
		switch {
		case cs.Blocked:
			fmt.Fprintf(&sb, "  %-5s  blocked\n", dir)
		case !cs.Expanded:
			fmt.Fprintf(&sb, "  %-5s  unexpanded\n", dir)
		default:
			fmt.Fprintf(&sb, "  %-5s  n=%-6d q=%-10.1f reward=%-5d outcomes=%d\n",
				dir, cs.Visits, cs.Mean, cs.Reward, cs.Outcomes)
		}
	}

	pv := t.PrincipalVariation(8)
	if len(pv) > 0 {
		names := make([]string, len(pv))
		for i, d := range pv {
			names[i] = d.String()
		}
		fmt.Fprintf(&sb, "  pv: %s\n", strings.Join(names, " "))
	}
	return sb.String()
}

// PrincipalVariation follows the most visited direction, and under it the
// most visited spawn outcome, for at most limit moves.
func (t *Tree) PrincipalVariation(limit int) []game.Direction {
	var pv []game.Direction
	idx := int32(0)
	for len(pv) < limit {
		n := &t.nodes[idx]
		best := noChild
		var bestDir game.Direction
		for _, d := range game.Directions {
			ci := n.children[d]
			if ci == noChild {
				continue
			}
			if best == noChild || t.nodes[ci].Visits > t.nodes[best].Visits {
				best = ci
				bestDir = d
			}
		}
		if best == noChild {
			break
		}
		pv = append(pv, bestDir)

		c := &t.nodes[best]
		if len(c.next) == 0 {
			break
		}
		// map order is random; sort keys so equal visit counts resolve the same way
		keys := make([]string, 0, len(c.next))
		for k := range c.next {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		next := c.next[keys[0]]
		for _, k := range keys[1:] {
			if t.nodes[c.next[k]].Visits > t.nodes[next].Visits {
				next = c.next[k]
			}
		}
		idx = next
	}
	return pv
}
