package mapgen

import (
	"errors"
	"fmt"
)

var errCycle = errors.New("mapgen: stage graph has a cycle")

// graph is the static stage dependency DAG. Nodes are single flag bits;
// deps lists what each node is derived from.
type graph struct {
	nodes []Flags
	deps  map[Flags][]Flags
}

// stageGraph: Height feeds Normal and Material, Height and the light feed
// Shadow, Normal feeds the clipmap geometry.
var stageGraph = graph{
	nodes: []Flags{FlagHeight, inputLight, FlagNormal, FlagShadow, FlagMaterial, FlagGeometry},
	deps: map[Flags][]Flags{
		FlagNormal:   {FlagHeight},
		FlagMaterial: {FlagHeight},
		FlagShadow:   {FlagHeight, inputLight},
		FlagGeometry: {FlagNormal},
	},
}

// order returns the nodes topologically sorted. Among ready nodes the one
// declared first wins, so the order is stable.
func (g graph) order() ([]Flags, error) {
	indegree := make(map[Flags]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(g.deps[n])
	}

	out := make([]Flags, 0, len(g.nodes))
	done := make(map[Flags]bool, len(g.nodes))
	for len(out) < len(g.nodes) {
		next := Flags(0)
		for _, n := range g.nodes {
			if !done[n] && indegree[n] == 0 {
				next = n
				break
			}
		}
		if next == 0 {
			return nil, fmt.Errorf("%w after %v", errCycle, out)
		}
		done[next] = true
		out = append(out, next)
		for _, n := range g.nodes {
			for _, d := range g.deps[n] {
				if d == next {
					indegree[n]--
				}
			}
		}
	}
	return out, nil
}

// downstream returns every node transitively derived from any bit in f.
func (g graph) downstream(f Flags) Flags {
	var out Flags
	frontier := f
	for frontier != 0 {
		var next Flags
		for _, n := range g.nodes {
			if out&n != 0 {
				continue
			}
			for _, d := range g.deps[n] {
				if frontier&d != 0 {
					next |= n
					break
				}
			}
		}
		out |= next
		frontier = next
	}
	return out
}
