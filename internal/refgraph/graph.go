// Package refgraph builds the document-wide reference graph described in
// spec.md §4.2: one pass over every "$ref" occurrence, cycle detection by
// DFS back-edge, and lazily computed chain depth.
package refgraph

import (
	"sort"
	"strings"

	"github.com/dgellow/steady/internal/docpointer"
)

// Edge is one "$ref" occurrence: source (the pointer containing the
// "$ref" keyword) to target (the pointer the ref string resolves to,
// after normalization).
type Edge struct {
	Source docpointer.Pointer
	Target docpointer.Pointer
}

// Cycle is a non-empty ordered sequence of pointers where the first and
// last coincide; deduplicated by sorted-pointer signature.
type Cycle []docpointer.Pointer

// Graph is the triple (P, E, C) from spec.md §3.
type Graph struct {
	pointers map[string]docpointer.Pointer
	edges    []Edge
	cycles   []Cycle

	// unresolved holds refs whose target could not be resolved against
	// root, keyed by the source pointer's string form. The analyzer (C4)
	// consumes this to emit ref-unresolved diagnostics.
	unresolved []UnresolvedRef
}

// UnresolvedRef is a "$ref" whose target does not resolve within the
// document.
type UnresolvedRef struct {
	Source docpointer.Pointer
	Ref    string
}

// Build performs one pass over root: collect every "$ref" via
// docpointer.CollectRefs, add edges, and run cycle detection. It is
// intended to run once per Document and never again (spec.md §4.2
// "recomputed only when the document changes").
func Build(root interface{}) *Graph {
	g := &Graph{
		pointers: make(map[string]docpointer.Pointer),
	}
	outboundTargets := make(map[string][]docpointer.Pointer)

	occurrences := docpointer.CollectRefs(root)
	for _, occ := range occurrences {
		if !strings.HasPrefix(occ.Ref, "#") {
			// Only local refs participate in the graph; external refs are
			// out of scope (spec.md §1 Non-goals).
			continue
		}

		target := docpointer.Parse(occ.Ref)
		if _, ok := docpointer.Resolve(root, target); !ok {
			g.unresolved = append(g.unresolved, UnresolvedRef{Source: occ.Container, Ref: occ.Ref})
			continue
		}

		g.addPointer(occ.Container)
		g.addPointer(target)

		edge := Edge{Source: occ.Container, Target: target}
		g.edges = append(g.edges, edge)
		outboundTargets[occ.Container.String()] = append(outboundTargets[occ.Container.String()], target)
	}

	// A graph pointer that encloses another one (e.g. a schema and a
	// "$ref" nested in its own properties) depends on it, so cycle
	// detection also follows ancestor -> descendant containment. These
	// links are not "$ref" edges and are not added to Edges().
	all := g.Pointers()
	for _, anc := range all {
		for _, desc := range all {
			if len(desc) > len(anc) && desc[:len(anc)].Equal(anc) {
				outboundTargets[anc.String()] = append(outboundTargets[anc.String()], desc)
			}
		}
	}

	g.cycles = detectCycles(g.pointers, outboundTargets)

	return g
}

func (g *Graph) addPointer(p docpointer.Pointer) {
	g.pointers[p.String()] = p
}

// Pointers returns every pointer participating in any $ref chain, as
// source or target.
func (g *Graph) Pointers() []docpointer.Pointer {
	out := make([]docpointer.Pointer, 0, len(g.pointers))
	keys := make([]string, 0, len(g.pointers))
	for k := range g.pointers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, g.pointers[k])
	}
	return out
}

// Edges returns every edge in the graph, in discovery order.
func (g *Graph) Edges() []Edge { return g.edges }

// Cycles returns every detected cycle, deduplicated.
func (g *Graph) Cycles() []Cycle { return g.cycles }

// Unresolved returns every local "$ref" that failed to resolve.
func (g *Graph) Unresolved() []UnresolvedRef { return g.unresolved }

// IsCyclic reports whether p participates in any recorded cycle.
func (g *Graph) IsCyclic(p docpointer.Pointer) bool {
	key := p.String()
	for _, c := range g.cycles {
		for _, member := range c {
			if member.String() == key {
				return true
			}
		}
	}
	return false
}

// ChainDepth computes, on demand, the longest acyclic path starting from
// p by following outbound "$ref" edges. Pointers within a cycle
// contribute a length of 0 at the point the path revisits an ancestor —
// it does not recurse further into that branch, per spec.md §4.2.
func (g *Graph) ChainDepth(p docpointer.Pointer) int {
	outboundByKey := g.outboundByKey()
	visited := map[string]bool{}
	return chainDepth(p, outboundByKey, visited)
}

func chainDepth(p docpointer.Pointer, outbound map[string][]docpointer.Pointer, pathVisited map[string]bool) int {
	key := p.String()
	if pathVisited[key] {
		return 0
	}
	pathVisited[key] = true
	defer delete(pathVisited, key)

	best := 0
	for _, target := range outbound[key] {
		d := 1 + chainDepth(target, outbound, pathVisited)
		if d > best {
			best = d
		}
	}
	return best
}

func (g *Graph) outboundByKey() map[string][]docpointer.Pointer {
	out := make(map[string][]docpointer.Pointer, len(g.edges))
	for _, e := range g.edges {
		out[e.Source.String()] = append(out[e.Source.String()], e.Target)
	}
	return out
}

// detectCycles runs a DFS from every pointer, recording the exact
// sub-sequence from an ancestor back-edge target to the current node and
// back, deduplicated by sorted-pointer signature (spec.md §4.2 step 2).
func detectCycles(pointers map[string]docpointer.Pointer, outbound map[string][]docpointer.Pointer) []Cycle {
	keys := make([]string, 0, len(pointers))
	for k := range pointers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := map[string]bool{}
	var cycles []Cycle

	var path []docpointer.Pointer
	onPath := map[string]int{}

	var visit func(key string)
	visit = func(key string) {
		onPath[key] = len(path)
		path = append(path, pointers[key])

		for _, target := range outbound[key] {
			tkey := target.String()
			if idx, isAncestor := onPath[tkey]; isAncestor {
				cyclePath := append(append([]docpointer.Pointer{}, path[idx:]...), target)
				sig := cycleSignature(cyclePath)
				if !seen[sig] {
					seen[sig] = true
					cycles = append(cycles, cyclePath)
				}
				continue
			}
			visit(tkey)
		}

		path = path[:len(path)-1]
		delete(onPath, key)
	}

	for _, k := range keys {
		if _, visited := onPath[k]; !visited {
			visit(k)
		}
	}

	return cycles
}

// cycleSignature produces a dedup key for a cycle independent of which
// member it was discovered from, by sorting the member pointer strings.
// The closing repeat of the first member is left out, so every rotation
// of the same cycle yields the same key.
func cycleSignature(cycle Cycle) string {
	members := cycle
	if len(members) > 1 && members[0].Equal(members[len(members)-1]) {
		members = members[:len(members)-1]
	}
	strs := make([]string, len(members))
	for i, p := range members {
		strs[i] = p.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, "|")
}
