package densim

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

/*
StateGraph tracks which qubits are live and which pairs are currently
entangled. It is owned by exactly one noise model for exactly one run. The
only transitions are adding an isolated node, adding an edge and removing a
node; a removed id is tombstoned and can never come back within the run.
*/
type StateGraph struct {
	g       *simple.UndirectedGraph
	removed mapset.Set[int64]
}

// NewStateGraph returns an empty graph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		g:       simple.NewUndirectedGraph(),
		removed: mapset.NewThreadUnsafeSet[int64](),
	}
}

// NewStateGraphFrom copies seed into a new run-owned graph. The seed itself is
// never mutated.
func NewStateGraphFrom(seed graph.Undirected) *StateGraph {
	sg := NewStateGraph()
	if seed != nil {
		graph.Copy(sg.g, seed)
	}
	return sg
}

// SeedGraph builds a gonum graph from node ids and edges, e.g. a physical layout.
func SeedGraph(nodes []int, edges [][2]int) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()

	for _, n := range nodes {
		if g.Node(int64(n)) == nil {
			g.AddNode(simple.Node(n))
		}
	}
	for _, e := range edges {
		if e[0] != e[1] {
			g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
		}
	}
	return g
}

// CompleteSeedGraph returns the complete graph on nodes.
func CompleteSeedGraph(nodes []int) *simple.UndirectedGraph {
	edges := make([][2]int, 0, len(nodes)*(len(nodes)-1)/2)
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			edges = append(edges, [2]int{nodes[i], nodes[j]})
		}
	}
	return SeedGraph(nodes, edges)
}

// Has reports whether id is live.
func (sg *StateGraph) Has(id int) bool {
	return sg.g.Node(int64(id)) != nil
}

// AddNode adds an isolated node. Adding a live node is a no-op.
func (sg *StateGraph) AddNode(id int) error {
	if sg.removed.Contains(int64(id)) {
		return &ValidationError{Op: "add node", Reason: fmt.Sprintf("node %d", id), kind: ErrNodeReused}
	}
	if !sg.Has(id) {
		sg.g.AddNode(simple.Node(id))
	}
	return nil
}

// AddEdge entangles u and v, adding either endpoint if it is not live yet.
func (sg *StateGraph) AddEdge(u, v int) error {
	if u == v {
		return applicationError("add edge", "self edge on node %d", u)
	}
	for _, id := range [2]int{u, v} {
		if err := sg.AddNode(id); err != nil {
			return err
		}
	}
	sg.g.SetEdge(sg.g.NewEdge(simple.Node(u), simple.Node(v)))
	return nil
}

// RemoveNode drops id and all of its edges.
func (sg *StateGraph) RemoveNode(id int) error {
	if !sg.Has(id) {
		return &ValidationError{Op: "remove node", Reason: fmt.Sprintf("node %d", id), kind: ErrUnknownNode}
	}
	sg.g.RemoveNode(int64(id))
	sg.removed.Add(int64(id))
	return nil
}

// Neighbors returns the current neighbors of id, or false if id is not live.
func (sg *StateGraph) Neighbors(id int) (mapset.Set[int], bool) {
	if !sg.Has(id) {
		return nil, false
	}

	out := mapset.NewThreadUnsafeSet[int]()
	it := sg.g.From(int64(id))
	for it.Next() {
		out.Add(int(it.Node().ID()))
	}
	return out, true
}

// Nodes returns the live node ids in ascending order.
func (sg *StateGraph) Nodes() []int {
	out := make([]int, 0, sg.g.Nodes().Len())
	it := sg.g.Nodes()
	for it.Next() {
		out = append(out, int(it.Node().ID()))
	}
	slices.Sort(out)
	return out
}

// HasEdge reports whether u and v are entangled.
func (sg *StateGraph) HasEdge(u, v int) bool {
	return sg.g.HasEdgeBetween(int64(u), int64(v))
}

func sortedMembers(s mapset.Set[int]) []int {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
