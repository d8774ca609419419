package graph

import (
	"errors"
	"sort"
)

// Common sentinel errors
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEmptyID      = errors.New("empty node id")
)

// Node is a vertex in the co-purchase graph.
type Node struct {
	ID    string
	Attrs map[string]Value
}

// Edge is a directed co-purchase link between two products.
type Edge struct {
	From string
	To   string
}

// Graph is a directed simple graph over canonical string node IDs.
// Duplicate ordered edges collapse to one, and inserting an edge creates
// any missing endpoint. All identifiers passing through the public API are
// canonicalized, so callers may hand in raw IDs. Graph is not safe for
// concurrent mutation; analysis passes treat it as read-only.
type Graph struct {
	nodes map[string]*Node
	succ  map[string]map[string]struct{}
	pred  map[string]map[string]struct{}
	edges int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		succ:  make(map[string]map[string]struct{}),
		pred:  make(map[string]map[string]struct{}),
	}
}

// AddNode inserts a node if absent. It reports whether the node was newly
// created; re-adding an existing node is a no-op. Empty IDs are rejected.
func (g *Graph) AddNode(id string) bool {
	cid := CanonicalID(id)
	if cid == "" {
		return false
	}
	return g.addNode(cid)
}

// addNode inserts an already-canonical ID.
func (g *Graph) addNode(cid string) bool {
	if _, exists := g.nodes[cid]; exists {
		return false
	}
	g.nodes[cid] = &Node{ID: cid}
	return true
}

// AddEdge inserts a directed edge, creating endpoints as needed. It reports
// whether the edge was newly created; duplicate ordered pairs collapse.
// Edges with an empty endpoint are rejected.
func (g *Graph) AddEdge(from, to string) bool {
	src := CanonicalID(from)
	tgt := CanonicalID(to)
	if src == "" || tgt == "" {
		return false
	}

	g.addNode(src)
	g.addNode(tgt)

	out := g.succ[src]
	if out == nil {
		out = make(map[string]struct{})
		g.succ[src] = out
	}
	if _, exists := out[tgt]; exists {
		return false
	}
	out[tgt] = struct{}{}

	in := g.pred[tgt]
	if in == nil {
		in = make(map[string]struct{})
		g.pred[tgt] = in
	}
	in[src] = struct{}{}

	g.edges++
	return true
}

// SetAttr assigns one attribute to an existing node. Attributes never create
// nodes: assigning to an unknown node returns ErrNodeNotFound so callers can
// count the drop. Empty keys and empty-string values are not stored.
func (g *Graph) SetAttr(id, key string, value Value) error {
	cid := CanonicalID(id)
	if cid == "" {
		return ErrEmptyID
	}

	node, exists := g.nodes[cid]
	if !exists {
		return ErrNodeNotFound
	}
	if key == "" || value.IsZero() {
		return nil
	}

	if node.Attrs == nil {
		node.Attrs = make(map[string]Value)
	}
	node.Attrs[key] = value
	return nil
}

// Node returns the node for an ID, if present. The returned node is the
// live entry; callers must not mutate its attribute map.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[CanonicalID(id)]
	return node, exists
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool {
	_, exists := g.nodes[CanonicalID(id)]
	return exists
}

// HasEdge reports whether the directed edge exists.
func (g *Graph) HasEdge(from, to string) bool {
	out, exists := g.succ[CanonicalID(from)]
	if !exists {
		return false
	}
	_, exists = out[CanonicalID(to)]
	return exists
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the count of distinct directed edges.
func (g *Graph) NumEdges() int {
	return g.edges
}

// NodeIDs returns all node IDs in ascending order. The stable order is what
// makes sampling and community sweeps deterministic across runs.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OutDegree returns the number of outgoing edges.
func (g *Graph) OutDegree(id string) int {
	return len(g.succ[CanonicalID(id)])
}

// InDegree returns the number of incoming edges.
func (g *Graph) InDegree(id string) int {
	return len(g.pred[CanonicalID(id)])
}

// Degree returns the total degree (in + out).
func (g *Graph) Degree(id string) int {
	cid := CanonicalID(id)
	return len(g.succ[cid]) + len(g.pred[cid])
}

// Successors returns the targets of outgoing edges in ascending order.
func (g *Graph) Successors(id string) []string {
	return sortedKeys(g.succ[CanonicalID(id)])
}

// Predecessors returns the sources of incoming edges in ascending order.
func (g *Graph) Predecessors(id string) []string {
	return sortedKeys(g.pred[CanonicalID(id)])
}

// Neighbors returns the union of successors and predecessors in ascending
// order. This is the adjacency used for weak connectivity: edge direction
// is ignored.
func (g *Graph) Neighbors(id string) []string {
	cid := CanonicalID(id)
	out := g.succ[cid]
	in := g.pred[cid]

	seen := make(map[string]struct{}, len(out)+len(in))
	for n := range out {
		seen[n] = struct{}{}
	}
	for n := range in {
		seen[n] = struct{}{}
	}
	return sortedKeys(seen)
}

// Edges returns all directed edges ordered by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for from, out := range g.succ {
		for to := range out {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Induce returns the subgraph induced by the given node IDs: the listed
// nodes that exist in g, plus every edge whose endpoints are both in the
// set. Attributes are copied, so the induced graph is independent of g.
func (g *Graph) Induce(ids []string) *Graph {
	sub := New()

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		cid := CanonicalID(id)
		node, exists := g.nodes[cid]
		if !exists {
			continue
		}
		keep[cid] = struct{}{}
		sub.addNode(cid)
		if len(node.Attrs) > 0 {
			attrs := make(map[string]Value, len(node.Attrs))
			for k, v := range node.Attrs {
				attrs[k] = v
			}
			sub.nodes[cid].Attrs = attrs
		}
	}

	for from := range keep {
		for to := range g.succ[from] {
			if _, ok := keep[to]; ok {
				sub.AddEdge(from, to)
			}
		}
	}
	return sub
}

// sortedKeys returns the keys of a set in ascending order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
