// Package analyze computes structural statistics over a co-purchase graph:
// degree rankings, weak connectivity, and a bounded connectivity sample.
package analyze

import (
	"container/list"
	"errors"
	"sort"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// ErrEmptyGraph is returned when RequireNonEmpty is set and the graph has no
// nodes. Without the flag an empty graph analyzes to a zero-valued result.
var ErrEmptyGraph = errors.New("graph is empty")

// Default option values
const (
	DefaultTopK      = 10
	DefaultSampleCap = 1000
)

// Options configure an analysis pass.
type Options struct {
	TopK            int  // ranked nodes to report; default 10
	SampleCap       int  // node cap for the connectivity sample; default 1000
	RequireNonEmpty bool // fail with ErrEmptyGraph instead of returning zeros
}

// NodeDegree ranks one node by total degree.
type NodeDegree struct {
	ID     string `json:"id"`
	Degree int    `json:"degree"`
	Out    int    `json:"out"`
	In     int    `json:"in"`
}

// Result is an immutable snapshot of one analysis pass.
type Result struct {
	NumNodes             int
	NumEdges             int
	AvgDegree            float64 // mean out-degree: edges / nodes
	MaxDegree            int     // highest total degree
	MaxDegreeNode        string  // smallest ID among nodes at MaxDegree
	TopNodes             []NodeDegree
	NumComponents        int
	LargestComponentSize int
	LargestComponentPct  float64 // percentage of all nodes, 0..100
	Sample               *graph.Graph
}

// Analyze computes degree statistics, weak components and the BFS
// connectivity sample. The graph is treated as read-only.
func Analyze(g *graph.Graph, opts Options) (*Result, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SampleCap <= 0 {
		opts.SampleCap = DefaultSampleCap
	}

	if g.NumNodes() == 0 {
		if opts.RequireNonEmpty {
			return nil, ErrEmptyGraph
		}
		return &Result{Sample: graph.New()}, nil
	}

	result := &Result{
		NumNodes:  g.NumNodes(),
		NumEdges:  g.NumEdges(),
		AvgDegree: float64(g.NumEdges()) / float64(g.NumNodes()),
	}

	ids := g.NodeIDs()

	// Rank all nodes by total degree; ascending IDs break ties so the
	// ranking is stable across runs.
	ranked := make([]NodeDegree, 0, len(ids))
	for _, id := range ids {
		ranked = append(ranked, NodeDegree{
			ID:     id,
			Out:    g.OutDegree(id),
			In:     g.InDegree(id),
			Degree: g.Degree(id),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Degree != ranked[j].Degree {
			return ranked[i].Degree > ranked[j].Degree
		}
		return ranked[i].ID < ranked[j].ID
	})

	topK := opts.TopK
	if topK > len(ranked) {
		topK = len(ranked)
	}
	result.TopNodes = append([]NodeDegree(nil), ranked[:topK]...)
	result.MaxDegree = ranked[0].Degree
	result.MaxDegreeNode = ranked[0].ID

	// Weak connectivity over the sorted ID list
	numComponents, largest := weakComponents(g, ids)
	result.NumComponents = numComponents
	result.LargestComponentSize = largest
	result.LargestComponentPct = 100 * float64(largest) / float64(result.NumNodes)

	// Connectivity sample grown from the busiest node
	result.Sample = sampleFrom(g, result.MaxDegreeNode, opts.SampleCap)

	return result, nil
}

// weakComponents counts connected components ignoring edge direction and
// returns the size of the largest one.
func weakComponents(g *graph.Graph, ids []string) (count, largest int) {
	visited := make(map[string]bool, len(ids))

	for _, start := range ids {
		if visited[start] {
			continue
		}

		// BFS this component
		size := 0
		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			id := queue.Remove(queue.Front()).(string)
			size++

			for _, neighbor := range g.Neighbors(id) {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue.PushBack(neighbor)
				}
			}
		}

		count++
		if size > largest {
			largest = size
		}
	}
	return count, largest
}

// sampleFrom grows a BFS frontier from the seed over weak adjacency and
// returns the subgraph induced by the first limit nodes in discovery order.
// Sorted neighbor expansion keeps the sample identical across runs. The
// frontier never leaves the seed's component; a sample from a fragmented
// graph can come out smaller than the cap.
func sampleFrom(g *graph.Graph, seed string, limit int) *graph.Graph {
	if g.NumNodes() <= limit {
		return g.Induce(g.NodeIDs())
	}

	picked := make([]string, 0, limit)
	visited := map[string]bool{seed: true}
	queue := list.New()
	queue.PushBack(seed)

	for queue.Len() > 0 && len(picked) < limit {
		id := queue.Remove(queue.Front()).(string)
		picked = append(picked, id)

		for _, neighbor := range g.Neighbors(id) {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue.PushBack(neighbor)
			}
		}
	}

	return g.Induce(picked)
}
