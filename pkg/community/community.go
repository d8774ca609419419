// Package community partitions a co-purchase graph into communities. The
// primary detector optimizes modularity; a connected-components detector
// serves as the lower-fidelity fallback. Detection treats the graph as
// undirected and never mutates it.
package community

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// Algorithm tags which detector produced a result.
type Algorithm string

const (
	// AlgorithmModularity is the Louvain modularity optimizer.
	AlgorithmModularity Algorithm = "modularity"
	// AlgorithmComponents is the weak connected-components fallback.
	AlgorithmComponents Algorithm = "connected-components"
)

// Default option values
const (
	DefaultMaxNodes   = 50000
	DefaultSeed       = 42
	DefaultResolution = 1.0
	DefaultTopK       = 10
)

// Detector computes raw community assignments for a graph. Assignments are
// arbitrary labels; Detect renumbers them densely afterwards.
type Detector interface {
	Name() Algorithm
	Assign(ctx context.Context, g *graph.Graph) (map[string]int, error)
}

// Options configure a detection pass.
type Options struct {
	MaxNodes        int          // node cap before sampling kicks in; default 50000
	Seed            int64        // seed for the uniform fallback sample; default 42
	PriorSample     *graph.Graph // sample to reuse when the graph is oversized
	Resolution      float64      // modularity resolution; default 1.0
	TopK            int          // communities to report in TopCommunities; default 10
	ForceComponents bool         // force the fallback detector
	Detector        Detector     // explicit detector override
}

// CommunityStat summarizes one community.
type CommunityStat struct {
	ID   int `json:"id"`
	Size int `json:"size"`
}

// Result is the outcome of one detection pass. Community IDs are dense ints
// from 0, ordered by descending size with equal sizes ordered by their
// smallest member ID.
type Result struct {
	Algorithm      Algorithm
	Assignments    map[string]int
	Sizes          []int // index = community ID
	NumCommunities int
	TopCommunities []CommunityStat
	Modularity     float64 // 0 for the components fallback
	DetectedNodes  int     // nodes detection actually ran on after sampling
	Sampled        bool
}

// Detect selects a detector, bounds the input graph, and returns densely
// renumbered community assignments. Cancellation is honored at sweep
// boundaries inside the detectors.
func Detect(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Resolution <= 0 {
		opts.Resolution = DefaultResolution
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}

	detector := chooseDetector(opts)

	target, sampled := boundGraph(g, opts)

	assignments, err := detector.Assign(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%s detection: %w", detector.Name(), err)
	}

	result := renumber(assignments)
	result.Algorithm = detector.Name()
	result.DetectedNodes = target.NumNodes()
	result.Sampled = sampled

	if result.Algorithm == AlgorithmModularity {
		result.Modularity = modularityOf(target, result.Assignments, opts.Resolution)
	}

	topK := opts.TopK
	if topK > result.NumCommunities {
		topK = result.NumCommunities
	}
	result.TopCommunities = make([]CommunityStat, 0, topK)
	for id := 0; id < topK; id++ {
		result.TopCommunities = append(result.TopCommunities, CommunityStat{ID: id, Size: result.Sizes[id]})
	}

	return result, nil
}

// chooseDetector picks the detector up front. Modularity detection runs
// in-process and is always available, so the fallback is only taken when
// configuration asks for it — never by catching a runtime failure.
func chooseDetector(opts Options) Detector {
	if opts.Detector != nil {
		return opts.Detector
	}
	if opts.ForceComponents {
		return &ComponentsDetector{}
	}
	return &ModularityDetector{Resolution: opts.Resolution}
}

// boundGraph returns the graph detection will run on. Oversized graphs are
// reduced to the prior sample when one is supplied, otherwise to a seeded
// uniform sample over the sorted ID list, which makes the fallback
// deterministic for a fixed seed.
func boundGraph(g *graph.Graph, opts Options) (*graph.Graph, bool) {
	if g.NumNodes() <= opts.MaxNodes {
		return g, false
	}

	if opts.PriorSample != nil && opts.PriorSample.NumNodes() > 0 {
		return opts.PriorSample, true
	}

	ids := g.NodeIDs()
	rng := rand.New(rand.NewSource(opts.Seed))

	picked := make([]string, 0, opts.MaxNodes)
	for _, idx := range rng.Perm(len(ids))[:opts.MaxNodes] {
		picked = append(picked, ids[idx])
	}
	return g.Induce(picked), true
}

// renumber maps raw detector labels to dense community IDs ordered by
// descending size; equal sizes order by smallest member ID.
func renumber(assignments map[string]int) *Result {
	members := make(map[int][]string)
	for id, label := range assignments {
		members[label] = append(members[label], id)
	}

	type bucket struct {
		smallest string
		nodes    []string
	}
	buckets := make([]bucket, 0, len(members))
	for _, nodes := range members {
		sort.Strings(nodes)
		buckets = append(buckets, bucket{smallest: nodes[0], nodes: nodes})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if len(buckets[i].nodes) != len(buckets[j].nodes) {
			return len(buckets[i].nodes) > len(buckets[j].nodes)
		}
		return buckets[i].smallest < buckets[j].smallest
	})

	result := &Result{
		Assignments:    make(map[string]int, len(assignments)),
		Sizes:          make([]int, len(buckets)),
		NumCommunities: len(buckets),
	}
	for dense, b := range buckets {
		result.Sizes[dense] = len(b.nodes)
		for _, id := range b.nodes {
			result.Assignments[id] = dense
		}
	}
	return result
}

// modularityOf computes the modularity score of an assignment over the
// undirected view of g.
func modularityOf(g *graph.Graph, assignments map[string]int, resolution float64) float64 {
	u := undirect(g)
	if u.m == 0 {
		return 0
	}

	intra := make(map[int]float64)
	degSum := make(map[int]float64)

	for i := 0; i < u.n; i++ {
		c := assignments[u.ids[i]]
		degSum[c] += u.strength[i]
		intra[c] += u.loops[i]
		for j, w := range u.adj[i] {
			if j > i && assignments[u.ids[j]] == c {
				intra[c] += w
			}
		}
	}

	m2 := 2 * u.m
	q := 0.0
	for _, in := range intra {
		q += in / u.m
	}
	for _, deg := range degSum {
		share := deg / m2
		q -= resolution * share * share
	}
	return q
}
