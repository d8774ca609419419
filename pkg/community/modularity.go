package community

import (
	"context"
	"fmt"
	"sort"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// Hard bounds on the optimization loops. Real graphs converge far earlier;
// the caps only guard against pathological float behavior.
const (
	maxSweeps = 64
	maxLevels = 32
)

// ModularityDetector implements Louvain community detection: repeated local
// moves followed by graph aggregation, until modularity stops improving.
// Nodes are swept in ascending ID order and equal-gain moves resolve to the
// lowest community ID, so a given graph always yields the same partition.
type ModularityDetector struct {
	Resolution float64 // defaults to 1.0
}

// Name returns the algorithm tag.
func (d *ModularityDetector) Name() Algorithm {
	return AlgorithmModularity
}

// Assign runs the optimizer and returns raw community labels. Cancellation
// is checked once per sweep and once per aggregation level.
func (d *ModularityDetector) Assign(ctx context.Context, g *graph.Graph) (map[string]int, error) {
	resolution := d.Resolution
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	u := undirect(g)
	if u.n == 0 {
		return map[string]int{}, nil
	}

	// assignment[v] tracks node v's index in the current level graph
	assignment := make([]int, u.n)
	for i := range assignment {
		assignment[i] = i
	}

	lg := u
	for level := 0; level < maxLevels; level++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled at level %d: %w", level, err)
		}

		comm, moved, err := lg.localMove(ctx, resolution)
		if err != nil {
			return nil, err
		}
		if moved == 0 {
			break
		}

		next, dense := lg.aggregate(comm)
		for v := range assignment {
			assignment[v] = dense[comm[assignment[v]]]
		}
		if next.n == lg.n {
			break // no compression left
		}
		lg = next
	}

	labels := make(map[string]int, u.n)
	for v, c := range assignment {
		labels[u.ids[v]] = c
	}
	return labels, nil
}

// levelGraph is the undirected weighted view Louvain operates on. Nodes are
// dense indices; ids maps back to canonical node IDs at level 0 and is nil
// on aggregated levels.
type levelGraph struct {
	n        int
	ids      []string
	adj      []map[int]float64 // symmetric, no self entries
	loops    []float64         // self-loop weight, counted once
	strength []float64         // sum of adjacent weights + 2*loops
	m        float64           // total edge weight including loops
}

// undirect collapses the directed graph into the weighted undirected view:
// an ordered pair and its reverse become one edge of weight 1.
func undirect(g *graph.Graph) *levelGraph {
	ids := g.NodeIDs()
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	lg := &levelGraph{
		n:        len(ids),
		ids:      ids,
		adj:      make([]map[int]float64, len(ids)),
		loops:    make([]float64, len(ids)),
		strength: make([]float64, len(ids)),
	}
	for i := range lg.adj {
		lg.adj[i] = make(map[int]float64)
	}

	for _, e := range g.Edges() {
		i, j := index[e.From], index[e.To]
		if i == j {
			lg.loops[i] += 1
			lg.m += 1
			continue
		}
		if _, exists := lg.adj[i][j]; exists {
			continue // reverse direction already recorded
		}
		lg.adj[i][j] = 1
		lg.adj[j][i] = 1
		lg.m += 1
	}

	for i := 0; i < lg.n; i++ {
		s := 2 * lg.loops[i]
		for _, w := range lg.adj[i] {
			s += w
		}
		lg.strength[i] = s
	}
	return lg
}

// localMove sweeps nodes in ascending index order, moving each to the
// neighbor community with the highest modularity gain. The first maximum in
// ascending community order wins, which is the lowest-ID tie-break. Sweeps
// repeat until a full pass makes no move.
func (lg *levelGraph) localMove(ctx context.Context, resolution float64) ([]int, int, error) {
	comm := make([]int, lg.n)
	commTot := make([]float64, lg.n)
	for i := 0; i < lg.n; i++ {
		comm[i] = i
		commTot[i] = lg.strength[i]
	}

	if lg.m == 0 {
		return comm, 0, nil
	}
	m2 := 2 * lg.m

	totalMoves := 0
	for sweep := 0; sweep < maxSweeps; sweep++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("cancelled during sweep %d: %w", sweep, err)
		}

		moves := 0
		for i := 0; i < lg.n; i++ {
			cur := comm[i]
			commTot[cur] -= lg.strength[i]

			// Weight from node i into each adjacent community
			weights := map[int]float64{cur: 0}
			for j, w := range lg.adj[i] {
				weights[comm[j]] += w
			}

			candidates := make([]int, 0, len(weights))
			for c := range weights {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			best := -1
			bestScore := 0.0
			for _, c := range candidates {
				score := weights[c] - resolution*lg.strength[i]*commTot[c]/m2
				if best == -1 || score > bestScore {
					best = c
					bestScore = score
				}
			}

			commTot[best] += lg.strength[i]
			if best != cur {
				comm[i] = best
				moves++
			}
		}

		totalMoves += moves
		if moves == 0 {
			break
		}
	}

	return comm, totalMoves, nil
}

// aggregate collapses communities into super-nodes. Intra-community weight
// becomes a self-loop so total weight is preserved across levels. The
// returned map renumbers community labels to dense indices in ascending
// label order.
func (lg *levelGraph) aggregate(comm []int) (*levelGraph, map[int]int) {
	used := make([]int, 0)
	seen := make(map[int]struct{})
	for _, c := range comm {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			used = append(used, c)
		}
	}
	sort.Ints(used)

	dense := make(map[int]int, len(used))
	for idx, c := range used {
		dense[c] = idx
	}

	next := &levelGraph{
		n:        len(used),
		adj:      make([]map[int]float64, len(used)),
		loops:    make([]float64, len(used)),
		strength: make([]float64, len(used)),
		m:        lg.m,
	}
	for i := range next.adj {
		next.adj[i] = make(map[int]float64)
	}

	for i := 0; i < lg.n; i++ {
		ci := dense[comm[i]]
		next.loops[ci] += lg.loops[i]
		for j, w := range lg.adj[i] {
			if j <= i {
				continue // count each undirected edge once
			}
			cj := dense[comm[j]]
			if ci == cj {
				next.loops[ci] += w
			} else {
				next.adj[ci][cj] += w
				next.adj[cj][ci] += w
			}
		}
	}

	for i := 0; i < next.n; i++ {
		s := 2 * next.loops[i]
		for _, w := range next.adj[i] {
			s += w
		}
		next.strength[i] = s
	}
	return next, dense
}
