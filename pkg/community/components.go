package community

import (
	"container/list"
	"context"
	"fmt"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// ComponentsDetector assigns every weak connected component its own
// community. It is the lower-fidelity fallback: cheap, deterministic, and
// blind to structure inside a component.
type ComponentsDetector struct{}

// Name returns the algorithm tag.
func (d *ComponentsDetector) Name() Algorithm {
	return AlgorithmComponents
}

// Assign labels each node with its component, discovered by BFS over weak
// adjacency from seeds in ascending ID order.
func (d *ComponentsDetector) Assign(ctx context.Context, g *graph.Graph) (map[string]int, error) {
	labels := make(map[string]int, g.NumNodes())
	visited := make(map[string]bool, g.NumNodes())
	componentID := 0

	for _, start := range g.NodeIDs() {
		if visited[start] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled at component %d: %w", componentID, err)
		}

		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			id := queue.Remove(queue.Front()).(string)
			labels[id] = componentID

			for _, neighbor := range g.Neighbors(id) {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue.PushBack(neighbor)
				}
			}
		}

		componentID++
	}

	return labels, nil
}
