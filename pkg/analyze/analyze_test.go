package analyze

import (
	"errors"
	"reflect"
	"testing"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// buildGraph creates a graph from directed pairs
func buildGraph(t *testing.T, pairs ...[2]string) *graph.Graph {
	t.Helper()

	g := graph.New()
	for _, p := range pairs {
		g.AddEdge(p[0], p[1])
	}
	return g
}

// TestAnalyze_EmptyGraph tests that an empty graph yields zeros, not errors
func TestAnalyze_EmptyGraph(t *testing.T) {
	result, err := Analyze(graph.New(), Options{})

	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.NumNodes != 0 || result.NumEdges != 0 {
		t.Errorf("Expected zero counts, got %d nodes, %d edges", result.NumNodes, result.NumEdges)
	}
	if result.AvgDegree != 0 || result.MaxDegree != 0 {
		t.Errorf("Expected zero degrees, got avg %f max %d", result.AvgDegree, result.MaxDegree)
	}
	if len(result.TopNodes) != 0 {
		t.Errorf("Expected empty ranking, got %d entries", len(result.TopNodes))
	}
	if result.Sample == nil || result.Sample.NumNodes() != 0 {
		t.Error("Expected a non-nil empty sample")
	}
}

// TestAnalyze_EmptyGraphRequired tests the strict empty-graph mode
func TestAnalyze_EmptyGraphRequired(t *testing.T) {
	_, err := Analyze(graph.New(), Options{RequireNonEmpty: true})

	if !errors.Is(err, ErrEmptyGraph) {
		t.Fatalf("Expected ErrEmptyGraph, got %v", err)
	}
}

// TestAnalyze_SmallScenario tests the canonical two-component fixture
func TestAnalyze_SmallScenario(t *testing.T) {
	g := buildGraph(t, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"D", "E"})

	result, err := Analyze(g, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.NumNodes != 5 {
		t.Errorf("Expected 5 nodes, got %d", result.NumNodes)
	}
	if result.NumEdges != 3 {
		t.Errorf("Expected 3 edges, got %d", result.NumEdges)
	}
	if result.AvgDegree != 0.6 {
		t.Errorf("Expected avg degree 0.6, got %f", result.AvgDegree)
	}
	if result.MaxDegree != 2 || result.MaxDegreeNode != "B" {
		t.Errorf("Expected B with degree 2 on top, got %s with %d",
			result.MaxDegreeNode, result.MaxDegree)
	}
	if result.NumComponents != 2 {
		t.Errorf("Expected 2 weak components, got %d", result.NumComponents)
	}
	if result.LargestComponentSize != 3 {
		t.Errorf("Expected largest component of 3, got %d", result.LargestComponentSize)
	}
	if result.LargestComponentPct != 60 {
		t.Errorf("Expected 60%% coverage, got %f", result.LargestComponentPct)
	}

	// B leads; the four degree-1 nodes follow in ID order
	wantOrder := []string{"B", "A", "C", "D", "E"}
	gotOrder := make([]string, 0, len(result.TopNodes))
	for _, n := range result.TopNodes {
		gotOrder = append(gotOrder, n.ID)
	}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("Expected ranking %v, got %v", wantOrder, gotOrder)
	}
}

// TestAnalyze_TopKTieBreak tests deterministic ranking among equal degrees
func TestAnalyze_TopKTieBreak(t *testing.T) {
	// Star around x plus an isolated pair; spokes all tie at degree 1
	g := buildGraph(t,
		[2]string{"x", "c"},
		[2]string{"x", "a"},
		[2]string{"x", "b"},
	)

	result, err := Analyze(g, Options{TopK: 3})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.TopNodes) != 3 {
		t.Fatalf("Expected TopK to cap the ranking at 3, got %d", len(result.TopNodes))
	}
	if result.TopNodes[0].ID != "x" || result.TopNodes[0].Degree != 3 {
		t.Errorf("Expected x with degree 3 first, got %+v", result.TopNodes[0])
	}
	if result.TopNodes[1].ID != "a" || result.TopNodes[2].ID != "b" {
		t.Errorf("Expected ties in ID order [a b], got [%s %s]",
			result.TopNodes[1].ID, result.TopNodes[2].ID)
	}
}

// TestAnalyze_MaxDegreeTieBreak tests the smallest-ID rule for the top slot
func TestAnalyze_MaxDegreeTieBreak(t *testing.T) {
	g := buildGraph(t, [2]string{"z", "m"}, [2]string{"a", "m"}, [2]string{"a", "z"})

	result, err := Analyze(g, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// a, m and z all have degree 2
	if result.MaxDegreeNode != "a" {
		t.Errorf("Expected smallest ID a at max degree, got %s", result.MaxDegreeNode)
	}
}

// TestAnalyze_SampleWholeGraph tests that small graphs sample completely
func TestAnalyze_SampleWholeGraph(t *testing.T) {
	g := buildGraph(t, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"D", "E"})

	result, err := Analyze(g, Options{SampleCap: 100})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Sample.NumNodes() != 5 {
		t.Errorf("Expected whole graph in sample, got %d nodes", result.Sample.NumNodes())
	}
	if result.Sample.NumEdges() != 3 {
		t.Errorf("Expected all edges in sample, got %d", result.Sample.NumEdges())
	}
}

// TestAnalyze_SampleCapped tests the BFS cap and seed component confinement
func TestAnalyze_SampleCapped(t *testing.T) {
	g := graph.New()
	// Hub h with 9 spokes, plus a detached pair
	for _, spoke := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9"} {
		g.AddEdge("h", spoke)
	}
	g.AddEdge("p", "q")

	result, err := Analyze(g, Options{SampleCap: 4})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Sample.NumNodes() != 4 {
		t.Errorf("Expected sample capped at 4, got %d", result.Sample.NumNodes())
	}
	if !result.Sample.HasNode("h") {
		t.Error("Expected sample to start from the max-degree seed")
	}
	if result.Sample.HasNode("p") || result.Sample.HasNode("q") {
		t.Error("Expected sample to stay inside the seed's component")
	}
}

// TestAnalyze_SampleDeterministic tests run-to-run sample stability
func TestAnalyze_SampleDeterministic(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New()
		for _, spoke := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"} {
			g.AddEdge("h", spoke)
		}
		g.AddEdge("s1", "s5")
		g.AddEdge("s3", "s7")
		return g
	}

	first, err := Analyze(build(), Options{SampleCap: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := Analyze(build(), Options{SampleCap: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !reflect.DeepEqual(first.Sample.NodeIDs(), second.Sample.NodeIDs()) {
		t.Errorf("Expected identical samples, got %v vs %v",
			first.Sample.NodeIDs(), second.Sample.NodeIDs())
	}
}

// TestAnalyze_SingleNode tests the degenerate one-node graph
func TestAnalyze_SingleNode(t *testing.T) {
	g := graph.New()
	g.AddNode("only")

	result, err := Analyze(g, Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.NumNodes != 1 || result.NumEdges != 0 {
		t.Errorf("Expected 1 node, 0 edges, got %d and %d", result.NumNodes, result.NumEdges)
	}
	if result.MaxDegreeNode != "only" || result.MaxDegree != 0 {
		t.Errorf("Expected isolated node on top with degree 0, got %s with %d",
			result.MaxDegreeNode, result.MaxDegree)
	}
	if result.NumComponents != 1 || result.LargestComponentSize != 1 {
		t.Errorf("Expected a single singleton component, got %d components, largest %d",
			result.NumComponents, result.LargestComponentSize)
	}
	if result.LargestComponentPct != 100 {
		t.Errorf("Expected 100%% coverage, got %f", result.LargestComponentPct)
	}
}
