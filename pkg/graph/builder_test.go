package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// sliceEdgeSource streams edge records from a slice, optionally failing at the end
type sliceEdgeSource struct {
	records []EdgeRecord
	pos     int
	failErr error
}

func (s *sliceEdgeSource) Next() (EdgeRecord, error) {
	if s.pos >= len(s.records) {
		if s.failErr != nil {
			return EdgeRecord{}, s.failErr
		}
		return EdgeRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// sliceAttrSource streams attribute records from a slice
type sliceAttrSource struct {
	records []AttrRecord
	pos     int
}

func (s *sliceAttrSource) Next() (AttrRecord, error) {
	if s.pos >= len(s.records) {
		return AttrRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func edgeSourceOf(pairs ...[2]string) *sliceEdgeSource {
	src := &sliceEdgeSource{}
	for _, p := range pairs {
		src.records = append(src.records, EdgeRecord{Source: p[0], Target: p[1]})
	}
	return src
}

func testBuilder() *Builder {
	return NewBuilder(slog.New(slog.DiscardHandler))
}

// TestBuilder_SmallScenario tests the canonical two-component fixture
func TestBuilder_SmallScenario(t *testing.T) {
	edges := edgeSourceOf([2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"D", "E"})

	g, stats, err := testBuilder().Build(context.Background(), edges, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.NumNodes() != 5 {
		t.Errorf("Expected 5 nodes, got %d", g.NumNodes())
	}
	if g.NumEdges() != 3 {
		t.Errorf("Expected 3 edges, got %d", g.NumEdges())
	}
	if stats.EdgesAdded != 3 || stats.DuplicateEdges != 0 || stats.SkippedEdges != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// TestBuilder_EmptyStream tests that an empty source yields a valid empty graph
func TestBuilder_EmptyStream(t *testing.T) {
	g, stats, err := testBuilder().Build(context.Background(), &sliceEdgeSource{}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.NumNodes() != 0 || g.NumEdges() != 0 {
		t.Errorf("Expected empty graph, got %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	}
	if stats.EdgesAdded != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

// TestBuilder_SkipsAndDuplicates tests record-level fault tolerance
func TestBuilder_SkipsAndDuplicates(t *testing.T) {
	edges := edgeSourceOf(
		[2]string{"1", "2"},
		[2]string{"01", "002"}, // duplicate after canonicalization
		[2]string{"", "2"},     // skipped
		[2]string{"3", "   "},  // skipped
		[2]string{"2", "1"},
	)

	g, stats, err := testBuilder().Build(context.Background(), edges, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if stats.EdgesAdded != 2 {
		t.Errorf("Expected 2 edges added, got %d", stats.EdgesAdded)
	}
	if stats.DuplicateEdges != 1 {
		t.Errorf("Expected 1 duplicate, got %d", stats.DuplicateEdges)
	}
	if stats.SkippedEdges != 2 {
		t.Errorf("Expected 2 skipped, got %d", stats.SkippedEdges)
	}
	if g.HasNode("3") {
		t.Error("Expected skipped record to create no nodes")
	}
}

// TestBuilder_Attributes tests the attribute pass
func TestBuilder_Attributes(t *testing.T) {
	edges := edgeSourceOf([2]string{"1", "2"})
	attrs := &sliceAttrSource{records: []AttrRecord{
		{NodeID: "1", Key: "title", Value: StringValue("First")},
		{NodeID: "001", Key: "group", Value: StringValue("Book")},
		{NodeID: "7", Key: "title", Value: StringValue("Unknown node")},
		{NodeID: "2", Key: "title", Value: StringValue("")}, // empty value dropped
		{NodeID: "2", Key: "", Value: StringValue("no key")},
	}}

	g, stats, err := testBuilder().Build(context.Background(), edges, attrs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if stats.AttrsApplied != 2 {
		t.Errorf("Expected 2 attributes applied, got %d", stats.AttrsApplied)
	}
	if stats.AttrsDropped != 3 {
		t.Errorf("Expected 3 attributes dropped, got %d", stats.AttrsDropped)
	}
	if g.HasNode("7") {
		t.Error("Expected attribute for unknown node to create nothing")
	}

	node, _ := g.Node("1")
	if len(node.Attrs) != 2 {
		t.Errorf("Expected node 1 to carry 2 attributes, got %d", len(node.Attrs))
	}
}

// TestBuilder_SourceError tests that a corrupt stream aborts the build
func TestBuilder_SourceError(t *testing.T) {
	wantErr := errors.New("torn stream")
	edges := &sliceEdgeSource{
		records: []EdgeRecord{{Source: "1", Target: "2"}},
		failErr: wantErr,
	}

	_, _, err := testBuilder().Build(context.Background(), edges, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected source error to propagate, got %v", err)
	}
}

// TestBuilder_Cancellation tests that a cancelled context stops a long build
func TestBuilder_Cancellation(t *testing.T) {
	// Enough records to cross a context check boundary
	src := &sliceEdgeSource{}
	for i := 0; i < checkEvery+10; i++ {
		src.records = append(src.records, EdgeRecord{Source: "a", Target: "b"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testBuilder().Build(ctx, src, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
