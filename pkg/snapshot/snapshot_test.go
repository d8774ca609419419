package snapshot

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	g.AddEdge("1", "2")
	g.AddEdge("2", "3")
	g.AddEdge("3", "1")
	g.AddEdge("4", "5")
	g.SetAttr("1", "title", graph.StringValue("Patterns of Preaching"))
	g.SetAttr("1", "salesrank", graph.IntValue(396585))
	g.SetAttr("4", "rating", graph.FloatValue(4.5))
	return g
}

// TestSnapshot_RoundTrip checks structure, orientation, and attribute
// types survive a write/read cycle.
func TestSnapshot_RoundTrip(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	stats, err := Write(&buf, g)
	require.NoError(t, err)
	assert.Equal(t, g.NumNodes(), stats.Nodes)
	assert.Equal(t, g.NumEdges(), stats.Edges)
	assert.Greater(t, stats.Frames, 0)

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.NodeIDs(), got.NodeIDs())
	assert.Equal(t, g.Edges(), got.Edges())
	assert.True(t, got.HasEdge("3", "1"))
	assert.False(t, got.HasEdge("1", "3"))

	node, ok := got.Node("1")
	require.True(t, ok)
	rank, err := node.Attrs["salesrank"].AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(396585), rank)
}

// TestSnapshot_Deterministic checks equal graphs snapshot to identical
// bytes.
func TestSnapshot_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	_, err := Write(&a, sampleGraph())
	require.NoError(t, err)
	_, err = Write(&b, sampleGraph())
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

// TestSnapshot_EmptyGraph checks an empty graph round-trips to an empty
// graph.
func TestSnapshot_EmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	stats, err := Write(&buf, graph.New())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Frames)

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumNodes())
}

// TestSnapshot_CorruptionDetected checks bad magic and a flipped payload
// byte both surface as ErrCorrupt.
func TestSnapshot_CorruptionDetected(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("XXXX\x01")))
	assert.ErrorIs(t, err, ErrCorrupt)

	var buf bytes.Buffer
	_, err = Write(&buf, sampleGraph())
	require.NoError(t, err)

	data := buf.Bytes()
	data[len(data)-6] ^= 0xFF // inside the last frame's payload
	_, err = Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestSnapshot_TruncationDetected checks a torn file does not read as a
// smaller graph.
func TestSnapshot_TruncationDetected(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, sampleGraph())
	require.NoError(t, err)

	data := buf.Bytes()
	_, err = Read(bytes.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestSnapshot_FileRoundTrip exercises the file helpers and the staged
// write.
func TestSnapshot_FileRoundTrip(t *testing.T) {
	g := sampleGraph()
	path := filepath.Join(t.TempDir(), "graph.snap")

	_, err := WriteFile(path, g)
	require.NoError(t, err)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.NumNodes(), got.NumNodes())
	assert.Equal(t, g.NumEdges(), got.NumEdges())

	_, err = ReadFile(path + ".part")
	assert.Error(t, err, "no staging file may remain")
}
