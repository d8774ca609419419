// Package snapshot serializes a graph to a compact on-disk format: a short
// header followed by length-prefixed snappy frames, each carrying a JSON
// batch of nodes or edges and guarded by a CRC32. Snapshots move graphs
// between environments without touching the backing store.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// ErrCorrupt reports a snapshot that fails structural or checksum
// validation.
var ErrCorrupt = errors.New("snapshot corrupt")

const (
	fileMagic   = "CPG1"
	fileVersion = byte(1)

	frameNodes = byte(1)
	frameEdges = byte(2)

	// frameRecords bounds how many records one frame carries, which bounds
	// the decode buffer on read.
	frameRecords = 10000
)

// Stats reports what a write produced.
type Stats struct {
	Nodes             int
	Edges             int
	Frames            int
	BytesUncompressed int64
	BytesCompressed   int64
}

type snapshotNode struct {
	ID    string                 `json:"id"`
	Attrs map[string]graph.Value `json:"attrs,omitempty"`
}

type snapshotEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Write serializes g. Nodes and edges are emitted in sorted order, so equal
// graphs produce byte-identical snapshots.
func Write(w io.Writer, g *graph.Graph) (*Stats, error) {
	bw := bufio.NewWriter(w)
	stats := &Stats{}

	if _, err := bw.WriteString(fileMagic); err != nil {
		return nil, err
	}
	if err := bw.WriteByte(fileVersion); err != nil {
		return nil, err
	}

	ids := g.NodeIDs()
	for offset := 0; offset < len(ids); offset += frameRecords {
		end := offset + frameRecords
		if end > len(ids) {
			end = len(ids)
		}
		nodes := make([]snapshotNode, 0, end-offset)
		for _, id := range ids[offset:end] {
			node, _ := g.Node(id)
			nodes = append(nodes, snapshotNode{ID: id, Attrs: node.Attrs})
		}
		if err := writeFrame(bw, frameNodes, nodes, stats); err != nil {
			return nil, err
		}
	}
	stats.Nodes = len(ids)

	edges := g.Edges()
	for offset := 0; offset < len(edges); offset += frameRecords {
		end := offset + frameRecords
		if end > len(edges) {
			end = len(edges)
		}
		batch := make([]snapshotEdge, 0, end-offset)
		for _, e := range edges[offset:end] {
			batch = append(batch, snapshotEdge{From: e.From, To: e.To})
		}
		if err := writeFrame(bw, frameEdges, batch, stats); err != nil {
			return nil, err
		}
	}
	stats.Edges = len(edges)

	return stats, bw.Flush()
}

// writeFrame emits one [kind:1][len:4][snappy data][crc:4] frame.
func writeFrame(w *bufio.Writer, kind byte, records interface{}, stats *Stats) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, raw)

	if err := w.WriteByte(kind); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return err
	}

	stats.Frames++
	stats.BytesUncompressed += int64(len(raw))
	stats.BytesCompressed += int64(len(compressed))
	return nil
}

// Read deserializes a snapshot back into a graph.
func Read(r io.Reader) (*graph.Graph, error) {
	br := bufio.NewReader(r)

	head := make([]byte, len(fileMagic)+1)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorrupt, err)
	}
	if string(head[:len(fileMagic)]) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, head[:len(fileMagic)])
	}
	if head[len(fileMagic)] != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, head[len(fileMagic)])
	}

	g := graph.New()
	for {
		kind, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		raw, err := readFrame(br)
		if err != nil {
			return nil, err
		}

		switch kind {
		case frameNodes:
			var nodes []snapshotNode
			if err := json.Unmarshal(raw, &nodes); err != nil {
				return nil, fmt.Errorf("%w: node frame: %v", ErrCorrupt, err)
			}
			for _, n := range nodes {
				g.AddNode(n.ID)
				for k, v := range n.Attrs {
					if err := g.SetAttr(n.ID, k, v); err != nil {
						return nil, fmt.Errorf("%w: node %s: %v", ErrCorrupt, n.ID, err)
					}
				}
			}
		case frameEdges:
			var edges []snapshotEdge
			if err := json.Unmarshal(raw, &edges); err != nil {
				return nil, fmt.Errorf("%w: edge frame: %v", ErrCorrupt, err)
			}
			for _, e := range edges {
				g.AddEdge(e.From, e.To)
			}
		default:
			return nil, fmt.Errorf("%w: unknown frame kind %d", ErrCorrupt, kind)
		}
	}
	return g, nil
}

// readFrame reads and validates one frame body, returning the decompressed
// payload.
func readFrame(br *bufio.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(br, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("%w: truncated frame length: %v", ErrCorrupt, err)
	}

	compressed := make([]byte, size)
	if _, err := io.ReadFull(br, compressed); err != nil {
		return nil, fmt.Errorf("%w: truncated frame body: %v", ErrCorrupt, err)
	}

	var sum uint32
	if err := binary.Read(br, binary.BigEndian, &sum); err != nil {
		return nil, fmt.Errorf("%w: truncated frame checksum: %v", ErrCorrupt, err)
	}
	if crc32.ChecksumIEEE(compressed) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return raw, nil
}

// WriteFile writes a snapshot to path, staging through a .part file so a
// failed export never poses as a complete snapshot.
func WriteFile(path string, g *graph.Graph) (*Stats, error) {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}

	stats, err := Write(f, g)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return stats, nil
}

// ReadFile reads a snapshot from path.
func ReadFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
