package dataset

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// EdgeList streams a SNAP-format edge list: one "FromNodeId<tab>ToNodeId"
// pair per line, '#' lines are comments. Fields split on any run of
// whitespace, so space-separated exports parse too.
type EdgeList struct {
	// Strict makes malformed lines fail the stream with ErrBadRecord
	// instead of being counted and skipped. Set before the first Next.
	Strict bool

	scanner *bufio.Scanner
	closer  io.Closer
	logger  *slog.Logger
	stats   SourceStats
}

// OpenEdgeList opens an edge-list file (plain, mmap-backed, or gzip).
func OpenEdgeList(path string, logger *slog.Logger) (*EdgeList, error) {
	r, closer, err := openReader(path)
	if err != nil {
		return nil, fmt.Errorf("open edge list %s: %w", path, err)
	}
	el := NewEdgeList(r, logger)
	el.closer = closer
	return el, nil
}

// NewEdgeList wraps an already-open stream.
func NewEdgeList(r io.Reader, logger *slog.Logger) *EdgeList {
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scanBufferSize)
	return &EdgeList{scanner: sc, logger: logger}
}

// Next returns the next edge pair. Comment and blank lines are skipped;
// lines that do not split into exactly two fields are counted as malformed
// and skipped unless Strict is set. io.EOF ends the stream.
func (e *EdgeList) Next() (graph.EdgeRecord, error) {
	for e.scanner.Scan() {
		e.stats.Lines++
		line := strings.TrimSpace(e.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			if e.Strict {
				return graph.EdgeRecord{}, fmt.Errorf("%w: edge line %d: %q", ErrBadRecord, e.stats.Lines, line)
			}
			e.stats.Malformed++
			continue
		}

		e.stats.Records++
		return graph.EdgeRecord{Source: fields[0], Target: fields[1]}, nil
	}

	if err := e.scanner.Err(); err != nil {
		return graph.EdgeRecord{}, fmt.Errorf("read edge list: %w", err)
	}
	if e.stats.Malformed > 0 {
		e.logger.Debug("edge list had malformed lines", "count", e.stats.Malformed)
	}
	return graph.EdgeRecord{}, io.EOF
}

// Stats returns the reader's counters so far.
func (e *EdgeList) Stats() SourceStats {
	return e.stats
}

// Close releases the underlying file, if the reader owns one.
func (e *EdgeList) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
