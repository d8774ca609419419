package dataset

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// Attribute keys emitted for each product block.
const (
	AttrASIN      = "asin"
	AttrTitle     = "title"
	AttrGroup     = "group"
	AttrSalesrank = "salesrank"
)

// Metadata streams attribute records out of an Amazon product metadata
// dump. Blocks look like:
//
//	Id:   15
//	ASIN: 1559362022
//	  title: Wake Up and Smell the Coffee
//	  group: Book
//	  salesrank: 518927
//	  similar: 5  159184XXXX ...
//
// Each block yields one record per recognized field, keyed by the block's
// Id. Discontinued products carry only an ASIN and yield just that record.
// The similar/categories/reviews sections are not graph attributes and are
// passed over.
type Metadata struct {
	scanner *bufio.Scanner
	closer  io.Closer
	logger  *slog.Logger
	stats   SourceStats

	curID   string
	pending []graph.AttrRecord
}

// OpenMetadata opens a metadata file (plain, mmap-backed, or gzip).
func OpenMetadata(path string, logger *slog.Logger) (*Metadata, error) {
	r, closer, err := openReader(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	m := NewMetadata(r, logger)
	m.closer = closer
	return m, nil
}

// NewMetadata wraps an already-open stream.
func NewMetadata(r io.Reader, logger *slog.Logger) *Metadata {
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scanBufferSize)
	return &Metadata{scanner: sc, logger: logger}
}

// Next returns the next attribute record. io.EOF ends the stream.
func (m *Metadata) Next() (graph.AttrRecord, error) {
	for len(m.pending) == 0 {
		if !m.scanner.Scan() {
			if err := m.scanner.Err(); err != nil {
				return graph.AttrRecord{}, fmt.Errorf("read metadata: %w", err)
			}
			if m.stats.Malformed > 0 {
				m.logger.Debug("metadata had malformed fields", "count", m.stats.Malformed)
			}
			return graph.AttrRecord{}, io.EOF
		}
		m.stats.Lines++
		m.consume(m.scanner.Text())
	}

	rec := m.pending[0]
	m.pending = m.pending[1:]
	m.stats.Records++
	return rec, nil
}

// consume folds one line into the block state, queueing records as soon as
// they are complete. Id opens a block; every recognized field line after it
// yields one record for that Id.
func (m *Metadata) consume(line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "Id:"):
		m.curID = strings.TrimSpace(strings.TrimPrefix(trimmed, "Id:"))
	case m.curID == "" || trimmed == "":
		// Dump header or block separator.
	case strings.HasPrefix(trimmed, "ASIN:"):
		m.push(AttrASIN, graph.StringValue(fieldValue(trimmed, "ASIN:")))
	case strings.HasPrefix(trimmed, "title:"):
		m.push(AttrTitle, graph.StringValue(fieldValue(trimmed, "title:")))
	case strings.HasPrefix(trimmed, "group:"):
		m.push(AttrGroup, graph.StringValue(fieldValue(trimmed, "group:")))
	case strings.HasPrefix(trimmed, "salesrank:"):
		raw := fieldValue(trimmed, "salesrank:")
		rank, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			m.stats.Malformed++
			return
		}
		m.push(AttrSalesrank, graph.IntValue(rank))
	}
}

func (m *Metadata) push(key string, value graph.Value) {
	m.pending = append(m.pending, graph.AttrRecord{NodeID: m.curID, Key: key, Value: value})
}

func fieldValue(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}

// Stats returns the reader's counters so far.
func (m *Metadata) Stats() SourceStats {
	return m.stats
}

// Close releases the underlying file, if the reader owns one.
func (m *Metadata) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
