// Package dataset adapts raw co-purchase data files into the record streams
// the graph builder consumes. It understands the SNAP edge-list layout and
// the Amazon product metadata layout, reads gzip-compressed files
// transparently, memory-maps large plain files, and can stage objects out
// of S3 into a local cache first.
package dataset

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/mmap"
)

// ErrBadRecord tags records a strict reader refuses to absorb. Readers skip
// and count malformed records by default.
var ErrBadRecord = errors.New("malformed dataset record")

// SourceStats counts what a reader did with its input.
type SourceStats struct {
	Lines     int // physical lines consumed
	Records   int // records handed to the builder
	Malformed int // lines or fields skipped as unparsable
}

// scanBufferSize bounds one input line. Metadata titles run long; edge
// lists never get near this.
const scanBufferSize = 1 << 20

// openReader opens a dataset file for sequential reading. Files ending in
// .gz are decompressed on the fly; anything else is memory-mapped when the
// platform allows, falling back to plain file IO.
func openReader(path string) (io.Reader, io.Closer, error) {
	if strings.HasSuffix(path, ".gz") {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		return gz, multiCloser{gz, f}, nil
	}

	if ra, err := mmap.Open(path); err == nil {
		return io.NewSectionReader(ra, 0, int64(ra.Len())), ra, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// multiCloser closes a chain of readers front to back, keeping the first
// error.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
