package dataset

import (
	"log/slog"
	"path/filepath"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

// FileSource adapts resolved dataset files to the builder's source streams.
// MetaPath is optional; without it Attrs reports no stream at all.
type FileSource struct {
	edgePath string
	metaPath string
	logger   *slog.Logger
}

func NewFileSource(edgePath, metaPath string, logger *slog.Logger) *FileSource {
	return &FileSource{edgePath: edgePath, metaPath: metaPath, logger: logger}
}

func (s *FileSource) Name() string {
	return filepath.Base(s.edgePath)
}

func (s *FileSource) Edges() (graph.EdgeSource, error) {
	el, err := OpenEdgeList(s.edgePath, s.logger)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (s *FileSource) Attrs() (graph.AttrSource, error) {
	if s.metaPath == "" {
		return nil, nil
	}
	md, err := OpenMetadata(s.metaPath, s.logger)
	if err != nil {
		return nil, err
	}
	return md, nil
}
