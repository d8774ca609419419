package pipeline

import (
	"encoding/json"
	"io"

	"github.com/w2sg-arnav/arangodb/pkg/analyze"
	"github.com/w2sg-arnav/arangodb/pkg/arango"
)

// Bundle is the JSON-serializable summary of a run. Field names are part of
// the output contract; downstream dashboards key on them.
type Bundle struct {
	NumNodes             int                    `json:"numNodes"`
	NumEdges             int                    `json:"numEdges"`
	AvgDegree            float64                `json:"avgDegree"`
	MaxDegree            int                    `json:"maxDegree"`
	MaxDegreeNode        string                 `json:"maxDegreeNode"`
	TopNodes             []analyze.NodeDegree   `json:"topNodes"`
	LargestComponentSize int                    `json:"largestComponentSize"`
	LargestComponentPct  float64                `json:"largestComponentPct"`
	SampleNodeCount      int                    `json:"sampleNodeCount"`
	CommunityAlgorithm   string                 `json:"communityAlgorithm"`
	NumCommunities       int                    `json:"numCommunities"`
	CommunitySizes       []int                  `json:"communitySizes"`
	PersistSummary       *arango.PersistSummary `json:"persistSummary,omitempty"`
	Status               string                 `json:"status"`
	Diagnostics          []string               `json:"diagnostics"`
}

// assembleBundle projects a run result into its output bundle. Sections
// whose stage never ran stay at their zero values, so a bundle is produced
// for failed and cancelled runs too.
func (o *Orchestrator) assembleBundle(res *RunResult) *Bundle {
	b := &Bundle{
		TopNodes:       []analyze.NodeDegree{},
		CommunitySizes: []int{},
		Status:         res.Status,
		Diagnostics:    append([]string{}, res.Diagnostics...),
		PersistSummary: res.Persist,
	}
	if a := res.Analysis; a != nil {
		b.NumNodes = a.NumNodes
		b.NumEdges = a.NumEdges
		b.AvgDegree = a.AvgDegree
		b.MaxDegree = a.MaxDegree
		b.MaxDegreeNode = a.MaxDegreeNode
		b.TopNodes = append(b.TopNodes, a.TopNodes...)
		b.LargestComponentSize = a.LargestComponentSize
		b.LargestComponentPct = a.LargestComponentPct
		if a.Sample != nil {
			b.SampleNodeCount = a.Sample.NumNodes()
		}
	}
	if c := res.Communities; c != nil {
		b.CommunityAlgorithm = string(c.Algorithm)
		b.NumCommunities = c.NumCommunities
		b.CommunitySizes = append(b.CommunitySizes, c.Sizes...)
	}
	return b
}

// Encode writes the bundle as indented JSON.
func (b *Bundle) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
