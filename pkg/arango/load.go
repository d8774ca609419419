package arango

import (
	"context"
	"strings"

	driver "github.com/arangodb/go-driver"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
)

const scanQuery = "FOR d IN @@col RETURN d"

// Load reads the persisted graph back out of the store. A missing database,
// missing collection, or empty node collection all mean "nothing persisted"
// and return (nil, nil) rather than an error, so callers can fall back to
// rebuilding from source. Load resolves its own handles and does not require
// EnsureSchema to have run on this Store.
func (s *Store) Load(ctx context.Context) (*graph.Graph, error) {
	db, nodes, ok, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	count, err := nodes.Count(ctx)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "collection", Name: s.cfg.NodeCollection, Cause: err}
	}
	if count == 0 {
		return nil, nil
	}

	g := graph.New()
	keyToID, err := s.loadNodes(ctx, db, g)
	if err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, db, g, keyToID); err != nil {
		return nil, err
	}

	s.logger.Info("graph loaded from store",
		"nodes", g.NumNodes(),
		"edges", g.NumEdges())
	return g, nil
}

// resolve locates the database and the node collection, reusing handles
// cached by EnsureSchema when available. ok is false when the database or
// either collection is absent.
func (s *Store) resolve(ctx context.Context) (driver.Database, driver.Collection, bool, error) {
	if s.ready {
		return s.db, s.nodes, true, nil
	}

	exists, err := s.client.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return nil, nil, false, &StoreError{Op: "load", Entity: "database", Name: s.cfg.Database, Cause: err}
	}
	if !exists {
		return nil, nil, false, nil
	}
	db, err := s.client.Database(ctx, s.cfg.Database)
	if err != nil {
		return nil, nil, false, &StoreError{Op: "load", Entity: "database", Name: s.cfg.Database, Cause: err}
	}

	for _, name := range []string{s.cfg.NodeCollection, s.cfg.EdgeCollection} {
		exists, err := db.CollectionExists(ctx, name)
		if err != nil {
			return nil, nil, false, &StoreError{Op: "load", Entity: "collection", Name: name, Cause: err}
		}
		if !exists {
			return nil, nil, false, nil
		}
	}

	nodes, err := db.Collection(ctx, s.cfg.NodeCollection)
	if err != nil {
		return nil, nil, false, &StoreError{Op: "load", Entity: "collection", Name: s.cfg.NodeCollection, Cause: err}
	}
	return db, nodes, true, nil
}

// loadNodes scans the node collection into g and returns the document key
// to canonical ID mapping edges resolve against.
func (s *Store) loadNodes(ctx context.Context, db driver.Database, g *graph.Graph) (map[string]string, error) {
	cursor, err := db.Query(ctx, scanQuery, map[string]interface{}{"@col": s.cfg.NodeCollection})
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "collection", Name: s.cfg.NodeCollection, Cause: err}
	}
	defer cursor.Close()

	keyToID := make(map[string]string)
	for {
		var doc nodeDoc
		if _, err := cursor.ReadDocument(ctx, &doc); driver.IsNoMoreDocuments(err) {
			break
		} else if err != nil {
			return nil, &StoreError{Op: "load", Entity: "collection", Name: s.cfg.NodeCollection, Cause: err}
		}

		id := doc.ID
		if id == "" {
			// Documents written by other tools may lack the id field; the
			// key is the sanitized form of the ID and is the best recovery.
			id = doc.Key
		}
		keyToID[doc.Key] = id
		g.AddNode(id)
		for k, v := range doc.Attrs {
			if err := g.SetAttr(id, k, v); err != nil {
				return nil, &StoreError{Op: "load", Entity: "node", Name: id, Cause: err}
			}
		}
	}
	return keyToID, nil
}

// loadEdges scans the edge collection and reconnects endpoints through the
// key mapping. Edges whose endpoints are not in the node collection are
// skipped, not fatal: the persisted graph stays usable even if an operator
// deleted vertices by hand.
func (s *Store) loadEdges(ctx context.Context, db driver.Database, g *graph.Graph, keyToID map[string]string) error {
	cursor, err := db.Query(ctx, scanQuery, map[string]interface{}{"@col": s.cfg.EdgeCollection})
	if err != nil {
		return &StoreError{Op: "load", Entity: "collection", Name: s.cfg.EdgeCollection, Cause: err}
	}
	defer cursor.Close()

	skipped := 0
	for {
		var doc edgeDoc
		if _, err := cursor.ReadDocument(ctx, &doc); driver.IsNoMoreDocuments(err) {
			break
		} else if err != nil {
			return &StoreError{Op: "load", Entity: "collection", Name: s.cfg.EdgeCollection, Cause: err}
		}

		from, okFrom := keyToID[refKey(doc.From)]
		to, okTo := keyToID[refKey(doc.To)]
		if !okFrom || !okTo {
			skipped++
			continue
		}
		g.AddEdge(from, to)
	}

	if skipped > 0 {
		s.logger.Warn("skipped edges with unresolved endpoints", "count", skipped)
	}
	return nil
}

// refKey strips the collection prefix from a document handle.
func refKey(ref string) string {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
