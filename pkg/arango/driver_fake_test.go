package arango

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	driver "github.com/arangodb/go-driver"
)

// fakeBackend is an in-memory stand-in for an ArangoDB server. Only the
// operations the store exercises are implemented; anything else panics
// through the embedded nil interface, which is exactly what a test wants
// to hear about.
type fakeBackend struct {
	mu         sync.Mutex
	dbs        map[string]*fakeDBData
	failWrites map[string]int // collection -> writes to fail; negative means always
	writeCalls map[string]int
}

type fakeDBData struct {
	cols map[string]*fakeColData
}

type fakeColData struct {
	typ  driver.CollectionType
	docs map[string]map[string]interface{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		dbs:        make(map[string]*fakeDBData),
		failWrites: make(map[string]int),
		writeCalls: make(map[string]int),
	}
}

// failNextWrites makes the next n CreateDocuments calls against the named
// collection fail. Negative n fails every call.
func (b *fakeBackend) failNextWrites(col string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites[col] = n
}

func (b *fakeBackend) docCount(db, col string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.dbs[db]
	if !ok {
		return 0
	}
	c, ok := d.cols[col]
	if !ok {
		return 0
	}
	return len(c.docs)
}

func (b *fakeBackend) collectionType(db, col string) driver.CollectionType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dbs[db].cols[col].typ
}

type fakeClient struct {
	driver.Client
	backend    *fakeBackend
	versionErr error
}

func (c *fakeClient) Version(_ context.Context) (driver.VersionInfo, error) {
	if c.versionErr != nil {
		return driver.VersionInfo{}, c.versionErr
	}
	return driver.VersionInfo{Version: "3.11.0"}, nil
}

func (c *fakeClient) DatabaseExists(_ context.Context, name string) (bool, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	_, ok := c.backend.dbs[name]
	return ok, nil
}

func (c *fakeClient) CreateDatabase(_ context.Context, name string, _ *driver.CreateDatabaseOptions) (driver.Database, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if _, ok := c.backend.dbs[name]; !ok {
		c.backend.dbs[name] = &fakeDBData{cols: make(map[string]*fakeColData)}
	}
	return &fakeDatabase{backend: c.backend, name: name}, nil
}

func (c *fakeClient) Database(_ context.Context, name string) (driver.Database, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if _, ok := c.backend.dbs[name]; !ok {
		return nil, fmt.Errorf("database %q not found", name)
	}
	return &fakeDatabase{backend: c.backend, name: name}, nil
}

type fakeDatabase struct {
	driver.Database
	backend *fakeBackend
	name    string
}

func (d *fakeDatabase) CollectionExists(_ context.Context, name string) (bool, error) {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	_, ok := d.backend.dbs[d.name].cols[name]
	return ok, nil
}

func (d *fakeDatabase) CreateCollection(_ context.Context, name string, options *driver.CreateCollectionOptions) (driver.Collection, error) {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	typ := driver.CollectionTypeDocument
	if options != nil && options.Type != 0 {
		typ = options.Type
	}
	if _, ok := d.backend.dbs[d.name].cols[name]; !ok {
		d.backend.dbs[d.name].cols[name] = &fakeColData{
			typ:  typ,
			docs: make(map[string]map[string]interface{}),
		}
	}
	return &fakeCollection{backend: d.backend, db: d.name, name: name}, nil
}

func (d *fakeDatabase) Collection(_ context.Context, name string) (driver.Collection, error) {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	if _, ok := d.backend.dbs[d.name].cols[name]; !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	return &fakeCollection{backend: d.backend, db: d.name, name: name}, nil
}

func (d *fakeDatabase) Query(_ context.Context, _ string, bindVars map[string]interface{}) (driver.Cursor, error) {
	colName, _ := bindVars["@col"].(string)

	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	col, ok := d.backend.dbs[d.name].cols[colName]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", colName)
	}

	keys := make([]string, 0, len(col.docs))
	for k := range col.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, col.docs[k])
	}
	return &fakeCursor{docs: docs}, nil
}

type fakeCollection struct {
	driver.Collection
	backend *fakeBackend
	db      string
	name    string
}

func (c *fakeCollection) Count(_ context.Context) (int64, error) {
	return int64(c.backend.docCount(c.db, c.name)), nil
}

func (c *fakeCollection) CreateDocuments(_ context.Context, documents interface{}) (driver.DocumentMetaSlice, driver.ErrorSlice, error) {
	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	b.writeCalls[c.name]++
	if n := b.failWrites[c.name]; n != 0 {
		if n > 0 {
			b.failWrites[c.name] = n - 1
		}
		return nil, nil, errors.New("simulated write failure")
	}

	// Round-trip through JSON so the real document tags are what lands in
	// the fake, same as on the wire.
	raw, err := json.Marshal(documents)
	if err != nil {
		return nil, nil, err
	}
	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, err
	}

	col := b.dbs[c.db].cols[c.name]
	metas := make(driver.DocumentMetaSlice, 0, len(items))
	for _, item := range items {
		key, _ := item["_key"].(string)
		if key == "" {
			return nil, nil, errors.New("document without _key")
		}
		col.docs[key] = item
		metas = append(metas, driver.DocumentMeta{Key: key})
	}
	return metas, nil, nil
}

type fakeCursor struct {
	driver.Cursor
	docs []map[string]interface{}
	pos  int
}

func (c *fakeCursor) Close() error { return nil }

func (c *fakeCursor) ReadDocument(_ context.Context, result interface{}) (driver.DocumentMeta, error) {
	if c.pos >= len(c.docs) {
		return driver.DocumentMeta{}, driver.NoMoreDocumentsError{}
	}
	raw, err := json.Marshal(c.docs[c.pos])
	if err != nil {
		return driver.DocumentMeta{}, err
	}
	c.pos++
	if err := json.Unmarshal(raw, result); err != nil {
		return driver.DocumentMeta{}, err
	}
	return driver.DocumentMeta{}, nil
}
