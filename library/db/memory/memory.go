// Package memory is an in-process docstore backend for development and tests.
//
// Documents are kept as their JSON form, so models are matched and sorted
// by their json field names.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"

	"github.com/Laisky/envo-blog/library/db/docstore"
)

// Store is a docstore.Store held in memory.
type Store struct {
	mu   sync.Mutex
	cols map[string]*collection
	// newID assigns document ids, replaced in tests for stable ids.
	newID func() string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		cols:  map[string]*collection{},
		newID: gutils.UUID7,
	}
}

// WithIDGenerator replaces the id generator and returns the store.
func (s *Store) WithIDGenerator(gen func() string) *Store {
	s.mu.Lock()
	s.newID = gen
	s.mu.Unlock()
	return s
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) docstore.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.cols[name]
	if !ok {
		col = &collection{store: s, docs: map[string]map[string]any{}}
		s.cols[name] = col
	}

	return col
}

// Close is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newID()
}

type collection struct {
	store *Store

	mu    sync.RWMutex
	docs  map[string]map[string]any
	order []string
}

type document struct {
	id   string
	body map[string]any
}

func (d *document) ID() string {
	return d.id
}

func (d *document) DataTo(v any) error {
	raw, err := json.Marshal(d.body)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decode document %q", d.id)
	}

	return nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, docstore.Unavailable("get", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	body, ok := c.docs[id]
	if !ok {
		return nil, errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	return &document{id: id, body: body}, nil
}

func (c *collection) List(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, docstore.Unavailable("list", err)
	}

	filters := make([]docstore.Filter, 0, len(q.Filters))
	for _, f := range q.Filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "normalize filter %q", f.Field)
		}
		filters = append(filters, docstore.Filter{Field: f.Field, Value: v})
	}

	c.mu.RLock()
	docs := make([]*document, 0, len(c.order))
	for _, id := range c.order {
		body := c.docs[id]
		if matches(body, filters) {
			docs = append(docs, &document{id: id, body: body})
		}
	}
	c.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			cmp := compare(docs[i].body[q.OrderBy], docs[j].body[q.OrderBy])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	out := make([]docstore.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}

	return out, nil
}

func (c *collection) Insert(ctx context.Context, fields any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", docstore.Unavailable("insert", err)
	}

	body, err := toBody(fields)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(body), nil
}

func (c *collection) InsertUnique(ctx context.Context, field string, value any, fields any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", docstore.Unavailable("insert", err)
	}

	body, err := toBody(fields)
	if err != nil {
		return "", err
	}
	want, err := normalize(value)
	if err != nil {
		return "", errors.Wrapf(err, "normalize %q", field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.docs {
		if compare(existing[field], want) == 0 {
			return "", errors.Wrapf(docstore.ErrDuplicate, "%s already exists", field)
		}
	}

	return c.insertLocked(body), nil
}

func (c *collection) insertLocked(body map[string]any) string {
	id := c.store.nextID()
	c.docs[id] = body
	c.order = append(c.order, id)
	return id
}

func (c *collection) Replace(ctx context.Context, id string, fields any) error {
	if err := ctx.Err(); err != nil {
		return docstore.Unavailable("replace", err)
	}

	body, err := toBody(fields)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}
	c.docs[id] = body
	return nil
}

func (c *collection) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return docstore.Unavailable("remove", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	return nil
}

// toBody converts a document struct into its stored JSON object form.
func toBody(fields any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "marshal fields")
	}

	body := map[string]any{}
	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, errors.Wrap(err, "fields must encode to an object")
	}

	return body, nil
}

// normalize converts v to the value json decoding would produce.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var out any
	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, errors.WithStack(err)
	}

	return out, nil
}

func matches(body map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		got, ok := body[f.Field]
		if !ok || compare(got, f.Value) != 0 {
			return false
		}
	}

	return true
}

// compare orders json scalars. Missing values sort first, values of
// different kinds are ordered by kind.
func compare(a, b any) int {
	ka, kb := kind(a), kind(b)
	if ka != kb {
		return ka - kb
	}

	switch av := a.(type) {
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case bool:
		bv := b.(bool)
		switch {
		case !av && bv:
			return -1
		case av && !bv:
			return 1
		}
	}

	return 0
}

func kind(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
