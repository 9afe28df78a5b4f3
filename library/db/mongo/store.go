package mongo

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/envo-blog/library/db/docstore"
)

type collection struct {
	db  *DB
	col *mongo.Collection
}

type document struct {
	id  string
	raw bson.Raw
}

func (d *document) ID() string {
	return d.id
}

func (d *document) DataTo(v any) error {
	return errors.Wrapf(bson.Unmarshal(d.raw, v), "decode document %q", d.id)
}

// objectID parses a document id, ids that are not ObjectID hex cannot exist.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func newDocument(raw bson.Raw) (*document, error) {
	oid, ok := raw.Lookup("_id").ObjectIDOK()
	if !ok {
		return nil, errors.New("document without ObjectID _id")
	}

	return &document{id: oid.Hex(), raw: raw}, nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	raw, err := c.col.FindOne(ctx, bson.M{"_id": oid}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(docstore.ErrNotFound, "id %q", id)
		}
		return nil, docstore.Unavailable("get "+c.col.Name(), err)
	}

	return newDocument(raw)
}

// buildFind converts a docstore query into a mongo filter and find options.
func buildFind(q docstore.Query) (bson.D, *options.FindOptions) {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	return filter, opts
}

func (c *collection) List(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	filter, opts := buildFind(q)
	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, docstore.Unavailable("list "+c.col.Name(), err)
	}
	defer cur.Close(ctx) // nolint: errcheck

	var docs []docstore.Document
	for cur.Next(ctx) {
		doc, err := newDocument(append(bson.Raw(nil), cur.Current...))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		docs = append(docs, doc)
	}
	if err = cur.Err(); err != nil {
		return nil, docstore.Unavailable("iterate "+c.col.Name(), err)
	}

	return docs, nil
}

func (c *collection) Insert(ctx context.Context, fields any) (string, error) {
	res, err := c.col.InsertOne(ctx, fields)
	if err != nil {
		return "", docstore.Unavailable("insert "+c.col.Name(), err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return oid.Hex(), nil
}

// InsertUnique relies on a unique index over field, created on first use,
// so the check and the insert are one server-side operation.
func (c *collection) InsertUnique(ctx context.Context, field string, value any, fields any) (string, error) {
	if err := c.ensureUniqueIndex(ctx, field); err != nil {
		return "", err
	}

	id, err := c.Insert(ctx, fields)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.Wrapf(docstore.ErrDuplicate, "%s %v already exists", field, value)
		}
		return "", err
	}

	return id, nil
}

func (c *collection) ensureUniqueIndex(ctx context.Context, field string) error {
	key := c.col.Name() + "." + field
	if _, ok := c.db.uniqueIndexes.Load(key); ok {
		return nil
	}

	_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return docstore.Unavailable("create unique index "+key, err)
	}

	c.db.uniqueIndexes.Store(key, struct{}{})
	return nil
}

func (c *collection) Replace(ctx context.Context, id string, fields any) error {
	oid, ok := objectID(id)
	if !ok {
		return errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	res, err := c.col.ReplaceOne(ctx, bson.M{"_id": oid}, fields)
	if err != nil {
		return docstore.Unavailable("replace "+c.col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	return nil
}

func (c *collection) Remove(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}

	if _, err := c.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return docstore.Unavailable("remove "+c.col.Name(), err)
	}

	return nil
}
