// Package firestore is the Google Cloud Firestore docstore backend.
package firestore

import (
	"context"
	"strings"

	fsSDK "cloud.google.com/go/firestore"
	"github.com/Laisky/errors/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Laisky/envo-blog/library/db/docstore"
)

// DB is a firestore client scoped to one project.
type DB struct {
	cli       *fsSDK.Client
	projectID string
}

// NewDB create firestore client.
// The client honours FIRESTORE_EMULATOR_HOST, so the same code runs against the emulator.
func NewDB(ctx context.Context, projectID string, opts ...option.ClientOption) (db *DB, err error) {
	db = &DB{
		projectID: projectID,
	}
	var cli *fsSDK.Client
	if cli, err = fsSDK.NewClient(ctx, projectID, opts...); err != nil {
		return nil, errors.Wrap(err, "create firestore client")
	}

	db.cli = cli
	return db, nil
}

// ProjectID returns the GCP project the client talks to.
func (db *DB) ProjectID() string {
	return db.projectID
}

// Collection returns a handle on the top-level collection name.
func (db *DB) Collection(name string) docstore.Collection {
	return &collection{db: db, ref: db.cli.Collection(name)}
}

// Close releases the underlying grpc connection.
func (db *DB) Close(context.Context) error {
	return errors.Wrap(db.cli.Close(), "close firestore client")
}

type collection struct {
	db  *DB
	ref *fsSDK.CollectionRef
}

type document struct {
	snap *fsSDK.DocumentSnapshot
}

func (d *document) ID() string {
	return d.snap.Ref.ID
}

func (d *document) DataTo(v any) error {
	return errors.Wrapf(d.snap.DataTo(v), "decode document %q", d.snap.Ref.ID)
}

// docRef returns nil for ids that cannot name a document in this collection.
func (c *collection) docRef(id string) *fsSDK.DocumentRef {
	if id == "" || strings.Contains(id, "/") {
		return nil
	}

	return c.ref.Doc(id)
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	ref := c.docRef(id)
	if ref == nil {
		return nil, errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrapf(docstore.ErrNotFound, "id %q", id)
		}
		return nil, docstore.Unavailable("get "+c.ref.ID, err)
	}

	return &document{snap: snap}, nil
}

func (c *collection) List(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	query := c.ref.Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := fsSDK.Asc
		if q.Desc {
			dir = fsSDK.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, docstore.Unavailable("list "+c.ref.ID, err)
	}

	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, &document{snap: snap})
	}

	return docs, nil
}

func (c *collection) Insert(ctx context.Context, fields any) (string, error) {
	ref, _, err := c.ref.Add(ctx, fields)
	if err != nil {
		return "", docstore.Unavailable("insert "+c.ref.ID, err)
	}

	return ref.ID, nil
}

// InsertUnique runs the existence query and the create in one transaction,
// firestore retries or aborts it when a concurrent writer touches the same range.
func (c *collection) InsertUnique(ctx context.Context, field string, value any, fields any) (string, error) {
	ref := c.ref.NewDoc()
	err := c.db.cli.RunTransaction(ctx, func(ctx context.Context, tx *fsSDK.Transaction) error {
		snaps, err := tx.Documents(c.ref.Where(field, "==", value).Limit(1)).GetAll()
		if err != nil {
			return errors.Wrap(err, "query existing")
		}
		if len(snaps) > 0 {
			return errors.Wrapf(docstore.ErrDuplicate, "%s already exists", field)
		}

		return tx.Create(ref, fields)
	})
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return "", err
		}
		return "", docstore.Unavailable("insert unique "+c.ref.ID, err)
	}

	return ref.ID, nil
}

func (c *collection) Replace(ctx context.Context, id string, fields any) error {
	ref := c.docRef(id)
	if ref == nil {
		return errors.Wrapf(docstore.ErrNotFound, "id %q", id)
	}

	err := c.db.cli.RunTransaction(ctx, func(ctx context.Context, tx *fsSDK.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if isNotFound(err) {
				return errors.Wrapf(docstore.ErrNotFound, "id %q", id)
			}
			return errors.Wrap(err, "get document")
		}

		return tx.Set(ref, fields)
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return docstore.Unavailable("replace "+c.ref.ID, err)
	}

	return nil
}

func (c *collection) Remove(ctx context.Context, id string) error {
	ref := c.docRef(id)
	if ref == nil {
		return nil
	}

	if _, err := ref.Delete(ctx); err != nil && !isNotFound(err) {
		return docstore.Unavailable("remove "+c.ref.ID, err)
	}

	return nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
