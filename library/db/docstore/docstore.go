// Package docstore defines the collection-scoped document store contract
// shared by the firestore, mongo and in-memory backends.
package docstore

import (
	"context"

	"github.com/Laisky/errors/v2"
)

var (
	// ErrNotFound is returned when a document id does not resolve.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned by InsertUnique when the unique field value already exists.
	ErrDuplicate = errors.New("duplicate document")
	// ErrUnavailable marks network or backend failures.
	ErrUnavailable = errors.New("document store unavailable")
)

// Store opens collections by name.
type Store interface {
	Collection(name string) Collection
	Close(ctx context.Context) error
}

// Collection is a handle on one flat, schemaless collection.
//
// Document bodies are plain structs. Backends decode them with their own
// struct tags (firestore, bson or json), so models carry all three.
type Collection interface {
	// Get returns the document with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)
	// List returns the documents matching q.
	List(ctx context.Context, q Query) ([]Document, error)
	// Insert stores fields as a new document and returns the assigned id.
	Insert(ctx context.Context, fields any) (id string, err error)
	// InsertUnique atomically checks that no document has field == value
	// and inserts fields. It returns ErrDuplicate when the check fails.
	InsertUnique(ctx context.Context, field string, value any, fields any) (id string, err error)
	// Replace overwrites the whole document body. Fields omitted from
	// fields are not preserved.
	Replace(ctx context.Context, id string, fields any) error
	// Remove deletes the document. Removing a missing id is not an error.
	Remove(ctx context.Context, id string) error
}

// Document is one stored document.
type Document interface {
	ID() string
	// DataTo decodes the document body into v, which must be a pointer to struct.
	DataTo(v any) error
}

// Unavailable wraps a backend failure so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}

	return &StoreError{Op: op, Err: err}
}

// StoreError is a backend failure during Op.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + ErrUnavailable.Error() + ": " + e.Err.Error()
}

// Unwrap returns the backend error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports ErrUnavailable as a match.
func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable
}
