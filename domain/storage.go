// Package domain defines the storage contracts consumed by the kayan-mongo
// stores.
//
// The interfaces here are the narrow slice of a document database the stores
// need: named collections supporting single-document insert, lookup, upsert
// replace and delete, with filters expressed as field-equality predicates.
// The persistence package provides the MongoDB implementation; tests provide
// in-memory fakes.
package domain

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned by Collection.FindOne when no document matches the
// filter. Stores translate it into a nil result rather than an error.
var ErrNotFound = errors.New("domain: document not found")

// Database is a handle bound to one database, yielding named collections.
type Database interface {
	Collection(name string) Collection
}

// Collection exposes the single-document operations issued by the stores.
// Filters are field-equality predicates; dotted paths reach into embedded
// documents and arrays.
type Collection interface {
	// InsertOne stores a new document.
	InsertOne(ctx context.Context, doc any) error

	// FindOne returns the first document matching filter, or ErrNotFound.
	FindOne(ctx context.Context, filter bson.M) (bson.Raw, error)

	// Find returns every document matching filter.
	Find(ctx context.Context, filter bson.M) ([]bson.Raw, error)

	// ReplaceOne replaces the document matching filter wholesale, inserting
	// it when no match exists (upsert).
	ReplaceOne(ctx context.Context, filter bson.M, doc any) error

	// DeleteOne removes the first document matching filter. Deleting a
	// missing document is not an error.
	DeleteOne(ctx context.Context, filter bson.M) error
}
