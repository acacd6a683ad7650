package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/getkayan/kayan-mongo/domain"
)

// mongoDatabase adapts *mongo.Database to domain.Database.
type mongoDatabase struct {
	db *mongo.Database
}

func (d *mongoDatabase) Collection(name string) domain.Collection {
	return &mongoCollection{col: d.db.Collection(name)}
}

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := c.col.InsertOne(ctx, doc)
	return err
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M) (bson.Raw, error) {
	raw, err := c.col.FindOne(ctx, filter).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	return raw, err
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M) ([]bson.Raw, error) {
	cur, err := c.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	for cur.Next(ctx) {
		docs = append(docs, append(bson.Raw(nil), cur.Current...))
	}
	return docs, cur.Err()
}

func (c *mongoCollection) ReplaceOne(ctx context.Context, filter bson.M, doc any) error {
	_, err := c.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) error {
	_, err := c.col.DeleteOne(ctx, filter)
	return err
}

// closedDatabase is handed out by a Context after Close; every operation
// fails with ErrClosed.
type closedDatabase struct{}

func (closedDatabase) Collection(string) domain.Collection { return closedCollection{} }

type closedCollection struct{}

func (closedCollection) InsertOne(context.Context, any) error { return ErrClosed }

func (closedCollection) FindOne(context.Context, bson.M) (bson.Raw, error) { return nil, ErrClosed }

func (closedCollection) Find(context.Context, bson.M) ([]bson.Raw, error) { return nil, ErrClosed }

func (closedCollection) ReplaceOne(context.Context, bson.M, any) error { return ErrClosed }

func (closedCollection) DeleteOne(context.Context, bson.M) error { return ErrClosed }
