package store

import (
	"context"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/getkayan/kayan-mongo/domain"
)

// fakeDatabase is an in-memory domain.Database with the same filter
// semantics the stores rely on: field equality plus dotted paths into
// embedded arrays.
type fakeDatabase struct {
	cols map[string]*fakeCollection
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{cols: make(map[string]*fakeCollection)}
}

func (d *fakeDatabase) Collection(name string) domain.Collection {
	if c, ok := d.cols[name]; ok {
		return c
	}
	c := &fakeCollection{docs: make(map[string]bson.Raw)}
	d.cols[name] = c
	return c
}

func (d *fakeDatabase) collection(name string) *fakeCollection {
	d.Collection(name)
	return d.cols[name]
}

type fakeCollection struct {
	docs  map[string]bson.Raw
	order []string
	calls int
}

func docKey(raw bson.Raw) string {
	return raw.Lookup("_id").String()
}

func (c *fakeCollection) InsertOne(ctx context.Context, doc any) error {
	c.calls++
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	k := docKey(raw)
	if _, ok := c.docs[k]; !ok {
		c.order = append(c.order, k)
	}
	c.docs[k] = raw
	return nil
}

func (c *fakeCollection) FindOne(ctx context.Context, filter bson.M) (bson.Raw, error) {
	c.calls++
	for _, k := range c.order {
		if matches(c.docs[k], filter) {
			return c.docs[k], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *fakeCollection) Find(ctx context.Context, filter bson.M) ([]bson.Raw, error) {
	c.calls++
	var out []bson.Raw
	for _, k := range c.order {
		if matches(c.docs[k], filter) {
			out = append(out, c.docs[k])
		}
	}
	return out, nil
}

func (c *fakeCollection) ReplaceOne(ctx context.Context, filter bson.M, doc any) error {
	c.calls++
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	for _, k := range c.order {
		if matches(c.docs[k], filter) {
			c.docs[k] = raw
			return nil
		}
	}
	// upsert
	k := docKey(raw)
	c.order = append(c.order, k)
	c.docs[k] = raw
	return nil
}

func (c *fakeCollection) DeleteOne(ctx context.Context, filter bson.M) error {
	c.calls++
	for i, k := range c.order {
		if matches(c.docs[k], filter) {
			delete(c.docs, k)
			c.order = append(c.order[:i], c.order[i+1:]...)
			return nil
		}
	}
	return nil
}

func matches(raw bson.Raw, filter bson.M) bool {
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return false
	}
	for path, want := range filter {
		if !matchPath(doc, strings.Split(path, "."), want) {
			return false
		}
	}
	return true
}

func matchPath(v any, path []string, want any) bool {
	if len(path) == 0 {
		if m, ok := want.(bson.M); ok {
			if sub, ok := m["$elemMatch"].(bson.M); ok {
				return matchElem(v, sub)
			}
		}
		return reflect.DeepEqual(v, want)
	}
	switch t := v.(type) {
	case bson.M:
		nv, ok := t[path[0]]
		if !ok {
			return false
		}
		return matchPath(nv, path[1:], want)
	case primitive.D:
		// embedded documents decode as ordered primitive.D
		for _, e := range t {
			if e.Key == path[0] {
				return matchPath(e.Value, path[1:], want)
			}
		}
	case primitive.A:
		for _, e := range t {
			if matchPath(e, path, want) {
				return true
			}
		}
	}
	return false
}

// matchElem reports whether any element of the array satisfies every
// predicate of the $elemMatch sub-filter.
func matchElem(v any, sub bson.M) bool {
	arr, ok := v.(primitive.A)
	if !ok {
		return false
	}
	for _, e := range arr {
		all := true
		for k, want := range sub {
			if !matchPath(e, strings.Split(k, "."), want) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
