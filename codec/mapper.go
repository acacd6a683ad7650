// Package codec maps entities to and from stored documents.
//
// The mapper owns the identifier representation: entity ID fields are not
// marshalled through struct tags, they are encoded into the document's _id
// field by a KeyCodec. Decoupling this from the stores lets the same CRUD
// code serve string keys (stored as ObjectIDs), UUIDs, or any comparable
// key type.
package codec

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/getkayan/kayan-mongo/identity"
)

var (
	// ErrDecode reports a stored document that does not match the entity shape.
	ErrDecode = errors.New("codec: cannot decode document")

	// ErrBadKey reports a key that the codec cannot represent.
	ErrBadKey = errors.New("codec: invalid key")
)

// Mapper converts users and roles between entity and document form using a
// key codec for the _id field.
type Mapper[K comparable] struct {
	keys KeyCodec[K]
}

func NewMapper[K comparable](keys KeyCodec[K]) *Mapper[K] {
	return &Mapper[K]{keys: keys}
}

// Keys exposes the underlying key codec.
func (m *Mapper[K]) Keys() KeyCodec[K] { return m.keys }

// IDFilter builds the _id equality filter for a key.
func (m *Mapper[K]) IDFilter(id K) (bson.M, error) {
	enc, err := m.keys.Encode(id)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": enc}, nil
}

// UserToDocument serializes a user, encoding its ID as the document _id.
// Nil embedded collections are repaired to empty before marshalling so that
// stored documents always carry present, possibly empty, arrays.
func (m *Mapper[K]) UserToDocument(u *identity.User[K]) (bson.M, error) {
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if u.Claims == nil {
		u.Claims = []identity.Claim{}
	}
	if u.Logins == nil {
		u.Logins = []identity.Login{}
	}
	return m.toDocument(u, u.ID)
}

// UserFromDocument is the inverse of UserToDocument.
func (m *Mapper[K]) UserFromDocument(raw bson.Raw) (*identity.User[K], error) {
	u := new(identity.User[K])
	id, err := m.fromDocument(raw, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if u.Claims == nil {
		u.Claims = []identity.Claim{}
	}
	if u.Logins == nil {
		u.Logins = []identity.Login{}
	}
	return u, nil
}

// RoleToDocument serializes a role, encoding its ID as the document _id.
func (m *Mapper[K]) RoleToDocument(r *identity.Role[K]) (bson.M, error) {
	if r.Claims == nil {
		r.Claims = []identity.Claim{}
	}
	return m.toDocument(r, r.ID)
}

// RoleFromDocument is the inverse of RoleToDocument.
func (m *Mapper[K]) RoleFromDocument(raw bson.Raw) (*identity.Role[K], error) {
	r := new(identity.Role[K])
	id, err := m.fromDocument(raw, r)
	if err != nil {
		return nil, err
	}
	r.ID = id
	if r.Claims == nil {
		r.Claims = []identity.Claim{}
	}
	return r, nil
}

func (m *Mapper[K]) toDocument(entity any, id K) (bson.M, error) {
	enc, err := m.keys.Encode(id)
	if err != nil {
		return nil, err
	}

	data, err := bson.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("codec: cannot encode entity: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("codec: cannot encode entity: %w", err)
	}

	doc["_id"] = enc
	return doc, nil
}

func (m *Mapper[K]) fromDocument(raw bson.Raw, entity any) (K, error) {
	var zero K

	idVal, err := raw.LookupErr("_id")
	if err != nil {
		return zero, fmt.Errorf("%w: missing _id", ErrDecode)
	}
	id, err := m.keys.Decode(idVal)
	if err != nil {
		return zero, err
	}

	if err := bson.Unmarshal(raw, entity); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return id, nil
}
