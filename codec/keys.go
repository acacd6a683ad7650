package codec

import (
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KeyCodec translates between the key type K exposed on entities and the
// native representation stored in the document's _id field.
type KeyCodec[K comparable] interface {
	// Encode converts a key to its stored _id representation.
	Encode(id K) (any, error)

	// Decode converts a stored _id value back to a key.
	Decode(v bson.RawValue) (K, error)

	// Generate returns a fresh key for entities created without one.
	// Codecs that cannot mint keys return the zero value.
	Generate() K
}

// ObjectIDKeys is the default codec: string keys rendered as 12-byte
// MongoDB ObjectIDs. String representations round-trip through hex.
type ObjectIDKeys struct{}

func (ObjectIDKeys) Encode(id string) (any, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an object id", ErrBadKey, id)
	}
	return oid, nil
}

func (ObjectIDKeys) Decode(v bson.RawValue) (string, error) {
	switch v.Type {
	case bson.TypeObjectID:
		oid, _ := v.ObjectIDOK()
		return oid.Hex(), nil
	case bson.TypeString:
		return v.StringValue(), nil
	default:
		return "", fmt.Errorf("%w: _id has type %s, want ObjectID", ErrDecode, v.Type)
	}
}

func (ObjectIDKeys) Generate() string { return primitive.NewObjectID().Hex() }

// UUIDKeys stores uuid.UUID keys in their canonical string form.
type UUIDKeys struct{}

func (UUIDKeys) Encode(id uuid.UUID) (any, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: nil uuid", ErrBadKey)
	}
	return id.String(), nil
}

func (UUIDKeys) Decode(v bson.RawValue) (uuid.UUID, error) {
	s, ok := v.StringValueOK()
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: _id has type %s, want string", ErrDecode, v.Type)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: _id %q is not a uuid", ErrDecode, s)
	}
	return id, nil
}

func (UUIDKeys) Generate() uuid.UUID { return uuid.New() }

// NativeKeys passes any BSON-representable key type through unchanged.
// It mints no keys; entities must arrive with their ID assigned.
type NativeKeys[K comparable] struct{}

func (NativeKeys[K]) Encode(id K) (any, error) { return id, nil }

func (NativeKeys[K]) Decode(v bson.RawValue) (K, error) {
	var id K
	if err := v.Unmarshal(&id); err != nil {
		return id, fmt.Errorf("%w: _id: %v", ErrDecode, err)
	}
	return id, nil
}

func (NativeKeys[K]) Generate() K {
	var zero K
	return zero
}
