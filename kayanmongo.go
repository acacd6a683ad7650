// Package kayanmongo binds a membership framework's user and role stores to
// MongoDB. The default configuration uses string keys persisted as ObjectIDs;
// the typed subpackages (identity, codec, store) expose the same surface for
// any comparable key type.
package kayanmongo

import (
	"context"

	"github.com/getkayan/kayan-mongo/codec"
	"github.com/getkayan/kayan-mongo/domain"
	"github.com/getkayan/kayan-mongo/identity"
	"github.com/getkayan/kayan-mongo/persistence"
	"github.com/getkayan/kayan-mongo/store"
)

// Default types for convenience
type ID = string
type User = identity.User[string]
type Role = identity.Role[string]
type Claim = identity.Claim
type Login = identity.Login

// NewUser returns a default-keyed user with empty embedded collections.
func NewUser(userName string) *User { return identity.NewUser[string](userName) }

// NewRole returns a default-keyed role.
func NewRole(name string) *Role { return identity.NewRole[string](name) }

// Open resolves nameOrURL (a mongodb:// URL or a configured name) into a
// connection context shared by the stores built on it.
func Open(ctx context.Context, nameOrURL string) (*persistence.Context, error) {
	return persistence.NewContext(ctx, nameOrURL)
}

// NewUserStore creates a UserStore using the default string/ObjectID keys.
func NewUserStore(db domain.Database) *store.UserStore[string] {
	return store.NewUserStore(db, codec.NewMapper[string](codec.ObjectIDKeys{}))
}

// NewUserStoreIn is NewUserStore over a custom collection name.
func NewUserStoreIn(db domain.Database, collection string) *store.UserStore[string] {
	return store.NewUserStoreIn(db, collection, codec.NewMapper[string](codec.ObjectIDKeys{}))
}

// NewRoleStore creates a RoleStore using the default string/ObjectID keys.
func NewRoleStore(db domain.Database) *store.RoleStore[string] {
	return store.NewRoleStore(db, codec.NewMapper[string](codec.ObjectIDKeys{}))
}

// NewRoleStoreIn is NewRoleStore over a custom collection name.
func NewRoleStoreIn(db domain.Database, collection string) *store.RoleStore[string] {
	return store.NewRoleStoreIn(db, collection, codec.NewMapper[string](codec.ObjectIDKeys{}))
}
