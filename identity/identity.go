// Package identity provides the entity model persisted by kayan-mongo.
//
// This package defines the membership entities — users, roles, claims and
// external logins — that the stores read and write. Entities are plain data
// records generic over a key type K; they carry no behavior beyond field
// storage and constructors that guarantee non-nil embedded collections.
//
// # Key Types
//
// The default configuration uses string keys rendered as MongoDB ObjectID hex.
// Any comparable type can be used instead (uuid.UUID, int64, ...) by pairing
// the entities with a matching codec.KeyCodec.
//
// # Document Shape
//
// A user is stored as a single document: roles as an array of role names,
// claims and logins as embedded sub-documents. The ID field is excluded from
// struct-tag marshalling; the codec package owns the _id representation.
package identity

import "time"

// User represents a membership user with flexible ID type K.
//
// Roles holds role names, not foreign keys; membership is compared
// case-insensitively. Claims and Logins are embedded and never nil after
// NewUser or a store read.
type User[K comparable] struct {
	ID                   K          `bson:"-" json:"id"`
	UserName             string     `bson:"userName" json:"user_name"`
	NormalizedUserName   string     `bson:"normalizedUserName" json:"normalized_user_name"`
	Email                string     `bson:"email" json:"email"`
	EmailConfirmed       bool       `bson:"emailConfirmed" json:"email_confirmed"`
	PasswordHash         string     `bson:"passwordHash,omitempty" json:"-"`
	SecurityStamp        string     `bson:"securityStamp" json:"-"`
	PhoneNumber          string     `bson:"phoneNumber" json:"phone_number"`
	PhoneNumberConfirmed bool       `bson:"phoneNumberConfirmed" json:"phone_number_confirmed"`
	TwoFactorEnabled     bool       `bson:"twoFactorEnabled" json:"two_factor_enabled"`
	LockoutEnabled       bool       `bson:"lockoutEnabled" json:"lockout_enabled"`
	LockoutEndUTC        *time.Time `bson:"lockoutEndUtc,omitempty" json:"lockout_end_utc,omitempty"`
	AccessFailedCount    int        `bson:"accessFailedCount" json:"access_failed_count"`

	Roles  []string `bson:"roles" json:"roles"`
	Claims []Claim  `bson:"claims" json:"claims"`
	Logins []Login  `bson:"logins" json:"logins"`
}

// NewUser returns a user with the given name and empty embedded collections.
func NewUser[K comparable](userName string) *User[K] {
	return &User[K]{
		UserName: userName,
		Roles:    []string{},
		Claims:   []Claim{},
		Logins:   []Login{},
	}
}

// Role represents a membership role with flexible ID type K.
type Role[K comparable] struct {
	ID             K       `bson:"-" json:"id"`
	Name           string  `bson:"name" json:"name"`
	NormalizedName string  `bson:"normalizedName" json:"normalized_name"`
	Claims         []Claim `bson:"claims" json:"claims"`
}

// NewRole returns a role with the given name and an empty claim list.
func NewRole[K comparable](name string) *Role[K] {
	return &Role[K]{
		Name:   name,
		Claims: []Claim{},
	}
}

// Claim is a (type, value) assertion attached to a user or a role.
// Uniqueness per owner is the pair, not either field alone.
type Claim struct {
	Type  string `bson:"claimType" json:"claim_type"`
	Value string `bson:"claimValue" json:"claim_value"`
}

// Login links a user to an external sign-in provider. The
// (LoginProvider, ProviderKey) pair resolves to at most one user.
type Login struct {
	LoginProvider string `bson:"loginProvider" json:"login_provider"`
	ProviderKey   string `bson:"providerKey" json:"provider_key"`
}
