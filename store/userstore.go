// Package store implements the identity-store surface the host membership
// framework calls: user and role CRUD, external login linkage, claim and
// role membership.
//
// Operation contract: methods that take a context issue exactly one request
// against the database; every other method mutates only the passed-in entity,
// and callers must invoke Update to persist. A store holds no per-call state
// beyond its shared database handle and a closed flag, so use one store per
// logical unit of work and do not share entity instances across concurrent
// operations.
//
// Writes are whole-document replaces with last-write-wins semantics. Two
// concurrent Update calls on the same user can lose an intervening mutation
// such as an access-failed-count increment; this layer does not use
// transactions, matching the guarantees of the underlying collections.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/getkayan/kayan-mongo/codec"
	"github.com/getkayan/kayan-mongo/domain"
	"github.com/getkayan/kayan-mongo/identity"
	"github.com/getkayan/kayan-mongo/internal/logger"
)

// Default collection names, matching the relational store's table names so
// the binding drops in next to existing deployments.
const (
	DefaultUsersCollection = "AspNetUsers"
	DefaultRolesCollection = "AspNetRoles"
)

// UserStore persists users keyed by K. External logins are embedded in the
// user document; the (provider, key) pair is resolved with an $elemMatch
// filter into that array.
type UserStore[K comparable] struct {
	users  domain.Collection
	mapper *codec.Mapper[K]
	log    *zap.Logger
	closed bool
}

// NewUserStore builds a store over the default users collection.
func NewUserStore[K comparable](db domain.Database, mapper *codec.Mapper[K]) *UserStore[K] {
	return NewUserStoreIn(db, DefaultUsersCollection, mapper)
}

// NewUserStoreIn builds a store over a named collection.
func NewUserStoreIn[K comparable](db domain.Database, collection string, mapper *codec.Mapper[K]) *UserStore[K] {
	return &UserStore[K]{
		users:  db.Collection(collection),
		mapper: mapper,
		log:    logger.Log,
	}
}

// Close marks the store disposed. Every subsequent operation fails with
// ErrStoreClosed. It does not tear down the shared database handle; that
// belongs to the owning persistence.Context.
func (s *UserStore[K]) Close() { s.closed = true }

func (s *UserStore[K]) guard(u *identity.User[K]) error {
	if s.closed {
		return ErrStoreClosed
	}
	if u == nil {
		return ErrNilUser
	}
	return nil
}

// Create inserts the user as one document. A zero ID is replaced with a
// freshly generated key before the insert.
func (s *UserStore[K]) Create(ctx context.Context, u *identity.User[K]) error {
	if err := s.guard(u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var zero K
	if u.ID == zero {
		u.ID = s.mapper.Keys().Generate()
	}

	doc, err := s.mapper.UserToDocument(u)
	if err != nil {
		return err
	}
	if err := s.users.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.log.Debug("user created", zap.Any("id", u.ID))
	return nil
}

// FindByID returns the user with the given key, or nil when none exists.
func (s *UserStore[K]) FindByID(ctx context.Context, id K) (*identity.User[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	filter, err := s.mapper.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, filter)
}

// FindByName returns the user whose normalized user name matches exactly,
// or nil when none exists.
func (s *UserStore[K]) FindByName(ctx context.Context, normalizedUserName string) (*identity.User[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.findOne(ctx, bson.M{"normalizedUserName": normalizedUserName})
}

// FindByEmail returns the user with the given email, or nil when none exists.
func (s *UserStore[K]) FindByEmail(ctx context.Context, email string) (*identity.User[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByLogin resolves an external sign-in to its owning user, or returns
// nil when the pair is unknown. Both fields must match on the same array
// element.
func (s *UserStore[K]) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*identity.User[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.findOne(ctx, bson.M{
		"logins": bson.M{"$elemMatch": bson.M{
			"loginProvider": loginProvider,
			"providerKey":   providerKey,
		}},
	})
}

// Update replaces the whole document keyed by the user's ID, inserting it
// when no document matches (upsert).
func (s *UserStore[K]) Update(ctx context.Context, u *identity.User[K]) error {
	if err := s.guard(u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	filter, err := s.mapper.IDFilter(u.ID)
	if err != nil {
		return err
	}
	doc, err := s.mapper.UserToDocument(u)
	if err != nil {
		return err
	}
	if err := s.users.ReplaceOne(ctx, filter, doc); err != nil {
		return err
	}
	s.log.Debug("user updated", zap.Any("id", u.ID))
	return nil
}

// Delete removes the user's document by ID.
func (s *UserStore[K]) Delete(ctx context.Context, u *identity.User[K]) error {
	if err := s.guard(u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	filter, err := s.mapper.IDFilter(u.ID)
	if err != nil {
		return err
	}
	if err := s.users.DeleteOne(ctx, filter); err != nil {
		return err
	}
	s.log.Debug("user deleted", zap.Any("id", u.ID))
	return nil
}

// Users returns every user in the collection.
func (s *UserStore[K]) Users(ctx context.Context) ([]*identity.User[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	users := make([]*identity.User[K], 0, len(docs))
	for _, raw := range docs {
		u, err := s.mapper.UserFromDocument(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *UserStore[K]) findOne(ctx context.Context, filter bson.M) (*identity.User[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.users.FindOne(ctx, filter)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.mapper.UserFromDocument(raw)
}

// AddLogin attaches an external login to the in-memory user. Adding a
// (provider, key) pair the user already has is a no-op.
func (s *UserStore[K]) AddLogin(u *identity.User[K], login identity.Login) error {
	if err := s.guard(u); err != nil {
		return err
	}
	for _, l := range u.Logins {
		if l.LoginProvider == login.LoginProvider && l.ProviderKey == login.ProviderKey {
			return nil
		}
	}
	u.Logins = append(u.Logins, login)
	return nil
}

// RemoveLogin detaches the matching external login from the in-memory user.
func (s *UserStore[K]) RemoveLogin(u *identity.User[K], loginProvider, providerKey string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	kept := u.Logins[:0]
	for _, l := range u.Logins {
		if l.LoginProvider != loginProvider || l.ProviderKey != providerKey {
			kept = append(kept, l)
		}
	}
	u.Logins = kept
	return nil
}

// Logins returns the user's external logins.
func (s *UserStore[K]) Logins(u *identity.User[K]) ([]identity.Login, error) {
	if err := s.guard(u); err != nil {
		return nil, err
	}
	return u.Logins, nil
}

// AddClaim attaches a claim to the in-memory user. A duplicate (type, value)
// pair is suppressed, not rejected.
func (s *UserStore[K]) AddClaim(u *identity.User[K], claim identity.Claim) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.Claims = addClaim(u.Claims, claim)
	return nil
}

// RemoveClaim detaches every claim matching the (type, value) pair.
func (s *UserStore[K]) RemoveClaim(u *identity.User[K], claim identity.Claim) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.Claims = removeClaim(u.Claims, claim)
	return nil
}

// ReplaceClaim rewrites every claim matching claim to carry newClaim's type
// and value.
func (s *UserStore[K]) ReplaceClaim(u *identity.User[K], claim, newClaim identity.Claim) error {
	if err := s.guard(u); err != nil {
		return err
	}
	for i, c := range u.Claims {
		if c.Type == claim.Type && c.Value == claim.Value {
			u.Claims[i] = newClaim
		}
	}
	return nil
}

// Claims returns the user's claims.
func (s *UserStore[K]) Claims(u *identity.User[K]) ([]identity.Claim, error) {
	if err := s.guard(u); err != nil {
		return nil, err
	}
	return u.Claims, nil
}

// AddToRole adds a role name to the in-memory user. Membership is
// case-insensitive, so adding a role the user already has is a no-op.
func (s *UserStore[K]) AddToRole(u *identity.User[K], role string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return nil
		}
	}
	u.Roles = append(u.Roles, role)
	return nil
}

// RemoveFromRole removes every case-insensitive match of role.
func (s *UserStore[K]) RemoveFromRole(u *identity.User[K], role string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	kept := u.Roles[:0]
	for _, r := range u.Roles {
		if !strings.EqualFold(r, role) {
			kept = append(kept, r)
		}
	}
	u.Roles = kept
	return nil
}

// IsInRole reports case-insensitive role membership.
func (s *UserStore[K]) IsInRole(u *identity.User[K], role string) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true, nil
		}
	}
	return false, nil
}

// Roles returns the user's role names.
func (s *UserStore[K]) Roles(u *identity.User[K]) ([]string, error) {
	if err := s.guard(u); err != nil {
		return nil, err
	}
	return u.Roles, nil
}

// Field accessors. Setters mutate the in-memory user only; persistence is
// deferred to an explicit Update.

func (s *UserStore[K]) UserName(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.UserName, nil
}

func (s *UserStore[K]) SetUserName(u *identity.User[K], userName string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.UserName = userName
	return nil
}

func (s *UserStore[K]) NormalizedUserName(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.NormalizedUserName, nil
}

func (s *UserStore[K]) SetNormalizedUserName(u *identity.User[K], normalized string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.NormalizedUserName = normalized
	return nil
}

func (s *UserStore[K]) Email(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.Email, nil
}

func (s *UserStore[K]) SetEmail(u *identity.User[K], email string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.Email = email
	return nil
}

func (s *UserStore[K]) EmailConfirmed(u *identity.User[K]) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	return u.EmailConfirmed, nil
}

func (s *UserStore[K]) SetEmailConfirmed(u *identity.User[K], confirmed bool) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.EmailConfirmed = confirmed
	return nil
}

func (s *UserStore[K]) PhoneNumber(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.PhoneNumber, nil
}

func (s *UserStore[K]) SetPhoneNumber(u *identity.User[K], phoneNumber string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.PhoneNumber = phoneNumber
	return nil
}

func (s *UserStore[K]) PhoneNumberConfirmed(u *identity.User[K]) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	return u.PhoneNumberConfirmed, nil
}

func (s *UserStore[K]) SetPhoneNumberConfirmed(u *identity.User[K], confirmed bool) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.PhoneNumberConfirmed = confirmed
	return nil
}

func (s *UserStore[K]) TwoFactorEnabled(u *identity.User[K]) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	return u.TwoFactorEnabled, nil
}

func (s *UserStore[K]) SetTwoFactorEnabled(u *identity.User[K], enabled bool) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.TwoFactorEnabled = enabled
	return nil
}

func (s *UserStore[K]) SecurityStamp(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.SecurityStamp, nil
}

func (s *UserStore[K]) SetSecurityStamp(u *identity.User[K], stamp string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.SecurityStamp = stamp
	return nil
}

func (s *UserStore[K]) PasswordHash(u *identity.User[K]) (string, error) {
	if err := s.guard(u); err != nil {
		return "", err
	}
	return u.PasswordHash, nil
}

func (s *UserStore[K]) SetPasswordHash(u *identity.User[K], hash string) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// HasPassword reports whether a password hash is set.
func (s *UserStore[K]) HasPassword(u *identity.User[K]) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	return u.PasswordHash != "", nil
}

func (s *UserStore[K]) LockoutEnabled(u *identity.User[K]) (bool, error) {
	if err := s.guard(u); err != nil {
		return false, err
	}
	return u.LockoutEnabled, nil
}

func (s *UserStore[K]) SetLockoutEnabled(u *identity.User[K], enabled bool) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.LockoutEnabled = enabled
	return nil
}

// LockoutEnd returns the lockout end timestamp. Absence or a past value
// means the user is not locked out; that interpretation belongs to the host
// framework.
func (s *UserStore[K]) LockoutEnd(u *identity.User[K]) (*time.Time, error) {
	if err := s.guard(u); err != nil {
		return nil, err
	}
	return u.LockoutEndUTC, nil
}

func (s *UserStore[K]) SetLockoutEnd(u *identity.User[K], end *time.Time) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.LockoutEndUTC = end
	return nil
}

func (s *UserStore[K]) AccessFailedCount(u *identity.User[K]) (int, error) {
	if err := s.guard(u); err != nil {
		return 0, err
	}
	return u.AccessFailedCount, nil
}

// IncrementAccessFailedCount bumps the count in memory and returns the new
// value. Concurrent increments through separate Update calls can overwrite
// each other; see the package comment.
func (s *UserStore[K]) IncrementAccessFailedCount(u *identity.User[K]) (int, error) {
	if err := s.guard(u); err != nil {
		return 0, err
	}
	u.AccessFailedCount++
	return u.AccessFailedCount, nil
}

// ResetAccessFailedCount clamps the count back to zero.
func (s *UserStore[K]) ResetAccessFailedCount(u *identity.User[K]) error {
	if err := s.guard(u); err != nil {
		return err
	}
	u.AccessFailedCount = 0
	return nil
}

func addClaim(claims []identity.Claim, claim identity.Claim) []identity.Claim {
	for _, c := range claims {
		if c.Type == claim.Type && c.Value == claim.Value {
			return claims
		}
	}
	return append(claims, claim)
}

func removeClaim(claims []identity.Claim, claim identity.Claim) []identity.Claim {
	kept := claims[:0]
	for _, c := range claims {
		if c.Type != claim.Type || c.Value != claim.Value {
			kept = append(kept, c)
		}
	}
	return kept
}
