package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/getkayan/kayan-mongo/codec"
	"github.com/getkayan/kayan-mongo/domain"
	"github.com/getkayan/kayan-mongo/identity"
	"github.com/getkayan/kayan-mongo/internal/logger"
)

// RoleStore persists roles keyed by K. It mirrors UserStore at a reduced
// surface and follows the same contracts: context-taking methods issue one
// request, everything else mutates the in-memory role until Update persists
// it.
type RoleStore[K comparable] struct {
	roles  domain.Collection
	mapper *codec.Mapper[K]
	log    *zap.Logger
	closed bool
}

// NewRoleStore builds a store over the default roles collection.
func NewRoleStore[K comparable](db domain.Database, mapper *codec.Mapper[K]) *RoleStore[K] {
	return NewRoleStoreIn(db, DefaultRolesCollection, mapper)
}

// NewRoleStoreIn builds a store over a named collection.
func NewRoleStoreIn[K comparable](db domain.Database, collection string, mapper *codec.Mapper[K]) *RoleStore[K] {
	return &RoleStore[K]{
		roles:  db.Collection(collection),
		mapper: mapper,
		log:    logger.Log,
	}
}

// Close marks the store disposed; every subsequent operation fails with
// ErrStoreClosed.
func (s *RoleStore[K]) Close() { s.closed = true }

func (s *RoleStore[K]) guard(r *identity.Role[K]) error {
	if s.closed {
		return ErrStoreClosed
	}
	if r == nil {
		return ErrNilRole
	}
	return nil
}

// Create inserts the role as one document, generating a key when the ID is
// zero.
func (s *RoleStore[K]) Create(ctx context.Context, r *identity.Role[K]) error {
	if err := s.guard(r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var zero K
	if r.ID == zero {
		r.ID = s.mapper.Keys().Generate()
	}

	doc, err := s.mapper.RoleToDocument(r)
	if err != nil {
		return err
	}
	if err := s.roles.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.log.Debug("role created", zap.Any("id", r.ID), zap.String("name", r.Name))
	return nil
}

// FindByID returns the role with the given key, or nil when none exists.
func (s *RoleStore[K]) FindByID(ctx context.Context, id K) (*identity.Role[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	filter, err := s.mapper.IDFilter(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, filter)
}

// FindByName returns the role whose normalized name matches exactly, or nil
// when none exists.
func (s *RoleStore[K]) FindByName(ctx context.Context, normalizedName string) (*identity.Role[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.findOne(ctx, bson.M{"normalizedName": normalizedName})
}

// Update replaces the whole document keyed by the role's ID (upsert).
func (s *RoleStore[K]) Update(ctx context.Context, r *identity.Role[K]) error {
	if err := s.guard(r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	filter, err := s.mapper.IDFilter(r.ID)
	if err != nil {
		return err
	}
	doc, err := s.mapper.RoleToDocument(r)
	if err != nil {
		return err
	}
	if err := s.roles.ReplaceOne(ctx, filter, doc); err != nil {
		return err
	}
	s.log.Debug("role updated", zap.Any("id", r.ID))
	return nil
}

// Delete removes the role's document by ID.
func (s *RoleStore[K]) Delete(ctx context.Context, r *identity.Role[K]) error {
	if err := s.guard(r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	filter, err := s.mapper.IDFilter(r.ID)
	if err != nil {
		return err
	}
	if err := s.roles.DeleteOne(ctx, filter); err != nil {
		return err
	}
	s.log.Debug("role deleted", zap.Any("id", r.ID))
	return nil
}

// Roles returns every role in the collection.
func (s *RoleStore[K]) Roles(ctx context.Context) ([]*identity.Role[K], error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	roles := make([]*identity.Role[K], 0, len(docs))
	for _, raw := range docs {
		r, err := s.mapper.RoleFromDocument(raw)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func (s *RoleStore[K]) findOne(ctx context.Context, filter bson.M) (*identity.Role[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.roles.FindOne(ctx, filter)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.mapper.RoleFromDocument(raw)
}

func (s *RoleStore[K]) Name(r *identity.Role[K]) (string, error) {
	if err := s.guard(r); err != nil {
		return "", err
	}
	return r.Name, nil
}

func (s *RoleStore[K]) SetName(r *identity.Role[K], name string) error {
	if err := s.guard(r); err != nil {
		return err
	}
	r.Name = name
	return nil
}

func (s *RoleStore[K]) NormalizedName(r *identity.Role[K]) (string, error) {
	if err := s.guard(r); err != nil {
		return "", err
	}
	return r.NormalizedName, nil
}

func (s *RoleStore[K]) SetNormalizedName(r *identity.Role[K], normalized string) error {
	if err := s.guard(r); err != nil {
		return err
	}
	r.NormalizedName = normalized
	return nil
}

// AddClaim attaches a claim to the in-memory role, suppressing duplicate
// (type, value) pairs.
func (s *RoleStore[K]) AddClaim(r *identity.Role[K], claim identity.Claim) error {
	if err := s.guard(r); err != nil {
		return err
	}
	r.Claims = addClaim(r.Claims, claim)
	return nil
}

// Claims returns the role's claims.
func (s *RoleStore[K]) Claims(r *identity.Role[K]) ([]identity.Claim, error) {
	if err := s.guard(r); err != nil {
		return nil, err
	}
	return r.Claims, nil
}

// RemoveClaim is not supported for roles.
func (s *RoleStore[K]) RemoveClaim(r *identity.Role[K], claim identity.Claim) error {
	if err := s.guard(r); err != nil {
		return err
	}
	return ErrNotImplemented
}
