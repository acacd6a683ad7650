// Package persistence turns a configuration string into a live MongoDB
// handle and adapts it to the domain storage contracts.
//
// The input string is either a native connection URL (mongodb:// or
// mongodb+srv://) or a symbolic name resolved through process configuration.
// The connection is opened once per Context and shared by every store built
// on it; it is only torn down by Close.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/getkayan/kayan-mongo/config"
	"github.com/getkayan/kayan-mongo/domain"
	"github.com/getkayan/kayan-mongo/internal/logger"
)

var (
	// ErrNoDatabase reports a connection URL without a database name.
	ErrNoDatabase = errors.New("persistence: no database name in connection string")

	// ErrUnresolved reports a symbolic connection-string name that process
	// configuration does not know.
	ErrUnresolved = errors.New("persistence: cannot resolve connection string name")

	// ErrClosed reports use of a Context after Close.
	ErrClosed = errors.New("persistence: context closed")
)

// Context owns the client and database handle shared by the stores.
type Context struct {
	client *mongo.Client
	db     *mongo.Database
	closed bool
}

// NewContext resolves nameOrURL, opens a client for it and verifies the
// connection. The database name is taken from the URL path.
func NewContext(ctx context.Context, nameOrURL string) (*Context, error) {
	rawURL, err := resolve(nameOrURL)
	if err != nil {
		return nil, err
	}

	dbName, err := databaseName(rawURL)
	if err != nil {
		return nil, err
	}

	opener, err := lookupOpener(scheme(rawURL))
	if err != nil {
		return nil, err
	}

	client, err := opener(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}

	logger.Log.Info("connected to database", zap.String("database", dbName))

	return &Context{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Database returns the handle the stores operate on. After Close it returns
// a handle whose operations all fail with ErrClosed.
func (c *Context) Database() domain.Database {
	if c.closed {
		return closedDatabase{}
	}
	return &mongoDatabase{db: c.db}
}

// Mongo exposes the underlying driver database for callers that need
// operations outside the domain contracts (index creation, admin commands).
// It returns nil after Close.
func (c *Context) Mongo() *mongo.Database {
	if c.closed {
		return nil
	}
	return c.db
}

// Close disconnects the client. Further use of the Context fails.
func (c *Context) Close(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return c.client.Disconnect(ctx)
}

// resolve maps a symbolic name to its configured URL; URLs with a registered
// scheme pass through unchanged.
func resolve(nameOrURL string) (string, error) {
	if known(scheme(nameOrURL)) {
		return nameOrURL, nil
	}

	rawURL, ok := config.ConnectionString(nameOrURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnresolved, nameOrURL)
	}
	if !known(scheme(rawURL)) {
		return "", fmt.Errorf("%w: %q resolves to %q", ErrUnresolved, nameOrURL, rawURL)
	}
	return rawURL, nil
}

// databaseName extracts the database from the URL path. Parsed by hand
// because multi-host URLs (host1:27017,host2:27017) are not valid net/url
// authorities.
func databaseName(rawURL string) (string, error) {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", fmt.Errorf("%w: %q", ErrNoDatabase, rawURL)
	}
	name := rest[slash+1:]
	if q := strings.IndexByte(name, '?'); q >= 0 {
		name = name[:q]
	}
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrNoDatabase, rawURL)
	}
	return name, nil
}

func scheme(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(rawURL[:i])
}

func known(s string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := openers[s]
	return ok
}
