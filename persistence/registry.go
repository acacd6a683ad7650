package persistence

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Opener is an alias for a function that opens a client for a connection URL.
type Opener = func(ctx context.Context, url string) (*mongo.Client, error)

var (
	registryMu sync.RWMutex
	openers    = make(map[string]Opener)
)

func init() {
	Register("mongodb", openClient)
	Register("mongodb+srv", openClient)
}

// Register adds a new connection opener for a URL scheme. Custom openers can
// inject client options (TLS, auth mechanisms, server API versions).
func Register(scheme string, opener Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[scheme] = opener
}

func lookupOpener(scheme string) (Opener, error) {
	registryMu.RLock()
	opener, ok := openers[scheme]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("persistence: unknown connection scheme %q", scheme)
	}
	return opener, nil
}

func openClient(ctx context.Context, url string) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(url))
}
