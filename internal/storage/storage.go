// Package storage persists the single "last known update" marker. Every store
// treats a missing marker as "no known update", never as an error.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const markerKey = "last_update"

// Backend names accepted by Open.
const (
	BackendFile      = "file"
	BackendDatastore = "datastore"
	BackendRedis     = "redis"
)

// MarkerStore loads and saves the last seen update marker.
type MarkerStore interface {
	Load(ctx context.Context) (marker string, ok bool, err error)
	Save(ctx context.Context, marker string) error
	Close() error
}

// Options selects and configures a MarkerStore.
type Options struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// Open returns the store named by opts.Backend.
func Open(opts Options) (MarkerStore, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileStore(opts.Path), nil
	case BackendDatastore:
		return NewDatastoreStore(opts.Path)
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis marker store needs REDIS_ADDR")
		}
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		return NewRedisStore(client, opts.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown marker backend %q", opts.Backend)
}
