// Package storage keeps uploaded meal photos until they are purged.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys escaping the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store persists opaque blobs under a key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete is idempotent: removing a missing key succeeds.
	Delete(ctx context.Context, key string) error
}

// Options selects the backend for Open.
type Options struct {
	Bucket string
	Region string
	Dir    string
}

// Open returns an S3 store when a bucket is configured and a local
// directory store otherwise.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Bucket != "" {
		return NewS3(ctx, opts.Bucket, opts.Region)
	}
	return NewLocal(opts.Dir)
}
