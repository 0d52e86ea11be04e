// Package blob stores the original uploaded bytes, keyed by document
// fingerprint, so content can be re-extracted or re-indexed later.
package blob

import (
	"context"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
