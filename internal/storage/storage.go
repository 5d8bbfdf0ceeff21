// Package storage provides private object storage for rendered
// documents. Uploads return an opaque secure reference URL; stored
// assets are never publicly listable.
package storage

import "context"

// Store is the narrow upload surface the services depend on.
type Store interface {
	// Upload persists data under key and returns a secure reference URL.
	Upload(ctx context.Context, key string, data []byte) (string, error)
}
