package storage

import (
	"context"
)

// Backend abstracts image storage. Implementations handle the local
// filesystem or S3-compatible object storage.
type Backend interface {
	// Store persists image bytes under the given namespace (e.g.
	// "projects") and returns the canonical stored address: a
	// root-relative "uploads/..." path for local storage, a public URL
	// for remote.
	Store(ctx context.Context, namespace string, data []byte) (addr string, err error)

	// Delete removes the asset at addr. Deletion is idempotent: an absent
	// asset returns (false, nil). An address that cannot be resolved to a
	// managed location is skipped, never deleted.
	Delete(ctx context.Context, addr string) (bool, error)

	// List returns the stored address of every asset under the namespace,
	// recursively. An empty namespace lists the whole managed tree.
	List(ctx context.Context, namespace string) ([]string, error)
}
