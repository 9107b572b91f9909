// Package remote gives the consoles read access to the cloud document store.
// The engine never writes through this package: authoritative data is
// maintained by the admin system, and the sync direction is download-only.
package remote

import (
	"context"

	"github.com/avetikov/ledgersync/internal/record"
)

// Query narrows a collection fetch.
type Query struct {
	// Owner restricts the fetch to documents whose owner field equals the
	// acting identity. Empty means no owner filter (tenant-global
	// collections, and the privileged admin variant of scoped ones).
	Owner string
}

// Source fetches collections of documents scoped under a tenant.
type Source interface {
	// Fetch returns the current documents of one collection. Documents
	// marked deleted server-side are excluded at the query level.
	Fetch(ctx context.Context, tenantID, collection string, q Query) ([]record.Record, error)

	// FetchOne returns a single live document by its key, or
	// common.ErrNotFound.
	FetchOne(ctx context.Context, tenantID, collection string, id record.ID) (*record.Record, error)

	Close() error
}
