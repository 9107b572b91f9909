// Package record defines the storage envelope shared by every collection in
// the distribution consoles, plus the collection registry that decides what
// each console role synchronizes.
package record

// Record is the universal unit of storage. Domain fields live in Payload and
// are opaque to the store and the sync engine; the envelope carries only the
// bookkeeping the merge policy needs.
type Record struct {
	ID         ID
	Collection string

	// Owner scopes the record to an employee or customer identity.
	// Empty for tenant-global collections.
	Owner string

	Payload map[string]any

	// CreatedAt / UpdatedAt are RFC 3339 UTC strings. They stay strings on
	// purpose: lexicographic order equals chronological order, and the merge
	// policy treats a missing pair as oldest possible via the empty string.
	CreatedAt string
	UpdatedAt string

	Deleted bool
	Synced  bool

	// SyncVersion counts local mutations. Diagnostics only; recency is
	// decided by timestamps.
	SyncVersion int64
}

// Recency returns the timestamp used for last-write-wins comparison:
// updatedAt, falling back to createdAt, falling back to "".
func (r Record) Recency() string {
	if r.UpdatedAt != "" {
		return r.UpdatedAt
	}
	return r.CreatedAt
}
