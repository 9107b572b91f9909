// Package common defines shared sentinel errors and small helpers used
// across the ledgersync consoles. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorageFault marks a local store operation that failed even after
	// the one-shot reopen retry. Wrapped errors carry the underlying cause.
	ErrStorageFault = errors.New("storage fault")

	// ErrRemoteFetch marks a failed fetch against the cloud document store
	// for a single collection.
	ErrRemoteFetch = errors.New("remote fetch failed")

	// Sync preconditions and guards.
	ErrSyncBusy        = errors.New("sync already in progress")
	ErrMissingTenant   = errors.New("tenant id is required")
	ErrMissingIdentity = errors.New("identity is required for scoped collections")

	// Auth errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrConfiguration     = errors.New("identity record is missing auth configuration")
	ErrInvalidToken      = errors.New("invalid token")
)
