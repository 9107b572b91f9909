// Package syncer reconciles the local store with the cloud document store.
//
// The engine is download-only and merges record-by-record: a remote copy
// replaces the local one only when its timestamp is strictly newer
// (last-write-wins, ties favor the local copy), records absent locally are
// inserted verbatim, and identity-scoped collections additionally purge
// local rows the owner's remote set no longer contains. One collection's
// failure never aborts the run; it is reported and the remaining
// collections proceed.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/logging"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/remote"
	"github.com/avetikov/ledgersync/internal/session"
	"github.com/avetikov/ledgersync/internal/store"
)

// Engine orchestrates synchronization for one console.
type Engine struct {
	store  *store.Store
	source remote.Source
	log    logging.Logger

	mu         sync.Mutex
	inFlight   bool
	lastSync   time.Time
	lastReport *Report
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	InFlight   bool
	LastSync   time.Time
	LastReport *Report
}

// New constructs an Engine over the given local store and remote source.
func New(s *store.Store, source remote.Source, log logging.Logger) *Engine {
	return &Engine{store: s, source: source, log: log}
}

// SyncNow runs one full download-and-merge pass for every collection the
// session's role syncs. At most one run executes at a time; a call while a
// run is in flight returns ErrSyncBusy immediately instead of queueing.
//
// Collection fetch or merge failures are collected into the report rather
// than aborting the run. Only precondition violations (missing tenant, or
// missing identity for a scoped, unprivileged session) fail the call before
// any collection is touched.
func (e *Engine) SyncNow(ctx context.Context, sess session.Context) (*Report, error) {
	if sess.TenantID == "" {
		return nil, common.ErrMissingTenant
	}

	collections := record.CollectionsFor(sess.Role)
	if !sess.Privileged() && sess.IdentityID == "" {
		for _, col := range collections {
			if col.Scoped() {
				return nil, common.ErrMissingIdentity
			}
		}
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, common.ErrSyncBusy
	}
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	report := &Report{Timestamp: time.Now()}
	e.log.Info(ctx, "sync started", "tenant", sess.TenantID, "role", sess.Role)

	for _, col := range collections {
		result, err := e.syncCollection(ctx, sess, col)
		if err != nil {
			e.log.Error(ctx, "collection sync failed", "collection", col.Name, "error", err)
			report.Errors = append(report.Errors, CollectionError{Collection: col.Name, Err: err})
			continue
		}
		report.PerCollection = append(report.PerCollection, result)
		e.log.Debug(ctx, "collection synced", "collection", col.Name,
			"inserted", result.Inserted, "updated", result.Updated,
			"skipped", result.Skipped, "purged", result.Purged)
	}

	now := time.Now()
	if err := e.store.SetMeta(ctx, store.MetaLastSyncTime, common.NowStamp()); err != nil {
		e.log.Warn(ctx, "failed to persist last sync time", "error", err)
	}

	report.Duration = time.Since(report.Timestamp)
	e.mu.Lock()
	e.lastSync = now
	e.lastReport = report
	e.mu.Unlock()

	e.log.Info(ctx, "sync finished",
		"collections", len(report.PerCollection),
		"errors", len(report.Errors),
		"duration", report.Duration)
	return report, nil
}

// syncCollection fetches one collection's remote batch and merges it.
func (e *Engine) syncCollection(ctx context.Context, sess session.Context, col record.CollectionSpec) (CollectionResult, error) {
	result := CollectionResult{Name: col.Name}

	// The privileged role sees scoped collections in full; everyone else
	// fetches only their own rows.
	var q remote.Query
	scopedToSelf := col.Scoped() && !sess.Privileged()
	if scopedToSelf {
		q.Owner = sess.IdentityID
	}

	// No per-fetch timeout: a hung source stalls this collection's step.
	// Known limitation, callers control the deadline through ctx if needed.
	batch, err := e.source.Fetch(ctx, sess.TenantID, col.Name, q)
	if err != nil {
		return result, fmt.Errorf("%w: %w", common.ErrRemoteFetch, err)
	}

	remoteKeys := make(map[string]struct{}, len(batch))
	for _, r := range batch {
		// The fetch criterion already excludes deleted documents; re-check
		// in case the source cannot filter server-side.
		if r.Deleted {
			continue
		}
		// Structurally impossible given the query filter, but a mis-owned
		// document must never overwrite another identity's data.
		if scopedToSelf && r.Owner != sess.IdentityID {
			e.log.Warn(ctx, "dropping mis-owned remote record",
				"collection", col.Name, "id", r.ID.String(), "owner", r.Owner)
			continue
		}

		remoteKeys[r.ID.Key()] = struct{}{}

		local, err := e.store.GetByID(ctx, col.Name, r.ID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			if err := e.store.ApplyRemote(ctx, r); err != nil {
				return result, err
			}
			result.Inserted++
		case err != nil:
			return result, err
		default:
			// Last-write-wins on the ISO timestamp rendering; exact ties
			// keep the local copy to avoid churn.
			if r.Recency() > local.Recency() {
				if err := e.store.ReplaceRemoteFor(ctx, *local, r); err != nil {
					return result, err
				}
				result.Updated++
			} else {
				result.Skipped++
			}
		}
	}

	// Deletion reconciliation. Only rows owned by the acting identity may
	// be purged: absence from a filtered fetch proves nothing about other
	// owners' rows, and tenant-global collections never purge at all.
	if scopedToSelf {
		locals, err := e.store.GetAll(ctx, col.Name, true)
		if err != nil {
			return result, err
		}
		for _, l := range locals {
			if l.Owner != sess.IdentityID {
				continue
			}
			if _, ok := remoteKeys[l.ID.Key()]; ok {
				continue
			}
			if err := e.store.Purge(ctx, col.Name, l.ID); err != nil {
				return result, err
			}
			result.Purged++
		}
	}

	return result, nil
}

// Push is retained for interface symmetry with the authoritative admin
// system. The consoles are download-only: it never issues a write against
// the remote source.
func (e *Engine) Push(ctx context.Context) error {
	e.log.Debug(ctx, "push requested on a download-only engine, ignoring")
	return nil
}

// Status returns a snapshot of the engine state for status displays.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{InFlight: e.inFlight, LastSync: e.lastSync, LastReport: e.lastReport}
}

// AutoSync triggers SyncNow on a fixed interval until ctx is cancelled.
// Runs that land while a sync is already in flight are skipped.
func (e *Engine) AutoSync(ctx context.Context, sess session.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.SyncNow(ctx, sess); err != nil && !errors.Is(err, common.ErrSyncBusy) {
				e.log.Error(ctx, "auto-sync failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
