// Package store implements the local, offline store backing a console:
// one SQLite file holding every collection's records plus a small metadata
// table. Reads are soft-delete aware; every operation transparently survives
// one loss of the underlying handle by reopening and retrying once.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/dbx"
	"github.com/avetikov/ledgersync/internal/logging"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/store/migrations"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

// Metadata keys maintained by the sync engine and the session layer.
const (
	MetaLastSyncTime = "last_sync_time"
)

// Store is the local persistence layer. Construct with Open, release with
// Close. Safe for use from multiple goroutines.
type Store struct {
	mu  sync.Mutex
	dsn string
	db  *sql.DB
	log logging.Logger
}

// Open opens (creating if needed) the SQLite database at dsn and applies
// any pending embedded migrations.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	s := &Store{dsn: dsn, log: log}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.handleLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle. The store reopens lazily
// if used again afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// handleLocked returns the live handle, opening and migrating on demand.
// Caller must hold s.mu.
func (s *Store) handleLocked(ctx context.Context) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	// SQLite allows one writer; serializing through a single connection
	// avoids SQLITE_BUSY under concurrent readers.
	db.SetMaxOpenConns(1)
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}
	s.db = db
	return db, nil
}

func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handleLocked(ctx)
}

// invalidate drops the current handle so the next use reopens it.
func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}

// run executes op against the store with the reinit-once contract: a failed
// operation invalidates the handle and is retried exactly one more time on a
// freshly opened database; a second failure surfaces as ErrStorageFault.
// Domain errors (ErrNotFound) pass through without triggering a reopen.
func (s *Store) run(ctx context.Context, op func(ctx context.Context, db *sql.DB) error) error {
	reopened := false
	b := retry.WithMaxRetries(1, retry.NewConstant(10*time.Millisecond))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		db, err := s.handle(ctx)
		if err != nil {
			if reopened {
				return err
			}
			reopened = true
			return retry.RetryableError(err)
		}
		if err := op(ctx, db); err != nil {
			if errors.Is(err, common.ErrNotFound) || errors.Is(err, context.Canceled) {
				return err
			}
			if reopened {
				return err
			}
			reopened = true
			s.invalidate()
			s.log.Warn(ctx, "local store operation failed, reopening", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", common.ErrStorageFault, err)
	}
	return err
}

const recordColumns = `collection, id, id_num, owner, payload, created_at, updated_at, deleted, synced, sync_version`

func scanRecord(scan func(dest ...any) error) (record.Record, error) {
	var (
		r       record.Record
		rawID   string
		idNum   sql.NullInt64
		payload string
	)
	err := scan(&r.Collection, &rawID, &idNum, &r.Owner, &payload,
		&r.CreatedAt, &r.UpdatedAt, &r.Deleted, &r.Synced, &r.SyncVersion)
	if err != nil {
		return record.Record{}, err
	}
	r.ID = record.NewID(rawID)
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
			return record.Record{}, fmt.Errorf("corrupt payload for %s/%s: %w", r.Collection, rawID, err)
		}
	}
	return r, nil
}

func marshalPayload(p map[string]any) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(b), nil
}

func idNumArg(id record.ID) any {
	if n, ok := id.Numeric(); ok {
		return n
	}
	return nil
}

// GetAll returns all records of a collection. Soft-deleted rows are filtered
// out unless includeDeleted is set. Ordering is unspecified.
func (s *Store) GetAll(ctx context.Context, collection string, includeDeleted bool) ([]record.Record, error) {
	var result []record.Record
	err := s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		query := `SELECT ` + recordColumns + ` FROM records WHERE collection = ?`
		if !includeDeleted {
			query += ` AND deleted = 0`
		}
		rows, err := db.QueryContext(ctx, query, collection)
		if err != nil {
			return fmt.Errorf("failed to select records: %w", err)
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			r, err := scanRecord(rows.Scan)
			if err != nil {
				return err
			}
			result = append(result, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID looks a record up by identifier, probing the literal rendering
// first and falling back to the normalized numeric form. Soft-deleted rows
// are returned; callers that need live rows check Deleted themselves.
func (s *Store) GetByID(ctx context.Context, collection string, id record.ID) (*record.Record, error) {
	var out *record.Record
	err := s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		r, err := getByID(ctx, db, collection, id)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getByID(ctx context.Context, db dbx.DBTX, collection string, id record.ID) (*record.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection = ? AND id = ?`,
		collection, id.String())
	r, err := scanRecord(row.Scan)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}

	// Literal miss: a locally autoincremented row may carry the numeric
	// rendering of a cloud string key. Probe the numeric shadow column.
	if n, ok := id.Numeric(); ok {
		row = db.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM records WHERE collection = ? AND id_num = ?`,
			collection, n)
		r, err = scanRecord(row.Scan)
		if err == nil {
			return &r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to select record: %w", err)
		}
	}
	return nil, common.ErrNotFound
}

// Insert creates a record with a fresh numeric surrogate key and stamps the
// bookkeeping fields: createdAt/updatedAt now, synced false, syncVersion 1.
func (s *Store) Insert(ctx context.Context, collection string, payload map[string]any, owner string) (record.ID, error) {
	var id record.ID
	err := s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var next int64
			err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(id_num), 0) + 1 FROM records WHERE collection = ?`,
				collection).Scan(&next)
			if err != nil {
				return fmt.Errorf("failed to allocate id: %w", err)
			}
			id = record.NumericID(next)
			return insertRow(ctx, tx, record.Record{
				ID:         id,
				Collection: collection,
				Owner:      owner,
				Payload:    payload,
			})
		})
	})
	if err != nil {
		return record.ID{}, err
	}
	return id, nil
}

// InsertKeyed creates a record under a caller-provided document key (UUIDs
// for externally keyed collections), with the same bookkeeping stamping as
// Insert.
func (s *Store) InsertKeyed(ctx context.Context, collection string, id record.ID, payload map[string]any, owner string) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return insertRow(ctx, db, record.Record{
			ID:         id,
			Collection: collection,
			Owner:      owner,
			Payload:    payload,
		})
	})
}

func insertRow(ctx context.Context, db dbx.DBTX, r record.Record) error {
	payload, err := marshalPayload(r.Payload)
	if err != nil {
		return err
	}
	now := common.NowStamp()
	_, err = db.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 1)`,
		r.Collection, r.ID.String(), idNumArg(r.ID), r.Owner, payload, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Replace upserts a record as a local mutation: updatedAt is stamped now,
// syncVersion is bumped past the stored one, and synced is cleared. The
// remote-merge path uses ApplyRemote instead.
func (s *Store) Replace(ctx context.Context, r record.Record) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			payload, err := marshalPayload(r.Payload)
			if err != nil {
				return err
			}
			now := common.NowStamp()

			existing, err := getByID(ctx, tx, r.Collection, r.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}

			if existing == nil {
				created := r.CreatedAt
				if created == "" {
					created = now
				}
				_, err = tx.ExecContext(ctx, `
					INSERT INTO records (`+recordColumns+`)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 1)`,
					r.Collection, r.ID.String(), idNumArg(r.ID), r.Owner, payload,
					created, now, r.Deleted)
				if err != nil {
					return fmt.Errorf("failed to insert record: %w", err)
				}
				return nil
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE records
				SET owner = ?, payload = ?, updated_at = ?, deleted = ?,
				    synced = 0, sync_version = sync_version + 1
				WHERE collection = ? AND id = ?`,
				r.Owner, payload, now, r.Deleted,
				existing.Collection, existing.ID.String())
			if err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}
			return nil
		})
	})
}

// ApplyRemote upserts the remote copy of a record verbatim: timestamps and
// syncVersion come from the remote side and synced is set true. Used only by
// the sync engine after the merge policy decided the remote copy wins.
func (s *Store) ApplyRemote(ctx context.Context, r record.Record) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		payload, err := marshalPayload(r.Payload)
		if err != nil {
			return err
		}
		version := r.SyncVersion
		if version < 1 {
			version = 1
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
			ON CONFLICT (collection, id) DO UPDATE SET
				id_num = excluded.id_num,
				owner = excluded.owner,
				payload = excluded.payload,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				deleted = excluded.deleted,
				synced = 1,
				sync_version = excluded.sync_version`,
			r.Collection, r.ID.String(), idNumArg(r.ID), r.Owner, payload,
			r.CreatedAt, r.UpdatedAt, r.Deleted, version)
		if err != nil {
			return fmt.Errorf("failed to apply remote record: %w", err)
		}
		return nil
	})
}

// ReplaceRemoteFor overwrites the local row matched by local (which may carry
// a different id rendering than the remote copy) with the remote record. The
// old row is removed inside the same transaction when the key rendering
// changed, so id normalization never leaves both renderings behind.
func (s *Store) ReplaceRemoteFor(ctx context.Context, local record.Record, remote record.Record) error {
	if local.ID.String() == remote.ID.String() {
		return s.ApplyRemote(ctx, remote)
	}
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE collection = ? AND id = ?`,
				local.Collection, local.ID.String()); err != nil {
				return fmt.Errorf("failed to drop stale rendering: %w", err)
			}
			payload, err := marshalPayload(remote.Payload)
			if err != nil {
				return err
			}
			version := remote.SyncVersion
			if version < 1 {
				version = 1
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO records (`+recordColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
				remote.Collection, remote.ID.String(), idNumArg(remote.ID), remote.Owner,
				payload, remote.CreatedAt, remote.UpdatedAt, remote.Deleted, version)
			if err != nil {
				return fmt.Errorf("failed to apply remote record: %w", err)
			}
			return nil
		})
	})
}

// SoftDelete marks a record deleted without removing the row. Bookkeeping is
// stamped like any other local mutation.
func (s *Store) SoftDelete(ctx context.Context, collection string, id record.ID) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			UPDATE records
			SET deleted = 1, updated_at = ?, synced = 0, sync_version = sync_version + 1
			WHERE collection = ? AND id = ? AND deleted = 0`,
			common.NowStamp(), collection, id.String())
		if err != nil {
			return fmt.Errorf("failed to soft-delete record: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		if n == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

// Purge physically removes a row. Only the sync engine calls this, under the
// ownership-safety rule: a row may be purged only once its absence from the
// owner's remote set has been confirmed.
func (s *Store) Purge(ctx context.Context, collection string, id record.ID) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND id = ?`,
			collection, id.String())
		if err != nil {
			return fmt.Errorf("failed to purge record: %w", err)
		}
		return nil
	})
}

// GetMeta reads a metadata value, returning ErrNotFound for absent keys.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		err := db.QueryRowContext(ctx,
			`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get metadata[%s]: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMeta writes a metadata value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	return s.run(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key, value)
		if err != nil {
			return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
		}
		return nil
	})
}
