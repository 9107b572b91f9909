package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/record"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresSource reads the cloud document store: one documents table holding
// every tenant's collections, with the domain payload as JSONB.
type PostgresSource struct {
	db *sql.DB
}

// OpenPostgres connects to the cloud document store.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote source: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach remote source: %w", err)
	}
	return &PostgresSource{db: db}, nil
}

func (s *PostgresSource) Close() error { return s.db.Close() }

const documentColumns = `id, owner, payload, created_at, updated_at, deleted, sync_version`

func scanDocument(scan func(dest ...any) error, collection string) (record.Record, error) {
	var (
		r       record.Record
		rawID   string
		payload []byte
	)
	err := scan(&rawID, &r.Owner, &payload, &r.CreatedAt, &r.UpdatedAt, &r.Deleted, &r.SyncVersion)
	if err != nil {
		return record.Record{}, err
	}
	r.ID = record.NewID(rawID)
	r.Collection = collection
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return record.Record{}, fmt.Errorf("corrupt document payload %s/%s: %w", collection, rawID, err)
		}
	}
	return r, nil
}

// Fetch returns the live documents of one collection under the tenant,
// optionally narrowed to one owner. Deleted documents are filtered by the
// query itself, per the fetch criterion in the sync contract.
func (s *PostgresSource) Fetch(ctx context.Context, tenantID, collection string, q Query) ([]record.Record, error) {
	query := `SELECT ` + documentColumns + `
	          FROM documents
	          WHERE tenant_id = $1 AND collection = $2 AND deleted = FALSE`
	args := []any{tenantID, collection}
	if q.Owner != "" {
		query += ` AND owner = $3`
		args = append(args, q.Owner)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var result []record.Record
	for rows.Next() {
		r, err := scanDocument(rows.Scan, collection)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", collection, err)
	}
	return result, nil
}

// FetchOne returns a single live document by key.
func (s *PostgresSource) FetchOne(ctx context.Context, tenantID, collection string, id record.ID) (*record.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE tenant_id = $1 AND collection = $2 AND id = $3 AND deleted = FALSE`,
		tenantID, collection, id.String())

	r, err := scanDocument(row.Scan, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return &r, nil
}
