package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/pgvector/pgvector-go"
)

// appendLockKey is the pg_advisory_xact_lock key that serializes appenders.
const appendLockKey int64 = 0x66616365 // "face"

// IdentityRepository stores identities in the identities table. Append order
// is the id order: ids are assigned while the advisory lock is held.
type IdentityRepository struct {
	pool *Pool
	dim  int
}

// NewIdentityRepository creates a repository. dim 0 lets the first stored row decide.
func NewIdentityRepository(pool *Pool, dim int) *IdentityRepository {
	return &IdentityRepository{pool: pool, dim: dim}
}

// Close releases the underlying pool.
func (r *IdentityRepository) Close() error {
	return r.pool.Close()
}

// Load returns all identities in append order.
func (r *IdentityRepository) Load(ctx context.Context) ([]identity.Entry, error) {
	rows, err := r.pool.Query(ctx, "SELECT label, embedding FROM identities ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	entries := []identity.Entry{}
	for rows.Next() {
		var label string
		var vec pgvector.Vector
		if err := rows.Scan(&label, &vec); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		entries = append(entries, identity.Entry{Label: label, Embedding: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// AppendAll inserts entries in one transaction under a transaction-scoped
// advisory lock, so concurrent appenders never interleave their batches.
func (r *IdentityRepository) AppendAll(ctx context.Context, entries []identity.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", appendLockKey); err != nil {
		return fmt.Errorf("acquire append lock: %w", err)
	}

	dim, err := r.storedDim(ctx, tx)
	if err != nil {
		return err
	}
	if dim == 0 {
		dim = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if err := e.Validate(dim); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO identities (label, embedding, dim) VALUES ($1, $2, $3)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Label, pgvector.NewVector(e.Embedding), len(e.Embedding)); err != nil {
			return fmt.Errorf("insert identity %q: %w", e.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identities: %w", err)
	}
	return nil
}

// storedDim returns the configured dimension, or the one already in the table.
func (r *IdentityRepository) storedDim(ctx context.Context, tx *sql.Tx) (int, error) {
	var dim int
	err := tx.QueryRowContext(ctx, "SELECT dim FROM identities ORDER BY id LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return r.dim, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query stored dimension: %w", err)
	}
	if r.dim > 0 && dim != r.dim {
		return 0, fmt.Errorf("%w: table has %d, configured %d", identity.ErrDimensionMismatch, dim, r.dim)
	}
	return dim, nil
}
