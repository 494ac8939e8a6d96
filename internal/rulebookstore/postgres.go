// Package rulebookstore persists rulebook snapshots to PostgreSQL via pgx, so a rulebook built by one process can be replayed or
// audited by another.
package rulebookstore

import (
	"context"
	"fmt"
	"log"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/moment-algebra/internal/fingerprint"
	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/pkg/models"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens and pings a pool against connStr.
func Connect(connStr string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("rulebookstore: unable to connect: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("rulebookstore: ping failed: %w", err)
	}
	log.Println("rulebookstore: connected to PostgreSQL")
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS rulebook_snapshot (
	id           BIGSERIAL PRIMARY KEY,
	fingerprint  TEXT NOT NULL UNIQUE,
	alphabet     INT NOT NULL,
	conjugation  TEXT NOT NULL,
	hermitian    BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rulebook_rule (
	snapshot_id  BIGINT NOT NULL REFERENCES rulebook_snapshot(id) ON DELETE CASCADE,
	lhs_raw      INT[] NOT NULL,
	rhs_raw      INT[],
	rhs_sign     TEXT NOT NULL,
	rhs_zero     BOOLEAN NOT NULL
);
`

// InitSchema creates the snapshot/rule tables if they do not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("rulebookstore: failed to initialize schema: %w", err)
	}
	return nil
}

// snapshotFingerprint computes the content fingerprint of rb's current rule
// set: one digest per rule, chained through fingerprint.Rulebook, base58
// encoded. Two snapshots of the same rule set (regardless of insertion
// order, since Rules() is hash-ordered) always produce the same fingerprint.
func snapshotFingerprint(rb *rewrite.Rulebook) string {
	rules := rb.Rules()
	digests := make([]chainhash.Hash, len(rules))
	for i, r := range rules {
		digests[i] = fingerprint.Rule(r.LHS.Raw, r.RHS.Raw, int8(r.RHS.Sign), r.RHS.Zero)
	}
	return fingerprint.Encode(fingerprint.Rulebook(digests))
}

// SaveSnapshot persists every rule currently in rb under a fresh snapshot
// row, returning the snapshot id. The snapshot's content fingerprint doubles
// as an idempotency token: saving the same rule set twice returns the
// existing row instead of inserting a duplicate.
func (s *Store) SaveSnapshot(ctx context.Context, rb *rewrite.Rulebook) (int64, string, error) {
	fp := snapshotFingerprint(rb)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existingID int64
	err = tx.QueryRow(ctx, `SELECT id FROM rulebook_snapshot WHERE fingerprint = $1`, fp).Scan(&existingID)
	if err == nil {
		return existingID, fp, nil
	}

	var snapshotID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO rulebook_snapshot (fingerprint, alphabet, conjugation, hermitian) VALUES ($1, $2, $3, $4) RETURNING id`,
		fp, rb.OperatorCount(), conjugationName(rb.ConjugationMode()), true,
	).Scan(&snapshotID)
	if err != nil {
		return 0, "", fmt.Errorf("rulebookstore: failed to insert snapshot: %w", err)
	}

	insertRule := `INSERT INTO rulebook_rule (snapshot_id, lhs_raw, rhs_raw, rhs_sign, rhs_zero) VALUES ($1, $2, $3, $4, $5)`
	for _, r := range rb.Rules() {
		var rhsRaw []int32
		if !r.RHS.Zero {
			rhsRaw = toInt32(r.RHS.Raw)
		}
		if _, err := tx.Exec(ctx, insertRule, snapshotID, toInt32(r.LHS.Raw), rhsRaw, r.RHS.Sign.String(), r.RHS.Zero); err != nil {
			return 0, "", fmt.Errorf("rulebookstore: failed to insert rule: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, "", err
	}
	return snapshotID, fp, nil
}

// RuleRow is one rule as read back from a snapshot, before being rebuilt
// into a rewrite.Rule against a live hasher.
type RuleRow struct {
	LHSRaw  []int
	RHSRaw  []int
	RHSSign string
	RHSZero bool
}

// LoadSnapshot reads back every rule row belonging to snapshotID. The query
// does not sort, so rows come back in whatever order PostgreSQL returns them.
func (s *Store) LoadSnapshot(ctx context.Context, snapshotID int64) ([]RuleRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lhs_raw, rhs_raw, rhs_sign, rhs_zero FROM rulebook_rule WHERE snapshot_id = $1`,
		snapshotID)
	if err != nil {
		return nil, fmt.Errorf("rulebookstore: failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []RuleRow
	for rows.Next() {
		var lhs, rhs []int32
		var sign string
		var zero bool
		if err := rows.Scan(&lhs, &rhs, &sign, &zero); err != nil {
			return nil, err
		}
		out = append(out, RuleRow{LHSRaw: toInt(lhs), RHSRaw: toInt(rhs), RHSSign: sign, RHSZero: zero})
	}
	return out, nil
}

func conjugationName(m rewrite.ConjugationMode) string {
	switch m {
	case rewrite.Bunched:
		return "bunched"
	case rewrite.Interleaved:
		return "interleaved"
	default:
		return "self_adjoint"
	}
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func toInt(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// ParseSign maps a persisted sign string back to a models.SignTag.
func ParseSign(s string) models.SignTag {
	switch s {
	case "+i":
		return models.SignPlusI
	case "-1":
		return models.SignMinusOne
	case "-i":
		return models.SignMinusI
	default:
		return models.SignPlusOne
	}
}
