// Package postgres provides the PostgreSQL-backed supply store. Each Update
// runs in one transaction that locks the touched rows, so validation reads
// and the commit form a single atomic unit.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"mintledger/internal/supply/models"
	id "mintledger/pkg/domain"
)

// Store persists supply records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE supply_records (
//	    token_id   TEXT PRIMARY KEY,
//	    max_supply NUMERIC(78,0) NOT NULL,
//	    minted     NUMERIC(78,0) NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// NUMERIC(78,0) covers the full 256-bit range; values travel as decimal
// strings and are parsed through uint256.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed supply store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, tokenID id.TokenID) (*models.SupplyRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT token_id, max_supply::text, minted::text FROM supply_records WHERE token_id = $1`,
		string(tokenID),
	), tokenID)
	if err != nil {
		return nil, fmt.Errorf("get supply record: %w", err)
	}
	return rec, nil
}

func (s *Store) GetBatch(ctx context.Context, tokenIDs []id.TokenID) ([]*models.SupplyRecord, error) {
	out := make([]*models.SupplyRecord, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		rec, err := s.Get(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// Update locks the touched rows with SELECT ... FOR UPDATE, runs fn on the
// loaded records, and upserts them all before committing. Rows are locked in
// sorted id order to avoid lock-order deadlocks between concurrent batches.
func (s *Store) Update(ctx context.Context, tokenIDs []id.TokenID, fn func(recs map[id.TokenID]*models.SupplyRecord) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supply update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	unique := dedupeSorted(tokenIDs)
	recs := make(map[id.TokenID]*models.SupplyRecord, len(unique))
	for _, tokenID := range unique {
		rec, scanErr := scanRecord(tx.QueryRowContext(ctx,
			`SELECT token_id, max_supply::text, minted::text FROM supply_records
			 WHERE token_id = $1 FOR UPDATE`,
			string(tokenID),
		), tokenID)
		if scanErr != nil {
			err = fmt.Errorf("lock supply record: %w", scanErr)
			return err
		}
		recs[tokenID] = rec
	}

	if err = fn(recs); err != nil {
		return err
	}

	for _, tokenID := range unique {
		rec := recs[tokenID]
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO supply_records (token_id, max_supply, minted)
			 VALUES ($1, $2::numeric, $3::numeric)
			 ON CONFLICT (token_id) DO UPDATE
			 SET max_supply = EXCLUDED.max_supply,
			     minted     = EXCLUDED.minted,
			     updated_at = now()`,
			string(tokenID), rec.MaxSupply.Dec(), rec.Minted.Dec(),
		); execErr != nil {
			err = fmt.Errorf("upsert supply record: %w", execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit supply update: %w", err)
	}
	return nil
}

func scanRecord(row *sql.Row, tokenID id.TokenID) (*models.SupplyRecord, error) {
	var (
		rawID     string
		rawMax    string
		rawMinted string
	)
	err := row.Scan(&rawID, &rawMax, &rawMinted)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewSupplyRecord(tokenID), nil
	}
	if err != nil {
		return nil, err
	}

	maxSupply, err := uint256.FromDecimal(rawMax)
	if err != nil {
		return nil, fmt.Errorf("parse max_supply %q: %w", rawMax, err)
	}
	minted, err := uint256.FromDecimal(rawMinted)
	if err != nil {
		return nil, fmt.Errorf("parse minted %q: %w", rawMinted, err)
	}

	return &models.SupplyRecord{
		ID:        id.TokenID(rawID),
		MaxSupply: maxSupply,
		Minted:    minted,
	}, nil
}

func dedupeSorted(tokenIDs []id.TokenID) []id.TokenID {
	seen := make(map[id.TokenID]struct{}, len(tokenIDs))
	out := make([]id.TokenID, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if _, dup := seen[tokenID]; dup {
			continue
		}
		seen[tokenID] = struct{}{}
		out = append(out, tokenID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
