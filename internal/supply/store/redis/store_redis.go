// Package redis provides the Redis-backed supply store. Updates run under
// WATCH/MULTI optimistic transactions: the touched keys are watched while fn
// validates against the loaded records, and the write pipeline aborts if any
// watched key changed, retrying the whole unit.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"

	"mintledger/internal/supply/models"
	id "mintledger/pkg/domain"
)

const (
	// Key layout: one hash per token id with max_supply / minted fields.
	recordKeyPrefix = "supply:record:"

	// maxTxRetries bounds optimistic retries under contention.
	maxTxRetries = 16
)

var errTooMuchContention = errors.New("supply update aborted after repeated watch conflicts")

// Store persists supply records in Redis.
type Store struct {
	client *redis.Client
}

// New constructs a Redis-backed supply store.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func recordKey(tokenID id.TokenID) string {
	return recordKeyPrefix + string(tokenID)
}

func (s *Store) Get(ctx context.Context, tokenID id.TokenID) (*models.SupplyRecord, error) {
	return loadRecord(ctx, s.client, tokenID)
}

func (s *Store) GetBatch(ctx context.Context, tokenIDs []id.TokenID) ([]*models.SupplyRecord, error) {
	out := make([]*models.SupplyRecord, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		rec, err := loadRecord(ctx, s.client, tokenID)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// Update watches the touched keys, loads current records, runs fn, and
// commits every record in one MULTI/EXEC pipeline. A concurrent write to any
// watched key aborts the EXEC and the unit retries from a fresh read.
func (s *Store) Update(ctx context.Context, tokenIDs []id.TokenID, fn func(recs map[id.TokenID]*models.SupplyRecord) error) error {
	unique := dedupe(tokenIDs)
	keys := make([]string, len(unique))
	for i, tokenID := range unique {
		keys[i] = recordKey(tokenID)
	}

	txn := func(tx *redis.Tx) error {
		recs := make(map[id.TokenID]*models.SupplyRecord, len(unique))
		for _, tokenID := range unique {
			rec, err := loadRecord(ctx, tx, tokenID)
			if err != nil {
				return err
			}
			recs[tokenID] = rec
		}

		if err := fn(recs); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, tokenID := range unique {
				rec := recs[tokenID]
				pipe.HSet(ctx, recordKey(tokenID),
					"max_supply", rec.MaxSupply.Dec(),
					"minted", rec.Minted.Dec(),
				)
			}
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errTooMuchContention
}

// cmdable covers both the plain client and the transactional view inside
// Watch callbacks.
type cmdable interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func loadRecord(ctx context.Context, c cmdable, tokenID id.TokenID) (*models.SupplyRecord, error) {
	fields, err := c.HGetAll(ctx, recordKey(tokenID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load supply record: %w", err)
	}
	if len(fields) == 0 {
		return models.NewSupplyRecord(tokenID), nil
	}

	maxSupply, err := uint256.FromDecimal(fields["max_supply"])
	if err != nil {
		return nil, fmt.Errorf("parse max_supply %q: %w", fields["max_supply"], err)
	}
	minted, err := uint256.FromDecimal(fields["minted"])
	if err != nil {
		return nil, fmt.Errorf("parse minted %q: %w", fields["minted"], err)
	}

	return &models.SupplyRecord{
		ID:        tokenID,
		MaxSupply: maxSupply,
		Minted:    minted,
	}, nil
}

func dedupe(tokenIDs []id.TokenID) []id.TokenID {
	seen := make(map[id.TokenID]struct{}, len(tokenIDs))
	out := make([]id.TokenID, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if _, dup := seen[tokenID]; dup {
			continue
		}
		seen[tokenID] = struct{}{}
		out = append(out, tokenID)
	}
	return out
}
