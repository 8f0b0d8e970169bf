//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"mintledger/internal/supply/models"
	"mintledger/internal/supply/store/postgres"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
	"mintledger/pkg/testutil/containers"
)

const supplySchema = `
CREATE TABLE IF NOT EXISTS supply_records (
    token_id   TEXT PRIMARY KEY,
    max_supply NUMERIC(78,0) NOT NULL,
    minted     NUMERIC(78,0) NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), supplySchema)
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.postgres.Exec(s.T(), `TRUNCATE supply_records`)
}

func (s *PostgresStoreSuite) TestUnknownIDReadsAsZeroRecord() {
	rec, err := s.store.Get(context.Background(), "42")
	s.Require().NoError(err)
	s.False(rec.Configured())
	s.True(rec.Minted.IsZero())
}

func (s *PostgresStoreSuite) TestUpdateRoundTripsFullRange() {
	ctx := context.Background()

	// Values beyond uint64 must survive the NUMERIC round trip.
	huge, err := uint256.FromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935") // 2^256 - 1
	s.Require().NoError(err)

	err = s.store.Update(ctx, []id.TokenID{"1"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		recs["1"].MaxSupply.Set(huge)
		recs["1"].Minted.SetUint64(7)
		return nil
	})
	s.Require().NoError(err)

	rec, err := s.store.Get(ctx, "1")
	s.Require().NoError(err)
	s.Equal(huge.Dec(), rec.MaxSupply.Dec())
	s.Equal(uint64(7), rec.Minted.Uint64())
}

func (s *PostgresStoreSuite) TestUpdateRollsBackOnError() {
	ctx := context.Background()

	err := s.store.Update(ctx, []id.TokenID{"1"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		recs["1"].MaxSupply.SetUint64(10)
		return nil
	})
	s.Require().NoError(err)

	err = s.store.Update(ctx, []id.TokenID{"1", "2"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		recs["1"].Minted.SetUint64(5)
		recs["2"].MaxSupply.SetUint64(99)
		return dErrors.New(dErrors.CodeCapExceeded, "forced failure")
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))

	rec, err := s.store.Get(ctx, "1")
	s.Require().NoError(err)
	s.True(rec.Minted.IsZero(), "failed update must not commit")

	rec, err = s.store.Get(ctx, "2")
	s.Require().NoError(err)
	s.False(rec.Configured(), "failed update must not create records")
}

// TestConcurrentMintsNeverExceedCap hits the row locks from many goroutines
// and verifies the cap invariant holds.
func (s *PostgresStoreSuite) TestConcurrentMintsNeverExceedCap() {
	ctx := context.Background()
	const capTotal = 50
	const goroutines = 100

	err := s.store.Update(ctx, []id.TokenID{"9"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		recs["9"].MaxSupply.SetUint64(capTotal)
		return nil
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Update(ctx, []id.TokenID{"9"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
				return recs["9"].ApplyMint(uint256.NewInt(1))
			})
			if err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(capTotal), succeeded.Load(), "exactly cap mints may succeed")

	rec, err := s.store.Get(ctx, "9")
	s.Require().NoError(err)
	s.Equal(uint64(capTotal), rec.Minted.Uint64())
}

func (s *PostgresStoreSuite) TestDuplicateIDsShareOneRecord() {
	ctx := context.Background()

	err := s.store.Update(ctx, []id.TokenID{"3", "3"}, func(recs map[id.TokenID]*models.SupplyRecord) error {
		s.Len(recs, 1, "duplicate ids must map to one staged record")
		recs["3"].MaxSupply.SetUint64(5)
		return nil
	})
	s.Require().NoError(err)

	rec, err := s.store.Get(ctx, "3")
	s.Require().NoError(err)
	s.Equal(uint64(5), rec.MaxSupply.Uint64())
}
