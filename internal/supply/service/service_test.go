package service

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"mintledger/internal/access"
	"mintledger/internal/audit"
	"mintledger/internal/balance"
	"mintledger/internal/notify"
	"mintledger/internal/supply/store/memory"
	id "mintledger/pkg/domain"
	dErrors "mintledger/pkg/domain-errors"
)

// ServiceSuite wires the supply service against real in-memory components.
type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.InMemorySupplyStore
	balances *balance.Ledger
	notifier *notify.MemoryNotifier
	trail    *audit.InMemoryStore
	service  *Service

	admin     id.Principal
	minter    id.Principal
	outsider  id.Principal
	recipient id.Principal
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.balances = balance.NewLedger()
	s.notifier = notify.NewMemoryNotifier()
	s.trail = audit.NewInMemoryStore()

	s.admin = id.Principal(uuid.New())
	s.minter = id.Principal(uuid.New())
	s.outsider = id.Principal(uuid.New())
	s.recipient = id.Principal(uuid.New())

	registry, err := access.New(s.ctx, access.NewInMemoryRoleStore(), s.admin)
	s.Require().NoError(err)
	s.Require().NoError(registry.Grant(s.ctx, s.admin, s.minter, access.RoleMinter))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := New(s.store, registry, s.balances,
		WithLogger(logger),
		WithNotifier(s.notifier),
		WithAuditPublisher(audit.NewPublisher(s.trail)),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) setCap(tokenID id.TokenID, max uint64) {
	s.Require().NoError(s.service.SetMaxSupply(s.ctx, s.admin, tokenID, uint256.NewInt(max)))
}

func (s *ServiceSuite) minted(tokenID id.TokenID) uint64 {
	rec, err := s.store.Get(s.ctx, tokenID)
	s.Require().NoError(err)
	return rec.Minted.Uint64()
}

// =============================================================================
// Cap management
// =============================================================================

func (s *ServiceSuite) TestSetMaxSupply() {
	s.Run("requires admin", func() {
		err := s.service.SetMaxSupply(s.ctx, s.minter, "1", uint256.NewInt(100))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("configures and emits notification", func() {
		s.setCap("1", 100)

		events := s.notifier.Events()
		s.Require().Len(events, 1)
		s.Equal(notify.TypeCapSet, events[0].Type)
		s.Equal([]string{"1"}, events[0].TokenIDs)
		s.Equal([]string{"100"}, events[0].NewMaxes)
	})

	s.Run("rejects lowering below minted", func() {
		s.setCap("2", 100)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(40)))

		err := s.service.SetMaxSupply(s.ctx, s.admin, "2", uint256.NewInt(39))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapBelowMinted))

		// Lowering exactly to minted is allowed.
		s.Require().NoError(s.service.SetMaxSupply(s.ctx, s.admin, "2", uint256.NewInt(40)))
	})

	s.Run("is idempotent for equal caps", func() {
		s.setCap("3", 50)
		s.setCap("3", 50)

		remaining, err := s.service.RemainingMintable(s.ctx, "3")
		s.Require().NoError(err)
		s.Equal(uint64(50), remaining.Uint64())
	})
}

func (s *ServiceSuite) TestSetMaxSupplyBatch() {
	s.Run("length mismatch", func() {
		err := s.service.SetMaxSupplyBatch(s.ctx, s.admin,
			[]id.TokenID{"1", "2"}, []*uint256.Int{uint256.NewInt(10)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	s.Run("all-or-nothing on invalid pair", func() {
		s.setCap("1", 100)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "1", uint256.NewInt(40)))

		err := s.service.SetMaxSupplyBatch(s.ctx, s.admin,
			[]id.TokenID{"5", "1"},
			[]*uint256.Int{uint256.NewInt(10), uint256.NewInt(39)}) // 39 < minted 40
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapBelowMinted))

		// First pair must not have been committed.
		rec, err := s.store.Get(s.ctx, "5")
		s.Require().NoError(err)
		s.False(rec.Configured())
	})

	s.Run("commits all pairs and emits one batch notification", func() {
		before := len(s.notifier.Events())
		err := s.service.SetMaxSupplyBatch(s.ctx, s.admin,
			[]id.TokenID{"6", "7"},
			[]*uint256.Int{uint256.NewInt(10), uint256.NewInt(20)})
		s.Require().NoError(err)

		events := s.notifier.Events()
		s.Require().Len(events, before+1)
		last := events[len(events)-1]
		s.Equal(notify.TypeCapSetBatch, last.Type)
		s.Equal([]string{"6", "7"}, last.TokenIDs)
		s.Equal([]string{"10", "20"}, last.NewMaxes)
	})
}

// =============================================================================
// Single mint
// =============================================================================

func (s *ServiceSuite) TestMint() {
	s.Run("requires minter role", func() {
		s.setCap("1", 100)
		err := s.service.Mint(s.ctx, s.outsider, s.recipient, "1", uint256.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(uint64(0), s.minted("1"))
	})

	s.Run("unconfigured cap rejected", func() {
		err := s.service.Mint(s.ctx, s.minter, s.recipient, "99", uint256.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapNotConfigured))
	})

	s.Run("boundaries around the cap", func() {
		// maxSupply=100, minted=40.
		s.setCap("2", 100)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(40)))

		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(50)))
		s.Equal(uint64(90), s.minted("2"))

		err := s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(11))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))
		s.Equal(uint64(90), s.minted("2"))

		// Exactly reaching the cap succeeds.
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(10)))
		s.Equal(uint64(100), s.minted("2"))

		err = s.service.Mint(s.ctx, s.minter, s.recipient, "2", uint256.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))
	})

	s.Run("credits the recipient after commit", func() {
		s.setCap("3", 10)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "3", uint256.NewInt(7)))

		got, err := s.balances.BalanceOf(s.ctx, s.recipient, "3")
		s.Require().NoError(err)
		s.Equal(uint64(7), got.Uint64())
	})

	s.Run("rejects nil recipient", func() {
		s.setCap("4", 10)
		err := s.service.Mint(s.ctx, s.minter, id.NilPrincipal, "4", uint256.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidPrincipal))
	})
}

// =============================================================================
// Batch mint
// =============================================================================

func (s *ServiceSuite) TestMintBatch() {
	s.Run("length mismatch", func() {
		err := s.service.MintBatch(s.ctx, s.minter, s.recipient,
			[]id.TokenID{"1"}, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	s.Run("failure on any id rolls back the whole batch", func() {
		s.setCap("1", 100)
		s.setCap("2", 50)

		huge, err := uint256.FromDecimal("1000000000000000000000000000000") // 10**30
		s.Require().NoError(err)

		err = s.service.MintBatch(s.ctx, s.minter, s.recipient,
			[]id.TokenID{"1", "2"},
			[]*uint256.Int{uint256.NewInt(10), huge})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))

		s.Equal(uint64(0), s.minted("1"), "id 1 must be rolled back with the batch")
		s.Equal(uint64(0), s.minted("2"))

		got, err := s.balances.BalanceOf(s.ctx, s.recipient, "1")
		s.Require().NoError(err)
		s.True(got.IsZero(), "no credit may happen for a failed batch")
	})

	s.Run("duplicate ids accumulate sequentially", func() {
		// maxSupply=5: 3+3=6 > 5 must fail, not double-count from a
		// pre-batch snapshot.
		s.setCap("5", 5)
		err := s.service.MintBatch(s.ctx, s.minter, s.recipient,
			[]id.TokenID{"5", "5"},
			[]*uint256.Int{uint256.NewInt(3), uint256.NewInt(3)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))
		s.Equal(uint64(0), s.minted("5"))

		// 3+2=5 fits exactly.
		err = s.service.MintBatch(s.ctx, s.minter, s.recipient,
			[]id.TokenID{"5", "5"},
			[]*uint256.Int{uint256.NewInt(3), uint256.NewInt(2)})
		s.Require().NoError(err)
		s.Equal(uint64(5), s.minted("5"))

		got, err := s.balances.BalanceOf(s.ctx, s.recipient, "5")
		s.Require().NoError(err)
		s.Equal(uint64(5), got.Uint64())
	})

	s.Run("requires minter role and leaves state unchanged", func() {
		s.setCap("6", 10)
		err := s.service.MintBatch(s.ctx, s.outsider, s.recipient,
			[]id.TokenID{"6"}, []*uint256.Int{uint256.NewInt(1)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(uint64(0), s.minted("6"))
	})
}

// =============================================================================
// Mint max
// =============================================================================

func (s *ServiceSuite) TestMintMax() {
	s.Run("issues the full remainder per id", func() {
		s.setCap("1", 20)
		s.setCap("2", 30)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "1", uint256.NewInt(5)))

		err := s.service.MintMax(s.ctx, s.minter, s.recipient, []id.TokenID{"1", "2"}, []byte("drop-1"))
		s.Require().NoError(err)

		s.Equal(uint64(20), s.minted("1"))
		s.Equal(uint64(30), s.minted("2"))

		got, err := s.balances.BalanceOf(s.ctx, s.recipient, "1")
		s.Require().NoError(err)
		s.Equal(uint64(15), got.Uint64())
	})

	s.Run("zero remaining fails the whole batch", func() {
		// maxSupply=20, minted=20: nothing left.
		s.setCap("7", 20)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "7", uint256.NewInt(20)))
		s.setCap("8", 10)

		err := s.service.MintMax(s.ctx, s.minter, s.recipient, []id.TokenID{"8", "7"}, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapExceeded))

		s.Equal(uint64(0), s.minted("8"), "id 8 must be rolled back with the batch")

		got, err := s.balances.BalanceOf(s.ctx, s.recipient, "8")
		s.Require().NoError(err)
		s.True(got.IsZero(), "a zero-remaining batch must never emit credits")
	})

	s.Run("unconfigured id fails the batch", func() {
		err := s.service.MintMax(s.ctx, s.minter, s.recipient, []id.TokenID{"404"}, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapNotConfigured))
	})

	s.Run("empty id list rejected", func() {
		err := s.service.MintMax(s.ctx, s.minter, s.recipient, nil, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Queries
// =============================================================================

func (s *ServiceSuite) TestRemainingMintable() {
	s.Run("unconfigured reads as zero", func() {
		remaining, err := s.service.RemainingMintable(s.ctx, "1000")
		s.Require().NoError(err)
		s.True(remaining.IsZero())
	})

	s.Run("tracks cap minus minted", func() {
		s.setCap("1", 100)
		s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, "1", uint256.NewInt(30)))

		remaining, err := s.service.RemainingMintable(s.ctx, "1")
		s.Require().NoError(err)
		s.Equal(uint64(70), remaining.Uint64())
	})

	s.Run("batch preserves input order", func() {
		s.setCap("2", 5)
		remaining, err := s.service.RemainingMintableBatch(s.ctx, []id.TokenID{"1000", "2", "1000"})
		s.Require().NoError(err)
		s.Require().Len(remaining, 3)
		s.True(remaining[0].IsZero())
		s.Equal(uint64(5), remaining[1].Uint64())
		s.True(remaining[2].IsZero())
	})
}

// TestRemainingMatchesReplayedOperations applies a random sequence of valid
// operations and re-derives the expected remaining value independently.
func (s *ServiceSuite) TestRemainingMatchesReplayedOperations() {
	rng := rand.New(rand.NewSource(42))
	tokenID := id.TokenID("77")

	var expectedMax, expectedMinted uint64

	for range 200 {
		switch rng.Intn(3) {
		case 0: // raise the cap
			raise := uint64(rng.Intn(50) + 1)
			expectedMax += raise
			s.Require().NoError(s.service.SetMaxSupply(s.ctx, s.admin, tokenID, uint256.NewInt(expectedMax)))
		case 1: // mint within the remainder
			if expectedMax == expectedMinted {
				continue
			}
			amount := uint64(rng.Intn(int(expectedMax-expectedMinted))) + 1
			expectedMinted += amount
			s.Require().NoError(s.service.Mint(s.ctx, s.minter, s.recipient, tokenID, uint256.NewInt(amount)))
		case 2: // lower the cap toward minted
			if expectedMax == 0 {
				continue
			}
			span := expectedMax - expectedMinted
			if span == 0 {
				continue
			}
			lowered := expectedMinted + uint64(rng.Intn(int(span))+1)
			expectedMax = lowered
			s.Require().NoError(s.service.SetMaxSupply(s.ctx, s.admin, tokenID, uint256.NewInt(lowered)))
		}

		remaining, err := s.service.RemainingMintable(s.ctx, tokenID)
		s.Require().NoError(err)
		s.Equal(expectedMax-expectedMinted, remaining.Uint64())
		s.LessOrEqual(s.minted(tokenID), expectedMax, "minted may never exceed the cap")
	}
}

// =============================================================================
// Audit + rollback plumbing
// =============================================================================

func (s *ServiceSuite) TestUnauthorizedMutationsAreAudited() {
	s.setCap("1", 10)
	_ = s.service.Mint(s.ctx, s.outsider, s.recipient, "1", uint256.NewInt(1))

	events, err := s.trail.ListByPrincipal(s.ctx, s.outsider)
	s.Require().NoError(err)
	s.Require().NotEmpty(events)
	s.Equal(string(audit.EventMutationRejected), events[len(events)-1].Action)
}

// failingLedger rejects every credit to exercise the compensation path.
type failingLedger struct{}

func (failingLedger) Credit(context.Context, id.Principal, id.TokenID, *uint256.Int) error {
	return dErrors.New(dErrors.CodeInternal, "ledger unavailable")
}

func (failingLedger) CreditBatch(context.Context, id.Principal, []id.TokenID, []*uint256.Int) error {
	return dErrors.New(dErrors.CodeInternal, "ledger unavailable")
}

func (s *ServiceSuite) TestCreditFailureRollsBackMintedTotal() {
	registry, err := access.New(s.ctx, access.NewInMemoryRoleStore(), s.admin)
	s.Require().NoError(err)

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := New(store, registry, failingLedger{}, WithLogger(logger))
	s.Require().NoError(err)

	s.Require().NoError(svc.SetMaxSupply(s.ctx, s.admin, "1", uint256.NewInt(100)))

	err = svc.Mint(s.ctx, s.admin, s.recipient, "1", uint256.NewInt(10))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	rec, err := store.Get(s.ctx, "1")
	s.Require().NoError(err)
	s.True(rec.Minted.IsZero(), "failed credit must leave no partial mint effect")
}
