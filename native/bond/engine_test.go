package bond

import (
	"math/big"
	"testing"

	"bondvest/core/events"
)

func beneficiaryPayload(b [20]byte) []byte {
	return append([]byte(nil), b[:]...)
}

func paddedPayload(b [20]byte) []byte {
	out := make([]byte, 32)
	copy(out[12:], b[:])
	return out
}

func TestOnSwapIssuesVestingClaim(t *testing.T) {
	now := int64(5_000)
	engine, st, _, claims, emitter := newTestEngine(now)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
	trader := addr(0x42)

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(trader))

	cfg, _, _ := st.BondConfigGet(testVenue().Address, BondTypeSwap)
	if cfg.Distributed.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected distributed 60, got %s", cfg.Distributed)
	}
	record, ok, _ := st.VestingGet(1)
	if !ok {
		t.Fatalf("expected vesting record for claim 1")
	}
	if record.TotalAllocated.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected allocation 60, got %s", record.TotalAllocated)
	}
	if record.VestingStart != now || record.VestingEnd != now+6*day || record.CliffTime != now+2*day {
		t.Fatalf("unexpected vesting window: %+v", record)
	}
	owner, ok := claims.OwnerOf(1)
	if !ok || owner != trader {
		t.Fatalf("expected claim 1 minted to trader, got %x (ok=%v)", owner, ok)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one issuance event, got %d", len(emitter.events))
	}
	issued, ok := emitter.events[0].(events.BondIssued)
	if !ok || issued.Kind != events.TypeBondSwapIssued {
		t.Fatalf("expected swap issuance event, got %#v", emitter.events[0])
	}
	if issued.ClaimID != 1 || issued.Amount.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected issuance payload: %#v", issued)
	}
}

func TestOnLiquidityAddedIssuesFromDepositMagnitude(t *testing.T) {
	engine, st, _, claims, emitter := newTestEngine(5_000)
	seedCampaign(st, BondTypeLiquidity, 1000, 500, 1_000, 1_000+30*day)
	provider := addr(0x43)

	// Depositing 1200 of the reward asset reads as a negative delta from the
	// provider's perspective.
	engine.OnLiquidityAdded(testVenue().Address, big.NewInt(-1200), big.NewInt(-900), beneficiaryPayload(provider))

	record, ok, _ := st.VestingGet(1)
	if !ok || record.TotalAllocated.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected allocation 60 from deposit, got %+v (ok=%v)", record, ok)
	}
	if owner, ok := claims.OwnerOf(1); !ok || owner != provider {
		t.Fatalf("expected claim minted to provider")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	if issued := emitter.events[0].(events.BondIssued); issued.Kind != events.TypeBondLiquidityIssued {
		t.Fatalf("expected liquidity issuance event, got %s", issued.Kind)
	}
}

func TestIssuanceSkipsWithoutError(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*mockState)
		delta0 *big.Int
		reason string
	}{
		{
			name:   "no campaign",
			setup:  func(st *mockState) {},
			delta0: big.NewInt(1200),
			reason: "no_campaign",
		},
		{
			name: "after end time",
			setup: func(st *mockState) {
				seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 4_000)
			},
			delta0: big.NewInt(1200),
			reason: "outside_window",
		},
		{
			name: "before start",
			setup: func(st *mockState) {
				seedCampaign(st, BondTypeSwap, 1000, 500, 9_000, 9_000+day)
			},
			delta0: big.NewInt(1200),
			reason: "outside_window",
		},
		{
			name: "budget exhausted",
			setup: func(st *mockState) {
				cfg := seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
				cfg.Distributed = big.NewInt(1000)
				st.configs[configKey(cfg.Venue, cfg.BondType)] = cfg
			},
			delta0: big.NewInt(1200),
			reason: "budget_exhausted",
		},
		{
			name: "wrong direction",
			setup: func(st *mockState) {
				seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
			},
			delta0: big.NewInt(-1200),
			reason: "not_reward_side",
		},
		{
			name: "reward floors to zero",
			setup: func(st *mockState) {
				seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
			},
			delta0: big.NewInt(12),
			reason: "reward_zero",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, st, _, claims, emitter := newTestEngine(5_000)
			tc.setup(st)
			engine.OnSwap(testVenue().Address, tc.delta0, big.NewInt(-600), beneficiaryPayload(addr(0x42)))
			if got := st.lastSkipReason(); got != tc.reason {
				t.Fatalf("expected skip reason %q, got %q", tc.reason, got)
			}
			if len(emitter.events) != 0 {
				t.Fatalf("expected no issuance event, got %#v", emitter.events)
			}
			if _, ok := claims.OwnerOf(1); ok {
				t.Fatalf("expected no claim minted")
			}
			if _, ok, _ := st.VestingGet(1); ok {
				t.Fatalf("expected no vesting record")
			}
		})
	}
}

func TestIssuanceRejectsMalformedBeneficiary(t *testing.T) {
	engine, st, _, _, _ := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), []byte{0x01, 0x02})
	if got := st.lastSkipReason(); got != "invalid_beneficiary" {
		t.Fatalf("expected invalid_beneficiary skip, got %q", got)
	}
}

func TestIssuanceDecodesPaddedBeneficiary(t *testing.T) {
	engine, st, _, claims, _ := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
	trader := addr(0x42)

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), paddedPayload(trader))
	if owner, ok := claims.OwnerOf(1); !ok || owner != trader {
		t.Fatalf("expected padded payload to decode to trader, got %x (ok=%v)", owner, ok)
	}
	_ = st
}

func TestClaimIDsStrictlyIncreaseAcrossBondTypes(t *testing.T) {
	engine, st, _, claims, emitter := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 10_000, 500, 1_000, 1_000+30*day)
	seedCampaign(st, BondTypeLiquidity, 10_000, 500, 1_000, 1_000+30*day)

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(addr(0x42)))
	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(addr(0x42)))
	engine.OnLiquidityAdded(testVenue().Address, big.NewInt(-1200), big.NewInt(0), beneficiaryPayload(addr(0x43)))

	if len(emitter.events) != 3 {
		t.Fatalf("expected three issuances, got %d", len(emitter.events))
	}
	seen := make(map[uint64]bool)
	var prev uint64
	for i, evt := range emitter.events {
		issued := evt.(events.BondIssued)
		if seen[issued.ClaimID] {
			t.Fatalf("duplicate claim id %d", issued.ClaimID)
		}
		seen[issued.ClaimID] = true
		if issued.ClaimID <= prev {
			t.Fatalf("claim ids not strictly increasing at event %d: %d after %d", i, issued.ClaimID, prev)
		}
		prev = issued.ClaimID
		if _, ok := claims.OwnerOf(issued.ClaimID); !ok {
			t.Fatalf("claim %d not minted", issued.ClaimID)
		}
	}
}

func TestDistributedMatchesSumOfAllocations(t *testing.T) {
	engine, st, _, _, _ := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 100, 500, 1_000, 1_000+30*day)

	// Three trades; the last is clipped by the remaining budget, the one
	// after that is a silent no-op.
	for _, amount := range []int64{1200, 600, 1200, 1200} {
		engine.OnSwap(testVenue().Address, big.NewInt(amount), big.NewInt(-1), beneficiaryPayload(addr(0x42)))
	}

	cfg, _, _ := st.BondConfigGet(testVenue().Address, BondTypeSwap)
	sum := big.NewInt(0)
	for _, record := range st.vestings {
		sum.Add(sum, record.TotalAllocated)
	}
	if sum.Cmp(cfg.Distributed) != 0 {
		t.Fatalf("sum of allocations %s != distributed %s", sum, cfg.Distributed)
	}
	if cfg.Distributed.Cmp(cfg.TotalBudget) > 0 {
		t.Fatalf("distributed %s exceeds budget %s", cfg.Distributed, cfg.TotalBudget)
	}
	if cfg.Distributed.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected budget fully distributed (60+30+10), got %s", cfg.Distributed)
	}
}

func TestIssuanceRollsBackOnMintFailure(t *testing.T) {
	engine, st, _, claims, emitter := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
	claims.failMint = true

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(addr(0x42)))

	cfg, _, _ := st.BondConfigGet(testVenue().Address, BondTypeSwap)
	if cfg.Distributed.Sign() != 0 {
		t.Fatalf("expected distributed rolled back to zero, got %s", cfg.Distributed)
	}
	if _, ok, _ := st.VestingGet(1); ok {
		t.Fatalf("expected vesting record rolled back")
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no issuance event after rollback")
	}
	if got := st.lastSkipReason(); got != "mint_error" {
		t.Fatalf("expected mint_error skip, got %q", got)
	}
}

func TestIssuanceRollsBackOnVestingWriteFailure(t *testing.T) {
	engine, st, _, claims, _ := newTestEngine(5_000)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
	st.failVestingPut = true

	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(addr(0x42)))

	cfg, _, _ := st.BondConfigGet(testVenue().Address, BondTypeSwap)
	if cfg.Distributed.Sign() != 0 {
		t.Fatalf("expected distributed restored after failed vesting write, got %s", cfg.Distributed)
	}
	if _, ok := claims.OwnerOf(1); ok {
		t.Fatalf("expected no claim minted")
	}
	if got := st.lastSkipReason(); got != "state_error" {
		t.Fatalf("expected state_error skip, got %q", got)
	}
}

func TestClaimStateAtReportsVestingArithmetic(t *testing.T) {
	now := int64(5_000)
	engine, st, _, claims, _ := newTestEngine(now)
	seedCampaign(st, BondTypeSwap, 1000, 500, 1_000, 1_000+30*day)
	trader := addr(0x42)
	engine.OnSwap(testVenue().Address, big.NewInt(1200), big.NewInt(-600), beneficiaryPayload(trader))

	status, err := engine.ClaimStateAt(1, now+3*day)
	if err != nil {
		t.Fatalf("claim state: %v", err)
	}
	if status.Owner != trader {
		t.Fatalf("expected owner to be trader")
	}
	if status.Vested.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected 30 vested at half duration, got %s", status.Vested)
	}
	if status.Claimable.Cmp(big.NewInt(30)) != 0 || status.Unvested.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("unexpected claimable/unvested: %s / %s", status.Claimable, status.Unvested)
	}
	if status.RewardAsset != "BND" {
		t.Fatalf("unexpected payout asset %q", status.RewardAsset)
	}

	if _, err := engine.ClaimStateAt(99, now); err != ErrInvalidClaim {
		t.Fatalf("expected ErrInvalidClaim for unknown claim, got %v", err)
	}
	_ = claims
}
