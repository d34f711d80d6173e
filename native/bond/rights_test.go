package bond

import (
	"errors"
	"math/big"
	"testing"

	"bondvest/core/events"
)

func issueTestClaim(t *testing.T, engine *Engine, st *mockState, owner [20]byte) uint64 {
	t.Helper()
	seedCampaign(st, BondTypeSwap, 1_000, 500, 1_000, 1_000+30*day)
	engine.OnSwap(testVenue().Address, big.NewInt(1_200), big.NewInt(-600), owner[:])
	if _, ok, _ := st.VestingGet(1); !ok {
		t.Fatalf("issuance did not produce claim 1")
	}
	return 1
}

func TestIsAuthorizedMatrix(t *testing.T) {
	engine, st, _, claims, _ := newTestEngine(5_000)
	owner := addr(0x42)
	operator := addr(0x43)
	delegate := addr(0x44)
	stranger := addr(0x45)
	claimID := issueTestClaim(t, engine, st, owner)

	st.operators[operatorMapKey(owner, operator)] = true
	st.delegates[claimID] = delegate

	cases := []struct {
		name   string
		caller [20]byte
		want   bool
	}{
		{"owner", owner, true},
		{"operator", operator, true},
		{"delegate", delegate, true},
		{"stranger", stranger, false},
	}
	for _, tc := range cases {
		got, err := engine.IsAuthorized(tc.caller, claimID)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected authorized=%v", tc.name, tc.want)
		}
	}

	if _, err := engine.IsAuthorized(owner, 99); !errors.Is(err, ErrInvalidClaim) {
		t.Fatalf("expected ErrInvalidClaim for unknown claim, got %v", err)
	}
	_ = claims
}

func TestAuthorizationFollowsOwnershipTransfer(t *testing.T) {
	engine, st, _, claims, _ := newTestEngine(5_000)
	owner := addr(0x42)
	operator := addr(0x43)
	newOwner := addr(0x50)
	claimID := issueTestClaim(t, engine, st, owner)
	st.operators[operatorMapKey(owner, operator)] = true

	claims.transfer(claimID, newOwner)

	if ok, _ := engine.IsAuthorized(owner, claimID); ok {
		t.Fatalf("previous owner should lose authorization after transfer")
	}
	if ok, _ := engine.IsAuthorized(operator, claimID); ok {
		t.Fatalf("previous owner's operator should lose authorization after transfer")
	}
	if ok, _ := engine.IsAuthorized(newOwner, claimID); !ok {
		t.Fatalf("new owner should be authorized")
	}
}

func TestSetClaimDelegateOwnerOnly(t *testing.T) {
	engine, st, _, _, emitter := newTestEngine(5_000)
	owner := addr(0x42)
	delegate := addr(0x44)
	claimID := issueTestClaim(t, engine, st, owner)
	emitter.events = nil

	if err := engine.SetClaimDelegate(addr(0x45), claimID, delegate); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for non-owner, got %v", err)
	}
	if err := engine.SetClaimDelegate(owner, 99, delegate); !errors.Is(err, ErrInvalidClaim) {
		t.Fatalf("expected ErrInvalidClaim, got %v", err)
	}

	if err := engine.SetClaimDelegate(owner, claimID, delegate); err != nil {
		t.Fatalf("set delegate: %v", err)
	}
	if st.delegates[claimID] != delegate {
		t.Fatalf("delegate not persisted")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one delegate event, got %d", len(emitter.events))
	}
	evt := emitter.events[0].(events.BondDelegateUpdated)
	if evt.ClaimID != claimID || evt.Delegate != delegate {
		t.Fatalf("unexpected delegate event: %#v", evt)
	}

	// Zero address clears the slot.
	if err := engine.SetClaimDelegate(owner, claimID, [20]byte{}); err != nil {
		t.Fatalf("clear delegate: %v", err)
	}
	if _, ok := st.delegates[claimID]; ok {
		t.Fatalf("expected delegate cleared")
	}
}

func TestSetOperatorApprovalFlips(t *testing.T) {
	engine, st, _, _, emitter := newTestEngine(5_000)
	owner := addr(0x42)
	operator := addr(0x43)

	if err := engine.SetOperatorApproval(owner, operator, true); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !st.operators[operatorMapKey(owner, operator)] {
		t.Fatalf("approval not persisted")
	}
	if err := engine.SetOperatorApproval(owner, operator, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if st.operators[operatorMapKey(owner, operator)] {
		t.Fatalf("approval not revoked")
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected two approval events, got %d", len(emitter.events))
	}
}

func TestClaimBeforeCliffYieldsNothing(t *testing.T) {
	engine, st, vault, _, _ := newTestEngine(5_000)
	owner := addr(0x42)
	claimID := issueTestClaim(t, engine, st, owner)

	// Vesting anchored at 5_000 with a 2 day cliff; one day in nothing is due.
	engine.SetNowFunc(func() int64 { return 5_000 + day })
	if _, err := engine.Claim(owner, claimID); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim before cliff, got %v", err)
	}
	if len(vault.pushes) != 0 {
		t.Fatalf("expected no payout before cliff")
	}
	record, _, _ := st.VestingGet(claimID)
	if record.Claimed.Sign() != 0 {
		t.Fatalf("claimed mutated by failed claim: %s", record.Claimed)
	}
}

func TestClaimPaysFullAmountAfterVestingEnd(t *testing.T) {
	engine, st, vault, _, emitter := newTestEngine(5_000)
	owner := addr(0x42)
	claimID := issueTestClaim(t, engine, st, owner)
	emitter.events = nil

	engine.SetNowFunc(func() int64 { return 5_000 + 7*day })
	paid, err := engine.Claim(owner, claimID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected full 60 paid, got %s", paid)
	}
	if len(vault.pushes) != 1 {
		t.Fatalf("expected one payout push")
	}
	push := vault.pushes[0]
	if push.asset != "BND" || push.addr != owner || push.amount.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected payout: %+v", push)
	}
	record, _, _ := st.VestingGet(claimID)
	if record.Claimed.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("claimed not settled, got %s", record.Claimed)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected claim paid event")
	}
	evt := emitter.events[0].(events.BondClaimPaid)
	if evt.Amount.Cmp(big.NewInt(60)) != 0 || evt.Claimed.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected claim event: %#v", evt)
	}

	// Repeat claims find nothing left.
	if _, err := engine.Claim(owner, claimID); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected nothing to claim on repeat, got %v", err)
	}
}

func TestClaimIncrementalSettlement(t *testing.T) {
	engine, st, vault, _, _ := newTestEngine(5_000)
	owner := addr(0x42)
	claimID := issueTestClaim(t, engine, st, owner)

	engine.SetNowFunc(func() int64 { return 5_000 + 3*day })
	first, err := engine.Claim(owner, claimID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected 30 at half duration, got %s", first)
	}

	engine.SetNowFunc(func() int64 { return 5_000 + 6*day })
	second, err := engine.Claim(owner, claimID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected remaining 30 at end, got %s", second)
	}
	total := new(big.Int).Add(first, second)
	record, _, _ := st.VestingGet(claimID)
	if total.Cmp(record.TotalAllocated) != 0 || record.Claimed.Cmp(total) != 0 {
		t.Fatalf("settlement mismatch: paid %s, claimed %s, allocated %s", total, record.Claimed, record.TotalAllocated)
	}
	_ = vault
}

func TestClaimPayoutGoesToCallerNotOwner(t *testing.T) {
	engine, st, vault, _, _ := newTestEngine(5_000)
	owner := addr(0x42)
	delegate := addr(0x44)
	claimID := issueTestClaim(t, engine, st, owner)
	st.delegates[claimID] = delegate

	engine.SetNowFunc(func() int64 { return 5_000 + 7*day })
	if _, err := engine.Claim(delegate, claimID); err != nil {
		t.Fatalf("delegate claim: %v", err)
	}
	if vault.pushes[0].addr != delegate {
		t.Fatalf("expected payout to the claiming delegate, got %x", vault.pushes[0].addr)
	}
}

func TestClaimUnauthorizedCaller(t *testing.T) {
	engine, st, _, _, _ := newTestEngine(5_000)
	claimID := issueTestClaim(t, engine, st, addr(0x42))

	engine.SetNowFunc(func() int64 { return 5_000 + 7*day })
	if _, err := engine.Claim(addr(0x45), claimID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestClaimTransferFailureLeavesRecordUntouched(t *testing.T) {
	engine, st, vault, _, emitter := newTestEngine(5_000)
	owner := addr(0x42)
	claimID := issueTestClaim(t, engine, st, owner)
	emitter.events = nil
	vault.failPush = true

	engine.SetNowFunc(func() int64 { return 5_000 + 7*day })
	if _, err := engine.Claim(owner, claimID); err == nil {
		t.Fatalf("expected push failure to surface")
	}
	record, _, _ := st.VestingGet(claimID)
	if record.Claimed.Sign() != 0 {
		t.Fatalf("expected claimed untouched after failed payout, got %s", record.Claimed)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no claim event after failure")
	}
}
