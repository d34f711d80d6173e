package bond

import (
	"math/big"

	"bondvest/core/events"
)

// IsAuthorized reports whether the caller may trigger a claim: the current
// owner, an operator blanket-approved by the current owner, or the per-claim
// delegate. Ownership is re-read at authorization time, so approvals set by a
// previous owner stop applying once the claim changes hands.
func (e *Engine) IsAuthorized(caller [20]byte, claimID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	if e.claims == nil {
		return false, ErrNilClaims
	}
	owner, ok := e.claims.OwnerOf(claimID)
	if !ok {
		return false, ErrInvalidClaim
	}
	if caller == owner {
		return true, nil
	}
	approved, err := e.state.OperatorApproval(owner, caller)
	if err != nil {
		return false, err
	}
	if approved {
		return true, nil
	}
	delegate, err := e.state.ClaimDelegate(claimID)
	if err != nil {
		return false, err
	}
	return !isZeroAddress(delegate) && delegate == caller, nil
}

// SetClaimDelegate installs or clears (zero address) the per-claim delegate.
// Only the current owner of the claim may change its delegate.
func (e *Engine) SetClaimDelegate(caller [20]byte, claimID uint64, delegate [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.claims == nil {
		return ErrNilClaims
	}
	owner, ok := e.claims.OwnerOf(claimID)
	if !ok {
		return ErrInvalidClaim
	}
	if caller != owner {
		return ErrNotOwner
	}
	if err := e.state.SetClaimDelegate(claimID, delegate); err != nil {
		return err
	}
	e.emit(events.BondDelegateUpdated{ClaimID: claimID, Owner: owner, Delegate: delegate})
	return nil
}

// SetOperatorApproval grants or revokes a blanket claim operator for all of
// the caller's claims. No ownership check applies because the approval is
// keyed to the caller's own identity.
func (e *Engine) SetOperatorApproval(caller [20]byte, operator [20]byte, approved bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.state.SetOperatorApproval(caller, operator, approved); err != nil {
		return err
	}
	e.emit(events.BondOperatorApproval{Owner: caller, Operator: operator, Approved: approved})
	return nil
}

// Claim settles the currently claimable amount of the vesting record and pays
// it to the caller. The payout transfer happens before the ledger mutation so
// a failed transfer leaves the record untouched; the two steps commit as one
// unit or not at all.
func (e *Engine) Claim(caller [20]byte, claimID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.token == nil {
		return nil, ErrNilToken
	}
	authorized, err := e.IsAuthorized(caller, claimID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, ErrNotAuthorized
	}
	record, ok, err := e.state.VestingGet(claimID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidClaim
	}
	now := e.now()
	claimable := record.ClaimableAt(now)
	if claimable.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if err := e.token.Push(record.RewardAsset, caller, claimable); err != nil {
		return nil, err
	}
	record.recordClaim(claimable)
	if err := e.state.VestingPut(record); err != nil {
		return nil, err
	}
	e.emit(events.BondClaimPaid{
		ClaimID:     claimID,
		Caller:      caller,
		RewardAsset: record.RewardAsset,
		Amount:      cloneBigInt(claimable),
		Claimed:     cloneBigInt(record.Claimed),
	})
	return claimable, nil
}
