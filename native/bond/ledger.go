package bond

import "math/big"

// VestingRecord is the accounting entry behind a single claim. It is created
// once at issuance and only its Claimed counter ever changes afterwards;
// records persist even after full settlement.
type VestingRecord struct {
	ClaimID        uint64
	Venue          [20]byte
	BondType       BondType
	RewardAsset    string
	TotalAllocated *big.Int
	Claimed        *big.Int
	VestingStart   int64
	VestingEnd     int64
	CliffTime      int64
}

// Clone returns a deep copy of the record.
func (r *VestingRecord) Clone() *VestingRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.TotalAllocated = cloneBigInt(r.TotalAllocated)
	clone.Claimed = cloneBigInt(r.Claimed)
	return &clone
}

// VestedAt returns the cumulative amount unlocked as of the timestamp. The
// cliff gates any release, while the proportion is always measured against
// the full [VestingStart, VestingEnd] window: a record past its cliff vests
// linearly from VestingStart, not from the cliff.
func (r *VestingRecord) VestedAt(ts int64) *big.Int {
	if r == nil {
		return big.NewInt(0)
	}
	total := cloneBigInt(r.TotalAllocated)
	if ts < r.CliffTime {
		return big.NewInt(0)
	}
	if ts >= r.VestingEnd {
		return total
	}
	duration := r.VestingEnd - r.VestingStart
	if duration <= 0 {
		return total
	}
	elapsed := ts - r.VestingStart
	if elapsed <= 0 {
		return big.NewInt(0)
	}
	vested := new(big.Int).Mul(total, big.NewInt(elapsed))
	return vested.Quo(vested, big.NewInt(duration))
}

// ClaimableAt returns the vested amount not yet claimed as of the timestamp.
func (r *VestingRecord) ClaimableAt(ts int64) *big.Int {
	if r == nil {
		return big.NewInt(0)
	}
	claimable := new(big.Int).Sub(r.VestedAt(ts), cloneBigInt(r.Claimed))
	if claimable.Sign() < 0 {
		return big.NewInt(0)
	}
	return claimable
}

// recordClaim adds the paid amount to the claimed counter. Callers guarantee
// the amount does not exceed ClaimableAt for the settlement timestamp.
func (r *VestingRecord) recordClaim(amount *big.Int) {
	if r == nil || amount == nil {
		return
	}
	r.Claimed = new(big.Int).Add(cloneBigInt(r.Claimed), amount)
}

// newVestingRecord builds the ledger entry for a freshly computed reward.
func newVestingRecord(claimID uint64, cfg *BondConfig, amount *big.Int, now int64) *VestingRecord {
	return &VestingRecord{
		ClaimID:        claimID,
		Venue:          cfg.Venue,
		BondType:       cfg.BondType,
		RewardAsset:    cfg.RewardAsset,
		TotalAllocated: cloneBigInt(amount),
		Claimed:        big.NewInt(0),
		VestingStart:   now,
		VestingEnd:     now + cfg.VestingDuration,
		CliffTime:      now + cfg.CliffDuration,
	}
}
