package bond

import (
	"fmt"
	"math/big"
	"strings"
)

// BondType categorises the venue activity that qualifies for a reward.
type BondType uint8

const (
	// BondTypeSwap rewards trades that acquire the reward asset.
	BondTypeSwap BondType = iota + 1
	// BondTypeLiquidity rewards deposits of the reward asset into the venue.
	BondTypeLiquidity
)

// Valid reports whether the bond type is a supported value.
func (t BondType) Valid() bool {
	switch t {
	case BondTypeSwap, BondTypeLiquidity:
		return true
	default:
		return false
	}
}

func (t BondType) String() string {
	switch t {
	case BondTypeSwap:
		return "swap"
	case BondTypeLiquidity:
		return "liquidity"
	default:
		return "unknown"
	}
}

// ParseBondType resolves the canonical bond type from its string form.
func ParseBondType(s string) (BondType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "swap":
		return BondTypeSwap, nil
	case "liquidity":
		return BondTypeLiquidity, nil
	default:
		return 0, fmt.Errorf("%w: bond type %q", ErrInvalidCampaignParams, s)
	}
}

// Venue describes a registered trading venue and its two pool assets.
type Venue struct {
	Address [20]byte
	Asset0  string
	Asset1  string
}

// BondConfig is the funded campaign configuration stored per (venue, bond
// type). All fields except Distributed are immutable after creation.
type BondConfig struct {
	Venue                [20]byte
	BondType             BondType
	Sponsor              [20]byte
	RewardAsset          string
	RewardAssetIsPrimary bool
	TotalBudget          *big.Int
	Distributed          *big.Int
	RewardRateBps        uint32
	StartTime            int64
	EndTime              int64
	CliffDuration        int64
	VestingDuration      int64
}

// Clone returns a deep copy so callers can mutate the result without touching
// the stored configuration.
func (c *BondConfig) Clone() *BondConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.TotalBudget = cloneBigInt(c.TotalBudget)
	clone.Distributed = cloneBigInt(c.Distributed)
	return &clone
}

// Remaining returns the undistributed portion of the campaign budget.
func (c *BondConfig) Remaining() *big.Int {
	if c == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Sub(cloneBigInt(c.TotalBudget), cloneBigInt(c.Distributed))
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// Exhausted reports whether the campaign has distributed its full budget.
func (c *BondConfig) Exhausted() bool {
	return c.Remaining().Sign() == 0
}

// ActiveAt reports whether the timestamp falls inside the campaign window.
func (c *BondConfig) ActiveAt(ts int64) bool {
	if c == nil {
		return false
	}
	return ts >= c.StartTime && ts <= c.EndTime
}

// CampaignParams carries the caller-supplied inputs for campaign creation.
// Sponsor defaults to the caller and StartTime defaults to the current time
// when left zero; the reward asset is resolved from the venue pair by
// RewardAssetIsPrimary.
type CampaignParams struct {
	Sponsor              [20]byte
	RewardAssetIsPrimary bool
	TotalBudget          *big.Int
	RewardRateBps        uint32
	StartTime            int64
	EndTime              int64
	CliffDuration        int64
	VestingDuration      int64
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func isZeroAddress(addr [20]byte) bool {
	return addr == [20]byte{}
}
