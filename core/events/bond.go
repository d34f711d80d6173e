package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"bondvest/core/types"
)

const (
	// TypeBondCampaignCreated is emitted when a bond campaign is registered
	// and funded for a venue.
	TypeBondCampaignCreated = "bond.campaign.created"
	// TypeBondSwapIssued is emitted when a qualifying swap triggers a new
	// vesting claim.
	TypeBondSwapIssued = "bond.swap.issued"
	// TypeBondLiquidityIssued is emitted when a qualifying liquidity deposit
	// triggers a new vesting claim.
	TypeBondLiquidityIssued = "bond.liquidity.issued"
	// TypeBondIssuanceSkipped is emitted when a venue event falls outside the
	// campaign gates and no claim is issued.
	TypeBondIssuanceSkipped = "bond.issuance.skipped"
	// TypeBondClaimPaid is emitted when a vested amount is paid out against a
	// claim.
	TypeBondClaimPaid = "bond.claim.paid"
	// TypeBondDelegateUpdated is emitted when the per-claim delegate changes.
	TypeBondDelegateUpdated = "bond.claim.delegate_updated"
	// TypeBondOperatorApproval is emitted when an owner grants or revokes a
	// blanket claim operator.
	TypeBondOperatorApproval = "bond.claim.operator_approval"
)

// BondCampaignCreated captures the funded configuration of a new campaign.
type BondCampaignCreated struct {
	Venue       [20]byte
	BondType    string
	Sponsor     [20]byte
	RewardAsset string
	TotalBudget *big.Int
	StartTime   int64
	EndTime     int64
}

// EventType implements the Event interface.
func (BondCampaignCreated) EventType() string { return TypeBondCampaignCreated }

// Event converts the campaign metadata to the generic event payload.
func (e BondCampaignCreated) Event() *types.Event {
	budget := big.NewInt(0)
	if e.TotalBudget != nil {
		budget = new(big.Int).Set(e.TotalBudget)
	}
	return &types.Event{
		Type: TypeBondCampaignCreated,
		Attributes: map[string]string{
			"venue":       "0x" + common.Bytes2Hex(e.Venue[:]),
			"bondType":    e.BondType,
			"sponsor":     "0x" + common.Bytes2Hex(e.Sponsor[:]),
			"rewardAsset": e.RewardAsset,
			"totalBudget": budget.String(),
			"startTime":   strconv.FormatInt(e.StartTime, 10),
			"endTime":     strconv.FormatInt(e.EndTime, 10),
		},
	}
}

// BondIssued captures a freshly minted vesting claim. The same payload backs
// both the swap and liquidity issuance events; Kind selects the event type.
type BondIssued struct {
	Kind        string
	Venue       [20]byte
	ClaimID     uint64
	Beneficiary [20]byte
	RewardAsset string
	Amount      *big.Int
	VestingEnd  int64
}

// EventType implements the Event interface.
func (e BondIssued) EventType() string { return e.Kind }

// Event converts the issuance details to the generic event payload.
func (e BondIssued) Event() *types.Event {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	return &types.Event{
		Type: e.Kind,
		Attributes: map[string]string{
			"venue":       "0x" + common.Bytes2Hex(e.Venue[:]),
			"claimId":     strconv.FormatUint(e.ClaimID, 10),
			"beneficiary": "0x" + common.Bytes2Hex(e.Beneficiary[:]),
			"rewardAsset": e.RewardAsset,
			"amount":      amount.String(),
			"vestingEnd":  strconv.FormatInt(e.VestingEnd, 10),
		},
	}
}

// BondClaimPaid captures a successful payout against a vesting claim.
type BondClaimPaid struct {
	ClaimID     uint64
	Caller      [20]byte
	RewardAsset string
	Amount      *big.Int
	Claimed     *big.Int
}

// EventType implements the Event interface.
func (BondClaimPaid) EventType() string { return TypeBondClaimPaid }

// Event converts the payout details to the generic event payload.
func (e BondClaimPaid) Event() *types.Event {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	claimed := big.NewInt(0)
	if e.Claimed != nil {
		claimed = new(big.Int).Set(e.Claimed)
	}
	return &types.Event{
		Type: TypeBondClaimPaid,
		Attributes: map[string]string{
			"claimId":     strconv.FormatUint(e.ClaimID, 10),
			"caller":      "0x" + common.Bytes2Hex(e.Caller[:]),
			"rewardAsset": e.RewardAsset,
			"amount":      amount.String(),
			"claimed":     claimed.String(),
		},
	}
}

// BondDelegateUpdated captures a per-claim delegate change.
type BondDelegateUpdated struct {
	ClaimID  uint64
	Owner    [20]byte
	Delegate [20]byte
}

// EventType implements the Event interface.
func (BondDelegateUpdated) EventType() string { return TypeBondDelegateUpdated }

// Event converts the delegation change to the generic event payload.
func (e BondDelegateUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeBondDelegateUpdated,
		Attributes: map[string]string{
			"claimId":  strconv.FormatUint(e.ClaimID, 10),
			"owner":    "0x" + common.Bytes2Hex(e.Owner[:]),
			"delegate": "0x" + common.Bytes2Hex(e.Delegate[:]),
		},
	}
}

// BondOperatorApproval captures a blanket operator approval change.
type BondOperatorApproval struct {
	Owner    [20]byte
	Operator [20]byte
	Approved bool
}

// EventType implements the Event interface.
func (BondOperatorApproval) EventType() string { return TypeBondOperatorApproval }

// Event converts the approval change to the generic event payload.
func (e BondOperatorApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeBondOperatorApproval,
		Attributes: map[string]string{
			"owner":    "0x" + common.Bytes2Hex(e.Owner[:]),
			"operator": "0x" + common.Bytes2Hex(e.Operator[:]),
			"approved": strconv.FormatBool(e.Approved),
		},
	}
}
