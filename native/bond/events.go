package bond

import (
	"bondvest/core/events"
	"bondvest/core/types"

	"github.com/ethereum/go-ethereum/common"
)

func (e *Engine) emitSkip(bondType BondType, venue [20]byte, reason string, extra map[string]string) {
	if e == nil || e.state == nil {
		return
	}
	attrs := map[string]string{
		"venue":    "0x" + common.Bytes2Hex(venue[:]),
		"bondType": bondType.String(),
		"reason":   reason,
	}
	for k, v := range extra {
		attrs[k] = v
	}
	e.state.AppendEvent(&types.Event{Type: events.TypeBondIssuanceSkipped, Attributes: attrs})
}

func newIssuedEvent(bondType BondType, record *VestingRecord, beneficiary [20]byte) events.BondIssued {
	kind := events.TypeBondSwapIssued
	if bondType == BondTypeLiquidity {
		kind = events.TypeBondLiquidityIssued
	}
	return events.BondIssued{
		Kind:        kind,
		Venue:       record.Venue,
		ClaimID:     record.ClaimID,
		Beneficiary: beneficiary,
		RewardAsset: record.RewardAsset,
		Amount:      cloneBigInt(record.TotalAllocated),
		VestingEnd:  record.VestingEnd,
	}
}

func newCampaignCreatedEvent(cfg *BondConfig) events.BondCampaignCreated {
	return events.BondCampaignCreated{
		Venue:       cfg.Venue,
		BondType:    cfg.BondType.String(),
		Sponsor:     cfg.Sponsor,
		RewardAsset: cfg.RewardAsset,
		TotalBudget: cloneBigInt(cfg.TotalBudget),
		StartTime:   cfg.StartTime,
		EndTime:     cfg.EndTime,
	}
}
