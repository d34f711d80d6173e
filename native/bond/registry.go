package bond

import (
	"fmt"
	"math/big"
)

// CreateCampaign validates, funds and stores a bond campaign for the
// (venue, bondType) pair. The sponsor defaults to the caller and the reward
// asset is resolved from the venue pair by RewardAssetIsPrimary. The full
// budget is pulled from the sponsor before any state is written; if the
// write fails afterwards the pull is compensated so no partial state
// survives. Returns the stored configuration, whose Venue field is the
// storage key.
func (e *Engine) CreateCampaign(caller [20]byte, venue [20]byte, bondType BondType, params CampaignParams) (*BondConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.token == nil {
		return nil, ErrNilToken
	}
	if !bondType.Valid() {
		return nil, fmt.Errorf("%w: unsupported bond type %d", ErrInvalidCampaignParams, bondType)
	}

	now := e.now()
	start := params.StartTime
	if start == 0 {
		start = now
	}
	if start < now {
		return nil, fmt.Errorf("%w: start time in the past", ErrInvalidCampaignParams)
	}
	if start >= params.EndTime {
		return nil, fmt.Errorf("%w: start time not before end time", ErrInvalidCampaignParams)
	}
	if params.CliffDuration < 0 || params.VestingDuration < 0 {
		return nil, fmt.Errorf("%w: negative vesting durations", ErrInvalidCampaignParams)
	}
	if params.CliffDuration > params.VestingDuration {
		return nil, fmt.Errorf("%w: cliff exceeds vesting duration", ErrInvalidCampaignParams)
	}
	if params.TotalBudget == nil || params.TotalBudget.Sign() <= 0 {
		return nil, fmt.Errorf("%w: total budget must be positive", ErrInvalidCampaignParams)
	}
	if params.RewardRateBps == 0 || params.RewardRateBps > RewardBpsDenominator {
		return nil, fmt.Errorf("%w: reward rate %d bps out of range", ErrInvalidCampaignParams, params.RewardRateBps)
	}

	venueInfo, ok, err := e.state.VenueGet(venue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrVenueNotFound, venue)
	}
	rewardAsset := venueInfo.Asset1
	if params.RewardAssetIsPrimary {
		rewardAsset = venueInfo.Asset0
	}
	sponsor := params.Sponsor
	if isZeroAddress(sponsor) {
		sponsor = caller
	}

	existing, found, err := e.state.BondConfigGet(venue, bondType)
	if err != nil {
		return nil, err
	}
	if found {
		if !existing.Exhausted() && now <= existing.EndTime {
			return nil, fmt.Errorf("%w: %s campaign on %x has remaining budget", ErrCampaignActive, bondType, venue)
		}
		// Return the unused remainder to the prior sponsor before the
		// overwrite commits.
		if remainder := existing.Remaining(); remainder.Sign() > 0 {
			if err := e.token.Push(existing.RewardAsset, existing.Sponsor, remainder); err != nil {
				return nil, err
			}
			settled := existing.Clone()
			settled.Distributed = cloneBigInt(settled.TotalBudget)
			if err := e.state.BondConfigPut(settled); err != nil {
				return nil, err
			}
		}
	}

	budget := cloneBigInt(params.TotalBudget)
	if err := e.token.Pull(rewardAsset, sponsor, budget); err != nil {
		return nil, err
	}

	cfg := &BondConfig{
		Venue:                venue,
		BondType:             bondType,
		Sponsor:              sponsor,
		RewardAsset:          rewardAsset,
		RewardAssetIsPrimary: params.RewardAssetIsPrimary,
		TotalBudget:          budget,
		Distributed:          big.NewInt(0),
		RewardRateBps:        params.RewardRateBps,
		StartTime:            start,
		EndTime:              params.EndTime,
		CliffDuration:        params.CliffDuration,
		VestingDuration:      params.VestingDuration,
	}
	if err := e.state.BondConfigPut(cfg); err != nil {
		_ = e.token.Push(rewardAsset, sponsor, budget)
		return nil, err
	}

	e.emit(newCampaignCreatedEvent(cfg))
	return cfg.Clone(), nil
}
