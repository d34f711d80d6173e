package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"bondvest/native/bond"
	"bondvest/observability"
)

type createCampaignParams struct {
	Caller               string `json:"caller"`
	Venue                string `json:"venue"`
	BondType             string `json:"bondType"`
	Sponsor              string `json:"sponsor,omitempty"`
	RewardAssetIsPrimary bool   `json:"rewardAssetIsPrimary"`
	TotalBudget          string `json:"totalBudget"`
	RewardRateBps        uint32 `json:"rewardRateBps"`
	StartTime            int64  `json:"startTime,omitempty"`
	EndTime              int64  `json:"endTime"`
	CliffDuration        int64  `json:"cliffDuration"`
	VestingDuration      int64  `json:"vestingDuration"`
}

type campaignResult struct {
	Venue       string `json:"venue"`
	BondType    string `json:"bondType"`
	Sponsor     string `json:"sponsor"`
	RewardAsset string `json:"rewardAsset"`
	TotalBudget string `json:"totalBudget"`
	Distributed string `json:"distributed"`
	RateBps     uint32 `json:"rewardRateBps"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	Cliff       int64  `json:"cliffDuration"`
	Vesting     int64  `json:"vestingDuration"`
}

func campaignToResult(cfg *bond.BondConfig) campaignResult {
	return campaignResult{
		Venue:       hexAddr(cfg.Venue),
		BondType:    cfg.BondType.String(),
		Sponsor:     hexAddr(cfg.Sponsor),
		RewardAsset: cfg.RewardAsset,
		TotalBudget: cfg.TotalBudget.String(),
		Distributed: cfg.Distributed.String(),
		RateBps:     cfg.RewardRateBps,
		StartTime:   cfg.StartTime,
		EndTime:     cfg.EndTime,
		Cliff:       cfg.CliffDuration,
		Vesting:     cfg.VestingDuration,
	}
}

func (s *Server) handleCreateCampaign(params []json.RawMessage) (interface{}, *RPCError) {
	var p createCampaignParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	venue, err := parseAddr(p.Venue)
	if err != nil {
		return nil, invalidParams("venue", err)
	}
	bondType, err := bond.ParseBondType(p.BondType)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	budget, err := parseAmount(p.TotalBudget)
	if err != nil {
		return nil, invalidParams("totalBudget", err)
	}
	campaign := bond.CampaignParams{
		RewardAssetIsPrimary: p.RewardAssetIsPrimary,
		TotalBudget:          budget,
		RewardRateBps:        p.RewardRateBps,
		StartTime:            p.StartTime,
		EndTime:              p.EndTime,
		CliffDuration:        p.CliffDuration,
		VestingDuration:      p.VestingDuration,
	}
	if strings.TrimSpace(p.Sponsor) != "" {
		sponsor, err := parseAddr(p.Sponsor)
		if err != nil {
			return nil, invalidParams("sponsor", err)
		}
		campaign.Sponsor = sponsor
	}
	cfg, err := s.engine.CreateCampaign(caller, venue, bondType, campaign)
	if err != nil {
		return nil, engineError(err)
	}
	observability.Bond().CampaignsCreated.Inc()
	return campaignToResult(cfg), nil
}

type getCampaignParams struct {
	Venue    string `json:"venue"`
	BondType string `json:"bondType"`
}

func (s *Server) handleGetCampaign(params []json.RawMessage) (interface{}, *RPCError) {
	var p getCampaignParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	venue, err := parseAddr(p.Venue)
	if err != nil {
		return nil, invalidParams("venue", err)
	}
	bondType, err := bond.ParseBondType(p.BondType)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	cfg, err := s.engine.GetCampaign(venue, bondType)
	if err != nil {
		return nil, engineError(err)
	}
	return campaignToResult(cfg), nil
}

type claimParams struct {
	Caller  string `json:"caller"`
	ClaimID uint64 `json:"claimId"`
}

func (s *Server) handleClaim(params []json.RawMessage) (interface{}, *RPCError) {
	var p claimParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	paid, err := s.engine.Claim(caller, p.ClaimID)
	if err != nil {
		observability.Bond().ClaimErrors.WithLabelValues(errorKind(err)).Inc()
		return nil, engineError(err)
	}
	observability.Bond().ClaimsPaid.Inc()
	return map[string]string{"paid": paid.String()}, nil
}

type getClaimParams struct {
	ClaimID   uint64 `json:"claimId"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type claimResult struct {
	ClaimID        uint64 `json:"claimId"`
	Owner          string `json:"owner"`
	Venue          string `json:"venue"`
	BondType       string `json:"bondType"`
	RewardAsset    string `json:"rewardAsset"`
	TotalAllocated string `json:"totalAllocated"`
	Vested         string `json:"vested"`
	Claimable      string `json:"claimable"`
	Claimed        string `json:"claimed"`
	Unvested       string `json:"unvested"`
	VestingStart   int64  `json:"vestingStart"`
	VestingEnd     int64  `json:"vestingEnd"`
	CliffTime      int64  `json:"cliffTime"`
}

func (s *Server) handleGetClaim(params []json.RawMessage) (interface{}, *RPCError) {
	var p getClaimParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	var (
		status *bond.ClaimState
		err    error
	)
	if p.Timestamp != nil {
		status, err = s.engine.ClaimStateAt(p.ClaimID, *p.Timestamp)
	} else {
		status, err = s.engine.ClaimStateNow(p.ClaimID)
	}
	if err != nil {
		return nil, engineError(err)
	}
	return claimResult{
		ClaimID:        status.ClaimID,
		Owner:          hexAddr(status.Owner),
		Venue:          hexAddr(status.Venue),
		BondType:       status.BondType.String(),
		RewardAsset:    status.RewardAsset,
		TotalAllocated: status.TotalAllocated.String(),
		Vested:         status.Vested.String(),
		Claimable:      status.Claimable.String(),
		Claimed:        status.Claimed.String(),
		Unvested:       status.Unvested.String(),
		VestingStart:   status.VestingStart,
		VestingEnd:     status.VestingEnd,
		CliffTime:      status.CliffTime,
	}, nil
}

type vestedAtParams struct {
	ClaimID   uint64 `json:"claimId"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) handleVestedAt(params []json.RawMessage) (interface{}, *RPCError) {
	var p vestedAtParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	vested, err := s.engine.VestedAt(p.ClaimID, p.Timestamp)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"vested": vested.String()}, nil
}

type setDelegateParams struct {
	Caller   string `json:"caller"`
	ClaimID  uint64 `json:"claimId"`
	Delegate string `json:"delegate,omitempty"`
}

func (s *Server) handleSetDelegate(params []json.RawMessage) (interface{}, *RPCError) {
	var p setDelegateParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	var delegate [20]byte
	if strings.TrimSpace(p.Delegate) != "" {
		delegate, err = parseAddr(p.Delegate)
		if err != nil {
			return nil, invalidParams("delegate", err)
		}
	}
	if err := s.engine.SetClaimDelegate(caller, p.ClaimID, delegate); err != nil {
		return nil, engineError(err)
	}
	return map[string]bool{"ok": true}, nil
}

type setOperatorParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (s *Server) handleSetOperator(params []json.RawMessage) (interface{}, *RPCError) {
	var p setOperatorParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	operator, err := parseAddr(p.Operator)
	if err != nil {
		return nil, invalidParams("operator", err)
	}
	if err := s.engine.SetOperatorApproval(caller, operator, p.Approved); err != nil {
		return nil, engineError(err)
	}
	return map[string]bool{"ok": true}, nil
}

func parseAddr(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(s)
	if !common.IsHexAddress(trimmed) {
		return addr, fmt.Errorf("invalid address %q", s)
	}
	copy(addr[:], common.HexToAddress(trimmed).Bytes())
	return addr, nil
}

func hexAddr(addr [20]byte) string {
	return common.BytesToAddress(addr[:]).Hex()
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", s)
	}
	return amount, nil
}

func invalidParams(field string, err error) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("%s: %v", field, err)}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, bond.ErrNotAuthorized), errors.Is(err, bond.ErrNotOwner):
		return "unauthorized"
	case errors.Is(err, bond.ErrInvalidClaim):
		return "invalid_claim"
	case errors.Is(err, bond.ErrNothingToClaim):
		return "nothing_to_claim"
	default:
		return "internal"
	}
}

func engineError(err error) *RPCError {
	switch {
	case errors.Is(err, bond.ErrInvalidCampaignParams),
		errors.Is(err, bond.ErrVenueNotFound),
		errors.Is(err, bond.ErrCampaignActive):
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, bond.ErrCampaignNotFound),
		errors.Is(err, bond.ErrInvalidClaim),
		errors.Is(err, bond.ErrNothingToClaim),
		errors.Is(err, bond.ErrNotAuthorized),
		errors.Is(err, bond.ErrNotOwner):
		return &RPCError{Code: codeInvalidRequest, Message: err.Error()}
	default:
		return &RPCError{Code: codeServerError, Message: err.Error()}
	}
}
