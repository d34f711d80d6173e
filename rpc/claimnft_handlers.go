package rpc

import (
	"encoding/json"
	"errors"
	"strings"

	"bondvest/native/claimnft"
)

type transferClaimParams struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	ClaimID uint64 `json:"claimId"`
}

func (s *Server) handleTransferClaim(params []json.RawMessage) (interface{}, *RPCError) {
	var p transferClaimParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	from, err := parseAddr(p.From)
	if err != nil {
		return nil, invalidParams("from", err)
	}
	to, err := parseAddr(p.To)
	if err != nil {
		return nil, invalidParams("to", err)
	}
	if err := s.claims.TransferFrom(caller, from, to, p.ClaimID); err != nil {
		return nil, registryError(err)
	}
	return map[string]bool{"ok": true}, nil
}

type approveClaimParams struct {
	Caller   string `json:"caller"`
	Approved string `json:"approved,omitempty"`
	ClaimID  uint64 `json:"claimId"`
}

func (s *Server) handleApproveClaim(params []json.RawMessage) (interface{}, *RPCError) {
	var p approveClaimParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddr(p.Caller)
	if err != nil {
		return nil, invalidParams("caller", err)
	}
	var approved [20]byte
	if strings.TrimSpace(p.Approved) != "" {
		approved, err = parseAddr(p.Approved)
		if err != nil {
			return nil, invalidParams("approved", err)
		}
	}
	if err := s.claims.Approve(caller, approved, p.ClaimID); err != nil {
		return nil, registryError(err)
	}
	return map[string]bool{"ok": true}, nil
}

type claimSetOperatorParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (s *Server) handleClaimSetOperator(params []json.RawMessage) (interface{}, *RPCError) {
	var p claimSetOperatorParams
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
	if err := s.claims.SetApprovalForAll(caller, operator, p.Approved); err != nil {
		return nil, registryError(err)
	}
	return map[string]bool{"ok": true}, nil
}

type claimOwnerParams struct {
	ClaimID uint64 `json:"claimId"`
}

func (s *Server) handleClaimOwner(params []json.RawMessage) (interface{}, *RPCError) {
	var p claimOwnerParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, ok := s.claims.OwnerOf(p.ClaimID)
	if !ok {
		return nil, &RPCError{Code: codeInvalidRequest, Message: claimnft.ErrTokenNotFound.Error()}
	}
	return map[string]string{"owner": hexAddr(owner)}, nil
}

func registryError(err error) *RPCError {
	switch {
	case errors.Is(err, claimnft.ErrTokenNotFound):
		return &RPCError{Code: codeInvalidRequest, Message: err.Error()}
	case errors.Is(err, claimnft.ErrUnauthorized),
		errors.Is(err, claimnft.ErrWrongOwner),
		errors.Is(err, claimnft.ErrZeroAddress):
		return &RPCError{Code: codeInvalidRequest, Message: err.Error()}
	default:
		return &RPCError{Code: codeServerError, Message: err.Error()}
	}
}
