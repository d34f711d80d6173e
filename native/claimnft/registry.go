// Package claimnft implements the non-fungible ownership registry backing
// bond claims: minting, ownership lookup and transfer with the usual
// owner/approved/operator authorization. The vesting accounting itself lives
// in the bond engine, which only consumes ownership reads from here.
package claimnft

import (
	"encoding/binary"
	"errors"
	"strconv"

	"bondvest/core/types"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrTokenExists   = errors.New("claimnft: token already minted")
	ErrTokenNotFound = errors.New("claimnft: token not found")
	ErrZeroAddress   = errors.New("claimnft: zero address")
	ErrWrongOwner    = errors.New("claimnft: from is not the owner")
	ErrUnauthorized  = errors.New("claimnft: caller not authorized")
)

const (
	eventMinted      = "claimnft.minted"
	eventTransferred = "claimnft.transferred"
)

const (
	prefixOwner    = "nft/owner/"
	prefixApproved = "nft/approved/"
	prefixOperator = "nft/operator/"
	prefixBalance  = "nft/balance/"
)

// registryState describes the raw key-value access the registry needs from
// the surrounding state implementation.
type registryState interface {
	KVGet(key []byte) ([]byte, bool, error)
	KVPut(key []byte, value []byte) error
	KVDelete(key []byte) error
}

// Registry tracks ownership of claim tokens over a keyed store. It follows
// the standard non-fungible ownership model: one owner per token, an
// optional per-token approved address cleared on transfer, and per-owner
// operator approvals.
type Registry struct {
	st       registryState
	appendFn func(*types.Event)
}

// NewRegistry creates a registry backed by the provided state.
func NewRegistry(st registryState) *Registry {
	return &Registry{st: st}
}

// SetEventSink configures an optional sink for generic registry events.
func (r *Registry) SetEventSink(appendFn func(*types.Event)) {
	r.appendFn = appendFn
}

func (r *Registry) appendEvent(evt *types.Event) {
	if r == nil || r.appendFn == nil || evt == nil {
		return
	}
	r.appendFn(evt)
}

func tokenKey(prefix string, tokenID uint64) []byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], tokenID)
	return append([]byte(prefix), id[:]...)
}

func operatorKey(owner, operator [20]byte) []byte {
	key := append([]byte(prefixOperator), owner[:]...)
	return append(key, operator[:]...)
}

func balanceKey(owner [20]byte) []byte {
	return append([]byte(prefixBalance), owner[:]...)
}

func (r *Registry) readOwner(tokenID uint64) ([20]byte, bool, error) {
	var owner [20]byte
	raw, ok, err := r.st.KVGet(tokenKey(prefixOwner, tokenID))
	if err != nil || !ok {
		return owner, false, err
	}
	copy(owner[:], raw)
	return owner, true, nil
}

func (r *Registry) adjustBalance(owner [20]byte, delta int64) error {
	var balance uint64
	raw, ok, err := r.st.KVGet(balanceKey(owner))
	if err != nil {
		return err
	}
	if ok && len(raw) == 8 {
		balance = binary.BigEndian.Uint64(raw)
	}
	balance = uint64(int64(balance) + delta)
	if balance == 0 {
		return r.st.KVDelete(balanceKey(owner))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], balance)
	return r.st.KVPut(balanceKey(owner), buf[:])
}

// Mint assigns a fresh token to the owner. Token ids are chosen by the
// caller (the bond engine allocates them strictly increasing) and must not
// collide with an existing token.
func (r *Registry) Mint(owner [20]byte, tokenID uint64) error {
	if owner == ([20]byte{}) {
		return ErrZeroAddress
	}
	if _, exists, err := r.readOwner(tokenID); err != nil {
		return err
	} else if exists {
		return ErrTokenExists
	}
	if err := r.st.KVPut(tokenKey(prefixOwner, tokenID), owner[:]); err != nil {
		return err
	}
	if err := r.adjustBalance(owner, 1); err != nil {
		return err
	}
	r.appendEvent(&types.Event{Type: eventMinted, Attributes: map[string]string{
		"tokenId": strconv.FormatUint(tokenID, 10),
		"owner":   "0x" + common.Bytes2Hex(owner[:]),
	}})
	return nil
}

// OwnerOf reports the current owner of the token. Lookup failures read as
// "no owner", matching the capability the bond engine consumes.
func (r *Registry) OwnerOf(tokenID uint64) ([20]byte, bool) {
	owner, ok, err := r.readOwner(tokenID)
	if err != nil {
		return [20]byte{}, false
	}
	return owner, ok
}

// BalanceOf reports how many tokens the address currently owns.
func (r *Registry) BalanceOf(owner [20]byte) uint64 {
	raw, ok, err := r.st.KVGet(balanceKey(owner))
	if err != nil || !ok || len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

// TransferFrom moves the token from its current owner to the recipient. The
// caller must be the owner, the per-token approved address, or an operator
// of the owner. Any per-token approval is cleared by the transfer.
func (r *Registry) TransferFrom(caller, from, to [20]byte, tokenID uint64) error {
	owner, ok, err := r.readOwner(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if owner != from {
		return ErrWrongOwner
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	if caller != owner {
		approved, _ := r.GetApproved(tokenID)
		if approved != caller && !r.IsApprovedForAll(owner, caller) {
			return ErrUnauthorized
		}
	}
	if err := r.st.KVDelete(tokenKey(prefixApproved, tokenID)); err != nil {
		return err
	}
	if err := r.st.KVPut(tokenKey(prefixOwner, tokenID), to[:]); err != nil {
		return err
	}
	if err := r.adjustBalance(from, -1); err != nil {
		return err
	}
	if err := r.adjustBalance(to, 1); err != nil {
		return err
	}
	r.appendEvent(&types.Event{Type: eventTransferred, Attributes: map[string]string{
		"tokenId": strconv.FormatUint(tokenID, 10),
		"from":    "0x" + common.Bytes2Hex(from[:]),
		"to":      "0x" + common.Bytes2Hex(to[:]),
	}})
	return nil
}

// Approve sets or clears (zero address) the approved address for a token.
// Only the owner or one of the owner's operators may approve.
func (r *Registry) Approve(caller, approved [20]byte, tokenID uint64) error {
	owner, ok, err := r.readOwner(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if caller != owner && !r.IsApprovedForAll(owner, caller) {
		return ErrUnauthorized
	}
	if approved == ([20]byte{}) {
		return r.st.KVDelete(tokenKey(prefixApproved, tokenID))
	}
	return r.st.KVPut(tokenKey(prefixApproved, tokenID), approved[:])
}

// GetApproved returns the approved address for the token, if any.
func (r *Registry) GetApproved(tokenID uint64) ([20]byte, bool) {
	var approved [20]byte
	raw, ok, err := r.st.KVGet(tokenKey(prefixApproved, tokenID))
	if err != nil || !ok {
		return approved, false
	}
	copy(approved[:], raw)
	return approved, true
}

// SetApprovalForAll grants or revokes an operator for all of the caller's
// tokens.
func (r *Registry) SetApprovalForAll(caller, operator [20]byte, approved bool) error {
	if operator == ([20]byte{}) {
		return ErrZeroAddress
	}
	if !approved {
		return r.st.KVDelete(operatorKey(caller, operator))
	}
	return r.st.KVPut(operatorKey(caller, operator), []byte{1})
}

// IsApprovedForAll reports whether the operator may act on all of the
// owner's tokens.
func (r *Registry) IsApprovedForAll(owner, operator [20]byte) bool {
	_, ok, err := r.st.KVGet(operatorKey(owner, operator))
	return err == nil && ok
}
