// Package token provides the fungible transfer capability consumed by the
// bond engine: a multi-asset account ledger plus a vault view that pulls
// campaign funding in and pays rewards out.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"bondvest/core/types"
)

var (
	ErrInvalidAsset         = errors.New("token: invalid asset")
	ErrInvalidAmount        = errors.New("token: amount must be positive")
	ErrInsufficientBalance  = errors.New("token: insufficient balance")
	ErrStateNotConfigured   = errors.New("token: account state not configured")
	ErrVaultNotConfigured   = errors.New("token: vault address not configured")
	ErrSelfTransferRejected = errors.New("token: transfer to self")
)

// accountState is the persistence the ledger needs for account balances.
type accountState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Ledger moves fungible balances between accounts. Transfers are atomic: on
// any failure neither account is written.
type Ledger struct {
	state accountState
}

// NewLedger creates a ledger over the provided account state.
func NewLedger(state accountState) *Ledger {
	return &Ledger{state: state}
}

// NormalizeAsset canonicalises an asset symbol to trimmed uppercase.
func NormalizeAsset(asset string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(asset))
	if trimmed == "" {
		return "", ErrInvalidAsset
	}
	return trimmed, nil
}

// BalanceOf reports the balance an address holds for the asset.
func (l *Ledger) BalanceOf(asset string, addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrStateNotConfigured
	}
	normalized, err := NormalizeAsset(asset)
	if err != nil {
		return nil, err
	}
	acc, err := l.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Balance(normalized), nil
}

// Mint credits freshly issued units to an account. Intended for genesis and
// test funding; the bond engine itself never mints.
func (l *Ledger) Mint(asset string, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrStateNotConfigured
	}
	normalized, err := NormalizeAsset(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	acc.SetBalance(normalized, new(big.Int).Add(acc.Balance(normalized), amount))
	return l.state.PutAccount(to, acc)
}

// Transfer moves amount of the asset between two accounts.
func (l *Ledger) Transfer(asset string, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrStateNotConfigured
	}
	normalized, err := NormalizeAsset(asset)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransferRejected
	}
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	balance := fromAcc.Balance(normalized)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, normalized, balance, amount)
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc.SetBalance(normalized, new(big.Int).Sub(balance, amount))
	toAcc.SetBalance(normalized, new(big.Int).Add(toAcc.Balance(normalized), amount))
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to, toAcc)
}

// Vault exposes the ledger through the pull/push capability the bond engine
// consumes, anchored on a fixed module vault address.
type Vault struct {
	ledger  *Ledger
	address [20]byte
}

// NewVault wraps the ledger with the module vault address.
func NewVault(ledger *Ledger, address [20]byte) *Vault {
	return &Vault{ledger: ledger, address: address}
}

// Address returns the vault's account address.
func (v *Vault) Address() [20]byte { return v.address }

// Pull moves funds from the payer into the vault.
func (v *Vault) Pull(asset string, from [20]byte, amount *big.Int) error {
	if v == nil || v.ledger == nil {
		return ErrStateNotConfigured
	}
	if v.address == ([20]byte{}) {
		return ErrVaultNotConfigured
	}
	return v.ledger.Transfer(asset, from, v.address, amount)
}

// Push pays funds out of the vault to the recipient.
func (v *Vault) Push(asset string, to [20]byte, amount *big.Int) error {
	if v == nil || v.ledger == nil {
		return ErrStateNotConfigured
	}
	if v.address == ([20]byte{}) {
		return ErrVaultNotConfigured
	}
	return v.ledger.Transfer(asset, v.address, to, amount)
}
