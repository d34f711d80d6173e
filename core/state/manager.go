// Package state persists the bond engine's working set (venues, campaigns,
// vesting records, delegations, accounts) over a generic key-value database
// with JSON codecs and prefixed keys.
package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"bondvest/core/types"
	"bondvest/native/bond"
	"bondvest/storage"
)

const (
	prefixVenue    = "bv/venue/"
	prefixCampaign = "bv/campaign/"
	prefixVesting  = "bv/vesting/"
	prefixDelegate = "bv/delegate/"
	prefixOperator = "bv/operator/"
	prefixAccount  = "bv/account/"
	keyClaimSeq    = "bv/claimseq"
)

// Manager mediates all reads and writes between the engine and the backing
// database. It also buffers generic events appended during an operation so
// callers (RPC, tests) can drain them afterwards.
type Manager struct {
	db storage.Database

	mu     sync.Mutex
	events []types.Event
}

// NewManager creates a state manager over the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func venueKey(venue [20]byte) []byte {
	return append([]byte(prefixVenue), venue[:]...)
}

func campaignKey(venue [20]byte, bondType bond.BondType) []byte {
	key := append([]byte(prefixCampaign), venue[:]...)
	return append(key, byte(bondType))
}

func vestingKey(claimID uint64) []byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], claimID)
	return append([]byte(prefixVesting), id[:]...)
}

func delegateKey(claimID uint64) []byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], claimID)
	return append([]byte(prefixDelegate), id[:]...)
}

func operatorKey(owner, operator [20]byte) []byte {
	key := append([]byte(prefixOperator), owner[:]...)
	return append(key, operator[:]...)
}

func accountKey(addr [20]byte) []byte {
	return append([]byte(prefixAccount), addr[:]...)
}

// VenuePut registers a venue and its asset pair.
func (m *Manager) VenuePut(venue *bond.Venue) error {
	if venue == nil {
		return fmt.Errorf("state: nil venue")
	}
	return m.putJSON(venueKey(venue.Address), venue)
}

// VenueGet resolves a registered venue.
func (m *Manager) VenueGet(addr [20]byte) (*bond.Venue, bool, error) {
	out := new(bond.Venue)
	ok, err := m.getJSON(venueKey(addr), out)
	if err != nil || !ok {
		return nil, false, err
	}
	return out, true, nil
}

// BondConfigGet loads the campaign stored for the (venue, bondType) pair.
func (m *Manager) BondConfigGet(venue [20]byte, bondType bond.BondType) (*bond.BondConfig, bool, error) {
	out := new(bond.BondConfig)
	ok, err := m.getJSON(campaignKey(venue, bondType), out)
	if err != nil || !ok {
		return nil, false, err
	}
	return out, true, nil
}

// BondConfigPut stores the campaign under its (venue, bondType) key.
func (m *Manager) BondConfigPut(cfg *bond.BondConfig) error {
	if cfg == nil {
		return fmt.Errorf("state: nil bond config")
	}
	return m.putJSON(campaignKey(cfg.Venue, cfg.BondType), cfg)
}

// VestingGet loads a vesting record by claim id.
func (m *Manager) VestingGet(claimID uint64) (*bond.VestingRecord, bool, error) {
	out := new(bond.VestingRecord)
	ok, err := m.getJSON(vestingKey(claimID), out)
	if err != nil || !ok {
		return nil, false, err
	}
	return out, true, nil
}

// VestingPut stores a vesting record.
func (m *Manager) VestingPut(record *bond.VestingRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil vesting record")
	}
	return m.putJSON(vestingKey(record.ClaimID), record)
}

// VestingDelete removes a vesting record. Only used to unwind a partially
// applied issuance; settled records are never deleted.
func (m *Manager) VestingDelete(claimID uint64) error {
	return m.db.Delete(vestingKey(claimID))
}

// NextClaimID allocates the next claim identifier. Identifiers start at 1
// and increase strictly across both issuance paths.
func (m *Manager) NextClaimID() (uint64, error) {
	var seq uint64
	raw, err := m.db.Get([]byte(keyClaimSeq))
	switch {
	case err == nil:
		if len(raw) != 8 {
			return 0, fmt.Errorf("state: corrupt claim sequence")
		}
		seq = binary.BigEndian.Uint64(raw)
	case errors.Is(err, storage.ErrKeyNotFound):
		seq = 0
	default:
		return 0, err
	}
	seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := m.db.Put([]byte(keyClaimSeq), buf[:]); err != nil {
		return 0, err
	}
	return seq, nil
}

// ClaimDelegate returns the per-claim delegate, zero when unset.
func (m *Manager) ClaimDelegate(claimID uint64) ([20]byte, error) {
	var delegate [20]byte
	raw, err := m.db.Get(delegateKey(claimID))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return delegate, nil
		}
		return delegate, err
	}
	copy(delegate[:], raw)
	return delegate, nil
}

// SetClaimDelegate stores the per-claim delegate; the zero address clears it.
func (m *Manager) SetClaimDelegate(claimID uint64, delegate [20]byte) error {
	if delegate == ([20]byte{}) {
		return m.db.Delete(delegateKey(claimID))
	}
	return m.db.Put(delegateKey(claimID), delegate[:])
}

// OperatorApproval reports whether the operator holds a blanket approval
// from the owner.
func (m *Manager) OperatorApproval(owner, operator [20]byte) (bool, error) {
	ok, err := m.db.Has(operatorKey(owner, operator))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// SetOperatorApproval grants or revokes a blanket approval.
func (m *Manager) SetOperatorApproval(owner, operator [20]byte, approved bool) error {
	if !approved {
		return m.db.Delete(operatorKey(owner, operator))
	}
	return m.db.Put(operatorKey(owner, operator), []byte{1})
}

// GetAccount loads the fungible balance account for an address, returning an
// empty account when none is stored.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	out := types.NewAccount()
	ok, err := m.getJSON(accountKey(addr), out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	return out, nil
}

// PutAccount stores the account for an address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		account = types.NewAccount()
	}
	return m.putJSON(accountKey(addr), account)
}

// KVGet reads a raw value, distinguishing missing keys from failures.
func (m *Manager) KVGet(key []byte) ([]byte, bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// KVPut stores a raw value.
func (m *Manager) KVPut(key []byte, value []byte) error {
	return m.db.Put(key, value)
}

// KVDelete removes a raw value.
func (m *Manager) KVDelete(key []byte) error {
	return m.db.Delete(key)
}

// AppendEvent buffers a generic event emitted during the current operation.
func (m *Manager) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *evt.Clone())
}

// DrainEvents returns the buffered events and resets the buffer.
func (m *Manager) DrainEvents() []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	drained := m.events
	m.events = nil
	return drained
}
