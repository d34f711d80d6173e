package bond

import (
	"errors"
	"fmt"
	"math/big"

	"bondvest/core/events"
	"bondvest/core/types"
)

type transferCall struct {
	asset  string
	addr   [20]byte
	amount *big.Int
}

type mockState struct {
	venues    map[[20]byte]*Venue
	configs   map[string]*BondConfig
	vestings  map[uint64]*VestingRecord
	seq       uint64
	delegates map[uint64][20]byte
	operators map[string]bool
	events    []types.Event

	failConfigPut  bool
	failVestingPut bool
}

func newMockState() *mockState {
	return &mockState{
		venues:    make(map[[20]byte]*Venue),
		configs:   make(map[string]*BondConfig),
		vestings:  make(map[uint64]*VestingRecord),
		delegates: make(map[uint64][20]byte),
		operators: make(map[string]bool),
	}
}

func configKey(venue [20]byte, bondType BondType) string {
	return fmt.Sprintf("%x/%d", venue, bondType)
}

func operatorMapKey(owner, operator [20]byte) string {
	return fmt.Sprintf("%x/%x", owner, operator)
}

func (m *mockState) VenueGet(venue [20]byte) (*Venue, bool, error) {
	v, ok := m.venues[venue]
	if !ok {
		return nil, false, nil
	}
	clone := *v
	return &clone, true, nil
}

func (m *mockState) BondConfigGet(venue [20]byte, bondType BondType) (*BondConfig, bool, error) {
	cfg, ok := m.configs[configKey(venue, bondType)]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) BondConfigPut(cfg *BondConfig) error {
	if m.failConfigPut {
		return errors.New("config put failed")
	}
	m.configs[configKey(cfg.Venue, cfg.BondType)] = cfg.Clone()
	return nil
}

func (m *mockState) VestingGet(claimID uint64) (*VestingRecord, bool, error) {
	record, ok := m.vestings[claimID]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) VestingPut(record *VestingRecord) error {
	if m.failVestingPut {
		return errors.New("vesting put failed")
	}
	m.vestings[record.ClaimID] = record.Clone()
	return nil
}

func (m *mockState) VestingDelete(claimID uint64) error {
	delete(m.vestings, claimID)
	return nil
}

func (m *mockState) NextClaimID() (uint64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockState) ClaimDelegate(claimID uint64) ([20]byte, error) {
	return m.delegates[claimID], nil
}

func (m *mockState) SetClaimDelegate(claimID uint64, delegate [20]byte) error {
	if delegate == ([20]byte{}) {
		delete(m.delegates, claimID)
		return nil
	}
	m.delegates[claimID] = delegate
	return nil
}

func (m *mockState) OperatorApproval(owner, operator [20]byte) (bool, error) {
	return m.operators[operatorMapKey(owner, operator)], nil
}

func (m *mockState) SetOperatorApproval(owner, operator [20]byte, approved bool) error {
	if !approved {
		delete(m.operators, operatorMapKey(owner, operator))
		return nil
	}
	m.operators[operatorMapKey(owner, operator)] = true
	return nil
}

func (m *mockState) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	m.events = append(m.events, *evt.Clone())
}

func (m *mockState) lastSkipReason() string {
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == events.TypeBondIssuanceSkipped {
			return m.events[i].Attributes["reason"]
		}
	}
	return ""
}

type mockVault struct {
	pulls    []transferCall
	pushes   []transferCall
	failPull bool
	failPush bool
}

func (v *mockVault) Pull(asset string, from [20]byte, amount *big.Int) error {
	if v.failPull {
		return errors.New("pull rejected")
	}
	v.pulls = append(v.pulls, transferCall{asset: asset, addr: from, amount: new(big.Int).Set(amount)})
	return nil
}

func (v *mockVault) Push(asset string, to [20]byte, amount *big.Int) error {
	if v.failPush {
		return errors.New("push rejected")
	}
	v.pushes = append(v.pushes, transferCall{asset: asset, addr: to, amount: new(big.Int).Set(amount)})
	return nil
}

type mockClaims struct {
	owners   map[uint64][20]byte
	failMint bool
}

func newMockClaims() *mockClaims {
	return &mockClaims{owners: make(map[uint64][20]byte)}
}

func (c *mockClaims) Mint(owner [20]byte, claimID uint64) error {
	if c.failMint {
		return errors.New("mint rejected")
	}
	if _, exists := c.owners[claimID]; exists {
		return errors.New("duplicate claim id")
	}
	c.owners[claimID] = owner
	return nil
}

func (c *mockClaims) OwnerOf(claimID uint64) ([20]byte, bool) {
	owner, ok := c.owners[claimID]
	return owner, ok
}

func (c *mockClaims) transfer(claimID uint64, to [20]byte) {
	c.owners[claimID] = to
}

type captureEmitter struct {
	events []events.Event
}

func (e *captureEmitter) Emit(evt events.Event) {
	e.events = append(e.events, evt)
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

const day = int64(86_400)

func testVenue() *Venue {
	return &Venue{Address: addr(0xAA), Asset0: "BND", Asset1: "USD"}
}

func newTestEngine(now int64) (*Engine, *mockState, *mockVault, *mockClaims, *captureEmitter) {
	st := newMockState()
	st.venues[testVenue().Address] = testVenue()
	vault := &mockVault{}
	claims := newMockClaims()
	emitter := &captureEmitter{}
	engine := NewEngine()
	engine.SetState(st)
	engine.SetToken(vault)
	engine.SetClaims(claims)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return now })
	return engine, st, vault, claims, emitter
}

func seedCampaign(st *mockState, bondType BondType, budget int64, rateBps uint32, start, end int64) *BondConfig {
	cfg := &BondConfig{
		Venue:                testVenue().Address,
		BondType:             bondType,
		Sponsor:              addr(0x01),
		RewardAsset:          "BND",
		RewardAssetIsPrimary: true,
		TotalBudget:          big.NewInt(budget),
		Distributed:          big.NewInt(0),
		RewardRateBps:        rateBps,
		StartTime:            start,
		EndTime:              end,
		CliffDuration:        2 * day,
		VestingDuration:      6 * day,
	}
	st.configs[configKey(cfg.Venue, cfg.BondType)] = cfg.Clone()
	return cfg
}
