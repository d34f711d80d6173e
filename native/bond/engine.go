package bond

import (
	"math/big"
	"time"

	"bondvest/core/events"
	"bondvest/core/types"
)

// engineState describes the persistence the bond engine needs from the
// surrounding state implementation.
type engineState interface {
	VenueGet(venue [20]byte) (*Venue, bool, error)
	BondConfigGet(venue [20]byte, bondType BondType) (*BondConfig, bool, error)
	BondConfigPut(cfg *BondConfig) error
	VestingGet(claimID uint64) (*VestingRecord, bool, error)
	VestingPut(record *VestingRecord) error
	VestingDelete(claimID uint64) error
	NextClaimID() (uint64, error)
	ClaimDelegate(claimID uint64) ([20]byte, error)
	SetClaimDelegate(claimID uint64, delegate [20]byte) error
	OperatorApproval(owner, operator [20]byte) (bool, error)
	SetOperatorApproval(owner, operator [20]byte, approved bool) error
	AppendEvent(evt *types.Event)
}

// TokenVault is the external fungible transfer capability. Pull moves funds
// from the payer into the module vault; Push pays out of the vault. Either
// call may fail and the failure aborts the enclosing operation.
type TokenVault interface {
	Pull(asset string, from [20]byte, amount *big.Int) error
	Push(asset string, to [20]byte, amount *big.Int) error
}

// ClaimRegistry is the non-fungible ownership registry the engine consumes.
// Ownership transfer mechanics live entirely behind this interface; the
// engine only mints and reads current ownership.
type ClaimRegistry interface {
	Mint(owner [20]byte, claimID uint64) error
	OwnerOf(claimID uint64) ([20]byte, bool)
}

// Engine wires the bond campaign accounting with external state, the token
// vault and the claim ownership registry. All operations are synchronous and
// run to completion before the next event is processed.
type Engine struct {
	state   engineState
	token   TokenVault
	claims  ClaimRegistry
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a bond engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the fungible transfer capability.
func (e *Engine) SetToken(token TokenVault) { e.token = token }

// SetClaims configures the claim ownership registry.
func (e *Engine) SetClaims(claims ClaimRegistry) { e.claims = claims }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// OnSwap reacts to a completed swap on the venue. Deltas are signed from the
// trader's perspective; the trade qualifies only when the reward-asset side
// was received. The callback never surfaces an error to the venue: events
// outside the campaign gates are recorded as skips and the venue operation
// proceeds regardless.
func (e *Engine) OnSwap(venue [20]byte, delta0, delta1 *big.Int, payload []byte) {
	e.handleVenueEvent(BondTypeSwap, venue, delta0, delta1, payload)
}

// OnLiquidityAdded reacts to a liquidity deposit on the venue. The deposit
// qualifies only when the reward-asset side was paid in (a negative delta
// from the depositor's perspective).
func (e *Engine) OnLiquidityAdded(venue [20]byte, delta0, delta1 *big.Int, payload []byte) {
	e.handleVenueEvent(BondTypeLiquidity, venue, delta0, delta1, payload)
}

func (e *Engine) handleVenueEvent(bondType BondType, venue [20]byte, delta0, delta1 *big.Int, payload []byte) {
	if e == nil || e.state == nil || e.claims == nil {
		return
	}
	now := e.now()
	cfg, ok, err := e.state.BondConfigGet(venue, bondType)
	if err != nil {
		e.emitSkip(bondType, venue, "config_error", map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		e.emitSkip(bondType, venue, "no_campaign", nil)
		return
	}
	if !cfg.ActiveAt(now) {
		e.emitSkip(bondType, venue, "outside_window", nil)
		return
	}
	if cfg.Exhausted() {
		e.emitSkip(bondType, venue, "budget_exhausted", nil)
		return
	}

	delta := delta1
	if cfg.RewardAssetIsPrimary {
		delta = delta0
	}
	qualifying, ok := qualifyingAmount(bondType, delta)
	if !ok {
		e.emitSkip(bondType, venue, "not_reward_side", nil)
		return
	}

	beneficiary, ok := decodeBeneficiary(payload)
	if !ok {
		e.emitSkip(bondType, venue, "invalid_beneficiary", nil)
		return
	}

	reward := ComputeReward(cfg, qualifying)
	if reward.Sign() == 0 {
		e.emitSkip(bondType, venue, "reward_zero", nil)
		return
	}

	claimID, err := e.state.NextClaimID()
	if err != nil {
		e.emitSkip(bondType, venue, "state_error", map[string]string{"error": err.Error()})
		return
	}
	record := newVestingRecord(claimID, cfg, reward, now)
	prior := cfg.Clone()
	updated := cfg.Clone()
	updated.Distributed = new(big.Int).Add(updated.Distributed, reward)

	// Stage-then-apply: undo earlier writes if a later step fails so the
	// budget counter and the ledger never diverge.
	if err := e.state.BondConfigPut(updated); err != nil {
		e.emitSkip(bondType, venue, "state_error", map[string]string{"error": err.Error()})
		return
	}
	if err := e.state.VestingPut(record); err != nil {
		_ = e.state.BondConfigPut(prior)
		e.emitSkip(bondType, venue, "state_error", map[string]string{"error": err.Error()})
		return
	}
	if err := e.claims.Mint(beneficiary, claimID); err != nil {
		_ = e.state.VestingDelete(claimID)
		_ = e.state.BondConfigPut(prior)
		e.emitSkip(bondType, venue, "mint_error", map[string]string{"error": err.Error()})
		return
	}

	e.emit(newIssuedEvent(bondType, record, beneficiary))
}

// qualifyingAmount extracts the reward basis from the signed reward-asset
// delta for the given bond type. Swaps qualify on a positive (received)
// delta, deposits on a negative (paid-in) delta taken by magnitude.
func qualifyingAmount(bondType BondType, delta *big.Int) (*big.Int, bool) {
	if delta == nil {
		return nil, false
	}
	switch bondType {
	case BondTypeSwap:
		if delta.Sign() <= 0 {
			return nil, false
		}
		return new(big.Int).Set(delta), true
	case BondTypeLiquidity:
		if delta.Sign() >= 0 {
			return nil, false
		}
		return new(big.Int).Neg(delta), true
	default:
		return nil, false
	}
}

// decodeBeneficiary extracts the single identity carried in the venue event
// payload. The venue encodes either the raw 20-byte address or a 32-byte
// left-padded word.
func decodeBeneficiary(payload []byte) ([20]byte, bool) {
	var addr [20]byte
	switch len(payload) {
	case 20:
		copy(addr[:], payload)
	case 32:
		for _, b := range payload[:12] {
			if b != 0 {
				return addr, false
			}
		}
		copy(addr[:], payload[12:])
	default:
		return addr, false
	}
	if isZeroAddress(addr) {
		return addr, false
	}
	return addr, true
}

// ClaimState is the public read model for a single claim at a point in time.
type ClaimState struct {
	ClaimID        uint64
	Owner          [20]byte
	Venue          [20]byte
	BondType       BondType
	RewardAsset    string
	TotalAllocated *big.Int
	Vested         *big.Int
	Claimable      *big.Int
	Claimed        *big.Int
	Unvested       *big.Int
	VestingStart   int64
	VestingEnd     int64
	CliffTime      int64
}

// ClaimStateAt resolves the claim's vesting arithmetic for an arbitrary
// timestamp.
func (e *Engine) ClaimStateAt(claimID uint64, ts int64) (*ClaimState, error) {
	if e == nil || e.state == nil || e.claims == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.VestingGet(claimID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidClaim
	}
	owner, ok := e.claims.OwnerOf(claimID)
	if !ok {
		return nil, ErrInvalidClaim
	}
	vested := record.VestedAt(ts)
	claimed := cloneBigInt(record.Claimed)
	unvested := new(big.Int).Sub(cloneBigInt(record.TotalAllocated), vested)
	if unvested.Sign() < 0 {
		unvested = big.NewInt(0)
	}
	return &ClaimState{
		ClaimID:        claimID,
		Owner:          owner,
		Venue:          record.Venue,
		BondType:       record.BondType,
		RewardAsset:    record.RewardAsset,
		TotalAllocated: cloneBigInt(record.TotalAllocated),
		Vested:         vested,
		Claimable:      record.ClaimableAt(ts),
		Claimed:        claimed,
		Unvested:       unvested,
		VestingStart:   record.VestingStart,
		VestingEnd:     record.VestingEnd,
		CliffTime:      record.CliffTime,
	}, nil
}

// ClaimStateNow resolves the claim's vesting arithmetic at the engine clock.
func (e *Engine) ClaimStateNow(claimID uint64) (*ClaimState, error) {
	return e.ClaimStateAt(claimID, e.now())
}

// VestedAt reports the cumulative vested amount for a claim at the timestamp.
func (e *Engine) VestedAt(claimID uint64, ts int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.VestingGet(claimID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidClaim
	}
	return record.VestedAt(ts), nil
}

// GetCampaign returns a copy of the stored campaign configuration.
func (e *Engine) GetCampaign(venue [20]byte, bondType BondType) (*BondConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, ok, err := e.state.BondConfigGet(venue, bondType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return cfg.Clone(), nil
}
