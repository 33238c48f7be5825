package vault

import (
	"strings"
	"time"

	"onre/core/events"
	"onre/native/common"
	"onre/native/token"
)

const moduleName = "vault"

type engineState interface {
	VaultNextOfferID() (uint64, error)
	VaultPutOffer(*Offer) error
	VaultGetOffer(id uint64) (*Offer, bool, error)
	VaultDeleteOffer(id uint64) error
	VaultListOffers() ([]*Offer, error)
}

// AuthorityView is the slice of governance the engine consults.
type AuthorityView interface {
	RequireBossOrAdmin(caller string) error
	Boss() (string, error)
	IsApprover(addr string) (bool, error)
}

// Engine wires the offer store, the token ledger and the governance checks
// into the take/settle flow. Engines assume the host serializes conflicting
// calls; there is no internal locking.
type Engine struct {
	state   engineState
	ledger  token.Ledger
	auth    AuthorityView
	halts   common.HaltView
	emitter events.Emitter
	nowFn   func() int64

	authority    string
	vaultAccount string
	intermediary string
}

// NewEngine constructs a vault engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the offer store backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token-layer capability used for settlement.
func (e *Engine) SetLedger(ledger token.Ledger) { e.ledger = ledger }

// SetAuthority configures the governance checks.
func (e *Engine) SetAuthority(auth AuthorityView) { e.auth = auth }

// SetHaltView configures the kill-switch guard.
func (e *Engine) SetHaltView(view common.HaltView) { e.halts = view }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetAccounts configures the venue-owned settlement accounts: the mint
// authority identity, the pre-funded vault and the permissionless
// intermediary.
func (e *Engine) SetAccounts(authority, vault, intermediary string) {
	e.authority = strings.TrimSpace(authority)
	e.vaultAccount = strings.TrimSpace(vault)
	e.intermediary = strings.TrimSpace(intermediary)
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	now := e.nowFn()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

func (e *Engine) accounts() (Accounts, error) {
	boss, err := e.auth.Boss()
	if err != nil {
		return Accounts{}, err
	}
	return Accounts{
		Authority:    e.authority,
		Vault:        e.vaultAccount,
		Boss:         boss,
		Intermediary: e.intermediary,
	}, nil
}

// CreateOffer registers a new buy offer. Boss or admin only.
func (e *Engine) CreateOffer(caller, tokenInMint, tokenOutMint string, feeBps uint32, needsApproval, allowPermissionless bool) (*Offer, error) {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return nil, err
	}
	if e.state == nil {
		return nil, errStateNotConfigured
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return nil, err
	}
	tokenIn := token.NormalizeMint(tokenInMint)
	tokenOut := token.NormalizeMint(tokenOutMint)
	if tokenIn == "" || tokenOut == "" || tokenIn == tokenOut {
		return nil, ErrInvalidOffer
	}
	if feeBps > BpsDenominator {
		return nil, ErrFeeOutOfRange
	}
	// Both mints must be registered with the ledger before an offer can
	// reference them.
	if _, err := e.ledger.DecimalsOf(tokenIn); err != nil {
		return nil, err
	}
	if _, err := e.ledger.DecimalsOf(tokenOut); err != nil {
		return nil, err
	}
	id, err := e.state.VaultNextOfferID()
	if err != nil {
		return nil, err
	}
	offer := &Offer{
		ID:                  id,
		TokenInMint:         tokenIn,
		TokenOutMint:        tokenOut,
		FeeBps:              feeBps,
		NeedsApproval:       needsApproval,
		AllowPermissionless: allowPermissionless,
	}
	if err := e.state.VaultPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.OfferCreated{OfferID: id, TokenInMint: tokenIn, TokenOutMint: tokenOut, FeeBps: feeBps})
	return offer.Clone(), nil
}

// DeleteOffer removes an offer and its vectors. Boss or admin only.
func (e *Engine) DeleteOffer(caller string, offerID uint64) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	if _, err := e.offer(offerID); err != nil {
		return err
	}
	if err := e.state.VaultDeleteOffer(offerID); err != nil {
		return err
	}
	e.emitter.Emit(events.OfferDeleted{OfferID: offerID})
	return nil
}

// UpdateOfferFee changes the fee on an existing offer. Boss or admin only.
func (e *Engine) UpdateOfferFee(caller string, offerID uint64, feeBps uint32) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	if feeBps > BpsDenominator {
		return ErrFeeOutOfRange
	}
	offer, err := e.offer(offerID)
	if err != nil {
		return err
	}
	offer.FeeBps = feeBps
	if err := e.state.VaultPutOffer(offer); err != nil {
		return err
	}
	e.emitter.Emit(events.OfferFeeUpdated{OfferID: offerID, FeeBps: feeBps})
	return nil
}

// AddVector appends a pricing vector to an offer. The new vector must start
// strictly after every existing vector; segment ids continue from the current
// maximum and start at 1. Boss or admin only.
func (e *Engine) AddVector(caller string, offerID, startTime, startPrice, apr, priceFixDuration uint64) (*Vector, error) {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return nil, err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return nil, err
	}
	if startTime == 0 || startPrice == 0 || priceFixDuration == 0 {
		return nil, ErrInvalidVector
	}
	offer, err := e.offer(offerID)
	if err != nil {
		return nil, err
	}
	if len(offer.Vectors) >= MaxSegments {
		return nil, ErrMaxSegmentsReached
	}
	// Compare against the maximum, not the last inserted: vectors are
	// append-ordered by this very rule, but deletions can leave gaps.
	if startTime <= offer.MaxStartTime() {
		return nil, ErrStartTimeNotIncreasing
	}
	now := e.now()
	validFrom := startTime
	if now > validFrom {
		validFrom = now
	}
	vector := Vector{
		SegmentID:        offer.MaxSegmentID() + 1,
		StartTime:        startTime,
		StartPrice:       startPrice,
		APR:              apr,
		PriceFixDuration: priceFixDuration,
		ValidFrom:        validFrom,
	}
	offer.Vectors = append(offer.Vectors, vector)
	if err := e.state.VaultPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VectorAdded{
		OfferID:    offerID,
		SegmentID:  vector.SegmentID,
		StartTime:  startTime,
		StartPrice: startPrice,
		APR:        apr,
		Duration:   priceFixDuration,
	})
	return &vector, nil
}

// DeleteVector removes a single segment. Remaining segment ids are not
// renumbered. Boss or admin only.
func (e *Engine) DeleteVector(caller string, offerID, segmentID uint64) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	offer, err := e.offer(offerID)
	if err != nil {
		return err
	}
	idx := -1
	for i, v := range offer.Vectors {
		if v.SegmentID == segmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrVectorNotFound
	}
	offer.Vectors = append(offer.Vectors[:idx], offer.Vectors[idx+1:]...)
	if err := e.state.VaultPutOffer(offer); err != nil {
		return err
	}
	e.emitter.Emit(events.VectorDeleted{OfferID: offerID, SegmentID: segmentID})
	return nil
}

// DeleteAllVectors clears every vector on an offer. Boss or admin only.
func (e *Engine) DeleteAllVectors(caller string, offerID uint64) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	offer, err := e.offer(offerID)
	if err != nil {
		return err
	}
	offer.Vectors = nil
	if err := e.state.VaultPutOffer(offer); err != nil {
		return err
	}
	e.emitter.Emit(events.VectorDeleted{OfferID: offerID, All: true})
	return nil
}

// TakeOffer settles a direct take: the caller pays TokenInMint and receives
// TokenOutMint at the price of the active vector.
func (e *Engine) TakeOffer(caller string, offerID, tokenInAmount uint64, approver string) (*TakeReceipt, error) {
	return e.take(caller, offerID, tokenInAmount, approver, false)
}

// TakeOfferPermissionless settles a take routed through the intermediary
// custody account. The offer must allow the permissionless flow.
func (e *Engine) TakeOfferPermissionless(caller string, offerID, tokenInAmount uint64, approver string) (*TakeReceipt, error) {
	return e.take(caller, offerID, tokenInAmount, approver, true)
}

func (e *Engine) take(caller string, offerID, tokenInAmount uint64, approver string, permissionless bool) (*TakeReceipt, error) {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return nil, err
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return nil, ErrInvalidCaller
	}
	if tokenInAmount == 0 {
		return nil, ErrZeroAmount
	}
	offer, err := e.offer(offerID)
	if err != nil {
		return nil, err
	}
	if permissionless && !offer.AllowPermissionless {
		return nil, ErrPermissionlessDisabled
	}
	if offer.NeedsApproval {
		approver = strings.TrimSpace(approver)
		if approver == "" {
			return nil, ErrApprovalRequired
		}
		ok, err := e.auth.IsApprover(approver)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrApprovalRequired
		}
	}
	now := e.now()
	vector, err := ActiveVector(offer, now)
	if err != nil {
		return nil, err
	}
	price, err := PriceAt(vector, now)
	if err != nil {
		return nil, err
	}
	decimalsIn, err := e.ledger.DecimalsOf(offer.TokenInMint)
	if err != nil {
		return nil, err
	}
	decimalsOut, err := e.ledger.DecimalsOf(offer.TokenOutMint)
	if err != nil {
		return nil, err
	}
	netIn, amountOut, err := Quote(tokenInAmount, price, offer.FeeBps, decimalsIn, decimalsOut)
	if err != nil {
		return nil, err
	}
	if amountOut == 0 {
		return nil, ErrAmountTooSmall
	}
	acct, err := e.accounts()
	if err != nil {
		return nil, err
	}
	var inputBurned, outputMinted bool
	if permissionless {
		inputBurned, outputMinted, err = settlePermissionless(e.ledger, acct, caller, caller, offer.TokenInMint, offer.TokenOutMint, tokenInAmount, amountOut)
	} else {
		inputBurned, outputMinted, err = settleDirect(e.ledger, acct, caller, caller, offer.TokenInMint, offer.TokenOutMint, tokenInAmount, amountOut)
	}
	if err != nil {
		return nil, err
	}
	receipt := &TakeReceipt{
		OfferID:        offerID,
		SegmentID:      vector.SegmentID,
		Price:          price,
		TokenInAmount:  tokenInAmount,
		NetIn:          netIn,
		TokenOutAmount: amountOut,
		OutputMinted:   outputMinted,
		InputBurned:    inputBurned,
		Permissionless: permissionless,
	}
	e.emitter.Emit(events.OfferTaken{
		OfferID:        offerID,
		Taker:          caller,
		SegmentID:      vector.SegmentID,
		Price:          price,
		TokenInAmount:  tokenInAmount,
		TokenOutAmount: amountOut,
		OutputMinted:   outputMinted,
		InputBurned:    inputBurned,
		Permissionless: permissionless,
	})
	return receipt, nil
}

// GetOffer returns a copy of the stored offer.
func (e *Engine) GetOffer(offerID uint64) (*Offer, error) {
	offer, err := e.offer(offerID)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// ListOffers returns copies of every stored offer.
func (e *Engine) ListOffers() ([]*Offer, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	return e.state.VaultListOffers()
}

func (e *Engine) offer(offerID uint64) (*Offer, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	offer, ok, err := e.state.VaultGetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferNotFound
	}
	return offer.Clone(), nil
}
