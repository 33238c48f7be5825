package redemption

import (
	"strings"
	"time"

	"onre/core/events"
	"onre/native/common"
	"onre/native/token"
	"onre/native/vault"
)

const moduleName = "redemption"

type engineState interface {
	RedemptionGetOffer(tokenIn, tokenOut string) (*Offer, bool, error)
	RedemptionPutOffer(*Offer) error
	RedemptionGetDualOffer(tokenIn, tokenOut1, tokenOut2 string) (*DualOffer, bool, error)
	RedemptionPutDualOffer(*DualOffer) error
	RedemptionGetRequest(tokenIn, tokenOut string, counter uint64) (*Request, bool, error)
	RedemptionPutRequest(*Request) error
	RedemptionListRequests(tokenIn, tokenOut string) ([]*Request, error)
}

// AuthorityView is the slice of governance the engine consults.
type AuthorityView interface {
	RequireBossOrAdmin(caller string) error
	RequireRedemptionAdmin(caller string) error
	Boss() (string, error)
}

// Engine drives redemption offers and the escrowed request queue. Settlement
// reuses the vault package's quote and path-selection primitives against the
// reverse direction.
type Engine struct {
	state   engineState
	ledger  token.Ledger
	auth    AuthorityView
	halts   common.HaltView
	emitter events.Emitter
	nowFn   func() int64

	authority     string
	vaultAccount  string
	escrowAccount string
}

// NewEngine constructs a redemption engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the offer and request store backend.
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

// SetAccounts configures the venue-owned settlement accounts. The redemption
// escrow holds request deposits until fulfilment or cancellation.
func (e *Engine) SetAccounts(authority, vaultAccount, escrow string) {
	e.authority = strings.TrimSpace(authority)
	e.vaultAccount = strings.TrimSpace(vaultAccount)
	e.escrowAccount = strings.TrimSpace(escrow)
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

func (e *Engine) accounts() (vault.Accounts, error) {
	boss, err := e.auth.Boss()
	if err != nil {
		return vault.Accounts{}, err
	}
	return vault.Accounts{
		Authority: e.authority,
		Vault:     e.vaultAccount,
		Boss:      boss,
	}, nil
}

// CreateOffer registers a single redemption offer for an ordered mint pair.
// Boss or admin only; one offer per pair.
func (e *Engine) CreateOffer(caller, tokenInMint, tokenOutMint string, feeBps uint32, price, startTime, endTime uint64) (*Offer, error) {
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
	if feeBps > vault.BpsDenominator {
		return nil, ErrFeeOutOfRange
	}
	if price == 0 || startTime == 0 || endTime == 0 || endTime <= startTime {
		return nil, ErrInvalidOffer
	}
	if _, err := e.ledger.DecimalsOf(tokenIn); err != nil {
		return nil, err
	}
	if _, err := e.ledger.DecimalsOf(tokenOut); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.RedemptionGetOffer(tokenIn, tokenOut); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrOfferExists
	}
	offer := &Offer{
		TokenInMint:  tokenIn,
		TokenOutMint: tokenOut,
		FeeBps:       feeBps,
		Price:        price,
		StartTime:    startTime,
		EndTime:      endTime,
	}
	if err := e.state.RedemptionPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RedemptionOfferCreated{TokenInMint: tokenIn, TokenOutMint: tokenOut, FeeBps: feeBps, Price: price})
	return offer.Clone(), nil
}

// CreateDualOffer registers a dual redemption offer. Boss or admin only.
func (e *Engine) CreateDualOffer(caller, tokenInMint, tokenOut1Mint, tokenOut2Mint string, feeBps, ratioBps uint32, price1, price2, startTime, endTime uint64) (*DualOffer, error) {
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
	out1 := token.NormalizeMint(tokenOut1Mint)
	out2 := token.NormalizeMint(tokenOut2Mint)
	if tokenIn == "" || out1 == "" || out2 == "" || out1 == out2 || tokenIn == out1 || tokenIn == out2 {
		return nil, ErrInvalidOffer
	}
	if feeBps > vault.BpsDenominator || ratioBps > vault.BpsDenominator {
		return nil, ErrFeeOutOfRange
	}
	if price1 == 0 || price2 == 0 || startTime == 0 || endTime == 0 || endTime <= startTime {
		return nil, ErrInvalidOffer
	}
	for _, mint := range []string{tokenIn, out1, out2} {
		if _, err := e.ledger.DecimalsOf(mint); err != nil {
			return nil, err
		}
	}
	if _, ok, err := e.state.RedemptionGetDualOffer(tokenIn, out1, out2); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrOfferExists
	}
	offer := &DualOffer{
		TokenInMint:   tokenIn,
		TokenOutMint1: out1,
		TokenOutMint2: out2,
		FeeBps:        feeBps,
		RatioBps:      ratioBps,
		Price1:        price1,
		Price2:        price2,
		StartTime:     startTime,
		EndTime:       endTime,
	}
	if err := e.state.RedemptionPutDualOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.DualRedemptionOfferCreated{
		TokenInMint:   tokenIn,
		TokenOutMint1: out1,
		TokenOutMint2: out2,
		RatioBps:      ratioBps,
		Price1:        price1,
		Price2:        price2,
	})
	return offer.Clone(), nil
}

// UpdateFee changes the fee on a single redemption offer. Boss or admin only.
func (e *Engine) UpdateFee(caller, tokenInMint, tokenOutMint string, feeBps uint32) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	if feeBps > vault.BpsDenominator {
		return ErrFeeOutOfRange
	}
	offer, err := e.offer(tokenInMint, tokenOutMint)
	if err != nil {
		return err
	}
	offer.FeeBps = feeBps
	return e.state.RedemptionPutOffer(offer)
}

// UpdateDualFee changes the fee on a dual redemption offer. Boss or admin only.
func (e *Engine) UpdateDualFee(caller, tokenInMint, tokenOut1Mint, tokenOut2Mint string, feeBps uint32) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	if err := e.auth.RequireBossOrAdmin(caller); err != nil {
		return err
	}
	if feeBps > vault.BpsDenominator {
		return ErrFeeOutOfRange
	}
	offer, err := e.dualOffer(tokenInMint, tokenOut1Mint, tokenOut2Mint)
	if err != nil {
		return err
	}
	offer.FeeBps = feeBps
	return e.state.RedemptionPutDualOffer(offer)
}

func (e *Engine) checkWindow(startTime, endTime, now uint64) error {
	if now < startTime || now > endTime {
		return ErrOfferExpired
	}
	return nil
}

// Take settles a single redemption at the offer's static price.
func (e *Engine) Take(caller, tokenInMint, tokenOutMint string, tokenInAmount uint64) (*Receipt, error) {
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
	offer, err := e.offer(tokenInMint, tokenOutMint)
	if err != nil {
		return nil, err
	}
	if err := e.checkWindow(offer.StartTime, offer.EndTime, e.now()); err != nil {
		return nil, err
	}
	receipt, err := e.settleSingle(offer, caller, caller, tokenInAmount)
	if err != nil {
		return nil, err
	}
	offer.ExecutedRedemptions++
	if err := e.state.RedemptionPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RedemptionTaken{
		TokenInMint:    offer.TokenInMint,
		TokenOutMint:   offer.TokenOutMint,
		Redeemer:       caller,
		TokenInAmount:  tokenInAmount,
		TokenOutAmount: receipt.TokenOutAmount,
		OutputMinted:   receipt.OutputMinted,
		InputBurned:    receipt.InputBurned,
	})
	return receipt, nil
}

// settleSingle quotes and settles a single redemption, paying the input from
// payer and the output to recipient. The request-fulfilment path reuses it
// with the escrow account as payer.
func (e *Engine) settleSingle(offer *Offer, payer, recipient string, tokenInAmount uint64) (*Receipt, error) {
	decimalsIn, err := e.ledger.DecimalsOf(offer.TokenInMint)
	if err != nil {
		return nil, err
	}
	decimalsOut, err := e.ledger.DecimalsOf(offer.TokenOutMint)
	if err != nil {
		return nil, err
	}
	netIn, amountOut, err := vault.Quote(tokenInAmount, offer.Price, offer.FeeBps, decimalsIn, decimalsOut)
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
	if err := vault.EnsureOutputCoverage(e.ledger, acct, offer.TokenOutMint, amountOut); err != nil {
		return nil, err
	}
	inputBurned, err := vault.SettleInput(e.ledger, acct, payer, offer.TokenInMint, tokenInAmount)
	if err != nil {
		return nil, err
	}
	outputMinted, err := vault.SettleOutput(e.ledger, acct, recipient, offer.TokenOutMint, amountOut)
	if err != nil {
		return nil, err
	}
	return &Receipt{
		TokenInMint:    offer.TokenInMint,
		TokenOutMint:   offer.TokenOutMint,
		Price:          offer.Price,
		TokenInAmount:  tokenInAmount,
		NetIn:          netIn,
		TokenOutAmount: amountOut,
		OutputMinted:   outputMinted,
		InputBurned:    inputBurned,
	}, nil
}

// TakeDual settles a dual redemption, splitting the net input by the offer's
// ratio and converting each share through its own price and decimals.
// Settlement-path selection is evaluated per output mint, so one side may
// mint while the other transfers from the vault in the same call.
func (e *Engine) TakeDual(caller, tokenInMint, tokenOut1Mint, tokenOut2Mint string, tokenInAmount uint64) (*DualReceipt, error) {
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
	offer, err := e.dualOffer(tokenInMint, tokenOut1Mint, tokenOut2Mint)
	if err != nil {
		return nil, err
	}
	if err := e.checkWindow(offer.StartTime, offer.EndTime, e.now()); err != nil {
		return nil, err
	}
	decimalsIn, err := e.ledger.DecimalsOf(offer.TokenInMint)
	if err != nil {
		return nil, err
	}
	decimals1, err := e.ledger.DecimalsOf(offer.TokenOutMint1)
	if err != nil {
		return nil, err
	}
	decimals2, err := e.ledger.DecimalsOf(offer.TokenOutMint2)
	if err != nil {
		return nil, err
	}
	// The fee comes off once; the shares convert fee-free.
	netIn, _, err := vault.Quote(tokenInAmount, vault.PriceScale, offer.FeeBps, decimalsIn, decimalsIn)
	if err != nil {
		return nil, err
	}
	share1, share2, err := vault.SplitByRatio(netIn, offer.RatioBps)
	if err != nil {
		return nil, err
	}
	_, out1, err := vault.Quote(share1, offer.Price1, 0, decimalsIn, decimals1)
	if err != nil {
		return nil, err
	}
	_, out2, err := vault.Quote(share2, offer.Price2, 0, decimalsIn, decimals2)
	if err != nil {
		return nil, err
	}
	if out1 == 0 && out2 == 0 {
		return nil, ErrAmountTooSmall
	}
	acct, err := e.accounts()
	if err != nil {
		return nil, err
	}
	// Both legs must be payable before the input moves; a shortfall on either
	// side aborts the take with every balance intact.
	if err := vault.EnsureOutputCoverage(e.ledger, acct, offer.TokenOutMint1, out1); err != nil {
		return nil, err
	}
	if err := vault.EnsureOutputCoverage(e.ledger, acct, offer.TokenOutMint2, out2); err != nil {
		return nil, err
	}
	inputBurned, err := vault.SettleInput(e.ledger, acct, caller, offer.TokenInMint, tokenInAmount)
	if err != nil {
		return nil, err
	}
	minted1, err := vault.SettleOutput(e.ledger, acct, caller, offer.TokenOutMint1, out1)
	if err != nil {
		return nil, err
	}
	minted2, err := vault.SettleOutput(e.ledger, acct, caller, offer.TokenOutMint2, out2)
	if err != nil {
		return nil, err
	}
	offer.Executed++
	if err := e.state.RedemptionPutDualOffer(offer); err != nil {
		return nil, err
	}
	receipt := &DualReceipt{
		TokenInMint:   offer.TokenInMint,
		TokenInAmount: tokenInAmount,
		NetIn:         netIn,
		InputBurned:   inputBurned,
		Legs: [2]Leg{
			{Mint: offer.TokenOutMint1, Share: share1, Price: offer.Price1, AmountOut: out1, Minted: minted1},
			{Mint: offer.TokenOutMint2, Share: share2, Price: offer.Price2, AmountOut: out2, Minted: minted2},
		},
	}
	e.emitter.Emit(events.DualRedemptionTaken{
		TokenInMint:   offer.TokenInMint,
		Redeemer:      caller,
		TokenInAmount: tokenInAmount,
		Out1Mint:      offer.TokenOutMint1,
		Out1Amount:    out1,
		Out1Minted:    minted1,
		Out2Mint:      offer.TokenOutMint2,
		Out2Amount:    out2,
		Out2Minted:    minted2,
	})
	return receipt, nil
}

// CreateRequest escrows the redeemer's input into the redemption escrow and
// queues a request for the redemption admin.
func (e *Engine) CreateRequest(caller, tokenInMint, tokenOutMint string, tokenInAmount uint64) (*Request, error) {
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
	offer, err := e.offer(tokenInMint, tokenOutMint)
	if err != nil {
		return nil, err
	}
	if err := e.checkWindow(offer.StartTime, offer.EndTime, e.now()); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(caller, e.escrowAccount, offer.TokenInMint, tokenInAmount); err != nil {
		return nil, err
	}
	offer.RequestCounter++
	offer.RequestedRedemptions++
	request := &Request{
		TokenInMint:   offer.TokenInMint,
		TokenOutMint:  offer.TokenOutMint,
		Counter:       offer.RequestCounter,
		Requester:     caller,
		TokenInAmount: tokenInAmount,
		CreatedAt:     e.now(),
		Status:        RequestPending,
	}
	if err := e.state.RedemptionPutRequest(request); err != nil {
		return nil, err
	}
	if err := e.state.RedemptionPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RedemptionRequested{
		TokenInMint:   offer.TokenInMint,
		TokenOutMint:  offer.TokenOutMint,
		Counter:       request.Counter,
		Requester:     caller,
		TokenInAmount: tokenInAmount,
	})
	return request.Clone(), nil
}

// FulfillRequest settles a pending request out of escrow. Redemption admin
// only. Fulfilment is allowed after the offer window closes; the deposit was
// accepted while it was open.
func (e *Engine) FulfillRequest(caller, tokenInMint, tokenOutMint string, counter uint64) (*Receipt, error) {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return nil, err
	}
	if err := e.auth.RequireRedemptionAdmin(caller); err != nil {
		return nil, err
	}
	request, err := e.request(tokenInMint, tokenOutMint, counter)
	if err != nil {
		return nil, err
	}
	if request.Status != RequestPending {
		return nil, ErrRequestClosed
	}
	offer, err := e.offer(tokenInMint, tokenOutMint)
	if err != nil {
		return nil, err
	}
	receipt, err := e.settleSingle(offer, e.escrowAccount, request.Requester, request.TokenInAmount)
	if err != nil {
		return nil, err
	}
	request.Status = RequestFulfilled
	request.ClosedAt = e.now()
	if err := e.state.RedemptionPutRequest(request); err != nil {
		return nil, err
	}
	offer.ExecutedRedemptions++
	if err := e.state.RedemptionPutOffer(offer); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RedemptionFulfilled{
		TokenInMint:    offer.TokenInMint,
		TokenOutMint:   offer.TokenOutMint,
		Counter:        counter,
		Requester:      request.Requester,
		TokenOutAmount: receipt.TokenOutAmount,
	})
	return receipt, nil
}

// CancelRequest refunds a pending request's escrow to the requester. Only
// the original requester or the boss may cancel.
func (e *Engine) CancelRequest(caller, tokenInMint, tokenOutMint string, counter uint64) error {
	if err := common.Guard(e.halts, moduleName); err != nil {
		return err
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return ErrInvalidCaller
	}
	request, err := e.request(tokenInMint, tokenOutMint, counter)
	if err != nil {
		return err
	}
	boss, err := e.auth.Boss()
	if err != nil {
		return err
	}
	if caller != request.Requester && caller != boss {
		return ErrCallerNotRequester
	}
	if request.Status != RequestPending {
		return ErrRequestClosed
	}
	if err := e.ledger.Transfer(e.escrowAccount, request.Requester, request.TokenInMint, request.TokenInAmount); err != nil {
		return err
	}
	request.Status = RequestCancelled
	request.ClosedAt = e.now()
	if err := e.state.RedemptionPutRequest(request); err != nil {
		return err
	}
	e.emitter.Emit(events.RedemptionCancelled{
		TokenInMint:    request.TokenInMint,
		TokenOutMint:   request.TokenOutMint,
		Counter:        counter,
		Requester:      request.Requester,
		RefundedAmount: request.TokenInAmount,
	})
	return nil
}

// GetOffer returns a copy of the stored offer for a pair.
func (e *Engine) GetOffer(tokenInMint, tokenOutMint string) (*Offer, error) {
	return e.offer(tokenInMint, tokenOutMint)
}

// GetDualOffer returns a copy of the stored dual offer.
func (e *Engine) GetDualOffer(tokenInMint, tokenOut1Mint, tokenOut2Mint string) (*DualOffer, error) {
	return e.dualOffer(tokenInMint, tokenOut1Mint, tokenOut2Mint)
}

// GetRequest returns a copy of the stored request.
func (e *Engine) GetRequest(tokenInMint, tokenOutMint string, counter uint64) (*Request, error) {
	return e.request(tokenInMint, tokenOutMint, counter)
}

// ListRequests returns copies of every request queued against a pair.
func (e *Engine) ListRequests(tokenInMint, tokenOutMint string) ([]*Request, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	return e.state.RedemptionListRequests(token.NormalizeMint(tokenInMint), token.NormalizeMint(tokenOutMint))
}

func (e *Engine) offer(tokenInMint, tokenOutMint string) (*Offer, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	offer, ok, err := e.state.RedemptionGetOffer(token.NormalizeMint(tokenInMint), token.NormalizeMint(tokenOutMint))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferNotFound
	}
	return offer.Clone(), nil
}

func (e *Engine) dualOffer(tokenInMint, tokenOut1Mint, tokenOut2Mint string) (*DualOffer, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	offer, ok, err := e.state.RedemptionGetDualOffer(
		token.NormalizeMint(tokenInMint),
		token.NormalizeMint(tokenOut1Mint),
		token.NormalizeMint(tokenOut2Mint),
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferNotFound
	}
	return offer.Clone(), nil
}

func (e *Engine) request(tokenInMint, tokenOutMint string, counter uint64) (*Request, error) {
	if e == nil || e.state == nil {
		return nil, errStateNotConfigured
	}
	request, ok, err := e.state.RedemptionGetRequest(token.NormalizeMint(tokenInMint), token.NormalizeMint(tokenOutMint), counter)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRequestNotFound
	}
	return request.Clone(), nil
}
