package events

import (
	"strconv"
	"strings"

	"onre/core/types"
)

const (
	// TypeRedemptionOfferCreated is emitted when a single redemption offer is registered.
	TypeRedemptionOfferCreated = "redemption.offer.created"
	// TypeDualRedemptionOfferCreated is emitted when a dual redemption offer is registered.
	TypeDualRedemptionOfferCreated = "redemption.dual.created"
	// TypeRedemptionTaken is emitted on a settled single redemption.
	TypeRedemptionTaken = "redemption.taken"
	// TypeDualRedemptionTaken is emitted on a settled dual redemption.
	TypeDualRedemptionTaken = "redemption.dual.taken"
	// TypeRedemptionRequested is emitted when a redeemer escrows funds into a request.
	TypeRedemptionRequested = "redemption.request.created"
	// TypeRedemptionFulfilled is emitted when the redemption admin settles a request.
	TypeRedemptionFulfilled = "redemption.request.fulfilled"
	// TypeRedemptionCancelled is emitted when a request is cancelled and refunded.
	TypeRedemptionCancelled = "redemption.request.cancelled"
)

// RedemptionOfferCreated records the registration of a single redemption offer.
type RedemptionOfferCreated struct {
	TokenInMint  string
	TokenOutMint string
	FeeBps       uint32
	Price        uint64
}

func (RedemptionOfferCreated) EventType() string { return TypeRedemptionOfferCreated }

// Event converts the payload into its attribute map representation.
func (e RedemptionOfferCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionOfferCreated,
		Attributes: map[string]string{
			"tokenIn":  strings.TrimSpace(e.TokenInMint),
			"tokenOut": strings.TrimSpace(e.TokenOutMint),
			"feeBps":   strconv.FormatUint(uint64(e.FeeBps), 10),
			"price":    strconv.FormatUint(e.Price, 10),
		},
	}
}

// DualRedemptionOfferCreated records the registration of a dual redemption offer.
type DualRedemptionOfferCreated struct {
	TokenInMint   string
	TokenOutMint1 string
	TokenOutMint2 string
	RatioBps      uint32
	Price1        uint64
	Price2        uint64
}

func (DualRedemptionOfferCreated) EventType() string { return TypeDualRedemptionOfferCreated }

// Event converts the payload into its attribute map representation.
func (e DualRedemptionOfferCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeDualRedemptionOfferCreated,
		Attributes: map[string]string{
			"tokenIn":   strings.TrimSpace(e.TokenInMint),
			"tokenOut1": strings.TrimSpace(e.TokenOutMint1),
			"tokenOut2": strings.TrimSpace(e.TokenOutMint2),
			"ratioBps":  strconv.FormatUint(uint64(e.RatioBps), 10),
			"price1":    strconv.FormatUint(e.Price1, 10),
			"price2":    strconv.FormatUint(e.Price2, 10),
		},
	}
}

// RedemptionTaken records a settled single redemption.
type RedemptionTaken struct {
	TokenInMint    string
	TokenOutMint   string
	Redeemer       string
	TokenInAmount  uint64
	TokenOutAmount uint64
	OutputMinted   bool
	InputBurned    bool
}

func (RedemptionTaken) EventType() string { return TypeRedemptionTaken }

// Event converts the payload into its attribute map representation.
func (e RedemptionTaken) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionTaken,
		Attributes: map[string]string{
			"tokenIn":      strings.TrimSpace(e.TokenInMint),
			"tokenOut":     strings.TrimSpace(e.TokenOutMint),
			"redeemer":     strings.TrimSpace(e.Redeemer),
			"amountIn":     strconv.FormatUint(e.TokenInAmount, 10),
			"amountOut":    strconv.FormatUint(e.TokenOutAmount, 10),
			"outputMinted": strconv.FormatBool(e.OutputMinted),
			"inputBurned":  strconv.FormatBool(e.InputBurned),
		},
	}
}

// DualRedemptionTaken records a settled dual redemption with both output legs.
type DualRedemptionTaken struct {
	TokenInMint   string
	Redeemer      string
	TokenInAmount uint64
	Out1Mint      string
	Out1Amount    uint64
	Out1Minted    bool
	Out2Mint      string
	Out2Amount    uint64
	Out2Minted    bool
}

func (DualRedemptionTaken) EventType() string { return TypeDualRedemptionTaken }

// Event converts the payload into its attribute map representation.
func (e DualRedemptionTaken) Event() *types.Event {
	return &types.Event{
		Type: TypeDualRedemptionTaken,
		Attributes: map[string]string{
			"tokenIn":    strings.TrimSpace(e.TokenInMint),
			"redeemer":   strings.TrimSpace(e.Redeemer),
			"amountIn":   strconv.FormatUint(e.TokenInAmount, 10),
			"out1Mint":   strings.TrimSpace(e.Out1Mint),
			"out1":       strconv.FormatUint(e.Out1Amount, 10),
			"out1Minted": strconv.FormatBool(e.Out1Minted),
			"out2Mint":   strings.TrimSpace(e.Out2Mint),
			"out2":       strconv.FormatUint(e.Out2Amount, 10),
			"out2Minted": strconv.FormatBool(e.Out2Minted),
		},
	}
}

// RedemptionRequested records the creation of an escrowed redemption request.
type RedemptionRequested struct {
	TokenInMint   string
	TokenOutMint  string
	Counter       uint64
	Requester     string
	TokenInAmount uint64
}

func (RedemptionRequested) EventType() string { return TypeRedemptionRequested }

// Event converts the payload into its attribute map representation.
func (e RedemptionRequested) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionRequested,
		Attributes: map[string]string{
			"tokenIn":   strings.TrimSpace(e.TokenInMint),
			"tokenOut":  strings.TrimSpace(e.TokenOutMint),
			"counter":   strconv.FormatUint(e.Counter, 10),
			"requester": strings.TrimSpace(e.Requester),
			"amountIn":  strconv.FormatUint(e.TokenInAmount, 10),
		},
	}
}

// RedemptionFulfilled records the settlement of a pending request.
type RedemptionFulfilled struct {
	TokenInMint    string
	TokenOutMint   string
	Counter        uint64
	Requester      string
	TokenOutAmount uint64
}

func (RedemptionFulfilled) EventType() string { return TypeRedemptionFulfilled }

// Event converts the payload into its attribute map representation.
func (e RedemptionFulfilled) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionFulfilled,
		Attributes: map[string]string{
			"tokenIn":   strings.TrimSpace(e.TokenInMint),
			"tokenOut":  strings.TrimSpace(e.TokenOutMint),
			"counter":   strconv.FormatUint(e.Counter, 10),
			"requester": strings.TrimSpace(e.Requester),
			"amountOut": strconv.FormatUint(e.TokenOutAmount, 10),
		},
	}
}

// RedemptionCancelled records a cancelled request and the refunded amount.
type RedemptionCancelled struct {
	TokenInMint    string
	TokenOutMint   string
	Counter        uint64
	Requester      string
	RefundedAmount uint64
}

func (RedemptionCancelled) EventType() string { return TypeRedemptionCancelled }

// Event converts the payload into its attribute map representation.
func (e RedemptionCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionCancelled,
		Attributes: map[string]string{
			"tokenIn":   strings.TrimSpace(e.TokenInMint),
			"tokenOut":  strings.TrimSpace(e.TokenOutMint),
			"counter":   strconv.FormatUint(e.Counter, 10),
			"requester": strings.TrimSpace(e.Requester),
			"refunded":  strconv.FormatUint(e.RefundedAmount, 10),
		},
	}
}
