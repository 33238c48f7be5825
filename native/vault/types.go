// Package vault implements the venue's sell side: boss-operated buy offers
// priced by time-sliced vectors, and the settlement primitives (fee, decimal
// conversion, mint/burn versus transfer path selection) that the redemption
// engine reuses for the reverse direction.
package vault

import (
	"errors"
)

const (
	// MaxSegments bounds the pricing vectors an offer may hold at once.
	MaxSegments = 10
	// PriceScale is the fixed-point scale of all prices (9 decimals).
	PriceScale = 1_000_000_000
	// APRScale is the fixed-point scale of the yield rate.
	APRScale = 1_000_000
	// SecondsPerYear is the accrual year used by the price formula.
	SecondsPerYear = 365 * 24 * 60 * 60
	// BpsDenominator is the basis point base; 10000 equals 100%.
	BpsDenominator = 10_000
)

var (
	errStateNotConfigured = errors.New("vault: state not configured")

	// ErrOfferNotFound is returned when the referenced offer does not exist.
	ErrOfferNotFound = errors.New("vault: offer not found")
	// ErrInvalidOffer is returned when offer parameters fail validation.
	ErrInvalidOffer = errors.New("vault: invalid offer")
	// ErrFeeOutOfRange is returned when a fee exceeds 10000 basis points.
	ErrFeeOutOfRange = errors.New("vault: fee out of range")
	// ErrInvalidVector is returned when a vector field that must be non-zero is zero.
	ErrInvalidVector = errors.New("vault: vector fields must be non-zero")
	// ErrStartTimeNotIncreasing is returned when a new vector does not start
	// strictly after every existing vector.
	ErrStartTimeNotIncreasing = errors.New("vault: vector start time must increase")
	// ErrMaxSegmentsReached is returned when the offer already holds MaxSegments vectors.
	ErrMaxSegmentsReached = errors.New("vault: max segments reached")
	// ErrVectorNotFound is returned when the referenced segment does not exist.
	ErrVectorNotFound = errors.New("vault: vector not found")
	// ErrNoActiveVector is returned when no vector is valid at the requested time.
	ErrNoActiveVector = errors.New("vault: no active vector")
	// ErrCalculationOverflow is returned when price or settlement arithmetic
	// leaves the 64-bit range or divides by zero. Never silently saturated.
	ErrCalculationOverflow = errors.New("vault: calculation overflow")
	// ErrZeroAmount is returned when a take provides a zero input amount.
	ErrZeroAmount = errors.New("vault: amount must be non-zero")
	// ErrAmountTooSmall is returned when the input truncates to zero output.
	ErrAmountTooSmall = errors.New("vault: amount too small for price")
	// ErrInvalidCaller is returned when the caller account is empty.
	ErrInvalidCaller = errors.New("vault: caller required")
	// ErrApprovalRequired is returned when a guarded offer is taken without a
	// registered approver co-authorization.
	ErrApprovalRequired = errors.New("vault: approver co-authorization required")
	// ErrPermissionlessDisabled is returned when the permissionless flow is
	// used against an offer that does not allow it.
	ErrPermissionlessDisabled = errors.New("vault: permissionless flow disabled")
	// ErrInsufficientOfferBalance is returned when the vault cannot cover the
	// computed output amount.
	ErrInsufficientOfferBalance = errors.New("vault: insufficient offer balance")
	// ErrIntermediaryResidual is returned when the permissionless escrow
	// account does not return to zero by the end of the call.
	ErrIntermediaryResidual = errors.New("vault: intermediary balance not cleared")
)

// Vector is a time-scoped pricing curve: from ValidFrom onwards the price
// starts at StartPrice and steps up once per PriceFixDuration according to
// APR. Within one fixed window the price is constant.
type Vector struct {
	SegmentID        uint64
	StartTime        uint64
	StartPrice       uint64
	APR              uint64
	PriceFixDuration uint64
	ValidFrom        uint64
}

// Offer is a boss-operated buy offer selling TokenOutMint against
// TokenInMint under the pricing vectors it holds.
type Offer struct {
	ID                  uint64
	TokenInMint         string
	TokenOutMint        string
	FeeBps              uint32
	NeedsApproval       bool
	AllowPermissionless bool
	Vectors             []Vector
}

// Clone returns a deep copy so callers can mutate the result safely.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Vectors = append([]Vector(nil), o.Vectors...)
	return &clone
}

// MaxStartTime returns the greatest StartTime across the offer's vectors, or
// zero when the offer holds none.
func (o *Offer) MaxStartTime() uint64 {
	var max uint64
	for _, v := range o.Vectors {
		if v.StartTime > max {
			max = v.StartTime
		}
	}
	return max
}

// MaxSegmentID returns the greatest SegmentID across the offer's vectors, or
// zero when the offer holds none.
func (o *Offer) MaxSegmentID() uint64 {
	var max uint64
	for _, v := range o.Vectors {
		if v.SegmentID > max {
			max = v.SegmentID
		}
	}
	return max
}

// TakeReceipt reports the outcome of a settled take.
type TakeReceipt struct {
	OfferID        uint64
	SegmentID      uint64
	Price          uint64
	TokenInAmount  uint64
	NetIn          uint64
	TokenOutAmount uint64
	OutputMinted   bool
	InputBurned    bool
	Permissionless bool
}
