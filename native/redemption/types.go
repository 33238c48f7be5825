// Package redemption implements the reverse direction of the venue: offers
// that swap a minted token back into collateral, either as a single-asset
// swap at a fixed price or a ratio-split dual-asset swap, plus the durable
// escrowed request queue fulfilled by the redemption admin.
package redemption

import "errors"

var (
	errStateNotConfigured = errors.New("redemption: state not configured")

	// ErrOfferNotFound is returned when the referenced offer does not exist.
	ErrOfferNotFound = errors.New("redemption: offer not found")
	// ErrOfferExists is returned when creating a duplicate offer for a mint pair.
	ErrOfferExists = errors.New("redemption: offer already exists")
	// ErrInvalidOffer is returned when offer parameters fail validation.
	ErrInvalidOffer = errors.New("redemption: invalid offer")
	// ErrFeeOutOfRange is returned when a fee or ratio exceeds 10000 basis points.
	ErrFeeOutOfRange = errors.New("redemption: fee out of range")
	// ErrOfferExpired is returned when now falls outside the offer's validity window.
	ErrOfferExpired = errors.New("redemption: offer expired")
	// ErrZeroAmount is returned when a redemption provides a zero input amount.
	ErrZeroAmount = errors.New("redemption: amount must be non-zero")
	// ErrAmountTooSmall is returned when the input truncates to zero output.
	ErrAmountTooSmall = errors.New("redemption: amount too small for price")
	// ErrInvalidCaller is returned when the caller account is empty.
	ErrInvalidCaller = errors.New("redemption: caller required")
	// ErrRequestNotFound is returned when the referenced request does not exist.
	ErrRequestNotFound = errors.New("redemption: request not found")
	// ErrRequestClosed is returned when a fulfilled or cancelled request is
	// transitioned again.
	ErrRequestClosed = errors.New("redemption: request already closed")
	// ErrCallerNotRequester is returned when someone other than the requester
	// or the boss cancels a request.
	ErrCallerNotRequester = errors.New("redemption: caller is not the requester")
)

// Offer is a single-asset redemption offer for an ordered mint pair at a
// static fixed-point price. At most one offer exists per pair.
type Offer struct {
	TokenInMint          string
	TokenOutMint         string
	FeeBps               uint32
	Price                uint64
	StartTime            uint64
	EndTime              uint64
	ExecutedRedemptions  uint64
	RequestedRedemptions uint64
	RequestCounter       uint64
}

// Clone returns a copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// DualOffer is a redemption offer that splits the net input between two
// output mints by RatioBps and converts each share at its own price.
type DualOffer struct {
	TokenInMint   string
	TokenOutMint1 string
	TokenOutMint2 string
	FeeBps        uint32
	RatioBps      uint32
	Price1        uint64
	Price2        uint64
	StartTime     uint64
	EndTime       uint64
	Executed      uint64
}

// Clone returns a copy of the dual offer.
func (o *DualOffer) Clone() *DualOffer {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// RequestStatus tracks the lifecycle of an escrowed redemption request.
type RequestStatus uint8

const (
	// RequestPending identifies requests whose escrow is held awaiting the
	// redemption admin.
	RequestPending RequestStatus = iota
	// RequestFulfilled marks requests settled by the redemption admin. Terminal.
	RequestFulfilled
	// RequestCancelled marks requests refunded to the requester. Terminal.
	RequestCancelled
)

// Valid reports whether the status value is within the supported range.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestFulfilled, RequestCancelled:
		return true
	default:
		return false
	}
}

// String returns the lowercase status label.
func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestFulfilled:
		return "fulfilled"
	case RequestCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Request is an escrowed redemption awaiting fulfilment, addressed by its
// owning offer pair and the offer's monotonic counter.
type Request struct {
	TokenInMint   string
	TokenOutMint  string
	Counter       uint64
	Requester     string
	TokenInAmount uint64
	CreatedAt     uint64
	Status        RequestStatus
	ClosedAt      uint64
}

// Clone returns a copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Receipt reports the outcome of a settled single redemption.
type Receipt struct {
	TokenInMint    string
	TokenOutMint   string
	Price          uint64
	TokenInAmount  uint64
	NetIn          uint64
	TokenOutAmount uint64
	OutputMinted   bool
	InputBurned    bool
}

// Leg reports one output side of a dual redemption.
type Leg struct {
	Mint      string
	Share     uint64
	Price     uint64
	AmountOut uint64
	Minted    bool
}

// DualReceipt reports the outcome of a settled dual redemption.
type DualReceipt struct {
	TokenInMint   string
	TokenInAmount uint64
	NetIn         uint64
	InputBurned   bool
	Legs          [2]Leg
}
