package events

import (
	"strconv"
	"strings"

	"onre/core/types"
)

const (
	// TypeOfferCreated is emitted when a buy offer is registered.
	TypeOfferCreated = "vault.offer.created"
	// TypeOfferDeleted is emitted when a buy offer is removed.
	TypeOfferDeleted = "vault.offer.deleted"
	// TypeOfferFeeUpdated is emitted when an offer's fee changes.
	TypeOfferFeeUpdated = "vault.offer.fee_updated"
	// TypeVectorAdded is emitted when a pricing vector is appended to an offer.
	TypeVectorAdded = "vault.vector.added"
	// TypeVectorDeleted is emitted when a pricing vector is removed.
	TypeVectorDeleted = "vault.vector.deleted"
	// TypeOfferTaken is emitted on every settled take, direct or permissionless.
	TypeOfferTaken = "vault.offer.taken"
)

// OfferCreated records the registration of a new buy offer.
type OfferCreated struct {
	OfferID      uint64
	TokenInMint  string
	TokenOutMint string
	FeeBps       uint32
}

func (OfferCreated) EventType() string { return TypeOfferCreated }

// Event converts the payload into its attribute map representation.
func (e OfferCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeOfferCreated,
		Attributes: map[string]string{
			"offerId":  strconv.FormatUint(e.OfferID, 10),
			"tokenIn":  strings.TrimSpace(e.TokenInMint),
			"tokenOut": strings.TrimSpace(e.TokenOutMint),
			"feeBps":   strconv.FormatUint(uint64(e.FeeBps), 10),
		},
	}
}

// OfferDeleted records the removal of a buy offer.
type OfferDeleted struct {
	OfferID uint64
}

func (OfferDeleted) EventType() string { return TypeOfferDeleted }

// Event converts the payload into its attribute map representation.
func (e OfferDeleted) Event() *types.Event {
	return &types.Event{
		Type: TypeOfferDeleted,
		Attributes: map[string]string{
			"offerId": strconv.FormatUint(e.OfferID, 10),
		},
	}
}

// OfferFeeUpdated records a fee change on an existing offer.
type OfferFeeUpdated struct {
	OfferID uint64
	FeeBps  uint32
}

func (OfferFeeUpdated) EventType() string { return TypeOfferFeeUpdated }

// Event converts the payload into its attribute map representation.
func (e OfferFeeUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeOfferFeeUpdated,
		Attributes: map[string]string{
			"offerId": strconv.FormatUint(e.OfferID, 10),
			"feeBps":  strconv.FormatUint(uint64(e.FeeBps), 10),
		},
	}
}

// VectorAdded records a new pricing vector on an offer.
type VectorAdded struct {
	OfferID    uint64
	SegmentID  uint64
	StartTime  uint64
	StartPrice uint64
	APR        uint64
	Duration   uint64
}

func (VectorAdded) EventType() string { return TypeVectorAdded }

// Event converts the payload into its attribute map representation.
func (e VectorAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeVectorAdded,
		Attributes: map[string]string{
			"offerId":    strconv.FormatUint(e.OfferID, 10),
			"segmentId":  strconv.FormatUint(e.SegmentID, 10),
			"startTime":  strconv.FormatUint(e.StartTime, 10),
			"startPrice": strconv.FormatUint(e.StartPrice, 10),
			"apr":        strconv.FormatUint(e.APR, 10),
			"duration":   strconv.FormatUint(e.Duration, 10),
		},
	}
}

// VectorDeleted records the removal of one or all vectors from an offer. A
// zero SegmentID with All set indicates a bulk removal.
type VectorDeleted struct {
	OfferID   uint64
	SegmentID uint64
	All       bool
}

func (VectorDeleted) EventType() string { return TypeVectorDeleted }

// Event converts the payload into its attribute map representation.
func (e VectorDeleted) Event() *types.Event {
	return &types.Event{
		Type: TypeVectorDeleted,
		Attributes: map[string]string{
			"offerId":   strconv.FormatUint(e.OfferID, 10),
			"segmentId": strconv.FormatUint(e.SegmentID, 10),
			"all":       strconv.FormatBool(e.All),
		},
	}
}

// OfferTaken records a settled take against a buy offer.
type OfferTaken struct {
	OfferID        uint64
	Taker          string
	SegmentID      uint64
	Price          uint64
	TokenInAmount  uint64
	TokenOutAmount uint64
	OutputMinted   bool
	InputBurned    bool
	Permissionless bool
}

func (OfferTaken) EventType() string { return TypeOfferTaken }

// Event converts the payload into its attribute map representation.
func (e OfferTaken) Event() *types.Event {
	return &types.Event{
		Type: TypeOfferTaken,
		Attributes: map[string]string{
			"offerId":        strconv.FormatUint(e.OfferID, 10),
			"taker":          strings.TrimSpace(e.Taker),
			"segmentId":      strconv.FormatUint(e.SegmentID, 10),
			"price":          strconv.FormatUint(e.Price, 10),
			"tokenIn":        strconv.FormatUint(e.TokenInAmount, 10),
			"tokenOut":       strconv.FormatUint(e.TokenOutAmount, 10),
			"outputMinted":   strconv.FormatBool(e.OutputMinted),
			"inputBurned":    strconv.FormatBool(e.InputBurned),
			"permissionless": strconv.FormatBool(e.Permissionless),
		},
	}
}
