package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceAtZeroAPRIsConstant(t *testing.T) {
	vector := &Vector{SegmentID: 1, StartTime: 1_000, StartPrice: 5 * PriceScale, APR: 0, PriceFixDuration: 60, ValidFrom: 1_000}
	for _, now := range []uint64{1_000, 1_059, 1_060, 1_000_000, 1 << 40} {
		price, err := PriceAt(vector, now)
		require.NoError(t, err)
		require.Equal(t, uint64(5*PriceScale), price, "now=%d", now)
	}
}

func TestPriceAtStepsPerInterval(t *testing.T) {
	// 3.65% APR over daily fixed windows grows the price by exactly one
	// basis point of the start price per interval.
	vector := &Vector{SegmentID: 1, StartTime: 10_000, StartPrice: PriceScale, APR: 36_500, PriceFixDuration: 86_400, ValidFrom: 10_000}

	price, err := PriceAt(vector, 10_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_100_000), price, "first interval accrues immediately")

	// Constant within the first window.
	price, err = PriceAt(vector, 10_000+86_399)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_100_000), price)

	// Steps exactly at the boundary.
	price, err = PriceAt(vector, 10_000+86_400)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_200_000), price)

	// Non-decreasing across a long horizon.
	previous := uint64(0)
	for day := uint64(0); day < 400; day++ {
		price, err := PriceAt(vector, 10_000+day*86_400)
		require.NoError(t, err)
		require.GreaterOrEqual(t, price, previous)
		require.Greater(t, price, previous, "price must strictly increase at each boundary")
		previous = price
	}
}

func TestPriceAtBeforeValidFrom(t *testing.T) {
	vector := &Vector{SegmentID: 1, StartTime: 1_000, StartPrice: PriceScale, APR: 1, PriceFixDuration: 60, ValidFrom: 1_000}
	_, err := PriceAt(vector, 999)
	require.ErrorIs(t, err, ErrNoActiveVector)
}

func TestPriceAtOverflow(t *testing.T) {
	vector := &Vector{
		SegmentID:        1,
		StartTime:        1,
		StartPrice:       1 << 63,
		APR:              1 << 62,
		PriceFixDuration: 1,
		ValidFrom:        1,
	}
	_, err := PriceAt(vector, 1<<40)
	require.ErrorIs(t, err, ErrCalculationOverflow)
}

func TestActiveVectorPicksGreatestValidFrom(t *testing.T) {
	offer := &Offer{
		ID: 1,
		Vectors: []Vector{
			{SegmentID: 1, StartTime: 100, ValidFrom: 100, StartPrice: 1, PriceFixDuration: 1},
			{SegmentID: 2, StartTime: 200, ValidFrom: 200, StartPrice: 2, PriceFixDuration: 1},
			{SegmentID: 3, StartTime: 300, ValidFrom: 300, StartPrice: 3, PriceFixDuration: 1},
		},
	}

	vector, err := ActiveVector(offer, 250)
	require.NoError(t, err)
	require.Equal(t, uint64(2), vector.SegmentID)

	vector, err = ActiveVector(offer, 300)
	require.NoError(t, err)
	require.Equal(t, uint64(3), vector.SegmentID)

	// All vectors start in the future.
	_, err = ActiveVector(offer, 99)
	require.ErrorIs(t, err, ErrNoActiveVector)

	_, err = ActiveVector(&Offer{ID: 2}, 1_000)
	require.ErrorIs(t, err, ErrNoActiveVector)
}

func TestActiveVectorNotInsertionOrder(t *testing.T) {
	// A vector inserted later but clamped by ValidFrom can rank below an
	// earlier one; selection follows ValidFrom, not insertion order.
	offer := &Offer{
		ID: 1,
		Vectors: []Vector{
			{SegmentID: 1, StartTime: 100, ValidFrom: 500, StartPrice: 1, PriceFixDuration: 1},
			{SegmentID: 2, StartTime: 200, ValidFrom: 200, StartPrice: 2, PriceFixDuration: 1},
		},
	}
	vector, err := ActiveVector(offer, 400)
	require.NoError(t, err)
	require.Equal(t, uint64(2), vector.SegmentID)

	vector, err = ActiveVector(offer, 600)
	require.NoError(t, err)
	require.Equal(t, uint64(1), vector.SegmentID)
}

func TestQuotePinnedScenarios(t *testing.T) {
	tests := []struct {
		name      string
		amountIn  uint64
		price     uint64
		feeBps    uint32
		decIn     uint8
		decOut    uint8
		wantNetIn uint64
		wantOut   uint64
	}{
		{
			name:      "one basis point of growth",
			amountIn:  1_000_100,
			price:     1_000_100_000,
			feeBps:    0,
			decIn:     6,
			decOut:    9,
			wantNetIn: 1_000_100,
			wantOut:   1_000_000_000,
		},
		{
			name:      "one percent fee",
			amountIn:  1_000_100,
			price:     1_000_100_000,
			feeBps:    100,
			decIn:     6,
			decOut:    9,
			wantNetIn: 990_099,
			wantOut:   990_000_000,
		},
		{
			name:      "flat price ignores elapsed intervals",
			amountIn:  1_000_000,
			price:     PriceScale,
			feeBps:    0,
			decIn:     6,
			decOut:    9,
			wantNetIn: 1_000_000,
			wantOut:   1_000_000_000,
		},
		{
			name:      "same decimals at double price",
			amountIn:  80_000_000_000,
			price:     2 * PriceScale,
			feeBps:    0,
			decIn:     9,
			decOut:    9,
			wantNetIn: 80_000_000_000,
			wantOut:   40_000_000_000,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			netIn, out, err := Quote(tc.amountIn, tc.price, tc.feeBps, tc.decIn, tc.decOut)
			require.NoError(t, err)
			require.Equal(t, tc.wantNetIn, netIn)
			require.Equal(t, tc.wantOut, out)
		})
	}
}

func TestQuoteRejections(t *testing.T) {
	_, _, err := Quote(1_000, 0, 0, 6, 9)
	require.ErrorIs(t, err, ErrCalculationOverflow)

	_, _, err = Quote(1_000, PriceScale, BpsDenominator+1, 6, 9)
	require.ErrorIs(t, err, ErrFeeOutOfRange)

	// Output exceeding the 64-bit range overflows instead of saturating.
	_, _, err = Quote(1<<63, 1, 0, 0, 18)
	require.ErrorIs(t, err, ErrCalculationOverflow)
}

func TestQuoteFullFeeConsumesInput(t *testing.T) {
	netIn, out, err := Quote(1_000_000, PriceScale, BpsDenominator, 6, 9)
	require.NoError(t, err)
	require.Zero(t, netIn)
	require.Zero(t, out)
}

func TestSplitByRatioExact(t *testing.T) {
	for _, ratio := range []uint32{0, 1, 2_500, 5_000, 8_000, 9_999, 10_000} {
		share1, share2, err := SplitByRatio(100_000_000_007, ratio)
		require.NoError(t, err)
		require.Equal(t, uint64(100_000_000_007), share1+share2, "ratio=%d", ratio)
	}
	_, _, err := SplitByRatio(1, BpsDenominator+1)
	require.ErrorIs(t, err, ErrFeeOutOfRange)
}
