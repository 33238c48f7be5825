package vault

import (
	"github.com/holiman/uint256"
)

// yearScale is the constant denominator of the accrual formula,
// SecondsPerYear * APRScale.
var yearScale = new(uint256.Int).Mul(
	uint256.NewInt(SecondsPerYear),
	uint256.NewInt(APRScale),
)

func pow10(n uint8) *uint256.Int {
	result := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint8(0); i < n; i++ {
		result.Mul(result, ten)
	}
	return result
}

// PriceAt evaluates the vector's price at the given unix time. Intervals are
// discrete: interval 1 is the first fixed window starting at ValidFrom, and
// the accrued yield is computed over whole elapsed intervals, so the price is
// constant within a window and steps at each PriceFixDuration boundary. A
// zero APR pins the price at StartPrice regardless of elapsed time.
func PriceAt(v *Vector, now uint64) (uint64, error) {
	if v == nil || v.PriceFixDuration == 0 || v.StartPrice == 0 {
		return 0, ErrCalculationOverflow
	}
	if now < v.ValidFrom {
		return 0, ErrNoActiveVector
	}
	if v.APR == 0 {
		return v.StartPrice, nil
	}
	intervalIndex := (now-v.ValidFrom)/v.PriceFixDuration + 1

	// price = startPrice * (yearScale + apr * intervalIndex * duration) / yearScale,
	// multiplication before division in 256-bit to preserve precision.
	elapsed := new(uint256.Int).Mul(
		uint256.NewInt(intervalIndex),
		uint256.NewInt(v.PriceFixDuration),
	)
	growth := new(uint256.Int).Mul(uint256.NewInt(v.APR), elapsed)
	growth.Add(growth, yearScale)
	price := new(uint256.Int).Mul(uint256.NewInt(v.StartPrice), growth)
	price.Div(price, yearScale)
	if !price.IsUint64() {
		return 0, ErrCalculationOverflow
	}
	return price.Uint64(), nil
}

// Quote converts an input amount into the output amount at the given price,
// applying the fee and normalizing both sides to the 9-decimal price basis so
// tokens of different precision convert without precision loss.
//
// netIn truncates towards zero; the fee remainder is retained, not refunded.
func Quote(amountIn uint64, price uint64, feeBps uint32, decimalsIn, decimalsOut uint8) (netIn uint64, amountOut uint64, err error) {
	if feeBps > BpsDenominator {
		return 0, 0, ErrFeeOutOfRange
	}
	if price == 0 {
		return 0, 0, ErrCalculationOverflow
	}
	net := new(uint256.Int).Mul(
		uint256.NewInt(amountIn),
		uint256.NewInt(uint64(BpsDenominator-feeBps)),
	)
	net.Div(net, uint256.NewInt(BpsDenominator))
	// netIn <= amountIn, so this cannot leave the 64-bit range.
	netIn = net.Uint64()

	num := new(uint256.Int).Mul(net, pow10(decimalsOut))
	num.Mul(num, uint256.NewInt(PriceScale))
	den := new(uint256.Int).Mul(uint256.NewInt(price), pow10(decimalsIn))
	if den.IsZero() {
		return 0, 0, ErrCalculationOverflow
	}
	out := num.Div(num, den)
	if !out.IsUint64() {
		return 0, 0, ErrCalculationOverflow
	}
	return netIn, out.Uint64(), nil
}

// SplitByRatio divides netIn into the share routed to the first output leg
// and the remainder. Assigning the remainder to the second leg keeps
// share1+share2 == netIn exactly for every ratio in [0, 10000].
func SplitByRatio(netIn uint64, ratioBps uint32) (share1, share2 uint64, err error) {
	if ratioBps > BpsDenominator {
		return 0, 0, ErrFeeOutOfRange
	}
	s1 := new(uint256.Int).Mul(
		uint256.NewInt(netIn),
		uint256.NewInt(uint64(ratioBps)),
	)
	s1.Div(s1, uint256.NewInt(BpsDenominator))
	share1 = s1.Uint64()
	return share1, netIn - share1, nil
}
