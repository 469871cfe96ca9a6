package uniswapv2

import (
	"github.com/holiman/uint256"
)

// MinimumLiquidity is the number of shares locked forever on the first
// deposit into a pool.
const MinimumLiquidity = 1000

// fee: 0.3% => multiplier 997/1000
const (
	FeeNumerator   = 997
	FeeDenominator = 1000
)

var (
	feeMul = uint256.NewInt(FeeNumerator)
	feeDen = uint256.NewInt(FeeDenominator)

	minimumLiquidity = uint256.NewInt(MinimumLiquidity)
)

// GetAmountOut returns the output received for amountIn given the reserves on
// either side of the trade, with the 0.3% fee applied to the input:
//
//	amountOut = amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997)
//
// The division truncates, so any remainder stays in the pool.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if isZero(amountIn) {
		return nil, ErrInsufficientInput
	}
	if isZero(reserveIn) || isZero(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeMul)
	if overflow {
		return nil, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDen)
	if overflow {
		return nil, ErrOverflow
	}
	if _, overflow = denominator.AddOverflow(denominator, amountInWithFee); overflow {
		return nil, ErrOverflow
	}

	// The quotient never exceeds reserveOut, so the 512-bit product cannot
	// overflow the result.
	amountOut, _ := new(uint256.Int).MulDivOverflow(amountInWithFee, reserveOut, denominator)
	return amountOut, nil
}

// GetAmountIn is the inverse of GetAmountOut: the smallest input that buys at
// least amountOut. The result is rounded up by one so the pool never sells
// below its price.
//
//	amountIn = reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997) + 1
func GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if isZero(amountOut) {
		return nil, ErrInsufficientOutputAmount
	}
	if isZero(reserveIn) || isZero(reserveOut) || !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}

	scaledReserveIn, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDen)
	if overflow {
		return nil, ErrOverflow
	}
	denominator := new(uint256.Int).Sub(reserveOut, amountOut)
	if _, overflow = denominator.MulOverflow(denominator, feeMul); overflow {
		return nil, ErrOverflow
	}

	amountIn, overflow := new(uint256.Int).MulDivOverflow(scaledReserveIn, amountOut, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	if _, overflow = amountIn.AddOverflow(amountIn, uint256.NewInt(1)); overflow {
		return nil, ErrOverflow
	}
	return amountIn, nil
}

// Quote returns the amount of the other asset that matches amountA at the
// current price: amountA*reserveB/reserveA, truncated. Clients use it to size
// a deposit that mints shares without donating surplus to the pool.
func Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if isZero(amountA) {
		return nil, ErrInsufficientInput
	}
	if isZero(reserveA) || isZero(reserveB) {
		return nil, ErrInsufficientLiquidity
	}
	amountB, overflow := new(uint256.Int).MulDivOverflow(amountA, reserveB, reserveA)
	if overflow {
		return nil, ErrOverflow
	}
	return amountB, nil
}

// initialShares returns floor(sqrt(amountA*amountB)) - MinimumLiquidity for the
// first deposit into an empty pool.
func initialShares(amountA, amountB *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(amountA, amountB)
	if overflow {
		return nil, ErrOverflow
	}
	root := new(uint256.Int).Sqrt(product)
	if !root.Gt(minimumLiquidity) {
		return nil, ErrInsufficientLiquidityMinted
	}
	return root.Sub(root, minimumLiquidity), nil
}

// proportionalShares returns min(amountA*total/reserveA, amountB*total/reserveB).
// Taking the smaller side means an unbalanced deposit never dilutes existing
// holders; the surplus is absorbed into the reserves.
func proportionalShares(amountA, amountB, reserveA, reserveB, totalShares *uint256.Int) (*uint256.Int, error) {
	if isZero(reserveA) || isZero(reserveB) {
		return nil, ErrInsufficientLiquidity
	}
	sharesA, overflow := new(uint256.Int).MulDivOverflow(amountA, totalShares, reserveA)
	if overflow {
		return nil, ErrOverflow
	}
	sharesB, overflow := new(uint256.Int).MulDivOverflow(amountB, totalShares, reserveB)
	if overflow {
		return nil, ErrOverflow
	}

	shares := sharesA
	if sharesB.Lt(sharesA) {
		shares = sharesB
	}
	if shares.IsZero() {
		return nil, ErrInsufficientLiquidityMinted
	}
	return shares, nil
}

// redeemAmounts returns the reserves owed for burning shares out of
// totalShares, truncated.
func redeemAmounts(shares, reserveA, reserveB, totalShares *uint256.Int) (amountA, amountB *uint256.Int, err error) {
	if isZero(totalShares) {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	// shares <= totalShares, so neither quotient can exceed its reserve.
	amountA, _ = new(uint256.Int).MulDivOverflow(shares, reserveA, totalShares)
	amountB, _ = new(uint256.Int).MulDivOverflow(shares, reserveB, totalShares)
	if amountA.IsZero() || amountB.IsZero() {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	return amountA, amountB, nil
}

func isZero(x *uint256.Int) bool {
	return x == nil || x.IsZero()
}

