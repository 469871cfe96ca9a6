package uniswapv2

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestGetAmountOut(t *testing.T) {
	testCases := []struct {
		name       string
		amountIn   *uint256.Int
		reserveIn  *uint256.Int
		reserveOut *uint256.Int
		want       *uint256.Int
		wantErr    error
	}{
		{name: "balanced pool", amountIn: u(1000), reserveIn: u(100_000), reserveOut: u(100_000), want: u(987)},
		{name: "skewed pool", amountIn: u(10_000), reserveIn: u(1_000_000), reserveOut: u(4_000_000), want: u(39_486)},
		{
			name:       "18 decimals",
			amountIn:   uint256.MustFromDecimal("1000000000000000000"),
			reserveIn:  uint256.MustFromDecimal("1000000000000000000000"),
			reserveOut: uint256.MustFromDecimal("1000000000000000000000"),
			want:       uint256.MustFromDecimal("996006981039903216"),
		},
		{name: "zero input", amountIn: u(0), reserveIn: u(100), reserveOut: u(100), wantErr: ErrInsufficientInput},
		{name: "nil input", amountIn: nil, reserveIn: u(100), reserveOut: u(100), wantErr: ErrInsufficientInput},
		{name: "zero reserve in", amountIn: u(10), reserveIn: u(0), reserveOut: u(100), wantErr: ErrInsufficientLiquidity},
		{name: "zero reserve out", amountIn: u(10), reserveIn: u(100), reserveOut: u(0), wantErr: ErrInsufficientLiquidity},
		{
			name:       "input overflows fee multiplication",
			amountIn:   new(uint256.Int).SetAllOne(),
			reserveIn:  u(100),
			reserveOut: u(100),
			wantErr:    ErrOverflow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetAmountOut(tc.amountIn, tc.reserveIn, tc.reserveOut)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want.Dec(), got.Dec())
		})
	}
}

func TestGetAmountIn(t *testing.T) {
	testCases := []struct {
		name       string
		amountOut  *uint256.Int
		reserveIn  *uint256.Int
		reserveOut *uint256.Int
		want       *uint256.Int
		wantErr    error
	}{
		{name: "balanced pool", amountOut: u(1000), reserveIn: u(100_000), reserveOut: u(100_000), want: u(1014)},
		{name: "skewed pool", amountOut: u(39_486), reserveIn: u(1_000_000), reserveOut: u(4_000_000), want: u(10_000)},
		{name: "zero output", amountOut: u(0), reserveIn: u(100), reserveOut: u(100), wantErr: ErrInsufficientOutputAmount},
		{name: "output equals reserve", amountOut: u(100), reserveIn: u(100), reserveOut: u(100), wantErr: ErrInsufficientLiquidity},
		{name: "output exceeds reserve", amountOut: u(101), reserveIn: u(100), reserveOut: u(100), wantErr: ErrInsufficientLiquidity},
		{name: "zero reserve in", amountOut: u(1), reserveIn: u(0), reserveOut: u(100), wantErr: ErrInsufficientLiquidity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetAmountIn(tc.amountOut, tc.reserveIn, tc.reserveOut)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want.Dec(), got.Dec())
		})
	}
}

func TestGetAmountIn_BuysAtLeastRequestedOutput(t *testing.T) {
	reserves := [][2]uint64{
		{1_000, 1_000},
		{1_000_000, 4_000_000},
		{7_777_777, 13},
		{123_456_789, 987_654_321},
	}
	for _, r := range reserves {
		reserveIn, reserveOut := u(r[0]), u(r[1])
		for _, out := range []uint64{1, 2, r[1] / 3, r[1] / 2, r[1] - 1} {
			if out == 0 {
				continue
			}
			amountIn, err := GetAmountIn(u(out), reserveIn, reserveOut)
			require.NoError(t, err)

			got, err := GetAmountOut(amountIn, reserveIn, reserveOut)
			require.NoError(t, err)
			assert.False(t, got.Lt(u(out)), "reserves %v: GetAmountOut(GetAmountIn(%d)) = %s", r, out, got.Dec())
		}
	}
}

func TestGetAmountOut_NeverDecreasesProduct(t *testing.T) {
	reserves := [][2]uint64{
		{1_000, 1_000},
		{1_000_000, 4_000_000},
		{50, 1_000_000_000},
	}
	for _, r := range reserves {
		for _, amountIn := range []uint64{1, 3, 997, 10_000, 1_000_000_000} {
			out, err := GetAmountOut(u(amountIn), u(r[0]), u(r[1]))
			require.NoError(t, err)

			before := new(big.Int).Mul(new(big.Int).SetUint64(r[0]), new(big.Int).SetUint64(r[1]))
			after := new(big.Int).Mul(
				new(big.Int).SetUint64(r[0]+amountIn),
				new(big.Int).Sub(new(big.Int).SetUint64(r[1]), out.ToBig()),
			)
			assert.True(t, after.Cmp(before) >= 0, "reserves %v, in %d: k went from %s to %s", r, amountIn, before, after)
		}
	}
}

func TestQuote(t *testing.T) {
	got, err := Quote(u(500_000), u(1_000_000), u(4_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), got.Uint64())

	_, err = Quote(u(0), u(1), u(1))
	assert.ErrorIs(t, err, ErrInsufficientInput)

	_, err = Quote(u(1), u(0), u(1))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestInitialShares(t *testing.T) {
	t.Run("locks minimum liquidity", func(t *testing.T) {
		shares, err := initialShares(u(1_000_000), u(4_000_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(1_999_000), shares.Uint64())
	})

	t.Run("root at the minimum mints nothing", func(t *testing.T) {
		_, err := initialShares(u(1000), u(1000))
		assert.ErrorIs(t, err, ErrInsufficientLiquidityMinted)
	})

	t.Run("small deposit", func(t *testing.T) {
		// sqrt(100*200) = 141
		_, err := initialShares(u(100), u(200))
		assert.ErrorIs(t, err, ErrInsufficientLiquidityMinted)
	})

	t.Run("product overflow", func(t *testing.T) {
		huge := new(uint256.Int).Lsh(u(1), 200)
		_, err := initialShares(huge, huge)
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestProportionalShares(t *testing.T) {
	t.Run("balanced", func(t *testing.T) {
		shares, err := proportionalShares(u(500_000), u(2_000_000), u(1_000_000), u(4_000_000), u(2_000_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), shares.Uint64())
	})

	t.Run("takes the smaller side", func(t *testing.T) {
		shares, err := proportionalShares(u(500_000), u(4_000_000), u(1_000_000), u(4_000_000), u(2_000_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), shares.Uint64())
	})

	t.Run("dust mints nothing", func(t *testing.T) {
		_, err := proportionalShares(u(1), u(1), u(1_000_000), u(4_000_000), u(2_000))
		assert.ErrorIs(t, err, ErrInsufficientLiquidityMinted)
	})
}

func TestRedeemAmounts(t *testing.T) {
	amountA, amountB, err := redeemAmounts(u(1_999_000), u(1_000_000), u(4_000_000), u(2_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(999_500), amountA.Uint64())
	assert.Equal(t, uint64(3_998_000), amountB.Uint64())

	_, _, err = redeemAmounts(u(1), u(1), u(1_000_000), u(2_000_000))
	assert.ErrorIs(t, err, ErrInsufficientLiquidityBurned)
}
