package uniswapv2

import "errors"

// Errors returned by the pool engine and the quoting helpers. Callers should
// match them with errors.Is; ledger failures are wrapped around them or
// propagated as-is.
var (
	ErrInvalidConfiguration        = errors.New("uniswapv2: invalid configuration")
	ErrInsufficientInput           = errors.New("uniswapv2: insufficient input amount")
	ErrInsufficientLiquidityMinted = errors.New("uniswapv2: insufficient liquidity minted")
	ErrInsufficientLiquidityBurned = errors.New("uniswapv2: insufficient liquidity burned")
	ErrInsufficientBalance         = errors.New("uniswapv2: insufficient share balance")
	ErrInvalidAsset                = errors.New("uniswapv2: invalid asset")
	ErrInsufficientOutputAmount    = errors.New("uniswapv2: insufficient output amount")
	ErrInsufficientLiquidity       = errors.New("uniswapv2: insufficient liquidity")
	ErrReentrant                   = errors.New("uniswapv2: reentrant call")
	ErrOverflow                    = errors.New("uniswapv2: arithmetic overflow")

	// ErrPartialRedemption means asset A was paid out but asset B was not.
	// The shares stay burned and the Redeem event records what moved.
	ErrPartialRedemption = errors.New("uniswapv2: partial redemption")
)
