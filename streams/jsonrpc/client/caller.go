package client

import (
	"context"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc/server"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Caller is a typed wrapper around the amm namespace. Errors carrying a known
// code unwrap to the corresponding sentinel, so errors.Is works on them.
type Caller struct {
	rpc *rpc.Client
}

// NewCaller wraps an open RPC connection.
func NewCaller(c *rpc.Client) *Caller {
	return &Caller{rpc: c}
}

// Dial opens a connection to url and wraps it.
func Dial(ctx context.Context, url string) (*Caller, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewCaller(c), nil
}

// Close closes the underlying connection.
func (c *Caller) Close() {
	c.rpc.Close()
}

func (c *Caller) call(ctx context.Context, result any, method string, args ...any) error {
	err := c.rpc.CallContext(ctx, result, jsonrpc.RpcNamespace+"_"+method, args...)
	return jsonrpc.FromCode(err)
}

func (c *Caller) Tokens(ctx context.Context) ([]token.TokenView, error) {
	var out []token.TokenView
	err := c.call(ctx, &out, "tokens")
	return out, err
}

func (c *Caller) Pools(ctx context.Context) (poolregistry.PoolRegistryView, error) {
	var out poolregistry.PoolRegistryView
	err := c.call(ctx, &out, "pools")
	return out, err
}

func (c *Caller) TokenPools(ctx context.Context) (*poolregistry.TokenPoolsRegistryView, error) {
	var out poolregistry.TokenPoolsRegistryView
	if err := c.call(ctx, &out, "tokenPools"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Caller) PoolsForToken(ctx context.Context, tok common.Address) ([]uint64, error) {
	var out []uint64
	err := c.call(ctx, &out, "poolsForToken", tok)
	return out, err
}

func (c *Caller) PoolStates(ctx context.Context) ([]uniswapv2.PoolView, error) {
	var out []uniswapv2.PoolView
	err := c.call(ctx, &out, "poolStates")
	return out, err
}

func (c *Caller) PoolState(ctx context.Context, pool common.Address) (uniswapv2.PoolView, error) {
	var out uniswapv2.PoolView
	err := c.call(ctx, &out, "poolState", pool)
	return out, err
}

func (c *Caller) GetReserves(ctx context.Context, pool common.Address) (server.ReservesResult, error) {
	var out server.ReservesResult
	err := c.call(ctx, &out, "getReserves", pool)
	return out, err
}

func (c *Caller) GetAmountOut(ctx context.Context, amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "getAmountOut", amountIn, reserveIn, reserveOut)
	return out, err
}

func (c *Caller) GetAmountIn(ctx context.Context, amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "getAmountIn", amountOut, reserveIn, reserveOut)
	return out, err
}

func (c *Caller) QuoteSwap(ctx context.Context, pool, assetIn common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "quoteSwap", pool, assetIn, amountIn)
	return out, err
}

func (c *Caller) BalanceOf(ctx context.Context, tok, owner common.Address) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "balanceOf", tok, owner)
	return out, err
}

func (c *Caller) SharesOf(ctx context.Context, pool, owner common.Address) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "sharesOf", pool, owner)
	return out, err
}

func (c *Caller) Approve(ctx context.Context, tok, owner, spender common.Address, amount *uint256.Int) error {
	return c.call(ctx, nil, "approve", tok, owner, spender, amount)
}

func (c *Caller) Deposit(ctx context.Context, pool, provider common.Address, amountA, amountB *uint256.Int) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "deposit", pool, provider, amountA, amountB)
	return out, err
}

func (c *Caller) Redeem(ctx context.Context, pool, provider common.Address, shares *uint256.Int) (server.RedeemResult, error) {
	var out server.RedeemResult
	err := c.call(ctx, &out, "redeem", pool, provider, shares)
	return out, err
}

func (c *Caller) Swap(ctx context.Context, pool, caller, assetIn common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := c.call(ctx, out, "swap", pool, caller, assetIn, amountIn, minAmountOut)
	return out, err
}

func (c *Caller) Sync(ctx context.Context, pool common.Address) error {
	return c.call(ctx, nil, "sync", pool)
}
