// Package server exposes a pool registry over go-ethereum's JSON-RPC server.
//
// The state-changing methods take the acting participant as an argument and
// perform no authentication: the service is meant for local and devnet use,
// where the daemon plays the role of every participant's wallet.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/events"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the configuration for the API.
type Config struct {
	Registry *poolregistry.Registry
	Hub      *events.Hub
	Logger   Logger
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry is required")
	}
	if c.Hub == nil {
		return errors.New("config: Hub is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// ReservesResult is returned by GetReserves.
type ReservesResult struct {
	AssetA   common.Address `json:"assetA"`
	AssetB   common.Address `json:"assetB"`
	ReserveA *uint256.Int   `json:"reserveA"`
	ReserveB *uint256.Int   `json:"reserveB"`
}

// RedeemResult is returned by Redeem.
type RedeemResult struct {
	AmountA *uint256.Int `json:"amountA"`
	AmountB *uint256.Int `json:"amountB"`
}

// API is the amm JSON-RPC service. Every exported method is reachable as
// amm_<lowerCamelName>.
type API struct {
	registry *poolregistry.Registry
	hub      *events.Hub
	logger   Logger
}

// NewAPI creates the service.
func NewAPI(cfg Config) (*API, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &API{
		registry: cfg.Registry,
		hub:      cfg.Hub,
		logger:   cfg.Logger,
	}, nil
}

// NewServer creates an rpc.Server with the API registered under the amm
// namespace.
func NewServer(api *API) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(jsonrpc.RpcNamespace, api); err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", jsonrpc.RpcNamespace, err)
	}
	return srv, nil
}

// Tokens lists the registered tokens.
func (api *API) Tokens() []token.TokenView {
	return api.registry.Tokens()
}

// Pools lists the registered tokens and pools.
func (api *API) Pools() poolregistry.PoolRegistryView {
	return api.registry.Registry()
}

// TokenPools returns the token graph.
func (api *API) TokenPools() *poolregistry.TokenPoolsRegistryView {
	return api.registry.TokenPools()
}

// PoolsForToken returns the IDs of every pool holding tok, ascending.
func (api *API) PoolsForToken(tok common.Address) ([]uint64, error) {
	if _, ok := api.registry.Token(tok); !ok {
		return nil, jsonrpc.WithCode(fmt.Errorf("%w: %s", poolregistry.ErrUnknownToken, tok))
	}
	ids := api.registry.PoolsForToken(tok)
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// PoolStates returns a live snapshot of every pool, ordered by ID.
func (api *API) PoolStates() []uniswapv2.PoolView {
	return api.registry.Views()
}

// PoolState returns a live snapshot of the pool at address.
func (api *API) PoolState(pool common.Address) (uniswapv2.PoolView, error) {
	p, err := api.pool(pool)
	if err != nil {
		return uniswapv2.PoolView{}, err
	}
	return p.View(), nil
}

// GetReserves returns the synchronized reserves of the pool at address.
func (api *API) GetReserves(pool common.Address) (ReservesResult, error) {
	p, err := api.pool(pool)
	if err != nil {
		return ReservesResult{}, err
	}
	assetA, assetB := p.Assets()
	reserveA, reserveB := p.GetReserves()
	return ReservesResult{
		AssetA:   assetA,
		AssetB:   assetB,
		ReserveA: reserveA,
		ReserveB: reserveB,
	}, nil
}

// GetAmountOut exposes uniswapv2.GetAmountOut.
func (api *API) GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	out, err := uniswapv2.GetAmountOut(amountIn, reserveIn, reserveOut)
	return out, jsonrpc.WithCode(err)
}

// GetAmountIn exposes uniswapv2.GetAmountIn.
func (api *API) GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	in, err := uniswapv2.GetAmountIn(amountOut, reserveIn, reserveOut)
	return in, jsonrpc.WithCode(err)
}

// QuoteSwap prices a swap against the pool's current reserves without
// executing it.
func (api *API) QuoteSwap(pool, assetIn common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	p, err := api.pool(pool)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, ok := p.View().Reserves(assetIn)
	if !ok {
		return nil, jsonrpc.WithCode(fmt.Errorf("%w: %s", uniswapv2.ErrInvalidAsset, assetIn))
	}
	out, err := uniswapv2.GetAmountOut(amountIn, reserveIn, reserveOut)
	return out, jsonrpc.WithCode(err)
}

// BalanceOf returns owner's balance of a registered token.
func (api *API) BalanceOf(tok, owner common.Address) (*uint256.Int, error) {
	l, ok := api.registry.Token(tok)
	if !ok {
		return nil, jsonrpc.WithCode(fmt.Errorf("%w: %s", poolregistry.ErrUnknownToken, tok))
	}
	return l.BalanceOf(owner), nil
}

// SharesOf returns owner's share balance in the pool at address.
func (api *API) SharesOf(pool, owner common.Address) (*uint256.Int, error) {
	p, err := api.pool(pool)
	if err != nil {
		return nil, err
	}
	return p.SharesOf(owner), nil
}

// Approve sets spender's allowance over owner's balance of a registered
// token.
func (api *API) Approve(tok, owner, spender common.Address, amount *uint256.Int) error {
	l, ok := api.registry.Token(tok)
	if !ok {
		return jsonrpc.WithCode(fmt.Errorf("%w: %s", poolregistry.ErrUnknownToken, tok))
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	return jsonrpc.WithCode(l.Approve(owner, spender, amount))
}

// Deposit provides liquidity to the pool at address on behalf of provider.
func (api *API) Deposit(pool, provider common.Address, amountA, amountB *uint256.Int) (*uint256.Int, error) {
	p, err := api.pool(pool)
	if err != nil {
		return nil, err
	}
	shares, err := p.Deposit(provider, amountA, amountB)
	if err != nil {
		return nil, api.rejected("deposit", pool, provider, err)
	}
	return shares, nil
}

// Redeem withdraws liquidity from the pool at address on behalf of provider.
func (api *API) Redeem(pool, provider common.Address, shares *uint256.Int) (RedeemResult, error) {
	p, err := api.pool(pool)
	if err != nil {
		return RedeemResult{}, err
	}
	amountA, amountB, err := p.Redeem(provider, shares)
	if err != nil {
		return RedeemResult{}, api.rejected("redeem", pool, provider, err)
	}
	return RedeemResult{AmountA: amountA, AmountB: amountB}, nil
}

// Swap sells amountIn of assetIn on behalf of caller.
func (api *API) Swap(pool, caller, assetIn common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	p, err := api.pool(pool)
	if err != nil {
		return nil, err
	}
	out, err := p.Swap(caller, assetIn, amountIn, minAmountOut)
	if err != nil {
		return nil, api.rejected("swap", pool, caller, err)
	}
	return out, nil
}

// Sync resynchronizes the reserves of the pool at address.
func (api *API) Sync(pool common.Address) error {
	p, err := api.pool(pool)
	if err != nil {
		return err
	}
	if err := p.Sync(); err != nil {
		return api.rejected("sync", pool, common.Address{}, err)
	}
	return nil
}

// SubscribeEvents streams every pool event as an events.Envelope.
func (api *API) SubscribeEvents(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}

	rpcSub := notifier.CreateSubscription()
	envelopes, unsubscribe := api.hub.Subscribe()
	api.logger.Info("Event subscriber connected", "subscription", rpcSub.ID)

	go func() {
		defer unsubscribe()
		for {
			select {
			case env, ok := <-envelopes:
				if !ok {
					return
				}
				if err := notifier.Notify(rpcSub.ID, env); err != nil {
					api.logger.Warn("Failed to notify subscriber", "subscription", rpcSub.ID, "error", err)
					return
				}
			case <-rpcSub.Err():
				api.logger.Info("Event subscriber disconnected", "subscription", rpcSub.ID)
				return
			}
		}
	}()

	return rpcSub, nil
}

// rejected logs a failed state-changing call and attaches its error code.
// Failures the pool decided on are routine; anything else came from a ledger.
func (api *API) rejected(op string, pool, who common.Address, err error) error {
	if uniswapv2.IsPoolError(err) {
		api.logger.Debug("Pool call rejected", "op", op, "pool", pool, "account", who, "error", err)
	} else {
		api.logger.Warn("Pool call failed", "op", op, "pool", pool, "account", who, "error", err)
	}
	return jsonrpc.WithCode(err)
}

func (api *API) pool(address common.Address) (*uniswapv2.Pool, error) {
	p, ok := api.registry.PoolByAddress(address)
	if !ok {
		return nil, jsonrpc.WithCode(fmt.Errorf("%w: %s", poolregistry.ErrPoolNotFound, address))
	}
	return p, nil
}
