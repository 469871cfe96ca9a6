package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/events"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc/server"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB = common.HexToAddress("0x000000000000000000000000000000000000000b")
	trader = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type testEnv struct {
	srv      *rpc.Server
	hub      *events.Hub
	registry *poolregistry.Registry
	pool     poolregistry.PoolView
	caller   *Caller
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hub, err := events.NewHub(events.Config{Logger: testLogger(), BufferSize: 64})
	require.NoError(t, err)
	registry, err := poolregistry.NewRegistry(poolregistry.Config{Sink: hub, Logger: testLogger()})
	require.NoError(t, err)

	for i, addr := range []common.Address{tokenA, tokenB} {
		l, err := token.NewLedger(token.TokenView{ID: uint64(i), Address: addr, Symbol: []string{"AAA", "BBB"}[i], Decimals: 18})
		require.NoError(t, err)
		require.NoError(t, registry.RegisterToken(l))
		require.NoError(t, l.Mint(trader, uint256.NewInt(100_000_000)))
	}
	pool, err := registry.CreatePool(tokenA, tokenB)
	require.NoError(t, err)

	api, err := server.NewAPI(server.Config{Registry: registry, Hub: hub, Logger: testLogger()})
	require.NoError(t, err)
	srv, err := server.NewServer(api)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	caller := NewCaller(rpc.DialInProc(srv))
	t.Cleanup(caller.Close)

	return &testEnv{srv: srv, hub: hub, registry: registry, pool: pool, caller: caller}
}

func (e *testEnv) approveAndSeed(t *testing.T, ctx context.Context) {
	t.Helper()
	unlimited := new(uint256.Int).SetAllOne()
	require.NoError(t, e.caller.Approve(ctx, tokenA, trader, e.pool.Address, unlimited))
	require.NoError(t, e.caller.Approve(ctx, tokenB, trader, e.pool.Address, unlimited))

	shares, err := e.caller.Deposit(ctx, e.pool.Address, trader, uint256.NewInt(1_000_000), uint256.NewInt(4_000_000))
	require.NoError(t, err)
	require.Equal(t, uint64(1_999_000), shares.Uint64())
}

func TestCaller_RoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("registry views", func(t *testing.T) {
		tokens, err := env.caller.Tokens(ctx)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, "BBB", tokens[1].Symbol)

		pools, err := env.caller.Pools(ctx)
		require.NoError(t, err)
		require.Len(t, pools.Pools, 1)
		assert.Equal(t, env.pool.Key, pools.Pools[0].Key)

		graph, err := env.caller.TokenPools(ctx)
		require.NoError(t, err)
		require.Len(t, graph.Adjacency, 2)
		require.Len(t, graph.Adjacency[0], 1)
		assert.Equal(t, tokenB, graph.Tokens[graph.EdgeTargets[graph.Adjacency[0][0]]])

		ids, err := env.caller.PoolsForToken(ctx, tokenA)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, ids)
	})

	t.Run("operations", func(t *testing.T) {
		env.approveAndSeed(t, ctx)

		reserves, err := env.caller.GetReserves(ctx, env.pool.Address)
		require.NoError(t, err)
		assert.Equal(t, tokenA, reserves.AssetA)
		assert.Equal(t, uint64(1_000_000), reserves.ReserveA.Uint64())
		assert.Equal(t, uint64(4_000_000), reserves.ReserveB.Uint64())

		states, err := env.caller.PoolStates(ctx)
		require.NoError(t, err)
		require.Len(t, states, 1)
		assert.Equal(t, uint64(2_000_000), states[0].TotalShares.Uint64())

		quote, err := env.caller.QuoteSwap(ctx, env.pool.Address, tokenA, uint256.NewInt(10_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(39_486), quote.Uint64())

		out, err := env.caller.Swap(ctx, env.pool.Address, trader, tokenA, uint256.NewInt(10_000), quote)
		require.NoError(t, err)
		assert.Equal(t, quote.Uint64(), out.Uint64())

		state, err := env.caller.PoolState(ctx, env.pool.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_010_000), state.ReserveA.Uint64())
		assert.Equal(t, uint64(3_960_514), state.ReserveB.Uint64())

		shares, err := env.caller.SharesOf(ctx, env.pool.Address, trader)
		require.NoError(t, err)
		res, err := env.caller.Redeem(ctx, env.pool.Address, trader, shares)
		require.NoError(t, err)
		assert.False(t, res.AmountA.IsZero())
		assert.False(t, res.AmountB.IsZero())

		require.NoError(t, env.caller.Sync(ctx, env.pool.Address))
		state, err = env.caller.PoolState(ctx, env.pool.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(uniswapv2.MinimumLiquidity), state.TotalShares.Uint64())

		balance, err := env.caller.BalanceOf(ctx, tokenA, trader)
		require.NoError(t, err)
		assert.Equal(t, uint64(100_000_000)-state.ReserveA.Uint64(), balance.Uint64())
	})

	t.Run("stateless helpers", func(t *testing.T) {
		out, err := env.caller.GetAmountOut(ctx, uint256.NewInt(1000), uint256.NewInt(100_000), uint256.NewInt(100_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(987), out.Uint64())

		in, err := env.caller.GetAmountIn(ctx, uint256.NewInt(1000), uint256.NewInt(100_000), uint256.NewInt(100_000))
		require.NoError(t, err)
		assert.Equal(t, uint64(1014), in.Uint64())
	})
}

func TestCaller_ErrorsMatchAcrossTheWire(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.approveAndSeed(t, ctx)

	_, err := env.caller.Swap(ctx, env.pool.Address, trader, tokenA, uint256.NewInt(10_000), uint256.NewInt(39_487))
	assert.ErrorIs(t, err, uniswapv2.ErrInsufficientOutputAmount)

	_, err = env.caller.Swap(ctx, env.pool.Address, trader, trader, uint256.NewInt(10_000), nil)
	assert.ErrorIs(t, err, uniswapv2.ErrInvalidAsset)

	_, err = env.caller.Deposit(ctx, env.pool.Address, trader, uint256.NewInt(0), uint256.NewInt(1))
	assert.ErrorIs(t, err, uniswapv2.ErrInsufficientInput)

	_, err = env.caller.GetAmountIn(ctx, uint256.NewInt(0), uint256.NewInt(1), uint256.NewInt(1))
	assert.ErrorIs(t, err, uniswapv2.ErrInsufficientOutputAmount)

	_, err = env.caller.Redeem(ctx, env.pool.Address, common.HexToAddress("0x1234"), uint256.NewInt(1))
	assert.ErrorIs(t, err, uniswapv2.ErrInsufficientBalance)

	_, err = env.caller.PoolState(ctx, common.HexToAddress("0xdead"))
	assert.ErrorIs(t, err, poolregistry.ErrPoolNotFound)

	_, err = env.caller.BalanceOf(ctx, common.HexToAddress("0xdead"), trader)
	assert.ErrorIs(t, err, poolregistry.ErrUnknownToken)

	_, err = env.caller.PoolsForToken(ctx, common.HexToAddress("0xdead"))
	assert.ErrorIs(t, err, poolregistry.ErrUnknownToken)

	stranger := common.HexToAddress("0x5555")
	_, err = env.caller.Deposit(ctx, env.pool.Address, stranger, uint256.NewInt(10), uint256.NewInt(10))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)

	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 1101, rpcErr.ErrorCode())
}

func TestClient_ReceivesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env := newTestEnv(t)

	c, err := NewClient(ctx, Config{
		URL:        "inproc",
		Logger:     testLogger(),
		BufferSize: 16,
		Dial: func(context.Context, string) (*rpc.Client, error) {
			return rpc.DialInProc(env.srv), nil
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	env.approveAndSeed(t, ctx)

	var got []uniswapv2.Event
	for len(got) < 2 {
		select {
		case n := <-c.Events():
			assert.Equal(t, env.pool.Address, n.Pool)
			got = append(got, n.Event)
		case err := <-c.Err():
			t.Fatalf("client failed: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d events", len(got))
		}
	}

	deposit, ok := got[0].(uniswapv2.DepositEvent)
	require.True(t, ok, "first event should be a deposit, got %T", got[0])
	assert.Equal(t, trader, deposit.Provider)
	assert.Equal(t, uint64(1_999_000), deposit.SharesMinted.Uint64())

	syncEvent, ok := got[1].(uniswapv2.SyncEvent)
	require.True(t, ok, "second event should be a sync, got %T", got[1])
	assert.Equal(t, uint64(4_000_000), syncEvent.ReserveB.Uint64())

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-c.Events():
			return !open
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "event channel should close after cancel")
}

func TestNewClient_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, Config{Logger: testLogger(), BufferSize: 1})
	assert.Error(t, err)
	_, err = NewClient(ctx, Config{URL: "x", BufferSize: 1})
	assert.Error(t, err)
	_, err = NewClient(ctx, Config{URL: "x", Logger: testLogger()})
	assert.Error(t, err)
}
