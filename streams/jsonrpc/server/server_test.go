package server

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/events"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level string
	msg   string
}

// recordingLogger keeps the level and message of every entry.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *recordingLogger) levelsFor(msg string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var levels []string
	for _, e := range l.entries {
		if e.msg == msg {
			levels = append(levels, e.level)
		}
	}
	return levels
}

func newTestAPI(t *testing.T) (*API, poolregistry.PoolView) {
	t.Helper()
	return newTestAPIWithLogger(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestAPIWithLogger(t *testing.T, apiLogger Logger) (*API, poolregistry.PoolView) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub, err := events.NewHub(events.Config{Logger: logger, BufferSize: 8})
	require.NoError(t, err)
	registry, err := poolregistry.NewRegistry(poolregistry.Config{Sink: hub, Logger: logger})
	require.NoError(t, err)

	for i, addr := range []common.Address{common.HexToAddress("0x0a"), common.HexToAddress("0x0b")} {
		l, err := token.NewLedger(token.TokenView{ID: uint64(i), Address: addr, Symbol: []string{"AAA", "BBB"}[i]})
		require.NoError(t, err)
		require.NoError(t, registry.RegisterToken(l))
	}
	tokens := registry.Tokens()
	pool, err := registry.CreatePool(tokens[0].Address, tokens[1].Address)
	require.NoError(t, err)

	api, err := NewAPI(Config{Registry: registry, Hub: hub, Logger: apiLogger})
	require.NoError(t, err)
	return api, pool
}

func TestNewAPI_Validation(t *testing.T) {
	_, err := NewAPI(Config{})
	assert.Error(t, err)
}

func TestAPI_ErrorsCarryCodes(t *testing.T) {
	api, pool := newTestAPI(t)

	_, err := api.PoolState(common.HexToAddress("0xdead"))
	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 1201, rpcErr.ErrorCode())
	assert.ErrorIs(t, err, poolregistry.ErrPoolNotFound)

	_, err = api.QuoteSwap(pool.Address, common.HexToAddress("0xdead"), uint256.NewInt(1))
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 1005, rpcErr.ErrorCode())

	_, err = api.Swap(pool.Address, common.HexToAddress("0xb0b"), pool.AssetA, uint256.NewInt(1), nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 1007, rpcErr.ErrorCode(), "empty pool")
	assert.ErrorIs(t, err, uniswapv2.ErrInsufficientLiquidity)
}

func TestAPI_RejectionLogging(t *testing.T) {
	logger := &recordingLogger{}
	api, pool := newTestAPIWithLogger(t, logger)

	// Empty pool: the engine refuses before touching a ledger.
	_, err := api.Swap(pool.Address, common.HexToAddress("0xb0b"), pool.AssetA, uint256.NewInt(1), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"debug"}, logger.levelsFor("Pool call rejected"))

	// No balance or allowance: the ledger refuses the pull.
	_, err = api.Deposit(pool.Address, common.HexToAddress("0xb0b"), uint256.NewInt(10), uint256.NewInt(10))
	require.ErrorIs(t, err, token.ErrInsufficientAllowance)
	assert.Equal(t, []string{"warn"}, logger.levelsFor("Pool call failed"))
}

func TestAPI_PoolQueries(t *testing.T) {
	api, pool := newTestAPI(t)

	ids, err := api.PoolsForToken(pool.AssetB)
	require.NoError(t, err)
	assert.Equal(t, []uint64{pool.ID}, ids)

	_, err = api.PoolsForToken(common.HexToAddress("0xdead"))
	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 1200, rpcErr.ErrorCode())

	states := api.PoolStates()
	require.Len(t, states, 1)
	assert.Equal(t, pool.Address, states[0].Address)
	assert.True(t, states[0].ReserveA.IsZero())
}

func TestAPI_SubscribeEventsRequiresNotifier(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.SubscribeEvents(context.Background())
	assert.ErrorIs(t, err, rpc.ErrNotificationsUnsupported)
}

func TestNewServer_RegistersNamespace(t *testing.T) {
	api, _ := newTestAPI(t)
	srv, err := NewServer(api)
	require.NoError(t, err)
	defer srv.Stop()

	c := rpc.DialInProc(srv)
	defer c.Close()

	var tokens []token.TokenView
	require.NoError(t, c.Call(&tokens, jsonrpc.RpcNamespace+"_tokens"))
	assert.Len(t, tokens, 2)
}
