package events

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool = common.HexToAddress("0x00000000000000000000000000000000000000f0")

func newTestHub(t *testing.T, buffer uint) *Hub {
	t.Helper()
	h, err := NewHub(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), BufferSize: buffer})
	require.NoError(t, err)
	return h
}

func TestNewHub_Validation(t *testing.T) {
	_, err := NewHub(Config{BufferSize: 1})
	assert.Error(t, err)
	_, err = NewHub(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	assert.Error(t, err)
}

func TestHub_EmitAndDecode(t *testing.T) {
	h := newTestHub(t, 4)
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	h.Emit(testPool, uniswapv2.SyncEvent{ReserveA: uint256.NewInt(500), ReserveB: uint256.NewInt(2_000)})

	env := <-ch
	assert.Equal(t, uniswapv2.SyncEventKind, env.Type)
	assert.Equal(t, testPool, env.Pool)
	assert.NotZero(t, env.SentAt)

	event, err := env.Decode()
	require.NoError(t, err)
	sync, ok := event.(uniswapv2.SyncEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(500), sync.ReserveA.Uint64())
	assert.Equal(t, uint64(2_000), sync.ReserveB.Uint64())
}

func TestHub_FanOutPreservesOrder(t *testing.T) {
	h := newTestHub(t, 8)
	first, unsubFirst := h.Subscribe()
	defer unsubFirst()
	second, unsubSecond := h.Subscribe()
	defer unsubSecond()
	require.Equal(t, 2, h.Subscribers())

	h.Emit(testPool, uniswapv2.DepositEvent{AmountA: uint256.NewInt(1), AmountB: uint256.NewInt(1), SharesMinted: uint256.NewInt(1)})
	h.Emit(testPool, uniswapv2.SyncEvent{ReserveA: uint256.NewInt(1), ReserveB: uint256.NewInt(1)})

	for _, ch := range []<-chan Envelope{first, second} {
		assert.Equal(t, uniswapv2.DepositEventKind, (<-ch).Type)
		assert.Equal(t, uniswapv2.SyncEventKind, (<-ch).Type)
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := newTestHub(t, 1)
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	h.Emit(testPool, uniswapv2.SyncEvent{ReserveA: uint256.NewInt(1), ReserveB: uint256.NewInt(1)})
	h.Emit(testPool, uniswapv2.SyncEvent{ReserveA: uint256.NewInt(2), ReserveB: uint256.NewInt(2)})

	env := <-ch
	event, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), event.(uniswapv2.SyncEvent).ReserveA.Uint64())

	select {
	case env := <-ch:
		t.Fatalf("unexpected buffered event %v", env)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := newTestHub(t, 1)
	ch, unsubscribe := h.Subscribe()

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, h.Subscribers())

	_, open := <-ch
	assert.False(t, open, "channel should be closed")

	// Emitting with no subscribers is a no-op.
	h.Emit(testPool, uniswapv2.SyncEvent{ReserveA: uint256.NewInt(1), ReserveB: uint256.NewInt(1)})
}
