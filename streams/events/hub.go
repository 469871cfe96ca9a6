package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/ethereum/go-ethereum/common"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Envelope is the wire form of a pool event sent to subscribers.
type Envelope struct {
	Type    uniswapv2.EventKind `json:"type"`
	Pool    common.Address      `json:"pool"`
	Payload json.RawMessage     `json:"payload"`
	SentAt  int64               `json:"sentAt"`
}

// Config holds the configuration for a Hub.
type Config struct {
	Logger     Logger
	BufferSize uint
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.BufferSize < 1 {
		return errors.New("config: BufferSize must be greater than 0")
	}
	return nil
}

// Hub fans pool events out to subscribers. It implements
// uniswapv2.EventSink. Emit never blocks: a subscriber whose buffer is full
// misses the event.
type Hub struct {
	logger     Logger
	bufferSize uint

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Envelope
}

// NewHub creates a hub with no subscribers.
func NewHub(cfg Config) (*Hub, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Hub{
		logger:     cfg.Logger,
		bufferSize: cfg.BufferSize,
		subs:       make(map[uint64]chan Envelope),
	}, nil
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Envelope, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Envelope, h.bufferSize)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Emit encodes event and delivers it to every subscriber.
func (h *Hub) Emit(pool common.Address, event uniswapv2.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode pool event", "pool", pool, "type", event.Kind(), "error", err)
		return
	}
	env := Envelope{
		Type:    event.Kind(),
		Pool:    pool,
		Payload: payload,
		SentAt:  time.Now().UnixNano(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- env:
		default:
			h.logger.Warn("Subscriber buffer full, dropping event", "subscriber", id, "pool", pool, "type", env.Type)
		}
	}
}

// Decode returns the typed event carried by the envelope.
func (e Envelope) Decode() (uniswapv2.Event, error) {
	return uniswapv2.DecodeEventJSON(e.Type, e.Payload)
}
