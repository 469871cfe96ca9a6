package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/events"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// Constants for reconnection logic
const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DialFunc opens an RPC connection. It defaults to rpc.DialContext.
type DialFunc func(ctx context.Context, url string) (*rpc.Client, error)

// Config holds the configuration for the client.
type Config struct {
	URL        string
	Logger     Logger
	BufferSize uint
	Dial       DialFunc
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.BufferSize < 1 {
		return errors.New("config: BufferSize must be greater than 0")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Notification is a decoded pool event received from the server.
type Notification struct {
	Pool   common.Address
	Event  uniswapv2.Event
	SentAt time.Time
}

// Client maintains an event subscription to the amm service, reconnecting
// with exponential backoff when the connection drops.
type Client struct {
	dial    DialFunc
	eventCh chan Notification
	errCh   chan error
	logger  Logger
}

// NewClient creates a new client and starts the connection and subscription manager.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	dial := cfg.Dial
	if dial == nil {
		dial = rpc.DialContext
	}

	client := &Client{
		dial:    dial,
		eventCh: make(chan Notification, cfg.BufferSize),
		errCh:   make(chan error, 1),
		logger:  cfg.Logger,
	}

	go client.run(ctx, cfg.URL)
	return client, nil
}

// Events returns a read-only channel for receiving pool events.
func (c *Client) Events() <-chan Notification {
	return c.eventCh
}

// Err returns a read-only channel for receiving fatal (unrecoverable) errors.
func (c *Client) Err() <-chan error {
	return c.errCh
}

// run handles the entire lifecycle of the client, including reconnection.
func (c *Client) run(ctx context.Context, url string) {
	defer close(c.eventCh)
	defer close(c.errCh)
	reconnectDelay := initialReconnectDelay

	for {
		if ctx.Err() != nil {
			c.logger.Info("Client context canceled, shutting down.")
			return
		}

		c.logger.Info("Attempting to connect to RPC server", "url", url)
		rpcClient, err := c.dial(ctx, url)
		if err != nil {
			c.logger.Error("Failed to connect to RPC server, will retry...", "error", err, "delay", reconnectDelay)
			if !sleep(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = min(reconnectDelay*2, maxReconnectDelay)
			continue
		}

		c.logger.Info("Successfully connected to RPC server.")
		reconnectDelay = initialReconnectDelay // Reset delay on success

		err = c.subscribeAndProcess(ctx, rpcClient)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("Context canceled during subscription, shutting down.", "error", err)
				return
			}
			if errors.Is(err, rpc.ErrNotificationsUnsupported) {
				c.errCh <- fmt.Errorf("server at %s cannot stream events: %w", url, err)
				return
			}
			c.logger.Error("Subscription failed, will reconnect...", "error", err, "delay", reconnectDelay)
			if !sleep(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = min(reconnectDelay*2, maxReconnectDelay)
		}
	}
}

// subscribeAndProcess handles the subscription and processing of messages.
func (c *Client) subscribeAndProcess(ctx context.Context, rpcClient *rpc.Client) error {
	defer rpcClient.Close()

	rawCh := make(chan json.RawMessage)
	sub, err := rpcClient.Subscribe(ctx, jsonrpc.RpcNamespace, rawCh, jsonrpc.EventSubscriptionMethod)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	c.logger.Info("Successfully subscribed. Waiting for events...")
	for {
		select {
		case rawData := <-rawCh:
			c.processMessage(ctx, rawData)
		case err := <-sub.Err():
			if err == nil {
				return errors.New("subscription closed by server")
			}
			return err
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping subscription.")
			return ctx.Err()
		}
	}
}

// processMessage decodes an envelope and forwards the typed event.
func (c *Client) processMessage(ctx context.Context, rawData json.RawMessage) {
	var env events.Envelope
	if err := json.Unmarshal(rawData, &env); err != nil {
		c.logger.Error("Failed to unmarshal event envelope", "error", err)
		return
	}

	event, err := env.Decode()
	if err != nil {
		c.logger.Warn("Failed to decode event payload", "type", env.Type, "error", err)
		return
	}

	sentAt := time.Unix(0, env.SentAt)
	c.logger.Debug("Received pool event",
		"pool", env.Pool,
		"type", env.Type,
		"transport_ms", time.Since(sentAt).Milliseconds(),
	)

	select {
	case c.eventCh <- Notification{Pool: env.Pool, Event: event, SentAt: sentAt}:
	case <-ctx.Done():
	}
}

// sleep waits for d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
