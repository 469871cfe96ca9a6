package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Iwinswap/iwinswap-cpamm-go/cmd/poold/config"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/events"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// devnet holds everything the daemon serves.
type devnet struct {
	registry *poolregistry.Registry
	hub      *events.Hub
	tokens   *token.IndexableTokenSystem
}

// buildDevnet creates the token ledgers, funds the configured accounts and
// creates the configured pools.
func buildDevnet(cfg *config.DaemonConfig, logger *slog.Logger, reg prometheus.Registerer) (*devnet, error) {
	hub, err := events.NewHub(events.Config{
		Logger:     logger.With("component", "event-hub"),
		BufferSize: cfg.EventBuffer,
	})
	if err != nil {
		return nil, err
	}

	registry, err := poolregistry.NewRegistry(poolregistry.Config{
		Sink:    hub,
		Logger:  logger.With("component", "pool-registry"),
		Metrics: uniswapv2.NewMetrics(reg),
	})
	if err != nil {
		return nil, err
	}

	views := make([]token.TokenView, 0, len(cfg.Tokens))
	for i, t := range cfg.Tokens {
		view := token.TokenView{
			ID:       uint64(i),
			Address:  common.HexToAddress(t.Address),
			Symbol:   t.Symbol,
			Name:     t.Name,
			Decimals: t.Decimals,
		}
		ledger, err := token.NewLedger(view)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterToken(ledger); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	tokens := token.NewIndexableTokenSystem(views)

	for _, a := range cfg.Accounts {
		owner := common.HexToAddress(a.Address)
		for sym, amount := range a.Balances {
			t, _ := tokens.GetBySymbol(sym)
			ledger, _ := registry.Token(t.Address)
			if err := ledger.Mint(owner, uint256.MustFromDecimal(amount)); err != nil {
				return nil, fmt.Errorf("fund %s with %s: %w", owner, sym, err)
			}
		}
	}

	for _, p := range cfg.Pools {
		a, _ := tokens.GetBySymbol(p.AssetA)
		b, _ := tokens.GetBySymbol(p.AssetB)
		view, err := registry.CreatePool(a.Address, b.Address)
		if err != nil {
			return nil, fmt.Errorf("create pool %s/%s: %w", p.AssetA, p.AssetB, err)
		}
		if cfg.AutoApprove {
			if err := approveAll(registry, cfg.Accounts, view); err != nil {
				return nil, err
			}
		}
	}

	return &devnet{registry: registry, hub: hub, tokens: tokens}, nil
}

// approveAll grants every configured account an unlimited allowance to the
// pool for both of its assets.
func approveAll(registry *poolregistry.Registry, accounts []config.AccountConfig, pool poolregistry.PoolView) error {
	unlimited := new(uint256.Int).SetAllOne()
	for _, a := range accounts {
		owner := common.HexToAddress(a.Address)
		for _, asset := range []common.Address{pool.AssetA, pool.AssetB} {
			ledger, _ := registry.Token(asset)
			if err := ledger.Approve(owner, pool.Address, unlimited); err != nil {
				return fmt.Errorf("approve %s for %s: %w", pool.Address, owner, err)
			}
		}
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
