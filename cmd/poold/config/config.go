package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// TokenConfig describes one token ledger created at startup.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
	Address  string `yaml:"address"`
}

// AccountConfig funds one participant at startup. Balances map token symbols
// to decimal amounts in base units.
type AccountConfig struct {
	Address  string            `yaml:"address"`
	Balances map[string]string `yaml:"balances"`
}

// PoolConfig names the two tokens of a pool by symbol.
type PoolConfig struct {
	AssetA string `yaml:"asset_a"`
	AssetB string `yaml:"asset_b"`
}

type DaemonConfig struct {
	RPCListen     string          `yaml:"rpc_listen"`
	MetricsListen string          `yaml:"metrics_listen"`
	LogLevel      string          `yaml:"log_level"`
	EventBuffer   uint            `yaml:"event_buffer"`
	AutoApprove   bool            `yaml:"auto_approve"`
	Tokens        []TokenConfig   `yaml:"tokens"`
	Accounts      []AccountConfig `yaml:"accounts"`
	Pools         []PoolConfig    `yaml:"pools"`
}

// LoadConfig reads a configuration file from the given path, unmarshals it
// into a DaemonConfig struct and validates it.
func LoadConfig(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DaemonConfig{
		RPCListen:   "127.0.0.1:8645",
		LogLevel:    "info",
		EventBuffer: 256,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks addresses, amounts and cross references between sections.
func (c *DaemonConfig) Validate() error {
	if c.RPCListen == "" {
		return errors.New("config: rpc_listen is required")
	}
	if c.EventBuffer < 1 {
		return errors.New("config: event_buffer must be greater than 0")
	}

	symbols := make(map[string]struct{}, len(c.Tokens))
	for i, t := range c.Tokens {
		if t.Symbol == "" {
			return fmt.Errorf("config: tokens[%d]: symbol is required", i)
		}
		if _, dup := symbols[t.Symbol]; dup {
			return fmt.Errorf("config: tokens[%d]: duplicate symbol %q", i, t.Symbol)
		}
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("config: tokens[%d]: invalid address %q", i, t.Address)
		}
		symbols[t.Symbol] = struct{}{}
	}

	for i, a := range c.Accounts {
		if !common.IsHexAddress(a.Address) {
			return fmt.Errorf("config: accounts[%d]: invalid address %q", i, a.Address)
		}
		for sym, amount := range a.Balances {
			if _, ok := symbols[sym]; !ok {
				return fmt.Errorf("config: accounts[%d]: unknown token %q", i, sym)
			}
			if _, err := uint256.FromDecimal(amount); err != nil {
				return fmt.Errorf("config: accounts[%d]: balance of %s: %w", i, sym, err)
			}
		}
	}

	for i, p := range c.Pools {
		if _, ok := symbols[p.AssetA]; !ok {
			return fmt.Errorf("config: pools[%d]: unknown token %q", i, p.AssetA)
		}
		if _, ok := symbols[p.AssetB]; !ok {
			return fmt.Errorf("config: pools[%d]: unknown token %q", i, p.AssetB)
		}
	}
	return nil
}
