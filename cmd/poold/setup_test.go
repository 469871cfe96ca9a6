package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Iwinswap/iwinswap-cpamm-go/cmd/poold/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.DaemonConfig {
	return &config.DaemonConfig{
		RPCListen:   "127.0.0.1:0",
		LogLevel:    "debug",
		EventBuffer: 8,
		AutoApprove: true,
		Tokens: []config.TokenConfig{
			{Symbol: "WETH", Decimals: 18, Address: "0x00000000000000000000000000000000000000e1"},
			{Symbol: "USDC", Decimals: 6, Address: "0x00000000000000000000000000000000000000e2"},
		},
		Accounts: []config.AccountConfig{
			{Address: "0x0000000000000000000000000000000000000b0b", Balances: map[string]string{"WETH": "5000000", "USDC": "20000000"}},
		},
		Pools: []config.PoolConfig{{AssetA: "WETH", AssetB: "USDC"}},
	}
}

func TestBuildDevnet(t *testing.T) {
	cfg := testConfig()
	net, err := buildDevnet(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	require.NoError(t, err)

	weth := common.HexToAddress(cfg.Tokens[0].Address)
	usdc := common.HexToAddress(cfg.Tokens[1].Address)
	bob := common.HexToAddress(cfg.Accounts[0].Address)

	tok, ok := net.tokens.GetBySymbol("USDC")
	require.True(t, ok)
	assert.Equal(t, uint64(1), tok.ID)

	ledger, ok := net.registry.Token(weth)
	require.True(t, ok)
	assert.Equal(t, uint64(5_000_000), ledger.BalanceOf(bob).Uint64())

	pool, ok := net.registry.PoolForPair(usdc, weth)
	require.True(t, ok)
	assert.Equal(t, new(uint256.Int).SetAllOne().Dec(), ledger.Allowance(bob, pool.Address()).Dec())

	// Auto-approved accounts can deposit straight away.
	shares, err := pool.Deposit(bob, uint256.NewInt(1_000_000), uint256.NewInt(4_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_999_000), shares.Uint64())
}

func TestBuildDevnet_DuplicatePool(t *testing.T) {
	cfg := testConfig()
	cfg.Pools = append(cfg.Pools, config.PoolConfig{AssetA: "USDC", AssetB: "WETH"})
	_, err := buildDevnet(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	assert.ErrorContains(t, err, "create pool USDC/WETH")
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = parseLevel("loud")
	assert.Error(t, err)
}
