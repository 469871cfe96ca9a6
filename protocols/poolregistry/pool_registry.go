package poolregistry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownToken = errors.New("poolregistry: unknown token")
	ErrTokenExists  = errors.New("poolregistry: token already registered")
	ErrPoolExists   = errors.New("poolregistry: pool already exists for pair")
	ErrPoolNotFound = errors.New("poolregistry: pool not found")
)

const shareTokenDecimals = 18

// PoolView represents the registry data for a single pool.
type PoolView struct {
	ID      uint64         `json:"id"`
	Key     PoolKey        `json:"key"`
	Address common.Address `json:"address"`
	AssetA  common.Address `json:"assetA"`
	AssetB  common.Address `json:"assetB"`
}

// PoolRegistryView represents the complete state of the registry.
type PoolRegistryView struct {
	Tokens []token.TokenView `json:"tokens"`
	Pools  []PoolView        `json:"pools"`
}

// Config holds the configuration for a Registry. Sink, Logger and Metrics
// are handed to every pool the registry creates.
type Config struct {
	Sink    uniswapv2.EventSink
	Logger  uniswapv2.Logger
	Metrics *uniswapv2.Metrics
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

type entry struct {
	view   PoolView
	pool   *uniswapv2.Pool
	shares *token.ShareLedger
}

// Registry creates pools, at most one per unordered token pair, and indexes
// them by ID, key, custody address and token.
type Registry struct {
	cfg Config

	mu         sync.RWMutex
	nextID     uint64
	tokens     map[common.Address]*token.Ledger
	tokenOrder []common.Address
	byKey      map[PoolKey]*entry
	byID       map[uint64]*entry
	byAddress  map[common.Address]*entry
	tokenPools map[common.Address]mapset.Set[uint64]
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:        cfg,
		tokens:     make(map[common.Address]*token.Ledger),
		byKey:      make(map[PoolKey]*entry),
		byID:       make(map[uint64]*entry),
		byAddress:  make(map[common.Address]*entry),
		tokenPools: make(map[common.Address]mapset.Set[uint64]),
	}, nil
}

// RegisterToken makes a token ledger available for pool creation.
func (r *Registry) RegisterToken(ledger *token.Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := ledger.Address()
	if _, ok := r.tokens[addr]; ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, addr)
	}
	r.tokens[addr] = ledger
	r.tokenOrder = append(r.tokenOrder, addr)
	return nil
}

// Token returns the ledger registered for addr.
func (r *Registry) Token(addr common.Address) (*token.Ledger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.tokens[addr]
	return l, ok
}

// Tokens returns the metadata of every registered token in registration
// order.
func (r *Registry) Tokens() []token.TokenView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]token.TokenView, 0, len(r.tokenOrder))
	for _, addr := range r.tokenOrder {
		views = append(views, r.tokens[addr].Info())
	}
	return views
}

// CreatePool creates the pool for tokenA and tokenB. The pool's asset A is
// tokenA.
func (r *Registry) CreatePool(tokenA, tokenB common.Address) (PoolView, error) {
	if tokenA == tokenB {
		return PoolView{}, fmt.Errorf("%w: identical assets %s", uniswapv2.ErrInvalidConfiguration, tokenA)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ledgerA, ok := r.tokens[tokenA]
	if !ok {
		return PoolView{}, fmt.Errorf("%w: %s", ErrUnknownToken, tokenA)
	}
	ledgerB, ok := r.tokens[tokenB]
	if !ok {
		return PoolView{}, fmt.Errorf("%w: %s", ErrUnknownToken, tokenB)
	}

	key := PairKey(tokenA, tokenB)
	if _, exists := r.byKey[key]; exists {
		return PoolView{}, fmt.Errorf("%w: %s/%s", ErrPoolExists, ledgerA.Info().Symbol, ledgerB.Info().Symbol)
	}

	id := r.nextID
	address := key.Address()

	shares, err := token.NewShareLedger(token.TokenView{
		ID:       id,
		Address:  address,
		Symbol:   ledgerA.Info().Symbol + "-" + ledgerB.Info().Symbol + "-LP",
		Name:     ledgerA.Info().Symbol + "/" + ledgerB.Info().Symbol + " pool shares",
		Decimals: shareTokenDecimals,
	})
	if err != nil {
		return PoolView{}, err
	}

	pool, err := uniswapv2.NewPool(uniswapv2.Config{
		ID:      id,
		Address: address,
		AssetA:  tokenA,
		AssetB:  tokenB,
		LedgerA: ledgerA.Custodian(address),
		LedgerB: ledgerB.Custodian(address),
		Shares:  shares,
		Sink:    r.cfg.Sink,
		Logger:  r.cfg.Logger,
		Metrics: r.cfg.Metrics,
	})
	if err != nil {
		return PoolView{}, err
	}

	e := &entry{
		view: PoolView{
			ID:      id,
			Key:     key,
			Address: address,
			AssetA:  tokenA,
			AssetB:  tokenB,
		},
		pool:   pool,
		shares: shares,
	}
	r.nextID++
	r.byKey[key] = e
	r.byID[id] = e
	r.byAddress[address] = e
	for _, t := range []common.Address{tokenA, tokenB} {
		set, ok := r.tokenPools[t]
		if !ok {
			set = mapset.NewSet[uint64]()
			r.tokenPools[t] = set
		}
		set.Add(id)
	}

	r.cfg.Logger.Info("Pool created",
		"pool_id", id,
		"pool", address,
		"asset_a", ledgerA.Info().Symbol,
		"asset_b", ledgerB.Info().Symbol,
	)
	return e.view, nil
}

// Pool retrieves a pool by its key.
func (r *Registry) Pool(key PoolKey) (*uniswapv2.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return e.pool, true
}

// PoolForPair retrieves the pool for tokenA and tokenB in either order.
func (r *Registry) PoolForPair(tokenA, tokenB common.Address) (*uniswapv2.Pool, bool) {
	return r.Pool(PairKey(tokenA, tokenB))
}

// PoolByID retrieves a pool by its registry ID.
func (r *Registry) PoolByID(id uint64) (*uniswapv2.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.pool, true
}

// PoolByAddress retrieves a pool by its custody address.
func (r *Registry) PoolByAddress(address common.Address) (*uniswapv2.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAddress[address]
	if !ok {
		return nil, false
	}
	return e.pool, true
}

// Shares returns the share ledger of the pool at address.
func (r *Registry) Shares(address common.Address) (*token.ShareLedger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAddress[address]
	if !ok {
		return nil, false
	}
	return e.shares, true
}

// PoolsForToken returns the IDs of every pool holding tok, ascending.
func (r *Registry) PoolsForToken(tok common.Address) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.tokenPools[tok]
	if !ok {
		return nil
	}
	ids := set.ToSlice()
	slices.Sort(ids)
	return ids
}

// Registry returns a snapshot of the registered tokens and pools.
func (r *Registry) Registry() PoolRegistryView {
	tokens := r.Tokens()

	r.mu.RLock()
	defer r.mu.RUnlock()
	pools := make([]PoolView, 0, len(r.byID))
	for id := uint64(0); id < r.nextID; id++ {
		if e, ok := r.byID[id]; ok {
			pools = append(pools, e.view)
		}
	}
	return PoolRegistryView{Tokens: tokens, Pools: pools}
}

// Views returns a live snapshot of every pool, ordered by ID.
func (r *Registry) Views() []uniswapv2.PoolView {
	r.mu.RLock()
	pools := make([]*uniswapv2.Pool, 0, len(r.byID))
	for id := uint64(0); id < r.nextID; id++ {
		if e, ok := r.byID[id]; ok {
			pools = append(pools, e.pool)
		}
	}
	r.mu.RUnlock()

	views := make([]uniswapv2.PoolView, 0, len(pools))
	for _, p := range pools {
		views = append(views, p.View())
	}
	return views
}
