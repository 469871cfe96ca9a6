package uniswapv2

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// AssetLedger is the pool's view of one external asset. TransferIn and
// TransferOut move funds between a participant and the pool's custody and may
// hand control to code the pool does not own before returning.
type AssetLedger interface {
	// TransferIn pulls amount from `from` into pool custody. It fails if
	// `from` lacks balance or allowance.
	TransferIn(from common.Address, amount *uint256.Int) error
	// TransferOut pushes amount from pool custody to `to`. It fails if
	// custody is insufficient.
	TransferOut(to common.Address, amount *uint256.Int) error
	BalanceOf(owner common.Address) *uint256.Int
}

// ShareLedger tracks ownership shares of a pool. MintLocked credits shares to
// a reserved entry that counts toward TotalSupply but can never be burned.
type ShareLedger interface {
	Mint(to common.Address, amount *uint256.Int) error
	Burn(from common.Address, amount *uint256.Int) error
	MintLocked(amount *uint256.Int) error
	BalanceOf(owner common.Address) *uint256.Int
	TotalSupply() *uint256.Int
}

// Config holds the configuration for a pool.
type Config struct {
	ID      uint64
	Address common.Address
	AssetA  common.Address
	AssetB  common.Address
	LedgerA AssetLedger
	LedgerB AssetLedger
	Shares  ShareLedger
	Sink    EventSink
	Logger  Logger
	Metrics *Metrics
}

// validate checks if the configuration is valid. Identical assets are
// rejected before anything else is looked at.
func (c *Config) validate() error {
	if c.AssetA == c.AssetB {
		return fmt.Errorf("%w: identical assets %s", ErrInvalidConfiguration, c.AssetA)
	}
	if c.AssetA == (common.Address{}) || c.AssetB == (common.Address{}) {
		return fmt.Errorf("%w: zero asset address", ErrInvalidConfiguration)
	}
	if c.Address == (common.Address{}) {
		return fmt.Errorf("%w: zero pool address", ErrInvalidConfiguration)
	}
	if c.LedgerA == nil || c.LedgerB == nil {
		return fmt.Errorf("%w: asset ledger is required", ErrInvalidConfiguration)
	}
	if c.Shares == nil {
		return fmt.Errorf("%w: share ledger is required", ErrInvalidConfiguration)
	}
	if c.Logger == nil {
		return fmt.Errorf("%w: logger is required", ErrInvalidConfiguration)
	}
	return nil
}

// Pool is a constant-product pool over two assets.
//
// Deposit, Redeem, Swap and Sync are mutually exclusive: a call that arrives
// while another is in flight, whether re-entered from a ledger callback or
// from another goroutine, fails with ErrReentrant instead of waiting.
// Read methods take no part in that lock.
type Pool struct {
	id      uint64
	address common.Address
	assetA  common.Address
	assetB  common.Address
	ledgerA AssetLedger
	ledgerB AssetLedger
	shares  ShareLedger
	sink    EventSink
	logger  Logger
	metrics *Metrics

	locked atomic.Bool

	// mu guards the fields below. It is never held across a ledger call.
	mu          sync.RWMutex
	reserveA    *uint256.Int
	reserveB    *uint256.Int
	totalShares *uint256.Int
}

// NewPool creates an empty pool.
func NewPool(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Pool{
		id:          cfg.ID,
		address:     cfg.Address,
		assetA:      cfg.AssetA,
		assetB:      cfg.AssetB,
		ledgerA:     cfg.LedgerA,
		ledgerB:     cfg.LedgerB,
		shares:      cfg.Shares,
		sink:        sink,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		reserveA:    new(uint256.Int),
		reserveB:    new(uint256.Int),
		totalShares: new(uint256.Int),
	}, nil
}

// ID returns the pool's registry ID.
func (p *Pool) ID() uint64 { return p.id }

// Address returns the pool's custody address.
func (p *Pool) Address() common.Address { return p.address }

// Assets returns the pool's two assets in configuration order.
func (p *Pool) Assets() (assetA, assetB common.Address) { return p.assetA, p.assetB }

// GetReserves returns copies of the synchronized reserves.
func (p *Pool) GetReserves() (reserveA, reserveB *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone(), p.reserveB.Clone()
}

// TotalShares returns the outstanding shares, locked shares included.
func (p *Pool) TotalShares() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalShares.Clone()
}

// SharesOf returns the share balance of owner.
func (p *Pool) SharesOf(owner common.Address) *uint256.Int {
	return p.shares.BalanceOf(owner)
}

// View returns a snapshot of the pool.
func (p *Pool) View() PoolView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PoolView{
		ID:          p.id,
		Address:     p.address,
		AssetA:      p.assetA,
		AssetB:      p.assetB,
		ReserveA:    p.reserveA.Clone(),
		ReserveB:    p.reserveB.Clone(),
		TotalShares: p.totalShares.Clone(),
	}
}

// Deposit pulls amountA and amountB from provider and mints shares for them.
//
// The first deposit mints sqrt(amountA*amountB) shares, of which
// MinimumLiquidity are locked forever. Later deposits mint the smaller of the
// two proportional claims. If no shares can be minted the pulled funds are
// returned to the provider.
func (p *Pool) Deposit(provider common.Address, amountA, amountB *uint256.Int) (shares *uint256.Int, err error) {
	start := time.Now()
	defer func() { p.metrics.observe(p.address, "deposit", start, err) }()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	if isZero(amountA) || isZero(amountB) {
		return nil, ErrInsufficientInput
	}

	// pull before accounting
	if err := p.ledgerA.TransferIn(provider, amountA); err != nil {
		return nil, fmt.Errorf("deposit: pull asset A: %w", err)
	}
	if err := p.ledgerB.TransferIn(provider, amountB); err != nil {
		p.refund(p.ledgerA, provider, amountA)
		p.reconcile(nil)
		return nil, fmt.Errorf("deposit: pull asset B: %w", err)
	}
	abort := func() {
		p.refund(p.ledgerA, provider, amountA)
		p.refund(p.ledgerB, provider, amountB)
		p.reconcile(nil)
	}

	reserveA, reserveB, totalShares := p.snapshot()

	first := totalShares.IsZero()
	if first {
		shares, err = initialShares(amountA, amountB)
	} else {
		shares, err = proportionalShares(amountA, amountB, reserveA, reserveB, totalShares)
	}
	if err != nil {
		abort()
		return nil, err
	}

	if err := p.shares.Mint(provider, shares); err != nil {
		abort()
		return nil, fmt.Errorf("deposit: mint shares: %w", err)
	}
	minted := shares.Clone()
	if first {
		if err := p.shares.MintLocked(minimumLiquidity); err != nil {
			if burnErr := p.shares.Burn(provider, shares); burnErr != nil {
				p.logger.Error("Failed to unwind minted shares", "pool", p.address, "provider", provider, "shares", shares, "error", burnErr)
			}
			abort()
			return nil, fmt.Errorf("deposit: lock minimum liquidity: %w", err)
		}
		minted.Add(minted, minimumLiquidity)
	}

	p.sink.Emit(p.address, DepositEvent{
		Provider:     provider,
		AmountA:      amountA.Clone(),
		AmountB:      amountB.Clone(),
		SharesMinted: shares.Clone(),
	})
	p.sync(minted, nil)

	p.logger.Debug("Liquidity deposited",
		"pool", p.address,
		"provider", provider,
		"amount_a", amountA,
		"amount_b", amountB,
		"shares", shares,
	)
	return shares, nil
}

// Redeem burns shares held by provider and pays out the proportional part of
// both reserves. Shares are burned before any asset leaves custody.
//
// If asset B cannot be pushed after asset A was, the call fails with
// ErrPartialRedemption and returns the amounts that actually moved; the
// shares stay burned and a Redeem event records the partial payout.
func (p *Pool) Redeem(provider common.Address, shares *uint256.Int) (amountA, amountB *uint256.Int, err error) {
	start := time.Now()
	defer func() { p.metrics.observe(p.address, "redeem", start, err) }()

	if err := p.enter(); err != nil {
		return nil, nil, err
	}
	defer p.exit()

	if isZero(shares) {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	if shares.Gt(p.shares.BalanceOf(provider)) {
		return nil, nil, ErrInsufficientBalance
	}

	reserveA, reserveB, totalShares := p.snapshot()
	amountA, amountB, err = redeemAmounts(shares, reserveA, reserveB, totalShares)
	if err != nil {
		return nil, nil, err
	}
	if p.ledgerA.BalanceOf(p.address).Lt(amountA) || p.ledgerB.BalanceOf(p.address).Lt(amountB) {
		return nil, nil, ErrInsufficientLiquidity
	}

	if err := p.shares.Burn(provider, shares); err != nil {
		return nil, nil, fmt.Errorf("redeem: burn shares: %w", err)
	}

	if err := p.ledgerA.TransferOut(provider, amountA); err != nil {
		if mintErr := p.shares.Mint(provider, shares); mintErr != nil {
			p.logger.Error("Failed to restore burned shares", "pool", p.address, "provider", provider, "shares", shares, "error", mintErr)
			p.reconcile(shares)
		} else {
			p.reconcile(nil)
		}
		return nil, nil, fmt.Errorf("redeem: push asset A: %w", err)
	}
	if err := p.ledgerB.TransferOut(provider, amountB); err != nil {
		p.logger.Error("Partial redemption", "pool", p.address, "provider", provider, "amount_a", amountA, "shares", shares, "error", err)
		p.sink.Emit(p.address, RedeemEvent{
			Provider:     provider,
			AmountA:      amountA.Clone(),
			AmountB:      new(uint256.Int),
			SharesBurned: shares.Clone(),
		})
		p.sync(nil, shares)
		return amountA, new(uint256.Int), fmt.Errorf("%w: push asset B: %w", ErrPartialRedemption, err)
	}

	p.sink.Emit(p.address, RedeemEvent{
		Provider:     provider,
		AmountA:      amountA.Clone(),
		AmountB:      amountB.Clone(),
		SharesBurned: shares.Clone(),
	})
	p.sync(nil, shares)

	p.logger.Debug("Liquidity redeemed",
		"pool", p.address,
		"provider", provider,
		"amount_a", amountA,
		"amount_b", amountB,
		"shares", shares,
	)
	return amountA, amountB, nil
}

// Swap sells amountIn of assetIn for the other asset and returns the amount
// bought. It fails with ErrInsufficientOutputAmount when the output would be
// below minAmountOut. The input is returned to the caller on any failure after
// it was pulled.
func (p *Pool) Swap(caller, assetIn common.Address, amountIn, minAmountOut *uint256.Int) (amountOut *uint256.Int, err error) {
	start := time.Now()
	defer func() { p.metrics.observe(p.address, "swap", start, err) }()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	var (
		ledgerIn, ledgerOut   AssetLedger
		reserveIn, reserveOut *uint256.Int
	)
	reserveA, reserveB, _ := p.snapshot()
	switch assetIn {
	case p.assetA:
		ledgerIn, ledgerOut = p.ledgerA, p.ledgerB
		reserveIn, reserveOut = reserveA, reserveB
	case p.assetB:
		ledgerIn, ledgerOut = p.ledgerB, p.ledgerA
		reserveIn, reserveOut = reserveB, reserveA
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAsset, assetIn)
	}
	if isZero(amountIn) {
		return nil, ErrInsufficientInput
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	if minAmountOut == nil {
		minAmountOut = new(uint256.Int)
	}

	if err := ledgerIn.TransferIn(caller, amountIn); err != nil {
		return nil, fmt.Errorf("swap: pull input: %w", err)
	}

	amountOut, err = GetAmountOut(amountIn, reserveIn, reserveOut)
	if err == nil {
		switch {
		case amountOut.Lt(minAmountOut):
			err = fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutputAmount, amountOut.Dec(), minAmountOut.Dec())
		case amountOut.IsZero():
			err = ErrInsufficientLiquidity
		}
	}
	if err != nil {
		p.refund(ledgerIn, caller, amountIn)
		p.reconcile(nil)
		return nil, err
	}

	if err := ledgerOut.TransferOut(caller, amountOut); err != nil {
		p.refund(ledgerIn, caller, amountIn)
		p.reconcile(nil)
		return nil, fmt.Errorf("swap: push output: %w", err)
	}

	p.sink.Emit(p.address, SwapEvent{
		Caller:     caller,
		InputAsset: assetIn,
		AmountIn:   amountIn.Clone(),
		AmountOut:  amountOut.Clone(),
	})
	p.sync(nil, nil)

	p.logger.Debug("Swap executed",
		"pool", p.address,
		"caller", caller,
		"asset_in", assetIn,
		"amount_in", amountIn,
		"amount_out", amountOut,
	)
	return amountOut, nil
}

// Sync resynchronizes the reserves with the pool's actual custody, absorbing
// any funds sent to the pool outside Deposit and Swap.
func (p *Pool) Sync() (err error) {
	start := time.Now()
	defer func() { p.metrics.observe(p.address, "sync", start, err) }()

	if err := p.enter(); err != nil {
		return err
	}
	defer p.exit()

	p.sync(nil, nil)
	return nil
}

// enter acquires the operation lock or fails without blocking.
func (p *Pool) enter() error {
	if !p.locked.CompareAndSwap(false, true) {
		p.logger.Warn("Rejected reentrant pool call", "pool", p.address)
		return ErrReentrant
	}
	return nil
}

func (p *Pool) exit() {
	p.locked.Store(false)
}

func (p *Pool) snapshot() (reserveA, reserveB, totalShares *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone(), p.reserveB.Clone(), p.totalShares.Clone()
}

// settle sets the reserves to the ledgers' balances for the pool's custody
// and applies the call's share delta under the same lock, so readers never
// see one without the other. Reserves are never derived from deltas. moved
// reports whether either reserve changed.
func (p *Pool) settle(minted, burned *uint256.Int) (reserveA, reserveB *uint256.Int, moved bool) {
	balanceA := p.ledgerA.BalanceOf(p.address).Clone()
	balanceB := p.ledgerB.BalanceOf(p.address).Clone()

	p.mu.Lock()
	moved = !balanceA.Eq(p.reserveA) || !balanceB.Eq(p.reserveB)
	p.reserveA = balanceA
	p.reserveB = balanceB
	if minted != nil {
		p.totalShares = new(uint256.Int).Add(p.totalShares, minted)
	}
	if burned != nil {
		p.totalShares = new(uint256.Int).Sub(p.totalShares, burned)
	}
	totalShares := p.totalShares.Clone()
	p.mu.Unlock()

	p.metrics.setState(p.address, p.assetA, p.assetB, balanceA, balanceB, totalShares)
	return balanceA.Clone(), balanceB.Clone(), moved
}

// sync settles the pool after a call that changed it and emits a SyncEvent.
func (p *Pool) sync(minted, burned *uint256.Int) {
	reserveA, reserveB, _ := p.settle(minted, burned)
	p.sink.Emit(p.address, SyncEvent{ReserveA: reserveA, ReserveB: reserveB})
}

// reconcile settles the pool after a failed call. A SyncEvent is emitted only
// if custody no longer matches the reserves, e.g. because a refund failed.
func (p *Pool) reconcile(burned *uint256.Int) {
	if reserveA, reserveB, moved := p.settle(nil, burned); moved {
		p.sink.Emit(p.address, SyncEvent{ReserveA: reserveA, ReserveB: reserveB})
	}
}

// refund returns funds pulled by a call that then failed. A refund failure
// leaves the funds in custody; it is logged and absorbed by reconcile.
func (p *Pool) refund(ledger AssetLedger, to common.Address, amount *uint256.Int) {
	if err := ledger.TransferOut(to, amount); err != nil {
		p.logger.Error("Failed to refund pulled funds", "pool", p.address, "to", to, "amount", amount, "error", err)
	}
}

// IsPoolError reports whether err originated in the pool's own validation
// rather than in a ledger.
func IsPoolError(err error) bool {
	for _, target := range []error{
		ErrInvalidConfiguration,
		ErrInsufficientInput,
		ErrInsufficientLiquidityMinted,
		ErrInsufficientLiquidityBurned,
		ErrInsufficientBalance,
		ErrInvalidAsset,
		ErrInsufficientOutputAmount,
		ErrInsufficientLiquidity,
		ErrReentrant,
		ErrOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
