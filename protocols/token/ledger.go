package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrZeroAddress           = errors.New("token: zero address")
	ErrOverflow              = errors.New("token: supply overflow")
)

// Transfer describes a completed balance movement. A zero From is a mint and
// a zero To is a burn.
type Transfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

// Hook is called after a transfer touching the address it is registered for
// has been applied. It runs without any ledger lock held and may call back
// into the ledger or into whoever initiated the transfer.
type Hook func(Transfer)

// Ledger is an in-memory fungible token with balances and allowances.
type Ledger struct {
	info TokenView

	mu          sync.Mutex
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	totalSupply *uint256.Int
	hooks       map[common.Address]Hook
}

// NewLedger creates an empty ledger for the token described by info.
func NewLedger(info TokenView) (*Ledger, error) {
	if info.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: token %q", ErrZeroAddress, info.Symbol)
	}
	return &Ledger{
		info:        info,
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		totalSupply: new(uint256.Int),
		hooks:       make(map[common.Address]Hook),
	}, nil
}

// Info returns the token metadata.
func (l *Ledger) Info() TokenView {
	return l.info
}

// Address returns the token's identity.
func (l *Ledger) Address() common.Address {
	return l.info.Address
}

// SetHook registers h to run after every transfer to or from addr. A nil h
// removes the hook.
func (l *Ledger) SetHook(addr common.Address, h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == nil {
		delete(l.hooks, addr)
		return
	}
	l.hooks[addr] = h
}

// BalanceOf returns a copy of owner's balance.
func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(owner).Clone()
}

// TotalSupply returns a copy of the total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply.Clone()
}

// Allowance returns how much spender may still move on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowanceLocked(owner, spender).Clone()
}

// Approve sets spender's allowance over owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byOwner, ok := l.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = byOwner
	}
	byOwner[spender] = amount.Clone()
	return nil
}

// Mint creates amount new tokens owned by to.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	if _, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount); overflow {
		l.mu.Unlock()
		return ErrOverflow
	}
	l.totalSupply.Add(l.totalSupply, amount)
	l.credit(to, amount)
	l.mu.Unlock()

	l.notify(Transfer{Token: l.info.Address, To: to, Amount: amount.Clone()})
	return nil
}

// Burn destroys amount tokens owned by from.
func (l *Ledger) Burn(from common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	if err := l.debit(from, amount); err != nil {
		l.mu.Unlock()
		return err
	}
	l.totalSupply.Sub(l.totalSupply, amount)
	l.mu.Unlock()

	l.notify(Transfer{Token: l.info.Address, From: from, Amount: amount.Clone()})
	return nil
}

// Transfer moves amount from `from` to `to`.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	if err := l.debit(from, amount); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("transfer %s from %s: %w", l.info.Symbol, from, err)
	}
	l.credit(to, amount)
	l.mu.Unlock()

	l.notify(Transfer{Token: l.info.Address, From: from, To: to, Amount: amount.Clone()})
	return nil
}

// TransferFrom moves amount from `from` to `to` on behalf of spender,
// consuming spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	l.mu.Lock()
	allowance := l.allowanceLocked(from, spender)
	if allowance.Lt(amount) {
		l.mu.Unlock()
		return fmt.Errorf("transfer %s from %s by %s: %w", l.info.Symbol, from, spender, ErrInsufficientAllowance)
	}
	if err := l.debit(from, amount); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("transfer %s from %s: %w", l.info.Symbol, from, err)
	}
	l.allowances[from][spender] = new(uint256.Int).Sub(allowance, amount)
	l.credit(to, amount)
	l.mu.Unlock()

	l.notify(Transfer{Token: l.info.Address, From: from, To: to, Amount: amount.Clone()})
	return nil
}

// Custodian returns the view of this ledger seen by a pool holding funds at
// custody.
func (l *Ledger) Custodian(custody common.Address) *Custody {
	return &Custody{ledger: l, custody: custody}
}

func (l *Ledger) balanceLocked(owner common.Address) *uint256.Int {
	if b, ok := l.balances[owner]; ok {
		return b
	}
	return new(uint256.Int)
}

func (l *Ledger) allowanceLocked(owner, spender common.Address) *uint256.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return a
	}
	return new(uint256.Int)
}

// credit and debit must be called with mu held.
func (l *Ledger) credit(to common.Address, amount *uint256.Int) {
	b, ok := l.balances[to]
	if !ok {
		b = new(uint256.Int)
		l.balances[to] = b
	}
	b.Add(b, amount)
}

func (l *Ledger) debit(from common.Address, amount *uint256.Int) error {
	b := l.balanceLocked(from)
	if b.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(b, amount)
	return nil
}

func (l *Ledger) notify(t Transfer) {
	l.mu.Lock()
	var hooks []Hook
	if h, ok := l.hooks[t.From]; ok && t.From != (common.Address{}) {
		hooks = append(hooks, h)
	}
	if h, ok := l.hooks[t.To]; ok && t.To != (common.Address{}) && t.To != t.From {
		hooks = append(hooks, h)
	}
	l.mu.Unlock()

	for _, h := range hooks {
		h(t)
	}
}

// Custody adapts a Ledger to the transfer-in/transfer-out interface a pool
// consumes. TransferIn spends the allowance the participant granted to the
// custody address.
type Custody struct {
	ledger  *Ledger
	custody common.Address
}

// TransferIn pulls amount from `from` into custody.
func (c *Custody) TransferIn(from common.Address, amount *uint256.Int) error {
	return c.ledger.TransferFrom(c.custody, from, c.custody, amount)
}

// TransferOut pushes amount from custody to `to`.
func (c *Custody) TransferOut(to common.Address, amount *uint256.Int) error {
	return c.ledger.Transfer(c.custody, to, amount)
}

// BalanceOf returns owner's balance in the underlying ledger.
func (c *Custody) BalanceOf(owner common.Address) *uint256.Int {
	return c.ledger.BalanceOf(owner)
}
