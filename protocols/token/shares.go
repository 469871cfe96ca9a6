package token

import (
	"github.com/holiman/uint256"
)

// ShareLedger is the ownership-share token of a pool. On top of an ordinary
// Ledger it keeps a locked entry: shares minted there count toward the total
// supply but belong to no address, so they can never be transferred, burned
// or redeemed.
type ShareLedger struct {
	*Ledger

	locked *uint256.Int
}

// NewShareLedger creates an empty share ledger for the token described by
// info.
func NewShareLedger(info TokenView) (*ShareLedger, error) {
	l, err := NewLedger(info)
	if err != nil {
		return nil, err
	}
	return &ShareLedger{Ledger: l, locked: new(uint256.Int)}, nil
}

// MintLocked adds amount to the locked entry and to the total supply.
func (s *ShareLedger) MintLocked(amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, overflow := new(uint256.Int).AddOverflow(s.totalSupply, amount); overflow {
		return ErrOverflow
	}
	s.totalSupply.Add(s.totalSupply, amount)
	s.locked.Add(s.locked, amount)
	return nil
}

// Locked returns the number of permanently locked shares.
func (s *ShareLedger) Locked() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked.Clone()
}
