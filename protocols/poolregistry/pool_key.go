package poolregistry

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// --- PoolKey Implementation ---

// PoolKey identifies the pool for an unordered pair of tokens.
//
// The key is keccak256(token0 ++ token1) where token0 is the numerically
// smaller address, so PairKey(a, b) == PairKey(b, a). The pool's custody
// address is the low 20 bytes of the key.
type PoolKey [32]byte

// PairKey returns the key of the pool for tokenA and tokenB.
func PairKey(tokenA, tokenB common.Address) PoolKey {
	token0, token1 := SortTokens(tokenA, tokenB)
	return PoolKey(crypto.Keccak256Hash(token0.Bytes(), token1.Bytes()))
}

// SortTokens orders two token addresses the way PairKey does.
func SortTokens(tokenA, tokenB common.Address) (token0, token1 common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// Bytes returns the raw underlying byte slice.
func (p PoolKey) Bytes() []byte {
	return p[:]
}

// Address returns the pool's custody address derived from the key.
func (p PoolKey) Address() common.Address {
	return common.BytesToAddress(p[12:])
}

// String returns the hex string representation of the key.
// Output: A standard hex string starting with "0x".
func (p PoolKey) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

// MarshalJSON serializes the key as a hex string.
func (p PoolKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a 32-byte hex string, with or without a "0x" prefix,
// into the key.
func (p *PoolKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	key, err := ParsePoolKey(s)
	if err != nil {
		return err
	}
	*p = key
	return nil
}

// ParsePoolKey parses a 32-byte hex string into a key. Unlike addresses, keys
// are never zero-padded: anything other than exactly 32 bytes is rejected.
func ParsePoolKey(s string) (PoolKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return PoolKey{}, err
	}
	if len(b) != len(PoolKey{}) {
		return PoolKey{}, errors.New("pool key must be 32 bytes")
	}
	var key PoolKey
	copy(key[:], b)
	return key, nil
}
