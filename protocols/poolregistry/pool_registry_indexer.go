package poolregistry

import (
	"github.com/ethereum/go-ethereum/common"
)

type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed pool registry from a raw slice of pools.
func (i *Indexer) Index(pools []PoolView) *IndexablePoolRegistry {
	return NewIndexablePoolRegistry(pools)
}

// IndexablePoolRegistry provides fast, indexed access to pool registry data.
type IndexablePoolRegistry struct {
	byID      map[uint64]PoolView
	byKey     map[PoolKey]PoolView
	byAddress map[common.Address]PoolView
	all       []PoolView
}

// NewIndexablePoolRegistry creates a new indexed pool registry from a raw slice.
func NewIndexablePoolRegistry(pools []PoolView) *IndexablePoolRegistry {
	byID := make(map[uint64]PoolView, len(pools))
	byKey := make(map[PoolKey]PoolView, len(pools))
	byAddress := make(map[common.Address]PoolView, len(pools))

	for _, p := range pools {
		byID[p.ID] = p
		byKey[p.Key] = p
		byAddress[p.Address] = p
	}

	return &IndexablePoolRegistry{
		byID:      byID,
		byKey:     byKey,
		byAddress: byAddress,
		all:       pools,
	}
}

// GetByID retrieves a pool by its unique ID.
func (ipr *IndexablePoolRegistry) GetByID(id uint64) (PoolView, bool) {
	p, ok := ipr.byID[id]
	return p, ok
}

// GetByAddress retrieves a pool by its custody address.
func (ipr *IndexablePoolRegistry) GetByAddress(address common.Address) (PoolView, bool) {
	p, ok := ipr.byAddress[address]
	return p, ok
}

// GetByPoolKey retrieves a pool by its PoolKey.
func (ipr *IndexablePoolRegistry) GetByPoolKey(key PoolKey) (PoolView, bool) {
	p, ok := ipr.byKey[key]
	return p, ok
}

// GetByPair retrieves the pool trading tokenA against tokenB, in either order.
func (ipr *IndexablePoolRegistry) GetByPair(tokenA, tokenB common.Address) (PoolView, bool) {
	return ipr.GetByPoolKey(PairKey(tokenA, tokenB))
}

// All returns a defensive copy of the slice of all pools in the system.
func (ipr *IndexablePoolRegistry) All() []PoolView {
	allCopy := make([]PoolView, len(ipr.all))
	copy(allCopy, ipr.all)
	return allCopy
}
