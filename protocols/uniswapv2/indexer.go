package uniswapv2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolView is a point-in-time snapshot of a pool.
type PoolView struct {
	ID          uint64         `json:"id"`
	Address     common.Address `json:"address"`
	AssetA      common.Address `json:"assetA"`
	AssetB      common.Address `json:"assetB"`
	ReserveA    *uint256.Int   `json:"reserveA"`
	ReserveB    *uint256.Int   `json:"reserveB"`
	TotalShares *uint256.Int   `json:"totalShares"`
}

// Reserves returns the view's reserves ordered as (in, out) for a trade that
// sells assetIn. ok is false if assetIn is not one of the pool's assets.
func (v PoolView) Reserves(assetIn common.Address) (reserveIn, reserveOut *uint256.Int, ok bool) {
	switch assetIn {
	case v.AssetA:
		return v.ReserveA, v.ReserveB, true
	case v.AssetB:
		return v.ReserveB, v.ReserveA, true
	default:
		return nil, nil, false
	}
}

// Indexer builds indexed views over pool snapshots.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed Uniswap V2 system from a raw slice of pools.
func (i *Indexer) Index(pools []PoolView) *IndexableUniswapV2System {
	return NewIndexableUniswapV2System(pools)
}

// IndexableUniswapV2System provides fast, indexed access to pool snapshots.
type IndexableUniswapV2System struct {
	byID      map[uint64]PoolView
	byAddress map[common.Address]PoolView
	all       []PoolView
}

// NewIndexableUniswapV2System creates a new indexed Uniswap V2 system.
func NewIndexableUniswapV2System(pools []PoolView) *IndexableUniswapV2System {
	byID := make(map[uint64]PoolView, len(pools))
	byAddress := make(map[common.Address]PoolView, len(pools))

	for _, p := range pools {
		byID[p.ID] = p
		byAddress[p.Address] = p
	}

	return &IndexableUniswapV2System{
		byID:      byID,
		byAddress: byAddress,
		all:       pools,
	}
}

// GetByID retrieves a pool by its unique ID.
func (ius *IndexableUniswapV2System) GetByID(id uint64) (PoolView, bool) {
	p, ok := ius.byID[id]
	return p, ok
}

// GetByAddress retrieves a pool by its custody address.
func (ius *IndexableUniswapV2System) GetByAddress(address common.Address) (PoolView, bool) {
	p, ok := ius.byAddress[address]
	return p, ok
}

// All returns a defensive copy of the slice of all pools.
func (ius *IndexableUniswapV2System) All() []PoolView {
	allCopy := make([]PoolView, len(ius.all))
	copy(allCopy, ius.all)
	return allCopy
}
