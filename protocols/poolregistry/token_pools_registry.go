package poolregistry

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPoolsRegistryView is a snapshot of the token graph: tokens are nodes
// and each directed edge token -> target carries the pools trading that
// pair. Indices refer into Tokens and Pools.
type TokenPoolsRegistryView struct {
	Tokens      []common.Address `json:"tokens"`
	Pools       []uint64         `json:"pools"`
	Adjacency   [][]int          `json:"adjacency"`
	EdgeTargets []int            `json:"edgeTargets"`
	EdgePools   [][]int          `json:"edgePools"`
}

// TokenPools builds the token graph from the per-token pool sets. Edges out
// of a token follow its pools in ID order.
func (r *Registry) TokenPools() *TokenPoolsRegistryView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view := &TokenPoolsRegistryView{
		Tokens:    append([]common.Address(nil), r.tokenOrder...),
		Adjacency: make([][]int, len(r.tokenOrder)),
	}
	tokenIndex := make(map[common.Address]int, len(r.tokenOrder))
	for i, t := range r.tokenOrder {
		tokenIndex[t] = i
	}
	poolIndex := make(map[uint64]int, len(r.byID))
	for id := uint64(0); id < r.nextID; id++ {
		if _, ok := r.byID[id]; ok {
			poolIndex[id] = len(view.Pools)
			view.Pools = append(view.Pools, id)
		}
	}

	for from, tok := range r.tokenOrder {
		set, ok := r.tokenPools[tok]
		if !ok {
			continue
		}
		ids := set.ToSlice()
		slices.Sort(ids)

		// edge index by target token
		edges := make(map[int]int)
		for _, id := range ids {
			e := r.byID[id]
			other := e.view.AssetB
			if other == tok {
				other = e.view.AssetA
			}
			to := tokenIndex[other]
			edge, ok := edges[to]
			if !ok {
				edge = len(view.EdgeTargets)
				edges[to] = edge
				view.EdgeTargets = append(view.EdgeTargets, to)
				view.EdgePools = append(view.EdgePools, nil)
				view.Adjacency[from] = append(view.Adjacency[from], edge)
			}
			view.EdgePools[edge] = append(view.EdgePools[edge], poolIndex[id])
		}
	}
	return view
}
