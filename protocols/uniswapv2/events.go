package uniswapv2

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EventKind names the record emitted by a pool operation.
type EventKind string

const (
	DepositEventKind EventKind = "deposit"
	RedeemEventKind  EventKind = "redeem"
	SwapEventKind    EventKind = "swap"
	SyncEventKind    EventKind = "sync"
)

// Event is a record emitted by a pool. Field order in each concrete type is
// part of the contract and is preserved in its JSON encoding.
type Event interface {
	Kind() EventKind
}

// EventSink receives every event a pool emits, in emission order. Emit is
// called while the pool's operation lock is held and must not call back into
// the pool.
type EventSink interface {
	Emit(pool common.Address, event Event)
}

// DepositEvent records a liquidity provision.
type DepositEvent struct {
	Provider     common.Address `json:"provider"`
	AmountA      *uint256.Int   `json:"amountA"`
	AmountB      *uint256.Int   `json:"amountB"`
	SharesMinted *uint256.Int   `json:"sharesMinted"`
}

// RedeemEvent records a liquidity withdrawal.
type RedeemEvent struct {
	Provider     common.Address `json:"provider"`
	AmountA      *uint256.Int   `json:"amountA"`
	AmountB      *uint256.Int   `json:"amountB"`
	SharesBurned *uint256.Int   `json:"sharesBurned"`
}

// SwapEvent records an exchange.
type SwapEvent struct {
	Caller     common.Address `json:"caller"`
	InputAsset common.Address `json:"inputAsset"`
	AmountIn   *uint256.Int   `json:"amountIn"`
	AmountOut  *uint256.Int   `json:"amountOut"`
}

// SyncEvent records the reserves after every state-changing operation.
type SyncEvent struct {
	ReserveA *uint256.Int `json:"reserveA"`
	ReserveB *uint256.Int `json:"reserveB"`
}

func (DepositEvent) Kind() EventKind { return DepositEventKind }
func (RedeemEvent) Kind() EventKind  { return RedeemEventKind }
func (SwapEvent) Kind() EventKind    { return SwapEventKind }
func (SyncEvent) Kind() EventKind    { return SyncEventKind }

// DecodeEventJSON decodes the JSON payload of an event of the given kind into
// its concrete type.
func DecodeEventJSON(kind EventKind, data json.RawMessage) (Event, error) {
	switch kind {
	case DepositEventKind:
		var typedData DepositEvent
		if err := json.Unmarshal(data, &typedData); err != nil {
			return nil, err
		}
		return typedData, nil
	case RedeemEventKind:
		var typedData RedeemEvent
		if err := json.Unmarshal(data, &typedData); err != nil {
			return nil, err
		}
		return typedData, nil
	case SwapEventKind:
		var typedData SwapEvent
		if err := json.Unmarshal(data, &typedData); err != nil {
			return nil, err
		}
		return typedData, nil
	case SyncEventKind:
		var typedData SyncEvent
		if err := json.Unmarshal(data, &typedData); err != nil {
			return nil, err
		}
		return typedData, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}

type nopSink struct{}

func (nopSink) Emit(common.Address, Event) {}
