// Package jsonrpc holds what the amm JSON-RPC server and client share: the
// namespace, the subscription method and the error-code table that lets
// errors.Is work across the wire.
package jsonrpc

import (
	"errors"

	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/poolregistry"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/token"
	"github.com/Iwinswap/iwinswap-cpamm-go/protocols/uniswapv2"
)

const (
	// RpcNamespace is the namespace under which the pool service is registered.
	RpcNamespace            = "amm"
	EventSubscriptionMethod = "subscribeEvents"
)

// Application error codes live above the JSON-RPC reserved range.
var errorCodes = []struct {
	code int
	err  error
}{
	{1000, uniswapv2.ErrInvalidConfiguration},
	{1001, uniswapv2.ErrInsufficientInput},
	{1002, uniswapv2.ErrInsufficientLiquidityMinted},
	{1003, uniswapv2.ErrInsufficientLiquidityBurned},
	{1004, uniswapv2.ErrInsufficientBalance},
	{1005, uniswapv2.ErrInvalidAsset},
	{1006, uniswapv2.ErrInsufficientOutputAmount},
	{1007, uniswapv2.ErrInsufficientLiquidity},
	{1008, uniswapv2.ErrReentrant},
	{1009, uniswapv2.ErrOverflow},
	{1010, uniswapv2.ErrPartialRedemption},
	{1100, token.ErrInsufficientBalance},
	{1101, token.ErrInsufficientAllowance},
	{1102, token.ErrZeroAddress},
	{1200, poolregistry.ErrUnknownToken},
	{1201, poolregistry.ErrPoolNotFound},
	{1202, poolregistry.ErrPoolExists},
}

// Error is an error carrying a JSON-RPC error code. It satisfies the rpc.Error
// interface of go-ethereum's rpc package.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string  { return e.Err.Error() }
func (e *Error) ErrorCode() int { return e.Code }
func (e *Error) Unwrap() error  { return e.Err }

// WithCode attaches the code of the first known error in err's chain. Errors
// with no known cause are returned unchanged.
func WithCode(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return &Error{Code: c.code, Err: err}
		}
	}
	return err
}

// FromCode restores the sentinel behind an error received from the server so
// callers can match it with errors.Is.
func FromCode(err error) error {
	var rpcErr interface{ ErrorCode() int }
	if !errors.As(err, &rpcErr) {
		return err
	}
	for _, c := range errorCodes {
		if c.code == rpcErr.ErrorCode() {
			return &Error{Code: c.code, Err: &remoteError{msg: err.Error(), cause: c.err}}
		}
	}
	return err
}

// remoteError keeps the server's message while unwrapping to the sentinel.
type remoteError struct {
	msg   string
	cause error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.cause }
