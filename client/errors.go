// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package client

import (
	"context"
	"errors"
	"fmt"

	ethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Kind classifies an RpcClient failure (spec.md §4.2, §7).
type Kind int

const (
	KindTimeout Kind = iota
	KindTransport
	KindRPCError
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindRPCError:
		return "rpc-error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error wraps a classified RpcClient failure. Only KindTimeout is classed
// as retryable (spec.md §4.2); RpcClient itself never retries a call.
type Error struct {
	Kind    Kind
	Code    int // remote error code, set only for KindRPCError
	Message string
	Method  string
	cause   error
}

func (e *Error) Error() string {
	if e.Kind == KindRPCError {
		return fmt.Sprintf("rpc %s: remote error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("rpc %s: %s: %s", e.Method, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the failure is of a retryable kind.
func (e *Error) Retryable() bool { return e.Kind == KindTimeout }

// classify turns a raw error from the underlying transport into a typed
// Error. rpcErr is checked first since ethrpc.Error satisfies the plain
// error interface too.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error(), Method: method, cause: err}
	}

	var rpcErr ethrpc.Error
	if errors.As(err, &rpcErr) {
		return &Error{Kind: KindRPCError, Code: rpcErr.ErrorCode(), Message: rpcErr.Error(), Method: method, cause: err}
	}

	if errors.Is(err, errMalformed) {
		return &Error{Kind: KindMalformed, Message: err.Error(), Method: method, cause: err}
	}

	return &Error{Kind: KindTransport, Message: err.Error(), Method: method, cause: err}
}

var errMalformed = errors.New("malformed response")
