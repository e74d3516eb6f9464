// Package ledger talks to the consent contract's box storage.
package ledger

import (
	"context"
	"errors"
)

// ErrBoxNotFound means no value was ever written under the box name.
// It is a normal outcome of a read, not a transport failure.
var ErrBoxNotFound = errors.New("box not found")

// CallResult is the outcome of a confirmed method call
type CallResult struct {
	TxID           string
	ReturnValue    string
	ConfirmedRound uint64
}

// Client is the subset of ledger operations the consent service depends on.
//
// Implementations wrap transport failures in apperr.ErrLedgerUnavailable and
// rejected transactions in apperr.ErrLedgerRejected.
type Client interface {
	// GetBoxValue returns the raw value stored under name, or ErrBoxNotFound.
	GetBoxValue(ctx context.Context, name []byte) ([]byte, error)
	// CallMethod submits a signed call of a (string,string,string)string ABI method
	// with box as its box reference and waits for confirmation.
	CallMethod(ctx context.Context, method string, args []string, box []byte) (CallResult, error)
}
