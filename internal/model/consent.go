package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/google/uuid"
)

// KeySeparator joins consent key components. The ledger contract builds the same
// key on its side, so components must never contain it.
const KeySeparator = ":"

// MaxKeyLength is the ledger's maximum box name length in bytes.
const MaxKeyLength = 64

// ConsentKey identifies one consent slot on the ledger
type ConsentKey struct {
	StudentID     string `json:"studentId"`
	ReceiverGroup string `json:"receiverGroup"`
	DataGroup     string `json:"dataGroup"`
}

// NewConsentKey builds a key from its components, trimming surrounding whitespace
func NewConsentKey(studentID, receiverGroup, dataGroup string) ConsentKey {
	return ConsentKey{
		StudentID:     strings.TrimSpace(studentID),
		ReceiverGroup: strings.TrimSpace(receiverGroup),
		DataGroup:     strings.TrimSpace(dataGroup),
	}
}

// String returns the deterministic lookup key
func (k ConsentKey) String() string {
	return k.StudentID + KeySeparator + k.ReceiverGroup + KeySeparator + k.DataGroup
}

// BoxName returns the key as ledger box name bytes
func (k ConsentKey) BoxName() []byte {
	return []byte(k.String())
}

// Validate checks that the key is addressable and injective
func (k ConsentKey) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"studentId", k.StudentID},
		{"receiverGroup", k.ReceiverGroup},
		{"dataGroup", k.DataGroup},
	}
	for _, f := range fields {
		if err := ValidateKeyComponent(f.name, f.value); err != nil {
			return err
		}
	}
	if n := len(k.String()); n > MaxKeyLength {
		return fmt.Errorf("%w: consent key is %d bytes, max %d", apperr.ErrValidation, n, MaxKeyLength)
	}
	return nil
}

// ValidateKeyComponent checks a single value that will become part of a consent key
func ValidateKeyComponent(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s required", apperr.ErrValidation, name)
	}
	if strings.Contains(value, KeySeparator) {
		return fmt.Errorf("%w: %s must not contain %q", apperr.ErrValidation, name, KeySeparator)
	}
	return nil
}

// ConsentStatus is the derived on-chain status of a consent key
type ConsentStatus string

const (
	ConsentGranted ConsentStatus = "granted"
	ConsentRevoked ConsentStatus = "revoked"
	ConsentNone    ConsentStatus = "none"
)

// IsGranted reports whether disclosure is allowed. None counts as revoked.
func (s ConsentStatus) IsGranted() bool {
	return s == ConsentGranted
}

// ConsentAction is a ledger transition
type ConsentAction string

const (
	ActionGrant  ConsentAction = "grant"
	ActionRevoke ConsentAction = "revoke"
)

// Method returns the contract ABI method name for the action
func (a ConsentAction) Method() (string, error) {
	switch a {
	case ActionGrant:
		return "grant_consent", nil
	case ActionRevoke:
		return "revoke_consent", nil
	default:
		return "", fmt.Errorf("%w: unknown consent action %q", apperr.ErrValidation, string(a))
	}
}

// ConsentState is a snapshot of one key read from the ledger
type ConsentState struct {
	ConsentKey
	BoxKey  string        `json:"boxKey"`
	Status  ConsentStatus `json:"status"`
	Numeric *uint64       `json:"numeric"`
}

// ConsentWriteResult is the result of a grant or revoke call
type ConsentWriteResult struct {
	TxID           string `json:"txId"`
	ReturnValue    string `json:"returnValue"`
	ConfirmedRound uint64 `json:"confirmedRound,omitempty"`
}

// ConsentEvent is a locally recorded grant or revoke that succeeded on the ledger
type ConsentEvent struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     string        `json:"studentId"`
	ReceiverGroup string        `json:"receiverGroup"`
	DataGroup     string        `json:"dataGroup"`
	Action        ConsentAction `json:"action"`
	TxID          string        `json:"txId"`
	ReturnValue   string        `json:"returnValue"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Key returns the consent key the event was written for
func (e *ConsentEvent) Key() ConsentKey {
	return NewConsentKey(e.StudentID, e.ReceiverGroup, e.DataGroup)
}
