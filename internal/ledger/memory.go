package ledger

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/model"
)

var txIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Memory is an in-process ledger with the consent contract's semantics.
// Used for LEDGER_MODE=local and in tests.
type Memory struct {
	mu    sync.Mutex
	boxes map[string][]byte
	calls map[string]int
	round uint64
}

// NewMemory создаёт пустой локальный леджер
func NewMemory() *Memory {
	return &Memory{
		boxes: make(map[string][]byte),
		calls: make(map[string]int),
	}
}

// GetBoxValue возвращает значение бокса
func (m *Memory) GetBoxValue(ctx context.Context, name []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.boxes[string(name)]
	if !ok {
		return nil, ErrBoxNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// CallMethod выполняет grant_consent / revoke_consent
func (m *Memory) CallMethod(ctx context.Context, method string, args []string, box []byte) (CallResult, error) {
	if err := ctx.Err(); err != nil {
		return CallResult{}, fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}

	var value uint64
	var prefix string
	switch method {
	case "grant_consent":
		value, prefix = 1, "GRANTED:"
	case "revoke_consent":
		value, prefix = 0, "REVOKED:"
	default:
		return CallResult{}, fmt.Errorf("%w: unknown method %q", apperr.ErrLedgerRejected, method)
	}

	if len(args) != 3 {
		return CallResult{}, fmt.Errorf("%w: %s expects 3 args, got %d", apperr.ErrLedgerRejected, method, len(args))
	}
	// Контракт сам собирает ключ из аргументов, ссылка на бокс должна совпадать
	key := strings.Join(args, model.KeySeparator)
	if key != string(box) {
		return CallResult{}, fmt.Errorf("%w: box reference %q does not match key %q", apperr.ErrLedgerRejected, string(box), key)
	}

	txID, err := newTxID()
	if err != nil {
		return CallResult{}, fmt.Errorf("%w: %v", apperr.ErrLedgerUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.boxes[key] = EncodeBoxValue(value)
	m.calls[method]++
	m.round++

	return CallResult{
		TxID:           txID,
		ReturnValue:    prefix + key,
		ConfirmedRound: m.round,
	}, nil
}

// Calls возвращает количество успешных вызовов метода
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// PutBox записывает сырое значение бокса
func (m *Memory) PutBox(name string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes[name] = value
}

func newTxID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tx id: %w", err)
	}
	return txIDEncoding.EncodeToString(buf), nil
}
