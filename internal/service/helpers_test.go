package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/encryption"
	"github.com/Freeeeeet/studentia/internal/ledger"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/memory"
)

// stubLedger wraps the in-memory ledger with failure injection and call gating
type stubLedger struct {
	*ledger.Memory

	mu      sync.Mutex
	callErr error
	gate    chan struct{}
	entered chan struct{}
	confirm time.Duration
	reads   atomic.Int32
}

func newStubLedger() *stubLedger {
	return &stubLedger{Memory: ledger.NewMemory()}
}

func (l *stubLedger) failCalls(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callErr = err
}

// slowConfirm makes CallMethod apply the write first and then wait d for confirmation,
// failing as unavailable if ctx ends sooner.
func (l *stubLedger) slowConfirm(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirm = d
}

// holdCalls makes the next CallMethod signal entered and block until release is called.
// Later calls pass straight through.
func (l *stubLedger) holdCalls() (entered <-chan struct{}, release func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = make(chan struct{})
	l.entered = make(chan struct{}, 1)
	gate := l.gate
	return l.entered, func() { close(gate) }
}

func (l *stubLedger) GetBoxValue(ctx context.Context, name []byte) ([]byte, error) {
	l.reads.Add(1)
	return l.Memory.GetBoxValue(ctx, name)
}

func (l *stubLedger) CallMethod(ctx context.Context, method string, args []string, box []byte) (ledger.CallResult, error) {
	l.mu.Lock()
	err, gate, entered, confirm := l.callErr, l.gate, l.entered, l.confirm
	l.gate, l.entered = nil, nil
	l.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if err != nil {
		return ledger.CallResult{}, err
	}
	res, err := l.Memory.CallMethod(ctx, method, args, box)
	if err != nil || confirm == 0 {
		return res, err
	}

	select {
	case <-time.After(confirm):
		return res, nil
	case <-ctx.Done():
		return ledger.CallResult{}, fmt.Errorf("%w: %w", apperr.ErrLedgerUnavailable, ctx.Err())
	}
}

type failingEvents struct {
	*memory.ConsentEventRepository
}

func (failingEvents) Append(context.Context, *model.ConsentEvent) error {
	return errors.New("disk full")
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []string
}

func (n *recordingNotifier) NotifyAccessRequest(_ context.Context, req *model.AccessRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, req.Status)
	return nil
}

func (n *recordingNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.statuses...)
}

type fixture struct {
	ledger    *stubLedger
	events    *memory.ConsentEventRepository
	consents  *ConsentService
	auth      *AuthorizationService
	requests  *AccessRequestService
	documents *DocumentService
	data      *GroupService
	request   *GroupService
	members   *RequesterService
	notifier  *recordingNotifier
}

func newFixture(t *testing.T, encKey string) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	sealer, err := encryption.NewSealer(encKey)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	f := &fixture{
		ledger:   newStubLedger(),
		events:   memory.NewConsentEventRepository(),
		notifier: &recordingNotifier{},
	}
	requesters := memory.NewRequesterRepository()

	f.consents = NewConsentService(f.ledger, f.events, 5*time.Second, logger)
	f.auth = NewAuthorizationService(f.consents, logger)
	f.requests = NewAccessRequestService(memory.NewAccessRequestRepository(), f.consents, f.notifier, time.Minute, logger)
	f.documents = NewDocumentService(memory.NewDocumentRepository(), f.auth, sealer, 1<<20, logger)
	f.data = NewGroupService(model.GroupKindData, memory.NewGroupRepository(), nil, logger)
	f.request = NewGroupService(model.GroupKindRequest, memory.NewGroupRepository(), requesters, logger)
	f.members = NewRequesterService(requesters, f.request, logger)
	return f
}
