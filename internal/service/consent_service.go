package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/ledger"
	"github.com/Freeeeeet/studentia/internal/metrics"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/observability"
)

// onChainReadLimit bounds concurrent box reads of one summary
const onChainReadLimit = 8

// ConsentService читает и пишет согласия в леджер
type ConsentService struct {
	ledger  ledger.Client
	events  ConsentEventStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewConsentService(client ledger.Client, events ConsentEventStore, timeout time.Duration, logger *zap.Logger) *ConsentService {
	return &ConsentService{
		ledger:  client,
		events:  events,
		timeout: timeout,
		logger:  logger,
	}
}

// DeriveKey возвращает ключ бокса для тройки
func (s *ConsentService) DeriveKey(studentID, receiverGroup, dataGroup string) string {
	return model.NewConsentKey(studentID, receiverGroup, dataGroup).String()
}

// WriteGrant отправляет grant_consent или revoke_consent и ждёт подтверждения
func (s *ConsentService) WriteGrant(ctx context.Context, action model.ConsentAction, key model.ConsentKey) (*model.ConsentWriteResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	method, err := action.Method()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := ctxutil.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	res, err := s.ledger.CallMethod(callCtx, method, []string{key.StudentID, key.ReceiverGroup, key.DataGroup}, key.BoxName())
	metrics.ObserveLedger(method, started, err)
	if err != nil {
		s.logger.Warn("Ledger write failed",
			zap.String("method", method),
			zap.String("key", key.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	s.logger.Info("Consent written",
		zap.String("method", method),
		zap.String("key", key.String()),
		zap.String("tx_id", res.TxID),
		zap.Uint64("round", res.ConfirmedRound))

	event := &model.ConsentEvent{
		ID:            uuid.New(),
		StudentID:     key.StudentID,
		ReceiverGroup: key.ReceiverGroup,
		DataGroup:     key.DataGroup,
		Action:        action,
		TxID:          res.TxID,
		ReturnValue:   res.ReturnValue,
	}
	// Леджер уже изменён, поэтому ошибка истории не возвращается вызывающему
	if err := s.events.Append(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("Failed to record consent event",
			zap.String("tx_id", res.TxID),
			zap.Error(err))
		observability.CaptureErrCtx(ctxutil.WithOp(ctx, "consent_event"), err, map[string]string{"tx_id": res.TxID})
	}

	return &model.ConsentWriteResult{
		TxID:           res.TxID,
		ReturnValue:    res.ReturnValue,
		ConfirmedRound: res.ConfirmedRound,
	}, nil
}

// ReadStatus читает текущий статус согласия из бокса
func (s *ConsentService) ReadStatus(ctx context.Context, key model.ConsentKey) (*model.ConsentState, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	readCtx, cancel := ctxutil.WithTimeout(ctx, s.timeout)
	defer cancel()

	state := &model.ConsentState{ConsentKey: key, BoxKey: key.String()}

	started := time.Now()
	raw, err := s.ledger.GetBoxValue(readCtx, key.BoxName())
	if errors.Is(err, ledger.ErrBoxNotFound) {
		metrics.ObserveLedger("read_box", started, nil)
		state.Status = model.ConsentNone
		return state, nil
	}
	metrics.ObserveLedger("read_box", started, err)
	if err != nil {
		return nil, fmt.Errorf("read box %s: %w", key, err)
	}

	numeric, err := ledger.DecodeBoxValue(raw)
	if err != nil {
		s.logger.Error("Malformed consent box", zap.String("key", key.String()), zap.Int("bytes", len(raw)))
		return nil, fmt.Errorf("decode box %s: %w", key, err)
	}

	state.Numeric = &numeric
	state.Status = ledger.StatusFromNumeric(numeric)
	return state, nil
}

// ListOnChain читает из леджера все пары, которые студент когда-либо записывал
func (s *ConsentService) ListOnChain(ctx context.Context, studentID string) ([]*model.ConsentState, error) {
	if err := model.ValidateKeyComponent("studentId", studentID); err != nil {
		return nil, err
	}

	keys, err := s.events.ListKeysByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list consent keys: %w", err)
	}

	states := make([]*model.ConsentState, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(onChainReadLimit)
	for i, key := range keys {
		g.Go(func() error {
			st, err := s.ReadStatus(gctx, key)
			if err != nil {
				return err
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return states, nil
}

// History возвращает локальную историю записей, новые первыми
func (s *ConsentService) History(ctx context.Context, studentID string) ([]*model.ConsentEvent, error) {
	if err := model.ValidateKeyComponent("studentId", studentID); err != nil {
		return nil, err
	}

	events, err := s.events.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list consent events: %w", err)
	}
	return events, nil
}
