package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/metrics"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/observability"
)

// ConsentWriter записывает согласие в леджер
type ConsentWriter interface {
	WriteGrant(ctx context.Context, action model.ConsentAction, key model.ConsentKey) (*model.ConsentWriteResult, error)
}

type AccessRequestService struct {
	requests AccessRequestStore
	consents ConsentWriter
	notifier Notifier
	claimTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewAccessRequestService(
	requests AccessRequestStore,
	consents ConsentWriter,
	notifier Notifier,
	claimTTL time.Duration,
	logger *zap.Logger,
) *AccessRequestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AccessRequestService{
		requests: requests,
		consents: consents,
		notifier: notifier,
		claimTTL: claimTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Create создаёт заявку в статусе pending
func (s *AccessRequestService) Create(ctx context.Context, studentID, requesterGroup, dataGroup, purpose string) (*model.AccessRequest, error) {
	studentID = strings.TrimSpace(studentID)
	requesterGroup = strings.TrimSpace(requesterGroup)
	dataGroup = strings.TrimSpace(dataGroup)
	purpose = strings.TrimSpace(purpose)

	key := model.NewConsentKey(studentID, requesterGroup, dataGroup)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	req := &model.AccessRequest{
		ID:             uuid.New(),
		StudentID:      studentID,
		RequesterGroup: requesterGroup,
		DataGroup:      dataGroup,
		Purpose:        purpose,
		Status:         model.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create access request: %w", err)
	}

	metrics.RequestTransitions.WithLabelValues(model.RequestStatusPending).Inc()
	s.logger.Info("Access request created",
		zap.String("request_id", req.ID.String()),
		zap.String("student_id", studentID),
		zap.String("requester_group", requesterGroup),
		zap.String("data_group", dataGroup))
	s.notify(ctx, req)

	return req, nil
}

// Get получает заявку
func (s *AccessRequestService) Get(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get access request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: access request %s", apperr.ErrNotFound, id)
	}
	return req, nil
}

// ListByStudent получает заявки к студенту
func (s *AccessRequestService) ListByStudent(ctx context.Context, studentID string) ([]*model.AccessRequest, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: studentId required", apperr.ErrValidation)
	}
	reqs, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return reqs, nil
}

// ListByRequesterGroup получает заявки группы запроса
func (s *AccessRequestService) ListByRequesterGroup(ctx context.Context, group string) ([]*model.AccessRequest, error) {
	if strings.TrimSpace(group) == "" {
		return nil, fmt.Errorf("%w: requesterGroup required", apperr.ErrValidation)
	}
	reqs, err := s.requests.ListByRequesterGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return reqs, nil
}

// Approve одобряет заявку: ровно один вызов grant_consent на заявку
func (s *AccessRequestService) Approve(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("%w: access request is already %s", apperr.ErrInvalidTransition, req.Status)
	}

	token := uuid.New()
	claimed, err := s.requests.ClaimForApproval(ctx, id, token, s.staleBefore())
	if err != nil {
		return nil, fmt.Errorf("claim access request: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: access request is being approved or no longer pending", apperr.ErrInvalidTransition)
	}

	// После захвата отмена клиента не прерывает ни вызов леджера, ни запись результата.
	// Вызов ограничен LEDGER_TIMEOUT внутри WriteGrant.
	persistCtx := context.WithoutCancel(ctx)

	result, err := s.consents.WriteGrant(persistCtx, model.ActionGrant, req.ConsentKey())
	if err != nil {
		if relErr := s.requests.ReleaseClaim(persistCtx, id, token); relErr != nil {
			s.logger.Error("Failed to release approval claim",
				zap.String("request_id", id.String()),
				zap.Error(relErr))
		}
		s.logger.Warn("Access request approval failed, request stays pending",
			zap.String("request_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("grant consent: %w", err)
	}

	approved, err := s.requests.CompleteApproval(persistCtx, id, token, result.TxID, result.ReturnValue)
	if err != nil {
		s.logger.Error("Consent granted but approval not persisted",
			zap.String("request_id", id.String()),
			zap.String("tx_id", result.TxID),
			zap.Error(err))
		observability.CaptureErrCtx(ctxutil.WithOp(persistCtx, "complete_approval"), err, map[string]string{"request_id": id.String(), "tx_id": result.TxID})
		return nil, fmt.Errorf("complete approval: %w", err)
	}
	if approved == nil {
		s.logger.Error("Approval claim expired before completion",
			zap.String("request_id", id.String()),
			zap.String("tx_id", result.TxID))
		return nil, fmt.Errorf("%w: approval claim expired", apperr.ErrInvalidTransition)
	}

	metrics.RequestTransitions.WithLabelValues(model.RequestStatusApproved).Inc()
	s.logger.Info("Access request approved",
		zap.String("request_id", id.String()),
		zap.String("tx_id", result.TxID))
	s.notify(ctx, approved)

	return approved, nil
}

// Reject отклоняет заявку без обращения к леджеру
func (s *AccessRequestService) Reject(ctx context.Context, id uuid.UUID, reason string) (*model.AccessRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("%w: access request is already %s", apperr.ErrInvalidTransition, req.Status)
	}

	rejected, err := s.requests.Reject(ctx, id, strings.TrimSpace(reason), s.staleBefore())
	if err != nil {
		return nil, fmt.Errorf("reject access request: %w", err)
	}
	if rejected == nil {
		return nil, fmt.Errorf("%w: access request is being approved or no longer pending", apperr.ErrInvalidTransition)
	}

	metrics.RequestTransitions.WithLabelValues(model.RequestStatusRejected).Inc()
	s.logger.Info("Access request rejected",
		zap.String("request_id", id.String()),
		zap.String("reason", rejected.RejectReason))
	s.notify(ctx, rejected)

	return rejected, nil
}

// ReleaseStaleClaims снимает захваты старше claimTTL
func (s *AccessRequestService) ReleaseStaleClaims(ctx context.Context) (int64, error) {
	n, err := s.requests.ReleaseStaleClaims(ctx, s.staleBefore())
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	if n > 0 {
		s.logger.Warn("Released stale approval claims", zap.Int64("count", n))
	}
	return n, nil
}

func (s *AccessRequestService) staleBefore() time.Time {
	return s.now().Add(-s.claimTTL)
}

func (s *AccessRequestService) notify(ctx context.Context, req *model.AccessRequest) {
	if err := s.notifier.NotifyAccessRequest(context.WithoutCancel(ctx), req); err != nil {
		s.logger.Warn("Failed to send access request notification",
			zap.String("request_id", req.ID.String()),
			zap.String("status", req.Status),
			zap.Error(err))
	}
}
