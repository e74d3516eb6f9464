package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/model"
)

// AddRequesterInput is a new request group member
type AddRequesterInput struct {
	StudentID     string
	RequestGroup  string
	DisplayName   string
	Email         string
	WalletAddress string
	Organization  string
}

type RequesterService struct {
	requesters    RequesterStore
	requestGroups *GroupService
	logger        *zap.Logger
}

func NewRequesterService(requesters RequesterStore, requestGroups *GroupService, logger *zap.Logger) *RequesterService {
	return &RequesterService{
		requesters:    requesters,
		requestGroups: requestGroups,
		logger:        logger,
	}
}

// Add добавляет участника в группу запроса студента
func (s *RequesterService) Add(ctx context.Context, in AddRequesterInput) (*model.RequesterIdentity, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.StudentID == "" || strings.TrimSpace(in.RequestGroup) == "" || in.DisplayName == "" {
		return nil, fmt.Errorf("%w: studentId, requestGroup and displayName required", apperr.ErrValidation)
	}

	group, err := s.requestGroups.Resolve(ctx, in.StudentID, in.RequestGroup)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid requestGroup for this student", apperr.ErrValidation)
		}
		return nil, err
	}

	m := &model.RequesterIdentity{
		ID:                     uuid.New(),
		StudentID:              in.StudentID,
		RequestGroupName:       group,
		RequestGroupNormalized: model.NormalizeGroupName(group),
		DisplayName:            in.DisplayName,
		Email:                  strings.TrimSpace(in.Email),
		WalletAddress:          strings.TrimSpace(in.WalletAddress),
		Organization:           strings.TrimSpace(in.Organization),
		Status:                 model.RequesterStatusActive,
	}
	if err := s.requesters.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create requester: %w", err)
	}

	s.logger.Info("Requester added",
		zap.String("requester_id", m.ID.String()),
		zap.String("student_id", m.StudentID),
		zap.String("request_group", m.RequestGroupName))
	return m, nil
}

// ListMembers возвращает участников группы, новые первыми
func (s *RequesterService) ListMembers(ctx context.Context, studentID, groupName string) ([]*model.RequesterIdentity, error) {
	if strings.TrimSpace(studentID) == "" || strings.TrimSpace(groupName) == "" {
		return nil, fmt.Errorf("%w: studentId and groupName required", apperr.ErrValidation)
	}
	members, err := s.requesters.ListByGroup(ctx, studentID, model.NormalizeGroupName(groupName))
	if err != nil {
		return nil, fmt.Errorf("list requesters: %w", err)
	}
	return members, nil
}

// SetStatus включает или выключает участника, запись не удаляется
func (s *RequesterService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.RequesterIdentity, error) {
	status = strings.TrimSpace(status)
	if !model.ValidRequesterStatus(status) {
		return nil, fmt.Errorf("%w: status must be active or inactive", apperr.ErrValidation)
	}

	m, err := s.requesters.SetStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("set requester status: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: requester %s", apperr.ErrNotFound, id)
	}

	s.logger.Info("Requester status changed",
		zap.String("requester_id", id.String()),
		zap.String("status", status))
	return m, nil
}
