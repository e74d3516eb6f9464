package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/model"
)

const defaultMimeType = "application/octet-stream"

// PayloadSealer хранит содержимое документа в одном из режимов
type PayloadSealer interface {
	Mode() model.StorageMode
	Seal(content []byte) (model.Payload, error)
	Open(mode model.StorageMode, p model.Payload) ([]byte, error)
}

// UploadInput is a new document
type UploadInput struct {
	StudentID     string
	ReceiverGroup string
	DataGroup     string
	FileName      string
	MimeType      string
	Content       []byte
}

// DownloadResult is a disclosed document with its content
type DownloadResult struct {
	Document   *model.Document
	Content    []byte
	AccessMode string
	Decision   Decision
}

type DocumentService struct {
	documents DocumentStore
	auth      *AuthorizationService
	sealer    PayloadSealer
	maxBytes  int64
	logger    *zap.Logger
}

func NewDocumentService(
	documents DocumentStore,
	auth *AuthorizationService,
	sealer PayloadSealer,
	maxBytes int64,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		auth:      auth,
		sealer:    sealer,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Upload сохраняет документ студента
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.ReceiverGroup = strings.TrimSpace(in.ReceiverGroup)
	in.DataGroup = strings.TrimSpace(in.DataGroup)
	in.FileName = strings.TrimSpace(in.FileName)
	in.MimeType = strings.TrimSpace(in.MimeType)

	if err := model.NewConsentKey(in.StudentID, in.ReceiverGroup, in.DataGroup).Validate(); err != nil {
		return nil, err
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("%w: fileName required", apperr.ErrValidation)
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: file content required", apperr.ErrValidation)
	}
	if s.maxBytes > 0 && int64(len(in.Content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file is %d bytes, max %d", apperr.ErrValidation, len(in.Content), s.maxBytes)
	}
	if in.MimeType == "" {
		in.MimeType = defaultMimeType
	}

	payload, err := s.sealer.Seal(in.Content)
	if err != nil {
		return nil, fmt.Errorf("seal document: %w", err)
	}

	doc := &model.Document{
		ID:            uuid.New(),
		StudentID:     in.StudentID,
		ReceiverGroup: in.ReceiverGroup,
		DataGroup:     in.DataGroup,
		FileName:      in.FileName,
		MimeType:      in.MimeType,
		SizeBytes:     int64(len(in.Content)),
		StorageMode:   s.sealer.Mode(),
		SharedWith:    []string{},
		Payload:       payload,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("student_id", doc.StudentID),
		zap.String("data_group", doc.DataGroup),
		zap.String("storage_mode", string(doc.StorageMode)),
		zap.Int64("size_bytes", doc.SizeBytes))

	doc.Payload = model.Payload{}
	return doc, nil
}

// ListByStudent возвращает метаданные документов студента
func (s *DocumentService) ListByStudent(ctx context.Context, studentID string) ([]*model.Document, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: studentId required", apperr.ErrValidation)
	}
	docs, err := s.documents.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Share добавляет группу в список доступа документа. Леджер здесь не проверяется.
func (s *DocumentService) Share(ctx context.Context, id uuid.UUID, ownerStudentID, group string) ([]string, error) {
	group = strings.TrimSpace(group)
	if err := model.ValidateKeyComponent("group", group); err != nil {
		return nil, err
	}

	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsOwnedBy(ownerStudentID) {
		return nil, fmt.Errorf("%w: only the owner can share a document", apperr.ErrForbidden)
	}

	shared, err := s.documents.AddSharedWith(ctx, id, group)
	if err != nil {
		return nil, fmt.Errorf("share document: %w", err)
	}
	if shared == nil {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}

	s.logger.Info("Document shared",
		zap.String("document_id", id.String()),
		zap.String("group", group))
	return shared, nil
}

// Download отдаёт содержимое, если владелец совпадает и согласие активно
func (s *DocumentService) Download(ctx context.Context, id uuid.UUID, ownerStudentID, requesterGroup string) (*DownloadResult, error) {
	ownerStudentID = strings.TrimSpace(ownerStudentID)
	requesterGroup = strings.TrimSpace(requesterGroup)
	if ownerStudentID == "" {
		return nil, fmt.Errorf("%w: ownerStudentId required", apperr.ErrValidation)
	}

	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsOwnedBy(ownerStudentID) {
		return nil, fmt.Errorf("%w: document does not belong to %s", apperr.ErrForbidden, ownerStudentID)
	}

	decision, err := s.auth.CanDisclose(ctx, doc, Requester{StudentID: ownerStudentID, Group: requesterGroup})
	if err != nil {
		return nil, fmt.Errorf("check disclosure: %w", err)
	}
	if !decision.Allowed {
		if decision.Status != "" {
			return nil, fmt.Errorf("%w: %s (on-chain status %s)", apperr.ErrForbidden, decision.Reason, decision.Status)
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrForbidden, decision.Reason)
	}

	content, err := s.sealer.Open(doc.StorageMode, doc.Payload)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", id, err)
	}

	mode := model.AccessModeShared
	if decision.Reason == ReasonOwner {
		mode = model.AccessModeOwner
	}

	s.logger.Info("Document downloaded",
		zap.String("document_id", id.String()),
		zap.String("access_mode", mode),
		zap.String("requester_group", requesterGroup))

	doc.Payload = model.Payload{}
	return &DownloadResult{Document: doc, Content: content, AccessMode: mode, Decision: decision}, nil
}

func (s *DocumentService) get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}
	return doc, nil
}
