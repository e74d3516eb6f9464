package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

// AccessRequestStore хранит заявки. Переходы статуса выполняются условной записью.
type AccessRequestStore interface {
	Create(ctx context.Context, req *model.AccessRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.AccessRequest, error)
	ListByRequesterGroup(ctx context.Context, group string) ([]*model.AccessRequest, error)

	// ClaimForApproval marks a pending request as being approved by token.
	// It reports false when the request is not pending or holds a claim newer than staleBefore.
	ClaimForApproval(ctx context.Context, id, token uuid.UUID, staleBefore time.Time) (bool, error)
	// ReleaseClaim drops token's claim, leaving the request pending.
	ReleaseClaim(ctx context.Context, id, token uuid.UUID) error
	// CompleteApproval moves a request claimed by token to approved. Nil means the claim was lost.
	CompleteApproval(ctx context.Context, id, token uuid.UUID, txID, returnValue string) (*model.AccessRequest, error)
	// Reject moves an unclaimed pending request to rejected. Nil means no transition happened.
	Reject(ctx context.Context, id uuid.UUID, reason string, staleBefore time.Time) (*model.AccessRequest, error)
	// ReleaseStaleClaims clears claims taken before staleBefore.
	ReleaseStaleClaims(ctx context.Context, staleBefore time.Time) (int64, error)
}

// DocumentStore хранит документы студентов
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// ListByStudent returns metadata without payloads.
	ListByStudent(ctx context.Context, studentID string) ([]*model.Document, error)
	// AddSharedWith atomically appends group to the allow-list if absent. Nil means no document.
	AddSharedWith(ctx context.Context, id uuid.UUID, group string) ([]string, error)
}

// GroupStore хранит пользовательские группы одного вида
type GroupStore interface {
	// Upsert inserts the group or returns the existing one for (studentID, normalizedName).
	Upsert(ctx context.Context, g *model.Group) (*model.Group, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Group, error)
	GetByNormalizedName(ctx context.Context, studentID, normalized string) (*model.Group, error)
}

// RequesterStore хранит участников групп запросов
type RequesterStore interface {
	Create(ctx context.Context, r *model.RequesterIdentity) error
	ListByGroup(ctx context.Context, studentID, normalizedGroup string) ([]*model.RequesterIdentity, error)
	// SetStatus returns nil when there is no such requester.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.RequesterIdentity, error)
	CountActiveByGroup(ctx context.Context, studentID string) (map[string]int, error)
}

// ConsentEventStore хранит локальную историю вызовов grant/revoke
type ConsentEventStore interface {
	Append(ctx context.Context, e *model.ConsentEvent) error
	ListByStudent(ctx context.Context, studentID string) ([]*model.ConsentEvent, error)
	// ListKeysByStudent returns each distinct (receiver, data) pair once.
	ListKeysByStudent(ctx context.Context, studentID string) ([]model.ConsentKey, error)
}
