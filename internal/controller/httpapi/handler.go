// Package httpapi exposes the consent services over JSON HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/metrics"
	"github.com/Freeeeeet/studentia/internal/service"
)

const healthTimeout = 800 * time.Millisecond

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is everything the API serves
type Services struct {
	Consents      *service.ConsentService
	Requests      *service.AccessRequestService
	Documents     *service.DocumentService
	DataGroups    *service.GroupService
	RequestGroups *service.GroupService
	Requesters    *service.RequesterService
}

type Handler struct {
	svc       Services
	health    Pinger
	maxUpload int64
	logger    *zap.Logger
}

// NewHandler создаёт HTTP-обработчик; health может быть nil для хранилища в памяти
func NewHandler(svc Services, health Pinger, maxUploadBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		svc:       svc,
		health:    health,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
}

// Routes регистрирует все маршруты
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withOp(pattern, fn))
	}

	handle("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", metrics.Handler())

	handle("POST /consents/grant", h.grantConsent)
	handle("POST /consents/revoke", h.revokeConsent)
	handle("GET /consents/onchain/{studentId}/{receiverGroup}/{dataGroup}", h.consentStatus)
	handle("GET /consents/onchain/{studentId}", h.onChainSummary)
	handle("GET /consents/{studentId}", h.consentHistory)

	handle("POST /access-requests", h.createAccessRequest)
	handle("GET /access-requests/{id}", h.getAccessRequest)
	handle("GET /access-requests/student/{studentId}", h.listStudentRequests)
	handle("GET /access-requests/student/{studentId}/export", h.exportStudentRequests)
	handle("GET /access-requests/requester/{requesterGroup}", h.listRequesterRequests)
	handle("POST /access-requests/{id}/approve", h.approveAccessRequest)
	handle("POST /access-requests/{id}/reject", h.rejectAccessRequest)

	handle("POST /documents/upload", h.uploadDocument)
	handle("GET /documents/{studentId}", h.listDocuments)
	handle("POST /documents/{id}/share", h.shareDocument)
	handle("GET /documents/download/{id}", h.downloadDocument)

	handle("GET /data-groups/{studentId}", h.listGroups(h.svc.DataGroups, "dataGroups"))
	handle("POST /data-groups", h.createGroup(h.svc.DataGroups, "dataGroup"))
	handle("GET /request-groups/{studentId}", h.listGroups(h.svc.RequestGroups, "requestGroups"))
	handle("POST /request-groups", h.createGroup(h.svc.RequestGroups, "requestGroup"))
	handle("GET /request-groups/{studentId}/members/{groupName}", h.listMembers)
	handle("POST /request-groups/members", h.addMember)
	handle("PATCH /request-groups/members/{id}/status", h.setMemberStatus)

	return withRequestID(h.withAccessLog(h.withRecover(mux)))
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		started := time.Now()
		if err := h.health.Ping(ctx); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, envelope{"error": "db not ok: " + err.Error()})
			return
		}
		metrics.ObserveDBPing(time.Since(started))
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{}))
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", apperr.ErrValidation, name)
	}
	return id, nil
}
