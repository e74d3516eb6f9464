package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/metrics"
	"github.com/Freeeeeet/studentia/internal/model"
)

// Decision reasons
const (
	ReasonOwner             = "owner"
	ReasonNotOwner          = "not-owner"
	ReasonNotShared         = "not-shared"
	ReasonConsentNotGranted = "consent-not-granted"
	ReasonGranted           = "granted"
)

// Requester is who asks to see a document. An empty Group means the owner themself.
type Requester struct {
	StudentID string
	Group     string
}

// Decision is the result of a disclosure check
type Decision struct {
	Allowed bool                `json:"allowed"`
	Reason  string              `json:"reason"`
	Status  model.ConsentStatus `json:"status,omitempty"`
}

// StatusReader читает статус согласия
type StatusReader interface {
	ReadStatus(ctx context.Context, key model.ConsentKey) (*model.ConsentState, error)
}

type AuthorizationService struct {
	consents StatusReader
	logger   *zap.Logger
}

func NewAuthorizationService(consents StatusReader, logger *zap.Logger) *AuthorizationService {
	return &AuthorizationService{consents: consents, logger: logger}
}

// CanDisclose решает, можно ли показать документ запрашивающему
func (s *AuthorizationService) CanDisclose(ctx context.Context, doc *model.Document, requester Requester) (Decision, error) {
	d, err := s.decide(ctx, doc, requester)
	if err != nil {
		return Decision{}, err
	}

	metrics.Decisions.WithLabelValues(d.Reason).Inc()
	s.logger.Debug("Disclosure decision",
		zap.String("document_id", doc.ID.String()),
		zap.String("requester_group", requester.Group),
		zap.Bool("allowed", d.Allowed),
		zap.String("reason", d.Reason))
	return d, nil
}

func (s *AuthorizationService) decide(ctx context.Context, doc *model.Document, requester Requester) (Decision, error) {
	if requester.Group == "" {
		if doc.IsOwnedBy(requester.StudentID) {
			return Decision{Allowed: true, Reason: ReasonOwner}, nil
		}
		return Decision{Allowed: false, Reason: ReasonNotOwner}, nil
	}

	if !doc.IsSharedWith(requester.Group) {
		return Decision{Allowed: false, Reason: ReasonNotShared}, nil
	}

	state, err := s.consents.ReadStatus(ctx, model.NewConsentKey(doc.StudentID, requester.Group, doc.DataGroup))
	if err != nil {
		return Decision{}, err
	}
	if !state.Status.IsGranted() {
		return Decision{Allowed: false, Reason: ReasonConsentNotGranted, Status: state.Status}, nil
	}

	return Decision{Allowed: true, Reason: ReasonGranted, Status: state.Status}, nil
}
