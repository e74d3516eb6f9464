package model

import (
	"time"

	"github.com/google/uuid"
)

// RequesterIdentity is a member of a student's request group
type RequesterIdentity struct {
	ID                     uuid.UUID `json:"id"`
	StudentID              string    `json:"studentId"`
	RequestGroupName       string    `json:"requestGroupName"`
	RequestGroupNormalized string    `json:"-"`
	DisplayName            string    `json:"displayName"`
	Email                  string    `json:"email"`
	WalletAddress          string    `json:"walletAddress"`
	Organization           string    `json:"organization"`
	Status                 string    `json:"status"` // 'active', 'inactive'
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Requester status constants
const (
	RequesterStatusActive   = "active"
	RequesterStatusInactive = "inactive"
)

// IsActive checks if requester is active
func (r *RequesterIdentity) IsActive() bool {
	return r.Status == RequesterStatusActive
}

// ValidRequesterStatus checks a status value
func ValidRequesterStatus(status string) bool {
	return status == RequesterStatusActive || status == RequesterStatusInactive
}
