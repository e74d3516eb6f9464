package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessRequest represents a requester group's request for a student's data group
type AccessRequest struct {
	ID                  uuid.UUID  `json:"id"`
	StudentID           string     `json:"studentId"`
	RequesterGroup      string     `json:"requesterGroup"`
	DataGroup           string     `json:"dataGroup"`
	Purpose             string     `json:"purpose"`
	Status              string     `json:"status"` // 'pending', 'approved', 'rejected'
	ApprovedTxID        string     `json:"approvedTxId,omitempty"`
	ApprovedReturnValue string     `json:"approvedReturnValue,omitempty"`
	RejectReason        string     `json:"rejectReason,omitempty"`
	ClaimToken          *uuid.UUID `json:"-"`
	ClaimedAt           *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Request status constants
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// IsPending checks if request is pending
func (r *AccessRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsApproved checks if request is approved
func (r *AccessRequest) IsApproved() bool {
	return r.Status == RequestStatusApproved
}

// IsRejected checks if request is rejected
func (r *AccessRequest) IsRejected() bool {
	return r.Status == RequestStatusRejected
}

// IsClaimed checks if an approval is in flight and its claim is newer than staleBefore
func (r *AccessRequest) IsClaimed(staleBefore time.Time) bool {
	return r.ClaimToken != nil && r.ClaimedAt != nil && !r.ClaimedAt.Before(staleBefore)
}

// ConsentKey returns the ledger key an approval writes to
func (r *AccessRequest) ConsentKey() ConsentKey {
	return NewConsentKey(r.StudentID, r.RequesterGroup, r.DataGroup)
}
