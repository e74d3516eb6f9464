// Package memory keeps every store in process memory, for STORE=memory and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

type AccessRequestRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.AccessRequest
}

func NewAccessRequestRepository() *AccessRequestRepository {
	return &AccessRequestRepository{items: make(map[uuid.UUID]*model.AccessRequest)}
}

func (r *AccessRequestRepository) Create(ctx context.Context, req *model.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.items[req.ID] = cloneRequest(req)
	return nil
}

func (r *AccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneRequest(req), nil
}

func (r *AccessRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.AccessRequest, error) {
	return r.list(func(req *model.AccessRequest) bool { return req.StudentID == studentID }), nil
}

func (r *AccessRequestRepository) ListByRequesterGroup(ctx context.Context, group string) ([]*model.AccessRequest, error) {
	return r.list(func(req *model.AccessRequest) bool { return req.RequesterGroup == group }), nil
}

func (r *AccessRequestRepository) ClaimForApproval(ctx context.Context, id, token uuid.UUID, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if !ok || !req.IsPending() || req.IsClaimed(staleBefore) {
		return false, nil
	}
	now := time.Now()
	tok := token
	req.ClaimToken = &tok
	req.ClaimedAt = &now
	return true, nil
}

func (r *AccessRequestRepository) ReleaseClaim(ctx context.Context, id, token uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if ok && req.ClaimToken != nil && *req.ClaimToken == token {
		req.ClaimToken = nil
		req.ClaimedAt = nil
	}
	return nil
}

func (r *AccessRequestRepository) CompleteApproval(ctx context.Context, id, token uuid.UUID, txID, returnValue string) (*model.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if !ok || !req.IsPending() || req.ClaimToken == nil || *req.ClaimToken != token {
		return nil, nil
	}
	req.Status = model.RequestStatusApproved
	req.ApprovedTxID = txID
	req.ApprovedReturnValue = returnValue
	req.ClaimToken = nil
	req.ClaimedAt = nil
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (r *AccessRequestRepository) Reject(ctx context.Context, id uuid.UUID, reason string, staleBefore time.Time) (*model.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[id]
	if !ok || !req.IsPending() || req.IsClaimed(staleBefore) {
		return nil, nil
	}
	req.Status = model.RequestStatusRejected
	req.RejectReason = reason
	req.ClaimToken = nil
	req.ClaimedAt = nil
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (r *AccessRequestRepository) ReleaseStaleClaims(ctx context.Context, staleBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, req := range r.items {
		if req.ClaimToken != nil && req.ClaimedAt != nil && req.ClaimedAt.Before(staleBefore) {
			req.ClaimToken = nil
			req.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (r *AccessRequestRepository) list(match func(*model.AccessRequest) bool) []*model.AccessRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.AccessRequest, 0)
	for _, req := range r.items {
		if match(req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneRequest(req *model.AccessRequest) *model.AccessRequest {
	c := *req
	if req.ClaimToken != nil {
		tok := *req.ClaimToken
		c.ClaimToken = &tok
	}
	if req.ClaimedAt != nil {
		at := *req.ClaimedAt
		c.ClaimedAt = &at
	}
	return &c
}
