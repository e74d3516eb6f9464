package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

type RequesterRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.RequesterIdentity
}

func NewRequesterRepository() *RequesterRepository {
	return &RequesterRepository{items: make(map[uuid.UUID]*model.RequesterIdentity)}
}

func (r *RequesterRepository) Create(ctx context.Context, m *model.RequesterIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	c := *m
	r.items[m.ID] = &c
	return nil
}

func (r *RequesterRepository) ListByGroup(ctx context.Context, studentID, normalizedGroup string) ([]*model.RequesterIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.RequesterIdentity, 0)
	for _, m := range r.items {
		if m.StudentID == studentID && m.RequestGroupNormalized == normalizedGroup {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *RequesterRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.RequesterIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	m.Status = status
	m.UpdatedAt = time.Now()
	c := *m
	return &c, nil
}

func (r *RequesterRepository) CountActiveByGroup(ctx context.Context, studentID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, m := range r.items {
		if m.StudentID == studentID && m.IsActive() {
			counts[m.RequestGroupNormalized]++
		}
	}
	return counts, nil
}
