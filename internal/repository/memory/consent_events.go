package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

type ConsentEventRepository struct {
	mu     sync.Mutex
	events []*model.ConsentEvent
}

func NewConsentEventRepository() *ConsentEventRepository {
	return &ConsentEventRepository{}
}

func (r *ConsentEventRepository) Append(ctx context.Context, e *model.ConsentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	c := *e
	r.events = append(r.events, &c)
	return nil
}

// ListByStudent возвращает события от новых к старым
func (r *ConsentEventRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.ConsentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.ConsentEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if e := r.events[i]; e.StudentID == studentID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// ListKeysByStudent возвращает пары в порядке первого появления
func (r *ConsentEventRepository) ListKeysByStudent(ctx context.Context, studentID string) ([]model.ConsentKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[model.ConsentKey]bool)
	out := make([]model.ConsentKey, 0)
	for _, e := range r.events {
		if e.StudentID != studentID {
			continue
		}
		k := e.Key()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}
