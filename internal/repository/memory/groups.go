package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

type groupKey struct {
	studentID  string
	normalized string
}

// GroupRepository хранит группы одного вида (данные или запросы)
type GroupRepository struct {
	mu    sync.Mutex
	items map[groupKey]*model.Group
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{items: make(map[groupKey]*model.Group)}
}

func (r *GroupRepository) Upsert(ctx context.Context, g *model.Group) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := groupKey{studentID: g.StudentID, normalized: g.NormalizedName}
	if existing, ok := r.items[key]; ok {
		return cloneGroup(existing), nil
	}

	stored := cloneGroup(g)
	stored.ID = uuid.NewString()
	stored.IsCustom = true
	now := time.Now()
	stored.CreatedAt = &now
	r.items[key] = stored
	return cloneGroup(stored), nil
}

func (r *GroupRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Group, 0)
	for key, g := range r.items {
		if key.studentID == studentID {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(*out[j].CreatedAt) })
	return out, nil
}

func (r *GroupRepository) GetByNormalizedName(ctx context.Context, studentID, normalized string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[groupKey{studentID: studentID, normalized: normalized}]
	if !ok {
		return nil, nil
	}
	return cloneGroup(g), nil
}

func cloneGroup(g *model.Group) *model.Group {
	c := *g
	if g.CreatedAt != nil {
		at := *g.CreatedAt
		c.CreatedAt = &at
	}
	c.MemberCount = nil
	return &c
}
