package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studentia/internal/model"
)

type DocumentRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{items: make(map[uuid.UUID]*model.Document)}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.SharedWith == nil {
		doc.SharedWith = []string{}
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	r.items[doc.ID] = cloneDocument(doc, true)
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc, true), nil
}

func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Document, 0)
	for _, doc := range r.items {
		if doc.StudentID == studentID {
			out = append(out, cloneDocument(doc, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *DocumentRepository) AddSharedWith(ctx context.Context, id uuid.UUID, group string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	if !slices.Contains(doc.SharedWith, group) {
		doc.SharedWith = append(doc.SharedWith, group)
		doc.UpdatedAt = time.Now()
	}
	return slices.Clone(doc.SharedWith), nil
}

func cloneDocument(doc *model.Document, withPayload bool) *model.Document {
	c := *doc
	c.SharedWith = slices.Clone(doc.SharedWith)
	if c.SharedWith == nil {
		c.SharedWith = []string{}
	}
	c.Payload = model.Payload{}
	if withPayload {
		c.Payload.Plain = slices.Clone(doc.Payload.Plain)
		if env := doc.Payload.Envelope; env != nil {
			c.Payload.Envelope = &model.Envelope{
				IV:         slices.Clone(env.IV),
				Tag:        slices.Clone(env.Tag),
				Ciphertext: slices.Clone(env.Ciphertext),
			}
		}
	}
	return &c
}
