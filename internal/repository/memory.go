package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"proposal-generator/internal/models"
)

// MemoryDocumentRepository is used when no database is configured and in tests.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]models.Document
	now  func() time.Time
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		docs: make(map[string]models.Document),
		now:  time.Now,
	}
}

func (r *MemoryDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = models.StatusCompleted
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryDocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (r *MemoryDocumentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = r.now()
	r.docs[id] = doc
	return nil
}

func (r *MemoryDocumentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *MemoryDocumentRepository) List(ctx context.Context, opts ListOptions) ([]models.Document, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Document
	for _, doc := range r.docs {
		if opts.ProposalType == "" || doc.ProposalType == opts.ProposalType {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []models.Document{}, total, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (r *MemoryDocumentRepository) ListCreatedBefore(ctx context.Context, before time.Time) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Document
	for _, doc := range r.docs {
		if doc.CreatedAt.Before(before) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
