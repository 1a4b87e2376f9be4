package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-generator/internal/models"
)

func TestMemoryDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocumentRepository()
	var _ DocumentRepository = repo

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Document{ID: "old", CreatedAt: base.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Document{ID: "new", CreatedAt: base}))

	doc, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, doc.Status)

	require.NoError(t, repo.UpdateStatus(ctx, "old", models.StatusDownloaded))
	doc, err = repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDownloaded, doc.Status)

	expired, err := repo.ListCreatedBefore(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)

	require.NoError(t, repo.Delete(ctx, "old"))
	_, err = repo.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "old"), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "old", models.StatusDownloaded), ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocumentRepository()
	require.NoError(t, repo.Create(ctx, &models.Document{ID: "a", Filename: "a.docx"}))

	doc, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	doc.Filename = "changed.docx"

	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.docx", again.Filename)
}

func TestMemoryListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocumentRepository()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{"Marketing", "Tech Consultation", "Marketing", "Marketing"} {
		require.NoError(t, repo.Create(ctx, &models.Document{
			ID:           string(rune('a' + i)),
			ProposalType: kind,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, total, err := repo.List(ctx, ListOptions{ProposalType: "Marketing", Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "d", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)

	docs, total, err = repo.List(ctx, ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)

	docs, _, err = repo.List(ctx, ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
