package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptoprag/internal/domain"
)

func rec(id string, v ...float64) domain.Record {
	return domain.Record{ID: id, Content: "content " + id, Metadata: domain.Metadata{ID: id, InStock: domain.InStock}, Vector: v}
}

func TestSearch_OrdersByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a", 1, 0), rec("b", 0, 1), rec("c", 1, 1)}))

	res, err := s.Search(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Metadata.ID)
	assert.Equal(t, "c", res[1].Metadata.ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a", 1, 0), rec("b", 0, 1)}))
	updated := rec("a", 0, 1)
	updated.Content = "new"
	require.NoError(t, s.Upsert(ctx, []domain.Record{updated}))

	assert.Equal(t, []string{"a", "b"}, s.IDs())
	res, err := s.Search(ctx, []float64{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Equal(t, "new", res[0].Content)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 3))
	assert.Error(t, s.Upsert(ctx, []domain.Record{rec("a", 1, 0)}))
	assert.Error(t, s.Init(ctx, 2))
	assert.NoError(t, s.Init(ctx, 3))
}

func TestSearch_Empty(t *testing.T) {
	res, err := NewStorage().Search(context.Background(), []float64{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}
