//go:build integration

package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptoprag/internal/domain"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	table := "listings_test_" + uuid.NewString()[:8]
	s, err := New(ctx, dbURL, table)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+s.table)
		s.Close()
	})
	require.NoError(t, s.Init(ctx, 2))
	return s
}

func TestIntegration_UpsertIsIdempotent(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	recs := []domain.Record{
		{ID: "a", Content: "Lenovo", Metadata: domain.Metadata{ID: "a", InStock: domain.InStock}, Vector: []float64{1, 0}},
		{ID: "b", Content: "Dell", Metadata: domain.Metadata{ID: "b", InStock: domain.OutOfStock}, Vector: []float64{0, 1}},
	}
	require.NoError(t, s.Upsert(ctx, recs))
	require.NoError(t, s.Upsert(ctx, recs))

	res, err := s.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Lenovo", res[0].Content)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, domain.OutOfStock, res[1].Metadata.InStock)
}

func TestIntegration_ZeroVectorQuerySkipsNaNScores(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a", Content: "Lenovo", Metadata: domain.Metadata{ID: "a", InStock: domain.InStock}, Vector: []float64{1, 0}},
	}))

	res, err := s.Search(ctx, []float64{0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}
