package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptoprag/internal/domain"
)

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, PointID("abc"), PointID("abc"))
	assert.NotEqual(t, PointID("abc"), PointID("abd"))
}

func TestInit_CreatesMissingCollection(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/laptops", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("api-key"))
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var body map[string]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(768), body["vectors"]["size"])
			created = true
		}
	}))
	defer server.Close()

	s := NewStorage(Config{URL: server.URL, APIKey: "k", Collection: "laptops"})
	require.NoError(t, s.Init(context.Background(), 768))
	assert.True(t, created)
}

func TestInit_ExistingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s", r.Method)
		}
	}))
	defer server.Close()

	require.NoError(t, NewStorage(Config{URL: server.URL, Collection: "laptops"}).Init(context.Background(), 3))
}

func TestUpsertAndSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/laptops/points":
			var body struct {
				Points []struct {
					ID      string         `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Points, 1)
			assert.Equal(t, PointID("id-1"), body.Points[0].ID)
			assert.Equal(t, "id-1", body.Points[0].Payload["source_id"])
		case "/collections/laptops/points/search":
			_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"content":"Dell","metadata":{"id":"id-1","name_en":"Dell","price":25000,"in_stock":0}}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	s := NewStorage(Config{URL: server.URL, Collection: "laptops"})
	require.NoError(t, s.Upsert(ctx, []domain.Record{{ID: "id-1", Content: "Dell", Vector: []float64{1}}}))

	res, err := s.Search(ctx, []float64{1}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Dell", res[0].Content)
	assert.Equal(t, 0.9, res[0].Score)
	assert.Equal(t, 25000.0, res[0].Metadata.Price)
	assert.Equal(t, domain.OutOfStock, res[0].Metadata.InStock)
}
