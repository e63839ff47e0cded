package pinecone

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

func TestUpsertAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pc-key", r.Header.Get("Api-Key"))
		switch r.URL.Path {
		case "/vectors/upsert":
			var body struct {
				Namespace string `json:"namespace"`
				Vectors   []struct {
					ID       string         `json:"id"`
					Metadata map[string]any `json:"metadata"`
				} `json:"vectors"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "laptops", body.Namespace)
			require.Len(t, body.Vectors, 1)
			assert.Equal(t, "HP Victus", body.Vectors[0].Metadata["text"])
		case "/query":
			_, _ = w.Write([]byte(`{"matches":[{"id":"hp","score":0.77,"metadata":{"text":"HP Victus","name_en":"HP Victus","in_stock":true}}]}`))
		}
	}))
	defer server.Close()

	t.Setenv("PC_KEY", "pc-key")
	s, err := NewStorage(Config{Host: server.URL, APIKeyEnv: "PC_KEY", Namespace: "laptops"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{{ID: "hp", Content: "HP Victus", Vector: []float64{0.1}}}))

	res, err := s.Search(ctx, []float64{0.1}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "HP Victus", res[0].Content)
	assert.Equal(t, "hp", res[0].Metadata.ID)
	assert.Equal(t, domain.InStock, res[0].Metadata.InStock)
	assert.Equal(t, 0.77, res[0].Score)
}

func TestQuery_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Setenv("PC_KEY", "pc-key")
	s, err := NewStorage(Config{Host: server.URL, APIKeyEnv: "PC_KEY"})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), []float64{1}, 1)
	assert.Error(t, err)
}
