package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"laptoprag/internal/domain"
)

const (
	apiVersion = "2024-07"
	textKey    = "text"
)

// Storage talks to a Pinecone index data plane. Listing content is kept
// in the "text" metadata key next to the listing fields.
type Storage struct {
	host      string
	apiKey    string
	namespace string
	client    *http.Client
}

type Config struct {
	Host      string
	APIKeyEnv string
	Namespace string
	Timeout   time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone index host is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		host:      cfg.Host,
		apiKey:    key,
		namespace: cfg.Namespace,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Init is a no-op: Pinecone indexes are provisioned with a fixed dimension.
func (s *Storage) Init(context.Context, int) error { return nil }

func (s *Storage) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		md := r.Metadata.Map()
		md[textKey] = r.Content
		vectors[i] = map[string]any{
			"id":       r.ID,
			"values":   r.Vector,
			"metadata": md,
		}
	}
	body := map[string]any{"vectors": vectors, "namespace": s.namespace}
	return s.postJSON(ctx, "/vectors/upsert", body, nil)
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.RetrievedDocument, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"namespace":       s.namespace,
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.postJSON(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.RetrievedDocument, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		content, _ := m.Metadata[textKey].(string)
		delete(m.Metadata, textKey)
		md := domain.MetadataFromMap(m.Metadata)
		if md.ID == "" {
			md.ID = m.ID
		}
		results = append(results, domain.RetrievedDocument{Content: content, Metadata: md, Score: m.Score})
	}
	return results, nil
}

func (s *Storage) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone POST %s failed: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
