package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"laptoprag/internal/domain"
)

// Storage keeps listing vectors in PostgreSQL using the pgvector extension.
type Storage struct {
	pool  *pgxpool.Pool
	table string
}

func New(ctx context.Context, databaseURL, table string) (*Storage, error) {
	if table == "" {
		table = "laptop_listings"
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Storage{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

// Init creates the extension and table. The dimension is fixed at creation time.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, s.table, dimension),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4::vector, now())
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding, updated_at = now()`, s.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		md, err := json.Marshal(r.Metadata.Map())
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		batch.Queue(query, r.ID, r.Content, md, Literal(r.Vector))
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert listing: %w", err)
		}
	}
	return nil
}

// Search ranks rows by cosine distance; the returned score is cosine similarity.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.RetrievedDocument, error) {
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM %s ORDER BY embedding <=> $1::vector LIMIT $2`, s.table),
		Literal(vector), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedDocument, 0, topK)
	for rows.Next() {
		var (
			doc domain.RetrievedDocument
			raw []byte
		)
		if err := rows.Scan(&doc.Content, &raw, &doc.Score); err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		// Distance to a zero-norm vector is NaN.
		if math.IsNaN(doc.Score) {
			continue
		}
		var md map[string]any
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		doc.Metadata = domain.MetadataFromMap(md)
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}
	return results, nil
}

// Literal formats a float64 slice as a pgvector text literal, e.g. "[0.1,0.2,0.3]".
func Literal(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
