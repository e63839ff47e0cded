// Package retrieval turns a chat message into a ranked set of in-stock listings.
package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"laptoprag/internal/domain"
)

// DefaultTopK is the number of listings returned when the caller asks for none.
const DefaultTopK = 10

// StageObserver receives the duration of each remote call made by the engine.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	// TopK is the number of documents returned.
	TopK int
	// Candidates is the size of the first nearest-neighbor search; 2*TopK by default.
	Candidates int
}

// Engine embeds a query, searches the vector index and merges the hits.
type Engine struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	opts     Options
	observer StageObserver
	logger   *slog.Logger
}

func NewEngine(embedder domain.Embedder, index domain.VectorIndex, opts Options, observer StageObserver, logger *slog.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Candidates <= 0 {
		opts.Candidates = 2 * opts.TopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{embedder: embedder, index: index, opts: opts, observer: observer, logger: logger}
}

// TopK returns the configured result size.
func (e *Engine) TopK() int { return e.opts.TopK }

// Retrieve returns up to k unique in-stock documents ordered by descending
// score. k <= 0 selects the configured TopK. An empty index yields an empty
// result; any embedding or search failure fails the whole call.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		k = e.opts.TopK
	}
	candidates := e.opts.Candidates
	if candidates < k {
		candidates = k
	}

	start := time.Now()
	vec, err := e.embedder.Embed(ctx, query)
	e.observe("embed", start)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", wrapKind(err, domain.ErrEmbedding))
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty vector", domain.ErrEmbedding)
	}
	// A zero vector (no known terms) is equally far from every listing.
	if isZero(vec) {
		e.logger.Debug("query has no known terms", "query_len", len(query))
		return []domain.RetrievedDocument{}, nil
	}

	docs, err := e.search(ctx, vec, candidates)
	if err != nil {
		return nil, err
	}
	docs = InStock(docs)

	// One widening pass when too few listings survived the stock filter.
	// It does not promise to reach k.
	if len(docs) < k {
		more, err := e.search(ctx, vec, 2*candidates)
		if err != nil {
			return nil, err
		}
		docs = append(docs, InStock(more)...)
		e.logger.Debug("widened retrieval", "wanted", k, "candidates", 2*candidates, "found", len(docs))
	}

	return Merge(docs, k), nil
}

func (e *Engine) search(ctx context.Context, vec []float64, n int) ([]domain.RetrievedDocument, error) {
	start := time.Now()
	docs, err := e.index.Search(ctx, vec, n)
	e.observe("search", start)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", wrapKind(err, domain.ErrRetrieval))
	}
	return docs, nil
}

func (e *Engine) observe(stage string, start time.Time) {
	if e.observer != nil {
		e.observer.ObserveStage(stage, time.Since(start))
	}
}

// InStock drops documents explicitly flagged as out of stock.
func InStock(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	out := make([]domain.RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		if d.Metadata.InStock.Available() {
			out = append(out, d)
		}
	}
	return out
}

type docKey struct {
	content  string
	metadata domain.Metadata
}

// Merge removes duplicate (content, metadata) pairs keeping the first
// occurrence, stable-sorts by descending score and truncates to k.
func Merge(docs []domain.RetrievedDocument, k int) []domain.RetrievedDocument {
	seen := make(map[docKey]struct{}, len(docs))
	out := make([]domain.RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		key := docKey{content: d.Content, metadata: d.Metadata}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b domain.RetrievedDocument) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func wrapKind(err, kind error) error {
	if domain.Kind(err) != "unknown" {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
