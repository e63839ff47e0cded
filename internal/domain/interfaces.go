package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorIndex persists listing vectors and supports similarity search.
type VectorIndex interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float64, topK int) ([]RetrievedDocument, error)
}

// Completer produces a chat completion from a system and a human prompt.
type Completer interface {
	Complete(ctx context.Context, system, human string, maxOutputTokens int) (string, error)
}

// Catalog is the read-only source of listing records used for seeding.
type Catalog interface {
	Listings(ctx context.Context) ([]Metadata, error)
}
