// Package service drives the chat pipeline and the catalog seeding.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"laptoprag/internal/conversation"
	"laptoprag/internal/domain"
	"laptoprag/internal/events"
	"laptoprag/internal/retrieval"
)

// Retriever returns the ranked in-stock listings for a composed query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error)
}

// Generator produces the assistant's answer.
type Generator interface {
	Generate(ctx context.Context, history []domain.Turn, question string, docs []domain.RetrievedDocument) (string, error)
}

// Publisher announces completed work. A nil Publisher disables events.
type Publisher interface {
	Publish(event string, data any) error
}

// Options tunes the pipeline. Zero values select the defaults.
type Options struct {
	HistoryPrompts int
	TopK           int
	SeedBatchSize  int
	SeedBatchDelay time.Duration
}

const (
	DefaultSeedBatchSize  = 20
	DefaultSeedBatchDelay = 500 * time.Millisecond
)

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	UserPrompt string `json:"userPrompt"`
	SessionID  string `json:"sessionId"`
}

// ChatResponse is returned on success. Results carries the generated answer.
type ChatResponse struct {
	Documents []domain.RetrievedDocument `json:"documents"`
	Question  string                     `json:"question"`
	Results   string                     `json:"results"`
	History   []domain.Turn              `json:"history"`
}

type RAGServiceImpl struct {
	retriever     Retriever
	generator     Generator
	conversations *conversation.Store
	embedder      domain.Embedder
	index         domain.VectorIndex
	catalog       domain.Catalog
	publisher     Publisher
	opts          Options
	logger        *slog.Logger
}

func NewRAGService(
	retriever Retriever,
	generator Generator,
	conversations *conversation.Store,
	embedder domain.Embedder,
	index domain.VectorIndex,
	catalog domain.Catalog,
	publisher Publisher,
	opts Options,
	logger *slog.Logger,
) *RAGServiceImpl {
	if opts.HistoryPrompts <= 0 {
		opts.HistoryPrompts = retrieval.DefaultHistoryPrompts
	}
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.SeedBatchSize <= 0 {
		opts.SeedBatchSize = DefaultSeedBatchSize
	}
	if opts.SeedBatchDelay < 0 {
		opts.SeedBatchDelay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGServiceImpl{
		retriever:     retriever,
		generator:     generator,
		conversations: conversations,
		embedder:      embedder,
		index:         index,
		catalog:       catalog,
		publisher:     publisher,
		opts:          opts,
		logger:        logger,
	}
}

// Sessions returns the number of sessions with stored history.
func (s *RAGServiceImpl) Sessions() int { return s.conversations.Len() }

// Chat answers one user message. History is only updated when every step
// succeeds; a failure leaves the session untouched.
func (s *RAGServiceImpl) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	prompt := req.UserPrompt
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: userPrompt is required", domain.ErrRequestParse)
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", domain.ErrRequestParse)
	}

	history := s.conversations.Get(req.SessionID)
	query := retrieval.ComposeQuery(history, prompt, s.opts.HistoryPrompts)

	docs, err := s.retriever.Retrieve(ctx, query, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	answer, err := s.generator.Generate(ctx, history, prompt, docs)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	updated := s.conversations.Append(req.SessionID,
		domain.Turn{Role: domain.RoleUser, Content: prompt},
		domain.Turn{Role: domain.RoleAssistant, Content: answer},
	)

	s.logger.Info("chat answered",
		"session_id", req.SessionID,
		"query_len", len(query),
		"documents", len(docs),
		"history_turns", len(updated),
	)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.Metadata.ID
	}
	s.publish(events.EventChatAnswered, events.ChatAnswered{
		SessionID:  req.SessionID,
		Question:   prompt,
		Answer:     answer,
		ListingIDs: ids,
		Timestamp:  time.Now().UTC(),
	})

	if docs == nil {
		docs = []domain.RetrievedDocument{}
	}
	return &ChatResponse{Documents: docs, Question: prompt, Results: answer, History: updated}, nil
}

func (s *RAGServiceImpl) publish(event string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event, data); err != nil {
		s.logger.Warn("failed to publish event", "event", event, "error", err)
	}
}
