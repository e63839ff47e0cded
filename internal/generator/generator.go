// Package generator produces the sales assistant's answer from retrieved listings.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"laptoprag/internal/domain"
)

// Observer receives the duration of the completion call.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
}

type Generator struct {
	llm       domain.Completer
	maxTokens int
	observer  Observer
	logger    *slog.Logger
}

func New(llm domain.Completer, maxTokens int, observer Observer, logger *slog.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, maxTokens: maxTokens, observer: observer, logger: logger}
}

// Generate asks the model for an answer to question given the prior
// conversation and the retrieved listings. Failures are domain.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, history []domain.Turn, question string, docs []domain.RetrievedDocument) (string, error) {
	human := RenderHumanPrompt(history, question, docs)

	start := time.Now()
	answer, err := g.llm.Complete(ctx, systemPrompt, human, g.maxTokens)
	if g.observer != nil {
		g.observer.ObserveStage("generate", time.Since(start))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrGeneration)
	}

	g.logger.Debug("answer generated",
		"documents", len(docs),
		"history_turns", len(history),
		"answer_len", len(answer),
	)
	return answer, nil
}

// SystemPrompt returns the fixed instruction block sent with every request.
func SystemPrompt() string { return systemPrompt }

// RenderHumanPrompt fills the human prompt with history, question and context.
func RenderHumanPrompt(history []domain.Turn, question string, docs []domain.RetrievedDocument) string {
	return fmt.Sprintf(humanPromptTemplate, HistoryText(history), question, ContextText(docs))
}

// HistoryText renders turns as "role: content" lines.
func HistoryText(history []domain.Turn) string {
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = string(t.Role) + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}

// ContextText stuffs the documents' content into one block, separated by blank lines.
func ContextText(docs []domain.RetrievedDocument) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}
