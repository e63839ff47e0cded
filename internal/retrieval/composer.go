package retrieval

import (
	"strings"

	"laptoprag/internal/domain"
)

// DefaultHistoryPrompts is how many earlier user messages feed the search query.
const DefaultHistoryPrompts = 1

// ComposeQuery joins the last maxPrompts user messages of history with the new
// message, separated by single spaces. The new message is always last, so an
// empty history yields the message unchanged.
func ComposeQuery(history []domain.Turn, message string, maxPrompts int) string {
	if maxPrompts <= 0 {
		maxPrompts = DefaultHistoryPrompts
	}
	var recent []string
	for i := len(history) - 1; i >= 0 && len(recent) < maxPrompts; i-- {
		if history[i].Role == domain.RoleUser {
			recent = append(recent, history[i].Content)
		}
	}
	parts := make([]string, 0, len(recent)+1)
	for i := len(recent) - 1; i >= 0; i-- {
		parts = append(parts, recent[i])
	}
	parts = append(parts, message)
	return strings.Join(parts, " ")
}
