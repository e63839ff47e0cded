package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"laptoprag/internal/domain"
)

func TestComposeQuery_EmptyHistory(t *testing.T) {
	prompt := "ايه احسن لابتوب للالعاب تحت 20000 جنيه"
	assert.Equal(t, prompt, ComposeQuery(nil, prompt, 1))
}

func TestComposeQuery_UsesLastUserTurns(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "answer one"},
		{Role: domain.RoleUser, Content: "second"},
		{Role: domain.RoleAssistant, Content: "answer two"},
	}

	assert.Equal(t, "second new", ComposeQuery(history, "new", 1))
	assert.Equal(t, "first second new", ComposeQuery(history, "new", 2))
	assert.Equal(t, "first second new", ComposeQuery(history, "new", 5))
	assert.Equal(t, "second new", ComposeQuery(history, "new", 0))
}

func TestComposeQuery_IgnoresAssistantTurns(t *testing.T) {
	history := []domain.Turn{{Role: domain.RoleAssistant, Content: "hello"}}
	assert.Equal(t, "new", ComposeQuery(history, "new", 3))
}

func TestComposeQuery_MessageIsLastSegment(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "gaming laptop"},
		{Role: domain.RoleUser, Content: "under 30000"},
	}
	for _, msg := range []string{"", "hp", "عايز ديل", "two words"} {
		got := ComposeQuery(history, msg, 2)
		assert.True(t, strings.HasSuffix(got, msg), "got %q", got)
	}
}
