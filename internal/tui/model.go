package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"laptoprag/internal/domain"
	"laptoprag/internal/service"
)

// ChatPort is the TUI-facing subset of the chat API.
type ChatPort interface {
	Ask(ctx context.Context, prompt string) (*service.ChatResponse, error)
	Seed(ctx context.Context) (string, error)
	SessionID() string
}

type answerMsg struct {
	resp *service.ChatResponse
	err  error
}

type seedMsg struct {
	message string
	err     error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	chat      ChatPort
	input     textinput.Model
	viewport  viewport.Model
	history   []domain.Turn
	documents []domain.RetrievedDocument
	status    string
	cursor    int
	showDocs  bool
	waiting   bool
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(chat ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "اكتب سؤالك واضغط Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		chat:     chat,
		input:    ti,
		viewport: vp,
		status:   "Session " + chat.SessionID() + ". Tab: listings, Ctrl+S: seed catalog.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(prompt string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.chat.Ask(context.Background(), prompt)
		return answerMsg{resp: resp, err: err}
	}
}

func (m Model) seed() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.chat.Seed(context.Background())
		return seedMsg{message: msg, err: err}
	}
}

// Update handles key, window and API events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = msg.resp.History
			m.documents = msg.resp.Documents
			m.cursor = 0
			m.status = fmt.Sprintf("%d listings matched %q", len(m.documents), m.lastQuery)
		}
		m.refresh()
		return m, nil
	case seedMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Seeding failed: " + msg.err.Error()
		} else {
			m.status = msg.message
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.lastQuery = q
				m.input.SetValue("")
				m.status = "Thinking..."
				return m, m.ask(q)
			}
		case "ctrl+s":
			if !m.waiting {
				m.waiting = true
				m.status = "Seeding catalog..."
				return m, m.seed()
			}
		case "tab":
			m.showDocs = !m.showDocs
			m.refresh()
			return m, nil
		case "down":
			if m.showDocs && len(m.documents) > 0 {
				m.cursor = (m.cursor + 1) % len(m.documents)
				m.refresh()
				return m, nil
			}
		case "up":
			if m.showDocs && len(m.documents) > 0 {
				m.cursor = (m.cursor - 1 + len(m.documents)) % len(m.documents)
				m.refresh()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := "Laptop Chat"
	if m.showDocs {
		title += "  (listings)"
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := bodyBoxStyle.Render(m.viewport.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	if m.showDocs {
		m.viewport.SetContent(m.renderCurrentDocument())
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, t := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.Role == domain.RoleUser {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(assistantStyle.Render("Assistant: "))
		}
		b.WriteString(t.Content)
	}
	return b.String()
}

func (m Model) renderCurrentDocument() string {
	if len(m.documents) == 0 {
		return "No listings yet."
	}
	d := m.documents[m.cursor]
	title := fmt.Sprintf("Listing %d/%d  score=%.3f", m.cursor+1, len(m.documents), d.Score)
	return title + "\n\n" + highlightBestLine(d.Content, m.lastQuery)
}

var (
	bodyBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// highlightBestLine emphasizes the listing field sharing the most words with the query.
func highlightBestLine(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	bestIdx := -1
	bestScore := 0
	for i, l := range lines {
		if score := tokenOverlapScore(qTokens, l); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		lines[bestIdx] = highlightStyle.Render(lines[bestIdx])
	}
	return strings.Join(lines, "\n")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, line string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(line), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
