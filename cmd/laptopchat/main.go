package main

import (
	"flag"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"laptoprag/internal/client"
	"laptoprag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	server := os.Getenv("LAPTOPRAG_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	var sessionID string
	var timeout time.Duration
	flag.StringVar(&server, "server", server, "Base URL of the laptoprag server")
	flag.StringVar(&sessionID, "session", "", "Session id to resume (a new one is generated if empty)")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout of a single request")
	flag.Parse()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m := tui.New(client.New(server, sessionID, timeout))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
