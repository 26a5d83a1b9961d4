package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"clipchat/internal/config"
	"clipchat/internal/logger"
	"clipchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, serverURL string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.StringVar(&serverURL, "server", "", "Server base URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}

	// the TUI owns the terminal, so log to file only
	zl := logger.NewFileOnly(cfg.Log.File)
	defer func() { _ = zl.Sync() }()

	m := tui.New(tui.NewClient(serverURL), zl)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
