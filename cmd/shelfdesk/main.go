package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shelfdesk/shelfdesk/internal/api"
	"github.com/shelfdesk/shelfdesk/internal/catalog"
	"github.com/shelfdesk/shelfdesk/internal/config"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/log"
	"github.com/shelfdesk/shelfdesk/internal/session"
	"github.com/shelfdesk/shelfdesk/internal/store"
	"github.com/shelfdesk/shelfdesk/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var apiURL string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&apiURL, "api", "", "remote catalog API base URL (persisted)")
	flag.Parse()

	if showVersion {
		fmt.Printf("shelfdesk %s\n", Version)
		return
	}

	if err := run(apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(apiURL string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting shelfdesk", "version", Version, "remote", cfg.HasRemote())

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("shelfdesk requires an interactive terminal")
	}

	st, err := store.Open(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	mode := catalog.NewMode(st, cfg.HasRemote(), logger)

	// The session manager and the API client reference each other: the
	// client sources bearer tokens from the manager, and the manager is
	// told about every 401 the client sees. Build the manager first and
	// attach the client afterwards.
	users := store.NewCollection(st, catalog.KeyUsers, "user", domain.SeedUsers, logger)
	sess := session.NewManager(st, users, mode, logger)

	var client *api.Client
	if cfg.HasRemote() {
		client = api.NewClient(cfg.API.BaseURL, sess, logger)
		sess.AttachClient(client)
	}

	cat := catalog.New(st, client, mode, logger)

	model := tui.NewModel(cat, sess, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
