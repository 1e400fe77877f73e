package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/jask/carton/internal/config"
	"github.com/jask/carton/internal/database"
	"github.com/jask/carton/internal/provider"
	"github.com/jask/carton/internal/secrets"
	"github.com/jask/carton/internal/service"
	"github.com/jask/carton/internal/tasks"
	"github.com/jask/carton/internal/tui"
)

var version = "dev"

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("flags: %v", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Version {
		fmt.Printf("carton %s\n", version)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.SaveConfig {
		if err := config.Save(cfg, cfg.Runtime.ConfigPath); err != nil {
			log.Fatalf("save config: %v", err)
		}
		fmt.Printf("config written to %s\n", cfg.Runtime.ConfigPath)
		return
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		log.Fatal("carton needs an interactive terminal")
	}

	logger, logFile, err := openLog(cfg)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("exit", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logFile.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	platform := cfg.Platform()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	db, err := database.OpenSession(cfg.Session.JournalDSN)
	if err != nil {
		return fmt.Errorf("open session journal: %w", err)
	}
	defer db.Close()
	journal := service.NewJournal(db, logger, cfg.Session.JournalKeep)

	queue := tasks.NewQueue(&tasks.Runner{
		Client:   client,
		Provider: platform.DisplayName(),
		Defaults: tasks.CreateDefaults{
			ServerType: cfg.Create.ServerType,
			Image:      cfg.Create.Image,
			Location:   cfg.Create.Location,
			EnableIPv4: cfg.Create.EnableIPv4,
		},
		Logger: logger,
	}, tasks.WithLogger(logger), tasks.WithObserver(journal))

	app := tui.New(queue, tui.Options{
		Provider:     platform.DisplayName(),
		TickInterval: cfg.UI.TickInterval,
		NoticeTicks:  cfg.UI.NoticeTicks,
		ServerTypes:  cfg.Create.ServerTypes,
		Draft:        tui.Draft{Type: cfg.Create.ServerType, Image: cfg.Create.Image},
		Logger:       logger,
	})
	defer app.Close()

	logger.Info("starting", "version", version, "provider", platform, "mock", cfg.Runtime.Mock)
	start := time.Now()
	_, runErr := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()

	logger.Info("stopping", "unfinished_tasks", queue.Pending())
	queue.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	journal.LogSummary(ctx)
	logger.Info("stopped", "uptime", time.Since(start).Round(time.Second))

	if runErr != nil {
		return fmt.Errorf("ui: %w", runErr)
	}
	return nil
}

func newClient(cfg config.Config, logger *slog.Logger) (provider.Client, error) {
	if cfg.Runtime.Mock {
		logger.Info("using demo provider")
		return provider.NewDemoMock(), nil
	}

	store, err := secrets.Default()
	if err != nil {
		logger.Warn("secret store unavailable", "err", err)
	}
	token := resolveToken(cfg, store)
	if token == "" {
		return nil, fmt.Errorf("no API token: pass --token, set %s or store one with --store-token", cfg.Provider.TokenEnv)
	}
	if cfg.Runtime.StoreToken && store != nil {
		if err := store.Save(string(cfg.Platform()), token); err != nil {
			return nil, fmt.Errorf("store token: %w", err)
		}
		logger.Info("token stored", "provider", cfg.Platform())
	}

	client, err := provider.New(cfg.Platform(), token)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	return client, nil
}

// resolveToken prefers the flag/config value, then the env var named by
// token_env, then the secret store.
func resolveToken(cfg config.Config, store *secrets.Store) string {
	if t := strings.TrimSpace(cfg.Provider.Token); t != "" {
		return t
	}
	if env := strings.TrimSpace(cfg.Provider.TokenEnv); env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if store != nil {
		if t, err := store.Fetch(string(cfg.Platform())); err == nil {
			return t
		}
	}
	return ""
}

func openLog(cfg config.Config) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level())); err != nil {
		level = slog.LevelInfo
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}
