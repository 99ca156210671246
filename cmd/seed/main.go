package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"shareit/internal/clock"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/logging"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Fixtures describe demo data. Items and requests refer to users by email
// and items refer to requests by key.
type Fixtures struct {
	Users    []models.User    `yaml:"users"`
	Requests []requestFixture `yaml:"requests"`
	Items    []itemFixture    `yaml:"items"`
}

type requestFixture struct {
	Key         string `yaml:"key"`
	Requester   string `yaml:"requester"`
	Description string `yaml:"description"`
}

type itemFixture struct {
	Owner       string `yaml:"owner"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
	Request     string `yaml:"request"`
}

type seedStats struct {
	users, requests, items int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "configs/config.yaml", "path to config.yaml")
		fixturesPath = flag.String("fixtures", "configs/fixtures.yaml", "path to fixtures.yaml")
		dbPath       = flag.String("db", "", "path to sqlite db, overrides database.path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := baseLogger.With().Str("component", "seed").Logger()

	path := databasePath(cfg.Database, *dbPath)
	if path == "" {
		return fmt.Errorf("no sqlite database configured, set database.path or -db")
	}

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		return err
	}

	db, err := database.NewDB(path, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := seed(ctx, db, fixtures, &logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("db_path", path).
		Int("users", stats.users).
		Int("requests", stats.requests).
		Int("items", stats.items).
		Msg("seed completed")
	return nil
}

// databasePath prefers the -db flag. A memory driver has nothing to seed
// unless a path is given explicitly.
func databasePath(cfg config.DatabaseConfig, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if cfg.Driver == config.StorageMemory {
		return ""
	}
	return cfg.Path
}

func loadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f Fixtures
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("no users in fixtures")
	}
	return &f, nil
}

// seed goes through the services so fixtures obey the same rules as API calls.
func seed(ctx context.Context, repo domain.Repository, f *Fixtures, logger *zerolog.Logger) (seedStats, error) {
	var stats seedStats
	clk := clock.System{}
	users := service.NewUserService(repo, logger)
	items := service.NewItemService(repo, clk, logger)
	requests := service.NewRequestService(repo, clk, logger)

	byEmail := make(map[string]int64, len(f.Users))
	for i := range f.Users {
		u, err := users.AddUser(ctx, &models.User{Name: f.Users[i].Name, Email: f.Users[i].Email})
		if err != nil {
			return stats, fmt.Errorf("create user %s: %w", f.Users[i].Email, err)
		}
		byEmail[strings.ToLower(u.Email)] = u.ID
		stats.users++
	}

	lookup := func(email string) (int64, error) {
		id, ok := byEmail[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			return 0, fmt.Errorf("unknown user %q", email)
		}
		return id, nil
	}

	byKey := make(map[string]int64, len(f.Requests))
	for _, r := range f.Requests {
		requesterID, err := lookup(r.Requester)
		if err != nil {
			return stats, fmt.Errorf("request %s: %w", r.Key, err)
		}
		view, err := requests.AddRequest(ctx, requesterID, r.Description)
		if err != nil {
			return stats, fmt.Errorf("create request %s: %w", r.Key, err)
		}
		if r.Key != "" {
			byKey[r.Key] = view.ID
		}
		stats.requests++
	}

	for _, it := range f.Items {
		if it.Name == "" {
			continue
		}
		ownerID, err := lookup(it.Owner)
		if err != nil {
			return stats, fmt.Errorf("item %s: %w", it.Name, err)
		}
		item := &models.Item{Name: it.Name, Description: it.Description, Available: it.Available}
		if it.Request != "" {
			id, ok := byKey[it.Request]
			if !ok {
				return stats, fmt.Errorf("item %s: unknown request %q", it.Name, it.Request)
			}
			item.RequestID = &id
		}
		if _, err := items.AddItem(ctx, ownerID, item); err != nil {
			return stats, fmt.Errorf("create item %s: %w", it.Name, err)
		}
		stats.items++
	}

	return stats, nil
}
