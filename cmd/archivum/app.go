package main

import (
	"context"
	"fmt"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"archivum/internal/config"
	"archivum/internal/extract"
	"archivum/internal/graph/mirror"
	"archivum/internal/ingest"
	"archivum/internal/layout"
	"archivum/internal/llm"
	"archivum/internal/lock"
	"archivum/internal/logging"
	"archivum/internal/store"
	"archivum/internal/store/postgres"
	"archivum/internal/store/sqlite"
)

var rootOpts struct {
	configPath string
	logLevel   string
}

// app carries the loaded config and logger shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(rootOpts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if rootOpts.logLevel != "" {
		level = rootOpts.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	dsn := a.cfg.Database.DSN
	if a.cfg.Database.IsPostgres() {
		db, err := postgres.New(ctx, dsn, a.logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := sqlite.New(ctx, dsn, a.logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (a *app) vocabulary() (*config.Vocabulary, error) {
	return config.LoadVocabulary(a.cfg.Vocabulary.Path)
}

func (a *app) extractor(vocab *config.Vocabulary) (*extract.Client, error) {
	c := a.cfg.LLM
	factory, err := llm.NewFactory(llm.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("configuring llm: %w", err)
	}

	return extract.NewClient(&a.cfg.LLM, factory, extract.Options{
		Vocabulary:  vocab.Names(),
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		JSONMode:    c.Provider == config.ProviderOpenAI,
	}, a.logger), nil
}

// locker returns the configured project lock and a func releasing its
// resources.
func (a *app) locker(ctx context.Context) (lock.Locker, func(), error) {
	if a.cfg.Lock.Backend != config.LockRedis {
		return lock.NewKeyedMutex(), func() {}, nil
	}

	rl, err := lock.NewRedisLocker(ctx, a.cfg.Lock.RedisAddr, a.cfg.Lock.TTL, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return rl, func() { _ = rl.Close() }, nil
}

func (a *app) orchestrator(ctx context.Context, db store.Store) (*ingest.Orchestrator, func(), error) {
	vocab, err := a.vocabulary()
	if err != nil {
		return nil, nil, err
	}
	client, err := a.extractor(vocab)
	if err != nil {
		return nil, nil, err
	}
	locker, release, err := a.locker(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ingest.New(db, client, locker, a.logger), release, nil
}

func (a *app) layoutConfig() layout.Config {
	l := a.cfg.Layout
	cfg := layout.DefaultConfig()
	cfg.Width = l.Width
	cfg.Height = l.Height
	cfg.Margin = l.Margin
	cfg.Repulsion = l.Repulsion
	cfg.Attraction = l.Attraction
	cfg.Gravity = l.Gravity
	cfg.Damping = l.Damping
	cfg.Tick = l.Tick
	cfg.Duration = l.Duration
	return cfg
}

func (a *app) stopRule(name string, cfg layout.Config) (layout.StopRule, error) {
	if name == "" {
		name = a.cfg.Layout.StopRule
	}
	return layout.ParseStopRule(name, cfg, a.cfg.Layout.Epsilon, a.cfg.Layout.QuietTicks)
}

func (a *app) openMirror(ctx context.Context) (*mirror.Mirror, error) {
	n := a.cfg.Neo4j
	if !n.Enabled() {
		return nil, fmt.Errorf("neo4j.uri is not configured")
	}
	return mirror.New(ctx, n.URI, n.Username, n.Password, n.Database, a.logger)
}

// countOf renders "1 entity" or "3 entities".
func countOf(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(word))
}
