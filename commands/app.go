package commands

import (
	"context"
	"fmt"

	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/core/config"
	datacache "github.com/penwyp/go-herdbook/internal/data/cache"
	"github.com/penwyp/go-herdbook/internal/data/remote"
	"github.com/penwyp/go-herdbook/internal/data/source"
	"github.com/penwyp/go-herdbook/internal/data/store"
	"github.com/penwyp/go-herdbook/internal/util"
)

const defaultCacheDir = "~/.go-herdbook/cache"

// app holds the configured data source shared by the timeline commands
type app struct {
	cfg *config.Config
	svc source.RemoteService
	// sourceKey identifies the data source in the subject cache
	sourceKey string
	// dbPath is set for the sqlite source
	dbPath string
	close  func() error
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg, err := config.Load(expandPath(path))
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.Source.DBPath = dbPath
	}
	if baseURL != "" {
		cfg.Source.Kind = config.SourceHTTP
		cfg.Source.BaseURL = baseURL
	}
	if timezone != "" {
		cfg.Timeline.Timezone = timezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := util.InitializeTimeProvider(cfg.Timeline.Timezone); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp initializes logging and config, then opens the data source
func newApp() (*app, error) {
	initLogging()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, close: func() error { return nil }}
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		client, err := remote.NewClient(cfg.Source.BaseURL, cfg.Source.APIToken, cfg.Source.Timeout)
		if err != nil {
			return nil, err
		}
		a.svc = client
		a.sourceKey = cfg.Source.BaseURL
	default:
		st, err := store.Open(expandPath(cfg.Source.DBPath))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.svc = st
		a.sourceKey = st.Path()
		a.dbPath = st.Path()
		a.close = st.Close
	}

	util.LogInfof("Using %s source %s", cfg.Source.Kind, a.sourceKey)
	return a, nil
}

// Close releases the data source
func (a *app) Close() error {
	return a.close()
}

func (a *app) engineConfig() timeline.EngineConfig {
	return timeline.EngineConfig{
		PageSize:          a.cfg.Timeline.PageSize,
		LoadMoreThreshold: a.cfg.Timeline.LoadMoreThreshold,
		Timezone:          a.cfg.Timeline.Timezone,
		RequestTimeout:    a.cfg.Source.Timeout,
		SubjectCacheKey:   a.sourceKey,
	}
}

// WithEngine runs an engine for the duration of fn
func (a *app) WithEngine(ctx context.Context, fn func(context.Context, *timeline.Engine) error) error {
	deps := timeline.Dependencies{Service: a.svc}
	if fc, err := datacache.NewFileCache(expandPath(defaultCacheDir), 0); err != nil {
		util.LogWarnf("Subject cache disabled: %v", err)
	} else {
		deps.SubjectCache = fc
	}

	engine, err := timeline.NewEngine(a.engineConfig(), deps)
	if err != nil {
		return err
	}
	return runEngine(ctx, engine, fn)
}

func runEngine(ctx context.Context, engine *timeline.Engine, fn func(context.Context, *timeline.Engine) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(ctx) }()

	err := fn(ctx, engine)
	cancel()
	if rerr := <-runErr; err == nil {
		err = rerr
	}
	return err
}
