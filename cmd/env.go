package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/door-pricing/internal/db"
	"github.com/sells-group/door-pricing/internal/quote"
	"github.com/sells-group/door-pricing/internal/store"
)

// appEnv holds the collaborators shared by every command.
type appEnv struct {
	Store   store.Store
	Service *quote.Service
}

func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, db.PoolConfig{
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			ConnectAttempts: cfg.Store.ConnectAttempts,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates the config for mode, opens and migrates the store and
// builds the quote service on top of it.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Cache.Enabled {
		st = store.NewCached(st, time.Duration(cfg.Cache.TTLSecs)*time.Second, time.Now)
	}

	return &appEnv{
		Store:   st,
		Service: quote.New(st, cfg),
	}, nil
}
