package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/metrics"
	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/resilience"
)

// openBaseline builds the configured prior-year loader. The returned close
// func releases any database handle and is never nil. A nil loader means no
// reference table is configured.
func openBaseline(ctx context.Context, bc config.BaselineConfig) (baseline.Loader, func(), error) {
	noop := func() {}
	retry := resilience.FromSettings(bc.RetryAttempts, bc.RetryBackoff)

	switch bc.Driver {
	case "", "none":
		return nil, noop, nil
	case "yaml":
		return &baseline.YAMLLoader{Path: bc.Path}, noop, nil
	case "sqlite":
		st, err := baseline.NewSQLite(bc.Path)
		if err != nil {
			return nil, noop, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, noop, err
		}
		return baseline.WithRetry(st, retry), func() { _ = st.Close() }, nil
	case "postgres":
		pool, err := baselinePool(ctx, bc.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return baseline.WithRetry(baseline.NewPostgresLoader(pool), retry), pool.Close, nil
	default:
		return nil, noop, eris.Errorf("baseline: unsupported driver %q", bc.Driver)
	}
}

// baselinePool creates a small pgxpool.Pool for reading the reference table.
func baselinePool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, eris.New("baseline: no database_url configured (set baseline.database_url)")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "baseline: parse connection string")
	}
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "baseline: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "baseline: ping database")
	}
	return pool, nil
}

// resolveSource loads the reference table through l and, when self-history
// is enabled, falls back to the portfolio's own prior-year months.
func resolveSource(ctx context.Context, l baseline.Loader, bc config.BaselineConfig, p *model.Portfolio, m *metrics.Metrics) (baseline.Source, error) {
	var sources []baseline.Source
	if l != nil {
		t, err := l.Load(ctx, 0)
		if m != nil {
			m.ObserveBaselineLoad(bc.Driver, err)
		}
		if err != nil {
			return nil, eris.Wrap(err, "baseline: load reference table")
		}
		zap.L().Info("baseline: reference table loaded",
			zap.String("driver", bc.Driver),
			zap.Int("brands", len(t.Brands())),
			zap.Int("rows", t.Len()),
		)
		sources = append(sources, t)
	}
	if bc.SelfHistory && p != nil {
		sources = append(sources, baseline.FromSeries(p))
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return baseline.Chain(sources...), nil
}
