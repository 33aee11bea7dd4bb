package baseline

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/model"
)

// Querier is the subset of pgxpool.Pool used by PostgresLoader.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads reference rows from the prior_year_baseline table.
type PostgresLoader struct {
	pool Querier
}

// NewPostgresLoader creates a loader. Returns nil if pool is nil.
func NewPostgresLoader(pool Querier) *PostgresLoader {
	if pool == nil {
		return nil
	}
	return &PostgresLoader{pool: pool}
}

const pgBaselineQuery = `
	SELECT brand, year, month,
		COALESCE(sales, 0), COALESCE(ad_sales, 0),
		COALESCE(organic, GREATEST(COALESCE(sales, 0) - COALESCE(ad_sales, 0), 0)),
		COALESCE(page_views, 0), COALESCE(ad_spend, 0), COALESCE(units, 0)
	FROM prior_year_baseline
	WHERE ($1::int = 0 OR year = $1::int)
	ORDER BY brand, year, month`

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context, year int) (*Table, error) {
	rows, err := l.pool.Query(ctx, pgBaselineQuery, year)
	if err != nil {
		return nil, eris.Wrap(err, "baseline: query prior_year_baseline")
	}
	defer rows.Close()

	t, err := scanRows(rows.Next, rows.Scan)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "baseline: iterate prior_year_baseline")
	}

	zap.L().Info("baseline: loaded reference table",
		zap.String("driver", "postgres"),
		zap.Int("year", year),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// scanRows drains a row cursor shared by the Postgres and SQLite loaders.
// Column order matches pgBaselineQuery. Both queries derive a NULL organic
// value from sales and ad sales, so an explicit zero is kept as is.
func scanRows(next func() bool, scan func(dest ...any) error) (*Table, error) {
	t := NewTable()
	for next() {
		var (
			brand string
			y, m  int
			rec   model.MonthRecord
		)
		if err := scan(&brand, &y, &m,
			&rec.AmazonSales, &rec.AmazonAdSales, &rec.AmazonOrganic,
			&rec.AmazonPageViews, &rec.AmazonAdSpend, &rec.AmazonUnits,
		); err != nil {
			return nil, eris.Wrap(err, "baseline: scan row")
		}
		if m < 1 || m > 12 {
			return nil, eris.Errorf("baseline: brand %s has invalid month %d", brand, m)
		}
		rec.Month = model.Month{Year: y, Month: m}
		t.Put(model.BrandKey(brand), rec)
	}
	return t, nil
}
