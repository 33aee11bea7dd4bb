package baseline

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps a prior-year reference table in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prior_year_baseline (
	brand      TEXT    NOT NULL,
	year       INTEGER NOT NULL,
	month      INTEGER NOT NULL,
	sales      REAL    NOT NULL DEFAULT 0,
	ad_sales   REAL    NOT NULL DEFAULT 0,
	organic    REAL,
	page_views REAL    NOT NULL DEFAULT 0,
	ad_spend   REAL    NOT NULL DEFAULT 0,
	units      REAL    NOT NULL DEFAULT 0,
	PRIMARY KEY (brand, year, month)
);

CREATE INDEX IF NOT EXISTS idx_prior_year_baseline_year ON prior_year_baseline(year);
`

// Migrate creates the reference table if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import upserts every row of t in one transaction and returns the row count.
func (s *SQLiteStore) Import(ctx context.Context, t *Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prior_year_baseline (brand, year, month, sales, ad_sales, organic, page_views, ad_spend, units)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (brand, year, month) DO UPDATE SET
			sales = excluded.sales,
			ad_sales = excluded.ad_sales,
			organic = excluded.organic,
			page_views = excluded.page_views,
			ad_spend = excluded.ad_spend,
			units = excluded.units`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close()

	var n int
	for _, b := range t.Brands() {
		for _, m := range t.Months(b) {
			rec, _ := t.Lookup(b, m.Year, m.Month)
			if _, err := stmt.ExecContext(ctx, string(b), m.Year, m.Month,
				rec.AmazonSales, rec.AmazonAdSales, rec.AmazonOrganic,
				rec.AmazonPageViews, rec.AmazonAdSpend, rec.AmazonUnits,
			); err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert %s %s", b, m)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return n, nil
}

// Load implements Loader.
func (s *SQLiteStore) Load(ctx context.Context, year int) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT brand, year, month, sales, ad_sales,
			COALESCE(organic, MAX(sales - ad_sales, 0)), page_views, ad_spend, units
		FROM prior_year_baseline
		WHERE (? = 0 OR year = ?)
		ORDER BY brand, year, month`, year, year)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query prior_year_baseline")
	}
	defer rows.Close()

	t, err := scanRows(rows.Next, rows.Scan)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate prior_year_baseline")
	}

	zap.L().Info("baseline: loaded reference table",
		zap.String("driver", "sqlite"),
		zap.Int("year", year),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}
