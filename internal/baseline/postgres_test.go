package baseline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lift-cli/internal/model"
)

var baselineCols = []string{"brand", "year", "month", "sales", "ad_sales", "organic", "page_views", "ad_spend", "units"}

func TestNewPostgresLoader_NilPool(t *testing.T) {
	assert.Nil(t, NewPostgresLoader(nil))
}

func TestPostgresLoader_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT brand, year, month").
		WithArgs(2023).
		WillReturnRows(
			pgxmock.NewRows(baselineCols).
				AddRow("acme", 2023, 1, 1200.0, 200.0, 1000.0, 5000.0, 300.0, 40.0).
				AddRow("acme", 2023, 2, 1300.0, 200.0, 1100.0, 5200.0, 320.0, 42.0).
				AddRow("acme", 2023, 3, 1300.0, 200.0, 0.0, 5200.0, 320.0, 42.0),
		)

	tbl, err := NewPostgresLoader(mock).Load(context.Background(), 2023)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	rec, ok := tbl.Lookup("acme", 2023, 1)
	require.True(t, ok)
	assert.Equal(t, 1000.0, rec.AmazonOrganic)
	assert.Equal(t, 300.0, rec.AmazonAdSpend)

	rec, ok = tbl.Lookup("acme", 2023, 2)
	require.True(t, ok)
	assert.Equal(t, 1100.0, rec.AmazonOrganic)

	rec, ok = tbl.Lookup("acme", 2023, 3)
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.AmazonOrganic, "explicit zero organic is kept")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT brand, year, month").
		WithArgs(0).
		WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresLoader(mock).Load(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query prior_year_baseline")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_InvalidMonth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT brand, year, month").
		WithArgs(0).
		WillReturnRows(pgxmock.NewRows(baselineCols).
			AddRow("acme", 2023, 13, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0))

	_, err = NewPostgresLoader(mock).Load(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid month")
}

func TestSQLiteStore_ImportAndLoad(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "baseline.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	tbl := NewTable()
	tbl.Put("acme", model.MonthRecord{Month: model.Month{Year: 2023, Month: 1}, AmazonSales: 1200, AmazonAdSales: 200, AmazonOrganic: 1000, AmazonUnits: 40})
	tbl.Put("acme", model.MonthRecord{Month: model.Month{Year: 2024, Month: 1}, AmazonOrganic: 1500})
	tbl.Put("zest", model.MonthRecord{Month: model.Month{Year: 2023, Month: 7}, AmazonOrganic: 50, AmazonPageViews: 900})

	n, err := st.Import(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Re-import upserts rather than duplicating.
	tbl.Put("zest", model.MonthRecord{Month: model.Month{Year: 2023, Month: 7}, AmazonOrganic: 75})
	_, err = st.Import(ctx, tbl)
	require.NoError(t, err)

	all, err := st.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())
	rec, ok := all.Lookup("zest", 2023, 7)
	require.True(t, ok)
	assert.Equal(t, 75.0, rec.AmazonOrganic)

	y2023, err := st.Load(ctx, 2023)
	require.NoError(t, err)
	assert.Equal(t, 2, y2023.Len())
	rec, ok = y2023.Lookup("acme", 2023, 1)
	require.True(t, ok)
	assert.Equal(t, 40.0, rec.AmazonUnits)
}

func TestSQLiteStore_LoadDerivesMissingOrganic(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "baseline.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	_, err = st.db.ExecContext(ctx, `
		INSERT INTO prior_year_baseline (brand, year, month, sales, ad_sales, organic) VALUES
			('acme', 2023, 1, 1200, 200, NULL),
			('acme', 2023, 2, 100, 300, NULL),
			('acme', 2023, 3, 1200, 200, 0)`)
	require.NoError(t, err)

	tbl, err := st.Load(ctx, 2023)
	require.NoError(t, err)

	tests := []struct {
		month int
		want  float64
	}{
		{1, 1000}, // NULL derives sales - ad_sales
		{2, 0},    // derived value floors at zero
		{3, 0},    // explicit zero is kept
	}
	for _, tt := range tests {
		rec, ok := tbl.Lookup("acme", 2023, tt.month)
		require.True(t, ok)
		assert.Equal(t, tt.want, rec.AmazonOrganic, "month %d", tt.month)
	}
}
