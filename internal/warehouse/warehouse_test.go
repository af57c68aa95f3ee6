package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) (*DB, *sql.DB) {
	t.Helper()
	sqlDB, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	db := New(sqlDB, DriverSQLite, Options{})
	t.Cleanup(func() { _ = db.Close() })
	return db, sqlDB
}

func TestQueryReturnsRowsByColumn(t *testing.T) {
	db, raw := openSQLite(t)
	_, err := raw.Exec(`CREATE TABLE v_monitor_kpis (sector TEXT, kpi_key TEXT, kpi_value REAL, kpi_order INTEGER)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO v_monitor_kpis VALUES ('A', 'backlog', 12.5, 2), ('A', 'lines', 40, 1), ('B', 'x', 1, 1)`)
	require.NoError(t, err)

	rows, err := db.Query(context.Background(),
		`SELECT kpi_key, kpi_value FROM v_monitor_kpis WHERE sector = @sector ORDER BY kpi_order`,
		sql.Named("sector", "A"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "lines", rows[0].String("kpi_key"))
	assert.Equal(t, 40.0, rows[0].Float("kpi_value"))
	assert.Equal(t, 12.5, rows[1].Float("kpi_value"))
}

func TestQueryMissingTableIsDetected(t *testing.T) {
	db, _ := openSQLite(t)

	_, err := db.Query(context.Background(), `SELECT * FROM vw_monitor_detail`)
	require.Error(t, err)
	assert.True(t, IsMissingRelation(err, "vw_monitor_detail"))
	assert.False(t, IsMissingRelation(err, "v_monitor_kpis"))
}

func TestOpenValidatesInput(t *testing.T) {
	_, err := Open(context.Background(), DriverSQLite, "  ", Options{})
	assert.Error(t, err)

	_, err = Open(context.Background(), "oracle", "x", Options{})
	assert.ErrorContains(t, err, "unsupported")
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, ":memory:", Options{Schema: "bi"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "bi.fact_recepcion_sku", db.Dialect().Table("fact_recepcion_sku"))
	assert.Equal(t, "Unknown", db.DatabaseName())
}

func TestIsMissingRelationMessages(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"mssql: Invalid object name 'vw_monitor_detail'.", true},
		{"SQL logic error: no such table: vw_monitor_detail (1)", true},
		{`pq: relation "vw_monitor_detail" does not exist`, true},
		{"relation vw_monitor_detail does not exist", true},
		{"mssql: Invalid object name 'other_view'.", false},
		{"login failed for user 'bi'", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsMissingRelation(errors.New(tt.msg), "VW_MONITOR_DETAIL"), tt.msg)
	}
	assert.False(t, IsMissingRelation(nil, "vw_monitor_detail"))
}

func TestDatabaseName(t *testing.T) {
	tests := map[string]string{
		"Server=db;Database=MACROMERCADO;User Id=bi;Password=x": "MACROMERCADO",
		"server=db;database=SEGA_MZA":                           "SEGA_MZA",
		"Server=db;Initial Catalog=WMS;":                        "WMS",
		"sqlserver://bi:x@db:1433?database=REPORTS&encrypt=1":   "REPORTS",
		"file:warehouse.db":                                     "Unknown",
		"":                                                      "Unknown",
	}
	for dsn, want := range tests {
		assert.Equal(t, want, DatabaseName(dsn), dsn)
	}
}

func TestDialect(t *testing.T) {
	mssql := Dialect{Driver: DriverSQLServer, Schema: "bi"}
	lite := Dialect{Driver: DriverSQLite}

	assert.Equal(t, "bi.fact_operacion_evento", mssql.Table("fact_operacion_evento"))
	assert.Equal(t, "fact_operacion_evento", lite.Table("fact_operacion_evento"))
	assert.Equal(t, "TOP (5) ", mssql.Top(5))
	assert.Empty(t, lite.Top(5))
	assert.Empty(t, mssql.Limit(5))
	assert.Equal(t, " LIMIT 5", lite.Limit(5))
	assert.Equal(t, "DATEDIFF(SECOND, a, b)", mssql.SecondsBetween("a", "b"))
}

func TestSecondsBetweenOnSQLite(t *testing.T) {
	db, _ := openSQLite(t)
	expr := db.Dialect().SecondsBetween("'2026-01-05 08:00:00'", "'2026-01-05 08:30:15'")

	rows, err := db.Query(context.Background(), "SELECT "+expr+" AS secs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1815), rows[0].Int("secs"))
}
