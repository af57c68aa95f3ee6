package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bidash/internal/apperr"
	"bidash/internal/warehouse"
)

const detailView = "vw_monitor_detail"

// DetailTable is one titled grid of a sector's detail view.
type DetailTable struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// DetailReport holds the detail tables of a sector.
type DetailReport struct {
	Sector                string        `json:"sector"`
	GeneratedAt           time.Time     `json:"generatedAt"`
	ReplicationLagMinutes *float64      `json:"replicationLagMinutes"`
	Tables                []DetailTable `json:"tables"`
	Mock                  bool          `json:"mock,omitempty"`
}

// IsMock reports whether the report is a placeholder.
func (r DetailReport) IsMock() bool { return r.Mock }

// Detail loads the first detail row of p.Sector.
func (s *Source) Detail(ctx context.Context, p DetailParams) (DetailReport, error) {
	d := s.db.Dialect()
	q := "SELECT " + d.Top(1) + "* FROM " + detailView + " WHERE sector = @sector" + d.Limit(1)
	rows, err := s.db.Query(ctx, q, sql.Named("sector", p.Sector))
	if err != nil {
		if warehouse.IsMissingRelation(err, detailView) {
			return s.detailMock(p.Sector), nil
		}
		return DetailReport{}, fmt.Errorf("query %s: %w", detailView, err)
	}
	if len(rows) == 0 {
		return DetailReport{}, apperr.New(apperr.CodeNotFound, "No detail data for sector.")
	}

	row := rows[0]
	generatedAt, ok := row.Time("generatedAt", "generated_at")
	if !ok {
		generatedAt = s.clock.Now()
	}
	return DetailReport{
		Sector:                p.Sector,
		GeneratedAt:           generatedAt.UTC(),
		ReplicationLagMinutes: row.NullableFloat("replicationLagMinutes", "replication_lag_minutes"),
		Tables:                decodeTables(row.String("tables", "tables_json")),
	}, nil
}

// decodeTables parses the JSON tables column. Malformed JSON yields no tables.
func decodeTables(raw string) []DetailTable {
	tables := []DetailTable{}
	if raw == "" {
		return tables
	}
	if err := json.Unmarshal([]byte(raw), &tables); err != nil || tables == nil {
		return []DetailTable{}
	}
	return tables
}

func (s *Source) detailMock(sector string) DetailReport {
	return DetailReport{
		Sector:      sector,
		GeneratedAt: s.clock.Now().UTC(),
		Tables: []DetailTable{{
			Key:     "mock",
			Title:   "MOCK DATA",
			Columns: []string{"info"},
			Rows:    [][]any{{detailView + " missing"}},
		}},
		Mock: true,
	}
}
