package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bidash/internal/apperr"
	"bidash/internal/warehouse"
)

const kpiView = "v_monitor_kpis"

// KPI status colours.
const (
	StatusGreen = "green"
	StatusAmber = "amber"
	StatusRed   = "red"
)

// KPI is one headline figure of a sector.
type KPI struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  any    `json:"value"`
	Unit   string `json:"unit,omitempty"`
	Status string `json:"status"`
}

// StatusReport is the KPI summary of a sector.
type StatusReport struct {
	Sector                string    `json:"sector"`
	GeneratedAt           time.Time `json:"generatedAt"`
	ReplicationLagMinutes *float64  `json:"replicationLagMinutes"`
	DatabaseName          string    `json:"databaseName"`
	KPIs                  []KPI     `json:"kpis"`
	Notes                 []string  `json:"notes,omitempty"`
	Mock                  bool      `json:"mock,omitempty"`
}

// IsMock reports whether the report is a placeholder.
func (r StatusReport) IsMock() bool { return r.Mock }

// Status loads the KPIs of p.Sector in display order.
func (s *Source) Status(ctx context.Context, p StatusParams) (StatusReport, error) {
	q := "SELECT * FROM " + kpiView + " WHERE sector = @sector ORDER BY kpi_order"
	rows, err := s.db.Query(ctx, q, sql.Named("sector", p.Sector))
	if err != nil {
		if warehouse.IsMissingRelation(err, kpiView) {
			return s.statusMock(p.Sector), nil
		}
		return StatusReport{}, fmt.Errorf("query %s: %w", kpiView, err)
	}
	if len(rows) == 0 {
		return StatusReport{}, apperr.New(apperr.CodeNotFound, "No status data for sector.")
	}

	kpis := make([]KPI, 0, len(rows))
	for _, r := range rows {
		status := r.String("kpi_status")
		if status == "" {
			status = StatusGreen
		}
		kpis = append(kpis, KPI{
			Key:    r.String("kpi_key"),
			Label:  r.String("kpi_label"),
			Value:  r.Scalar("kpi_value"),
			Unit:   r.String("kpi_unit"),
			Status: status,
		})
	}
	return StatusReport{
		Sector:                p.Sector,
		GeneratedAt:           s.clock.Now().UTC(),
		ReplicationLagMinutes: rows[0].NullableFloat("replicationLagMinutes", "replication_lag_minutes"),
		DatabaseName:          s.db.DatabaseName(),
		KPIs:                  kpis,
	}, nil
}

func (s *Source) statusMock(sector string) StatusReport {
	return StatusReport{
		Sector:       sector,
		GeneratedAt:  s.clock.Now().UTC(),
		DatabaseName: s.db.DatabaseName(),
		KPIs: []KPI{
			{Key: "mock_1", Label: "KPI de Prueba 1", Value: "123", Unit: "u", Status: StatusGreen},
			{Key: "mock_2", Label: "KPI de Prueba 2", Value: "456", Unit: "$", Status: StatusAmber},
			{Key: "mock_3", Label: "KPI de Prueba 3", Value: "789", Unit: "%", Status: StatusRed},
		},
		Notes: []string{
			"Datos simulados para validación visual.",
			"La vista v_monitor_kpis no existe o no retornó datos.",
		},
		Mock: true,
	}
}
