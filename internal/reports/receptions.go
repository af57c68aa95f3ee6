package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const receptionTable = "fact_recepcion_sku"

// allFilter is echoed for a filter the caller left empty.
const allFilter = "Todos"

// ReceptionsReport is the units received per day over a range.
type ReceptionsReport struct {
	DatabaseName      string            `json:"databaseName"`
	FechaInicio       string            `json:"fechaInicio"`
	FechaFin          string            `json:"fechaFin"`
	Filtros           ReceptionFilters  `json:"filtros"`
	RecepcionesPorDia []ReceptionPerDay `json:"recepcionesPorDia"`
	TotalUnidades     float64           `json:"totalUnidades"`
	TotalDias         int               `json:"totalDias"`
	PromedioDiario    float64           `json:"promedioDiario"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}

// ReceptionFilters echoes the filters a report was built with.
type ReceptionFilters struct {
	Proveedor string `json:"proveedor"`
	SKU       string `json:"sku"`
}

// ReceptionPerDay is the units received on one day.
type ReceptionPerDay struct {
	Fecha    string  `json:"fecha"`
	Dia      string  `json:"dia"`
	Unidades float64 `json:"unidades"`
}

// Receptions loads received units per day. Supplier and SKU filters are
// case-insensitive substring matches.
func (s *Source) Receptions(ctx context.Context, p ReceptionsParams) (ReceptionsReport, error) {
	table := s.db.Dialect().Table(receptionTable)
	q := "SELECT fecha_operativa, SUM(COALESCE(cantidad_unidades, 0)) AS unidades FROM " + table +
		" WHERE fecha_operativa >= @from_date AND fecha_operativa <= @to_date"
	args := []any{sql.Named("from_date", p.From), sql.Named("to_date", p.To)}
	if p.Supplier != "" {
		q += " AND UPPER(LTRIM(RTRIM(proveedor))) LIKE UPPER(@proveedor)"
		args = append(args, sql.Named("proveedor", "%"+p.Supplier+"%"))
	}
	if p.SKU != "" {
		q += " AND UPPER(LTRIM(RTRIM(sku))) LIKE UPPER(@sku)"
		args = append(args, sql.Named("sku", "%"+p.SKU+"%"))
	}
	q += " GROUP BY fecha_operativa ORDER BY fecha_operativa"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return ReceptionsReport{}, fmt.Errorf("query %s: %w", table, err)
	}

	report := ReceptionsReport{
		DatabaseName:      s.db.DatabaseName(),
		FechaInicio:       p.From,
		FechaFin:          p.To,
		Filtros:           ReceptionFilters{Proveedor: orAll(p.Supplier), SKU: orAll(p.SKU)},
		RecepcionesPorDia: make([]ReceptionPerDay, 0, len(rows)),
		GeneratedAt:       s.clock.Now().UTC(),
	}
	for _, r := range rows {
		day, ok := r.Time("fecha_operativa")
		if !ok {
			continue
		}
		units := r.Float("unidades")
		report.TotalUnidades += units
		report.RecepcionesPorDia = append(report.RecepcionesPorDia, ReceptionPerDay{
			Fecha:    day.Format("02/01/2006"),
			Dia:      day.Format("02/01"),
			Unidades: units,
		})
	}
	report.TotalDias = len(report.RecepcionesPorDia)
	report.PromedioDiario = ratio(report.TotalUnidades, float64(report.TotalDias), 1)
	return report, nil
}

func orAll(filter string) string {
	if filter == "" {
		return allFilter
	}
	return filter
}
