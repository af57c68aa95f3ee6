package reports

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const operationTable = "fact_operacion_evento"

// ProductivityReport measures an operation's throughput over a range of days.
type ProductivityReport struct {
	From        string                 `json:"from"`
	To          string                 `json:"to"`
	Operacion   string                 `json:"operacion"`
	Daily       []ProductivityDay      `json:"daily"`
	Cards       ProductivityCards      `json:"cards"`
	PerOperator []OperatorProductivity `json:"perOperator"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// ProductivityDay is the group throughput of one operating day.
type ProductivityDay struct {
	FechaOperativa string  `json:"fecha_operativa"`
	Unidades       float64 `json:"unidades"`
	Movimientos    int64   `json:"movimientos"`
	Segundos       int64   `json:"segundos"`
	UniXH          float64 `json:"uni_x_h"`
	MovXH          float64 `json:"mov_x_h"`
}

// ProductivityCards are the headline figures of the range.
type ProductivityCards struct {
	Cajas                    float64 `json:"cajas"`
	UnidadesUOM              float64 `json:"unidades_uom"`
	Packs                    float64 `json:"packs"`
	Operarios                int64   `json:"operarios"`
	HorasPromedioPorOperario float64 `json:"horas_promedio_por_operario"`
}

// OperatorProductivity is one row of the per-operator grid.
type OperatorProductivity struct {
	UsuarioID   string  `json:"usuario_id"`
	Legajo      string  `json:"legajo"`
	Operario    string  `json:"operario"`
	Horas       float64 `json:"horas"`
	Movimientos int64   `json:"movimientos"`
	Unidades    float64 `json:"unidades"`
	Cajas       float64 `json:"cajas"`
	UnidadesUOM float64 `json:"unidades_uom"`
	Packs       float64 `json:"packs"`
	UniXH       float64 `json:"uni_x_h"`
	MovXH       float64 `json:"mov_x_h"`
}

// Productivity runs the productivity queries for p concurrently.
func (s *Source) Productivity(ctx context.Context, p ProductivityParams) (ProductivityReport, error) {
	d := s.db.Dialect()
	table := d.Table(operationTable)
	events := "SELECT * FROM " + table +
		" WHERE operacion = @operacion AND fecha_operativa >= @from_date AND fecha_operativa < @to_date"
	args := []any{
		sql.Named("operacion", p.Operation),
		sql.Named("from_date", p.From),
		sql.Named("to_date", p.To),
	}
	seconds := "SUM(" + d.SecondsBetween("inicio_dt", "fin_dt") + ")"
	timed := " WHERE operacion_rf_id IS NOT NULL AND inicio_dt IS NOT NULL AND fin_dt IS NOT NULL"

	report := ProductivityReport{From: p.From, To: p.To, Operacion: p.Operation}
	var operators []OperatorProductivity
	var timedOperators int64
	var totalSeconds float64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "WITH e AS ("+events+"),"+
			" ops AS (SELECT fecha_operativa, usuario_id, operacion_rf_id, MIN(inicio_dt) AS inicio_dt, MAX(fin_dt) AS fin_dt"+
			" FROM e"+timed+" GROUP BY fecha_operativa, usuario_id, operacion_rf_id),"+
			" tiempos AS (SELECT fecha_operativa, "+seconds+" AS segundos FROM ops GROUP BY fecha_operativa),"+
			" vol AS (SELECT fecha_operativa, COUNT(*) AS movimientos, SUM(cantidad) AS unidades FROM e GROUP BY fecha_operativa)"+
			" SELECT v.fecha_operativa, v.movimientos, v.unidades, COALESCE(t.segundos, 0) AS segundos"+
			" FROM vol v LEFT JOIN tiempos t ON t.fecha_operativa = v.fecha_operativa ORDER BY v.fecha_operativa", args...)
		if err != nil {
			return err
		}
		report.Daily = make([]ProductivityDay, 0, len(rows))
		for _, r := range rows {
			secs := r.Float("segundos")
			units := r.Float("unidades")
			moves := r.Int("movimientos")
			report.Daily = append(report.Daily, ProductivityDay{
				FechaOperativa: r.Date("fecha_operativa"),
				Unidades:       units,
				Movimientos:    moves,
				Segundos:       int64(secs),
				UniXH:          ratio(units, secs, 3600),
				MovXH:          ratio(float64(moves), secs, 3600),
			})
		}
		return nil
	})
	g.Go(func() error {
		uom := "UPPER(LTRIM(RTRIM(COALESCE(uom_text, 'OTROS'))))"
		rows, err := s.db.Query(ctx, "SELECT "+uom+" AS uom, SUM(cantidad) AS unidades FROM ("+events+") e"+
			" GROUP BY "+uom, args...)
		if err != nil {
			return err
		}
		for _, r := range rows {
			switch r.String("uom") {
			case "CAJA":
				report.Cards.Cajas = r.Float("unidades")
			case "UNIDAD":
				report.Cards.UnidadesUOM = r.Float("unidades")
			case "PACK":
				report.Cards.Packs = r.Float("unidades")
			}
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "WITH e AS ("+events+"),"+
			" ops AS (SELECT usuario_id, operacion_rf_id, MIN(inicio_dt) AS inicio_dt, MAX(fin_dt) AS fin_dt"+
			" FROM e"+timed+" GROUP BY usuario_id, operacion_rf_id),"+
			" t_user AS (SELECT usuario_id, "+seconds+" AS segundos FROM ops GROUP BY usuario_id),"+
			" v_user AS (SELECT usuario_id, MAX(legajo) AS legajo, MAX(operario) AS operario,"+
			" COUNT(*) AS movimientos, SUM(cantidad) AS unidades,"+
			" SUM(CASE WHEN UPPER(uom_text) = 'CAJA' THEN cantidad ELSE 0 END) AS cajas,"+
			" SUM(CASE WHEN UPPER(uom_text) = 'UNIDAD' THEN cantidad ELSE 0 END) AS unidades_uom,"+
			" SUM(CASE WHEN UPPER(uom_text) = 'PACK' THEN cantidad ELSE 0 END) AS packs"+
			" FROM e GROUP BY usuario_id)"+
			" SELECT v.usuario_id, v.legajo, v.operario, v.movimientos, v.unidades, v.cajas, v.unidades_uom, v.packs, t.segundos"+
			" FROM v_user v LEFT JOIN t_user t ON t.usuario_id = v.usuario_id", args...)
		if err != nil {
			return err
		}
		operators = make([]OperatorProductivity, 0, len(rows))
		for _, r := range rows {
			var secs float64
			if v := r.NullableFloat("segundos"); v != nil {
				secs = *v
				timedOperators++
				totalSeconds += secs
			}
			id := r.String("usuario_id")
			name := strings.TrimSpace(r.String("operario"))
			if name == "" {
				name = "Operario " + id
			}
			units := r.Float("unidades")
			moves := r.Int("movimientos")
			operators = append(operators, OperatorProductivity{
				UsuarioID:   id,
				Legajo:      r.String("legajo"),
				Operario:    name,
				Horas:       round2(secs / 3600),
				Movimientos: moves,
				Unidades:    units,
				Cajas:       r.Float("cajas"),
				UnidadesUOM: r.Float("unidades_uom"),
				Packs:       r.Float("packs"),
				UniXH:       ratio(units, secs, 3600),
				MovXH:       ratio(float64(moves), secs, 3600),
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return ProductivityReport{}, fmt.Errorf("query %s: %w", table, err)
	}

	sortOperators(operators)
	report.PerOperator = operators
	report.Cards.Operarios = timedOperators
	if timedOperators > 0 {
		report.Cards.HorasPromedioPorOperario = round2(totalSeconds / 3600 / float64(timedOperators))
	}
	report.GeneratedAt = s.clock.Now().UTC()
	return report, nil
}

// sortOperators orders the grid by units per hour, then moves per hour.
func sortOperators(ops []OperatorProductivity) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].UniXH != ops[j].UniXH {
			return ops[i].UniXH > ops[j].UniXH
		}
		if ops[i].MovXH != ops[j].MovXH {
			return ops[i].MovXH > ops[j].MovXH
		}
		return ops[i].UsuarioID < ops[j].UsuarioID
	})
}
