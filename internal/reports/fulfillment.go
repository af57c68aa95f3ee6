package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bidash/internal/warehouse"
)

const fulfillmentTable = "fact_fulfillment_line_day"

// topN bounds the ranked fulfillment lists.
const topN = 5

// Line classes, in display order.
const (
	LineComplete  = "Completo"
	LinePartial   = "Parcial"
	LineShortfall = "Con Faltantes"
)

var lineColors = map[string]string{
	LineComplete:  "#10b981",
	LinePartial:   "#f59e0b",
	LineShortfall: "#ef4444",
}

// FulfillmentReport summarizes order lines over a range of days.
type FulfillmentReport struct {
	DatabaseName         string             `json:"databaseName"`
	FechaInicio          string             `json:"fechaInicio"`
	FechaFin             string             `json:"fechaFin"`
	TotalPedidos         int64              `json:"totalPedidos"`
	TotalSolicitado      float64            `json:"totalSolicitado"`
	TotalFaltantes       float64            `json:"totalFaltantes"`
	TasaSatisfaccion     float64            `json:"tasaSatisfaccion"`
	PedidosPorDia        []DayOrders        `json:"pedidosPorDia"`
	EstadoFulfillment    []LineClassCount   `json:"estadoFulfillment"`
	ProductosConShortage []ShortageCategory `json:"productosConShortage"`
	ProductosTop         []ProductShortage  `json:"productosTop"`
	PedidosRecientes     []RecentOrder      `json:"pedidosRecientes"`
	GeneratedAt          time.Time          `json:"generatedAt"`
	Mock                 bool               `json:"mock,omitempty"`
}

// IsMock reports whether the report is a placeholder.
func (r FulfillmentReport) IsMock() bool { return r.Mock }

// DayOrders counts the orders and missing units of one day.
type DayOrders struct {
	Dia       string  `json:"dia"`
	Fecha     string  `json:"fecha"`
	Pedidos   int64   `json:"pedidos"`
	Faltantes float64 `json:"faltantes"`
}

// LineClassCount is one slice of the order line status mix.
type LineClassCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// ShortageCategory is an article ranked by missing units.
type ShortageCategory struct {
	Categoria string  `json:"categoria"`
	Monto     float64 `json:"monto"`
	Cantidad  int64   `json:"cantidad"`
}

// ProductShortage is an article ranked by its share of missing units.
type ProductShortage struct {
	Nombre             string  `json:"nombre"`
	CantidadSolicitada float64 `json:"cantidad_solicitada"`
	CantidadFaltante   float64 `json:"cantidad_faltante"`
	PorcentajeFaltante float64 `json:"porcentaje_faltante"`
}

// RecentOrder is one of the latest orders with its fulfillment state.
type RecentOrder struct {
	ID            string  `json:"id"`
	Cliente       string  `json:"cliente"`
	MontoFaltante float64 `json:"monto_faltante"`
	Estado        string  `json:"estado"`
	Fecha         string  `json:"fecha"`
}

// Fulfillment runs the fulfillment queries for p concurrently.
func (s *Source) Fulfillment(ctx context.Context, p FulfillmentParams) (FulfillmentReport, error) {
	d := s.db.Dialect()
	table := d.Table(fulfillmentTable)
	where := " FROM " + table + " WHERE date_key BETWEEN @from_key AND @to_key"
	args := []any{sql.Named("from_key", p.From), sql.Named("to_key", p.To)}

	report := FulfillmentReport{
		DatabaseName: s.db.DatabaseName(),
		FechaInicio:  fromDateKey(int64(p.From)).Format(time.DateOnly),
		FechaFin:     fromDateKey(int64(p.To)).Format(time.DateOnly),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT COUNT(DISTINCT codigo_pedido) AS total_pedidos,"+
			" SUM(qty_solicitada) AS total_solicitado, SUM(shortage_qty) AS total_faltantes"+where, args...)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			report.TotalPedidos = rows[0].Int("total_pedidos")
			report.TotalSolicitado = rows[0].Float("total_solicitado")
			report.TotalFaltantes = rows[0].Float("total_faltantes")
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT date_key, COUNT(DISTINCT codigo_pedido) AS pedidos,"+
			" SUM(shortage_qty) AS faltantes"+where+" GROUP BY date_key ORDER BY date_key", args...)
		if err != nil {
			return err
		}
		report.PedidosPorDia = make([]DayOrders, 0, len(rows))
		for _, r := range rows {
			day := fromDateKey(r.Int("date_key"))
			report.PedidosPorDia = append(report.PedidosPorDia, DayOrders{
				Dia:       day.Format("02/01"),
				Fecha:     day.Format(time.DateOnly),
				Pedidos:   r.Int("pedidos"),
				Faltantes: r.Float("faltantes"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT clase, COUNT(*) AS lineas FROM (SELECT CASE"+
			" WHEN shortage_qty = 0 THEN '"+LineComplete+"'"+
			" WHEN shortage_qty < qty_solicitada * 0.1 THEN '"+LinePartial+"'"+
			" ELSE '"+LineShortfall+"' END AS clase"+where+") lineas_clasificadas GROUP BY clase", args...)
		if err != nil {
			return err
		}
		report.EstadoFulfillment = classMix(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT "+d.Top(topN)+"articulo_desc AS categoria,"+
			" SUM(shortage_qty) AS monto, COUNT(*) AS cantidad"+where+" AND shortage_qty > 0"+
			" GROUP BY articulo_desc ORDER BY monto DESC, categoria"+d.Limit(topN), args...)
		if err != nil {
			return err
		}
		report.ProductosConShortage = make([]ShortageCategory, 0, len(rows))
		for _, r := range rows {
			report.ProductosConShortage = append(report.ProductosConShortage, ShortageCategory{
				Categoria: r.String("categoria"),
				Monto:     r.Float("monto"),
				Cantidad:  r.Int("cantidad"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT "+d.Top(topN)+"articulo_desc AS nombre,"+
			" SUM(qty_solicitada) AS cantidad_solicitada, SUM(shortage_qty) AS cantidad_faltante,"+
			" SUM(shortage_qty) * 100.0 / NULLIF(SUM(qty_solicitada), 0) AS porcentaje_faltante"+where+
			" GROUP BY articulo_desc ORDER BY porcentaje_faltante DESC, nombre"+d.Limit(topN), args...)
		if err != nil {
			return err
		}
		report.ProductosTop = make([]ProductShortage, 0, len(rows))
		for _, r := range rows {
			report.ProductosTop = append(report.ProductosTop, ProductShortage{
				Nombre:             r.String("nombre"),
				CantidadSolicitada: r.Float("cantidad_solicitada"),
				CantidadFaltante:   r.Float("cantidad_faltante"),
				PorcentajeFaltante: round2(r.Float("porcentaje_faltante")),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT "+d.Top(topN)+"codigo_pedido AS id, centro_nombre AS cliente,"+
			" SUM(shortage_qty) AS monto_faltante, SUM(qty_solicitada) AS solicitado, MAX(date_key) AS ultimo_dia"+where+
			" GROUP BY codigo_pedido, centro_nombre ORDER BY ultimo_dia DESC, id"+d.Limit(topN), args...)
		if err != nil {
			return err
		}
		report.PedidosRecientes = make([]RecentOrder, 0, len(rows))
		for _, r := range rows {
			missing := r.Float("monto_faltante")
			report.PedidosRecientes = append(report.PedidosRecientes, RecentOrder{
				ID:            r.String("id"),
				Cliente:       r.String("cliente"),
				MontoFaltante: missing,
				Estado:        orderState(missing, r.Float("solicitado")),
				Fecha:         fromDateKey(r.Int("ultimo_dia")).Format("02/01/2006"),
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if warehouse.IsMissingRelation(err, table) {
			return s.fulfillmentMock(report), nil
		}
		return FulfillmentReport{}, fmt.Errorf("query %s: %w", table, err)
	}

	report.TasaSatisfaccion = satisfaction(report.TotalFaltantes, report.TotalSolicitado)
	report.GeneratedAt = s.clock.Now().UTC()
	return report, nil
}

// satisfaction is the percentage of requested units that were served.
func satisfaction(missing, requested float64) float64 {
	if requested == 0 {
		return 0
	}
	return round2(100 - ratio(missing, requested, 100))
}

func orderState(missing, requested float64) string {
	switch {
	case missing == 0:
		return "completado"
	case missing < requested*0.1:
		return "parcial"
	default:
		return "con_faltantes"
	}
}

func classMix(rows []warehouse.Row) []LineClassCount {
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.String("clase")] = r.Int("lineas")
	}
	mix := make([]LineClassCount, 0, len(counts))
	for _, class := range []string{LineComplete, LinePartial, LineShortfall} {
		if n, ok := counts[class]; ok {
			mix = append(mix, LineClassCount{Name: class, Value: n, Color: lineColors[class]})
		}
	}
	return mix
}

// fulfillmentMock fills base with fixed sample figures.
func (s *Source) fulfillmentMock(base FulfillmentReport) FulfillmentReport {
	r := base
	r.DatabaseName = base.DatabaseName + " (Mock)"
	r.TotalPedidos = 812
	r.TotalSolicitado = 7340
	r.TotalFaltantes = 286
	r.TasaSatisfaccion = satisfaction(r.TotalFaltantes, r.TotalSolicitado)
	r.PedidosPorDia = []DayOrders{
		{Dia: "Lun", Pedidos: 120, Faltantes: 14},
		{Dia: "Mar", Pedidos: 134, Faltantes: 9},
		{Dia: "Mié", Pedidos: 98, Faltantes: 21},
		{Dia: "Jue", Pedidos: 141, Faltantes: 12},
		{Dia: "Vie", Pedidos: 156, Faltantes: 18},
	}
	r.EstadoFulfillment = []LineClassCount{
		{Name: LineComplete, Value: 540, Color: lineColors[LineComplete]},
		{Name: LinePartial, Value: 96, Color: lineColors[LinePartial]},
		{Name: LineShortfall, Value: 41, Color: lineColors[LineShortfall]},
	}
	r.ProductosConShortage = []ShortageCategory{
		{Categoria: "Bebidas", Monto: 88, Cantidad: 14},
		{Categoria: "Lácteos", Monto: 61, Cantidad: 9},
		{Categoria: "Limpieza", Monto: 42, Cantidad: 7},
	}
	r.ProductosTop = []ProductShortage{
		{Nombre: "Agua 2L", CantidadSolicitada: 420, CantidadFaltante: 51, PorcentajeFaltante: ratio(51, 420, 100)},
		{Nombre: "Yogur 1L", CantidadSolicitada: 310, CantidadFaltante: 27, PorcentajeFaltante: ratio(27, 310, 100)},
	}
	r.PedidosRecientes = []RecentOrder{
		{ID: "MOCK-1", Cliente: "Centro Norte", MontoFaltante: 0, Estado: "completado", Fecha: "01/01/2026"},
		{ID: "MOCK-2", Cliente: "Centro Sur", MontoFaltante: 12, Estado: "con_faltantes", Fecha: "01/01/2026"},
	}
	r.GeneratedAt = s.clock.Now().UTC()
	r.Mock = true
	return r
}
