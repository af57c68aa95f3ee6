package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bidash/internal/poller"
	"bidash/internal/reports"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRenderer() *Renderer {
	return New(120, false, func() time.Time { return now })
}

func statusSnapshot() poller.Snapshot[reports.StatusReport] {
	lag := 1.5
	return poller.Snapshot[reports.StatusReport]{
		Resource: "/status?sector=Sector-A",
		Data: reports.StatusReport{
			Sector:                "Sector-A",
			DatabaseName:          "WMS",
			ReplicationLagMinutes: &lag,
			KPIs: []reports.KPI{
				{Key: "lines", Label: "Lineas", Value: 1234.0, Unit: "u", Status: reports.StatusAmber},
				{Key: "orders", Label: "Pedidos", Value: "n/a", Status: reports.StatusGreen},
			},
			Notes: []string{"Datos de prueba"},
		},
		HasData:       true,
		LastUpdatedAt: now.Add(-2 * time.Minute),
	}
}

func TestStatusFresh(t *testing.T) {
	out := newRenderer().Status(statusSnapshot())

	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "live")
	assert.Contains(t, out, "updated 2 minutes ago")
	assert.Contains(t, out, "sector Sector-A")
	assert.Contains(t, out, "DB WMS")
	assert.Contains(t, out, "lag 1.5 min")
	assert.Contains(t, out, "Lineas")
	assert.Contains(t, out, "1,234 u")
	assert.Contains(t, out, "amber")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "* Datos de prueba")
	assert.NotContains(t, out, "mock data")
	assert.NotContains(t, out, "Refresh failed")
}

func TestStatusStaleKeepsData(t *testing.T) {
	snap := statusSnapshot()
	snap.Err = "HTTP 500 - DB_ERROR: Database error."
	out := newRenderer().Status(snap)

	assert.Contains(t, out, "stale")
	assert.Contains(t, out, "Showing the last good data. Refresh failed: HTTP 500 - DB_ERROR: Database error.")
	assert.Contains(t, out, "1,234 u")
}

func TestStatusMock(t *testing.T) {
	snap := statusSnapshot()
	snap.Data.Mock = true
	assert.Contains(t, newRenderer().Status(snap), "[mock data]")
}

func TestPhasesWithoutData(t *testing.T) {
	r := newRenderer()

	idle := r.Status(poller.Snapshot[reports.StatusReport]{})
	assert.Contains(t, idle, "idle")
	assert.Contains(t, idle, "Nothing selected.")

	loading := r.Status(poller.Snapshot[reports.StatusReport]{Resource: "/status", Loading: true})
	assert.Contains(t, loading, "Loading...")
	assert.NotContains(t, loading, "updated")

	retrying := r.Status(poller.Snapshot[reports.StatusReport]{Resource: "/status", Loading: true, Err: "connection refused"})
	assert.Contains(t, retrying, "Last attempt failed: connection refused")

	failed := r.Status(poller.Snapshot[reports.StatusReport]{Resource: "/status", Err: "request timed out after 4s"})
	assert.Contains(t, failed, "failed")
	assert.Contains(t, failed, "Could not load data: request timed out after 4s")
	assert.NotContains(t, failed, "Lineas")

	closed := r.Status(poller.Snapshot[reports.StatusReport]{Resource: "/status", Closed: true})
	assert.Contains(t, closed, "Stopped.")
}

func TestDetailTables(t *testing.T) {
	snap := poller.Snapshot[reports.DetailReport]{
		Resource: "/detail?sector=Sector-A",
		HasData:  true,
		Updating: true,
		Data: reports.DetailReport{
			Sector: "Sector-A",
			Tables: []reports.DetailTable{{
				Key:     "backlog",
				Title:   "Backlog",
				Columns: []string{"Ola", "Lineas", "Cerrada"},
				Rows:    [][]any{{"W-1", 12.0, true}, {"W-2", nil, false}},
			}},
		},
	}
	out := newRenderer().Detail(snap)

	assert.Contains(t, out, "refreshing")
	assert.Contains(t, out, "Backlog")
	assert.Contains(t, out, "Ola")
	assert.Contains(t, out, "W-1")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, " - ")
}

func TestDetailWithoutTables(t *testing.T) {
	snap := poller.Snapshot[reports.DetailReport]{
		Resource: "/detail?sector=Sector-A",
		HasData:  true,
		Data:     reports.DetailReport{Sector: "Sector-A", Tables: []reports.DetailTable{}},
	}
	assert.Contains(t, newRenderer().Detail(snap), "No tables.")
}

func TestFulfillment(t *testing.T) {
	snap := poller.Snapshot[reports.FulfillmentReport]{
		Resource: "/fulfillment",
		HasData:  true,
		Data: reports.FulfillmentReport{
			DatabaseName:     "WMS",
			FechaInicio:      "2026-03-01",
			FechaFin:         "2026-03-02",
			TotalPedidos:     3,
			TotalSolicitado:  2000,
			TotalFaltantes:   17,
			TasaSatisfaccion: 91.5,
			PedidosPorDia:    []reports.DayOrders{{Dia: "01/03", Fecha: "01/03/2026", Pedidos: 2, Faltantes: 10}},
			EstadoFulfillment: []reports.LineClassCount{
				{Name: reports.LineComplete, Value: 4},
				{Name: reports.LinePartial, Value: 1},
			},
			ProductosTop:     []reports.ProductShortage{{Nombre: "SKU-9", CantidadSolicitada: 60, CantidadFaltante: 7, PorcentajeFaltante: 11.67}},
			PedidosRecientes: []reports.RecentOrder{{ID: "P3", Cliente: "ACME", Estado: "parcial", Fecha: "02/03/2026"}},
		},
	}
	out := newRenderer().Fulfillment(snap)

	assert.Contains(t, out, "2026-03-01 to 2026-03-02")
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "91.5 %")
	assert.Contains(t, out, "Completo: 4")
	assert.Contains(t, out, "01/03/2026")
	assert.Contains(t, out, "SKU-9")
	assert.Contains(t, out, "11.67 %")
	assert.Contains(t, out, "ACME")
	// no shortage categories
	assert.Contains(t, out, "No rows.")
}

func TestProductivity(t *testing.T) {
	snap := poller.Snapshot[reports.ProductivityReport]{
		Resource: "/productividad",
		HasData:  true,
		Data: reports.ProductivityReport{
			From: "2026-03-01", To: "2026-03-03", Operacion: "PICKING",
			Daily: []reports.ProductivityDay{{FechaOperativa: "2026-03-01", Unidades: 27, Movimientos: 3, UniXH: 18, MovXH: 2}},
			Cards: reports.ProductivityCards{Cajas: 12, UnidadesUOM: 6, Packs: 9, Operarios: 2, HorasPromedioPorOperario: 0.75},
			PerOperator: []reports.OperatorProductivity{
				{UsuarioID: "2", Legajo: "L-2", Operario: "Ana", Horas: 0.5, Movimientos: 4, Unidades: 12, UniXH: 24, MovXH: 8},
			},
		},
	}
	out := newRenderer().Productivity(snap)

	assert.Contains(t, out, "PICKING 2026-03-01 to 2026-03-03")
	assert.Contains(t, out, "Horas promedio")
	assert.Contains(t, out, "0.75")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "L-2")
}

func TestReceptionsBars(t *testing.T) {
	snap := poller.Snapshot[reports.ReceptionsReport]{
		Resource: "/recepciones",
		HasData:  true,
		Data: reports.ReceptionsReport{
			FechaInicio: "20260301", FechaFin: "20260302",
			Filtros: reports.ReceptionFilters{Proveedor: "Todos", SKU: "Todos"},
			RecepcionesPorDia: []reports.ReceptionPerDay{
				{Fecha: "01/03/2026", Dia: "01/03", Unidades: 10},
				{Fecha: "02/03/2026", Dia: "02/03", Unidades: 5},
			},
			TotalUnidades: 15, TotalDias: 2, PromedioDiario: 7.5,
		},
	}
	out := newRenderer().Receptions(snap)

	assert.Contains(t, out, "proveedor Todos")
	assert.Contains(t, out, "7.5")
	assert.Contains(t, out, "02/03/2026")
	assert.Equal(t, barWidth, len(bar(10, 10)))
	assert.Equal(t, barWidth/2, len(bar(5, 10)))
	assert.Empty(t, bar(0, 10))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "-", formatValue(nil))
	assert.Equal(t, "1,234.57", formatValue(1234.567))
	assert.Equal(t, "7", formatValue(7))
	assert.Equal(t, "text", formatValue("text"))
}
