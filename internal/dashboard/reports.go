package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"bidash/internal/poller"
	"bidash/internal/reports"
)

const barWidth = 30

// Status renders the KPI cards of a sector.
func (r *Renderer) Status(snap poller.Snapshot[reports.StatusReport]) string {
	return frame(r, "Status", snap, func(rep reports.StatusReport) string {
		cs := make([]card, 0, len(rep.KPIs))
		for _, k := range rep.KPIs {
			value := formatValue(k.Value)
			if k.Unit != "" {
				value += " " + k.Unit
			}
			cs = append(cs, card{label: k.Label, value: value, note: r.kpiStatus(k.Status)})
		}
		var notes []string
		for _, n := range rep.Notes {
			notes = append(notes, r.Muted.Render("* "+n))
		}
		return sections(
			r.meta(rep.Sector, rep.DatabaseName, rep.ReplicationLagMinutes, rep.Mock),
			r.cards(cs),
			strings.Join(notes, "\n"),
		)
	})
}

// Detail renders every detail table of a sector.
func (r *Renderer) Detail(snap poller.Snapshot[reports.DetailReport]) string {
	return frame(r, "Detail", snap, func(rep reports.DetailReport) string {
		parts := []string{r.meta(rep.Sector, "", rep.ReplicationLagMinutes, rep.Mock)}
		for _, t := range rep.Tables {
			rows := make([][]string, 0, len(t.Rows))
			for _, row := range t.Rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = formatValue(v)
				}
				rows = append(rows, cells)
			}
			title := t.Title
			if title == "" {
				title = t.Key
			}
			parts = append(parts, r.table(title, t.Columns, rows))
		}
		if len(rep.Tables) == 0 {
			parts = append(parts, r.Muted.Render("No tables."))
		}
		return sections(parts...)
	})
}

// Fulfillment renders order fulfillment for a date range.
func (r *Renderer) Fulfillment(snap poller.Snapshot[reports.FulfillmentReport]) string {
	return frame(r, "Fulfillment", snap, func(rep reports.FulfillmentReport) string {
		cards := r.cards([]card{
			{label: "Pedidos", value: humanize.Comma(rep.TotalPedidos)},
			{label: "Solicitado", value: number(rep.TotalSolicitado)},
			{label: "Faltantes", value: number(rep.TotalFaltantes)},
			{label: "Satisfaccion", value: number(rep.TasaSatisfaccion) + " %"},
		})

		days := make([][]string, 0, len(rep.PedidosPorDia))
		for _, d := range rep.PedidosPorDia {
			days = append(days, []string{d.Fecha, humanize.Comma(d.Pedidos), number(d.Faltantes)})
		}
		mix := make([]string, 0, len(rep.EstadoFulfillment))
		for _, m := range rep.EstadoFulfillment {
			mix = append(mix, fmt.Sprintf("%s: %s", m.Name, humanize.Comma(m.Value)))
		}
		shortage := make([][]string, 0, len(rep.ProductosConShortage))
		for _, s := range rep.ProductosConShortage {
			shortage = append(shortage, []string{s.Categoria, number(s.Monto), humanize.Comma(s.Cantidad)})
		}
		top := make([][]string, 0, len(rep.ProductosTop))
		for _, p := range rep.ProductosTop {
			top = append(top, []string{p.Nombre, number(p.CantidadSolicitada), number(p.CantidadFaltante), number(p.PorcentajeFaltante) + " %"})
		}
		recent := make([][]string, 0, len(rep.PedidosRecientes))
		for _, o := range rep.PedidosRecientes {
			recent = append(recent, []string{o.ID, o.Cliente, o.Fecha, number(o.MontoFaltante), o.Estado})
		}

		meta := r.Muted.Render(fmt.Sprintf("%s to %s  |  DB %s", rep.FechaInicio, rep.FechaFin, rep.DatabaseName))
		if rep.Mock {
			meta += "  " + r.Warning.Render("[mock data]")
		}
		return sections(
			meta,
			cards,
			r.Label.Render("Lineas: ")+strings.Join(mix, "  "),
			r.table("Pedidos por dia", []string{"Fecha", "Pedidos", "Faltantes"}, days),
			r.table("Articulos con faltante", []string{"Articulo", "Faltante", "Pedidos"}, shortage),
			r.table("Peor relacion", []string{"Articulo", "Solicitado", "Faltante", "%"}, top),
			r.table("Pedidos recientes", []string{"Pedido", "Cliente", "Fecha", "Faltante", "Estado"}, recent),
		)
	})
}

// Productivity renders picking productivity per day and per operator.
func (r *Renderer) Productivity(snap poller.Snapshot[reports.ProductivityReport]) string {
	return frame(r, "Productividad", snap, func(rep reports.ProductivityReport) string {
		c := rep.Cards
		cards := r.cards([]card{
			{label: "Cajas", value: number(c.Cajas)},
			{label: "Unidades", value: number(c.UnidadesUOM)},
			{label: "Packs", value: number(c.Packs)},
			{label: "Operarios", value: humanize.Comma(c.Operarios)},
			{label: "Horas promedio", value: number(c.HorasPromedioPorOperario)},
		})

		daily := make([][]string, 0, len(rep.Daily))
		for _, d := range rep.Daily {
			daily = append(daily, []string{
				d.FechaOperativa, number(d.Unidades), humanize.Comma(d.Movimientos),
				number(d.UniXH), number(d.MovXH),
			})
		}
		ops := make([][]string, 0, len(rep.PerOperator))
		for _, o := range rep.PerOperator {
			ops = append(ops, []string{
				o.Operario, o.Legajo, number(o.Horas), humanize.Comma(o.Movimientos),
				number(o.Unidades), number(o.UniXH), number(o.MovXH),
			})
		}

		return sections(
			r.Muted.Render(fmt.Sprintf("%s %s to %s", rep.Operacion, rep.From, rep.To)),
			cards,
			r.table("Por dia", []string{"Fecha", "Unidades", "Movimientos", "Uni/h", "Mov/h"}, daily),
			r.table("Por operario", []string{"Operario", "Legajo", "Horas", "Movimientos", "Unidades", "Uni/h", "Mov/h"}, ops),
		)
	})
}

// Receptions renders received units per day with a bar per day.
func (r *Renderer) Receptions(snap poller.Snapshot[reports.ReceptionsReport]) string {
	return frame(r, "Recepciones", snap, func(rep reports.ReceptionsReport) string {
		cards := r.cards([]card{
			{label: "Unidades", value: number(rep.TotalUnidades)},
			{label: "Dias", value: strconv.Itoa(rep.TotalDias)},
			{label: "Promedio diario", value: number(rep.PromedioDiario)},
		})

		var peak float64
		for _, d := range rep.RecepcionesPorDia {
			peak = max(peak, d.Unidades)
		}
		days := make([][]string, 0, len(rep.RecepcionesPorDia))
		for _, d := range rep.RecepcionesPorDia {
			days = append(days, []string{d.Fecha, number(d.Unidades), r.Success.Render(bar(d.Unidades, peak))})
		}

		meta := fmt.Sprintf("%s to %s  |  proveedor %s  |  sku %s",
			rep.FechaInicio, rep.FechaFin, rep.Filtros.Proveedor, rep.Filtros.SKU)
		return sections(
			r.Muted.Render(meta),
			cards,
			r.table("Por dia", []string{"Fecha", "Unidades", ""}, days),
		)
	})
}

func (r *Renderer) meta(sector, database string, lag *float64, mock bool) string {
	parts := []string{"sector " + sector}
	if database != "" {
		parts = append(parts, "DB "+database)
	}
	if lag != nil {
		parts = append(parts, "lag "+number(*lag)+" min")
	}
	out := r.Muted.Render(strings.Join(parts, "  |  "))
	if mock {
		out += "  " + r.Warning.Render("[mock data]")
	}
	return out
}

func (r *Renderer) kpiStatus(status string) string {
	switch status {
	case reports.StatusRed:
		return r.Error.Render(status)
	case reports.StatusAmber:
		return r.Warning.Render(status)
	default:
		return r.Success.Render(status)
	}
}

func bar(v, peak float64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(v / peak * barWidth)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

func number(v float64) string {
	return humanize.CommafWithDigits(math.Round(v*100)/100, 2)
}

// formatValue prints a decoded JSON scalar.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return number(x)
	case int64:
		return humanize.Comma(x)
	case int:
		return humanize.Comma(int64(x))
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
