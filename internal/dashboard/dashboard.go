// Package dashboard renders report snapshots for a terminal.
package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"bidash/internal/poller"
)

const (
	defaultWidth = 100
	cardWidth    = 24
)

// Renderer turns poller snapshots into printable frames.
type Renderer struct {
	width int
	now   func() time.Time

	Title   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Card    lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
}

// New creates a renderer for a terminal width columns wide. Styling is
// skipped when styled is false; now defaults to time.Now.
func New(width int, styled bool, now func() time.Time) *Renderer {
	if width < 40 {
		width = defaultWidth
	}
	if now == nil {
		now = time.Now
	}
	r := &Renderer{width: width, now: now}

	if styled {
		r.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
		r.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#737aa2"))
		r.Error = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
		r.Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
		r.Success = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
		r.Header = lipgloss.NewStyle().Bold(true).Padding(0, 1)
		r.Cell = lipgloss.NewStyle().Padding(0, 1)
		r.Label = lipgloss.NewStyle().Foreground(lipgloss.Color("#737aa2"))
		r.Value = lipgloss.NewStyle().Bold(true)
		r.Card = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b4261")).
			Padding(0, 1).
			Width(cardWidth)
	} else {
		r.Title = lipgloss.NewStyle()
		r.Muted = lipgloss.NewStyle()
		r.Error = lipgloss.NewStyle()
		r.Warning = lipgloss.NewStyle()
		r.Success = lipgloss.NewStyle()
		r.Header = lipgloss.NewStyle().Padding(0, 1)
		r.Cell = lipgloss.NewStyle().Padding(0, 1)
		r.Label = lipgloss.NewStyle()
		r.Value = lipgloss.NewStyle()
		r.Card = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(cardWidth)
	}
	return r
}

// frame lays out the header, the phase message and, once data exists, the
// report body. Data loaded earlier stays on screen when a refresh fails.
func frame[T any](r *Renderer, title string, snap poller.Snapshot[T], body func(T) string) string {
	var b strings.Builder
	b.WriteString(r.header(title, snap.Phase(), snap.LastUpdatedAt))
	b.WriteString("\n\n")

	switch snap.Phase() {
	case poller.PhaseIdle:
		b.WriteString(r.Muted.Render("Nothing selected."))
	case poller.PhaseTornDown:
		b.WriteString(r.Muted.Render("Stopped."))
	case poller.PhaseFirstFetchPending:
		b.WriteString(r.Muted.Render("Loading..."))
		if snap.Err != "" {
			b.WriteString("\n")
			b.WriteString(r.Error.Render("Last attempt failed: " + snap.Err))
		}
	case poller.PhaseFirstFetchFailed:
		b.WriteString(r.Error.Render("Could not load data: " + snap.Err))
	default:
		if snap.Err != "" {
			b.WriteString(r.Warning.Render("Showing the last good data. Refresh failed: " + snap.Err))
			b.WriteString("\n\n")
		}
		b.WriteString(body(snap.Data))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (r *Renderer) header(title string, phase poller.Phase, lastUpdated time.Time) string {
	parts := []string{r.Title.Render(title), r.phaseLabel(phase)}
	if !lastUpdated.IsZero() {
		parts = append(parts, r.Muted.Render("updated "+humanize.RelTime(lastUpdated, r.now(), "ago", "from now")))
	}
	return strings.Join(parts, r.Muted.Render("  |  "))
}

func (r *Renderer) phaseLabel(p poller.Phase) string {
	switch p {
	case poller.PhaseFresh:
		return r.Success.Render("live")
	case poller.PhaseStale:
		return r.Warning.Render("stale")
	case poller.PhaseRefreshPending:
		return r.Muted.Render("refreshing")
	case poller.PhaseFirstFetchPending:
		return r.Muted.Render("loading")
	case poller.PhaseFirstFetchFailed:
		return r.Error.Render("failed")
	case poller.PhaseTornDown:
		return r.Muted.Render("stopped")
	default:
		return r.Muted.Render("idle")
	}
}

type card struct {
	label string
	value string
	note  string
}

// cards lays cards out in rows that fit the renderer width.
func (r *Renderer) cards(cs []card) string {
	perRow := r.width / (cardWidth + 4)
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for start := 0; start < len(cs); start += perRow {
		end := min(start+perRow, len(cs))
		boxes := make([]string, 0, end-start)
		for _, c := range cs[start:end] {
			lines := []string{r.Label.Render(c.label), r.Value.Render(c.value)}
			if c.note != "" {
				lines = append(lines, c.note)
			}
			boxes = append(boxes, r.Card.Render(strings.Join(lines, "\n")))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// table renders rows under headers, or a muted placeholder when empty.
func (r *Renderer) table(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(r.Title.Render(title))
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(r.Muted.Render("No rows."))
		return b.String()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.Muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			return r.Cell
		})
	b.WriteString(t.String())
	return b.String()
}

func sections(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
