package reports

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"bidash/internal/apperr"
	"bidash/internal/cachekey"
)

// Request is implemented by the parameters of every report.
type Request interface {
	// Key is the cache key of the request.
	Key() string
	// ExplicitRange reports whether the caller narrowed the query to a
	// date range of its own, which caps the cache TTL.
	ExplicitRange() bool
}

// Operation names accepted by the productivity report.
const OperationPicking = "PICKING"

// StatusParams selects the KPI summary of one sector.
type StatusParams struct {
	Sector string
}

func (p StatusParams) Key() string {
	return cachekey.Build("status", cachekey.Params{"sector": p.Sector})
}

func (p StatusParams) ExplicitRange() bool { return false }

// DetailParams selects the detail tables of one sector.
type DetailParams struct {
	Sector string
}

func (p DetailParams) Key() string {
	return cachekey.Build("detail", cachekey.Params{"sector": p.Sector})
}

func (p DetailParams) ExplicitRange() bool { return false }

// ParseStatusParams reads ?sector= and checks it against allowed.
// An empty allowed list accepts any sector.
func ParseStatusParams(q url.Values, allowed []string) (StatusParams, error) {
	sector, err := parseSector(q, allowed)
	return StatusParams{Sector: sector}, err
}

// ParseDetailParams reads ?sector= and checks it against allowed.
func ParseDetailParams(q url.Values, allowed []string) (DetailParams, error) {
	sector, err := parseSector(q, allowed)
	return DetailParams{Sector: sector}, err
}

func parseSector(q url.Values, allowed []string) (string, error) {
	sector := strings.TrimSpace(q.Get("sector"))
	if sector == "" {
		return "", apperr.New(apperr.CodeMissingSector, "Query string 'sector' is required.")
	}
	if len(allowed) > 0 && !slices.Contains(allowed, sector) {
		return "", apperr.New(apperr.CodeInvalidSector, "Sector is not in the allowed list.")
	}
	return sector, nil
}

// FulfillmentParams is an inclusive range of date keys (YYYYMMDD).
type FulfillmentParams struct {
	From     int
	To       int
	Explicit bool
}

func (p FulfillmentParams) Key() string {
	return cachekey.Build("fulfillment", cachekey.Params{
		"from": strconv.Itoa(p.From),
		"to":   strconv.Itoa(p.To),
	})
}

func (p FulfillmentParams) ExplicitRange() bool { return p.Explicit }

// ParseFulfillmentParams reads ?fechaInicio=&fechaFin=. Either bound may be
// omitted; the missing ones come from a window of windowDays ending today
// in loc.
func ParseFulfillmentParams(q url.Values, now time.Time, loc *time.Location, windowDays int) (FulfillmentParams, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	rawFrom := strings.TrimSpace(q.Get("fechaInicio"))
	rawTo := strings.TrimSpace(q.Get("fechaFin"))

	from := today.AddDate(0, 0, -windowDays)
	to := today
	if rawFrom != "" {
		t, ok := parseDate(rawFrom)
		if !ok {
			return FulfillmentParams{}, apperr.New(apperr.CodeInvalidDates, "fechaInicio is not a valid date.")
		}
		from = t
	}
	if rawTo != "" {
		t, ok := parseDate(rawTo)
		if !ok {
			return FulfillmentParams{}, apperr.New(apperr.CodeInvalidDates, "fechaFin is not a valid date.")
		}
		to = t
	}
	if from.After(to) {
		return FulfillmentParams{}, apperr.New(apperr.CodeInvalidDateRange, "La fecha de inicio no puede ser mayor a la fecha de fin")
	}
	return FulfillmentParams{
		From:     dateKey(from),
		To:       dateKey(to),
		Explicit: rawFrom != "" && rawTo != "",
	}, nil
}

// ProductivityParams selects one operation over the half-open day range
// [From, To), both YYYY-MM-DD.
type ProductivityParams struct {
	Operation string
	From      string
	To        string
}

func (p ProductivityParams) Key() string {
	return cachekey.Build("productividad", cachekey.Params{
		"operacion": p.Operation,
		"from":      p.From,
		"to":        p.To,
	})
}

func (p ProductivityParams) ExplicitRange() bool { return true }

// ParseProductivityParams reads ?operacion=&from=&to=. Timestamps are cut at
// the "T" so ISO datetimes select whole days.
func ParseProductivityParams(q url.Values) (ProductivityParams, error) {
	op := strings.ToUpper(strings.TrimSpace(q.Get("operacion")))
	if op != OperationPicking {
		return ProductivityParams{}, apperr.New(apperr.CodeInvalidOperation, "Operación no válida. Solo PICKING es soportado.")
	}

	from, okFrom := dayOf(q.Get("from"))
	to, okTo := dayOf(q.Get("to"))
	if !okFrom || !okTo {
		return ProductivityParams{}, apperr.New(apperr.CodeInvalidDates, "Se requieren fechas from y to")
	}
	if from > to {
		return ProductivityParams{}, apperr.New(apperr.CodeInvalidDateRange, "from must not be after to")
	}
	return ProductivityParams{Operation: op, From: from, To: to}, nil
}

func dayOf(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		raw = raw[:i]
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// ReceptionsParams is an inclusive day range with optional supplier and
// SKU substring filters.
type ReceptionsParams struct {
	From     string
	To       string
	Supplier string
	SKU      string
}

func (p ReceptionsParams) Key() string {
	return cachekey.Build("recepciones", cachekey.Params{
		"from":      p.From,
		"to":        p.To,
		"proveedor": p.Supplier,
		"sku":       p.SKU,
	})
}

func (p ReceptionsParams) ExplicitRange() bool { return true }

// ParseReceptionsParams reads ?fechaInicio=&fechaFin=&proveedor=&sku=.
// Both dates are required.
func ParseReceptionsParams(q url.Values) (ReceptionsParams, error) {
	rawFrom := strings.TrimSpace(q.Get("fechaInicio"))
	rawTo := strings.TrimSpace(q.Get("fechaFin"))
	if rawFrom == "" || rawTo == "" {
		return ReceptionsParams{}, apperr.New(apperr.CodeInvalidDates, "Faltan parámetros requeridos: fechaInicio, fechaFin")
	}
	from, okFrom := parseDate(rawFrom)
	to, okTo := parseDate(rawTo)
	if !okFrom || !okTo {
		return ReceptionsParams{}, apperr.New(apperr.CodeInvalidDates, "fechaInicio and fechaFin must be dates.")
	}
	if from.After(to) {
		return ReceptionsParams{}, apperr.New(apperr.CodeInvalidDateRange, "La fecha de inicio no puede ser mayor a la fecha de fin")
	}
	return ReceptionsParams{
		From:     from.Format(time.DateOnly),
		To:       to.Format(time.DateOnly),
		Supplier: strings.TrimSpace(q.Get("proveedor")),
		SKU:      strings.TrimSpace(q.Get("sku")),
	}, nil
}

var dateLayouts = []string{time.DateOnly, "2/1/2006", "20060102"}

// parseDate accepts YYYY-MM-DD, DD/MM/YYYY and YYYYMMDD.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func fromDateKey(k int64) time.Time {
	return time.Date(int(k/10000), time.Month(k%10000/100), int(k%100), 0, 0, 0, 0, time.UTC)
}
