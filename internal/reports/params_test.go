package reports

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidash/internal/apperr"
)

func TestParseSector(t *testing.T) {
	p, err := ParseStatusParams(url.Values{"sector": {"  Sector-A "}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sector-A", p.Sector)
	assert.Equal(t, "status:sector=Sector-A", p.Key())

	_, err = ParseStatusParams(url.Values{"sector": {"   "}}, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeMissingSector))

	_, err = ParseDetailParams(url.Values{"sector": {"Sector-C"}}, []string{"Sector-A", "Sector-B"})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidSector))

	d, err := ParseDetailParams(url.Values{"sector": {"Sector-B"}}, []string{"Sector-A", "Sector-B"})
	require.NoError(t, err)
	assert.Equal(t, "detail:sector=Sector-B", d.Key())
	assert.False(t, d.ExplicitRange())
}

func TestParseFulfillmentParams(t *testing.T) {
	now := time.Date(2026, 2, 17, 2, 0, 0, 0, time.UTC)
	art := time.FixedZone("ART", -3*3600)

	t.Run("default window ends today in the configured zone", func(t *testing.T) {
		p, err := ParseFulfillmentParams(url.Values{}, now, art, 30)
		require.NoError(t, err)
		assert.Equal(t, 20260117, p.From)
		assert.Equal(t, 20260216, p.To)
		assert.False(t, p.ExplicitRange())
	})

	t.Run("accepts both date formats", func(t *testing.T) {
		p, err := ParseFulfillmentParams(url.Values{
			"fechaInicio": {"2026-01-01"},
			"fechaFin":    {"31/01/2026"},
		}, now, art, 30)
		require.NoError(t, err)
		assert.Equal(t, 20260101, p.From)
		assert.Equal(t, 20260131, p.To)
		assert.True(t, p.ExplicitRange())
		assert.Equal(t, "fulfillment:from=20260101&to=20260131", p.Key())
	})

	t.Run("single bound is not an explicit range", func(t *testing.T) {
		p, err := ParseFulfillmentParams(url.Values{"fechaInicio": {"1/2/2026"}}, now, art, 30)
		require.NoError(t, err)
		assert.Equal(t, 20260201, p.From)
		assert.Equal(t, 20260216, p.To)
		assert.False(t, p.ExplicitRange())
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := ParseFulfillmentParams(url.Values{
			"fechaInicio": {"2026-02-10"},
			"fechaFin":    {"2026-02-01"},
		}, now, art, 30)
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDateRange))
	})

	t.Run("garbage date", func(t *testing.T) {
		_, err := ParseFulfillmentParams(url.Values{"fechaFin": {"mañana"}}, now, art, 30)
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDates))
	})
}

func TestParseProductivityParams(t *testing.T) {
	p, err := ParseProductivityParams(url.Values{
		"operacion": {"picking"},
		"from":      {"2026-01-05T00:00:00.000Z"},
		"to":        {"2026-01-07"},
	})
	require.NoError(t, err)
	assert.Equal(t, ProductivityParams{Operation: OperationPicking, From: "2026-01-05", To: "2026-01-07"}, p)
	assert.True(t, p.ExplicitRange())
	assert.Equal(t, "productividad:from=2026-01-05&operacion=PICKING&to=2026-01-07", p.Key())

	_, err = ParseProductivityParams(url.Values{"operacion": {"PUTAWAY"}, "from": {"2026-01-05"}, "to": {"2026-01-07"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))

	_, err = ParseProductivityParams(url.Values{"operacion": {"PICKING"}, "from": {"2026-01-05"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDates))

	_, err = ParseProductivityParams(url.Values{"operacion": {"PICKING"}, "from": {"2026-01-08"}, "to": {"2026-01-07"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDateRange))
}

func TestParseReceptionsParams(t *testing.T) {
	p, err := ParseReceptionsParams(url.Values{
		"fechaInicio": {"20260105"},
		"fechaFin":    {"20260108"},
		"proveedor":   {" acme "},
	})
	require.NoError(t, err)
	assert.Equal(t, ReceptionsParams{From: "2026-01-05", To: "2026-01-08", Supplier: "acme"}, p)

	same, err := ParseReceptionsParams(url.Values{
		"proveedor":   {"acme"},
		"fechaFin":    {"2026-01-08"},
		"fechaInicio": {"2026-01-05"},
		"sku":         {""},
	})
	require.NoError(t, err)
	assert.Equal(t, p.Key(), same.Key())

	_, err = ParseReceptionsParams(url.Values{"fechaInicio": {"20260105"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDates))

	_, err = ParseReceptionsParams(url.Values{"fechaInicio": {"20261305"}, "fechaFin": {"20260108"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidDates))
}
