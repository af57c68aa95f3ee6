// FILE: internal/app/cache.go
package app

import (
	"time"

	"github.com/jonboulle/clockwork"

	"bidash/internal/cache"
	"bidash/internal/gateway"
	"bidash/internal/reports"
)

// reportCaches holds one cache-backed gateway per report type.
type reportCaches struct {
	status       *gateway.Gateway[reports.StatusReport]
	detail       *gateway.Gateway[reports.DetailReport]
	fulfillment  *gateway.Gateway[reports.FulfillmentReport]
	productivity *gateway.Gateway[reports.ProductivityReport]
	receptions   *gateway.Gateway[reports.ReceptionsReport]
}

// newReportCaches creates the caches, all sharing ttl and clock.
func newReportCaches(ttl time.Duration, clock clockwork.Clock) *reportCaches {
	opt := cache.WithClock(clock)
	return &reportCaches{
		status:       gateway.New("status", cache.New[reports.StatusReport](ttl, opt)),
		detail:       gateway.New("detail", cache.New[reports.DetailReport](ttl, opt)),
		fulfillment:  gateway.New("fulfillment", cache.New[reports.FulfillmentReport](ttl, opt)),
		productivity: gateway.New("productividad", cache.New[reports.ProductivityReport](ttl, opt)),
		receptions:   gateway.New("recepciones", cache.New[reports.ReceptionsReport](ttl, opt)),
	}
}

// sizes returns the number of entries per cache, expired ones included.
func (c *reportCaches) sizes() map[string]int {
	return map[string]int{
		c.status.Name():       c.status.Len(),
		c.detail.Name():       c.detail.Len(),
		c.fulfillment.Name():  c.fulfillment.Len(),
		c.productivity.Name(): c.productivity.Len(),
		c.receptions.Name():   c.receptions.Len(),
	}
}
