package poller

import "time"

// Phase names where a Poller is in its lifecycle.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseFirstFetchPending Phase = "first-fetch-pending"
	PhaseFirstFetchFailed  Phase = "first-fetch-failed"
	PhaseFresh             Phase = "fresh"
	PhaseStale             Phase = "stale"
	PhaseRefreshPending    Phase = "refresh-pending"
	PhaseTornDown          Phase = "torn-down"
)

// Snapshot is the observable state of a Poller.
type Snapshot[T any] struct {
	// Resource is being polled. Empty means idle.
	Resource string
	// Data is the last successful result, valid when HasData is set.
	Data    T
	HasData bool
	// Err is the last failure. Only a success clears it.
	Err string
	// Loading is set while an attempt runs and no data has arrived yet.
	Loading bool
	// Updating is set while an attempt runs over existing data.
	Updating      bool
	LastUpdatedAt time.Time
	Closed        bool
	// Version increases with every published change.
	Version uint64
}

// Phase derives the lifecycle phase from the snapshot's flags.
func (s Snapshot[T]) Phase() Phase {
	switch {
	case s.Closed:
		return PhaseTornDown
	case s.Resource == "":
		return PhaseIdle
	case s.Updating:
		return PhaseRefreshPending
	case s.Loading:
		return PhaseFirstFetchPending
	case s.HasData && s.Err != "":
		return PhaseStale
	case s.HasData:
		return PhaseFresh
	case s.Err != "":
		return PhaseFirstFetchFailed
	default:
		return PhaseFirstFetchPending
	}
}
