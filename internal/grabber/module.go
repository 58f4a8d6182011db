// Package grabber owns per-provider orchestration: carousel tracking,
// partial-event joining, BAT-derived channel bindings, and the single
// global lock that serializes every section-callback state mutation
// across every provider's module.
package grabber

import (
	"time"

	"github.com/google/uuid"

	"github.com/opentvepg/grabber/internal/carousel"
	"github.com/opentvepg/grabber/internal/partialstore"
	"github.com/opentvepg/grabber/internal/provider"
)

// Module is one provider's live grabbing state: its carousel progress,
// its pending title/summary joins, and the channel-id to service-name
// bindings discovered from its BAT. A Module never locks internally — the
// owning Registry's global lock guards all of it.
type Module struct {
	Provider *provider.Provider

	// RunID is a per-module diagnostic identifier, stamped once at
	// construction, used only in log lines for correlating a module's
	// revolutions across a run. It carries no wire meaning.
	RunID uuid.UUID

	tracker    *carousel.Tracker
	partials   *partialstore.Store
	channels   map[uint16]string // channel_id -> service name, from BAT bindings
	scanPeriod time.Duration
}

// newModule allocates a Module's in-memory state for p. It has no
// persistence step and performs no I/O, matching opentv_load's no-op
// contract: all loading already happened via config + provider.Load. The
// first pass begins here, so its per-pass budget runs from construction.
func newModule(p *provider.Provider, scanPeriod, scanMax time.Duration) *Module {
	pids := make([]uint16, 0, len(p.ChannelPIDs)+len(p.TitlePIDs)+len(p.SummaryPIDs))
	pids = append(pids, p.ChannelPIDs...)
	pids = append(pids, p.TitlePIDs...)
	pids = append(pids, p.SummaryPIDs...)
	tracker := carousel.New(pids, scanMax)
	tracker.Reset()
	return &Module{
		Provider:   p,
		RunID:      uuid.New(),
		tracker:    tracker,
		partials:   partialstore.New(),
		channels:   make(map[uint16]string),
		scanPeriod: scanPeriod,
	}
}

// channelName returns the service name bound to channelID by the most
// recent BAT decode, or "" if the channel has never been seen.
func (m *Module) channelName(channelID uint16) string {
	return m.channels[channelID]
}
