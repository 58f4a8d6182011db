package grabber

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/opentvepg/grabber/internal/bat"
	"github.com/opentvepg/grabber/internal/epgstore"
	"github.com/opentvepg/grabber/internal/event"
	"github.com/opentvepg/grabber/internal/metrics"
	"github.com/opentvepg/grabber/internal/partialstore"
	"github.com/opentvepg/grabber/internal/provider"
	"github.com/opentvepg/grabber/internal/section"
	"github.com/opentvepg/grabber/internal/svcmgr"
)

// Registry owns every provider's Module plus the single global lock that
// guards carousel state, partial-event joins, and BAT channel bindings
// across all of them, grounded on the context+WaitGroup lifecycle of a
// supervised set of long-running workers.
type Registry struct {
	mu      sync.Mutex // the global lock: held across section ingestion only, never I/O
	modules map[string]*Module

	store   epgstore.Store
	lookup  svcmgr.Lookup
	metrics *metrics.Metrics
}

// NewRegistry returns an empty Registry wired to the given EPG store,
// service lookup collaborator, and metrics.
func NewRegistry(store epgstore.Store, lookup svcmgr.Lookup, m *metrics.Metrics) *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		store:   store,
		lookup:  lookup,
		metrics: m,
	}
}

// AddModule registers a provider, allocating its carousel tracker and
// partial-event store. scanPeriod is the minimum gap between revolutions;
// scanMax is the per-pass budget after which a stalled revolution is
// forced to completion.
func (r *Registry) AddModule(p *provider.Provider, scanPeriod, scanMax time.Duration) *Module {
	mod := newModule(p, scanPeriod, scanMax)
	r.mu.Lock()
	r.modules[p.ID] = mod
	r.mu.Unlock()
	return mod
}

// Module returns the registered module for providerID, or nil.
func (r *Registry) Module(providerID string) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modules[providerID]
}

// IngestSection routes and processes one section observed on pid for
// providerID. Unrecognised (providerID, pid, table_id) combinations and
// sections under the 20-byte gate are dropped without any state mutation.
func (r *Registry) IngestSection(providerID string, pid uint16, tableID byte, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mod, ok := r.modules[providerID]
	if !ok {
		return
	}
	r.ingestLocked(mod, pid, tableID, payload)
}

func (r *Registry) ingestLocked(mod *Module, pid uint16, tableID byte, payload []byte) {
	kind := section.Route(mod.Provider, pid, tableID, payload)
	if kind == section.KindUnroutable {
		return
	}
	complete := mod.tracker.Observe(pid, payload)

	switch kind {
	case section.KindBAT:
		r.metrics.SectionsRouted.WithLabelValues(mod.Provider.ID, "bat").Inc()
		for _, b := range bat.Decode(payload, r.lookup) {
			mod.channels[b.ChannelID] = b.ServiceName
		}
	case section.KindTitle, section.KindSummary:
		role := event.RoleTitle
		component := "title"
		if kind == section.KindSummary {
			role = event.RoleSummary
			component = "summary"
		}
		r.metrics.SectionsRouted.WithLabelValues(mod.Provider.ID, component).Inc()
		channelID, _, events := event.ParseSection(payload)
		for _, ev := range events {
			p, done := event.Merge(mod.partials, mod.Provider.Dict, channelID, ev, role)
			if done {
				r.emitLocked(mod, channelID, ev.EventID, p)
			}
		}
	}

	r.metrics.PendingPartials.WithLabelValues(mod.Provider.ID).Set(float64(mod.partials.Len()))

	if complete {
		r.metrics.Revolutions.WithLabelValues(mod.Provider.ID).Inc()
		log.Printf("grabber[%s run=%s]: revolution complete", mod.Provider.ID, mod.RunID)
	}
}

// emitLocked materializes a completed partial event into the EPG store.
// Called with the global lock already held (the core interacts with
// epgstore.Store only while holding it). A channel never bound by any BAT
// decode is dropped here, at emission, rather than at parse time.
func (r *Registry) emitLocked(mod *Module, channelID, eventID uint16, p partialstore.Partial) {
	name := mod.channelName(channelID)
	if name == "" {
		r.metrics.DecodeFailures.WithLabelValues(mod.Provider.ID, "channel").Inc()
		return
	}

	chanURI := fmt.Sprintf("%s-%d", mod.Provider.ID, channelID)
	ch, chChanged, ok := r.store.ChannelFind(chanURI, true)
	if !ok {
		r.metrics.DecodeFailures.WithLabelValues(mod.Provider.ID, "channel").Inc()
		return
	}

	epURI, ok := r.store.Hash(p.Title, p.Summary, p.Description)
	if !ok {
		r.metrics.DecodeFailures.WithLabelValues(mod.Provider.ID, "episode").Inc()
		return
	}
	ep, epChanged := r.store.EpisodeFindByURI(epURI, true)
	save := chChanged || epChanged
	save = r.store.EpisodeSetFields(ep, p.Title, p.Summary, p.Description, p.Category) || save

	if p.SeriesLink != 0 {
		seasonURI := fmt.Sprintf("%s-%d-%d", mod.Provider.ID, channelID, p.SeriesLink)
		season, seasonChanged := r.store.SeasonFindByURI(seasonURI, true)
		save = r.store.EpisodeSetSeason(ep, season) || save || seasonChanged
	}

	b, bChanged := r.store.BroadcastFindByTime(ch, p.Start, p.Stop, eventID, true)
	save = r.store.BroadcastSetEpisode(b, ep) || save || bChanged
	r.metrics.EPGUpserts.WithLabelValues(mod.Provider.ID, "broadcast").Inc()
	if save {
		r.store.Updated()
	}
}

// Run drives every registered module's revolution scheduler until ctx is
// cancelled, grounded on the context+WaitGroup goroutine lifecycle of a
// supervised worker set. teardown is invoked (outside the global lock)
// whenever a module's carousel subscription should be torn down, i.e. on
// completion or when the per-pass budget elapses, whichever comes first.
func (r *Registry) Run(ctx context.Context, teardown func(providerID string)) {
	r.mu.Lock()
	mods := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		mods = append(mods, m)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, mod := range mods {
		wg.Add(1)
		go func(mod *Module) {
			defer wg.Done()
			r.runModuleLoop(ctx, mod, teardown)
		}(mod)
	}
	wg.Wait()
}

func (r *Registry) runModuleLoop(ctx context.Context, mod *Module, teardown func(string)) {
	const pollInterval = time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			ready := mod.tracker.AllComplete() || mod.tracker.BudgetExceeded()
			if ready {
				mod.tracker.Reset()
			}
			r.mu.Unlock()
			if !ready {
				continue
			}
			if teardown != nil {
				teardown(mod.Provider.ID)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(mod.scanPeriod):
			}
		}
	}
}
