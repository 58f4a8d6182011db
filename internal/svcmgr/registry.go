package svcmgr

import "sync"

// staticChannel is a minimal Channel implementation backed by a plain name.
type staticChannel struct {
	name string
}

func (c staticChannel) Name() string { return c.name }

// staticService binds a single channel, or none if the broadcast service
// exists but is not yet bound to any channel.
type staticService struct {
	channel staticChannel
	hasChan bool
}

func (s staticService) Channel() (Channel, bool) {
	if !s.hasChan {
		return nil, false
	}
	return s.channel, true
}

type tripletKey struct{ tsid, sid uint16 }

// StaticRegistry is a reference Lookup implementation keyed on the DVB
// (tsid, sid) pair, trimmed from a full DVB-triplet registry (which also
// carries original_network_id and fuzzy name matching) to only the shape
// the core's BAT decoder actually calls.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[tripletKey]staticService
}

// NewStaticRegistry returns an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{services: make(map[tripletKey]staticService)}
}

// Register binds (tsid, sid) to a channel name. An empty channelName
// registers the service as known but unbound (Service.Channel returns
// false), matching "broadcast service known but channel has no name yet".
func (r *StaticRegistry) Register(tsid, sid uint16, channelName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[tripletKey{tsid, sid}] = staticService{
		channel: staticChannel{name: channelName},
		hasChan: channelName != "",
	}
}

// FindService implements Lookup.
func (r *StaticRegistry) FindService(tsid, sid uint16) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[tripletKey{tsid, sid}]
	if !ok {
		return nil, false
	}
	return s, true
}
