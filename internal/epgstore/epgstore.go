// Package epgstore defines the narrow EPG store interface the grabber
// consumes (episode/season/broadcast upsert, keyed by content hash and by
// time) and ships a SQLite-backed reference implementation.
package epgstore

import "time"

// Channel is an opaque handle to an EPG channel object owned by the store.
type Channel interface{ URI() string }

// Episode is an opaque handle to an EPG episode object.
type Episode interface{ URI() string }

// Season is an opaque handle to an EPG season object.
type Season interface{ URI() string }

// Broadcast is an opaque handle to an EPG broadcast object.
type Broadcast interface{ URI() string }

// Store is the EPG store's consumed interface: channel/episode/season/
// broadcast upsert plus a coalesced update notification. The grabber's
// global lock is held across every call the core makes to this interface.
type Store interface {
	// ChannelFind resolves (or creates, if create is true) the EPG channel
	// identified by uri. changed reports whether the store's state was
	// mutated by this call.
	ChannelFind(uri string, create bool) (ch Channel, changed bool, ok bool)

	// Hash computes the content-addressed episode URI from title, summary,
	// and description. Returns ok=false if no URI could be derived (e.g.
	// all three fields are empty).
	Hash(title, summary, description string) (uri string, ok bool)

	// EpisodeFindByURI resolves (or creates) the episode at uri.
	EpisodeFindByURI(uri string, create bool) (ep Episode, changed bool)

	// EpisodeSetFields applies title/summary/description/genre to ep and
	// reports whether anything changed.
	EpisodeSetFields(ep Episode, title, summary, description string, genre byte) (changed bool)

	// EpisodeSetSeason binds season to ep, only when ep has no season yet
	// (season binding is deliberately conditional on absence).
	EpisodeSetSeason(ep Episode, season Season) (changed bool)

	// SeasonFindByURI resolves (or creates) the season at uri.
	SeasonFindByURI(uri string, create bool) (season Season, changed bool)

	// BroadcastFindByTime resolves (or creates) the broadcast on channel
	// spanning [start, stop) for eventID.
	BroadcastFindByTime(ch Channel, start, stop time.Time, eventID uint16, create bool) (b Broadcast, changed bool)

	// BroadcastSetEpisode binds ep to b and reports whether anything
	// changed.
	BroadcastSetEpisode(b Broadcast, ep Episode) (changed bool)

	// Updated signals a coalesced epg_updated notification; the store
	// implementation is responsible for any rate limiting.
	Updated()
}
