// Package svcmgr defines the narrow interface the grabber consumes from
// an external service manager (channel/service lifecycle, out of scope for
// this repository) and ships a reference implementation for standalone
// use and tests.
package svcmgr

// Channel is the external collaborator's notion of a logical channel.
type Channel interface {
	Name() string
}

// Service is the external collaborator's notion of a broadcast service,
// identified by the DVB (tsid, sid) pair.
type Service interface {
	Channel() (Channel, bool)
}

// Lookup is the narrow interface the BAT decoder (C5) requires from the
// external service manager: resolve a broadcast service by its transport
// stream id and service id.
type Lookup interface {
	FindService(tsid, sid uint16) (Service, bool)
}
