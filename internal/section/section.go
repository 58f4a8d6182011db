// Package section demultiplexes incoming DVB private-section payloads by
// (pid, table_id) into the BAT and event decoders, mirroring the PID
// dispatch loop a transport-stream demux driver would otherwise perform.
package section

import "github.com/opentvepg/grabber/internal/provider"

// Kind identifies which decoder a routed section belongs to.
type Kind int

const (
	KindUnroutable Kind = iota
	KindBAT
	KindTitle
	KindSummary
)

const (
	tableBAT = 0x4A

	// high six bits of the title/summary table_id ranges.
	titleTableHigh   = 0xA0
	summaryTableHigh = 0xA8
	tableHighMask    = 0xFC

	minSectionLen = 20
)

// Route decides which decoder should receive payload, given the provider
// that owns pid. Sections shorter than 20 bytes are dropped without any
// state change, per the Section Router contract.
func Route(p *provider.Provider, pid uint16, tableID byte, payload []byte) Kind {
	if len(payload) < minSectionLen {
		return KindUnroutable
	}
	switch {
	case p.HasChannelPID(pid) && tableID == tableBAT:
		return KindBAT
	case p.HasTitlePID(pid) && tableID&tableHighMask == titleTableHigh:
		return KindTitle
	case p.HasSummaryPID(pid) && tableID&tableHighMask == summaryTableHigh:
		return KindSummary
	default:
		return KindUnroutable
	}
}
