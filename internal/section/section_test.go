package section

import (
	"testing"

	"github.com/opentvepg/grabber/internal/provider"
)

func testProvider() *provider.Provider {
	return &provider.Provider{
		ID:          "p1",
		ChannelPIDs: []uint16{600},
		TitlePIDs:   []uint16{610, 611},
		SummaryPIDs: []uint16{620},
	}
}

func pad(n int) []byte { return make([]byte, n) }

func TestRouteBAT(t *testing.T) {
	p := testProvider()
	if got := Route(p, 600, 0x4A, pad(20)); got != KindBAT {
		t.Fatalf("Route=%v want KindBAT", got)
	}
}

func TestRouteTitleAcceptsHighSixBits(t *testing.T) {
	p := testProvider()
	for _, tid := range []byte{0xA0, 0xA1, 0xA3} {
		if got := Route(p, 611, tid, pad(20)); got != KindTitle {
			t.Fatalf("table_id=%#x Route=%v want KindTitle", tid, got)
		}
	}
}

func TestRouteSummary(t *testing.T) {
	p := testProvider()
	if got := Route(p, 620, 0xA9, pad(20)); got != KindSummary {
		t.Fatalf("Route=%v want KindSummary", got)
	}
}

func TestRouteShortSectionDropped(t *testing.T) {
	p := testProvider()
	if got := Route(p, 600, 0x4A, pad(19)); got != KindUnroutable {
		t.Fatalf("Route=%v want KindUnroutable for 19-byte section", got)
	}
}

func TestRouteUnknownPID(t *testing.T) {
	p := testProvider()
	if got := Route(p, 999, 0x4A, pad(20)); got != KindUnroutable {
		t.Fatalf("Route=%v want KindUnroutable for unrecognised pid", got)
	}
}
