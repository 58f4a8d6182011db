package grabber

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opentvepg/grabber/internal/metrics"
	"github.com/opentvepg/grabber/internal/svcmgr"
)

func TestIngestHandlerRoutesToRegistry(t *testing.T) {
	p := testProvider(t)
	store := newFakeStore()
	lookup := svcmgr.NewStaticRegistry()
	reg := NewRegistry(store, lookup, metrics.New())
	mod := reg.AddModule(p, time.Hour, 10*time.Minute)

	body := make([]byte, 20)
	req := httptest.NewRequest("POST", "/sections/sky1?pid=999&table_id=74", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	reg.IngestHandler().ServeHTTP(rec, req)

	if rec.Code != 204 {
		t.Fatalf("status=%d want 204", rec.Code)
	}
	if mod.partials.Len() != 0 {
		t.Fatalf("unroutable section should not mutate partial store")
	}
}

func TestIngestHandlerRejectsBadMethod(t *testing.T) {
	store := newFakeStore()
	lookup := svcmgr.NewStaticRegistry()
	reg := NewRegistry(store, lookup, metrics.New())
	req := httptest.NewRequest("GET", "/sections/sky1?pid=1&table_id=1", nil)
	rec := httptest.NewRecorder()
	reg.IngestHandler().ServeHTTP(rec, req)
	if rec.Code != 405 {
		t.Fatalf("status=%d want 405", rec.Code)
	}
}
