package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesCounters(t *testing.T) {
	m := New()
	m.SectionsRouted.WithLabelValues("sky1", "bat").Inc()
	m.Revolutions.WithLabelValues("sky1").Inc()
	m.PendingPartials.WithLabelValues("sky1").Set(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "opentvgrab_sections_routed_total") {
		t.Fatalf("missing sections_routed metric in output:\n%s", body)
	}
	if !strings.Contains(body, `provider="sky1"`) {
		t.Fatalf("missing provider label in output:\n%s", body)
	}
}
