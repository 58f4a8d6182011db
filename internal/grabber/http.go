package grabber

import (
	"io"
	"net/http"
	"strconv"
)

// IngestHandler returns an http.Handler that accepts raw section bytes as
// a POST body and hands them to Registry.IngestSection, so the daemon is
// runnable and testable without a real DVB demux driver wired in. The
// actual transport-stream demux feeding this endpoint is outside this
// repository's scope, same as the service manager on the other side of
// svcmgr.Lookup.
//
// POST /sections/{provider}?pid=<uint16>&table_id=<uint8>
func (r *Registry) IngestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		providerID := req.URL.Path[len("/sections/"):]
		if providerID == "" {
			http.Error(w, "missing provider id", http.StatusBadRequest)
			return
		}
		pid, err := strconv.ParseUint(req.URL.Query().Get("pid"), 10, 16)
		if err != nil {
			http.Error(w, "invalid pid", http.StatusBadRequest)
			return
		}
		tableID, err := strconv.ParseUint(req.URL.Query().Get("table_id"), 10, 8)
		if err != nil {
			http.Error(w, "invalid table_id", http.StatusBadRequest)
			return
		}
		payload, err := io.ReadAll(io.LimitReader(req.Body, 4096))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		r.IngestSection(providerID, uint16(pid), byte(tableID), payload)
		w.WriteHeader(http.StatusNoContent)
	})
}
