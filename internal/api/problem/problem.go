// Package problem writes RFC 7807 problem+json error bodies.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/observability"
)

const (
	contentType = "application/problem+json"
	baseTypeURL = "https://errors.exchange-brokerage.dev/"
)

// Details is the problem document. TraceID echoes the X-Trace-ID of the
// request so clients can quote it in support requests.
type Details struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
	TraceID  string `json:"trace_id,omitempty"`
}

// Type expands a slug such as "order/not-found" into a problem type URI.
func Type(slug string) string {
	return baseTypeURL + slug
}

// Write sends a problem document. An empty title defaults to the status text.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	d := Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if d.Type == "" {
		d.Type = "about:blank"
	}
	if d.Title == "" {
		d.Title = http.StatusText(status)
	}
	if r != nil {
		d.Instance = r.URL.Path
		d.TraceID = observability.TraceID(r.Context())
	}
	if d.TraceID == "" {
		d.TraceID = w.Header().Get("X-Trace-ID")
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
