// Package api implements the HTTP lookup surface: GET/POST /lookup over the
// committed dataset snapshot and GET /health. Handlers are stateless; every
// request resolves against whatever snapshot is committed at that instant and
// never waits for, or triggers, a refresh.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/countries"
	"github.com/asnlab/asninfo/pkg/metrics"
)

// timeFormat matches the RFC3339 millisecond timestamps the API has always
// emitted.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Handler serves lookup and health requests over the snapshot store.
type Handler struct {
	store   *asinfo.Store
	maxASNs int
	logger  *zap.Logger
	inst    *metrics.Instrumentation
}

// NewHandler builds the request handler. maxASNs bounds the number of ASNs
// accepted per request.
func NewHandler(store *asinfo.Store, maxASNs int, logger *zap.Logger, inst *metrics.Instrumentation) *Handler {
	return &Handler{store: store, maxASNs: maxASNs, logger: logger, inst: inst}
}

// recordOut is a Record with the derived country name attached. The name is
// looked up freshly per response so stored records never go stale against the
// country table.
type recordOut struct {
	*asinfo.Record
	CountryName string `json:"country_name"`
}

// lookupResponse is the structured response shape.
type lookupResponse struct {
	Data      []recordOut `json:"data"`
	Count     int         `json:"count"`
	UpdatedAt string      `json:"updatedAt"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports process status plus the committed snapshot's timestamp. It
// never triggers a refresh.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	updatedAt := ""
	if snap := h.store.Get(); snap != nil {
		updatedAt = snap.UpdatedAt().UTC().Format(timeFormat)
	}
	render.JSON(w, r, map[string]string{
		"status":    "ok",
		"updatedAt": updatedAt,
	})
}

// LookupGET handles GET /lookup?asns=A,B,C[&legacy=true].
func (h *Handler) LookupGET(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	asns := parseASNsParam(r.URL.Query().Get("asns"))
	if len(asns) == 0 {
		h.clientError(w, r, http.StatusBadRequest, "no valid ASNs provided in 'asns' query parameter", start)
		return
	}

	h.lookup(w, r, asns, start)
}

// LookupPOST handles POST /lookup with body {"asns": [...]}.
func (h *Handler) LookupPOST(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body struct {
		ASNs []uint32 `json:"asns"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.clientError(w, r, http.StatusBadRequest, "malformed request body", start)
		return
	}
	if len(body.ASNs) == 0 {
		h.clientError(w, r, http.StatusBadRequest, "no ASNs provided in request body", start)
		return
	}

	h.lookup(w, r, body.ASNs, start)
}

// lookup resolves the requested ASNs against the current snapshot and renders
// either the structured or the legacy shape. The legacy shape is a
// presentation transform over the same result, not a separate query path.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, asns []uint32, start time.Time) {
	legacy, _ := strconv.ParseBool(r.URL.Query().Get("legacy"))
	shape := "structured"
	if legacy {
		shape = "legacy"
	}

	if len(asns) > h.maxASNs {
		msg := fmt.Sprintf("payload too large, max ASNs per request is %d", h.maxASNs)
		h.observe(r.Method, shape, metrics.TooLarge, start)
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, errorResponse{Error: msg})
		return
	}

	snap := h.store.Get()
	if snap == nil {
		h.observe(r.Method, shape, metrics.NotReady, start)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{Error: "dataset not loaded"})
		return
	}

	found := snap.Lookup(asns)
	if h.inst != nil {
		h.inst.ObserveLookupASNs(len(asns), len(found))
	}
	h.observe(r.Method, shape, metrics.OK, start)

	if legacy {
		render.JSON(w, r, toLegacy(found))
		return
	}

	out := make([]recordOut, 0, len(found))
	for _, rec := range found {
		out = append(out, recordOut{Record: rec, CountryName: countries.Name(rec.CountryCode)})
	}
	render.JSON(w, r, lookupResponse{
		Data:      out,
		Count:     len(out),
		UpdatedAt: snap.UpdatedAt().UTC().Format(timeFormat),
		Page:      0,
		PageSize:  len(out),
	})
}

// toLegacy renders records in the flat shape kept for older consumers.
func toLegacy(records []*asinfo.Record) []asinfo.Simplified {
	out := make([]asinfo.Simplified, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Simplify(countries.Name(rec.CountryCode)))
	}
	return out
}

// parseASNsParam splits a comma-separated ASN list, silently dropping
// unparsable entries.
func parseASNsParam(raw string) []uint32 {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	asns := make([]uint32, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		asns = append(asns, uint32(n))
	}
	return asns
}

func (h *Handler) clientError(w http.ResponseWriter, r *http.Request, status int, msg string, start time.Time) {
	h.observe(r.Method, "structured", metrics.BadRequest, start)
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (h *Handler) observe(method, shape, outcome string, start time.Time) {
	if h.inst != nil {
		h.inst.ObserveLookup(method, shape, outcome, time.Since(start))
	}
}
