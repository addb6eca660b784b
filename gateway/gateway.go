// Package gateway exposes the uRDF HTTP façade over the host's admin
// surface: store operations, queries, rules CRUD, the dictionary, the
// Prometheus exposition, and the websocket event mirror. JSON responses
// carry ok and a millisecond-precision ts, except /urdf/zurl (a bare IRI
// array) and /urdf/export (the JSON-LD dataset as an attachment).
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/c360/urdf/engine"
	pkgerrors "github.com/c360/urdf/errors"
	"github.com/c360/urdf/events"
	"github.com/c360/urdf/metric"
)

// maxRequestSize bounds request bodies; flow graphs are large but bounded.
const maxRequestSize = 64 << 20

// Gateway serves the /urdf endpoint set.
type Gateway struct {
	runtime *engine.Runtime
	events  *events.Publisher
	metrics *metric.Metrics
	logger  *slog.Logger
	hub     *Hub
}

// New creates a gateway over a runtime.
func New(runtime *engine.Runtime, publisher *events.Publisher, metrics *metric.Metrics, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		runtime: runtime,
		events:  publisher,
		metrics: metrics,
		logger:  logger,
		hub:     NewHub(logger),
	}
	publisher.AddSink(g.hub.Broadcast)
	return g
}

// RegisterHandlers mounts every endpoint on a mux.
func (g *Gateway) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /urdf/health", g.handleHealth)
	mux.HandleFunc("GET /urdf/size", g.handleSize)
	mux.HandleFunc("GET /urdf/graph", g.handleGraph)
	mux.HandleFunc("GET /urdf/export", g.handleExport)
	mux.HandleFunc("GET /urdf/node", g.handleNode)
	mux.HandleFunc("POST /urdf/clear", g.handleClear)
	mux.HandleFunc("POST /urdf/load", g.handleLoad)
	mux.HandleFunc("POST /urdf/loadFile", g.handleLoadFile)
	mux.HandleFunc("POST /urdf/query", g.handleQuery)
	mux.HandleFunc("POST /urdf/rules/create", g.handleRuleCreate)
	mux.HandleFunc("POST /urdf/rules/update", g.handleRuleUpdate)
	mux.HandleFunc("POST /urdf/rules/delete", g.handleRuleDelete)
	mux.HandleFunc("GET /urdf/zurl", g.handleZurl)
	mux.HandleFunc("GET /urdf/events", g.hub.HandleUpgrade)
	mux.Handle("GET /urdf/metrics", g.metrics.Handler())
}

// envelope builds the shared response base.
func envelope(ok bool) map[string]any {
	return map[string]any{
		"ok": ok,
		"ts": time.Now().UnixMilli(),
	}
}

func (g *Gateway) writeOK(w http.ResponseWriter, r *http.Request, eventType string, fields map[string]any) {
	body := envelope(true)
	for k, v := range fields {
		body[k] = v
	}
	g.writeJSON(w, http.StatusOK, body)
	g.metrics.HTTPRequests.WithLabelValues(r.URL.Path, "ok").Inc()
	g.publish(eventType, r, body)
}

func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, eventType string, err error) {
	status := statusFor(err)
	body := envelope(false)
	body["error"] = err.Error()
	body["kind"] = pkgerrors.KindOf(err).String()
	g.writeJSON(w, status, body)
	g.metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
	g.publish(eventType, r, map[string]any{
		"ok":    false,
		"kind":  pkgerrors.KindOf(err).String(),
		"error": err.Error(),
	})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Debug("response write failed", "error", err)
	}
}

// publish mirrors the request/response pair onto the event channel.
// Graph payloads are summarized so events stay small.
func (g *Gateway) publish(eventType string, r *http.Request, body map[string]any) {
	if eventType == "" {
		return
	}
	response := map[string]any{}
	for k, v := range body {
		switch k {
		case "graph", "results", "node":
			continue
		default:
			response[k] = v
		}
	}
	g.events.PublishRequest(eventType, &events.Request{
		Method: r.Method,
		Path:   r.URL.Path,
	}, response)
}

func statusFor(err error) int {
	if errors.Is(err, pkgerrors.ErrRuleExists) {
		return http.StatusConflict
	}
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindContract, pkgerrors.KindSchemaViolation, pkgerrors.KindConfig:
		return http.StatusBadRequest
	case pkgerrors.KindNotFound:
		return http.StatusNotFound
	case pkgerrors.KindNotImplemented:
		return http.StatusNotImplemented
	case pkgerrors.KindTransientUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func readBody(r *http.Request, out any) error {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return pkgerrors.WrapContract(err, "gateway", "readBody", "read request")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.WrapContract(err, "gateway", "readBody", "decode request")
	}
	return nil
}
