package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rusk-dataflow/rusk/core/processor"
	"github.com/rusk-dataflow/rusk/core/rerr"
)

// Mux builds the HTTP surface spec.md §4.2/§6 enumerates, plus the
// additive /healthz and /metrics mounts SPEC_FULL.md §11.1 adds.
// metricsHandler, when non-nil, is mounted at GET /metrics.
func (r *Registry) Mux(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /processor/create", r.handleCreate)
	mux.HandleFunc("PATCH /processor/start", r.handleStart)
	mux.HandleFunc("PATCH /processor/stop", r.handleStop)
	mux.HandleFunc("GET /processor/get_status", r.handleGetStatus)
	mux.HandleFunc("GET /processor/get_info/{processor_id}", r.handleGetInfo)
	mux.HandleFunc("POST /processor/connect", r.handleConnect)
	mux.HandleFunc("DELETE /processor/disconnect", r.handleDisconnect)
	mux.HandleFunc("GET /cluster/get_info", r.handleClusterInfo)

	mux.HandleFunc("GET /healthz", r.handleHealthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return cors(mux)
}

// cors implements spec.md §6's CORS requirement: GET/POST/DELETE with
// Content-Type from any origin, plus PATCH for the start/stop routes.
// Preflight OPTIONS requests are answered with 204. Adapted from the teacher's
// middleware/cors.go, stripped of the generic handler.Context[C]
// parameterization since this registry speaks plain net/http.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// writeJSON encodes v directly to w, in the manner of the teacher's
// gokit.JSON: no intermediate buffer, status header written before the body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errBody struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errBody{Error: msg})
}

// statusForErr maps the core's sentinel errors to spec.md §7's HTTP status
// codes: 400 for UnknownProcessorName/InvalidId, 404 for UnknownProcessorId,
// 500 for ProcessorUnreachable/ack mismatch.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, rerr.ErrUnknownProcessorName), errors.Is(err, rerr.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, rerr.ErrUnknownProcessorID):
		return http.StatusNotFound
	case errors.Is(err, rerr.ErrProcessorUnreachable), errors.Is(err, rerr.ErrAckMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, rerr.ErrInvalidID
	}
	return id, nil
}

func (r *Registry) handleCreate(w http.ResponseWriter, req *http.Request) {
	var body RequestDetails
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed request body")
		return
	}

	var idPtr *uuid.UUID
	if body.ProcessorID != "" {
		id, err := parseID(body.ProcessorID)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		idPtr = &id
	}

	id, status, err := r.Create(body.ProcessorName, idPtr)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ResponseDetails{ProcessorID: id.String(), Status: status.String()})
}

func (r *Registry) handleStart(w http.ResponseWriter, req *http.Request) {
	r.handleLifecycle(w, req, r.Start)
}

func (r *Registry) handleStop(w http.ResponseWriter, req *http.Request) {
	r.handleLifecycle(w, req, r.Stop)
}

// handleLifecycle backs both /processor/start and /processor/stop: same
// request/response shape, different command.
func (r *Registry) handleLifecycle(w http.ResponseWriter, req *http.Request, op func(ctx context.Context, id uuid.UUID) (processor.Status, error)) {
	var body RequestDetails
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := parseID(body.ProcessorID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := op(req.Context(), id)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ResponseDetails{ProcessorID: id.String(), Status: status.String()})
}

func (r *Registry) handleGetStatus(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.URL.Query().Get("processor_id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := r.GetStatus(req.Context(), id)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ResponseDetails{ProcessorID: id.String(), Status: status.String()})
}

func (r *Registry) handleGetInfo(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req.PathValue("processor_id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := r.GetInfo(req.Context(), id)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProcessorInfo(info))
}

func (r *Registry) handleConnect(w http.ResponseWriter, req *http.Request) {
	var body ProcessorConnectionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed request body")
		return
	}
	srcID, err := parseID(body.SourceProcessorID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	destID, err := parseID(body.DestinationProcessorID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := r.Connect(req.Context(), srcID, destID)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ResponseDetails{ProcessorID: srcID.String(), Status: status.String()})
}

func (r *Registry) handleDisconnect(w http.ResponseWriter, req *http.Request) {
	var body ProcessorConnectionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed request body")
		return
	}
	srcID, err := parseID(body.SourceProcessorID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	destID, err := parseID(body.DestinationProcessorID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := r.Disconnect(req.Context(), srcID, destID)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ResponseDetails{ProcessorID: srcID.String(), Status: status.String()})
}

func (r *Registry) handleClusterInfo(w http.ResponseWriter, req *http.Request) {
	name, infos := r.ClusterInfo(req.Context())
	out := make([]ProcessorInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, toProcessorInfo(info))
	}
	writeJSON(w, http.StatusOK, ClusterInfoResponse{ClusterName: name, Processors: out})
}

// handleHealthz reports whether this registry's context is still live,
// per SPEC_FULL.md §11.1: 200 while r.ctx is live, 503 once the
// cancellation signal has fired. The check is non-blocking — a
// closed ctx.Done() is always immediately ready, so the default case only
// matters while the context is still live.
func (r *Registry) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	select {
	case <-r.ctx.Done():
		writeJSON(w, http.StatusServiceUnavailable, struct {
			Status string `json:"status"`
		}{Status: "shutting down"})
	default:
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	}
}
