package daemon

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// RPCPrefix is the path prefix of the daemon's method table.
const RPCPrefix = "/rpc/v1/"

// Fault kinds returned on RPC errors.
const (
	FaultUnknownMethod = "unknown_method"
	FaultBadRequest    = "bad_request"
)

type faultResponse struct {
	Fault   string `json:"fault"`
	Message string `json:"message"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type runFileResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type elapsedResponse struct {
	ElapsedMs int64 `json:"elapsed_ms"`
}

type stateResponse struct {
	State string `json:"state"`
}

type currentSplitResponse struct {
	Index int32 `json:"index"`
}

type splitCountResponse struct {
	Count int32 `json:"count"`
}

type runJSONResponse struct {
	JSON string `json:"json"`
}

// Handler dispatches RPC requests into the service. The method table is a
// closed set; anything else under the RPC prefix is an unknown-method fault.
type Handler struct {
	svc *Service
}

// NewHandler creates the RPC dispatcher for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the RPC method table on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(RPCPrefix, h.dispatch)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFault(w, http.StatusMethodNotAllowed, FaultBadRequest, "RPC methods require POST")
		return
	}

	method := strings.TrimPrefix(r.URL.Path, RPCPrefix)
	switch method {
	case "StartOrSplit":
		h.svc.StartOrSplit()
		writeJSON(w, struct{}{})
	case "TogglePause":
		h.svc.TogglePause()
		writeJSON(w, struct{}{})
	case "Reset":
		h.svc.Reset()
		writeJSON(w, struct{}{})
	case "ElapsedMs":
		writeJSON(w, elapsedResponse{ElapsedMs: h.svc.ElapsedMs()})
	case "State":
		writeJSON(w, stateResponse{State: h.svc.State()})
	case "CurrentSplit":
		writeJSON(w, currentSplitResponse{Index: h.svc.CurrentSplit()})
	case "SplitCount":
		writeJSON(w, splitCountResponse{Count: h.svc.SplitCount()})
	case "LoadRun":
		path, ok := decodePath(w, r)
		if !ok {
			return
		}
		success, msg := h.svc.LoadRun(path)
		writeJSON(w, runFileResponse{OK: success, Message: msg})
	case "SaveRun":
		path, ok := decodePath(w, r)
		if !ok {
			return
		}
		success, msg := h.svc.SaveRun(path)
		writeJSON(w, runFileResponse{OK: success, Message: msg})
	case "GetRunJson":
		writeJSON(w, runJSONResponse{JSON: h.svc.RunJSON()})
	default:
		log.Debug().Str("method", method).Msg("unknown RPC method")
		writeFault(w, http.StatusNotFound, FaultUnknownMethod, "unknown method: "+method)
	}
}

func decodePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, http.StatusBadRequest, FaultBadRequest, "invalid request body")
		return "", false
	}
	if req.Path == "" {
		writeFault(w, http.StatusBadRequest, FaultBadRequest, "path is required")
		return "", false
	}
	return req.Path, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode RPC response")
	}
}

func writeFault(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(faultResponse{Fault: kind, Message: message}); err != nil {
		log.Error().Err(err).Msg("failed to encode RPC fault")
	}
}
