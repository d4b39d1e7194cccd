package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "courierplan/internal/logging"
    "courierplan/internal/model"
    "courierplan/internal/opt"
    "courierplan/internal/store"
)

// heartbeat is the SSE keepalive interval.
var heartbeat = 15 * time.Second

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, title string, err error) {
    switch {
    case errors.Is(err, opt.ErrInvalidInput):
        writeProblem(w, r, http.StatusBadRequest, "Invalid input", err.Error())
    case errors.Is(err, store.ErrNotFound):
        writeProblem(w, r, http.StatusNotFound, "Not Found", err.Error())
    default:
        logging.FromContext(r.Context()).Error("http.error", "title", title, "err", err)
        writeProblem(w, r, http.StatusInternalServerError, title, err.Error())
    }
}

// PlansHandler handles POST/GET /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/plans" { writeProblem(w, r, http.StatusNotFound, "Not Found", ""); return }
    switch r.Method {
    case http.MethodPost:
        var req model.PlanRequest
        if err := decodeJSON(w, r, &req); err != nil {
            writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
            return
        }
        if err := validatePlanRequest(&req, s.Config.Engine.MaxCouriers); err != nil {
            writeProblem(w, r, http.StatusBadRequest, "Invalid plan request", err.Error())
            return
        }
        plan, err := s.Planner.Plan(r.Context(), req)
        if err != nil {
            writeError(w, r, "Plan failed", err)
            return
        }
        if err := s.Store.SavePlan(r.Context(), plan); err != nil {
            writeError(w, r, "Save plan failed", err)
            return
        }
        sum := plan.Summary()
        publishPlan(s.Broker, PlanEvent{Type: "plan.created", PlanID: plan.ID, TS: time.Now().UTC(), Data: map[string]any{
            "strategy": sum.Strategy,
            "couriers": sum.Couriers,
            "stops": sum.Stops,
            "imbalanceMinutes": sum.Imbalance,
        }})
        if req.CallbackURL != "" && s.Notifier != nil {
            if err := s.Notifier.Emit(req.CallbackURL, "plan.created", plan); err != nil {
                logging.FromContext(r.Context()).Warn("webhook.enqueue_failed", "plan_id", plan.ID, "err", err)
            }
        }
        w.Header().Set("Location", "/v1/plans/"+plan.ID)
        writeJSON(w, http.StatusCreated, plan)
    case http.MethodGet:
        limit, err := parseLimit(r.URL.Query().Get("limit"))
        if err != nil {
            writeProblem(w, r, http.StatusBadRequest, "Invalid limit", err.Error())
            return
        }
        items, next, err := s.Store.ListPlans(r.Context(), r.URL.Query().Get("cursor"), limit)
        if err != nil {
            if errors.Is(err, store.ErrBadCursor) {
                writeProblem(w, r, http.StatusBadRequest, "Invalid cursor", err.Error())
                return
            }
            writeError(w, r, "List plans failed", err)
            return
        }
        if items == nil { items = []model.PlanSummary{} }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// PlanByIDHandler handles GET/DELETE /v1/plans/{id} and GET /v1/plans/{id}/events/stream
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/plans/")
    if rest == path || rest == "" {
        writeProblem(w, r, http.StatusNotFound, "Not Found", "missing id")
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) == 3 && parts[1] == "events" && parts[2] == "stream" {
        if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
        s.streamPlanEvents(w, r, id)
        return
    }
    if len(parts) > 1 {
        writeProblem(w, r, http.StatusNotFound, "Not Found", "")
        return
    }

    switch r.Method {
    case http.MethodGet:
        plan, err := s.Store.GetPlan(r.Context(), id)
        if err != nil {
            writeError(w, r, "Get plan failed", err)
            return
        }
        writeJSON(w, http.StatusOK, plan)
    case http.MethodDelete:
        if err := s.Store.DeletePlan(r.Context(), id); err != nil {
            writeError(w, r, "Delete plan failed", err)
            return
        }
        publishPlan(s.Broker, PlanEvent{Type: "plan.deleted", PlanID: id, TS: time.Now().UTC()})
        w.WriteHeader(http.StatusNoContent)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// streamPlanEvents serves SSE for one plan, or for every plan when id is
// AllPlans. A known plan gets a plan.snapshot event first.
func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
    var snapshot *model.PlanSummary
    if id != AllPlans {
        plan, err := s.Store.GetPlan(r.Context(), id)
        if err != nil {
            writeError(w, r, "Get plan failed", err)
            return
        }
        sum := plan.Summary()
        snapshot = &sum
    }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, r, 500, "Streaming unsupported", ""); return }

    // lift the server WriteTimeout for this response
    _ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

    ch := s.Broker.Subscribe(id)
    defer s.Broker.Unsubscribe(id, ch)

    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    w.WriteHeader(http.StatusOK)
    if snapshot != nil {
        writeSSE(w, "plan.snapshot", snapshot)
    } else {
        writeSSE(w, "heartbeat", map[string]any{"ts": time.Now().UTC().Format(time.RFC3339)})
    }
    flusher.Flush()

    ticker := time.NewTicker(heartbeat)
    defer ticker.Stop()
    for {
        select {
        case <-r.Context().Done():
            return
        case evt, ok := <-ch:
            if !ok { return }
            writeSSE(w, evt.Type, evt)
            flusher.Flush()
        case <-ticker.C:
            writeSSE(w, "heartbeat", map[string]any{"planId": id, "ts": time.Now().UTC().Format(time.RFC3339)})
            flusher.Flush()
        }
    }
}

func writeSSE(w http.ResponseWriter, event string, v any) {
    b, _ := json.Marshal(v)
    fmt.Fprintf(w, "event: %s\n", event)
    fmt.Fprintf(w, "data: %s\n\n", b)
}

// SequenceHandler handles POST /v1/sequence
func (s *Server) SequenceHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    var req model.SequenceRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
        return
    }
    route, err := s.Planner.Sequence(r.Context(), req)
    if err != nil {
        writeError(w, r, "Sequence failed", err)
        return
    }
    writeJSON(w, http.StatusOK, route)
}

// RouteDurationHandler handles POST /v1/route-duration
func (s *Server) RouteDurationHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    var req model.DurationRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
        return
    }
    out, err := s.Planner.Duration(r.Context(), req)
    if err != nil {
        writeError(w, r, "Route duration failed", err)
        return
    }
    writeJSON(w, http.StatusOK, out)
}

// EngineConfigHandler returns the effective engine defaults
func (s *Server) EngineConfigHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    writeJSON(w, http.StatusOK, map[string]any{"defaults": s.Planner.EngineConfig()})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
    defer cancel()
    if err := s.Store.Ping(ctx); err != nil { writeProblem(w, r, 503, "Not Ready", err.Error()); return }
    type pinger interface{ Ping(ctx context.Context) error }
    if p, ok := s.Broker.(pinger); ok {
        if err := p.Ping(ctx); err != nil { writeProblem(w, r, 503, "Not Ready", err.Error()); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}
