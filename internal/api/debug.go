package api

import (
    "net/http"
    "time"

    "courierplan/internal/buildinfo"
)

// DebugJSON reports build info and which optional backends are wired.
// Secrets are reported only as present or absent.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    cfg := s.Config
    writeJSON(w, http.StatusOK, map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "addr": cfg.HTTP.Addr,
            "rateRps": cfg.HTTP.RateRPS,
            "rateBurst": cfg.HTTP.RateBurst,
            "logLevel": cfg.Log.Level,
            "webhookMaxAttempts": cfg.Webhooks.MaxAttempts,
            "hasDatabaseUrl": cfg.DatabaseURL != "",
            "hasRedisUrl": cfg.RedisURL != "",
            "hasRoutingKey": cfg.Routing.APIKey != "",
            "hasWebhookSecret": cfg.Webhooks.Secret != "",
        },
        "engine": s.Planner.EngineConfig(),
    })
}
