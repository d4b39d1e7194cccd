package api

import (
    "bufio"
    "bytes"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"

    "courierplan/internal/config"
    "courierplan/internal/model"
)

const planBody = `{
  "origin": {"label": "depot", "location": {"lat": 35.1815, "lng": 136.9066}},
  "destination": {"label": "depot", "location": {"lat": 35.1815, "lng": 136.9066}},
  "stops": [
    {"label": "A", "location": {"lat": 35.185, "lng": 136.91}},
    {"label": "B", "location": {"lat": 35.17, "lng": 136.91}},
    {"label": "C", "location": {"lat": 35.175, "lng": 136.92}},
    {"label": "D", "location": {"lat": 35.19, "lng": 136.93}},
    {"label": "E", "location": {"lat": 35.16, "lng": 136.89}},
    {"label": "F", "location": {"lat": 35.2, "lng": 136.9}}
  ],
  "couriers": 2,
  "seed": 7
}`

func newTestServer(t *testing.T, mutate ...func(*config.Config)) (*Server, *httptest.Server) {
    t.Helper()
    cfg := config.Default()
    cfg.HTTP.RateRPS = 0
    for _, m := range mutate { m(&cfg) }
    ctx, cancel := context.WithCancel(context.Background())
    t.Cleanup(cancel)
    s, err := NewServer(ctx, cfg)
    if err != nil { t.Fatalf("NewServer: %v", err) }
    ts := httptest.NewServer(s.Routes())
    t.Cleanup(ts.Close)
    return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
    t.Helper()
    var rd io.Reader
    if body != "" { rd = strings.NewReader(body) }
    req, err := http.NewRequest(method, url, rd)
    if err != nil { t.Fatal(err) }
    if body != "" { req.Header.Set("Content-Type", "application/json") }
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatal(err) }
    defer resp.Body.Close()
    b, _ := io.ReadAll(resp.Body)
    return resp, b
}

func createPlan(t *testing.T, base string) model.Plan {
    t.Helper()
    resp, b := do(t, http.MethodPost, base+"/v1/plans", planBody)
    if resp.StatusCode != http.StatusCreated { t.Fatalf("create plan: %d %s", resp.StatusCode, b) }
    var p model.Plan
    if err := json.Unmarshal(b, &p); err != nil { t.Fatalf("decode plan: %v", err) }
    return p
}

func TestHealthReady(t *testing.T) {
    _, ts := newTestServer(t)
    if resp, _ := do(t, http.MethodGet, ts.URL+"/healthz", ""); resp.StatusCode != 200 { t.Fatalf("health: got %d", resp.StatusCode) }
    if resp, _ := do(t, http.MethodGet, ts.URL+"/readyz", ""); resp.StatusCode != 200 { t.Fatalf("ready: got %d", resp.StatusCode) }
}

func TestPlanLifecycle(t *testing.T) {
    _, ts := newTestServer(t)

    p := createPlan(t, ts.URL)
    if p.Strategy != "balance" || len(p.Routes) != 2 { t.Fatalf("unexpected plan: %+v", p) }
    if p.Stats == nil || p.Stats.Seed != 7 { t.Fatalf("stats: %+v", p.Stats) }
    n := 0
    for _, r := range p.Routes {
        n += len(r.Stops) - 2
        if !strings.HasPrefix(r.ShareURL, "https://www.google.com/maps/dir/") { t.Fatalf("share url: %s", r.ShareURL) }
    }
    if n != 6 { t.Fatalf("interior stops = %d, want 6", n) }

    resp, b := do(t, http.MethodGet, ts.URL+"/v1/plans/"+p.ID, "")
    if resp.StatusCode != 200 { t.Fatalf("get: %d %s", resp.StatusCode, b) }
    var got model.Plan
    _ = json.Unmarshal(b, &got)
    if got.ID != p.ID || got.Imbalance != p.Imbalance { t.Fatalf("get returned %+v", got) }

    resp, b = do(t, http.MethodGet, ts.URL+"/v1/plans?limit=10", "")
    if resp.StatusCode != 200 { t.Fatalf("list: %d", resp.StatusCode) }
    var page struct {
        Items      []model.PlanSummary `json:"items"`
        NextCursor string              `json:"nextCursor"`
    }
    _ = json.Unmarshal(b, &page)
    if len(page.Items) != 1 || page.Items[0].ID != p.ID || page.Items[0].Stops != 6 { t.Fatalf("list page: %+v", page) }

    if resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/plans/"+p.ID, ""); resp.StatusCode != http.StatusNoContent { t.Fatalf("delete: %d", resp.StatusCode) }
    if resp, _ = do(t, http.MethodGet, ts.URL+"/v1/plans/"+p.ID, ""); resp.StatusCode != http.StatusNotFound { t.Fatalf("get after delete: %d", resp.StatusCode) }
}

func TestCreatePlan_BadRequests(t *testing.T) {
    _, ts := newTestServer(t)
    cases := map[string]string{
        "not json":       `{`,
        "unknown field":  `{"couriers": 2, "vehicles": 3}`,
        "zero couriers":  strings.Replace(planBody, `"couriers": 2`, `"couriers": 0`, 1),
        "bad latitude":   strings.Replace(planBody, `"lat": 35.2,`, `"lat": 95.2,`, 1),
        "no location":    `{"origin": {}, "destination": {}, "couriers": 2}`,
        "bad cooling":    strings.Replace(planBody, `"seed": 7`, `"coolingRate": 1.5`, 1),
        "bad callback":   strings.Replace(planBody, `"seed": 7`, `"callbackUrl": "ftp://x"`, 1),
        "too many couriers": strings.Replace(planBody, `"couriers": 2`, `"couriers": 50000000`, 1),
        "couriers over cap": strings.Replace(planBody, `"couriers": 2`, `"couriers": 101`, 1),
    }
    for name, body := range cases {
        t.Run(name, func(t *testing.T) {
            resp, b := do(t, http.MethodPost, ts.URL+"/v1/plans", body)
            if resp.StatusCode != http.StatusBadRequest { t.Fatalf("got %d %s", resp.StatusCode, b) }
            var pr Problem
            if err := json.Unmarshal(b, &pr); err != nil || pr.Status != 400 { t.Fatalf("problem body: %s", b) }
        })
    }

    if resp, _ := do(t, http.MethodGet, ts.URL+"/v1/plans?cursor=nope", ""); resp.StatusCode != http.StatusBadRequest {
        t.Fatalf("bad cursor: %d", resp.StatusCode)
    }
    if resp, _ := do(t, http.MethodGet, ts.URL+"/v1/plans?cursor=00000000-0000-0000-0000-000000000001", ""); resp.StatusCode != http.StatusBadRequest {
        t.Fatalf("unknown cursor: %d", resp.StatusCode)
    }
    if resp, _ := do(t, http.MethodPut, ts.URL+"/v1/plans", planBody); resp.StatusCode != http.StatusMethodNotAllowed {
        t.Fatalf("put: %d", resp.StatusCode)
    }
}

func TestSequenceAndDuration(t *testing.T) {
    _, ts := newTestServer(t)
    body := `{"origin": {"location": {"lat": 35.1815, "lng": 136.9066}},
      "destination": {"location": {"lat": 35.1815, "lng": 136.9066}},
      "stops": [{"label": "far", "location": {"lat": 35.2, "lng": 136.9}}, {"label": "near", "location": {"lat": 35.185, "lng": 136.91}}]}`
    resp, b := do(t, http.MethodPost, ts.URL+"/v1/sequence", body)
    if resp.StatusCode != 200 { t.Fatalf("sequence: %d %s", resp.StatusCode, b) }
    var r model.RouteOut
    _ = json.Unmarshal(b, &r)
    if len(r.Stops) != 4 || r.Stops[1].Label != "near" || r.Stops[2].Label != "far" { t.Fatalf("order: %+v", r.Stops) }

    resp, b = do(t, http.MethodPost, ts.URL+"/v1/route-duration", `{"route": [
      {"location": {"lat": 35.0, "lng": 135.0}},
      {"location": {"lat": 35.0, "lng": 135.0}, "dwellMinutes": 65},
      {"location": {"lat": 35.0, "lng": 135.0}}]}`)
    if resp.StatusCode != 200 { t.Fatalf("duration: %d %s", resp.StatusCode, b) }
    var d model.DurationResponse
    _ = json.Unmarshal(b, &d)
    if d.DurationMinutes != 65 || d.Duration != "1h 05m" { t.Fatalf("duration: %+v", d) }

    resp, _ = do(t, http.MethodPost, ts.URL+"/v1/route-duration", `{"route": []}`)
    if resp.StatusCode != http.StatusBadRequest { t.Fatalf("empty route: %d", resp.StatusCode) }
}

func TestEngineConfigAndDocs(t *testing.T) {
    _, ts := newTestServer(t)
    resp, b := do(t, http.MethodGet, ts.URL+"/v1/engine/config", "")
    if resp.StatusCode != 200 || !bytes.Contains(b, []byte(`"coolingRate":0.995`)) { t.Fatalf("engine config: %d %s", resp.StatusCode, b) }

    resp, b = do(t, http.MethodGet, ts.URL+"/openapi.json", "")
    if resp.StatusCode != 200 { t.Fatalf("openapi: %d", resp.StatusCode) }
    var doc map[string]any
    if err := json.Unmarshal(b, &doc); err != nil { t.Fatalf("openapi json: %v", err) }
    if _, ok := doc["paths"].(map[string]any)["/v1/plans"]; !ok { t.Fatalf("openapi missing /v1/plans") }

    resp, b = do(t, http.MethodGet, ts.URL+"/debug/info", "")
    if resp.StatusCode != 200 || !bytes.Contains(b, []byte(`"hasDatabaseUrl":false`)) { t.Fatalf("debug: %s", b) }

    resp, b = do(t, http.MethodGet, ts.URL+"/metrics", "")
    if resp.StatusCode != 200 || !bytes.Contains(b, []byte("http_requests_total")) { t.Fatalf("metrics missing http_requests_total") }
}

func TestRequestIDEcho(t *testing.T) {
    _, ts := newTestServer(t)
    req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
    req.Header.Set("X-Request-Id", "abc-123")
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatal(err) }
    resp.Body.Close()
    if resp.Header.Get("X-Request-Id") != "abc-123" { t.Fatalf("request id: %q", resp.Header.Get("X-Request-Id")) }

    resp, _ = do(t, http.MethodGet, ts.URL+"/healthz", "")
    if resp.Header.Get("X-Request-Id") == "" { t.Fatal("expected generated request id") }
}

func TestProblemCarriesRequestID(t *testing.T) {
    _, ts := newTestServer(t)
    req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/plans/00000000-0000-0000-0000-000000000000", nil)
    req.Header.Set("X-Request-Id", "req-404")
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatal(err) }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusNotFound { t.Fatalf("status %d", resp.StatusCode) }
    if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" { t.Fatalf("content type %q", ct) }
    var pr Problem
    if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil { t.Fatal(err) }
    if pr.RequestID != "req-404" || pr.Instance != "/v1/plans/00000000-0000-0000-0000-000000000000" { t.Fatalf("problem: %+v", pr) }
}

func TestRateLimit(t *testing.T) {
    _, ts := newTestServer(t, func(c *config.Config) { c.HTTP.RateRPS = 0.001; c.HTTP.RateBurst = 1 })
    if resp, _ := do(t, http.MethodGet, ts.URL+"/v1/engine/config", ""); resp.StatusCode != 200 { t.Fatalf("first: %d", resp.StatusCode) }
    resp, _ := do(t, http.MethodGet, ts.URL+"/v1/engine/config", "")
    if resp.StatusCode != http.StatusTooManyRequests { t.Fatalf("second: %d", resp.StatusCode) }
    if resp.Header.Get("Retry-After") == "" { t.Fatal("missing Retry-After") }
    if resp, _ := do(t, http.MethodGet, ts.URL+"/healthz", ""); resp.StatusCode != 200 { t.Fatalf("healthz throttled: %d", resp.StatusCode) }
}

func TestPlanEventsSSE(t *testing.T) {
    old := heartbeat
    heartbeat = time.Hour
    defer func() { heartbeat = old }()

    _, ts := newTestServer(t)
    p := createPlan(t, ts.URL)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/plans/"+p.ID+"/events/stream", nil)
    resp, err := http.DefaultClient.Do(req)
    if err != nil { t.Fatal(err) }
    defer resp.Body.Close()
    if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" { t.Fatalf("content type %q", ct) }

    events := make(chan string, 4)
    go func() {
        sc := bufio.NewScanner(resp.Body)
        for sc.Scan() {
            if ev, ok := strings.CutPrefix(sc.Text(), "event: "); ok { events <- ev }
        }
        close(events)
    }()

    if ev := <-events; ev != "plan.snapshot" { t.Fatalf("first event %q", ev) }
    if r, _ := do(t, http.MethodDelete, ts.URL+"/v1/plans/"+p.ID, ""); r.StatusCode != http.StatusNoContent { t.Fatalf("delete: %d", r.StatusCode) }
    select {
    case ev := <-events:
        if ev != "plan.deleted" { t.Fatalf("second event %q", ev) }
    case <-ctx.Done():
        t.Fatal("timeout waiting for plan.deleted")
    }

    if r, _ := do(t, http.MethodGet, ts.URL+"/v1/plans/"+p.ID+"/events/stream", ""); r.StatusCode != http.StatusNotFound {
        t.Fatalf("stream for missing plan: %d", r.StatusCode)
    }
}

func TestPlanEventsWebSocket(t *testing.T) {
    _, ts := newTestServer(t)
    wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws"
    conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
    if err != nil { t.Fatalf("dial: %v", err) }
    defer conn.Close()
    _ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

    if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "all"}); err != nil { t.Fatal(err) }
    if err := conn.WriteJSON(wsMessage{Type: "ping"}); err != nil { t.Fatal(err) }
    var msg wsMessage
    if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" { t.Fatalf("expected pong, got %+v (%v)", msg, err) }

    p := createPlan(t, ts.URL)
    if err := conn.ReadJSON(&msg); err != nil { t.Fatalf("read: %v", err) }
    if msg.Type != "next" || msg.ID != "all" { t.Fatalf("unexpected message %+v", msg) }
    var evt PlanEvent
    _ = json.Unmarshal(msg.Payload, &evt)
    if evt.Type != "plan.created" || evt.PlanID != p.ID { t.Fatalf("unexpected event %+v", evt) }

    if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "x", Payload: json.RawMessage(`{"planId":"missing"}`)}); err != nil { t.Fatal(err) }
    if err := conn.ReadJSON(&msg); err != nil || msg.Type != "error" || msg.ID != "x" { t.Fatalf("expected error, got %+v (%v)", msg, err) }
}

func TestPlanCallbackWebhook(t *testing.T) {
    got := make(chan string, 1)
    cb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        got <- r.Header.Get("X-Event-Type")
        w.WriteHeader(http.StatusOK)
    }))
    defer cb.Close()

    _, ts := newTestServer(t)
    body := strings.Replace(planBody, `"seed": 7`, `"seed": 7, "callbackUrl": "`+cb.URL+`"`, 1)
    if resp, b := do(t, http.MethodPost, ts.URL+"/v1/plans", body); resp.StatusCode != http.StatusCreated { t.Fatalf("create: %d %s", resp.StatusCode, b) }
    select {
    case typ := <-got:
        if typ != "plan.created" { t.Fatalf("event type %q", typ) }
    case <-time.After(3 * time.Second):
        t.Fatal("webhook not delivered")
    }
}

func TestMetricPath(t *testing.T) {
    cases := map[string]string{
        "/v1/plans":                     "/v1/plans",
        "/v1/plans/abc":                 "/v1/plans/{id}",
        "/v1/plans/abc/events/stream":   "/v1/plans/{id}/events/stream",
        "/healthz":                      "/healthz",
    }
    for in, want := range cases {
        if got := metricPath(in); got != want { t.Errorf("metricPath(%q) = %q, want %q", in, got, want) }
    }
}
