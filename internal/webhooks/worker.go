package webhooks

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "sync"
    "time"

    "github.com/google/uuid"

    "courierplan/internal/logging"
    "courierplan/internal/metrics"
)

// Event is the JSON body posted to a callback URL.
type Event struct {
    ID   string    `json:"id"`
    Type string    `json:"type"`
    TS   time.Time `json:"ts"`
    Data any       `json:"data"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType string, data any) Event {
    return Event{ID: "evt_" + uuid.NewString(), Type: eventType, TS: time.Now().UTC(), Data: data}
}

type delivery struct {
    url   string
    event Event
    body  []byte
}

var ErrQueueFull = errors.New("webhook queue full")

// Notifier posts events to callback URLs from a small pool of workers,
// retrying failures with exponential backoff.
type Notifier struct {
    HTTP        *http.Client
    Secret      string
    MaxAttempts int
    // BaseBackoff is the delay before the first retry; it doubles per attempt.
    BaseBackoff time.Duration

    queue chan delivery
    wg    sync.WaitGroup
    now   func() time.Time
}

func NewNotifier(secret string, maxAttempts int, timeout time.Duration) *Notifier {
    if maxAttempts < 1 { maxAttempts = 5 }
    if timeout <= 0 { timeout = 5 * time.Second }
    return &Notifier{
        HTTP: &http.Client{Timeout: timeout},
        Secret: secret,
        MaxAttempts: maxAttempts,
        BaseBackoff: time.Second,
        queue: make(chan delivery, 256),
        now: time.Now,
    }
}

// Start runs workers until ctx is done. Wait blocks until they exit.
func (n *Notifier) Start(ctx context.Context, workers int) {
    if workers < 1 { workers = 1 }
    for i := 0; i < workers; i++ {
        n.wg.Add(1)
        go func() {
            defer n.wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case d := <-n.queue:
                    n.deliver(ctx, d)
                }
            }
        }()
    }
}

func (n *Notifier) Wait() { n.wg.Wait() }

// Emit queues an event for url. It never blocks.
func (n *Notifier) Emit(url, eventType string, data any) error {
    ev := Event{ID: "evt_" + uuid.NewString(), Type: eventType, TS: n.now().UTC(), Data: data}
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("encode webhook event: %w", err)
    }
    select {
    case n.queue <- delivery{url: url, event: ev, body: body}:
        return nil
    default:
        metrics.WebhookDeliveries.WithLabelValues(eventType, "dropped").Inc()
        return ErrQueueFull
    }
}

func (n *Notifier) deliver(ctx context.Context, d delivery) {
    if err := n.send(ctx, d); err != nil && ctx.Err() == nil {
        metrics.WebhookDeliveries.WithLabelValues(d.event.Type, "failed").Inc()
        logging.FromContext(ctx).Error("webhook.gave_up", "event_id", d.event.ID, "url", d.url, "attempts", n.MaxAttempts, "err", err)
    }
}

// Deliver posts ev to url synchronously, retrying up to MaxAttempts.
func (n *Notifier) Deliver(ctx context.Context, url string, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("encode webhook event: %w", err)
    }
    return n.send(ctx, delivery{url: url, event: ev, body: body})
}

func (n *Notifier) send(ctx context.Context, d delivery) error {
    log := logging.FromContext(ctx).With("event_id", d.event.ID, "event_type", d.event.Type)
    var lastErr error
    for attempt := 0; attempt < n.MaxAttempts; attempt++ {
        if attempt > 0 {
            t := time.NewTimer(nextBackoff(n.BaseBackoff, attempt-1))
            select {
            case <-ctx.Done():
                t.Stop()
                return ctx.Err()
            case <-t.C:
            }
        }
        code, err := n.post(ctx, d)
        if err == nil {
            log.Debug("webhook.delivered", "attempt", attempt+1, "code", code)
            return nil
        }
        lastErr = err
        log.Warn("webhook.attempt_failed", "attempt", attempt+1, "code", code, "err", err)
    }
    return lastErr
}

func (n *Notifier) post(ctx context.Context, d delivery) (int, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(d.body))
    if err != nil { return 0, err }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Event-Type", d.event.Type)
    req.Header.Set("X-Event-Id", d.event.ID)
    if n.Secret != "" {
        req.Header.Set(SignatureHeader, SignatureValue(n.Secret, n.now().Unix(), d.body))
    }
    start := time.Now()
    resp, err := n.HTTP.Do(req)
    latency := float64(time.Since(start).Milliseconds())
    if err != nil {
        metrics.WebhookDeliveries.WithLabelValues(d.event.Type, "error").Inc()
        metrics.WebhookLatency.WithLabelValues(d.event.Type, "error").Observe(latency)
        return 0, err
    }
    _ = resp.Body.Close()
    status := strconv.Itoa(resp.StatusCode)
    metrics.WebhookDeliveries.WithLabelValues(d.event.Type, status).Inc()
    metrics.WebhookLatency.WithLabelValues(d.event.Type, status).Observe(latency)
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return resp.StatusCode, fmt.Errorf("callback returned %d", resp.StatusCode)
    }
    return resp.StatusCode, nil
}

func nextBackoff(base time.Duration, attempts int) time.Duration {
    if attempts < 0 { attempts = 0 }
    if attempts > 10 { attempts = 10 }
    d := base * time.Duration(1<<attempts)
    if d > time.Hour { d = time.Hour }
    return d
}
