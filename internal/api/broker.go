package api

import (
    "sync"
    "time"
)

// PlanEvent is what SSE and WebSocket subscribers receive.
type PlanEvent struct {
    Type   string         `json:"type"`
    PlanID string         `json:"planId"`
    TS     time.Time      `json:"ts"`
    Data   map[string]any `json:"data,omitempty"`
}

// AllPlans is the topic every plan event is also published on.
const AllPlans = "*"

type EventBroker interface {
    Subscribe(topic string) chan PlanEvent
    Unsubscribe(topic string, ch chan PlanEvent)
    Publish(topic string, evt PlanEvent)
}

// Broker fans events out in process. Slow subscribers drop events.
type Broker struct {
    mu   sync.Mutex
    subs map[string]map[chan PlanEvent]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
    return &Broker{subs: map[string]map[chan PlanEvent]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan PlanEvent {
    ch := make(chan PlanEvent, 8)
    b.mu.Lock()
    if b.subs[topic] == nil { b.subs[topic] = map[chan PlanEvent]struct{}{} }
    b.subs[topic][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan PlanEvent) {
    b.mu.Lock()
    defer b.mu.Unlock()
    m := b.subs[topic]
    if _, ok := m[ch]; !ok { return }
    delete(m, ch)
    if len(m) == 0 { delete(b.subs, topic) }
    close(ch)
}

func (b *Broker) Publish(topic string, evt PlanEvent) {
    b.mu.Lock()
    defer b.mu.Unlock()
    for ch := range b.subs[topic] {
        select { case ch <- evt: default: }
    }
}

// publishPlan sends evt on the plan's own topic and on AllPlans.
func publishPlan(b EventBroker, evt PlanEvent) {
    b.Publish(evt.PlanID, evt)
    b.Publish(AllPlans, evt)
}
