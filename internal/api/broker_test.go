package api

import (
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    redis "github.com/redis/go-redis/v9"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("p1")
    all := b.Subscribe(AllPlans)

    evt := PlanEvent{Type: "plan.created", PlanID: "p1", Data: map[string]any{"x": 1}}
    publishPlan(b, evt)

    for _, c := range []chan PlanEvent{ch, all} {
        select {
        case got := <-c:
            if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
            if got.Data["x"].(int) != 1 { t.Fatalf("bad payload: %+v", got.Data) }
        case <-time.After(200 * time.Millisecond):
            t.Fatal("timeout waiting for event")
        }
    }

    b.Unsubscribe("p1", ch)
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
    // second unsubscribe is a no-op
    b.Unsubscribe("p1", ch)
    b.Publish("p1", evt)
}

func TestRedisBroker(t *testing.T) {
    mr := miniredis.RunT(t)
    b := NewRedisBroker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
    defer b.Close()

    ch := b.Subscribe("p9")
    b.Publish("p9", PlanEvent{Type: "plan.deleted", PlanID: "p9"})

    select {
    case got := <-ch:
        if got.Type != "plan.deleted" || got.PlanID != "p9" { t.Fatalf("unexpected event: %+v", got) }
    case <-time.After(2 * time.Second):
        t.Fatal("timeout waiting for redis event")
    }

    b.Unsubscribe("p9", ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("expected closed channel") }
    case <-time.After(2 * time.Second):
        t.Fatal("channel not closed after unsubscribe")
    }
}
