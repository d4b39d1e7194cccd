package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"courierplan/internal/logging"
)

// Plan events over WebSocket. Messages are JSON {type, id, payload}:
//   client: subscribe {planId}, complete, ping
//   server: next {PlanEvent}, error {message}, complete, pong, ping
// A planId query parameter opens subscription "0" on connect.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsSubscribe struct {
	PlanID string `json:"planId"`
}

// PlanWSHandler handles /v1/ws
func (s *Server) PlanWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	log := logging.FromContext(r.Context())

	var wmu sync.Mutex
	write := func(v wsMessage) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	type sub struct {
		topic string
		ch    chan PlanEvent
	}
	var smu sync.Mutex
	subs := map[string]sub{}

	subscribe := func(id, planID string) {
		if planID == "" {
			planID = AllPlans
		}
		if planID != AllPlans {
			if _, err := s.Store.GetPlan(r.Context(), planID); err != nil {
				_ = write(wsMessage{Type: "error", ID: id, Payload: json.RawMessage(`{"message":"plan not found"}`)})
				_ = write(wsMessage{Type: "complete", ID: id})
				return
			}
		}
		smu.Lock()
		if _, dup := subs[id]; dup {
			smu.Unlock()
			_ = write(wsMessage{Type: "error", ID: id, Payload: json.RawMessage(`{"message":"subscription id in use"}`)})
			return
		}
		ch := s.Broker.Subscribe(planID)
		subs[id] = sub{topic: planID, ch: ch}
		smu.Unlock()
		go func() {
			for evt := range ch {
				payload, _ := json.Marshal(evt)
				if err := write(wsMessage{Type: "next", ID: id, Payload: payload}); err != nil {
					return
				}
			}
			_ = write(wsMessage{Type: "complete", ID: id})
		}()
	}
	unsubscribe := func(id string) {
		smu.Lock()
		s0, ok := subs[id]
		delete(subs, id)
		smu.Unlock()
		if ok {
			s.Broker.Unsubscribe(s0.topic, s0.ch)
		}
	}
	defer func() {
		smu.Lock()
		ids := make([]string, 0, len(subs))
		for id := range subs {
			ids = append(ids, id)
		}
		smu.Unlock()
		for _, id := range ids {
			unsubscribe(id)
		}
	}()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(60 * time.Second)) })

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				wmu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				wmu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	if q := r.URL.Query().Get("planId"); q != "" {
		subscribe("0", q)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws.read_failed", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			var pl wsSubscribe
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &pl); err != nil {
					_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: json.RawMessage(`{"message":"invalid payload"}`)})
					continue
				}
			}
			subscribe(msg.ID, pl.PlanID)
		case "complete":
			unsubscribe(msg.ID)
		}
	}
}
