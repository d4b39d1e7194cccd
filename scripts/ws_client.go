//go:build ignore

// Package main runs a demo WebSocket client for plan events.
//
//	go run scripts/ws_client.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const demoPlan = `{
  "origin": {"label": "depot", "location": {"lat": 35.1815, "lng": 136.9066}},
  "destination": {"label": "depot", "location": {"lat": 35.1815, "lng": 136.9066}},
  "stops": [
    {"label": "A", "location": {"lat": 35.185, "lng": 136.91}},
    {"label": "B", "location": {"lat": 35.17, "lng": 136.91}},
    {"label": "C", "location": {"lat": 35.175, "lng": 136.92}},
    {"label": "D", "location": {"lat": 35.19, "lng": 136.93}}
  ],
  "couriers": 2
}`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Subscribe to every plan before creating one
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1"}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	time.Sleep(200 * time.Millisecond)
	resp, err := http.Post(base+"/v1/plans", "application/json", bytes.NewReader([]byte(demoPlan)))
	if err != nil {
		log.Fatal(err)
	}
	var plan struct {
		ID        string  `json:"id"`
		Imbalance float64 `json:"imbalanceMinutes"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&plan)
	_ = resp.Body.Close()
	log.Printf("Plan ID: %s imbalance %.1f min", plan.ID, plan.Imbalance)

	req, _ := http.NewRequest(http.MethodDelete, base+"/v1/plans/"+plan.ID, nil)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		_ = resp.Body.Close()
	}

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
