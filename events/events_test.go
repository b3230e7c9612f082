package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/models"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

func TestMultiPublishesToAll(t *testing.T) {
	rec := &Recorder{}
	boom := errors.New("broker down")
	m := Multi{failing{boom}, rec}

	err := m.Publish(context.Background(), NewOrderEvent(OrderCreated, models.Order{ID: 7, OrderNumber: "ORD2503100001"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(rec.Events) != 1 || rec.Events[0].OrderID != 7 {
		t.Fatalf("recorder = %+v", rec.Events)
	}
}

func TestHubBroadcasts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub([]string{"*"})
	r := gin.New()
	r.GET("/ws", hub.Handler())
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	order := models.Order{ID: 3, OrderNumber: "ORD2503100003", Total: decimal.NewFromInt(270000), Status: models.OrderStatusPending}
	if err := hub.Publish(context.Background(), NewOrderEvent(OrderCreated, order)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != OrderCreated || got.OrderNumber != "ORD2503100003" || !got.Total.Equal(decimal.NewFromInt(270000)) {
		t.Fatalf("event = %+v", got)
	}
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub(nil)
	stalled := &client{send: make(chan []byte, 1)}
	live := &client{send: make(chan []byte, 1)}
	stalled.send <- []byte("backlog")
	hub.add(stalled)
	hub.add(live)

	done := make(chan error, 1)
	go func() {
		done <- hub.Publish(context.Background(), NewOrderEvent(OrderPaid, models.Order{ID: 9, OrderNumber: "ORD2503100009"}))
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled client")
	}

	if hub.Len() != 1 {
		t.Fatalf("clients = %d, want 1", hub.Len())
	}
	if msg := <-live.send; !strings.Contains(string(msg), "ORD2503100009") {
		t.Fatalf("live client got %s", msg)
	}
	<-stalled.send
	if _, open := <-stalled.send; open {
		t.Fatal("stalled client send channel still open")
	}

	hub.remove(stalled)
	hub.remove(live)
	if hub.Len() != 0 {
		t.Fatalf("clients = %d after remove", hub.Len())
	}
}
