package gateway_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/gateway"
)

func newTestGateway() (*gateway.Gateway, *eventbus.Bus) {
	bus := eventbus.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return gateway.New(bus, log), bus
}

func dial(t *testing.T, srv *httptest.Server, query string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events" + query
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestGatewayStreamsPublishedEvents(t *testing.T) {
	gw, bus := newTestGateway()
	srv := httptest.NewServer(http.HandlerFunc(gw.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let the server-side Subscribe land

	jobId := uuid.New()
	bus.Publish(eventbus.Event{Type: eventbus.JobSubmitted, JobId: jobId, TenantId: "acme", Timestamp: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got eventbus.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.JobId != jobId || got.Type != eventbus.JobSubmitted {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestGatewayFiltersByTenantId(t *testing.T) {
	gw, bus := newTestGateway()
	srv := httptest.NewServer(http.HandlerFunc(gw.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv, "?tenant_id=acme")
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	bus.Publish(eventbus.Event{Type: eventbus.JobSubmitted, JobId: uuid.New(), TenantId: "other-tenant", Timestamp: time.Now()})
	wanted := uuid.New()
	bus.Publish(eventbus.Event{Type: eventbus.JobSubmitted, JobId: wanted, TenantId: "acme", Timestamp: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got eventbus.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.JobId != wanted {
		t.Fatalf("expected only the acme-scoped event, got %+v", got)
	}
}

func TestGatewayReleasesSubscriptionOnDisconnect(t *testing.T) {
	gw, bus := newTestGateway()
	srv := httptest.NewServer(http.HandlerFunc(gw.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv, "")
	time.Sleep(20 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	bus.Publish(eventbus.Event{Type: eventbus.JobSubmitted, JobId: uuid.New(), TenantId: "acme", Timestamp: time.Now()})
}
