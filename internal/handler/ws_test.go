package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/mmeshcher/delivery-tracker/internal/model"
	"github.com/mmeshcher/delivery-tracker/internal/notifier"
)

func dialEvents(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h.SetupRouter())
	t.Cleanup(srv.Close)

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/api/events"

	cfg, err := websocket.NewConfig(wsURL, srv.URL)
	if err != nil {
		t.Fatalf("websocket config: %v", err)
	}

	rec := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(rec, 1)
	cookie := rec.Result().Cookies()[0]
	cfg.Header = http.Header{"Cookie": []string{cookie.Name + "=" + cookie.Value}}

	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestStreamEvents_DeliversPublishedEvents(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	conn := dialEvents(t, h)

	// hub узнаёт о подписчике асинхронно с завершением рукопожатия
	deadline := time.Now().Add(2 * time.Second)
	var got notifier.Event
	for {
		h.hub.Publish(notifier.Event{
			Type:    notifier.EventOrderUpdated,
			OrderID: 7,
			Status:  model.OrderStatusInProgress,
		})

		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if err := websocket.JSON.Receive(conn, &got); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event was not delivered over websocket")
		}
	}

	if got.Type != notifier.EventOrderUpdated || got.OrderID != 7 {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Status != model.OrderStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
}

func TestStreamEvents_RequiresAuth(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	srv := httptest.NewServer(h.SetupRouter())
	t.Cleanup(srv.Close)

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/api/events"
	if _, err := websocket.Dial(wsURL, "", srv.URL); err == nil {
		t.Fatalf("expected unauthenticated websocket dial to fail")
	}
}
