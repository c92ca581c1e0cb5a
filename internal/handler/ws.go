package handler

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// StreamEvents отдаёт события шины уведомлений по WebSocket.
// Клиент получает события, опубликованные после подключения, и по каждому
// перечитывает списки заявок; повторная доставка пропущенных событий не выполняется.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.streamEvents).ServeHTTP(w, r)
}

func (h *Handler) streamEvents(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	ctx := conn.Request().Context()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, e); err != nil {
				h.logger.Debug("drop event subscriber", zap.Error(err))
				return
			}
		}
	}
}
