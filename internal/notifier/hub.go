// Package notifier реализует рассылку уведомлений об изменениях заявок всем подключённым клиентам.
package notifier

import (
	"sync"

	"github.com/mmeshcher/delivery-tracker/internal/model"
)

// EventType описывает тип события.
type EventType string

const (
	EventOrderCreated EventType = "order_created"
	EventOrderUpdated EventType = "order_updated"
)

// Event несёт минимальные сведения об изменении: подписчики перечитывают
// актуальное состояние сами, а не доверяют телу события.
type Event struct {
	Type    EventType         `json:"type"`
	OrderID int64             `json:"order_id"`
	Status  model.OrderStatus `json:"status,omitempty"`
}

// subscriberBuffer задаёт размер буфера канала подписчика. Медленный подписчик,
// заполнивший буфер, пропускает события и синхронизируется при следующем чтении списка.
const subscriberBuffer = 16

// Subscriber представляет одно подключение, получающее события.
type Subscriber struct {
	ch chan Event
}

// Events возвращает канал событий подписчика. Канал закрывается при отписке.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub рассылает события всем текущим подписчикам.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
}

// NewHub создаёт новый hub без подписчиков.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe регистрирует нового подписчика. Прошлые события не доставляются.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe удаляет подписчика и закрывает его канал. Повторный вызов безопасен.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.ch)
}

// Publish доставляет событие всем текущим подписчикам, не блокируясь.
// Отправка выполняется под мьютексом, чтобы не писать в закрытый при отписке канал.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.ch <- e:
		default:
			// буфер подписчика заполнен — событие для него теряется
		}
	}
}
