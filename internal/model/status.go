package model

// OrderStatus описывает статус обработки заявки на доставку.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// allowedTransitions задаёт допустимые переходы статусов.
// Терминальные статусы (COMPLETED, CANCELLED) не имеют исходящих переходов.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// CanTransition проверяет, допустим ли переход статуса from -> to.
// Повторный переход в тот же статус не допускается.
func CanTransition(from, to OrderStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range targets {
		if s == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus преобразует строку в статус заявки.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}
