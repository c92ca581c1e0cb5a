// Package service реализует бизнес-логику сервиса доставки: валидацию заявок,
// проверку прав и жизненный цикл статусов.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/mmeshcher/delivery-tracker/internal/model"
	"github.com/mmeshcher/delivery-tracker/internal/notifier"
	"github.com/mmeshcher/delivery-tracker/internal/repository"
	"github.com/mmeshcher/delivery-tracker/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateOrder(ctx context.Context, o *model.Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetAllOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatusIfCurrent(ctx context.Context, id int64, expected, next model.OrderStatus) (bool, error)
}

// Notifier описывает шину уведомлений, в которую сервис публикует события
// после успешной записи в хранилище. Публикация не блокирует операцию.
type Notifier interface {
	Publish(e notifier.Event)
}

// Service содержит бизнес-логику сервиса доставки.
type Service struct {
	repo Repository
	bus  Notifier
	now  func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием и шиной уведомлений.
func NewService(repo Repository, bus Notifier) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		now:  time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя с ролью user.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	hashed := hashPassword(login, password)
	id, err := s.repo.CreateUser(ctx, login, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	hashed := hashPassword(login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// CreateOrderInput содержит данные новой заявки на доставку.
type CreateOrderInput struct {
	Description   string
	Zone          model.Zone
	EstimatedTime string
	Instructions  string
}

func validateOrderInput(in CreateOrderInput) (int64, error) {
	if !validation.IsValidDescription(in.Description) {
		return 0, &ValidationError{Field: "description", Reason: "must be 5-1000 characters"}
	}
	fee, ok := model.DeliveryFee(in.Zone)
	if !ok {
		return 0, &ValidationError{Field: "zone", Reason: "unknown delivery zone"}
	}
	if !validation.IsValidTimeOfDay(in.EstimatedTime) {
		return 0, &ValidationError{Field: "estimated_time", Reason: "must be a time of day in HH:MM format"}
	}
	if !validation.IsValidInstructions(in.Instructions) {
		return 0, &ValidationError{Field: "instructions", Reason: "must be at most 500 characters"}
	}
	return fee, nil
}

// CreateOrder создаёт новую заявку на доставку от имени callerID.
// Заявка всегда начинает жизненный цикл в статусе PENDING.
func (s *Service) CreateOrder(ctx context.Context, callerID int64, in CreateOrderInput) (*model.Order, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	fee, err := validateOrderInput(in)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:        caller.ID,
		Description:   in.Description,
		Zone:          in.Zone,
		EstimatedTime: in.EstimatedTime,
		Instructions:  in.Instructions,
		DeliveryFee:   fee,
		Status:        model.OrderStatusPending,
		CreatedAt:     s.now(),
	}

	id, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	order.ID = id

	s.publish(notifier.Event{
		Type:    notifier.EventOrderCreated,
		OrderID: order.ID,
		Status:  order.Status,
	})

	return order, nil
}

// GetOrdersByUser возвращает заявки пользователя, новые первыми.
func (s *Service) GetOrdersByUser(ctx context.Context, callerID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, callerID)
}

// GetAllOrders возвращает все заявки, опционально ограниченные одним статусом.
// Доступно только администратору.
func (s *Service) GetAllOrders(ctx context.Context, callerID int64, status *model.OrderStatus) ([]model.Order, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, ErrUnauthorized
	}

	return s.repo.GetAllOrders(ctx, status)
}

// AdvanceStatus переводит заявку в целевой статус.
// Права проверяются до допустимости перехода, чтобы не раскрывать состояние
// заявки вызывающему без прав. Запись условная: при проигрыше конкурентного
// обновления возвращается ErrInvalidTransition.
func (s *Service) AdvanceStatus(ctx context.Context, callerID, orderID int64, target model.OrderStatus) (*model.Order, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := authorizeTransition(caller, order, target); err != nil {
		return nil, err
	}

	if !model.CanTransition(order.Status, target) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateOrderStatusIfCurrent(ctx, order.ID, order.Status, target)
	if err != nil {
		return nil, err
	}
	if !updated {
		// статус изменился между чтением и записью
		return nil, ErrInvalidTransition
	}

	order.Status = target

	s.publish(notifier.Event{
		Type:    notifier.EventOrderUpdated,
		OrderID: order.ID,
		Status:  order.Status,
	})

	return order, nil
}

// authorizeTransition проверяет право вызывающего на переход в целевой статус:
// отмена доступна только владельцу заявки, остальные переходы — администратору.
func authorizeTransition(caller *model.User, order *model.Order, target model.OrderStatus) error {
	switch target {
	case model.OrderStatusCancelled:
		if caller.ID != order.UserID {
			return ErrUnauthorized
		}
	case model.OrderStatusInProgress, model.OrderStatusCompleted:
		if !caller.IsAdmin() {
			return ErrUnauthorized
		}
	default:
		return ErrInvalidTransition
	}
	return nil
}

func (s *Service) resolveCaller(ctx context.Context, callerID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) publish(e notifier.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(e)
}
