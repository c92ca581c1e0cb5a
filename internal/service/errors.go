package service

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается, когда вызывающий не существует или не имеет прав на операцию.
var (
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrInvalidTransition возвращается при недопустимом переходе статуса,
	// в том числе при проигрыше конкурентного обновления той же заявки.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError описывает ошибку валидации входных данных с указанием поля.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}
