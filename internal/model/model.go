// Package model содержит доменные сущности сервиса доставки.
package model

import "time"

// Role определяет роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User представляет зарегистрированного пользователя сервиса доставки.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin сообщает, обладает ли пользователь правами администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Zone описывает зону доставки с фиксированной стоимостью.
type Zone string

const (
	ZoneTown   Zone = "Town"
	ZoneMarket Zone = "Market"
	ZoneCampus Zone = "Campus"
	ZoneMall   Zone = "Mall"
)

// zoneFees задаёт фиксированную стоимость доставки по зонам в нгве.
var zoneFees = map[Zone]int64{
	ZoneTown:   1500,
	ZoneMarket: 2000,
	ZoneCampus: 2500,
	ZoneMall:   3000,
}

// DeliveryFee возвращает стоимость доставки для зоны и признак того, что зона известна.
func DeliveryFee(z Zone) (int64, bool) {
	fee, ok := zoneFees[z]
	return fee, ok
}

// Order описывает заявку на доставку.
type Order struct {
	ID            int64
	UserID        int64
	Description   string
	Zone          Zone
	EstimatedTime string
	Instructions  string
	DeliveryFee   int64
	Status        OrderStatus
	CreatedAt     time.Time
}
