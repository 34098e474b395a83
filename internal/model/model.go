// Package model содержит доменные сущности сервиса каршеринга.
package model

import (
	"fmt"
	"strings"
	"time"
)

// VehicleType описывает класс автомобиля.
type VehicleType string

const (
	VehicleTypeSedan     VehicleType = "SEDAN"
	VehicleTypeSUV       VehicleType = "SUV"
	VehicleTypeHatchback VehicleType = "HATCHBACK"
	VehicleTypeUniversal VehicleType = "UNIVERSAL"
)

// ParseVehicleType разбирает класс автомобиля без учёта регистра.
func ParseVehicleType(s string) (VehicleType, error) {
	t := VehicleType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case VehicleTypeSedan, VehicleTypeSUV, VehicleTypeHatchback, VehicleTypeUniversal:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, s)
}

// Vehicle описывает модель автомобиля в парке и количество свободных единиц.
type Vehicle struct {
	ID        int64
	Model     string
	Brand     string
	Type      VehicleType
	Inventory int
	DailyFee  Money
	Deleted   bool
}

// Rental описывает аренду автомобиля пользователем.
// ActualReturnAt == nil означает, что аренда активна.
type Rental struct {
	ID             int64
	UserID         int64
	VehicleID      int64
	StartAt        time.Time
	ScheduledEndAt time.Time
	ActualReturnAt *time.Time

	// Vehicle заполняется репозиторием при чтении аренды.
	Vehicle Vehicle
}

// Active сообщает, что автомобиль по аренде ещё не возвращён.
func (r Rental) Active() bool {
	return r.ActualReturnAt == nil
}

// PaymentStatus описывает статус платежа.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// PaymentKind описывает, за что берётся плата.
type PaymentKind string

const (
	// PaymentKindStandard означает оплату запланированного периода аренды.
	PaymentKindStandard PaymentKind = "STANDARD"
	// PaymentKindLate означает штраф за просрочку возврата.
	PaymentKindLate PaymentKind = "LATE"
)

// ParsePaymentKind разбирает вид платежа без учёта регистра.
func ParsePaymentKind(s string) (PaymentKind, error) {
	k := PaymentKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case PaymentKindStandard, PaymentKindLate:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown payment kind %q", ErrValidation, s)
}

// Payment описывает платёж по аренде и привязанную к нему сессию оплаты.
type Payment struct {
	ID         int64
	RentalID   int64
	Status     PaymentStatus
	Kind       PaymentKind
	Amount     Money
	SessionID  string
	SessionURL string
	CreatedAt  time.Time
}
