package service

import (
	"time"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// RentalView описывает представление аренды для клиента. Активная и завершённая аренда
// отображаются разными типами с общим интерфейсом.
type RentalView interface {
	RentalID() int64
	Returned() bool
}

// ActiveRentalView содержит представление аренды без даты фактического возврата.
type ActiveRentalView struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	VehicleID  int64     `json:"car_id"`
	RentalDate time.Time `json:"rental_date"`
	ReturnDate time.Time `json:"return_date"`
}

func (v ActiveRentalView) RentalID() int64 { return v.ID }
func (v ActiveRentalView) Returned() bool  { return false }

// ReturnedRentalView содержит полное представление завершённой аренды.
type ReturnedRentalView struct {
	ActiveRentalView
	ActualReturnDate time.Time `json:"actual_return_date"`
}

func (v ReturnedRentalView) Returned() bool { return true }

// ViewOf выбирает представление по тому, возвращён ли автомобиль.
func ViewOf(r model.Rental) RentalView {
	base := ActiveRentalView{
		ID:         r.ID,
		UserID:     r.UserID,
		VehicleID:  r.VehicleID,
		RentalDate: r.StartAt,
		ReturnDate: r.ScheduledEndAt,
	}
	if r.ActualReturnAt == nil {
		return base
	}
	return ReturnedRentalView{ActiveRentalView: base, ActualReturnDate: *r.ActualReturnAt}
}

// ViewsOf применяет ViewOf к каждой аренде.
func ViewsOf(rentals []model.Rental) []RentalView {
	res := make([]RentalView, len(rentals))
	for i, r := range rentals {
		res[i] = ViewOf(r)
	}
	return res
}
