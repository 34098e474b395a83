// Package inventory содержит правила изменения количества свободных автомобилей.
package inventory

import (
	"context"
	"fmt"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// Store описывает атомарные операции над счётчиком свободных единиц.
type Store interface {
	// DecrementInventory уменьшает счётчик на единицу, только если он больше нуля
	// и автомобиль не удалён. Возвращает false, если строка не изменилась.
	DecrementInventory(ctx context.Context, vehicleID int64) (bool, error)
	// IncrementInventory увеличивает счётчик на единицу. Возвращает false, если автомобиля нет.
	IncrementInventory(ctx context.Context, vehicleID int64) (bool, error)
	VehicleExists(ctx context.Context, vehicleID int64) (bool, error)
}

// Ledger списывает единицу автомобиля при аренде и возвращает её при возврате.
type Ledger struct {
	store Store
}

// NewLedger создаёт Ledger поверх хранилища.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Take занимает одну единицу автомобиля. Счётчик никогда не становится отрицательным:
// при нулевом остатке возвращается model.ErrNoInventory.
func (l *Ledger) Take(ctx context.Context, vehicleID int64) error {
	ok, err := l.store.DecrementInventory(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if ok {
		return nil
	}

	exists, err := l.store.VehicleExists(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("check vehicle: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: vehicle %d", model.ErrNotFound, vehicleID)
	}
	return fmt.Errorf("%w: vehicle %d", model.ErrNoInventory, vehicleID)
}

// Release возвращает одну единицу автомобиля в парк.
func (l *Ledger) Release(ctx context.Context, vehicleID int64) error {
	ok, err := l.store.IncrementInventory(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("increment inventory: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: vehicle %d", model.ErrNotFound, vehicleID)
	}
	return nil
}
