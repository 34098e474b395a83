package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/inventory"
	"github.com/mmeshcher/carsharing-system/internal/metrics"
	"github.com/mmeshcher/carsharing-system/internal/model"
)

// RentalRepository описывает контракт хранилища, используемый RentalService.
type RentalRepository interface {
	inventory.Store
	CreateRental(ctx context.Context, rental model.Rental) (int64, error)
	GetActiveRentalsByUser(ctx context.Context, userID int64) ([]model.Rental, error)
	GetReturnedRentalsByUser(ctx context.Context, userID int64) ([]model.Rental, error)
	GetRentalByUser(ctx context.Context, userID, rentalID int64) (*model.Rental, error)
	MarkRentalReturned(ctx context.Context, rentalID int64, at time.Time) (bool, error)
}

// RentalService управляет жизненным циклом аренды: выдача автомобиля и его возврат.
type RentalService struct {
	tx       Transactor
	repo     RentalRepository
	ledger   *inventory.Ledger
	notifier Notifier
	clock    Clock
	logger   *zap.Logger
}

// NewRentalService создаёт сервис аренды.
func NewRentalService(tx Transactor, repo RentalRepository, notifier Notifier, logger *zap.Logger) *RentalService {
	return &RentalService{
		tx:       tx,
		repo:     repo,
		ledger:   inventory.NewLedger(repo),
		notifier: notifier,
		clock:    realClock{},
		logger:   logger,
	}
}

// Create оформляет аренду автомобиля. Списание единицы автомобиля и запись аренды
// выполняются в одной транзакции.
func (s *RentalService) Create(ctx context.Context, userID, vehicleID int64, start, scheduledEnd time.Time) (*model.Rental, error) {
	if scheduledEnd.Before(start) {
		return nil, fmt.Errorf("%w: return date is before rental date", model.ErrValidation)
	}

	var rental *model.Rental
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rental = nil

		if err := s.ledger.Take(ctx, vehicleID); err != nil {
			return err
		}

		id, err := s.repo.CreateRental(ctx, model.Rental{
			UserID:         userID,
			VehicleID:      vehicleID,
			StartAt:        start,
			ScheduledEndAt: scheduledEnd,
		})
		if err != nil {
			return err
		}

		rental, err = s.repo.GetRentalByUser(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RentalsCreated.Inc()
	s.logger.Info("rental created",
		zap.Int64("rental_id", rental.ID),
		zap.Int64("user_id", userID),
		zap.Int64("vehicle_id", vehicleID),
	)
	notify(ctx, s.notifier, s.logger, rentedNotice(rental.Vehicle))

	return rental, nil
}

// ReturnVehicles завершает активные аренды пользователя по указанным автомобилям
// и возвращает завершённые аренды.
func (s *RentalService) ReturnVehicles(ctx context.Context, userID int64, vehicleIDs []int64) ([]model.Rental, error) {
	if len(vehicleIDs) == 0 {
		return nil, fmt.Errorf("%w: no vehicles to return", model.ErrValidation)
	}

	requested := make(map[int64]struct{}, len(vehicleIDs))
	for _, id := range vehicleIDs {
		requested[id] = struct{}{}
	}

	var returned []model.Rental
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		returned = nil

		active, err := s.repo.GetActiveRentalsByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return fmt.Errorf("%w: no active rentals for user %d", model.ErrNotFound, userID)
		}

		now := s.clock.Now()
		for _, r := range active {
			if _, ok := requested[r.VehicleID]; !ok {
				continue
			}

			ok, err := s.repo.MarkRentalReturned(ctx, r.ID, now)
			if err != nil {
				return err
			}
			if !ok {
				// аренду уже завершил параллельный запрос
				continue
			}
			if err := s.ledger.Release(ctx, r.VehicleID); err != nil {
				return err
			}

			r.ActualReturnAt = &now
			returned = append(returned, r)
		}

		if len(returned) == 0 {
			return fmt.Errorf("%w: no active rentals for requested vehicles", model.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RentalsReturned.Add(float64(len(returned)))
	s.logger.Info("vehicles returned", zap.Int64("user_id", userID), zap.Int("count", len(returned)))
	for _, text := range returnNotices(returned) {
		notify(ctx, s.notifier, s.logger, text)
	}

	return returned, nil
}

// returnNotices формирует уведомления о возврате. Уведомляются только аренды,
// завершённые этим запросом; остальные активные аренды пользователя не упоминаются.
func returnNotices(returned []model.Rental) []string {
	res := make([]string, 0, len(returned))
	for _, r := range returned {
		res = append(res, fmt.Sprintf("%s %s was successfully returned", r.Vehicle.Brand, r.Vehicle.Model))
	}
	return res
}

func rentedNotice(v model.Vehicle) string {
	return fmt.Sprintf("%s %s was successfully rented", v.Brand, v.Model)
}

// ListByActivity возвращает активные или завершённые аренды пользователя.
func (s *RentalService) ListByActivity(ctx context.Context, userID int64, active bool) ([]RentalView, error) {
	var (
		rentals []model.Rental
		err     error
	)
	if active {
		rentals, err = s.repo.GetActiveRentalsByUser(ctx, userID)
	} else {
		rentals, err = s.repo.GetReturnedRentalsByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	if len(rentals) == 0 {
		return nil, fmt.Errorf("%w: no rentals for user %d", model.ErrNotFound, userID)
	}

	return ViewsOf(rentals), nil
}

// Get возвращает аренду пользователя по идентификатору.
func (s *RentalService) Get(ctx context.Context, userID, rentalID int64) (RentalView, error) {
	r, err := s.repo.GetRentalByUser(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}
	return ViewOf(*r), nil
}
