package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

const rentalSelect = `
	SELECT r.id, r.user_id, r.vehicle_id, r.start_at, r.scheduled_end_at, r.actual_return_at,
	       v.id, v.model, v.brand, v.vehicle_type, v.inventory, v.daily_fee, v.is_deleted
	FROM rentals r
	JOIN vehicles v ON v.id = r.vehicle_id
	WHERE NOT r.is_deleted`

func scanRental(row pgx.Row) (model.Rental, error) {
	var (
		rental   model.Rental
		vType    string
		dailyFee int64
	)
	err := row.Scan(
		&rental.ID, &rental.UserID, &rental.VehicleID,
		&rental.StartAt, &rental.ScheduledEndAt, &rental.ActualReturnAt,
		&rental.Vehicle.ID, &rental.Vehicle.Model, &rental.Vehicle.Brand, &vType,
		&rental.Vehicle.Inventory, &dailyFee, &rental.Vehicle.Deleted,
	)
	if err != nil {
		return model.Rental{}, err
	}
	rental.Vehicle.Type = model.VehicleType(vType)
	rental.Vehicle.DailyFee = model.Money(dailyFee)
	return rental, nil
}

func (r *PostgresRepository) queryRentals(ctx context.Context, query string, args ...any) ([]model.Rental, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select rentals: %w", err)
	}
	defer rows.Close()

	var res []model.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		res = append(res, rental)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateRental сохраняет новую активную аренду и возвращает её идентификатор.
func (r *PostgresRepository) CreateRental(ctx context.Context, rental model.Rental) (int64, error) {
	var id int64
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO rentals (user_id, vehicle_id, start_at, scheduled_end_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		rental.UserID, rental.VehicleID, rental.StartAt, rental.ScheduledEndAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert rental: %w", err)
	}
	return id, nil
}

// GetActiveRentalsByUser возвращает аренды пользователя без даты фактического возврата.
func (r *PostgresRepository) GetActiveRentalsByUser(ctx context.Context, userID int64) ([]model.Rental, error) {
	return r.queryRentals(ctx,
		rentalSelect+` AND r.user_id = $1 AND r.actual_return_at IS NULL ORDER BY r.id`,
		userID,
	)
}

// GetReturnedRentalsByUser возвращает завершённые аренды пользователя.
func (r *PostgresRepository) GetReturnedRentalsByUser(ctx context.Context, userID int64) ([]model.Rental, error) {
	return r.queryRentals(ctx,
		rentalSelect+` AND r.user_id = $1 AND r.actual_return_at IS NOT NULL ORDER BY r.id`,
		userID,
	)
}

// GetRentalByUser возвращает аренду, только если она принадлежит пользователю.
func (r *PostgresRepository) GetRentalByUser(ctx context.Context, userID, rentalID int64) (*model.Rental, error) {
	rental, err := scanRental(r.db(ctx).QueryRow(ctx,
		rentalSelect+` AND r.user_id = $1 AND r.id = $2`,
		userID, rentalID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rental %d", model.ErrNotFound, rentalID)
		}
		return nil, fmt.Errorf("get rental: %w", err)
	}
	return &rental, nil
}

// MarkRentalReturned проставляет дату фактического возврата. Дата ставится один раз:
// если аренда уже завершена, строка не меняется и возвращается false.
func (r *PostgresRepository) MarkRentalReturned(ctx context.Context, rentalID int64, at time.Time) (bool, error) {
	cmdTag, err := r.db(ctx).Exec(ctx,
		`UPDATE rentals SET actual_return_at = $2
		 WHERE id = $1 AND actual_return_at IS NULL AND NOT is_deleted`,
		rentalID, at,
	)
	if err != nil {
		return false, fmt.Errorf("mark rental returned: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
