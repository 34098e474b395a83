package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

const vehicleColumns = `id, model, brand, vehicle_type, inventory, daily_fee, is_deleted`

func scanVehicle(row pgx.Row) (model.Vehicle, error) {
	var (
		v        model.Vehicle
		vType    string
		dailyFee int64
	)
	if err := row.Scan(&v.ID, &v.Model, &v.Brand, &vType, &v.Inventory, &dailyFee, &v.Deleted); err != nil {
		return model.Vehicle{}, err
	}
	v.Type = model.VehicleType(vType)
	v.DailyFee = model.Money(dailyFee)
	return v, nil
}

// CreateVehicle сохраняет новый автомобиль и возвращает его идентификатор.
func (r *PostgresRepository) CreateVehicle(ctx context.Context, v model.Vehicle) (int64, error) {
	var id int64
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO vehicles (model, brand, vehicle_type, inventory, daily_fee)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		v.Model, v.Brand, string(v.Type), v.Inventory, int64(v.DailyFee),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert vehicle: %w", err)
	}
	return id, nil
}

// GetVehicle возвращает неудалённый автомобиль по идентификатору.
func (r *PostgresRepository) GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error) {
	v, err := scanVehicle(r.db(ctx).QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND NOT is_deleted`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: vehicle %d", model.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &v, nil
}

// UpdateVehicle обновляет описание, тариф и количество единиц автомобиля.
func (r *PostgresRepository) UpdateVehicle(ctx context.Context, v model.Vehicle) error {
	cmdTag, err := r.db(ctx).Exec(ctx,
		`UPDATE vehicles
		 SET model = $2, brand = $3, vehicle_type = $4, inventory = $5, daily_fee = $6
		 WHERE id = $1 AND NOT is_deleted`,
		v.ID, v.Model, v.Brand, string(v.Type), v.Inventory, int64(v.DailyFee),
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vehicle %d", model.ErrNotFound, v.ID)
	}
	return nil
}

// DeleteVehicle помечает автомобиль удалённым.
func (r *PostgresRepository) DeleteVehicle(ctx context.Context, id int64) error {
	cmdTag, err := r.db(ctx).Exec(ctx,
		`UPDATE vehicles SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vehicle %d", model.ErrNotFound, id)
	}
	return nil
}

// SearchVehicles возвращает страницу автомобилей, удовлетворяющих условию where.
// Условие и его аргументы строит пакет search; сортировка по идентификатору.
func (r *PostgresRepository) SearchVehicles(ctx context.Context, where string, args []any, page model.PageRequest) ([]model.Vehicle, int64, error) {
	var total int64
	if err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM vehicles WHERE `+where,
		args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	limitArg := "$" + strconv.Itoa(len(args)+1)
	offsetArg := "$" + strconv.Itoa(len(args)+2)
	queryArgs := append(append([]any{}, args...), page.Size, page.Offset())

	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE `+where+
			` ORDER BY id LIMIT `+limitArg+` OFFSET `+offsetArg,
		queryArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select vehicles: %w", err)
	}
	defer rows.Close()

	var res []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan vehicle: %w", err)
		}
		res = append(res, v)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// VehicleExists сообщает, есть ли неудалённый автомобиль с таким идентификатором.
func (r *PostgresRepository) VehicleExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1 AND NOT is_deleted)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("vehicle exists: %w", err)
	}
	return exists, nil
}

// DecrementInventory атомарно уменьшает количество свободных единиц, если оно больше нуля.
func (r *PostgresRepository) DecrementInventory(ctx context.Context, vehicleID int64) (bool, error) {
	cmdTag, err := r.db(ctx).Exec(ctx,
		`UPDATE vehicles SET inventory = inventory - 1
		 WHERE id = $1 AND NOT is_deleted AND inventory > 0`,
		vehicleID,
	)
	if err != nil {
		return false, fmt.Errorf("decrement inventory: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// IncrementInventory атомарно увеличивает количество свободных единиц.
// Удалённый автомобиль тоже принимается обратно: аренда могла начаться до удаления.
func (r *PostgresRepository) IncrementInventory(ctx context.Context, vehicleID int64) (bool, error) {
	cmdTag, err := r.db(ctx).Exec(ctx,
		`UPDATE vehicles SET inventory = inventory + 1 WHERE id = $1`,
		vehicleID,
	)
	if err != nil {
		return false, fmt.Errorf("increment inventory: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
