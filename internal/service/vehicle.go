package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/model"
	"github.com/mmeshcher/carsharing-system/internal/search"
)

// VehicleRepository описывает контракт хранилища каталога автомобилей.
type VehicleRepository interface {
	CreateVehicle(ctx context.Context, v model.Vehicle) (int64, error)
	GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, v model.Vehicle) error
	DeleteVehicle(ctx context.Context, id int64) error
	SearchVehicles(ctx context.Context, where string, args []any, page model.PageRequest) ([]model.Vehicle, int64, error)
}

// VehicleService ведёт каталог автомобилей и поиск по нему.
type VehicleService struct {
	repo   VehicleRepository
	logger *zap.Logger
}

// NewVehicleService создаёт сервис каталога.
func NewVehicleService(repo VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

func normalizeVehicle(v model.Vehicle) (model.Vehicle, error) {
	v.Brand = strings.TrimSpace(v.Brand)
	v.Model = strings.TrimSpace(v.Model)
	if v.Brand == "" || v.Model == "" {
		return v, fmt.Errorf("%w: brand and model are required", model.ErrValidation)
	}
	if v.Inventory < 0 {
		return v, fmt.Errorf("%w: inventory must not be negative", model.ErrValidation)
	}
	if v.DailyFee <= 0 {
		return v, fmt.Errorf("%w: daily fee must be positive", model.ErrValidation)
	}

	t, err := model.ParseVehicleType(string(v.Type))
	if err != nil {
		return v, err
	}
	v.Type = t
	v.Deleted = false
	return v, nil
}

// Create добавляет автомобиль в каталог.
func (s *VehicleService) Create(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	v, err := normalizeVehicle(v)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreateVehicle(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = id

	s.logger.Info("vehicle created", zap.Int64("vehicle_id", id))
	return &v, nil
}

// Get возвращает автомобиль по идентификатору.
func (s *VehicleService) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	return s.repo.GetVehicle(ctx, id)
}

// Update заменяет описание автомобиля.
func (s *VehicleService) Update(ctx context.Context, v model.Vehicle) (*model.Vehicle, error) {
	v, err := normalizeVehicle(v)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete удаляет автомобиль из каталога. Удалённый автомобиль не находится поиском и не сдаётся в аренду.
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteVehicle(ctx, id); err != nil {
		return err
	}
	s.logger.Info("vehicle deleted", zap.Int64("vehicle_id", id))
	return nil
}

// Search возвращает страницу автомобилей, подходящих под фильтр. Пустой фильтр возвращает весь каталог.
func (s *VehicleService) Search(ctx context.Context, filter search.Filter, page model.PageRequest) (model.Page[model.Vehicle], error) {
	q, err := search.Build(filter)
	if err != nil {
		return model.Page[model.Vehicle]{}, err
	}

	page = page.Normalize()
	where, args := q.Where()

	items, total, err := s.repo.SearchVehicles(ctx, where, args, page)
	if err != nil {
		return model.Page[model.Vehicle]{}, err
	}

	return model.Page[model.Vehicle]{
		Items:  items,
		Number: page.Number,
		Size:   page.Size,
		Total:  total,
	}, nil
}
