// Package handler содержит HTTP-обработчики API сервиса каршеринга.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/middleware"
	"github.com/mmeshcher/carsharing-system/internal/model"
	"github.com/mmeshcher/carsharing-system/internal/search"
	"github.com/mmeshcher/carsharing-system/internal/service"
	"github.com/mmeshcher/carsharing-system/internal/validation"
)

// VehicleService определяет операции каталога автомобилей.
type VehicleService interface {
	Create(ctx context.Context, v model.Vehicle) (*model.Vehicle, error)
	Get(ctx context.Context, id int64) (*model.Vehicle, error)
	Update(ctx context.Context, v model.Vehicle) (*model.Vehicle, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter search.Filter, page model.PageRequest) (model.Page[model.Vehicle], error)
}

// RentalService определяет операции жизненного цикла аренды.
type RentalService interface {
	Create(ctx context.Context, userID, vehicleID int64, start, scheduledEnd time.Time) (*model.Rental, error)
	ReturnVehicles(ctx context.Context, userID int64, vehicleIDs []int64) ([]model.Rental, error)
	ListByActivity(ctx context.Context, userID int64, active bool) ([]service.RentalView, error)
	Get(ctx context.Context, userID, rentalID int64) (service.RentalView, error)
}

// PaymentService определяет операции с платежами.
type PaymentService interface {
	Create(ctx context.Context, userID, rentalID int64, kind model.PaymentKind) (*model.Payment, error)
	Reconcile(ctx context.Context, sessionID string) (model.PaymentStatus, error)
	ListByUser(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Payment], error)
}

// Handler реализует HTTP-обработчики API сервиса каршеринга.
type Handler struct {
	vehicles       VehicleService
	rentals        RentalService
	payments       PaymentService
	validator      *validation.Validator
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	redis          *redis.Client
}

// NewHandler создаёт обработчик HTTP-запросов. redisClient может быть nil:
// тогда повторные запросы с Idempotency-Key не отсекаются.
func NewHandler(
	vehicles VehicleService,
	rentals RentalService,
	payments PaymentService,
	logger *zap.Logger,
	auth *middleware.AuthMiddleware,
	redisClient *redis.Client,
) *Handler {
	return &Handler{
		vehicles:       vehicles,
		rentals:        rentals,
		payments:       payments,
		validator:      validation.New(),
		logger:         logger,
		authMiddleware: auth,
		redis:          redisClient,
	}
}

type pageResponse[T any] struct {
	Content []T   `json:"content"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Total   int64 `json:"total"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError отображает вид ошибки на HTTP-статус.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var status int
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNoInventory):
		status = http.StatusConflict
	case errors.Is(err, model.ErrPaymentProvider):
		h.logger.Warn(op+" error", zap.Error(err), zap.String("request_id", middleware.RequestIDFromContext(r.Context())))
		status = http.StatusBadRequest
	default:
		h.logger.Error(op+" error", zap.Error(err), zap.String("request_id", middleware.RequestIDFromContext(r.Context())))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), status)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func pageRequest(r *http.Request) (model.PageRequest, error) {
	var p model.PageRequest
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, errors.New("invalid page")
		}
		p.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, errors.New("invalid size")
		}
		p.Size = n
	}

	return p.Normalize(), nil
}
