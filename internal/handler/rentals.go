package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmeshcher/carsharing-system/internal/service"
)

type rentalRequest struct {
	CarID      int64     `json:"car_id" validate:"required,gt=0"`
	RentalDate time.Time `json:"rental_date" validate:"required"`
	ReturnDate time.Time `json:"return_date" validate:"required,gtefield=RentalDate"`
}

type returnRequest struct {
	CarIDs []int64 `json:"car_ids" validate:"omitempty,dive,gt=0"`
}

// CreateRental оформляет аренду автомобиля текущим пользователем.
func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req rentalRequest
	if !h.decode(w, r, &req) {
		return
	}

	rental, err := h.rentals.Create(r.Context(), userID, req.CarID, req.RentalDate, req.ReturnDate)
	if err != nil {
		h.writeError(w, r, "create rental", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, service.ViewOf(*rental))
}

// ReturnRentals возвращает автомобили по активным арендам текущего пользователя.
func (h *Handler) ReturnRentals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req returnRequest
	if !h.decode(w, r, &req) {
		return
	}

	returned, err := h.rentals.ReturnVehicles(r.Context(), userID, req.CarIDs)
	if err != nil {
		h.writeError(w, r, "return rentals", err)
		return
	}

	views := service.ViewsOf(returned)
	h.writeJSON(w, http.StatusOK, pageResponse[service.RentalView]{
		Content: views,
		Page:    0,
		Size:    len(views),
		Total:   int64(len(views)),
	})
}

// ListRentals возвращает активные (active=true, по умолчанию) или завершённые аренды текущего пользователя.
func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	active := true
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid active flag", http.StatusBadRequest)
			return
		}
		active = parsed
	}

	views, err := h.rentals.ListByActivity(r.Context(), userID, active)
	if err != nil {
		h.writeError(w, r, "list rentals", err)
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// GetRental возвращает аренду текущего пользователя.
func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.rentals.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, "get rental", err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}
