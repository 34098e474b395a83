package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/model"
	"github.com/mmeshcher/carsharing-system/internal/search"
)

type vehicleRequest struct {
	Model     string      `json:"model" validate:"required"`
	Brand     string      `json:"brand" validate:"required"`
	Type      string      `json:"type" validate:"required,vehicletype"`
	Inventory int         `json:"inventory" validate:"gte=0"`
	DailyFee  json.Number `json:"daily_fee" validate:"required"`
}

func (req vehicleRequest) toModel() (model.Vehicle, error) {
	fee, err := model.ParseMoney(req.DailyFee.String())
	if err != nil {
		return model.Vehicle{}, err
	}
	return model.Vehicle{
		Model:     req.Model,
		Brand:     req.Brand,
		Type:      model.VehicleType(req.Type),
		Inventory: req.Inventory,
		DailyFee:  fee,
	}, nil
}

type vehicleResponse struct {
	ID        int64       `json:"id"`
	Model     string      `json:"model"`
	Brand     string      `json:"brand"`
	Type      string      `json:"type"`
	Inventory int         `json:"inventory"`
	DailyFee  json.Number `json:"daily_fee"`
}

func toVehicleResponse(v model.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:        v.ID,
		Model:     v.Model,
		Brand:     v.Brand,
		Type:      string(v.Type),
		Inventory: v.Inventory,
		DailyFee:  json.Number(v.DailyFee.String()),
	}
}

// CreateVehicle добавляет автомобиль в каталог.
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := req.toModel()
	if err != nil {
		h.writeError(w, r, "create vehicle", err)
		return
	}

	created, err := h.vehicles.Create(r.Context(), v)
	if err != nil {
		h.writeError(w, r, "create vehicle", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toVehicleResponse(*created))
}

// GetVehicle возвращает автомобиль по идентификатору.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.vehicles.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get vehicle", err)
		return
	}

	h.writeJSON(w, http.StatusOK, toVehicleResponse(*v))
}

// UpdateVehicle заменяет описание автомобиля.
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req vehicleRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := req.toModel()
	if err != nil {
		h.writeError(w, r, "update vehicle", err)
		return
	}
	v.ID = id

	updated, err := h.vehicles.Update(r.Context(), v)
	if err != nil {
		h.writeError(w, r, "update vehicle", err)
		return
	}

	h.writeJSON(w, http.StatusOK, toVehicleResponse(*updated))
}

// DeleteVehicle удаляет автомобиль из каталога.
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.vehicles.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, "delete vehicle", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchVehicles ищет автомобили по параметрам brand, model, type и dailyFee.
// Каждый параметр можно повторять или перечислять через запятую.
func (h *Handler) SearchVehicles(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := searchFilter(r)
	if err != nil {
		h.writeError(w, r, "search vehicles", err)
		return
	}

	res, err := h.vehicles.Search(r.Context(), filter, page)
	if err != nil {
		h.writeError(w, r, "search vehicles", err)
		return
	}

	items := make([]vehicleResponse, 0, len(res.Items))
	for _, v := range res.Items {
		items = append(items, toVehicleResponse(v))
	}

	h.logger.Debug("vehicle search", zap.Int("found", len(items)), zap.Int64("total", res.Total))
	h.writeJSON(w, http.StatusOK, pageResponse[vehicleResponse]{
		Content: items,
		Page:    res.Number,
		Size:    res.Size,
		Total:   res.Total,
	})
}

func queryValues(r *http.Request, key string) []string {
	var res []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				res = append(res, v)
			}
		}
	}
	return res
}

func searchFilter(r *http.Request) (search.Filter, error) {
	f := search.Filter{
		Brands: queryValues(r, search.AttrBrand.String()),
		Models: queryValues(r, search.AttrModel.String()),
	}

	for _, v := range queryValues(r, search.AttrType.String()) {
		t, err := model.ParseVehicleType(v)
		if err != nil {
			return search.Filter{}, err
		}
		f.Types = append(f.Types, t)
	}

	for _, v := range queryValues(r, search.AttrDailyFee.String()) {
		fee, err := model.ParseMoney(v)
		if err != nil {
			return search.Filter{}, err
		}
		f.DailyFees = append(f.DailyFees, fee)
	}

	return f, nil
}
