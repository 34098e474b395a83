package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

type paymentRequest struct {
	RentalID int64  `json:"rental_id" validate:"required,gt=0"`
	Type     string `json:"type" validate:"required,paymentkind"`
}

type paymentResponse struct {
	ID         int64       `json:"id"`
	RentalID   int64       `json:"rental_id"`
	Status     string      `json:"status"`
	Type       string      `json:"type"`
	Amount     json.Number `json:"amount_to_pay"`
	SessionID  string      `json:"session_id"`
	SessionURL string      `json:"session_url"`
}

func toPaymentResponse(p model.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		RentalID:   p.RentalID,
		Status:     string(p.Status),
		Type:       string(p.Kind),
		Amount:     json.Number(p.Amount.String()),
		SessionID:  p.SessionID,
		SessionURL: p.SessionURL,
	}
}

type paymentStatusResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// CreatePayment создаёт платёж по аренде текущего пользователя и возвращает ссылку на оплату.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := model.ParsePaymentKind(req.Type)
	if err != nil {
		h.writeError(w, r, "create payment", err)
		return
	}

	p, err := h.payments.Create(r.Context(), userID, req.RentalID, kind)
	if err != nil {
		h.writeError(w, r, "create payment", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toPaymentResponse(*p))
}

// ListPayments возвращает страницу платежей текущего пользователя.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := pageRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.payments.ListByUser(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, "list payments", err)
		return
	}

	items := make([]paymentResponse, 0, len(res.Items))
	for _, p := range res.Items {
		items = append(items, toPaymentResponse(p))
	}

	h.writeJSON(w, http.StatusOK, pageResponse[paymentResponse]{
		Content: items,
		Page:    res.Number,
		Size:    res.Size,
		Total:   res.Total,
	})
}

// PaymentSuccess принимает возврат пользователя со страницы оплаты и сверяет статус платежа.
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, "payment success")
}

// PaymentCancel принимает отмену оплаты. Статус всё равно сверяется с провайдером.
func (h *Handler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, "payment cancel")
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, op string) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	status, err := h.payments.Reconcile(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, http.StatusOK, paymentStatusResponse{SessionID: sessionID, Status: string(status)})
}
