package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mmeshcher/carsharing-system/internal/metrics"
	custommiddleware "github.com/mmeshcher/carsharing-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса каршеринга.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5, "application/json", "text/plain"))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// сюда провайдер оплаты возвращает браузер пользователя, токена в запросе нет
		r.Get("/payments/success", h.PaymentSuccess)
		r.Get("/payments/cancel", h.PaymentCancel)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(custommiddleware.Idempotency(h.redis, h.logger))

			r.Get("/cars", h.SearchVehicles)
			r.Get("/cars/{id}", h.GetVehicle)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(custommiddleware.RoleManager))

				r.Post("/cars", h.CreateVehicle)
				r.Put("/cars/{id}", h.UpdateVehicle)
				r.Delete("/cars/{id}", h.DeleteVehicle)
			})

			r.Post("/rentals", h.CreateRental)
			r.Post("/rentals/return", h.ReturnRentals)
			r.Get("/rentals", h.ListRentals)
			r.Get("/rentals/{id}", h.GetRental)

			r.Post("/payments", h.CreatePayment)
			r.Get("/payments", h.ListPayments)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
