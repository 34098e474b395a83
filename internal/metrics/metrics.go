// Package metrics содержит счётчики Prometheus сервиса каршеринга.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RentalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carsharing_rentals_created_total",
		Help: "The total number of created rentals",
	})
	RentalsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carsharing_rentals_returned_total",
		Help: "The total number of returned rentals",
	})
	PaymentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsharing_payments_created_total",
		Help: "The total number of created payments by kind",
	}, []string{"kind"})
	PaymentsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsharing_payments_reconciled_total",
		Help: "The total number of payment reconciliations by resulting status",
	}, []string{"status"})
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carsharing_notification_failures_total",
		Help: "The total number of notifications that could not be delivered",
	})
)

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
