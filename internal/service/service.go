// Package service реализует бизнес-логику сервиса каршеринга:
// жизненный цикл аренды, расчёты по платежам и каталог автомобилей.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/checkout"
	"github.com/mmeshcher/carsharing-system/internal/metrics"
	"github.com/mmeshcher/carsharing-system/internal/model"
)

// Transactor выполняет fn в одной транзакции хранилища.
// fn может быть вызвана повторно, если транзакцию пришлось перезапустить.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier отправляет текстовое уведомление во внешний канал.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// CheckoutProvider описывает внешнего провайдера оплаты.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, amount model.Money, currency, successURL, cancelURL string) (*checkout.Session, error)
	PaymentStatus(ctx context.Context, sessionID string) (string, error)
}

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// notify отправляет уведомление. Ошибка доставки не прерывает операцию,
// но пишется в журнал и учитывается в метриках.
func notify(ctx context.Context, n Notifier, logger *zap.Logger, text string) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, text); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("failed to send notification", zap.String("text", text), zap.Error(err))
	}
}
