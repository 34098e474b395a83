// Package settlement рассчитывает сумму к оплате по аренде.
package settlement

import (
	"fmt"
	"time"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

const day = 24 * time.Hour

// ChargeableDays возвращает число оплачиваемых суток между from и to.
// Каждые начатые сутки оплачиваются полностью, но не меньше одних суток.
func ChargeableDays(from, to time.Time) int64 {
	delta := to.Sub(from)
	days := int64(delta / day)
	if delta%day > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// AmountOwed рассчитывает сумму платежа указанного вида по суточному тарифу автомобиля.
// Штраф за просрочку нельзя рассчитать для активной аренды.
func AmountOwed(r model.Rental, kind model.PaymentKind) (model.Money, error) {
	var days int64

	switch kind {
	case model.PaymentKindStandard:
		days = ChargeableDays(r.StartAt, r.ScheduledEndAt)
	case model.PaymentKindLate:
		if r.ActualReturnAt == nil {
			return 0, fmt.Errorf("%w: rental %d is still active, late fee is undefined", model.ErrValidation, r.ID)
		}
		days = ChargeableDays(r.ScheduledEndAt, *r.ActualReturnAt)
	default:
		return 0, fmt.Errorf("%w: unknown payment kind %q", model.ErrValidation, kind)
	}

	amount, err := r.Vehicle.DailyFee.Times(days)
	if err != nil {
		return 0, fmt.Errorf("rental %d: %w", r.ID, err)
	}
	return amount, nil
}
