package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// ErrSessionExists возвращается при повторном сохранении платежа с той же сессией оплаты.
var ErrSessionExists = errors.New("payment session already stored")

const paymentColumns = `p.id, p.rental_id, p.status, p.kind, p.amount, p.session_id, p.session_url, p.created_at`

func scanPayment(row pgx.Row) (model.Payment, error) {
	var (
		p      model.Payment
		status string
		kind   string
		amount int64
	)
	if err := row.Scan(&p.ID, &p.RentalID, &status, &kind, &amount, &p.SessionID, &p.SessionURL, &p.CreatedAt); err != nil {
		return model.Payment{}, err
	}
	p.Status = model.PaymentStatus(status)
	p.Kind = model.PaymentKind(kind)
	p.Amount = model.Money(amount)
	return p, nil
}

// CreatePayment сохраняет платёж и возвращает его с идентификатором и временем создания из базы.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p model.Payment) (*model.Payment, error) {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO payments (rental_id, status, kind, amount, session_id, session_url)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		p.RentalID, string(p.Status), string(p.Kind), int64(p.Amount), p.SessionID, p.SessionURL,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, p.SessionID)
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &p, nil
}

// GetPaymentBySessionID возвращает платёж по идентификатору сессии оплаты.
func (r *PostgresRepository) GetPaymentBySessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	p, err := scanPayment(r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.session_id = $1 AND NOT p.is_deleted`,
		sessionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment session %s", model.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// UpdatePaymentStatus сохраняет статус платежа и возвращает записанный статус.
// Оплаченный платёж обратно в PENDING не переводится.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (model.PaymentStatus, error) {
	var stored string
	err := r.db(ctx).QueryRow(ctx,
		`UPDATE payments
		 SET status = CASE WHEN status = $3 THEN status ELSE $2 END
		 WHERE id = $1
		 RETURNING status`,
		id, string(status), string(model.PaymentStatusPaid),
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: payment %d", model.ErrNotFound, id)
		}
		return "", fmt.Errorf("update payment status: %w", err)
	}
	return model.PaymentStatus(stored), nil
}

// GetPaymentsByUser возвращает страницу платежей по арендам пользователя, новые первыми.
func (r *PostgresRepository) GetPaymentsByUser(ctx context.Context, userID int64, page model.PageRequest) ([]model.Payment, int64, error) {
	var total int64
	if err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payments p
		 JOIN rentals r ON r.id = p.rental_id
		 WHERE r.user_id = $1 AND NOT p.is_deleted`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments p
		 JOIN rentals r ON r.id = p.rental_id
		 WHERE r.user_id = $1 AND NOT p.is_deleted
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// GetPendingPayments возвращает самые старые неоплаченные платежи.
func (r *PostgresRepository) GetPendingPayments(ctx context.Context, limit int) ([]model.Payment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments p
		 WHERE p.status = $1 AND NOT p.is_deleted
		 ORDER BY p.created_at
		 LIMIT $2`,
		string(model.PaymentStatusPending), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select pending payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
