package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/checkout"
	"github.com/mmeshcher/carsharing-system/internal/metrics"
	"github.com/mmeshcher/carsharing-system/internal/model"
	"github.com/mmeshcher/carsharing-system/internal/settlement"
)

const pendingBatchSize = 100

// PaymentRepository описывает контракт хранилища, используемый PaymentService.
type PaymentRepository interface {
	GetRentalByUser(ctx context.Context, userID, rentalID int64) (*model.Rental, error)
	CreatePayment(ctx context.Context, p model.Payment) (*model.Payment, error)
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (model.PaymentStatus, error)
	GetPaymentsByUser(ctx context.Context, userID int64, page model.PageRequest) ([]model.Payment, int64, error)
	GetPendingPayments(ctx context.Context, limit int) ([]model.Payment, error)
}

// PaymentConfig содержит параметры сессий оплаты.
type PaymentConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// PaymentService создаёт платежи по арендам и сверяет их статус с провайдером оплаты.
type PaymentService struct {
	repo     PaymentRepository
	provider CheckoutProvider
	notifier Notifier
	cfg      PaymentConfig
	logger   *zap.Logger
}

// NewPaymentService создаёт сервис платежей.
func NewPaymentService(repo PaymentRepository, provider CheckoutProvider, notifier Notifier, cfg PaymentConfig, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create рассчитывает сумму по аренде пользователя, открывает сессию оплаты
// и сохраняет платёж в статусе PENDING. При ошибке провайдера платёж не сохраняется.
func (s *PaymentService) Create(ctx context.Context, userID, rentalID int64, kind model.PaymentKind) (*model.Payment, error) {
	rental, err := s.repo.GetRentalByUser(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}

	amount, err := settlement.AmountOwed(*rental, kind)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount to pay must be positive, got %s", model.ErrValidation, amount)
	}

	session, err := s.provider.CreateSession(ctx, amount, s.cfg.Currency, s.cfg.SuccessURL, s.cfg.CancelURL)
	if err != nil {
		if !errors.Is(err, model.ErrPaymentProvider) {
			err = fmt.Errorf("%w: %w", model.ErrPaymentProvider, err)
		}
		return nil, err
	}

	p, err := s.repo.CreatePayment(ctx, model.Payment{
		RentalID:   rental.ID,
		Status:     model.PaymentStatusPending,
		Kind:       kind,
		Amount:     amount,
		SessionID:  session.ID,
		SessionURL: session.URL,
	})
	if err != nil {
		s.logger.Error("checkout session created but payment not stored",
			zap.String("session_id", session.ID),
			zap.Int64("rental_id", rental.ID),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.PaymentsCreated.WithLabelValues(string(kind)).Inc()
	s.logger.Info("payment created",
		zap.Int64("payment_id", p.ID),
		zap.Int64("rental_id", rental.ID),
		zap.String("kind", string(kind)),
		zap.Int64("amount", int64(amount)),
	)
	notify(ctx, s.notifier, s.logger,
		fmt.Sprintf("Payment %d for rental %d created: %s %s", p.ID, rental.ID, amount, s.cfg.Currency))

	return p, nil
}

// Reconcile сверяет статус платежа с провайдером и возвращает статус, сохранённый в хранилище.
// PAID выставляется, только если провайдер сообщил об оплате; оплаченный платёж в PENDING не возвращается.
func (s *PaymentService) Reconcile(ctx context.Context, sessionID string) (model.PaymentStatus, error) {
	p, err := s.repo.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	status, _, err := s.reconcile(ctx, p)
	if err != nil {
		return "", err
	}

	notify(ctx, s.notifier, s.logger, fmt.Sprintf("Payment %d status: %s", p.ID, status))
	return status, nil
}

func (s *PaymentService) reconcile(ctx context.Context, p *model.Payment) (status model.PaymentStatus, changed bool, err error) {
	reported, err := s.provider.PaymentStatus(ctx, p.SessionID)
	if err != nil {
		if !errors.Is(err, model.ErrPaymentProvider) {
			err = fmt.Errorf("%w: %w", model.ErrPaymentProvider, err)
		}
		return "", false, err
	}

	next := model.PaymentStatusPending
	if reported == checkout.StatusPaid || p.Status == model.PaymentStatusPaid {
		next = model.PaymentStatusPaid
	}

	// в хранилище мог уже оказаться PAID от параллельной сверки
	status, err = s.repo.UpdatePaymentStatus(ctx, p.ID, next)
	if err != nil {
		return "", false, err
	}

	metrics.PaymentsReconciled.WithLabelValues(string(status)).Inc()
	return status, status != p.Status, nil
}

// ListByUser возвращает страницу платежей пользователя.
func (s *PaymentService) ListByUser(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Payment], error) {
	page = page.Normalize()

	items, total, err := s.repo.GetPaymentsByUser(ctx, userID, page)
	if err != nil {
		return model.Page[model.Payment]{}, err
	}

	return model.Page[model.Payment]{
		Items:  items,
		Number: page.Number,
		Size:   page.Size,
		Total:  total,
	}, nil
}

// StartPendingReconciliation запускает фоновую сверку неоплаченных платежей с периодом interval.
// Нулевой interval отключает сверку.
func (s *PaymentService) StartPendingReconciliation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reconcilePending(ctx)
			}
		}
	}()
}

func (s *PaymentService) reconcilePending(ctx context.Context) {
	payments, err := s.repo.GetPendingPayments(ctx, pendingBatchSize)
	if err != nil {
		s.logger.Warn("failed to load pending payments", zap.Error(err))
		return
	}

	for i := range payments {
		if ctx.Err() != nil {
			return
		}

		p := &payments[i]
		status, changed, err := s.reconcile(ctx, p)
		if err != nil {
			s.logger.Warn("failed to reconcile payment", zap.Int64("payment_id", p.ID), zap.Error(err))
			continue
		}
		if changed {
			notify(ctx, s.notifier, s.logger, fmt.Sprintf("Payment %d status: %s", p.ID, status))
		}
	}
}
