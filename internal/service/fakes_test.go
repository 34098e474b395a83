package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmeshcher/carsharing-system/internal/checkout"
	"github.com/mmeshcher/carsharing-system/internal/model"
)

// storeNow заменяет DEFAULT now() колонки created_at.
var storeNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// memStore хранит автомобили, аренды и платежи в памяти и повторяет
// условные обновления PostgresRepository.
type memStore struct {
	mu sync.Mutex

	vehicles map[int64]model.Vehicle
	rentals  map[int64]model.Rental
	payments map[int64]model.Payment

	nextRentalID  int64
	nextPaymentID int64

	createRentalErr  error
	createPaymentErr error
}

func newMemStore(vehicles ...model.Vehicle) *memStore {
	s := &memStore{
		vehicles: make(map[int64]model.Vehicle),
		rentals:  make(map[int64]model.Rental),
		payments: make(map[int64]model.Payment),
	}
	for _, v := range vehicles {
		s.vehicles[v.ID] = v
	}
	return s
}

// WithinTransaction откатывает изменения, если fn вернула ошибку.
func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	vehicles := copyMap(s.vehicles)
	rentals := copyMap(s.rentals)
	payments := copyMap(s.payments)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.vehicles, s.rentals, s.payments = vehicles, rentals, payments
		s.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	res := make(map[K]V, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

func (s *memStore) inventory(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicles[id].Inventory
}

func (s *memStore) DecrementInventory(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok || v.Deleted || v.Inventory <= 0 {
		return false, nil
	}
	v.Inventory--
	s.vehicles[id] = v
	return true, nil
}

func (s *memStore) IncrementInventory(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return false, nil
	}
	v.Inventory++
	s.vehicles[id] = v
	return true, nil
}

func (s *memStore) VehicleExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	return ok && !v.Deleted, nil
}

func (s *memStore) CreateRental(_ context.Context, r model.Rental) (int64, error) {
	if s.createRentalErr != nil {
		return 0, s.createRentalErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRentalID++
	r.ID = s.nextRentalID
	s.rentals[r.ID] = r
	return r.ID, nil
}

// addRental кладёт аренду напрямую, минуя списание единицы автомобиля.
func (s *memStore) addRental(r model.Rental) model.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRentalID++
	r.ID = s.nextRentalID
	s.rentals[r.ID] = r
	return r
}

func (s *memStore) withVehicle(r model.Rental) model.Rental {
	r.Vehicle = s.vehicles[r.VehicleID]
	return r
}

func (s *memStore) rentalsWhere(pred func(model.Rental) bool) []model.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Rental
	for _, r := range s.rentals {
		if pred(r) {
			res = append(res, s.withVehicle(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *memStore) GetActiveRentalsByUser(_ context.Context, userID int64) ([]model.Rental, error) {
	return s.rentalsWhere(func(r model.Rental) bool { return r.UserID == userID && r.ActualReturnAt == nil }), nil
}

func (s *memStore) GetReturnedRentalsByUser(_ context.Context, userID int64) ([]model.Rental, error) {
	return s.rentalsWhere(func(r model.Rental) bool { return r.UserID == userID && r.ActualReturnAt != nil }), nil
}

func (s *memStore) GetRentalByUser(_ context.Context, userID, rentalID int64) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[rentalID]
	if !ok || r.UserID != userID {
		return nil, fmt.Errorf("%w: rental %d", model.ErrNotFound, rentalID)
	}
	r = s.withVehicle(r)
	return &r, nil
}

func (s *memStore) MarkRentalReturned(_ context.Context, rentalID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[rentalID]
	if !ok || r.ActualReturnAt != nil {
		return false, nil
	}
	r.ActualReturnAt = &at
	s.rentals[rentalID] = r
	return true, nil
}

func (s *memStore) CreatePayment(_ context.Context, p model.Payment) (*model.Payment, error) {
	if s.createPaymentErr != nil {
		return nil, s.createPaymentErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.SessionID == p.SessionID {
			return nil, errors.New("duplicate session")
		}
	}
	s.nextPaymentID++
	p.ID = s.nextPaymentID
	p.CreatedAt = storeNow.Add(time.Duration(p.ID) * time.Second)
	s.payments[p.ID] = p
	return &p, nil
}

func (s *memStore) setPaymentStatus(id int64, status model.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = status
	s.payments[id] = p
}

func (s *memStore) GetPaymentBySessionID(_ context.Context, sessionID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.SessionID == sessionID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: payment session %s", model.ErrNotFound, sessionID)
}

func (s *memStore) UpdatePaymentStatus(_ context.Context, id int64, status model.PaymentStatus) (model.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return "", fmt.Errorf("%w: payment %d", model.ErrNotFound, id)
	}
	if p.Status != model.PaymentStatusPaid {
		p.Status = status
	}
	s.payments[id] = p
	return p.Status, nil
}

func (s *memStore) GetPaymentsByUser(_ context.Context, userID int64, page model.PageRequest) ([]model.Payment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Payment
	for _, p := range s.payments {
		if s.rentals[p.RentalID].UserID == userID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	from := min(page.Offset(), len(all))
	to := min(from+page.Size, len(all))
	return all[from:to], int64(len(all)), nil
}

func (s *memStore) GetPendingPayments(_ context.Context, limit int) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Payment
	for _, p := range s.payments {
		if p.Status == model.PaymentStatusPending {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *memStore) payment(id int64) model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[id]
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

type stubProvider struct {
	createCalls int
	lastAmount  model.Money
	session     *checkout.Session
	createErr   error

	status    string
	statusErr error
	// onStatus вызывается перед ответом о статусе
	onStatus func()
}

func (p *stubProvider) CreateSession(_ context.Context, amount model.Money, _, _, _ string) (*checkout.Session, error) {
	p.createCalls++
	p.lastAmount = amount
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.session, nil
}

func (p *stubProvider) PaymentStatus(_ context.Context, _ string) (string, error) {
	if p.onStatus != nil {
		p.onStatus()
	}
	return p.status, p.statusErr
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
