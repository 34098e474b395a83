package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

var (
	tesla = model.Vehicle{ID: 1, Brand: "Tesla", Model: "Model 3", Type: model.VehicleTypeSedan, Inventory: 50, DailyFee: 70000}
	bmw   = model.Vehicle{ID: 2, Brand: "BMW", Model: "X5", Type: model.VehicleTypeSUV, Inventory: 3, DailyFee: 90000}

	rentalStart = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rentalEnd   = rentalStart.Add(72 * time.Hour)
	returnTime  = time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
)

func newRentalService(store *memStore, n Notifier) *RentalService {
	svc := NewRentalService(store, store, n, zap.NewNop())
	svc.clock = fixedClock{now: returnTime}
	return svc
}

func TestRentalLifecycle_CreateAndReturn(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(tesla)
	n := &recordingNotifier{}
	svc := newRentalService(store, n)

	rental, err := svc.Create(ctx, 7, tesla.ID, rentalStart, rentalEnd)
	require.NoError(t, err)
	assert.True(t, rental.Active())
	assert.Equal(t, int64(7), rental.UserID)
	assert.Equal(t, 49, store.inventory(tesla.ID))

	returned, err := svc.ReturnVehicles(ctx, 7, []int64{tesla.ID})
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, rental.ID, returned[0].ID)
	require.NotNil(t, returned[0].ActualReturnAt)
	assert.True(t, returnTime.Equal(*returned[0].ActualReturnAt))
	assert.Equal(t, 50, store.inventory(tesla.ID))

	assert.Equal(t, []string{
		"Tesla Model 3 was successfully rented",
		"Tesla Model 3 was successfully returned",
	}, n.sent())

	views, err := svc.ListByActivity(ctx, 7, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.IsType(t, ReturnedRentalView{}, views[0])

	_, err = svc.ListByActivity(ctx, 7, true)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreate_Errors(t *testing.T) {
	deleted := model.Vehicle{ID: 3, Brand: "Audi", Model: "A4", Type: model.VehicleTypeSedan, Inventory: 5, DailyFee: 1000, Deleted: true}
	empty := model.Vehicle{ID: 4, Brand: "Kia", Model: "Rio", Type: model.VehicleTypeHatchback, Inventory: 0, DailyFee: 1000}

	tests := []struct {
		name      string
		vehicleID int64
		end       time.Time
		wantErr   error
	}{
		{name: "unknown vehicle", vehicleID: 99, end: rentalEnd, wantErr: model.ErrNotFound},
		{name: "deleted vehicle", vehicleID: deleted.ID, end: rentalEnd, wantErr: model.ErrNotFound},
		{name: "no inventory", vehicleID: empty.ID, end: rentalEnd, wantErr: model.ErrNoInventory},
		{name: "end before start", vehicleID: tesla.ID, end: rentalStart.Add(-time.Hour), wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(tesla, deleted, empty)
			n := &recordingNotifier{}
			svc := newRentalService(store, n)

			_, err := svc.Create(context.Background(), 1, tt.vehicleID, rentalStart, tt.end)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.rentals)
			assert.Empty(t, n.sent())
			assert.Equal(t, 0, store.inventory(empty.ID))
			assert.Equal(t, 50, store.inventory(tesla.ID))
		})
	}
}

func TestCreate_InsertFailureKeepsInventory(t *testing.T) {
	store := newMemStore(tesla)
	store.createRentalErr = errors.New("insert failed")
	svc := newRentalService(store, nil)

	_, err := svc.Create(context.Background(), 1, tesla.ID, rentalStart, rentalEnd)
	require.Error(t, err)
	assert.Equal(t, 50, store.inventory(tesla.ID))
}

func TestCreate_LastUnit(t *testing.T) {
	last := model.Vehicle{ID: 5, Brand: "Fiat", Model: "500", Type: model.VehicleTypeHatchback, Inventory: 1, DailyFee: 3000}
	store := newMemStore(last)
	svc := newRentalService(store, nil)

	_, err := svc.Create(context.Background(), 1, last.ID, rentalStart, rentalEnd)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 2, last.ID, rentalStart, rentalEnd)
	assert.ErrorIs(t, err, model.ErrNoInventory)
	assert.Equal(t, 0, store.inventory(last.ID))
}

func TestReturnVehicles_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty vehicle list", func(t *testing.T) {
		store := newMemStore(tesla)
		store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
		svc := newRentalService(store, nil)

		_, err := svc.ReturnVehicles(ctx, 1, nil)
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("no active rentals", func(t *testing.T) {
		svc := newRentalService(newMemStore(tesla), nil)

		_, err := svc.ReturnVehicles(ctx, 1, []int64{tesla.ID})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("no rental matches requested vehicles", func(t *testing.T) {
		store := newMemStore(tesla, bmw)
		store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
		svc := newRentalService(store, nil)

		_, err := svc.ReturnVehicles(ctx, 1, []int64{bmw.ID})
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.Equal(t, 50, store.inventory(tesla.ID))
		assert.Equal(t, 3, store.inventory(bmw.ID))
	})

	t.Run("other user's rental", func(t *testing.T) {
		store := newMemStore(tesla)
		store.addRental(model.Rental{UserID: 2, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
		svc := newRentalService(store, nil)

		_, err := svc.ReturnVehicles(ctx, 1, []int64{tesla.ID})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

// Уведомления получают только возвращённые аренды. Раньше уведомлялись все активные
// аренды пользователя, поэтому здесь проверяется, что аренда BMW остаётся без уведомления.
func TestReturnVehicles_NotifiesOnlyReturned(t *testing.T) {
	store := newMemStore(tesla, bmw)
	store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
	kept := store.addRental(model.Rental{UserID: 1, VehicleID: bmw.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
	n := &recordingNotifier{}
	svc := newRentalService(store, n)

	returned, err := svc.ReturnVehicles(context.Background(), 1, []int64{tesla.ID})
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, tesla.ID, returned[0].VehicleID)

	assert.Equal(t, []string{"Tesla Model 3 was successfully returned"}, n.sent())
	assert.Nil(t, store.rentals[kept.ID].ActualReturnAt)
	assert.Equal(t, 51, store.inventory(tesla.ID))
	assert.Equal(t, 3, store.inventory(bmw.ID))
}

func TestReturnVehicles_Twice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(tesla)
	store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
	svc := newRentalService(store, nil)

	_, err := svc.ReturnVehicles(ctx, 1, []int64{tesla.ID})
	require.NoError(t, err)

	_, err = svc.ReturnVehicles(ctx, 1, []int64{tesla.ID})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 51, store.inventory(tesla.ID))
}

func TestNotificationFailureDoesNotFailRental(t *testing.T) {
	store := newMemStore(tesla)
	n := &recordingNotifier{err: errors.New("telegram is down")}
	svc := newRentalService(store, n)

	_, err := svc.Create(context.Background(), 1, tesla.ID, rentalStart, rentalEnd)
	require.NoError(t, err)
	assert.Len(t, n.sent(), 1)
}

func TestGet_ProjectionFollowsReturnState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(tesla)
	active := store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd})
	at := returnTime
	done := store.addRental(model.Rental{UserID: 1, VehicleID: tesla.ID, StartAt: rentalStart, ScheduledEndAt: rentalEnd, ActualReturnAt: &at})
	svc := newRentalService(store, nil)

	v, err := svc.Get(ctx, 1, active.ID)
	require.NoError(t, err)
	assert.False(t, v.Returned())
	assert.Equal(t, ActiveRentalView{ID: active.ID, UserID: 1, VehicleID: tesla.ID, RentalDate: rentalStart, ReturnDate: rentalEnd}, v)

	v, err = svc.Get(ctx, 1, done.ID)
	require.NoError(t, err)
	assert.True(t, v.Returned())
	assert.Equal(t, done.ID, v.RentalID())

	_, err = svc.Get(ctx, 2, done.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListByActivity_Empty(t *testing.T) {
	svc := newRentalService(newMemStore(tesla), nil)

	_, err := svc.ListByActivity(context.Background(), 1, true)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReturnNotices(t *testing.T) {
	rentals := []model.Rental{
		{Vehicle: tesla},
		{Vehicle: bmw},
	}
	assert.Equal(t, []string{
		"Tesla Model 3 was successfully returned",
		"BMW X5 was successfully returned",
	}, returnNotices(rentals))
	assert.Empty(t, returnNotices(nil))
}
