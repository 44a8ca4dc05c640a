package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func TestOpenShiftOnlyOnce(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)

	shift, events, err := f.core.CashRegister.OpenShift(f.ctx, cashier, dec("500"), "morning")
	require.NoError(t, err)
	assert.Equal(t, models.ShiftOpen, shift.State)
	assert.Equal(t, cashier.UserID, shift.CashierUserID)
	assert.Equal(t, "500.00", shift.OpeningFloat.StringFixed(2))
	assert.Equal(t, []string{EventShiftOpened}, eventNames(events))

	_, _, err = f.core.CashRegister.OpenShift(f.ctx, admin, dec("100"), "")
	assert.Equal(t, KindShiftAlreadyOpen, KindOf(err))

	current, err := f.core.CashRegister.CurrentShift(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, shift.ID, current.ID)
}

func TestOpenShiftConcurrent(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)

	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.core.CashRegister.OpenShift(f.ctx, cashier, dec("200"), "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, KindShiftAlreadyOpen, KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	var open int64
	require.NoError(t, f.db.Model(&models.CashRegisterShift{}).Where("state = ?", models.ShiftOpen).Count(&open).Error)
	assert.Equal(t, int64(1), open)
}

func TestOpenMarkerUniqueIndex(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	f.openShift()

	marker := 1
	dup := models.CashRegisterShift{
		CashierUserID: admin.UserID,
		State:         models.ShiftOpen,
		OpenMarker:    &marker,
		OpeningFloat:  dec("0"),
		OpenedAt:      time.Now(),
	}
	err := f.db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestOpenShiftValidation(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)

	_, _, err := f.core.CashRegister.OpenShift(f.ctx, waiter, dec("100"), "")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, _, err = f.core.CashRegister.OpenShift(f.ctx, cashier, dec("-1"), "")
	assert.Equal(t, KindValidationFailed, KindOf(err))

	_, err = f.core.CashRegister.CurrentShift(f.ctx)
	assert.Equal(t, KindNoOpenShift, KindOf(err))
}

func TestCloseShiftComputesVariance(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	shift := f.openShift()

	cashOrder := f.createOrder(f.table1.ID, item(f.taco.ID, 2))
	cardOrder := f.createOrder(f.table2.ID, item(f.burger.ID, 1))
	_, _, err := f.core.Payments.ProcessPayment(f.ctx, cashier, cashOrder.ID, PaymentRequest{Amount: dec("22"), TenderType: models.TenderCash})
	require.NoError(t, err)
	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, cardOrder.ID, PaymentRequest{Amount: dec("10"), TenderType: models.TenderCard})
	require.NoError(t, err)
	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, cardOrder.ID, PaymentRequest{Amount: dec("4.03"), TenderType: models.TenderTransfer})
	require.NoError(t, err)

	summary, events, err := f.core.CashRegister.CloseShift(f.ctx, cashier, shift.ID, dec("520"), "short two")
	require.NoError(t, err)
	assert.Equal(t, []string{EventShiftClosed}, eventNames(events))
	assert.Equal(t, models.ShiftClosed, summary.Shift.State)
	assert.Nil(t, summary.Shift.OpenMarker)
	assert.NotNil(t, summary.Shift.ClosedAt)
	assert.Equal(t, "22.00", summary.CashTotal.StringFixed(2))
	assert.Equal(t, "10.00", summary.CardTotal.StringFixed(2))
	assert.Equal(t, "4.03", summary.OtherTotal.StringFixed(2))
	assert.Equal(t, "36.03", summary.GrossTotal.StringFixed(2))
	assert.Equal(t, "522.00", summary.ExpectedCash.StringFixed(2))
	assert.Equal(t, "520.00", summary.CountedCash.StringFixed(2))
	assert.Equal(t, "-2.00", summary.Variance.StringFixed(2))
	assert.Equal(t, int64(3), summary.PaymentCount)

	// shift tertutup: tidak bisa ditutup lagi dan pembayaran ditolak
	_, _, err = f.core.CashRegister.CloseShift(f.ctx, cashier, shift.ID, dec("520"), "")
	assert.Equal(t, KindInvalidState, KindOf(err))

	other := f.createOrder(f.table1.ID, item(f.soda.ID, 1))
	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, other.ID, PaymentRequest{Amount: dec("1"), TenderType: models.TenderCash})
	assert.Equal(t, KindNoOpenShift, KindOf(err))

	// open_marker dikosongkan sehingga shift baru bisa dibuka
	next, _, err := f.core.CashRegister.OpenShift(f.ctx, cashier, dec("300"), "")
	require.NoError(t, err)
	assert.NotEqual(t, shift.ID, next.ID)

	stored, err := f.core.CashRegister.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, "-2.00", stored.Variance.StringFixed(2))
	assert.Equal(t, "520.00", stored.CountedCash.StringFixed(2))
}

func TestCloseShiftOverage(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	shift := f.openShift()

	summary, _, err := f.core.CashRegister.CloseShift(f.ctx, admin, shift.ID, dec("505.50"), "")
	require.NoError(t, err)
	assert.Equal(t, "5.50", summary.Variance.StringFixed(2))
	assert.Equal(t, int64(0), summary.PaymentCount)

	_, _, err = f.core.CashRegister.CloseShift(f.ctx, cashier, 9999, dec("0"), "")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListShiftsAndPayments(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	first := f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 1))
	_, _, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{Amount: dec("11"), TenderType: models.TenderCash})
	require.NoError(t, err)
	_, _, err = f.core.CashRegister.CloseShift(f.ctx, cashier, first.ID, dec("511"), "")
	require.NoError(t, err)

	second, _, err := f.core.CashRegister.OpenShift(f.ctx, admin, dec("0"), "")
	require.NoError(t, err)

	all, err := f.core.CashRegister.ListShifts(f.ctx, ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	byCashier, err := f.core.CashRegister.ListShifts(f.ctx, ShiftFilter{CashierUserID: cashier.UserID})
	require.NoError(t, err)
	require.Len(t, byCashier, 1)
	assert.Equal(t, first.ID, byCashier[0].ID)

	future := time.Now().Add(time.Hour)
	none, err := f.core.CashRegister.ListShifts(f.ctx, ShiftFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	payments, err := f.core.CashRegister.ShiftPayments(f.ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, order.ID, payments[0].OrderID)
}
