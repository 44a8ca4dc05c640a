package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func TestProcessPaymentFullSettlement(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	shift := f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 2))

	result, events, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("22"),
		TenderType: models.TenderCash,
	})
	require.NoError(t, err)
	assert.True(t, result.OrderFullySettled)
	assert.False(t, result.Payment.IsPartial)
	assert.Equal(t, shift.ID, result.Payment.ShiftID)
	assert.Equal(t, "22.00", result.TotalPaid.StringFixed(2))
	assert.True(t, result.Remaining.IsZero())
	assert.Equal(t, []string{EventPaymentProcessed, EventOrderUpdated, EventTableReleased}, eventNames(events))

	paid := f.reloadOrder(order.ID)
	assert.Equal(t, models.OrderPaid, paid.State)
	assert.NotNil(t, paid.ClosedAt)
	assert.Equal(t, models.TableAvailable, f.reloadTable(f.table1.ID).Status)

	summary, err := f.core.CashRegister.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, "22.00", summary.CashTotal.StringFixed(2))
	assert.Equal(t, "22.00", summary.GrossTotal.StringFixed(2))
	assert.Equal(t, "522.00", summary.ExpectedCash.StringFixed(2))
	assert.Equal(t, int64(1), summary.PaymentCount)

	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("1"),
		TenderType: models.TenderCash,
	})
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestProcessPaymentSplitTender(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	shift := f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 2))

	first, events, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("10"),
		TenderType: models.TenderCard,
		Reference:  "AUTH-1234",
	})
	require.NoError(t, err)
	assert.True(t, first.Payment.IsPartial)
	assert.False(t, first.OrderFullySettled)
	assert.Equal(t, "12.00", first.Remaining.StringFixed(2))
	assert.Equal(t, []string{EventPaymentProcessed}, eventNames(events))
	assert.Equal(t, models.OrderOpen, f.reloadOrder(order.ID).State)
	assert.Equal(t, models.TableOccupied, f.reloadTable(f.table1.ID).Status)

	second, _, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("12"),
		TenderType: models.TenderCash,
	})
	require.NoError(t, err)
	assert.True(t, second.OrderFullySettled)
	assert.False(t, second.Payment.IsPartial)
	assert.Equal(t, models.OrderPaid, f.reloadOrder(order.ID).State)

	summary, err := f.core.Payments.ListPayments(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, summary.Payments, 2)
	assert.Equal(t, "22.00", summary.TotalPaid.StringFixed(2))
	assert.True(t, summary.Remaining.IsZero())
	assert.Equal(t, "AUTH-1234", summary.Payments[0].Reference)

	shiftSummary, err := f.core.CashRegister.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.00", shiftSummary.CashTotal.StringFixed(2))
	assert.Equal(t, "10.00", shiftSummary.CardTotal.StringFixed(2))
	assert.Equal(t, "22.00", shiftSummary.GrossTotal.StringFixed(2))
	assert.True(t, shiftSummary.OtherTotal.IsZero())
}

func TestProcessPaymentExplicitPartialFlag(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 1))

	result, _, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("11"),
		TenderType: models.TenderTransfer,
		Partial:    true,
	})
	require.NoError(t, err)
	assert.True(t, result.Payment.IsPartial)
	assert.True(t, result.OrderFullySettled)
}

func TestProcessPaymentRejectsOverpayment(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	shift := f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 2))

	_, _, err := f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("15"),
		TenderType: models.TenderCash,
	})
	require.NoError(t, err)

	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("7.01"),
		TenderType: models.TenderCash,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmountExceedsBalance))

	summary, err := f.core.Payments.ListPayments(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Payments, 1)
	assert.Equal(t, "7.00", summary.Remaining.StringFixed(2))
	assert.True(t, summary.TotalPaid.LessThanOrEqual(summary.Total))

	shiftSummary, err := f.core.CashRegister.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", shiftSummary.CashTotal.StringFixed(2))
}

func TestProcessPaymentValidation(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 1))

	cases := []struct {
		name  string
		actor Actor
		id    uint
		req   PaymentRequest
		kind  ErrorKind
	}{
		{"waiter cannot charge", waiter, order.ID, PaymentRequest{Amount: dec("1"), TenderType: models.TenderCash}, KindForbidden},
		{"zero amount", cashier, order.ID, PaymentRequest{Amount: dec("0"), TenderType: models.TenderCash}, KindValidationFailed},
		{"negative amount", cashier, order.ID, PaymentRequest{Amount: dec("-5"), TenderType: models.TenderCash}, KindValidationFailed},
		{"unknown tender", cashier, order.ID, PaymentRequest{Amount: dec("1"), TenderType: "bitcoin"}, KindValidationFailed},
		{"no open shift", cashier, order.ID, PaymentRequest{Amount: dec("1"), TenderType: models.TenderCash}, KindNoOpenShift},
		{"unknown order", cashier, 9999, PaymentRequest{Amount: dec("1"), TenderType: models.TenderCash}, KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.core.Payments.ProcessPayment(f.ctx, tc.actor, tc.id, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
		})
	}
}

func TestProcessPaymentOnCancelledOrder(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	f.openShift()
	order := f.createOrder(f.table1.ID, item(f.taco.ID, 1))
	_, _, err := f.core.Orders.CancelOrder(f.ctx, cashier, order.ID, models.CancelOther, "")
	require.NoError(t, err)

	_, _, err = f.core.Payments.ProcessPayment(f.ctx, cashier, order.ID, PaymentRequest{
		Amount:     dec("1"),
		TenderType: models.TenderCash,
	})
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestPaymentKeepsTableOccupiedWhileSplitBillsRemain(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	f.openShift()
	first := f.createOrder(f.table1.ID, item(f.taco.ID, 1))
	second := f.createOrder(f.table1.ID, item(f.soda.ID, 1))

	_, events, err := f.core.Payments.ProcessPayment(f.ctx, cashier, first.ID, PaymentRequest{
		Amount:     first.Total,
		TenderType: models.TenderCash,
	})
	require.NoError(t, err)
	assert.NotContains(t, eventNames(events), EventTableReleased)
	assert.Equal(t, models.TableOccupied, f.reloadTable(f.table1.ID).Status)

	_, events, err = f.core.Payments.ProcessPayment(f.ctx, cashier, second.ID, PaymentRequest{
		Amount:     second.Total,
		TenderType: models.TenderCard,
	})
	require.NoError(t, err)
	assert.Contains(t, eventNames(events), EventTableReleased)
	assert.Equal(t, models.TableAvailable, f.reloadTable(f.table1.ID).Status)
}

func TestCloseTableWithoutOrder(t *testing.T) {
	f := newFixture(t, AddItemsAtomic)
	_, _, err := f.core.Tables.ReserveTable(f.ctx, waiter, f.table2.ID)
	require.NoError(t, err)

	_, _, err = f.core.Payments.CloseTableWithoutOrder(f.ctx, waiter, f.table2.ID, "vanished", "")
	assert.Equal(t, KindValidationFailed, KindOf(err))

	closure, events, err := f.core.Payments.CloseTableWithoutOrder(f.ctx, waiter, f.table2.ID, models.ClosureCustomerLeft, "walked out")
	require.NoError(t, err)
	assert.Equal(t, models.ClosureCustomerLeft, closure.Reason)
	assert.Equal(t, waiter.UserID, closure.UserID)
	assert.Equal(t, []string{EventTableReleased}, eventNames(events))
	assert.Equal(t, models.TableAvailable, f.reloadTable(f.table2.ID).Status)

	f.createOrder(f.table1.ID, item(f.burger.ID, 1))
	_, _, err = f.core.Payments.CloseTableWithoutOrder(f.ctx, waiter, f.table1.ID, models.ClosureCleaning, "")
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, models.TableOccupied, f.reloadTable(f.table1.ID).Status)
}
