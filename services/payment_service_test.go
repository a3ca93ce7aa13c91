package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func cash(invoiceID uuid.UUID, amount int64) ProcessPaymentRequest {
	return ProcessPaymentRequest{InvoiceID: invoiceID, Amount: idr(amount), Method: models.PaymentCash}
}

func TestProcessPayment_SettlesThenRejectsOverpayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.seedInvoice(t, 100000)

	first, err := env.payments.ProcessPayment(ctx, cash(inv.ID, 60000))
	require.NoError(t, err)
	assert.True(t, idr(40000).Equal(first.Remaining))
	assert.Equal(t, models.InvoicePartial, first.InvoiceStatus)

	view, err := env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceIssued, view.Status)
	assert.Equal(t, models.InvoicePartial, view.DisplayStatus)

	second, err := env.payments.ProcessPayment(ctx, cash(inv.ID, 40000))
	require.NoError(t, err)
	assert.True(t, second.Remaining.IsZero())
	assert.Equal(t, models.InvoicePaid, second.InvoiceStatus)

	view, err = env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, view.Status)
	assert.True(t, idr(100000).Equal(view.PaidAmount))

	_, err = env.payments.ProcessPayment(ctx, cash(inv.ID, 1))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrOverpayment)

	payments, err := env.payments.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.NotEqual(t, payments[0].PaymentNumber, payments[1].PaymentNumber)

	var income []models.FinancialTransaction
	for _, tr := range env.st.transactions {
		if tr.Category != nil && *tr.Category == models.CategoryPaymentReceived {
			income = append(income, tr)
		}
	}
	require.Len(t, income, 2)
	assert.True(t, idr(60000).Equal(income[0].Amount))
}

func TestProcessPayment_RejectsOverpaymentUpFront(t *testing.T) {
	env := newTestEnv(t)
	inv := env.seedInvoice(t, 50000)

	_, err := env.payments.ProcessPayment(context.Background(), cash(inv.ID, 50001))
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.Empty(t, env.st.payments)
}

func TestProcessPayment_Validation(t *testing.T) {
	env := newTestEnv(t)
	inv := env.seedInvoice(t, 100000)
	ref := "TRX-123"
	empty := ""

	cases := []struct {
		name string
		req  ProcessPaymentRequest
		want error
	}{
		{"zero amount", cash(inv.ID, 0), ErrInvalidAmount},
		{"negative amount", cash(inv.ID, -10), ErrInvalidAmount},
		{"missing method", ProcessPaymentRequest{InvoiceID: inv.ID, Amount: idr(100)}, ErrMissingPaymentMethod},
		{"unknown method", ProcessPaymentRequest{InvoiceID: inv.ID, Amount: idr(100), Method: "barter"}, ErrInvalidInput},
		{"transfer without reference", ProcessPaymentRequest{InvoiceID: inv.ID, Amount: idr(100), Method: models.PaymentTransfer}, ErrInvalidInput},
		{"card with blank reference", ProcessPaymentRequest{InvoiceID: inv.ID, Amount: idr(100), Method: models.PaymentCard, ReferenceNumber: &empty}, ErrInvalidInput},
		{"amount below minor unit", ProcessPaymentRequest{InvoiceID: inv.ID, Amount: decimal.RequireFromString("0.001"), Method: models.PaymentCash}, ErrAmountPrecision},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.payments.ProcessPayment(context.Background(), tc.req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, env.st.payments)

	receipt, err := env.payments.ProcessPayment(context.Background(), ProcessPaymentRequest{
		InvoiceID: inv.ID, Amount: idr(100), Method: models.PaymentTransfer, ReferenceNumber: &ref,
	})
	require.NoError(t, err)
	require.NotNil(t, receipt.ReferenceNumber)
	assert.Equal(t, ref, *receipt.ReferenceNumber)
}

func TestProcessPayment_UnknownInvoice(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.payments.ProcessPayment(context.Background(), cash(uuid.New(), 1000))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "invoice", notFound.Entity)
}

func TestProcessPayment_VoidInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.seedInvoice(t, 100000)
	_, err := env.invoices.VoidInvoice(ctx, inv.ID)
	require.NoError(t, err)

	_, err = env.payments.ProcessPayment(ctx, cash(inv.ID, 1000))
	assert.ErrorIs(t, err, ErrInvoiceVoid)
}

func TestProcessPayment_PromotesDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := env.seedService(t, models.ServiceCompleted, 80000)
	zero := decimal.Zero
	inv, err := env.invoices.CreateInvoice(ctx, CreateInvoiceRequest{
		ServiceID: job.ID,
		Items:     []InvoiceItemRequest{serviceItem(80000)},
		TaxRate:   &zero,
		Status:    models.InvoiceDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceDraft, inv.DisplayStatus)

	receipt, err := env.payments.ProcessPayment(ctx, cash(inv.ID, 30000))
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePartial, receipt.InvoiceStatus)
	assert.Equal(t, models.InvoiceIssued, env.st.invoices[inv.ID].Status)
}

// casLoser simulates another writer bumping the invoice version between the
// lock and the status write.
type casLoser struct{ memInvoices }

func (casLoser) CompareAndSwapStatusTx(*gorm.DB, uuid.UUID, int, string) (bool, error) {
	return false, nil
}

func TestProcessPayment_LostCompareAndSwap(t *testing.T) {
	env := newTestEnv(t)
	inv := env.seedInvoice(t, 100000)
	st := env.st
	payments := NewPaymentService(nil, casLoser{memInvoices{st}}, memPayments{st}, memServices{st}, memTransactions{st}, nil, quietLogger())
	payments.now = env.clock.Now

	_, err := payments.ProcessPayment(context.Background(), cash(inv.ID, 1000))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

type mutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *mutexLocker) Obtain(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

func TestProcessPayment_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	env := newTestEnv(t)
	inv := env.seedInvoice(t, 100000)
	st := env.st
	payments := NewPaymentService(nil, memInvoices{st}, memPayments{st}, memServices{st}, memTransactions{st}, &mutexLocker{}, quietLogger())
	payments.now = env.clock.Now

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := payments.ProcessPayment(context.Background(), cash(inv.ID, 30000))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var conflict *ConflictError
			if assert.ErrorAs(t, err, &conflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, conflicts)

	paid, err := payments.PaidAmount(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, idr(90000).Equal(paid))
	assert.Equal(t, models.InvoiceIssued, st.invoices[inv.ID].Status)
}

func TestPaidAmount_UnknownInvoice(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.payments.PaidAmount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.payments.ListPayments(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
