package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bengkel-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

// testClock starts at a fixed instant and moves 1001ms per reading, so the
// millisecond suffix of document numbers differs between readings.
type testClock struct {
	mu   sync.Mutex
	base time.Time
	n    int
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * 1001 * time.Millisecond)
}

type testEnv struct {
	st    *memStore
	clock *testClock

	inventory     *InventoryService
	invoices      *InvoiceService
	payments      *PaymentService
	finance       *FinanceService
	jobs          *JobService
	customers     *CustomerService
	notifications *NotificationService
	dashboard     *DashboardService
	sender        *fakeSender
	seeded        int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newMemStore()
	clock := &testClock{base: time.Date(2026, time.March, 18, 10, 0, 0, 0, wib)}
	logger := quietLogger()

	env := &testEnv{st: st, clock: clock, sender: &fakeSender{}}
	env.inventory = NewInventoryService(nil, memParts{st}, memMovements{st}, logger)
	env.invoices = NewInvoiceService(nil, memInvoices{st}, memPayments{st}, memServices{st}, memTransactions{st}, memWorkshops{st}, env.inventory, logger)
	env.invoices.now = clock.Now
	env.payments = NewPaymentService(nil, memInvoices{st}, memPayments{st}, memServices{st}, memTransactions{st}, nil, logger)
	env.payments.now = clock.Now
	env.finance = NewFinanceService(memReports{st}, memTransactions{st}, wib, logger)
	env.finance.now = clock.Now
	env.notifications = NewNotificationService(env.sender, SenderNumbers{SMS: "+15005550006", WhatsApp: "+14155238886"},
		env.inventory, memWorkshops{st}, memNotifications{st}, wib, logger)
	env.notifications.now = clock.Now
	env.jobs = NewJobService(nil, memServices{st}, memVehicles{st}, memInvoices{st}, env.notifications, logger)
	env.jobs.now = clock.Now
	env.customers = NewCustomerService(memCustomers{st}, memVehicles{st}, logger)
	env.dashboard = NewDashboardService(memCustomers{st}, memInvoices{st}, env.jobs, env.inventory, env.finance)
	return env
}

func idr(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (e *testEnv) seedPart(t *testing.T, name string, stock, minStock int, purchase, sale int64) *models.SparePart {
	t.Helper()
	p := &models.SparePart{
		Name:          name,
		Category:      "General",
		PurchasePrice: idr(purchase),
		SalePrice:     idr(sale),
		Stock:         stock,
		MinStock:      minStock,
	}
	require.NoError(t, memParts{e.st}.Create(context.Background(), p))
	return p
}

func (e *testEnv) seedCustomer(t *testing.T) (*models.Customer, *models.Vehicle) {
	t.Helper()
	ctx := context.Background()
	c := &models.Customer{Name: "Budi Santoso", Phone: "+6281234567890"}
	require.NoError(t, memCustomers{e.st}.Create(ctx, c))
	e.seeded++
	plate := fmt.Sprintf("B %04d XYZ", e.seeded)
	v := &models.Vehicle{CustomerID: c.ID, PlateNumber: plate, Brand: "Honda", Model: "Beat", Year: 2021}
	require.NoError(t, memVehicles{e.st}.Create(ctx, v))
	return c, v
}

// seedService stores a job with the given status directly, bypassing the
// job service's transition rules.
func (e *testEnv) seedService(t *testing.T, status string, cost int64) *models.Service {
	t.Helper()
	c, v := e.seedCustomer(t)
	s := &models.Service{
		CustomerID:  c.ID,
		VehicleID:   v.ID,
		Complaint:   "Ganti oli dan servis rutin",
		Cost:        idr(cost),
		Status:      status,
		ServiceDate: e.clock.base,
	}
	require.NoError(t, memServices{e.st}.Create(context.Background(), s))
	return s
}

func serviceItem(cost int64) InvoiceItemRequest {
	return InvoiceItemRequest{ItemType: models.ItemTypeService, Quantity: 1, UnitPrice: idr(cost)}
}

func partItem(id uuid.UUID, qty int, price int64) InvoiceItemRequest {
	return InvoiceItemRequest{ItemType: models.ItemTypeSparePart, ItemID: &id, Quantity: qty, UnitPrice: idr(price)}
}

// seedInvoice bills a fresh completed service for total with no tax.
func (e *testEnv) seedInvoice(t *testing.T, total int64) *InvoiceView {
	t.Helper()
	s := e.seedService(t, models.ServiceCompleted, total)
	zero := decimal.Zero
	inv, err := e.invoices.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ServiceID: s.ID,
		Items:     []InvoiceItemRequest{serviceItem(total)},
		TaxRate:   &zero,
	})
	require.NoError(t, err)
	return inv
}

type sentMessage struct {
	To, From, Body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(to, from, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, From: from, Body: body})
	return "SM" + uuid.NewString()[:8], nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}
