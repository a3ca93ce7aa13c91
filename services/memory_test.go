package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// memStore backs every in-memory repository used by the service tests. The
// services run with a nil *gorm.DB, so each repository call is applied
// immediately; there is no rollback.
type memStore struct {
	mu sync.Mutex

	customers     map[uuid.UUID]models.Customer
	vehicles      map[uuid.UUID]models.Vehicle
	parts         map[uuid.UUID]models.SparePart
	movements     []models.StockMovement
	services      map[uuid.UUID]models.Service
	serviceParts  []models.ServicePart
	invoices      map[uuid.UUID]models.Invoice
	items         []models.InvoiceItem
	payments      []models.Payment
	transactions  []models.FinancialTransaction
	workshop      *models.Workshop
	notifications []models.NotificationLog
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[uuid.UUID]models.Customer{},
		vehicles:  map[uuid.UUID]models.Vehicle{},
		parts:     map[uuid.UUID]models.SparePart{},
		services:  map[uuid.UUID]models.Service{},
		invoices:  map[uuid.UUID]models.Invoice{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ---- spare parts ----

type memParts struct{ st *memStore }

func (r memParts) Create(_ context.Context, p *models.SparePart) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&p.ID)
	r.st.parts[p.ID] = *p
	return nil
}

func (r memParts) FindByID(_ context.Context, id uuid.UUID) (*models.SparePart, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.parts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memParts) List(_ context.Context, filter repository.SparePartFilter) ([]models.SparePart, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.SparePart
	for _, p := range r.st.parts {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memParts) ListLowStock(_ context.Context) ([]models.SparePart, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.SparePart
	for _, p := range r.st.parts {
		if p.Stock < p.MinStock {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memParts) Update(_ context.Context, p *models.SparePart) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored, ok := r.st.parts[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stock := stored.Stock
	stored = *p
	stored.Stock = stock
	r.st.parts[p.ID] = stored
	return nil
}

func (r memParts) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.parts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.st.parts, id)
	return nil
}

func (r memParts) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*models.SparePart, error) {
	return r.FindByID(context.Background(), id)
}

func (r memParts) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.parts[id]
	if !ok || p.Stock+delta < 0 {
		return false, nil
	}
	p.Stock += delta
	r.st.parts[id] = p
	return true, nil
}

type memMovements struct{ st *memStore }

func (r memMovements) CreateTx(_ *gorm.DB, m *models.StockMovement) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&m.ID)
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r memMovements) ListByPart(_ context.Context, partID uuid.UUID, limit int) ([]models.StockMovement, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.StockMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		if m := r.st.movements[i]; m.SparePartID == partID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- customers and vehicles ----

type memCustomers struct{ st *memStore }

func (r memCustomers) Create(_ context.Context, c *models.Customer) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&c.ID)
	r.st.customers[c.ID] = *c
	return nil
}

func (r memCustomers) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, v := range r.st.vehicles {
		if v.CustomerID == id {
			c.Vehicles = append(c.Vehicles, v)
		}
	}
	return &c, nil
}

func (r memCustomers) List(_ context.Context, search string) ([]models.Customer, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Customer
	for _, c := range r.st.customers {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) || strings.Contains(c.Phone, search) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCustomers) Update(_ context.Context, c *models.Customer) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.customers[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *c
	stored.Vehicles = nil
	r.st.customers[c.ID] = stored
	return nil
}

func (r memCustomers) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.customers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.st.customers, id)
	return nil
}

func (r memCustomers) Count(_ context.Context) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return int64(len(r.st.customers)), nil
}

type memVehicles struct{ st *memStore }

func (r memVehicles) plateTaken(plate string, except uuid.UUID) bool {
	for id, v := range r.st.vehicles {
		if id != except && v.PlateNumber == plate {
			return true
		}
	}
	return false
}

func (r memVehicles) Create(_ context.Context, v *models.Vehicle) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&v.ID)
	v.PlateNumber = models.NormalizePlate(v.PlateNumber)
	if r.plateTaken(v.PlateNumber, v.ID) {
		return gorm.ErrDuplicatedKey
	}
	r.st.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	v, ok := r.st.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r memVehicles) List(_ context.Context, customerID *uuid.UUID) ([]models.Vehicle, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Vehicle
	for _, v := range r.st.vehicles {
		if customerID == nil || v.CustomerID == *customerID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlateNumber < out[j].PlateNumber })
	return out, nil
}

func (r memVehicles) Update(_ context.Context, v *models.Vehicle) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.vehicles[v.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	v.PlateNumber = models.NormalizePlate(v.PlateNumber)
	if r.plateTaken(v.PlateNumber, v.ID) {
		return gorm.ErrDuplicatedKey
	}
	r.st.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.vehicles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.st.vehicles, id)
	return nil
}

func (r memVehicles) SetLastService(_ context.Context, id uuid.UUID, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	v, ok := r.st.vehicles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.LastService = &at
	r.st.vehicles[id] = v
	return nil
}

// ---- service jobs ----

type memServices struct{ st *memStore }

func (r memServices) Create(_ context.Context, s *models.Service) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&s.ID)
	stored := *s
	stored.Customer, stored.Vehicle, stored.Parts = nil, nil, nil
	r.st.services[s.ID] = stored
	return nil
}

// load returns the job with customer, vehicle and parts attached. Callers
// hold the lock.
func (r memServices) load(id uuid.UUID) (*models.Service, error) {
	s, ok := r.st.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := r.st.customers[s.CustomerID]; ok {
		s.Customer = &c
	}
	if v, ok := r.st.vehicles[s.VehicleID]; ok {
		s.Vehicle = &v
	}
	for _, p := range r.st.serviceParts {
		if p.ServiceID == id {
			s.Parts = append(s.Parts, p)
		}
	}
	return &s, nil
}

func (r memServices) FindByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.load(id)
}

func (r memServices) List(_ context.Context, filter repository.ServiceFilter) ([]models.Service, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Service
	for id, s := range r.st.services {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.CustomerID != nil && s.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.VehicleID != nil && s.VehicleID != *filter.VehicleID {
			continue
		}
		loaded, _ := r.load(id)
		out = append(out, *loaded)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceDate.After(out[j].ServiceDate) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memServices) Update(_ context.Context, s *models.Service) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored, ok := r.st.services[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Complaint, stored.Cost, stored.Mechanic = s.Complaint, s.Cost, s.Mechanic
	stored.ServiceDate, stored.Notes = s.ServiceDate, s.Notes
	r.st.services[s.ID] = stored
	return nil
}

func (r memServices) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.services[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	r.st.services[id] = s
	return nil
}

func (r memServices) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.services[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.st.services, id)
	return nil
}

func (r memServices) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	counts := map[string]int64{}
	for _, s := range r.st.services {
		counts[s.Status]++
	}
	return counts, nil
}

func (r memServices) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*models.Service, error) {
	return r.FindByID(context.Background(), id)
}

func (r memServices) CreatePartTx(_ *gorm.DB, p *models.ServicePart) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&p.ID)
	r.st.serviceParts = append(r.st.serviceParts, *p)
	return nil
}

// ---- invoices and payments ----

type memInvoices struct{ st *memStore }

func (r memInvoices) load(id uuid.UUID, withPayments bool) (*models.Invoice, error) {
	inv, ok := r.st.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	inv.Items, inv.Payments = nil, nil
	for _, it := range r.st.items {
		if it.InvoiceID == id {
			inv.Items = append(inv.Items, it)
		}
	}
	if withPayments {
		for _, p := range r.st.payments {
			if p.InvoiceID == id {
				inv.Payments = append(inv.Payments, p)
			}
		}
	}
	return &inv, nil
}

func (r memInvoices) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.load(id, true)
}

func (r memInvoices) List(_ context.Context, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.st.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.CustomerID != nil && inv.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out, nil
}

func (r memInvoices) CountByStatus(_ context.Context, statuses ...string) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for _, inv := range r.st.invoices {
		for _, s := range statuses {
			if inv.Status == s {
				n++
			}
		}
	}
	return n, nil
}

func (r memInvoices) CreateTx(_ *gorm.DB, inv *models.Invoice) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber || existing.ServiceID == inv.ServiceID {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&inv.ID)
	stored := *inv
	stored.Items, stored.Payments = nil, nil
	r.st.invoices[inv.ID] = stored
	return nil
}

func (r memInvoices) CreateItemsTx(_ *gorm.DB, items []models.InvoiceItem) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for i := range items {
		ensureID(&items[i].ID)
		r.st.items = append(r.st.items, items[i])
	}
	return nil
}

func (r memInvoices) FindByServiceIDTx(_ *gorm.DB, serviceID uuid.UUID) (*models.Invoice, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for id, inv := range r.st.invoices {
		if inv.ServiceID == serviceID {
			return r.load(id, false)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memInvoices) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.load(id, false)
}

func (r memInvoices) CompareAndSwapStatusTx(_ *gorm.DB, id uuid.UUID, expectedVersion int, status string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	inv, ok := r.st.invoices[id]
	if !ok || inv.Version != expectedVersion {
		return false, nil
	}
	inv.Status = status
	inv.Version++
	r.st.invoices[id] = inv
	return true, nil
}

type memPayments struct{ st *memStore }

func (r memPayments) sum(invoiceID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.st.payments {
		if p.InvoiceID == invoiceID && p.Status == models.PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (r memPayments) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Payment
	for _, p := range r.st.payments {
		if p.InvoiceID == invoiceID && p.Status == models.PaymentCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPayments) SumByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.sum(invoiceID), nil
}

func (r memPayments) SumByInvoices(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		if s := r.sum(id); s.IsPositive() {
			out[id] = s
		}
	}
	return out, nil
}

func (r memPayments) CreateTx(_ *gorm.DB, p *models.Payment) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.payments {
		if existing.PaymentNumber == p.PaymentNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&p.ID)
	r.st.payments = append(r.st.payments, *p)
	return nil
}

func (r memPayments) SumByInvoiceTx(_ *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.SumByInvoice(context.Background(), invoiceID)
}

// ---- finance ----

type memTransactions struct{ st *memStore }

func (r memTransactions) Create(_ context.Context, t *models.FinancialTransaction) error {
	return r.CreateTx(nil, t)
}

func (r memTransactions) CreateTx(_ *gorm.DB, t *models.FinancialTransaction) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&t.ID)
	r.st.transactions = append(r.st.transactions, *t)
	return nil
}

func (r memTransactions) ListRecentExpenses(_ context.Context, limit int) ([]models.FinancialTransaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.FinancialTransaction
	for _, t := range r.st.transactions {
		if t.TransactionType == models.TransactionExpense {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.After(out[j].TransactionDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

type memReports struct{ st *memStore }

func (r memReports) ListPaymentsBetween(_ context.Context, from, to time.Time) ([]models.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Payment
	for _, p := range r.st.payments {
		if p.Status == models.PaymentCompleted && within(p.PaymentDate, from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memReports) ListExpensesBetween(_ context.Context, from, to time.Time) ([]models.FinancialTransaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.FinancialTransaction
	for _, t := range r.st.transactions {
		if t.TransactionType == models.TransactionExpense && within(t.TransactionDate, from, to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memReports) ListPartUsageBetween(_ context.Context, from, to time.Time) ([]repository.PartUsage, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []repository.PartUsage
	for _, sp := range r.st.serviceParts {
		job, ok := r.st.services[sp.ServiceID]
		if !ok || !within(job.ServiceDate, from, to) {
			continue
		}
		out = append(out, repository.PartUsage{
			PartName:    r.st.parts[sp.SparePartID].Name,
			Quantity:    sp.Quantity,
			UnitCost:    sp.UnitCost,
			ServiceDate: job.ServiceDate,
		})
	}
	return out, nil
}

// ---- workshop and notifications ----

type memWorkshops struct{ st *memStore }

func (r memWorkshops) Get(_ context.Context) (*models.Workshop, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.workshop == nil {
		r.st.workshop = &models.Workshop{
			ID:               uuid.New(),
			Name:             "Bengkel Maju",
			DefaultTaxRate:   decimal.Zero,
			LowStockAlerts:   true,
			SMSNotifications: true,
		}
	}
	w := *r.st.workshop
	return &w, nil
}

func (r memWorkshops) Save(_ context.Context, w *models.Workshop) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored := *w
	r.st.workshop = &stored
	return nil
}

type memNotifications struct{ st *memStore }

func (r memNotifications) Create(_ context.Context, l *models.NotificationLog) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	ensureID(&l.ID)
	r.st.notifications = append(r.st.notifications, *l)
	return nil
}

func (r memNotifications) ListRecent(_ context.Context, limit int) ([]models.NotificationLog, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := append([]models.NotificationLog(nil), r.st.notifications...)
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
