package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	invoiceDueDays        = 30
	invoiceNumberAttempts = 3
)

var hundred = decimal.NewFromInt(100)

type InvoiceItemRequest struct {
	ItemType    string
	ItemID      *uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateInvoiceRequest struct {
	ServiceID uuid.UUID
	Items     []InvoiceItemRequest
	// TaxRate is a percentage. Nil falls back to the workshop default.
	TaxRate  *decimal.Decimal
	Discount decimal.Decimal
	Notes    *string
	Status   string
	// InvoiceNumber is optional. When set it is used as the invoice number
	// and a repeated request with the same number returns the first invoice.
	InvoiceNumber string
}

// InvoiceView is an invoice together with the payment figures derived from
// its payments at read time.
type InvoiceView struct {
	models.Invoice
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Remaining     decimal.Decimal `json:"remaining"`
	DisplayStatus string          `json:"displayStatus"`
}

func newInvoiceView(inv models.Invoice, paid decimal.Decimal) *InvoiceView {
	remaining := inv.TotalAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &InvoiceView{
		Invoice:       inv,
		PaidAmount:    paid,
		Remaining:     remaining,
		DisplayStatus: inv.DisplayStatus(paid),
	}
}

type InvoiceService struct {
	db           *gorm.DB
	invoices     repository.InvoiceRepository
	payments     repository.PaymentRepository
	services     repository.ServiceRepository
	transactions repository.TransactionRepository
	workshops    repository.WorkshopRepository
	inventory    *InventoryService
	logger       *logrus.Logger
	now          func() time.Time
}

func NewInvoiceService(
	db *gorm.DB,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	services repository.ServiceRepository,
	transactions repository.TransactionRepository,
	workshops repository.WorkshopRepository,
	inventory *InventoryService,
	logger *logrus.Logger,
) *InvoiceService {
	return &InvoiceService{
		db:           db,
		invoices:     invoices,
		payments:     payments,
		services:     services,
		transactions: transactions,
		workshops:    workshops,
		inventory:    inventory,
		logger:       logger,
		now:          time.Now,
	}
}

// invoiceTotals is the money side of an invoice computed from its items.
type invoiceTotals struct {
	subtotal decimal.Decimal
	tax      decimal.Decimal
	discount decimal.Decimal
	total    decimal.Decimal
}

// computeTotals applies subtotal = Σ qty × price, tax = subtotal × rate / 100
// rounded to the minor unit, total = subtotal + tax − discount.
func computeTotals(items []InvoiceItemRequest, taxRate, discount decimal.Decimal) invoiceTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(taxRate).DivRound(hundred, 2)
	return invoiceTotals{
		subtotal: subtotal,
		tax:      tax,
		discount: discount,
		total:    subtotal.Add(tax).Sub(discount),
	}
}

func validateInvoiceRequest(req CreateInvoiceRequest) error {
	if len(req.Items) == 0 {
		return invalid(ErrEmptyItemList, "add at least the service item")
	}
	switch req.Status {
	case models.InvoiceDraft, models.InvoiceIssued:
	default:
		return invalid(ErrInvalidInput, "status must be draft or issued, got %q", req.Status)
	}
	if req.Discount.IsNegative() {
		return invalid(ErrInvalidInput, "discount must not be negative")
	}
	if !minorUnits(req.Discount) {
		return invalid(ErrAmountPrecision, "discount %s", req.Discount)
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred) {
			return invalid(ErrInvalidInput, "tax rate must be between 0 and 100")
		}
		if !minorUnits(*req.TaxRate) {
			return invalid(ErrAmountPrecision, "tax rate %s", req.TaxRate)
		}
	}

	serviceItems := 0
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return invalid(ErrInvalidInput, "item %d: quantity must be positive", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return invalid(ErrInvalidInput, "item %d: unit price must not be negative", i+1)
		}
		if !minorUnits(item.UnitPrice) {
			return invalid(ErrAmountPrecision, "item %d: unit price %s", i+1, item.UnitPrice)
		}
		switch item.ItemType {
		case models.ItemTypeService:
			serviceItems++
		case models.ItemTypeSparePart:
			if item.ItemID == nil {
				return invalid(ErrInvalidInput, "item %d: spare part id is required", i+1)
			}
		default:
			return invalid(ErrInvalidInput, "item %d: unknown item type %q", i+1, item.ItemType)
		}
	}
	if serviceItems != 1 {
		return invalid(ErrServiceItem, "found %d service items", serviceItems)
	}
	return nil
}

// CreateInvoice bills a completed service. The invoice, its items, the
// service_parts rows, the stock decrements and the income record are
// written in one transaction.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceView, error) {
	if req.Status == "" {
		req.Status = models.InvoiceIssued
	}
	if err := validateInvoiceRequest(req); err != nil {
		return nil, err
	}

	service, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, lookupErr("service", req.ServiceID, err)
	}
	if service.Status != models.ServiceCompleted {
		return nil, invalid(ErrServiceNotCompleted, "service %s is %s", service.ID, service.Status)
	}
	for _, item := range req.Items {
		if item.ItemType == models.ItemTypeService && !item.UnitPrice.Equal(service.Cost) {
			return nil, invalid(ErrServiceItem, "service item priced %s, service cost is %s", item.UnitPrice, service.Cost)
		}
	}

	taxRate, err := s.taxRate(ctx, req.TaxRate)
	if err != nil {
		return nil, err
	}
	totals := computeTotals(req.Items, taxRate, req.Discount)
	if totals.total.IsNegative() {
		return nil, invalid(ErrNegativeTotal, "subtotal %s + tax %s < discount %s", totals.subtotal, totals.tax, totals.discount)
	}

	issued := s.now()
	for attempt := 0; ; attempt++ {
		number := req.InvoiceNumber
		if number == "" {
			number = utils.DocumentNumber("INV", issued.Add(time.Duration(attempt)*time.Millisecond))
		}

		view, err := s.createInvoiceTx(ctx, service, req, taxRate, totals, number, issued)
		if err == nil {
			return view, nil
		}
		// A taken number is retried with a fresh one. A lost race on the
		// service id surfaces on the next attempt as a duplicate invoice.
		if errors.Is(err, gorm.ErrDuplicatedKey) && req.InvoiceNumber == "" && attempt+1 < invoiceNumberAttempts {
			s.logger.WithField("invoiceNumber", number).Warn("invoice number taken, retrying")
			continue
		}
		return nil, storeErr("create invoice", err)
	}
}

func (s *InvoiceService) taxRate(ctx context.Context, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		return *requested, nil
	}
	if s.workshops == nil {
		return decimal.Zero, nil
	}
	w, err := s.workshops.Get(ctx)
	if err != nil {
		return decimal.Zero, storeErr("load workshop profile", err)
	}
	return w.DefaultTaxRate, nil
}

func (s *InvoiceService) createInvoiceTx(
	ctx context.Context,
	service *models.Service,
	req CreateInvoiceRequest,
	taxRate decimal.Decimal,
	totals invoiceTotals,
	number string,
	issued time.Time,
) (*InvoiceView, error) {
	var result *InvoiceView
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		existing, err := s.invoices.FindByServiceIDTx(tx, service.ID)
		switch {
		case err == nil:
			if req.InvoiceNumber != "" && existing.InvoiceNumber == req.InvoiceNumber {
				result = newInvoiceView(*existing, decimal.Zero)
				return errReplay
			}
			return conflict(ErrDuplicateInvoice, "invoice %s", existing.InvoiceNumber)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		invoice := models.Invoice{
			InvoiceNumber:  number,
			ServiceID:      service.ID,
			CustomerID:     service.CustomerID,
			VehicleID:      service.VehicleID,
			Subtotal:       totals.subtotal,
			TaxRate:        taxRate,
			TaxAmount:      totals.tax,
			DiscountAmount: totals.discount,
			TotalAmount:    totals.total,
			Status:         req.Status,
			IssueDate:      issued,
			DueDate:        issued.AddDate(0, 0, invoiceDueDays),
			Notes:          req.Notes,
		}
		if err := s.invoices.CreateTx(tx, &invoice); err != nil {
			return err
		}

		customerName := ""
		if service.Customer != nil {
			customerName = service.Customer.Name
		}

		items := make([]models.InvoiceItem, 0, len(req.Items))
		for _, in := range req.Items {
			item := models.InvoiceItem{
				InvoiceID:   invoice.ID,
				ItemType:    in.ItemType,
				ItemID:      in.ItemID,
				Description: in.Description,
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
				TotalPrice:  in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
			}

			switch in.ItemType {
			case models.ItemTypeService:
				if item.ItemID == nil {
					id := service.ID
					item.ItemID = &id
				}
				if item.Description == "" {
					item.Description = serviceDescription(service)
				}
			case models.ItemTypeSparePart:
				part, err := s.inventory.adjustStockTx(tx, *in.ItemID, -in.Quantity, models.MovementOut, usageNote(customerName, number))
				if err != nil {
					return err
				}
				if item.Description == "" {
					item.Description = part.Name
				}
				usage := &models.ServicePart{
					ServiceID:   service.ID,
					SparePartID: part.ID,
					Quantity:    in.Quantity,
					UnitPrice:   in.UnitPrice,
					UnitCost:    part.PurchasePrice,
				}
				if err := s.services.CreatePartTx(tx, usage); err != nil {
					return err
				}
			}
			items = append(items, item)
		}
		if err := s.invoices.CreateItemsTx(tx, items); err != nil {
			return err
		}
		invoice.Items = items

		category := models.CategoryServicePayment
		description := fmt.Sprintf("Invoice %s - %s", number, customerName)
		serviceID := service.ID
		if err := s.transactions.CreateTx(tx, &models.FinancialTransaction{
			TransactionType: models.TransactionIncome,
			Amount:          totals.total,
			Category:        &category,
			Description:     &description,
			TransactionDate: issued,
			ServiceID:       &serviceID,
		}); err != nil {
			return err
		}

		result = newInvoiceView(invoice, decimal.Zero)
		return nil
	})
	if errors.Is(err, errReplay) {
		return s.GetInvoice(ctx, result.ID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"invoiceNumber": result.InvoiceNumber,
		"serviceId":     service.ID,
		"total":         result.TotalAmount.String(),
	}).Info("invoice created")
	return result, nil
}

// errReplay aborts the transaction of a repeated request without writing.
var errReplay = errors.New("idempotent replay")

func serviceDescription(service *models.Service) string {
	if service.Vehicle == nil {
		return "Servis - " + service.Complaint
	}
	return fmt.Sprintf("Servis %s %s - %s", service.Vehicle.Brand, service.Vehicle.Model, service.Complaint)
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceView, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("invoice", id, err)
	}
	paid, err := s.payments.SumByInvoice(ctx, id)
	if err != nil {
		return nil, storeErr("sum payments", err)
	}
	return newInvoiceView(*invoice, paid), nil
}

// ListInvoices returns invoices with derived payment figures. The status
// filter matches the display status, so "partial" works even though it is
// never stored.
func (s *InvoiceService) ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]InvoiceView, error) {
	displayFilter := filter.Status
	if displayFilter == models.InvoicePartial || displayFilter == models.InvoicePaid || displayFilter == models.InvoiceIssued {
		filter.Status = ""
	}

	invoices, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list invoices", err)
	}
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	paid, err := s.payments.SumByInvoices(ctx, ids)
	if err != nil {
		return nil, storeErr("sum payments", err)
	}

	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		view := newInvoiceView(inv, paid[inv.ID])
		if displayFilter != "" && view.DisplayStatus != displayFilter {
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// VoidInvoice cancels an invoice that has not received any payment. Parts
// already taken out of stock stay consumed, and the void invoice keeps its
// service: that service cannot be invoiced again.
func (s *InvoiceService) VoidInvoice(ctx context.Context, id uuid.UUID) (*InvoiceView, error) {
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoices.LockByIDTx(tx, id)
		if err != nil {
			return lookupErr("invoice", id, err)
		}
		if invoice.Status == models.InvoiceVoid {
			return conflict(ErrInvoiceVoid, "invoice %s", invoice.InvoiceNumber)
		}
		paid, err := s.payments.SumByInvoiceTx(tx, id)
		if err != nil {
			return err
		}
		if paid.IsPositive() {
			return conflict(ErrInvoiceHasPayment, "invoice %s has %s paid", invoice.InvoiceNumber, paid)
		}
		ok, err := s.invoices.CompareAndSwapStatusTx(tx, id, invoice.Version, models.InvoiceVoid)
		if err != nil {
			return err
		}
		if !ok {
			return conflict(ErrConcurrentUpdate, "invoice %s", invoice.InvoiceNumber)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("void invoice", err)
	}
	return s.GetInvoice(ctx, id)
}
