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
	paymentLockTTL        = 15 * time.Second
	paymentNumberAttempts = 3
)

type ProcessPaymentRequest struct {
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	Method          string
	ReferenceNumber *string
	Notes           *string
}

// PaymentReceipt is a recorded payment with the invoice balance after it.
type PaymentReceipt struct {
	models.Payment
	InvoiceNumber string          `json:"invoiceNumber"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Remaining     decimal.Decimal `json:"remaining"`
	InvoiceStatus string          `json:"invoiceStatus"`
}

// PaymentService is the only writer of an invoice's paid state.
type PaymentService struct {
	db           *gorm.DB
	invoices     repository.InvoiceRepository
	payments     repository.PaymentRepository
	services     repository.ServiceRepository
	transactions repository.TransactionRepository
	locker       Locker
	logger       *logrus.Logger
	now          func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	services repository.ServiceRepository,
	transactions repository.TransactionRepository,
	locker Locker,
	logger *logrus.Logger,
) *PaymentService {
	if locker == nil {
		locker = noopLocker{}
	}
	return &PaymentService{
		db:           db,
		invoices:     invoices,
		payments:     payments,
		services:     services,
		transactions: transactions,
		locker:       locker,
		logger:       logger,
		now:          time.Now,
	}
}

func validatePaymentRequest(req ProcessPaymentRequest) error {
	if !req.Amount.IsPositive() {
		return invalid(ErrInvalidAmount, "got %s", req.Amount)
	}
	if !minorUnits(req.Amount) {
		return invalid(ErrAmountPrecision, "got %s", req.Amount)
	}
	if req.Method == "" {
		return &ValidationError{Err: ErrMissingPaymentMethod}
	}
	if !models.IsValidPaymentMethod(req.Method) {
		return invalid(ErrInvalidInput, "unknown payment method %q", req.Method)
	}
	if req.Method != models.PaymentCash && (req.ReferenceNumber == nil || *req.ReferenceNumber == "") {
		return invalid(ErrInvalidInput, "reference number is required for %s payments", req.Method)
	}
	return nil
}

// ProcessPayment records a payment against an invoice. The balance check,
// the insert and the invoice status change happen under a row lock and a
// compare-and-swap on the invoice version, so concurrent payments cannot
// jointly overpay.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*PaymentReceipt, error) {
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, "invoice-payment:"+req.InvoiceID.String(), paymentLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		paidAt := s.now()
		number := utils.DocumentNumber("PAY", paidAt.Add(time.Duration(attempt)*time.Millisecond))

		receipt, err := s.processPaymentTx(ctx, req, number, paidAt)
		if err == nil {
			s.logger.WithFields(logrus.Fields{
				"paymentNumber": receipt.PaymentNumber,
				"invoiceNumber": receipt.InvoiceNumber,
				"amount":        receipt.Amount.String(),
				"remaining":     receipt.Remaining.String(),
			}).Info("payment recorded")
			return receipt, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt+1 < paymentNumberAttempts {
			continue
		}
		return nil, storeErr("process payment", err)
	}
}

func (s *PaymentService) processPaymentTx(ctx context.Context, req ProcessPaymentRequest, number string, paidAt time.Time) (*PaymentReceipt, error) {
	var receipt *PaymentReceipt
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoices.LockByIDTx(tx, req.InvoiceID)
		if err != nil {
			return lookupErr("invoice", req.InvoiceID, err)
		}
		if invoice.Status == models.InvoiceVoid {
			return conflict(ErrInvoiceVoid, "invoice %s", invoice.InvoiceNumber)
		}

		service, err := s.services.FindByIDTx(tx, invoice.ServiceID)
		if err != nil {
			return lookupErr("service", invoice.ServiceID, err)
		}
		if service.Status != models.ServiceCompleted {
			return invalid(ErrServiceNotCompleted, "service %s is %s", service.ID, service.Status)
		}

		paid, err := s.payments.SumByInvoiceTx(tx, invoice.ID)
		if err != nil {
			return err
		}
		remaining := invoice.TotalAmount.Sub(paid)
		if req.Amount.GreaterThan(remaining) {
			return conflict(ErrOverpayment, "invoice %s has %s remaining, got %s", invoice.InvoiceNumber, remaining, req.Amount)
		}

		payment := models.Payment{
			InvoiceID:       invoice.ID,
			PaymentNumber:   number,
			Amount:          req.Amount,
			PaymentMethod:   req.Method,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
			Status:          models.PaymentCompleted,
			PaymentDate:     paidAt,
		}
		if err := s.payments.CreateTx(tx, &payment); err != nil {
			return err
		}

		newPaid := paid.Add(req.Amount)
		status := invoice.Status
		switch {
		case newPaid.GreaterThanOrEqual(invoice.TotalAmount):
			status = models.InvoicePaid
		case status == models.InvoiceDraft:
			status = models.InvoiceIssued
		}
		ok, err := s.invoices.CompareAndSwapStatusTx(tx, invoice.ID, invoice.Version, status)
		if err != nil {
			return err
		}
		if !ok {
			return conflict(ErrConcurrentUpdate, "invoice %s", invoice.InvoiceNumber)
		}
		invoice.Status = status

		category := models.CategoryPaymentReceived
		description := fmt.Sprintf("Pembayaran %s - Invoice %s", number, invoice.InvoiceNumber)
		serviceID := invoice.ServiceID
		if err := s.transactions.CreateTx(tx, &models.FinancialTransaction{
			TransactionType: models.TransactionIncome,
			Amount:          req.Amount,
			Category:        &category,
			Description:     &description,
			TransactionDate: paidAt,
			ServiceID:       &serviceID,
		}); err != nil {
			return err
		}

		receipt = &PaymentReceipt{
			Payment:       payment,
			InvoiceNumber: invoice.InvoiceNumber,
			PaidAmount:    newPaid,
			Remaining:     invoice.TotalAmount.Sub(newPaid),
			InvoiceStatus: invoice.DisplayStatus(newPaid),
		}
		return nil
	})
	return receipt, err
}

// PaidAmount is the sum of completed payments for the invoice.
func (s *PaymentService) PaidAmount(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.invoices.FindByID(ctx, invoiceID); err != nil {
		return decimal.Zero, lookupErr("invoice", invoiceID, err)
	}
	paid, err := s.payments.SumByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, storeErr("sum payments", err)
	}
	return paid, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.invoices.FindByID(ctx, invoiceID); err != nil {
		return nil, lookupErr("invoice", invoiceID, err)
	}
	payments, err := s.payments.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, storeErr("list payments", err)
	}
	return payments, nil
}
