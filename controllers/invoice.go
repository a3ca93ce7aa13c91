package controllers

import (
	"net/http"
	"time"

	"bengkel-backend/repository"
	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceItemInput struct {
	ItemType    string          `json:"itemType" binding:"required,oneof=service sparepart"`
	ItemID      *uuid.UUID      `json:"itemId"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"gte=0"`
}

type CreateInvoiceInput struct {
	ServiceID     uuid.UUID          `json:"serviceId" binding:"required"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	TaxRate       *decimal.Decimal   `json:"taxRate"`
	Discount      decimal.Decimal    `json:"discount" binding:"gte=0"`
	Notes         *string            `json:"notes"`
	Status        string             `json:"status" binding:"omitempty,oneof=draft issued"`
	InvoiceNumber string             `json:"invoiceNumber"`
}

type ProcessPaymentInput struct {
	Amount          decimal.Decimal `json:"amount" binding:"gt=0"`
	PaymentMethod   string          `json:"paymentMethod"`
	ReferenceNumber *string         `json:"referenceNumber"`
	Notes           *string         `json:"notes"`
}

type InvoiceController struct {
	invoices *services.InvoiceService
	payments *services.PaymentService
	// loc is the workshop time zone the from/to query dates are read in.
	loc *time.Location
}

func NewInvoiceController(invoices *services.InvoiceService, payments *services.PaymentService, loc *time.Location) *InvoiceController {
	if loc == nil {
		loc = time.Local
	}
	return &InvoiceController{invoices: invoices, payments: payments, loc: loc}
}

func (ic *InvoiceController) CreateInvoice(c *gin.Context) {
	var input CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// An Idempotency-Key header doubles as the invoice number.
	if input.InvoiceNumber == "" {
		input.InvoiceNumber = c.GetHeader("Idempotency-Key")
	}

	req := services.CreateInvoiceRequest{
		ServiceID:     input.ServiceID,
		TaxRate:       input.TaxRate,
		Discount:      input.Discount,
		Notes:         input.Notes,
		Status:        input.Status,
		InvoiceNumber: input.InvoiceNumber,
	}
	for _, item := range input.Items {
		req.Items = append(req.Items, services.InvoiceItemRequest{
			ItemType:    item.ItemType,
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	invoice, err := ic.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateInvoice", err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (ic *InvoiceController) GetInvoices(c *gin.Context) {
	customerID, ok := queryID(c, "customerId")
	if !ok {
		return
	}
	filter := repository.InvoiceFilter{Status: c.Query("status"), CustomerID: customerID}
	if filter.From, filter.To, ok = ic.dayRange(c); !ok {
		return
	}

	invoices, err := ic.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, "GetInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// dayRange reads the optional from/to query dates as whole days in the
// workshop time zone. to covers its full day.
func (ic *InvoiceController) dayRange(c *gin.Context) (from, to *time.Time, ok bool) {
	if s := c.Query("from"); s != "" {
		day, err := time.ParseInLocation("2006-01-02", s, ic.loc)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return nil, nil, false
		}
		from = &day
	}
	if s := c.Query("to"); s != "" {
		day, err := time.ParseInLocation("2006-01-02", s, ic.loc)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return nil, nil, false
		}
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	return from, to, true
}

func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	invoice, err := ic.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (ic *InvoiceController) VoidInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	invoice, err := ic.invoices.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "VoidInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (ic *InvoiceController) ProcessPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input ProcessPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	receipt, err := ic.payments.ProcessPayment(c.Request.Context(), services.ProcessPaymentRequest{
		InvoiceID:       id,
		Amount:          input.Amount,
		Method:          input.PaymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
	})
	if err != nil {
		respondServiceError(c, "ProcessPayment", err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (ic *InvoiceController) GetPayments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	payments, err := ic.payments.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetPayments", err)
		return
	}
	paid, err := ic.payments.PaidAmount(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetPayments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "paidAmount": paid})
}
