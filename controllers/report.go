// controllers/report.go
package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RecordExpenseInput struct {
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"gt=0"`
	Description *string         `json:"description"`
	Date        *time.Time      `json:"date"`
	ServiceID   *uuid.UUID      `json:"serviceId"`
}

// ReportController serves the financial reports and manual expenses.
type ReportController struct {
	finance *services.FinanceService
}

func NewReportController(finance *services.FinanceService) *ReportController {
	return &ReportController{finance: finance}
}

func (rc *ReportController) period(c *gin.Context) (services.Period, bool) {
	p, err := services.ParsePeriod(c.DefaultQuery("period", string(services.PeriodDaily)))
	if err != nil {
		respondServiceError(c, "period", err)
		return "", false
	}
	return p, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return n, true
}

func (rc *ReportController) GetSummary(c *gin.Context) {
	period, ok := rc.period(c)
	if !ok {
		return
	}
	summary, err := rc.finance.GetSummary(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, "GetSummary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (rc *ReportController) GetTrends(c *gin.Context) {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return
	}
	trends, err := rc.finance.GetTrends(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, "GetTrends", err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (rc *ReportController) GetMonthlyTrends(c *gin.Context) {
	months, ok := intQuery(c, "months", 6)
	if !ok {
		return
	}
	trends, err := rc.finance.GetMonthlyTrends(c.Request.Context(), months)
	if err != nil {
		respondServiceError(c, "GetMonthlyTrends", err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (rc *ReportController) GetExpenseBreakdown(c *gin.Context) {
	period, ok := rc.period(c)
	if !ok {
		return
	}
	breakdown, err := rc.finance.GetExpenseBreakdown(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, "GetExpenseBreakdown", err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// ExportReport downloads the period report as an Excel workbook.
func (rc *ReportController) ExportReport(c *gin.Context) {
	period, ok := rc.period(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := rc.finance.ExportReport(c.Request.Context(), period, &buf); err != nil {
		respondServiceError(c, "ExportReport", err)
		return
	}
	filename := "laporan-" + string(period) + "-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (rc *ReportController) RecordExpense(c *gin.Context) {
	var input RecordExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	expense, err := rc.finance.RecordExpense(c.Request.Context(), services.RecordExpenseRequest(input))
	if err != nil {
		respondServiceError(c, "RecordExpense", err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (rc *ReportController) GetExpenses(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return
	}
	expenses, err := rc.finance.ListRecentExpenses(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, "GetExpenses", err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (rc *ReportController) GetExpenseCategories(c *gin.Context) {
	c.JSON(http.StatusOK, rc.finance.ExpenseCategories())
}
