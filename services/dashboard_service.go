package services

import (
	"context"

	"bengkel-backend/models"
	"bengkel-backend/repository"

	"github.com/shopspring/decimal"
)

const dashboardRecentLimit = 5

type DashboardOverview struct {
	TotalCustomers      int64                         `json:"totalCustomers"`
	MonthlyIncome       decimal.Decimal               `json:"monthlyIncome"`
	MonthlyExpenses     decimal.Decimal               `json:"monthlyExpenses"`
	MonthlyProfit       decimal.Decimal               `json:"monthlyProfit"`
	ServicesByStatus    map[string]int64              `json:"servicesByStatus"`
	OutstandingInvoices int64                         `json:"outstandingInvoices"`
	LowStockCount       int                           `json:"lowStockCount"`
	LowStock            []models.SparePart            `json:"lowStock"`
	RecentServices      []models.Service              `json:"recentServices"`
	RecentExpenses      []models.FinancialTransaction `json:"recentExpenses"`
}

// DashboardService assembles the home screen from the other services.
type DashboardService struct {
	customers repository.CustomerRepository
	invoices  repository.InvoiceRepository
	jobs      *JobService
	inventory *InventoryService
	finance   *FinanceService
}

func NewDashboardService(
	customers repository.CustomerRepository,
	invoices repository.InvoiceRepository,
	jobs *JobService,
	inventory *InventoryService,
	finance *FinanceService,
) *DashboardService {
	return &DashboardService{
		customers: customers,
		invoices:  invoices,
		jobs:      jobs,
		inventory: inventory,
		finance:   finance,
	}
}

func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, storeErr("count customers", err)
	}
	summary, err := s.finance.GetSummary(ctx, PeriodMonthly)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	// Partial invoices are stored as issued.
	outstanding, err := s.invoices.CountByStatus(ctx, models.InvoiceDraft, models.InvoiceIssued)
	if err != nil {
		return nil, storeErr("count invoices", err)
	}
	lowStock, err := s.inventory.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.jobs.ListServices(ctx, repository.ServiceFilter{Limit: dashboardRecentLimit})
	if err != nil {
		return nil, err
	}
	expenses, err := s.finance.ListRecentExpenses(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return &DashboardOverview{
		TotalCustomers:      customers,
		MonthlyIncome:       summary.Income,
		MonthlyExpenses:     summary.Expenses,
		MonthlyProfit:       summary.Profit,
		ServicesByStatus:    byStatus,
		OutstandingInvoices: outstanding,
		LowStockCount:       len(lowStock),
		LowStock:            lowStock,
		RecentServices:      recent,
		RecentExpenses:      expenses,
	}, nil
}
