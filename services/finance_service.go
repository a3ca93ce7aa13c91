package services

import (
	"context"
	"sort"
	"time"

	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"

	maxTrendDays   = 366
	maxTrendMonths = 60

	uncategorized = "Lain-lain"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", invalid(ErrInvalidInput, "period must be daily, weekly or monthly, got %q", s)
}

type Summary struct {
	Period           Period          `json:"period"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Profit           decimal.Decimal `json:"profit"`
	TransactionCount int             `json:"transactionCount"`
}

type Trends struct {
	Labels   []string          `json:"labels"`
	Dates    []string          `json:"dates"`
	Income   []decimal.Decimal `json:"income"`
	Expenses []decimal.Decimal `json:"expenses"`
	Profit   []decimal.Decimal `json:"profit"`
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type ExpenseGroupTotal struct {
	Total      decimal.Decimal  `json:"total"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

type PartCost struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

type SparePartsTotal struct {
	Total  decimal.Decimal `json:"total"`
	ByName []PartCost      `json:"byName"`
}

type ExpenseBreakdown struct {
	Period      Period            `json:"period"`
	Operational ExpenseGroupTotal `json:"operational"`
	Other       ExpenseGroupTotal `json:"other"`
	SpareParts  SparePartsTotal   `json:"spareParts"`
	GrandTotal  decimal.Decimal   `json:"grandTotal"`
}

type RecordExpenseRequest struct {
	Category    string
	Amount      decimal.Decimal
	Description *string
	Date        *time.Time
	ServiceID   *uuid.UUID
}

// FinanceService computes income, expense and profit figures. Income comes
// from completed payments; expenses are manual expense records plus the
// purchase cost of parts used by services.
type FinanceService struct {
	reports      repository.ReportRepository
	transactions repository.TransactionRepository
	logger       *logrus.Logger
	loc          *time.Location
	now          func() time.Time
}

func NewFinanceService(
	reports repository.ReportRepository,
	transactions repository.TransactionRepository,
	loc *time.Location,
	logger *logrus.Logger,
) *FinanceService {
	if loc == nil {
		loc = time.Local
	}
	return &FinanceService{
		reports:      reports,
		transactions: transactions,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

func (s *FinanceService) clock() time.Time {
	return s.now().In(s.loc)
}

// periodStart is the first instant of the window ending at now. The window
// includes it.
func periodStart(p Period, now time.Time) (time.Time, error) {
	switch p {
	case PeriodDaily:
		return utils.BeginningOfDay(now), nil
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonthly:
		return utils.BeginningOfMonth(now), nil
	}
	_, err := ParsePeriod(string(p))
	return time.Time{}, err
}

// activity is the raw material of every report over one window.
type activity struct {
	payments []models.Payment
	expenses []models.FinancialTransaction
	usage    []repository.PartUsage
}

func (s *FinanceService) load(ctx context.Context, from, to time.Time) (*activity, error) {
	payments, err := s.reports.ListPaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, storeErr("list payments", err)
	}
	expenses, err := s.reports.ListExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	usage, err := s.reports.ListPartUsageBetween(ctx, from, to)
	if err != nil {
		return nil, storeErr("list part usage", err)
	}
	return &activity{payments: payments, expenses: expenses, usage: usage}, nil
}

func usageCost(u repository.PartUsage) decimal.Decimal {
	return u.UnitCost.Mul(decimal.NewFromInt(int64(u.Quantity)))
}

func (s *FinanceService) GetSummary(ctx context.Context, period Period) (*Summary, error) {
	now := s.clock()
	from, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}
	act, err := s.load(ctx, from, now)
	if err != nil {
		return nil, err
	}

	income := decimal.Zero
	for _, p := range act.payments {
		income = income.Add(p.Amount)
	}
	expenses := decimal.Zero
	for _, t := range act.expenses {
		expenses = expenses.Add(t.Amount)
	}
	for _, u := range act.usage {
		expenses = expenses.Add(usageCost(u))
	}

	return &Summary{
		Period:           period,
		From:             from,
		To:               now,
		Income:           income,
		Expenses:         expenses,
		Profit:           income.Sub(expenses),
		TransactionCount: len(act.payments),
	}, nil
}

func newTrends(n int) *Trends {
	t := &Trends{
		Labels:   make([]string, n),
		Dates:    make([]string, n),
		Income:   make([]decimal.Decimal, n),
		Expenses: make([]decimal.Decimal, n),
		Profit:   make([]decimal.Decimal, n),
	}
	for i := 0; i < n; i++ {
		t.Income[i] = decimal.Zero
		t.Expenses[i] = decimal.Zero
	}
	return t
}

// fill sums act into buckets chosen by index, which returns -1 for
// timestamps outside the window.
func (t *Trends) fill(act *activity, index func(time.Time) int) {
	for _, p := range act.payments {
		if i := index(p.PaymentDate); i >= 0 {
			t.Income[i] = t.Income[i].Add(p.Amount)
		}
	}
	for _, e := range act.expenses {
		if i := index(e.TransactionDate); i >= 0 {
			t.Expenses[i] = t.Expenses[i].Add(e.Amount)
		}
	}
	for _, u := range act.usage {
		if i := index(u.ServiceDate); i >= 0 {
			t.Expenses[i] = t.Expenses[i].Add(usageCost(u))
		}
	}
	for i := range t.Profit {
		t.Profit[i] = t.Income[i].Sub(t.Expenses[i])
	}
}

// GetTrends returns one bucket per calendar day for the last nDays days,
// today included, oldest first.
func (s *FinanceService) GetTrends(ctx context.Context, nDays int) (*Trends, error) {
	if nDays < 1 || nDays > maxTrendDays {
		return nil, invalid(ErrInvalidInput, "days must be between 1 and %d", maxTrendDays)
	}
	now := s.clock()
	first := utils.BeginningOfDay(now).AddDate(0, 0, -(nDays - 1))
	act, err := s.load(ctx, first, now)
	if err != nil {
		return nil, err
	}

	trends := newTrends(nDays)
	for i := 0; i < nDays; i++ {
		day := first.AddDate(0, 0, i)
		trends.Labels[i] = utils.WeekdayLabel(day)
		trends.Dates[i] = day.Format("2006-01-02")
	}
	trends.fill(act, func(t time.Time) int {
		i := utils.DaysBetween(first, t.In(s.loc))
		if i < 0 || i >= nDays {
			return -1
		}
		return i
	})
	return trends, nil
}

// GetMonthlyTrends returns one bucket per calendar month for the last
// nMonths months, the current month included, oldest first.
func (s *FinanceService) GetMonthlyTrends(ctx context.Context, nMonths int) (*Trends, error) {
	if nMonths < 1 || nMonths > maxTrendMonths {
		return nil, invalid(ErrInvalidInput, "months must be between 1 and %d", maxTrendMonths)
	}
	now := s.clock()
	first := utils.BeginningOfMonth(now).AddDate(0, -(nMonths - 1), 0)
	act, err := s.load(ctx, first, now)
	if err != nil {
		return nil, err
	}

	trends := newTrends(nMonths)
	for i := 0; i < nMonths; i++ {
		month := first.AddDate(0, i, 0)
		trends.Labels[i] = utils.MonthLabel(month)
		trends.Dates[i] = month.Format("2006-01")
	}
	trends.fill(act, func(t time.Time) int {
		t = t.In(s.loc)
		i := (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
		if i < 0 || i >= nMonths {
			return -1
		}
		return i
	})
	return trends, nil
}

// GetExpenseBreakdown splits the period's expenses into the operational and
// other category groups plus spare-part consumption by part name.
func (s *FinanceService) GetExpenseBreakdown(ctx context.Context, period Period) (*ExpenseBreakdown, error) {
	now := s.clock()
	from, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}
	act, err := s.load(ctx, from, now)
	if err != nil {
		return nil, err
	}

	byGroup := map[models.ExpenseGroup]map[string]decimal.Decimal{
		models.ExpenseOperational: {},
		models.ExpenseOther:       {},
	}
	for _, e := range act.expenses {
		category := uncategorized
		if e.Category != nil && *e.Category != "" {
			category = *e.Category
		}
		group, _ := models.ExpenseGroupOf(category)
		byGroup[group][category] = byGroup[group][category].Add(e.Amount)
	}

	parts := map[string]*PartCost{}
	partsTotal := decimal.Zero
	for _, u := range act.usage {
		pc, ok := parts[u.PartName]
		if !ok {
			pc = &PartCost{Name: u.PartName, Cost: decimal.Zero}
			parts[u.PartName] = pc
		}
		cost := usageCost(u)
		pc.Quantity += u.Quantity
		pc.Cost = pc.Cost.Add(cost)
		partsTotal = partsTotal.Add(cost)
	}
	byName := make([]PartCost, 0, len(parts))
	for _, pc := range parts {
		byName = append(byName, *pc)
	}
	sort.Slice(byName, func(i, j int) bool { return byName[i].Name < byName[j].Name })

	operational := groupTotal(models.ExpenseOperational, byGroup[models.ExpenseOperational])
	other := groupTotal(models.ExpenseOther, byGroup[models.ExpenseOther])

	return &ExpenseBreakdown{
		Period:      period,
		Operational: operational,
		Other:       other,
		SpareParts:  SparePartsTotal{Total: partsTotal, ByName: byName},
		GrandTotal:  operational.Total.Add(other.Total).Add(partsTotal),
	}, nil
}

// groupTotal orders categories as the enumeration lists them; labels outside
// it (legacy rows) follow alphabetically.
func groupTotal(group models.ExpenseGroup, amounts map[string]decimal.Decimal) ExpenseGroupTotal {
	out := ExpenseGroupTotal{Total: decimal.Zero, ByCategory: []CategoryAmount{}}
	seen := map[string]bool{}
	for _, c := range models.ExpenseCategories(group) {
		if amt, ok := amounts[c]; ok {
			out.ByCategory = append(out.ByCategory, CategoryAmount{Category: c, Amount: amt})
			out.Total = out.Total.Add(amt)
			seen[c] = true
		}
	}
	var extra []string
	for c := range amounts {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		out.ByCategory = append(out.ByCategory, CategoryAmount{Category: c, Amount: amounts[c]})
		out.Total = out.Total.Add(amounts[c])
	}
	return out
}

// RecordExpense stores a manual expense. The category must belong to the
// closed operational or other list.
func (s *FinanceService) RecordExpense(ctx context.Context, req RecordExpenseRequest) (*models.FinancialTransaction, error) {
	if !models.IsValidExpenseCategory(req.Category) {
		return nil, invalid(ErrUnknownCategory, "%q", req.Category)
	}
	if !req.Amount.IsPositive() {
		return nil, invalid(ErrInvalidAmount, "got %s", req.Amount)
	}
	if !minorUnits(req.Amount) {
		return nil, invalid(ErrAmountPrecision, "got %s", req.Amount)
	}
	date := s.clock()
	if req.Date != nil {
		date = *req.Date
	}
	category := req.Category
	expense := &models.FinancialTransaction{
		TransactionType: models.TransactionExpense,
		Amount:          req.Amount,
		Category:        &category,
		Description:     req.Description,
		TransactionDate: date,
		ServiceID:       req.ServiceID,
	}
	if err := s.transactions.Create(ctx, expense); err != nil {
		return nil, storeErr("record expense", err)
	}
	s.logger.WithFields(logrus.Fields{
		"category": category,
		"amount":   req.Amount.String(),
	}).Info("expense recorded")
	return expense, nil
}

func (s *FinanceService) ListRecentExpenses(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	expenses, err := s.transactions.ListRecentExpenses(ctx, limit)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	return expenses, nil
}

// ExpenseCategories lists the allowed labels per group.
func (s *FinanceService) ExpenseCategories() map[models.ExpenseGroup][]string {
	return map[models.ExpenseGroup][]string{
		models.ExpenseOperational: models.ExpenseCategories(models.ExpenseOperational),
		models.ExpenseOther:       models.ExpenseCategories(models.ExpenseOther),
	}
}
