package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/classboard/backoffice-go/internal/domain/payroll"
)

type PayrollRepository struct {
	mu       sync.RWMutex
	payrolls map[string]payroll.Payroll
}

func NewPayrollRepository() *PayrollRepository {
	return &PayrollRepository{payrolls: make(map[string]payroll.Payroll)}
}

func (r *PayrollRepository) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.payrolls[p.ID] = p
	return p, nil
}

func (r *PayrollRepository) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return p, nil
}

func (r *PayrollRepository) GetByUserAndPeriod(ctx context.Context, userID string, period payroll.Period) (payroll.Payroll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.payrolls {
		if p.UserID == userID && p.Period == period {
			return p, nil
		}
	}
	return payroll.Payroll{}, payroll.ErrPayrollNotFound
}

func (r *PayrollRepository) Update(ctx context.Context, p payroll.Payroll, expected payroll.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payrolls[p.ID]
	if !ok {
		return payroll.ErrPayrollNotFound
	}
	if stored.Status != expected {
		return payroll.ErrStaleState
	}

	p.UpdatedAt = time.Now().UTC()
	r.payrolls[p.ID] = p
	return nil
}

func (r *PayrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Payroll, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []payroll.Payroll
	for _, p := range r.payrolls {
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && string(p.Status) != *filter.Status {
			continue
		}
		if filter.Year != nil && p.Period.Year != *filter.Year {
			continue
		}
		if filter.Month != nil && int(p.Period.Month) != *filter.Month {
			continue
		}
		matched = append(matched, p)
	}
	sortPayrolls(matched)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *PayrollRepository) ListByPeriod(ctx context.Context, period payroll.Period) ([]payroll.Payroll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []payroll.Payroll
	for _, p := range r.payrolls {
		if p.Period == period {
			matched = append(matched, p)
		}
	}
	sortPayrolls(matched)
	return matched, nil
}

func sortPayrolls(payrolls []payroll.Payroll) {
	sort.Slice(payrolls, func(i, j int) bool {
		if payrolls[i].Period != payrolls[j].Period {
			if payrolls[i].Period.Year != payrolls[j].Period.Year {
				return payrolls[i].Period.Year > payrolls[j].Period.Year
			}
			return payrolls[i].Period.Month > payrolls[j].Period.Month
		}
		return payrolls[i].UserID < payrolls[j].UserID
	})
}

// SalaryProvider is a fixed-table salary source for tests and local runs.
type SalaryProvider struct {
	mu          sync.RWMutex
	salaries    map[string]decimal.Decimal
	departments map[string]string
}

func NewSalaryProvider() *SalaryProvider {
	return &SalaryProvider{
		salaries:    make(map[string]decimal.Decimal),
		departments: make(map[string]string),
	}
}

func (p *SalaryProvider) SetSalary(userID string, salary decimal.Decimal, department string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.salaries[userID] = salary
	p.departments[userID] = department
}

func (p *SalaryProvider) BaseSalary(ctx context.Context, userID string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	salary, ok := p.salaries[userID]
	if !ok {
		return decimal.Zero, payroll.ErrSalaryNotFound
	}
	return salary, nil
}

func (p *SalaryProvider) Department(ctx context.Context, userID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.departments[userID], nil
}

func (p *SalaryProvider) ListEligible(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.salaries))
	for id := range p.salaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
