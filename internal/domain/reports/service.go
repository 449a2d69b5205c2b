package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/stock"
)

// StockLevels provides on-hand inventory.
type StockLevels interface {
	Levels(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error)
}

// Service provides report generation operations.
type Service struct {
	repo  Repository
	stock StockLevels
}

// NewService creates a new reports service.
func NewService(repo Repository, stockLevels StockLevels) *Service {
	return &Service{repo: repo, stock: stockLevels}
}

// AccountBalances returns per-account turnover within [from, to].
func (s *Service) AccountBalances(ctx context.Context, from, to time.Time) ([]posting.AccountBalance, error) {
	if err := (Range{From: from, To: to}).Validate(); err != nil {
		return nil, err
	}
	out, err := s.repo.AccountTurnover(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("account turnover: %w", err)
	}
	return out, nil
}

// AccountTypeBalances groups turnover by period and account type.
// Rows are ordered by period, then by the chart order of types.
func (s *Service) AccountTypeBalances(ctx context.Context, r Range, period Period) ([]TypeBalance, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodMonth
	}
	if !period.Valid() {
		return nil, apperror.NewValidation("unknown report period").WithDetail("period", string(period))
	}

	rows, err := s.repo.TypeTurnover(ctx, r.From, r.To, period)
	if err != nil {
		return nil, fmt.Errorf("type turnover: %w", err)
	}
	return balances(rows), nil
}

func balances(rows []TypeTurnover) []TypeBalance {
	out := make([]TypeBalance, 0, len(rows))
	for _, row := range rows {
		out = append(out, TypeBalance{
			TypeTurnover: row,
			Balance:      row.Type.Balance(row.Debit, row.Credit),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.Before(out[j].Period)
		}
		return typeOrder(out[i].Type) < typeOrder(out[j].Type)
	})
	return out
}

func typeOrder(t accounts.Type) int {
	for i, at := range accounts.AllTypes {
		if at == t {
			return i
		}
	}
	return len(accounts.AllTypes)
}

// FinancialRatios computes the current ratio from balances up to r.To and the
// margin and net income from turnover within r. The two aggregates run concurrently.
func (s *Service) FinancialRatios(ctx context.Context, r Range) (*Ratios, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var position, result map[accounts.Type]types.Money
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.TypeTurnover(gctx, time.Time{}, r.To, "")
		if err != nil {
			return fmt.Errorf("position: %w", err)
		}
		position = byType(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.TypeTurnover(gctx, r.From, r.To, "")
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
		result = byType(rows)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Ratios{
		From:        r.From,
		To:          r.To,
		Assets:      position[accounts.TypeAsset],
		Liabilities: position[accounts.TypeLiability],
		Income:      result[accounts.TypeIncome],
		Expense:     result[accounts.TypeExpense],
	}
	out.NetIncome = out.Income.Sub(out.Expense)
	if !out.Liabilities.IsZero() {
		ratio := out.Assets.DivRound(out.Liabilities, types.MoneyPlaces)
		out.CurrentRatio = &ratio
	}
	if !out.Income.IsZero() {
		margin := out.NetIncome.Mul(decimal.NewFromInt(100)).DivRound(out.Income, types.MoneyPlaces)
		out.GrossMargin = &margin
	}
	return out, nil
}

func byType(rows []TypeTurnover) map[accounts.Type]types.Money {
	out := make(map[accounts.Type]types.Money, len(accounts.AllTypes))
	for _, t := range accounts.AllTypes {
		out[t] = types.Zero()
	}
	for _, row := range rows {
		out[row.Type] = out[row.Type].Add(row.Type.Balance(row.Debit, row.Credit))
	}
	return out
}

// InventoryLevels returns quantity and value per product, optionally for one warehouse.
func (s *Service) InventoryLevels(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	return s.stock.Levels(ctx, warehouseID)
}
