package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/vouchers"
	"erpcore/pkg/logger"
)

// BalanceSource provides per-account turnover for a date range.
type BalanceSource interface {
	AccountBalances(ctx context.Context, from, to time.Time) ([]posting.AccountBalance, error)
}

// VoucherPoster posts the closing voucher.
type VoucherPoster interface {
	CreateWithEntries(ctx context.Context, in vouchers.CreateInput) (*vouchers.Voucher, error)
}

// AccountLookup resolves account codes.
type AccountLookup interface {
	ResolveCode(ctx context.Context, code string) (*accounts.Account, error)
}

// Service provides financial year, term and schedule operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time

	// active collapses concurrent GetActive calls into one lookup-or-create.
	active singleflight.Group
}

// NewService creates a new finance service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetActive returns the active year. When none is active, the year holding
// today is activated, creating the calendar year if it does not exist.
// The shared lookup ignores cancellation of whichever caller started it, so
// callers still waiting on it are not failed by another's deadline.
func (s *Service) GetActive(ctx context.Context) (*Year, error) {
	v, err, _ := s.active.Do("active", func() (any, error) {
		return s.getOrCreateActive(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	y := *v.(*Year)
	return &y, nil
}

func (s *Service) getOrCreateActive(ctx context.Context) (*Year, error) {
	var y *Year
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		y, err = s.repo.GetActiveYear(ctx)
		if err == nil {
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		today := s.now()
		y, err = s.repo.FindYearContaining(ctx, today)
		if apperror.IsNotFound(err) {
			y = CalendarYear(today)
			if err := s.repo.CreateYear(ctx, y); err != nil {
				return fmt.Errorf("create financial year: %w", err)
			}
			logger.Info(ctx, "financial year created", "year", y.Name)
		} else if err != nil {
			return err
		}

		return s.swapActive(ctx, y)
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

// Activate makes yearID the only active year. Deactivating the others and
// activating the target happen in one transaction.
func (s *Service) Activate(ctx context.Context, yearID id.ID) (*Year, error) {
	var y *Year
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		y, err = s.repo.GetYearForUpdate(ctx, yearID)
		if err != nil {
			return err
		}
		return s.swapActive(ctx, y)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "financial year activated", "year", y.Name)
	return y, nil
}

func (s *Service) swapActive(ctx context.Context, y *Year) error {
	if y.IsClosed {
		return apperror.NewBusinessRule(apperror.CodeFinancialYearClose, "closed financial year cannot be activated").
			WithDetail("year", y.Name)
	}
	if err := s.repo.DeactivateAll(ctx); err != nil {
		return fmt.Errorf("deactivate years: %w", err)
	}
	ok, err := s.repo.ActivateYear(ctx, y.ID)
	if err != nil {
		return fmt.Errorf("activate year: %w", err)
	}
	if !ok {
		return apperror.NewConflict("financial year changed concurrently").WithDetail("year", y.Name)
	}
	y.IsActive = true
	return nil
}

// CreateYearInput describes an explicit financial year.
type CreateYearInput struct {
	Name      string    `json:"name" validate:"required,max=32"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
}

// CreateYear registers an inactive year. Years must not overlap.
func (s *Service) CreateYear(ctx context.Context, in CreateYearInput) (*Year, error) {
	y := &Year{
		ID:        id.New(),
		Name:      strings.TrimSpace(in.Name),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatedAt: s.now(),
	}
	if err := y.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, d := range []time.Time{y.StartDate, y.EndDate} {
			if other, err := s.repo.FindYearContaining(ctx, d); err == nil {
				return apperror.NewConflict("financial years overlap").WithDetail("year", other.Name)
			} else if !apperror.IsNotFound(err) {
				return err
			}
		}
		return s.repo.CreateYear(ctx, y)
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

// Years lists all financial years.
func (s *Service) Years(ctx context.Context) ([]*Year, error) {
	return s.repo.ListYears(ctx)
}

// PostingContextFor resolves the active year into an explicit posting context.
func (s *Service) PostingContextFor(ctx context.Context, actor string, branchID *string) (PostingContext, error) {
	y, err := s.GetActive(ctx)
	if err != nil {
		return PostingContext{}, err
	}
	return PostingContext{FinancialYearID: y.ID, Actor: actor, BranchID: branchID}, nil
}

// --- Year-end closing ---

// Closer closes a financial year into equity.
type Closer struct {
	finance  *Service
	balances BalanceSource
	vouchers VoucherPoster
	accounts AccountLookup
}

// NewCloser creates a year-end closer.
func NewCloser(finance *Service, balances BalanceSource, poster VoucherPoster, accts AccountLookup) *Closer {
	return &Closer{finance: finance, balances: balances, vouchers: poster, accounts: accts}
}

// CloseInput describes a year-end close.
type CloseInput struct {
	YearID     id.ID
	EquityCode string
	Actor      string
	OpenNext   bool
}

// CloseResult reports what a close produced.
type CloseResult struct {
	Year    *Year             `json:"year"`
	Voucher *vouchers.Voucher `json:"voucher,omitempty"`
	Next    *Year             `json:"next,omitempty"`
}

// Close moves every income and expense balance of the year into the equity
// account with a journal voucher dated on the last day, marks the year closed
// and optionally opens the following year.
func (c *Closer) Close(ctx context.Context, in CloseInput) (*CloseResult, error) {
	if in.Actor == "" {
		return nil, apperror.NewValidation("acting user is required")
	}

	res := &CloseResult{}
	err := c.finance.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		y, err := c.finance.repo.GetYearForUpdate(ctx, in.YearID)
		if err != nil {
			return err
		}
		if y.IsClosed {
			return apperror.NewBusinessRule(apperror.CodeFinancialYearClose, "financial year is already closed").
				WithDetail("year", y.Name)
		}

		equity, err := c.accounts.ResolveCode(ctx, in.EquityCode)
		if err != nil {
			return err
		}
		if equity.Type != accounts.TypeEquity {
			return apperror.NewValidation("closing account must be an equity account").
				WithDetail("code", in.EquityCode)
		}

		balances, err := c.balances.AccountBalances(ctx, y.StartDate, y.EndDate)
		if err != nil {
			return fmt.Errorf("year balances: %w", err)
		}
		p, err := posting.YearEndClosing(y.Name, equity.ID, balances)
		if err != nil {
			return err
		}
		if len(p.Entries) > 0 {
			yearID := y.ID
			res.Voucher, err = c.vouchers.CreateWithEntries(ctx, vouchers.CreateInput{
				Type:            p.Type,
				Date:            y.EndDate,
				Narration:       p.Narration,
				Entries:         p.Entries,
				CreatedBy:       in.Actor,
				FinancialYearID: &yearID,
			})
			if err != nil {
				return err
			}
		}

		if err := c.finance.repo.MarkClosed(ctx, y.ID); err != nil {
			return fmt.Errorf("mark year closed: %w", err)
		}
		y.IsClosed = true
		y.IsActive = false
		res.Year = y

		if !in.OpenNext {
			return nil
		}
		next, err := c.finance.repo.FindYearContaining(ctx, y.EndDate.AddDate(0, 0, 1))
		if apperror.IsNotFound(err) {
			next = y.Next()
			if err := c.finance.repo.CreateYear(ctx, next); err != nil {
				return fmt.Errorf("create next year: %w", err)
			}
		} else if err != nil {
			return err
		}
		if err := c.finance.swapActive(ctx, next); err != nil {
			return err
		}
		res.Next = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "financial year closed", "year", res.Year.Name, "opened_next", res.Next != nil)
	return res, nil
}

// --- Payment terms and schedules ---

// CreateTermInput describes a payment term.
type CreateTermInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Installments int    `json:"installments" validate:"gte=0,lte=120"`
	IntervalDays int    `json:"intervalDays" validate:"gte=0,lte=3650"`
}

// CreateTerm registers a payment term, applying defaults to zero fields.
func (s *Service) CreateTerm(ctx context.Context, in CreateTermInput) (*Term, error) {
	t := &Term{
		ID:           id.New(),
		Name:         strings.TrimSpace(in.Name),
		Installments: in.Installments,
		IntervalDays: in.IntervalDays,
	}
	if t.Name == "" {
		return nil, apperror.NewValidation("term name is required")
	}
	if t.Installments <= 0 {
		t.Installments = DefaultInstallments
	}
	if t.IntervalDays <= 0 {
		t.IntervalDays = DefaultIntervalDays
	}
	if err := s.repo.CreateTerm(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Term returns a payment term.
func (s *Service) Term(ctx context.Context, termID id.ID) (*Term, error) {
	return s.repo.GetTerm(ctx, termID)
}

// Terms lists payment terms.
func (s *Service) Terms(ctx context.Context) ([]*Term, error) {
	return s.repo.ListTerms(ctx)
}

// ScheduleDocument generates and stores installments for a document.
// It joins the caller's transaction.
func (s *Service) ScheduleDocument(ctx context.Context, termID id.ID, documentType string, documentID id.ID, date time.Time, outstanding types.Money) ([]Schedule, error) {
	term, err := s.repo.GetTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	schedules := BuildSchedule(*term, documentType, documentID, date, outstanding)
	if len(schedules) == 0 {
		return nil, nil
	}
	if err := s.repo.CreateSchedules(ctx, schedules); err != nil {
		return nil, fmt.Errorf("create schedules: %w", err)
	}
	return schedules, nil
}

// Schedules lists installments of a document ordered by number.
func (s *Service) Schedules(ctx context.Context, documentType string, documentID id.ID) ([]Schedule, error) {
	return s.repo.ListSchedules(ctx, documentType, documentID)
}

// ScheduleForUpdate loads and locks one installment.
func (s *Service) ScheduleForUpdate(ctx context.Context, scheduleID id.ID) (*Schedule, error) {
	return s.repo.GetScheduleForUpdate(ctx, scheduleID)
}

// MarkSchedulePaid settles one installment with the given voucher.
func (s *Service) MarkSchedulePaid(ctx context.Context, scheduleID, voucherID id.ID) error {
	ok, err := s.repo.MarkSchedulePaid(ctx, scheduleID, voucherID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewInvalidTransition("payment schedule", "not PENDING", string(SchedulePaid))
	}
	return nil
}
