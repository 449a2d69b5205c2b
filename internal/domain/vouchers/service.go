package vouchers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/pkg/logger"
)

var tracer = otel.Tracer("erpcore/vouchers")

// AccountResolver is the part of the chart of accounts the engine depends on.
type AccountResolver interface {
	ResolveActive(ctx context.Context, ids []id.ID) (map[id.ID]*accounts.Account, error)
	GetByID(ctx context.Context, accountID id.ID) (*accounts.Account, error)
}

// Engine creates, approves and reads vouchers.
type Engine struct {
	repo      Repository
	accounts  AccountResolver
	numerator numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

// NewEngine creates a new voucher engine.
func NewEngine(repo Repository, accts AccountResolver, gen numerator.Generator, txManager tx.Manager) *Engine {
	return &Engine{
		repo:      repo,
		accounts:  accts,
		numerator: gen,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a voucher to post.
type CreateInput struct {
	Type            Type
	Date            time.Time
	Narration       string
	Entries         []EntryInput
	CreatedBy       string
	BranchID        *string
	FinancialYearID *id.ID
}

// EnsureTypes writes the voucher type registry to storage.
func (e *Engine) EnsureTypes(ctx context.Context) error {
	if err := e.repo.EnsureTypes(ctx, Types()); err != nil {
		return fmt.Errorf("ensure voucher types: %w", err)
	}
	return nil
}

// CreateWithEntries validates and persists a voucher with all of its entries.
// Validation runs before any storage call; persistence is one transaction.
func (e *Engine) CreateWithEntries(ctx context.Context, in CreateInput) (*Voucher, error) {
	ctx, span := tracer.Start(ctx, "vouchers.CreateWithEntries",
		trace.WithAttributes(attribute.String("voucher.type", string(in.Type))))
	defer span.End()

	if !in.Type.Valid() {
		return nil, apperror.NewValidation("unknown voucher type").WithDetail("type", string(in.Type))
	}
	if in.Date.IsZero() {
		return nil, apperror.NewValidation("voucher date is required")
	}
	if strings.TrimSpace(in.CreatedBy) == "" {
		return nil, apperror.NewValidation("voucher creator is required")
	}
	entries := RoundEntries(in.Entries)
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}

	debit, _ := Totals(entries)
	v := &Voucher{
		ID:              id.New(),
		Type:            in.Type,
		Date:            in.Date,
		Narration:       in.Narration,
		Amount:          debit,
		Status:          StatusPending,
		CreatedBy:       in.CreatedBy,
		BranchID:        in.BranchID,
		FinancialYearID: in.FinancialYearID,
		CreatedAt:       e.now(),
	}
	v.Entries = buildEntries(v.ID, entries)

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.accounts.ResolveActive(ctx, entryAccounts(entries)); err != nil {
			return err
		}

		number, err := e.numerator.GetNextNumber(ctx, numerator.DefaultConfig(string(in.Type)), in.Date)
		if err != nil {
			return fmt.Errorf("voucher number: %w", err)
		}
		v.Number = number

		return e.repo.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher created",
		"voucher_id", v.ID,
		"number", v.Number,
		"type", v.Type,
		"amount", v.Amount.StringFixed(2),
		"entries", len(v.Entries),
	)
	return v, nil
}

// Approve moves a PENDING voucher to APPROVED. Its entries are frozen from then on.
func (e *Engine) Approve(ctx context.Context, voucherID id.ID, approver string) (*Voucher, error) {
	return e.transition(ctx, voucherID, StatusApproved, approver)
}

// Reject moves a PENDING voucher to REJECTED.
func (e *Engine) Reject(ctx context.Context, voucherID id.ID, approver string) (*Voucher, error) {
	return e.transition(ctx, voucherID, StatusRejected, approver)
}

func (e *Engine) transition(ctx context.Context, voucherID id.ID, target Status, actor string) (*Voucher, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, apperror.NewValidation("approver is required")
	}

	var v *Voucher
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = e.repo.GetForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}

		from := v.Status
		if err := v.transition(target, actor, e.now()); err != nil {
			return err
		}

		ok, err := e.repo.UpdateStatus(ctx, v, from)
		if err != nil {
			return fmt.Errorf("update voucher status: %w", err)
		}
		if !ok {
			return apperror.NewConflict("voucher status changed concurrently").
				WithDetail("voucher_id", voucherID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher status changed", "voucher_id", v.ID, "number", v.Number, "status", v.Status, "by", actor)
	return v, nil
}

// ReplaceEntries swaps the entries of a PENDING voucher.
// APPROVED and REJECTED vouchers fail with VOUCHER_LOCKED.
func (e *Engine) ReplaceEntries(ctx context.Context, voucherID id.ID, entries []EntryInput) (*Voucher, error) {
	entries = RoundEntries(entries)
	var v *Voucher
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = e.repo.GetForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if err := v.EnsureMutable(); err != nil {
			return err
		}
		if err := ValidateEntries(entries); err != nil {
			return err
		}
		if _, err := e.accounts.ResolveActive(ctx, entryAccounts(entries)); err != nil {
			return err
		}

		debit, _ := Totals(entries)
		lines := buildEntries(v.ID, entries)
		ok, err := e.repo.ReplaceEntries(ctx, v.ID, debit, lines)
		if err != nil {
			return fmt.Errorf("replace voucher entries: %w", err)
		}
		if !ok {
			return apperror.NewVoucherLocked(v.ID.String(), "no longer PENDING")
		}

		v.Amount = debit
		v.Entries = lines
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns a voucher with its entries.
func (e *Engine) Get(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	return e.repo.GetByID(ctx, voucherID)
}

// List returns voucher headers.
func (e *Engine) List(ctx context.Context, filter ListFilter) ([]*Voucher, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return e.repo.List(ctx, filter)
}

// Ledger is an account statement with a running balance.
type Ledger struct {
	Account *accounts.Account `json:"account"`
	From    *time.Time        `json:"from,omitempty"`
	To      *time.Time        `json:"to,omitempty"`
	Opening types.Money       `json:"opening"`
	Lines   []LedgerLine      `json:"lines"`
	Closing types.Money       `json:"closing"`
}

// AccountLedger returns all non-rejected entries of an account in [from, to]
// with a running balance of debit minus credit. The opening balance covers
// everything before from.
func (e *Engine) AccountLedger(ctx context.Context, accountID id.ID, from, to *time.Time) (*Ledger, error) {
	acc, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ledger := &Ledger{Account: acc, From: from, To: to, Opening: types.Zero()}
	if from != nil {
		debit, credit, err := e.repo.Turnover(ctx, accountID, *from)
		if err != nil {
			return nil, fmt.Errorf("opening balance: %w", err)
		}
		ledger.Opening = debit.Sub(credit)
	}

	lines, err := e.repo.LedgerLines(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger lines: %w", err)
	}

	running := ledger.Opening
	for i := range lines {
		running = running.Add(lines[i].Debit).Sub(lines[i].Credit)
		lines[i].Balance = running
	}
	ledger.Lines = lines
	ledger.Closing = running
	return ledger, nil
}

func entryAccounts(entries []EntryInput) []id.ID {
	ids := make([]id.ID, len(entries))
	for i, e := range entries {
		ids[i] = e.AccountID
	}
	return ids
}
