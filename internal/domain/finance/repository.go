package finance

import (
	"context"
	"time"

	"erpcore/internal/core/id"
)

// Repository defines persistence for years, terms and schedules.
// Get methods return apperror NOT_FOUND when nothing matches.
type Repository interface {
	CreateYear(ctx context.Context, y *Year) error
	GetYear(ctx context.Context, yearID id.ID) (*Year, error)
	GetYearForUpdate(ctx context.Context, yearID id.ID) (*Year, error)
	GetActiveYear(ctx context.Context) (*Year, error)
	FindYearContaining(ctx context.Context, date time.Time) (*Year, error)
	ListYears(ctx context.Context) ([]*Year, error)

	// DeactivateAll clears is_active on every year.
	DeactivateAll(ctx context.Context) error

	// ActivateYear sets is_active on an open year. Returns false when the
	// year is closed or missing.
	ActivateYear(ctx context.Context, yearID id.ID) (bool, error)

	MarkClosed(ctx context.Context, yearID id.ID) error

	CreateTerm(ctx context.Context, t *Term) error
	GetTerm(ctx context.Context, termID id.ID) (*Term, error)
	ListTerms(ctx context.Context) ([]*Term, error)

	CreateSchedules(ctx context.Context, schedules []Schedule) error
	ListSchedules(ctx context.Context, documentType string, documentID id.ID) ([]Schedule, error)
	GetScheduleForUpdate(ctx context.Context, scheduleID id.ID) (*Schedule, error)

	// MarkSchedulePaid flips a PENDING installment to PAID and links the
	// settling voucher. Returns false if it was not PENDING.
	MarkSchedulePaid(ctx context.Context, scheduleID, voucherID id.ID) (bool, error)
}
