package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

func TestBuildSchedule_RemainderOnLastInstallment(t *testing.T) {
	date := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	docID := id.New()

	rows := BuildSchedule(Term{Installments: 3, IntervalDays: 15}, "SALE_INVOICE", docID, date, types.MustMoney("100"))
	require.Len(t, rows, 3)

	want := []string{"33.33", "33.33", "33.34"}
	for i, row := range rows {
		assert.Equal(t, i+1, row.InstallmentNo)
		assert.True(t, row.Amount.Equal(types.MustMoney(want[i])), "installment %d is %s", i+1, row.Amount)
		assert.Equal(t, date.AddDate(0, 0, 15*(i+1)), row.DueDate)
		assert.Equal(t, SchedulePending, row.Status)
		assert.Equal(t, docID, row.DocumentID)
	}
}

func TestBuildSchedule_Defaults(t *testing.T) {
	date := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	rows := BuildSchedule(Term{}, "PURCHASE_INVOICE", id.New(), date, types.MustMoney("80"))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(types.MustMoney("80")))
	assert.Equal(t, date.AddDate(0, 0, DefaultIntervalDays), rows[0].DueDate)
}

func TestBuildSchedule_NothingOutstanding(t *testing.T) {
	assert.Nil(t, BuildSchedule(Term{Installments: 2}, "SALE_INVOICE", id.New(), time.Now(), types.Zero()))
	assert.Nil(t, BuildSchedule(Term{Installments: 2}, "SALE_INVOICE", id.New(), time.Now(), types.MustMoney("-5")))
}

func TestYear_Next(t *testing.T) {
	y := CalendarYear(time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "FY2026", y.Name)

	next := y.Next()
	assert.Equal(t, "FY2027", next.Name)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), next.StartDate)
	assert.Equal(t, time.Date(2027, time.December, 31, 0, 0, 0, 0, time.UTC), next.EndDate)

	split := &Year{
		Name:      "FY2026-27",
		StartDate: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "FY2027-28", split.Next().Name)
	assert.True(t, split.Contains(time.Date(2027, time.June, 30, 18, 0, 0, 0, time.UTC)))
	assert.False(t, split.Contains(time.Date(2027, time.July, 1, 0, 0, 0, 0, time.UTC)))
}
