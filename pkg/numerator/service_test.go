package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "erpcore/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences keyed by the first argument.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}

	key := args[0].(string)
	if len(args) == 2 {
		m.values[key] = args[1].(int64)
	} else {
		m.values[key]++
	}
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_Sequential(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("SAL")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SAL-2026-00001" {
		t.Errorf("expected SAL-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SAL-2026-00002" {
		t.Errorf("expected SAL-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_YearReset(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("JRN")

	_, _ = svc.GetNextNumber(ctx, cfg, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	num, err := svc.GetNextNumber(ctx, cfg, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "JRN-2026-00001" {
		t.Errorf("expected JRN-2026-00001, got %s", num)
	}
}

func TestSetNextNumber(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("PUR")
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := svc.SetNextNumber(ctx, cfg, period, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	num, err := svc.GetNextNumber(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PUR-2026-00100" {
		t.Errorf("expected PUR-2026-00100, got %s", num)
	}
}

func TestGetNextNumber_QueryError(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("connection reset")})

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("SAL"), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]int64{
		"SAL-2026-00042": 42,
		"JRN-00007":      7,
		"garbage":        -1,
	}
	for in, want := range cases {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestConfigFormat_NoYear(t *testing.T) {
	cfg := corenumerator.Config{Prefix: "SI", PadWidth: 3, ResetPeriod: "never"}
	if got := cfg.Format(time.Now(), 12); got != "SI-012" {
		t.Errorf("expected SI-012, got %s", got)
	}
	if got := cfg.Key(time.Now()); got != "SI" {
		t.Errorf("expected key SI, got %s", got)
	}
}
