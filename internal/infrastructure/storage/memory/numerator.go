package memory

import (
	"context"
	"time"

	"erpcore/internal/core/numerator"
)

// Numerator implements numerator.Generator over the store's sequence table.
// Sequences are part of the transactional state, so a rollback returns the number.
type Numerator struct{ s *Store }

var _ numerator.Generator = (*Numerator)(nil)

func (n *Numerator) GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	var next int64
	err := n.s.write(ctx, func(st *state) error {
		key := cfg.Key(period)
		next = st.sequences[key] + 1
		st.sequences[key] = next
		return nil
	})
	if err != nil {
		return "", err
	}
	return cfg.Format(period, next), nil
}
