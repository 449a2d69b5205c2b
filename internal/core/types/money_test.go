package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_RemainderOnLast(t *testing.T) {
	parts := Split(MustMoney("100"), 3)

	assert.Len(t, parts, 3)
	assert.True(t, parts[0].Equal(MustMoney("33.33")))
	assert.True(t, parts[1].Equal(MustMoney("33.33")))
	assert.True(t, parts[2].Equal(MustMoney("33.34")))
	assert.True(t, Sum(parts...).Equal(MustMoney("100")))
}

func TestSplit_NonPositiveCountIsOne(t *testing.T) {
	parts := Split(MustMoney("12.5"), 0)

	assert.Len(t, parts, 1)
	assert.True(t, parts[0].Equal(MustMoney("12.5")))
}

func TestClamp(t *testing.T) {
	lo, hi := Zero(), MustMoney("100")

	assert.True(t, Clamp(MustMoney("-5"), lo, hi).Equal(lo))
	assert.True(t, Clamp(MustMoney("150"), lo, hi).Equal(hi))
	assert.True(t, Clamp(MustMoney("42"), lo, hi).Equal(MustMoney("42")))
}

func TestRound(t *testing.T) {
	assert.Equal(t, "10.13", Round(MustMoney("10.125")).StringFixed(2))
}
