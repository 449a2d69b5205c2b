package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"erpcore/internal/core/id"
)

type Stamped struct {
	ID        id.ID     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

type mockRow struct {
	Stamped
	Code  string   `db:"code"`
	Name  string   `db:"name"`
	Lines []string `db:"-"`
	note  string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockRow]()
	assert.Equal(t, []string{"code", "name", "id", "created_at"}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := &mockRow{
		Stamped: Stamped{ID: id.New(), CreatedAt: now},
		Code:    "MAIN",
		Name:    "Main",
		Lines:   []string{"x"},
		note:    "ignored",
	}

	m := StructToMap(row)

	assert.Len(t, m, 4)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "MAIN", m["code"])
	assert.NotContains(t, m, "lines")
}

func TestColumns_KeepsOrder(t *testing.T) {
	names, values := Columns(map[string]any{"b": 2, "a": 1, "z": 26}, []string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, []any{1, 2}, values)
}
