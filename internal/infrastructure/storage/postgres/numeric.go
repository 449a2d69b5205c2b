package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"

	"erpcore/internal/core/types"
)

// Numeric converts money into the binary numeric form COPY expects.
func Numeric(m types.Money) pgtype.Numeric {
	return pgtype.Numeric{Int: m.Coefficient(), Exp: m.Exponent(), Valid: true}
}
