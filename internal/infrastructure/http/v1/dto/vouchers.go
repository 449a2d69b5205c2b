package dto

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
)

// EntryRequest is one debit or credit line.
type EntryRequest struct {
	AccountID id.ID       `json:"accountId" validate:"required"`
	Debit     types.Money `json:"debit" validate:"nonneg_decimal"`
	Credit    types.Money `json:"credit" validate:"nonneg_decimal"`
	Remarks   string      `json:"remarks" validate:"max=500"`
}

// CreateVoucherRequest is the body of POST /vouchers.
type CreateVoucherRequest struct {
	Type      vouchers.Type  `json:"type" validate:"required"`
	Date      Date           `json:"date"`
	Narration string         `json:"narration" validate:"max=1000"`
	Entries   []EntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// ReplaceEntriesRequest is the body of PUT /vouchers/:id/entries.
type ReplaceEntriesRequest struct {
	Entries []EntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// EntryInputs converts request lines to engine input.
func EntryInputs(entries []EntryRequest) []vouchers.EntryInput {
	out := make([]vouchers.EntryInput, 0, len(entries))
	for _, e := range entries {
		out = append(out, vouchers.EntryInput{
			AccountID: e.AccountID,
			Debit:     e.Debit,
			Credit:    e.Credit,
			Remarks:   e.Remarks,
		})
	}
	return out
}

// ToInput converts the request to engine input.
func (r CreateVoucherRequest) ToInput(actor string, branchID *string, yearID *id.ID) vouchers.CreateInput {
	return vouchers.CreateInput{
		Type:            r.Type,
		Date:            r.Date.Time,
		Narration:       r.Narration,
		Entries:         EntryInputs(r.Entries),
		CreatedBy:       actor,
		BranchID:        branchID,
		FinancialYearID: yearID,
	}
}
