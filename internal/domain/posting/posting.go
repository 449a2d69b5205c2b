// Package posting computes balanced entry sets for business events.
//
// Builders are pure: they read only their input and never touch storage.
// Every builder returns a Posting that has already passed Verify, and the
// documents service verifies it again right before handing it to the
// voucher engine.
package posting

import (
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
)

// PaymentMethod is how a document is settled.
type PaymentMethod string

const (
	// Cash settles through a cash or bank account at confirmation.
	Cash PaymentMethod = "CASH"
	// Credit leaves the outstanding part on the party's receivable or payable.
	Credit PaymentMethod = "CREDIT"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == Cash || m == Credit
}

// ParsePaymentMethod parses a stored or submitted method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", apperror.NewValidation("unknown payment method").WithDetail("method", s)
	}
	return m, nil
}

// Posting is a computed voucher body.
type Posting struct {
	Type      vouchers.Type
	Narration string
	Entries   []vouchers.EntryInput
}

func newPosting(t vouchers.Type, narration string) *Posting {
	return &Posting{Type: t, Narration: narration}
}

// Debit appends a debit line. Zero amounts are skipped.
func (p *Posting) Debit(account id.ID, amount types.Money, remarks string) {
	amount = types.Round(amount)
	if amount.IsZero() {
		return
	}
	p.Entries = append(p.Entries, vouchers.EntryInput{
		AccountID: account,
		Debit:     amount,
		Credit:    types.Zero(),
		Remarks:   remarks,
	})
}

// Credit appends a credit line. Zero amounts are skipped.
func (p *Posting) Credit(account id.ID, amount types.Money, remarks string) {
	amount = types.Round(amount)
	if amount.IsZero() {
		return
	}
	p.Entries = append(p.Entries, vouchers.EntryInput{
		AccountID: account,
		Debit:     types.Zero(),
		Credit:    amount,
		Remarks:   remarks,
	})
}

// Verify re-checks the balance of the entry set after rounding.
func (p *Posting) Verify() error {
	if p == nil {
		return apperror.NewInternal(fmt.Errorf("nil posting"))
	}
	return vouchers.ValidateEntries(p.Entries)
}

// TotalDebit returns the rounded debit total.
func (p *Posting) TotalDebit() types.Money {
	debit, _ := vouchers.Totals(p.Entries)
	return debit
}

// requireAccount fails with MISSING_ACCOUNT when account is unset.
func requireAccount(account id.ID, role string) error {
	if id.IsNil(account) {
		return apperror.NewMissingAccount(role)
	}
	return nil
}

func nonNegative(name string, amounts ...types.Money) error {
	for _, a := range amounts {
		if a.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("%s must not be negative", name)).
				WithDetail("value", a.String())
		}
	}
	return nil
}

// done verifies p and returns it.
func done(p *Posting) (*Posting, error) {
	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}
