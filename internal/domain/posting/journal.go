package posting

import (
	"fmt"
	"sort"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/vouchers"
)

// PayrollInput carries a salary payment.
type PayrollInput struct {
	Employee       string
	NetSalary      types.Money
	ExpenseAccount id.ID
	PaymentAccount id.ID
}

// Payroll debits the salary expense and credits the paying account.
func Payroll(in PayrollInput) (*Posting, error) {
	if !in.NetSalary.IsPositive() {
		return nil, apperror.NewValidation("net salary must be positive").
			WithDetail("net_salary", in.NetSalary.String())
	}
	if err := requireAccount(in.ExpenseAccount, "salary_expense"); err != nil {
		return nil, err
	}
	if err := requireAccount(in.PaymentAccount, "salary_payment"); err != nil {
		return nil, err
	}

	p := newPosting(vouchers.TypePayroll, fmt.Sprintf("Payroll for %s", in.Employee))
	p.Debit(in.ExpenseAccount, in.NetSalary, "Payroll expense")
	p.Credit(in.PaymentAccount, in.NetSalary, "Payroll payment")
	return done(p)
}

// SimpleInput is a two-leg posting such as a payment or receipt.
type SimpleInput struct {
	Type          vouchers.Type
	Narration     string
	Amount        types.Money
	DebitAccount  id.ID
	CreditAccount id.ID
}

// Simple debits one account and credits another with the same amount.
func Simple(in SimpleInput) (*Posting, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("amount", in.Amount.String())
	}
	if err := requireAccount(in.DebitAccount, "debit"); err != nil {
		return nil, err
	}
	if err := requireAccount(in.CreditAccount, "credit"); err != nil {
		return nil, err
	}
	if in.DebitAccount == in.CreditAccount {
		return nil, apperror.NewValidation("debit and credit accounts must differ")
	}
	t := in.Type
	if t == "" {
		t = vouchers.TypeJournal
	}

	p := newPosting(t, in.Narration)
	p.Debit(in.DebitAccount, in.Amount, "")
	p.Credit(in.CreditAccount, in.Amount, "")
	return done(p)
}

// AccountBalance is the year's turnover of one account.
type AccountBalance struct {
	AccountID id.ID         `db:"account_id" json:"accountId"`
	Type      accounts.Type `db:"type" json:"type"`
	Debit     types.Money   `db:"debit" json:"debit"`
	Credit    types.Money   `db:"credit" json:"credit"`
}

// YearEndClosing zeroes every income and expense balance into the equity
// account. Other account types are ignored. The net result lands on equity:
// a profit is credited, a loss debited.
func YearEndClosing(yearName string, equityAccount id.ID, balances []AccountBalance) (*Posting, error) {
	if err := requireAccount(equityAccount, "equity"); err != nil {
		return nil, err
	}

	sorted := make([]AccountBalance, len(balances))
	copy(sorted, balances)
	sort.Slice(sorted, func(i, j int) bool {
		return id.Less(sorted[i].AccountID, sorted[j].AccountID)
	})

	p := newPosting(vouchers.TypeJournal, fmt.Sprintf("Year-end closing %s", yearName))
	net := types.Zero() // debit minus credit moved out of P&L accounts
	for _, b := range sorted {
		if b.Type != accounts.TypeIncome && b.Type != accounts.TypeExpense {
			continue
		}
		diff := types.Round(b.Debit.Sub(b.Credit))
		switch {
		case diff.IsPositive():
			p.Credit(b.AccountID, diff, "Closing")
		case diff.IsNegative():
			p.Debit(b.AccountID, diff.Neg(), "Closing")
		}
		net = net.Add(diff)
	}

	// net < 0 means income exceeded expense.
	switch {
	case net.IsNegative():
		p.Credit(equityAccount, net.Neg(), "Net profit")
	case net.IsPositive():
		p.Debit(equityAccount, net, "Net loss")
	}

	if len(p.Entries) == 0 {
		return p, nil
	}
	return done(p)
}
