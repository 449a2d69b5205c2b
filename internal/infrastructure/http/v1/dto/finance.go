package dto

import (
	"erpcore/internal/core/types"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/payroll"
)

// CreateYearRequest is the body of POST /financial-years.
type CreateYearRequest struct {
	Name      string `json:"name" validate:"required,max=32"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
}

// ToInput converts the request to service input.
func (r CreateYearRequest) ToInput() finance.CreateYearInput {
	return finance.CreateYearInput{Name: r.Name, StartDate: r.StartDate.Time, EndDate: r.EndDate.Time}
}

// CloseYearRequest is the body of POST /financial-years/:id/close.
type CloseYearRequest struct {
	EquityCode string `json:"equityCode" validate:"max=32"`
	OpenNext   bool   `json:"openNext"`
}

// PayrollRequest is the body of POST /payroll.
type PayrollRequest struct {
	Employee    string      `json:"employee" validate:"required,max=200"`
	NetSalary   types.Money `json:"netSalary" validate:"positive_decimal"`
	ExpenseCode string      `json:"expenseCode" validate:"max=32"`
	PaymentCode string      `json:"paymentCode" validate:"max=32"`
	Date        Date        `json:"date"`
}

// ToInput converts the request to service input.
func (r PayrollRequest) ToInput(pc finance.PostingContext) payroll.PayrollInput {
	return payroll.PayrollInput{
		Employee:       r.Employee,
		NetSalary:      r.NetSalary,
		ExpenseCode:    r.ExpenseCode,
		PaymentCode:    r.PaymentCode,
		Date:           r.Date.Time,
		PostingContext: pc,
	}
}
