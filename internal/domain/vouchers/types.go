package vouchers

// Type is the voucher category code.
type Type string

const (
	TypePurchase       Type = "PUR"
	TypeSale           Type = "SAL"
	TypePurchaseReturn Type = "PRN"
	TypeSaleReturn     Type = "SRN"
	TypePayment        Type = "PMT"
	TypeReceipt        Type = "RCV"
	TypeJournal        Type = "JRN"
	TypeCreditNote     Type = "CN"
	TypeDebitNote      Type = "DN"
	TypeExpense        Type = "EXP"
	TypePayroll        Type = "PAYR"
)

// TypeInfo is a row of the voucher type registry.
type TypeInfo struct {
	Code Type   `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// registry is the fixed set of voucher types. It is written to storage once
// at startup by Engine.EnsureTypes and never changes at runtime.
var registry = []TypeInfo{
	{TypePurchase, "Purchase"},
	{TypeSale, "Sale"},
	{TypePurchaseReturn, "Purchase Return"},
	{TypeSaleReturn, "Sale Return"},
	{TypePayment, "Payment"},
	{TypeReceipt, "Receipt"},
	{TypeJournal, "Journal"},
	{TypeCreditNote, "Credit Note"},
	{TypeDebitNote, "Debit Note"},
	{TypeExpense, "Expense"},
	{TypePayroll, "Payroll"},
}

// Types returns a copy of the registry.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(registry))
	copy(out, registry)
	return out
}

// Valid reports whether t is registered.
func (t Type) Valid() bool {
	for _, info := range registry {
		if info.Code == t {
			return true
		}
	}
	return false
}

// Name returns the display name of t.
func (t Type) Name() string {
	for _, info := range registry {
		if info.Code == t {
			return info.Name
		}
	}
	return string(t)
}
