package accounts

// Default is a seed row of the default chart of accounts.
type Default struct {
	Code string
	Name string
	Type Type
}

// Well-known codes referenced by posting defaults.
const (
	CodeCash             = "1001"
	CodeBank             = "1002"
	CodeReceivable       = "1003"
	CodeInventory        = "1004"
	CodeTaxReceivable    = "1300"
	CodePayable          = "2001"
	CodeLoans            = "2002"
	CodeTaxPayable       = "2100"
	CodeOwnersCapital    = "3001"
	CodeRetainedEarnings = "3002"
	CodeSalesRevenue     = "4001"
	CodeServiceIncome    = "4002"
	CodeSalesReturns     = "4101"
	CodePurchase         = "5001"
	CodeSalaries         = "5002"
	CodeRent             = "5003"
	CodeUtilities        = "5004"
	CodePurchaseReturns  = "5101"
)

// DefaultChart is the chart seeded on a fresh ledger.
var DefaultChart = []Default{
	{CodeCash, "Cash", TypeAsset},
	{CodeBank, "Bank", TypeAsset},
	{CodeReceivable, "Accounts Receivable", TypeAsset},
	{CodeInventory, "Inventory", TypeAsset},
	{CodeTaxReceivable, "Tax Receivable", TypeAsset},
	{CodePayable, "Accounts Payable", TypeLiability},
	{CodeLoans, "Loans", TypeLiability},
	{CodeTaxPayable, "Tax Payable", TypeLiability},
	{CodeOwnersCapital, "Owner's Capital", TypeEquity},
	{CodeRetainedEarnings, "Retained Earnings", TypeEquity},
	{CodeSalesRevenue, "Sales Revenue", TypeIncome},
	{CodeServiceIncome, "Service Income", TypeIncome},
	{CodeSalesReturns, "Sales Returns", TypeIncome},
	{CodePurchase, "Purchase", TypeExpense},
	{CodeSalaries, "Salaries", TypeExpense},
	{CodeRent, "Rent", TypeExpense},
	{CodeUtilities, "Utilities", TypeExpense},
	{CodePurchaseReturns, "Purchase Returns", TypeExpense},
}
