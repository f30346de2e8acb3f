// Package render substitutes named placeholders into reminder templates.
package render

import "strings"

// Fields is the placeholder vocabulary available to template authors.
// Keys map to `{{name}}` tokens; unknown tokens are left intact so a
// typo in a template is visible in the delivered message rather than
// silently swallowed.
type Fields struct {
	InvoiceNumber     string
	Amount            string
	Currency          string
	DueDate           string
	DaysOverdue       string
	DebtorName        string
	CompanyName       string
	InterestAmount    string
	TotalWithInterest string
	PaymentLink       string
}

func (f Fields) pairs() []string {
	return []string{
		"{{invoice_number}}", f.InvoiceNumber,
		"{{amount}}", f.Amount,
		"{{currency}}", f.Currency,
		"{{due_date}}", f.DueDate,
		"{{days_overdue}}", f.DaysOverdue,
		"{{debtor_name}}", f.DebtorName,
		"{{company_name}}", f.CompanyName,
		"{{interest_amount}}", f.InterestAmount,
		"{{total_with_interest}}", f.TotalWithInterest,
		"{{payment_link}}", f.PaymentLink,
	}
}

// Render substitutes all recognized placeholders in tpl.
func Render(tpl string, f Fields) string {
	if tpl == "" {
		return ""
	}
	return strings.NewReplacer(f.pairs()...).Replace(tpl)
}
