package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesAllFields(t *testing.T) {
	f := Fields{
		InvoiceNumber:     "INV-042",
		Amount:            "1500.00",
		Currency:          "PLN",
		DueDate:           "2026-03-10",
		DaysOverdue:       "7",
		DebtorName:        "Jan Kowalski",
		CompanyName:       "Acme Sp. z o.o.",
		InterestAmount:    "3.31",
		TotalWithInterest: "1503.31",
		PaymentLink:       "https://pay.example/INV-042",
	}

	got := Render(
		"{{debtor_name}}: invoice {{invoice_number}} for {{amount}} {{currency}} was due {{due_date}} "+
			"({{days_overdue}} days ago). Total incl. interest {{interest_amount}}: {{total_with_interest}}. "+
			"Pay at {{payment_link}}. -- {{company_name}}",
		f,
	)

	assert.Equal(t,
		"Jan Kowalski: invoice INV-042 for 1500.00 PLN was due 2026-03-10 "+
			"(7 days ago). Total incl. interest 3.31: 1503.31. "+
			"Pay at https://pay.example/INV-042. -- Acme Sp. z o.o.",
		got,
	)
}

func TestRender_UnknownTokensLeftIntact(t *testing.T) {
	got := Render("Hello {{debtor_name}}, ref {{unknown_token}}", Fields{DebtorName: "Jan"})
	assert.Equal(t, "Hello Jan, ref {{unknown_token}}", got)
}

func TestRender_EmptyTemplate(t *testing.T) {
	assert.Equal(t, "", Render("", Fields{DebtorName: "Jan"}))
}

func TestRender_MissingValuesRenderEmpty(t *testing.T) {
	assert.Equal(t, "link: ", Render("link: {{payment_link}}", Fields{}))
}
