package wizard

import (
	"strings"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"

	"github.com/shopspring/decimal"
)

type paymentSummary struct {
	Method         domain.PaymentMethod `json:"method"`
	CardholderName string               `json:"cardholder_name,omitempty"`
	CardLast4      string               `json:"card_last4,omitempty"`
}

type feeSummary struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ProcessingDays int             `json:"processing_days"`
}

type submission struct {
	Service  domain.ServiceType    `json:"service"`
	Personal domain.PersonalInfo   `json:"personal"`
	Details  domain.ServiceDetails `json:"details"`
	Payment  paymentSummary        `json:"payment"`
	Consent  domain.Consent        `json:"consent"`
	Fee      *feeSummary           `json:"fee,omitempty"`
}

// BuildSubmission assembles the multipart payload for a validated draft: an
// "application" JSON part, the fee, and one file part per required document.
// Values of inactive conditional fields are left out, and card data is reduced to
// the holder name and last four digits.
func BuildSubmission(d *domain.ApplicationDraft, quote *catalog.Quote) (*apiclient.Multipart, error) {
	details := d.Service
	if !needsPreviousPassport(d) {
		details.PreviousPassportNumber = ""
		details.PreviousPassportIssueDate = ""
	}
	if !isReplacement(d) {
		details.ReplacementReason = ""
	}

	app := submission{
		Service:  domain.ServiceTypePassport,
		Personal: d.Personal,
		Details:  details,
		Payment:  paymentSummary{Method: d.Payment.Method},
		Consent:  d.Consent,
	}
	if paysByCard(d) {
		app.Payment.CardholderName = d.Payment.CardholderName
		app.Payment.CardLast4 = lastDigits(d.Payment.CardNumber, 4)
	}

	if quote != nil {
		app.Fee = &feeSummary{Amount: quote.Amount, Currency: quote.Currency, ProcessingDays: quote.ProcessingDays}
	}

	b := apiclient.NewMultipartBuilder().JSON("application", app)
	if quote != nil {
		b.Field("fee_amount", quote.Amount.StringFixed(2)).
			Field("fee_currency", quote.Currency)
	}
	b.File(string(domain.FieldPhoto), d.Documents.Photo).
		File(string(domain.FieldNationalIDCopy), d.Documents.NationalIDCopy)
	if needsPreviousPassport(d) {
		b.File(string(domain.FieldPreviousPassportCopy), d.Documents.PreviousPassportCopy)
	}
	return b.Build()
}

func lastDigits(s string, n int) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}
