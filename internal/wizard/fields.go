package wizard

import "consular/internal/domain"

// Wizard positions. The passport flow has five steps; submission is only possible
// from the last one.
const (
	StepPersonal  = 1
	StepService   = 2
	StepDocuments = 3
	StepPayment   = 4
	StepConsent   = 5

	FirstStep = StepPersonal
	LastStep  = StepConsent
)

var stepTitles = [...]string{
	StepPersonal:  "Personal information",
	StepService:   "Passport details",
	StepDocuments: "Supporting documents",
	StepPayment:   "Payment",
	StepConsent:   "Review and declaration",
}

// StepTitle returns the heading of a step, or "" outside the range.
func StepTitle(step int) string {
	if step < FirstStep || step > LastStep {
		return ""
	}
	return stepTitles[step]
}

type checkFunc func(r *Rules, spec *fieldSpec, v domain.FieldValue, d *domain.ApplicationDraft) string

type fieldSpec struct {
	id    domain.FieldID
	step  int
	label string

	// freeText values are stripped of markup before they enter the draft.
	freeText bool

	// active is nil for unconditional fields.
	active func(d *domain.ApplicationDraft) bool
	check  checkFunc
}

func (f *fieldSpec) isActive(d *domain.ApplicationDraft) bool {
	return f.active == nil || f.active(d)
}

func needsPreviousPassport(d *domain.ApplicationDraft) bool {
	return d.Service.ApplicationReason.NeedsPreviousPassport()
}

func isReplacement(d *domain.ApplicationDraft) bool {
	return d.Service.ApplicationReason == domain.ApplicationReasonReplacement
}

func paysByCard(d *domain.ApplicationDraft) bool {
	return d.Payment.Method.IsCard()
}

// fieldTable lists every field in display order.
var fieldTable = []fieldSpec{
	{id: domain.FieldFirstName, step: StepPersonal, label: "First name", freeText: true, check: checkRequired},
	{id: domain.FieldLastName, step: StepPersonal, label: "Last name", freeText: true, check: checkRequired},
	{id: domain.FieldDateOfBirth, step: StepPersonal, label: "Date of birth", check: checkDateOfBirth},
	{id: domain.FieldPlaceOfBirth, step: StepPersonal, label: "Place of birth", freeText: true, check: checkRequired},
	{id: domain.FieldGender, step: StepPersonal, label: "Gender", check: checkChoice},
	{id: domain.FieldNationality, step: StepPersonal, label: "Nationality", freeText: true, check: checkRequired},
	{id: domain.FieldNationalID, step: StepPersonal, label: "National ID number",
		check: checkPattern("national_id", "National ID must be 5-20 letters, digits or dashes")},
	{id: domain.FieldEmail, step: StepPersonal, label: "Email address",
		check: checkPattern("email", "Please enter a valid email address")},
	{id: domain.FieldPhone, step: StepPersonal, label: "Phone number",
		check: checkPattern("portal_phone", "Please enter a valid phone number")},
	{id: domain.FieldAddress, step: StepPersonal, label: "Address", freeText: true, check: checkRequired},
	{id: domain.FieldCity, step: StepPersonal, label: "City", freeText: true, check: checkRequired},
	{id: domain.FieldPostalCode, step: StepPersonal, label: "Postal code",
		check: checkPattern("postal_code", "Please enter a valid postal code")},
	{id: domain.FieldCountry, step: StepPersonal, label: "Country", freeText: true, check: checkRequired},

	{id: domain.FieldPassportType, step: StepService, label: "Passport type", check: checkChoice},
	{id: domain.FieldApplicationReason, step: StepService, label: "Reason for application", check: checkChoice},
	{id: domain.FieldProcessingSpeed, step: StepService, label: "Processing speed", check: checkChoice},
	{id: domain.FieldPreviousPassportNumber, step: StepService, label: "Previous passport number",
		active: needsPreviousPassport,
		check:  checkPattern("passport_number", "Passport number must be 6-9 letters or digits")},
	{id: domain.FieldPreviousPassportIssueDate, step: StepService, label: "Previous passport issue date",
		active: needsPreviousPassport, check: checkIssueDate},
	{id: domain.FieldReplacementReason, step: StepService, label: "Reason for replacement",
		active: isReplacement, check: checkChoice},

	{id: domain.FieldPhoto, step: StepDocuments, label: "Passport photo", check: checkDocument},
	{id: domain.FieldNationalIDCopy, step: StepDocuments, label: "Copy of national ID", check: checkDocument},
	{id: domain.FieldPreviousPassportCopy, step: StepDocuments, label: "Copy of previous passport",
		active: needsPreviousPassport, check: checkDocument},

	{id: domain.FieldPaymentMethod, step: StepPayment, label: "Payment method", check: checkChoice},
	{id: domain.FieldCardholderName, step: StepPayment, label: "Cardholder name", freeText: true,
		active: paysByCard, check: checkRequired},
	{id: domain.FieldCardNumber, step: StepPayment, label: "Card number",
		active: paysByCard, check: checkPattern("card_number", "Card number must be 16 digits")},
	{id: domain.FieldCardExpiry, step: StepPayment, label: "Expiry date (MM/YY)",
		active: paysByCard, check: checkCardExpiry},
	{id: domain.FieldCardCVV, step: StepPayment, label: "CVV",
		active: paysByCard, check: checkPattern("cvv", "CVV must be 3 or 4 digits")},

	{id: domain.FieldAcceptTerms, step: StepConsent, label: "I accept the terms and conditions",
		check: checkConsent("You must accept the terms and conditions")},
	{id: domain.FieldDeclaration, step: StepConsent, label: "I declare the information provided is true",
		check: checkConsent("You must confirm the declaration")},
}

var fieldIndex = func() map[domain.FieldID]*fieldSpec {
	idx := make(map[domain.FieldID]*fieldSpec, len(fieldTable))
	for i := range fieldTable {
		idx[fieldTable[i].id] = &fieldTable[i]
	}
	return idx
}()

// StepOf returns the step that owns id.
func StepOf(id domain.FieldID) (int, bool) {
	spec, ok := fieldIndex[id]
	if !ok {
		return 0, false
	}
	return spec.step, true
}

// FieldInfo describes a field for renderers.
type FieldInfo struct {
	ID      domain.FieldID `json:"id"`
	Step    int            `json:"step"`
	Label   string         `json:"label"`
	Kind    string         `json:"kind"`
	Choices []string       `json:"choices,omitempty"`
	Active  bool           `json:"active"`
}

// StepFields lists the fields owned by step in display order, with Active evaluated
// against d.
func StepFields(step int, d *domain.ApplicationDraft) []FieldInfo {
	var out []FieldInfo
	for i := range fieldTable {
		spec := &fieldTable[i]
		if spec.step != step {
			continue
		}
		out = append(out, FieldInfo{
			ID:      spec.id,
			Step:    spec.step,
			Label:   spec.label,
			Kind:    spec.id.Kind().String(),
			Choices: domain.Choices[spec.id],
			Active:  spec.isActive(d),
		})
	}
	return out
}
