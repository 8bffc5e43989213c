// Package wizard implements the multi-step passport application: per-field rules,
// whole-step validation, gated navigation and submission.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"consular/internal/domain"
	"consular/pkg/validator"
)

const (
	dateLayout = "2006-01-02"

	minApplicantAge = 18
	maxApplicantAge = 120

	// DefaultMaxDocumentBytes caps each uploaded document.
	DefaultMaxDocumentBytes int64 = 5 << 20
)

var defaultDocumentExtensions = []string{"jpg", "jpeg", "png", "pdf"}

// ErrorMap maps a field to its current message. Valid fields are absent.
type ErrorMap map[domain.FieldID]string

func (m ErrorMap) clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StepResult is the outcome of validating a whole step. Errors holds every failing
// field, not just the first.
type StepResult struct {
	Valid  bool     `json:"valid"`
	Errors ErrorMap `json:"errors,omitempty"`
}

// Rules evaluates field rules against a draft. It holds no session state and is safe
// to share.
type Rules struct {
	validate         *validator.Validator
	now              func() time.Time
	maxDocumentBytes int64
	extensions       map[string]bool
}

type Option func(*Rules)

// WithClock fixes "today" for date rules.
func WithClock(now func() time.Time) Option {
	return func(r *Rules) { r.now = now }
}

func WithMaxDocumentBytes(n int64) Option {
	return func(r *Rules) {
		if n > 0 {
			r.maxDocumentBytes = n
		}
	}
}

func NewRules(v *validator.Validator, opts ...Option) *Rules {
	if v == nil {
		v = validator.New()
	}
	r := &Rules{
		validate:         v,
		now:              time.Now,
		maxDocumentBytes: DefaultMaxDocumentBytes,
		extensions:       make(map[string]bool, len(defaultDocumentExtensions)),
	}
	for _, ext := range defaultDocumentExtensions {
		r.extensions[ext] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now is the clock the rules evaluate dates against.
func (r *Rules) Now() time.Time {
	return r.now()
}

// ValidateField checks value for id as if it were already in the draft. The draft is
// not modified. Inactive conditional fields always pass.
func (r *Rules) ValidateField(id domain.FieldID, value domain.FieldValue, draft *domain.ApplicationDraft) string {
	spec, ok := fieldIndex[id]
	if !ok {
		return "Unknown field"
	}

	candidate := domain.ApplicationDraft{}
	if draft != nil {
		candidate = *draft
	}
	if err := candidate.Set(id, r.Normalize(id, value)); err != nil {
		return "Invalid value"
	}
	return r.check(spec, &candidate)
}

// ValidateStep runs every active field of step and collects all failures.
func (r *Rules) ValidateStep(step int, draft *domain.ApplicationDraft) StepResult {
	errs := make(ErrorMap)
	for i := range fieldTable {
		spec := &fieldTable[i]
		if spec.step != step {
			continue
		}
		if msg := r.check(spec, draft); msg != "" {
			errs[spec.id] = msg
		}
	}
	return StepResult{Valid: len(errs) == 0, Errors: errs}
}

// Normalize strips markup from free-text values.
func (r *Rules) Normalize(id domain.FieldID, value domain.FieldValue) domain.FieldValue {
	spec, ok := fieldIndex[id]
	if !ok || !spec.freeText || value.Kind != domain.KindText {
		return value
	}
	value.Text = r.validate.Sanitize(value.Text)
	return value
}

func (r *Rules) check(spec *fieldSpec, d *domain.ApplicationDraft) string {
	if !spec.isActive(d) {
		return ""
	}
	return spec.check(r, spec, d.Get(spec.id), d)
}

func (r *Rules) today() time.Time {
	y, m, day := r.now().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// ==============================================================================
// FIELD CHECKS
// ==============================================================================

func checkRequired(_ *Rules, spec *fieldSpec, v domain.FieldValue, _ *domain.ApplicationDraft) string {
	if strings.TrimSpace(v.Text) == "" {
		return spec.label + " is required"
	}
	return ""
}

func checkPattern(tag, message string) checkFunc {
	return func(r *Rules, spec *fieldSpec, v domain.FieldValue, d *domain.ApplicationDraft) string {
		if msg := checkRequired(r, spec, v, d); msg != "" {
			return msg
		}
		if !r.validate.Matches(strings.TrimSpace(v.Text), tag) {
			return message
		}
		return ""
	}
}

func checkChoice(_ *Rules, spec *fieldSpec, v domain.FieldValue, _ *domain.ApplicationDraft) string {
	value := strings.TrimSpace(v.Text)
	if value == "" {
		return "Please select " + strings.ToLower(spec.label)
	}
	for _, choice := range domain.Choices[spec.id] {
		if value == choice {
			return ""
		}
	}
	return fmt.Sprintf("%s must be one of: %s", spec.label, strings.Join(domain.Choices[spec.id], ", "))
}

func checkDateOfBirth(r *Rules, spec *fieldSpec, v domain.FieldValue, d *domain.ApplicationDraft) string {
	if msg := checkRequired(r, spec, v, d); msg != "" {
		return msg
	}
	dob, err := time.Parse(dateLayout, strings.TrimSpace(v.Text))
	if err != nil {
		return "Please enter a valid date (YYYY-MM-DD)"
	}

	today := r.today()
	if dob.After(today) {
		return "Date of birth cannot be in the future"
	}

	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	switch {
	case age < minApplicantAge:
		return fmt.Sprintf("Applicant must be at least %d years old", minApplicantAge)
	case age > maxApplicantAge:
		return "Please enter a realistic date of birth"
	}
	return ""
}

func checkIssueDate(r *Rules, spec *fieldSpec, v domain.FieldValue, d *domain.ApplicationDraft) string {
	if msg := checkRequired(r, spec, v, d); msg != "" {
		return msg
	}
	issued, err := time.Parse(dateLayout, strings.TrimSpace(v.Text))
	if err != nil {
		return "Please enter a valid date (YYYY-MM-DD)"
	}
	if issued.After(r.today()) {
		return "Issue date cannot be in the future"
	}
	return ""
}

// checkCardExpiry accepts MM/YY in the current month or later.
func checkCardExpiry(r *Rules, spec *fieldSpec, v domain.FieldValue, d *domain.ApplicationDraft) string {
	if msg := checkPattern("card_expiry", "Expiry date must be in MM/YY format")(r, spec, v, d); msg != "" {
		return msg
	}
	parts := strings.SplitN(strings.TrimSpace(v.Text), "/", 2)
	month, _ := strconv.Atoi(parts[0])
	year, _ := strconv.Atoi(parts[1])
	year += 2000

	today := r.today()
	if year < today.Year() || (year == today.Year() && time.Month(month) < today.Month()) {
		return "Card has expired"
	}
	return ""
}

func checkDocument(r *Rules, spec *fieldSpec, v domain.FieldValue, _ *domain.ApplicationDraft) string {
	ref := v.File
	if ref == nil {
		return spec.label + " is required"
	}
	if ref.Size > r.maxDocumentBytes {
		return "File must be " + formatBytes(r.maxDocumentBytes) + " or smaller"
	}
	if !r.extensions[ref.Ext()] {
		return "File must be a JPG, PNG or PDF"
	}
	return ""
}

func checkConsent(message string) checkFunc {
	return func(_ *Rules, _ *fieldSpec, v domain.FieldValue, _ *domain.ApplicationDraft) string {
		if !v.Flag {
			return message
		}
		return ""
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
