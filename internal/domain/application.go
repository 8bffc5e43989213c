// Package domain defines the consular application entities shared by the wizard,
// the gateway client and the HTTP surface.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==============================================================================
// ENUMS
// ==============================================================================

// ServiceType identifies a consular service with its own submission endpoint.
type ServiceType string

const (
	ServiceTypePassport                   ServiceType = "passport"
	ServiceTypeAttestation                ServiceType = "attestation"
	ServiceTypeNoObjectionLetter          ServiceType = "no_objection_letter"
	ServiceTypeEmergencyTravelCertificate ServiceType = "emergency_travel_certificate"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type PassportType string

const (
	PassportTypeOrdinary   PassportType = "ordinary"
	PassportTypeOfficial   PassportType = "official"
	PassportTypeDiplomatic PassportType = "diplomatic"
)

// ApplicationReason decides whether previous-passport details are required.
type ApplicationReason string

const (
	ApplicationReasonNew         ApplicationReason = "new"
	ApplicationReasonRenewal     ApplicationReason = "renewal"
	ApplicationReasonReplacement ApplicationReason = "replacement"
)

// NeedsPreviousPassport is true for renewals and replacements.
func (r ApplicationReason) NeedsPreviousPassport() bool {
	return r == ApplicationReasonRenewal || r == ApplicationReasonReplacement
}

type ReplacementReason string

const (
	ReplacementReasonLost    ReplacementReason = "lost"
	ReplacementReasonStolen  ReplacementReason = "stolen"
	ReplacementReasonDamaged ReplacementReason = "damaged"
)

type ProcessingSpeed string

const (
	ProcessingSpeedNormal    ProcessingSpeed = "normal"
	ProcessingSpeedUrgent    ProcessingSpeed = "urgent"
	ProcessingSpeedFastTrack ProcessingSpeed = "fast_track"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodAtEmbassy    PaymentMethod = "pay_at_embassy"
)

// IsCard reports whether the method needs card details.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// ApplicationStatus is the lifecycle state reported by the portal service.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusUnderReview        ApplicationStatus = "under_review"
	ApplicationStatusAdditionalInfo     ApplicationStatus = "additional_info_required"
	ApplicationStatusApproved           ApplicationStatus = "approved"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
	ApplicationStatusReadyForCollection ApplicationStatus = "ready_for_collection"
)

// Choices lists the accepted values for every choice field, in display order.
var Choices = map[FieldID][]string{
	FieldGender:            {string(GenderMale), string(GenderFemale), string(GenderOther)},
	FieldPassportType:      {string(PassportTypeOrdinary), string(PassportTypeOfficial), string(PassportTypeDiplomatic)},
	FieldApplicationReason: {string(ApplicationReasonNew), string(ApplicationReasonRenewal), string(ApplicationReasonReplacement)},
	FieldReplacementReason: {string(ReplacementReasonLost), string(ReplacementReasonStolen), string(ReplacementReasonDamaged)},
	FieldProcessingSpeed:   {string(ProcessingSpeedNormal), string(ProcessingSpeedUrgent), string(ProcessingSpeedFastTrack)},
	FieldPaymentMethod: {
		string(PaymentMethodCreditCard), string(PaymentMethodDebitCard),
		string(PaymentMethodBankTransfer), string(PaymentMethodAtEmbassy),
	},
}

// ==============================================================================
// DRAFT
// ==============================================================================

type PersonalInfo struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth"`
	PlaceOfBirth string `json:"place_of_birth"`
	Gender       Gender `json:"gender"`
	Nationality  string `json:"nationality"`
	NationalID   string `json:"national_id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type ServiceDetails struct {
	PassportType              PassportType      `json:"passport_type"`
	ApplicationReason         ApplicationReason `json:"application_reason"`
	ProcessingSpeed           ProcessingSpeed   `json:"processing_speed"`
	PreviousPassportNumber    string            `json:"previous_passport_number,omitempty"`
	PreviousPassportIssueDate string            `json:"previous_passport_issue_date,omitempty"`
	ReplacementReason         ReplacementReason `json:"replacement_reason,omitempty"`
}

type DocumentSet struct {
	Photo                *FileRef `json:"photo,omitempty"`
	NationalIDCopy       *FileRef `json:"national_id_copy,omitempty"`
	PreviousPassportCopy *FileRef `json:"previous_passport_copy,omitempty"`
}

// PaymentDetails carries card data only for card-based methods; it is never
// serialised into the submission as-is.
type PaymentDetails struct {
	Method         PaymentMethod `json:"payment_method"`
	CardholderName string        `json:"-"`
	CardNumber     string        `json:"-"`
	CardExpiry     string        `json:"-"`
	CardCVV        string        `json:"-"`
}

type Consent struct {
	AcceptTerms bool `json:"accept_terms"`
	Declaration bool `json:"declaration"`
}

// ApplicationDraft holds every wizard field across all steps. It is created empty
// and only mutated through Set.
type ApplicationDraft struct {
	Personal  PersonalInfo   `json:"personal"`
	Service   ServiceDetails `json:"service"`
	Documents DocumentSet    `json:"documents"`
	Payment   PaymentDetails `json:"payment"`
	Consent   Consent        `json:"consent"`
}

// SubmissionReceipt is what the portal service returns for an accepted application.
type SubmissionReceipt struct {
	ApplicationID   uuid.UUID         `json:"application_id"`
	ReferenceNumber string            `json:"reference_number"`
	Service         ServiceType       `json:"service"`
	Status          ApplicationStatus `json:"status"`
	AmountDue       decimal.Decimal   `json:"amount_due"`
	Currency        string            `json:"currency"`
	SubmittedAt     time.Time         `json:"submitted_at"`
}
