package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shapes returned by the portal service for citizen and admin views. The service owns
// the schemas; only the fields the portal reads are declared.

type Profile struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
}

type ApplicationSummary struct {
	ID              uuid.UUID         `json:"id"`
	ReferenceNumber string            `json:"reference_number"`
	Service         ServiceType       `json:"service"`
	Status          ApplicationStatus `json:"status"`
	AmountDue       decimal.Decimal   `json:"amount_due"`
	Currency        string            `json:"currency"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type TrackingEvent struct {
	Status    ApplicationStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type UploadedDocument struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type AppointmentRequest struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Slot          time.Time `json:"slot"`
	Purpose       string    `json:"purpose" validate:"required,max=200"`
}

type Appointment struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Slot          time.Time `json:"slot"`
	Purpose       string    `json:"purpose"`
	Status        string    `json:"status"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusUpdate struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=submitted under_review additional_info_required approved rejected ready_for_collection"`
	Note   string            `json:"note,omitempty" validate:"max=500"`
}
