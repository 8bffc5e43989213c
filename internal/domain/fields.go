package domain

import (
	"fmt"

	"consular/pkg/errors"
)

// FieldID is the closed set of wizard fields.
type FieldID string

const (
	// Identity and contact
	FieldFirstName    FieldID = "first_name"
	FieldLastName     FieldID = "last_name"
	FieldDateOfBirth  FieldID = "date_of_birth"
	FieldPlaceOfBirth FieldID = "place_of_birth"
	FieldGender       FieldID = "gender"
	FieldNationality  FieldID = "nationality"
	FieldNationalID   FieldID = "national_id"
	FieldEmail        FieldID = "email"
	FieldPhone        FieldID = "phone"
	FieldAddress      FieldID = "address"
	FieldCity         FieldID = "city"
	FieldPostalCode   FieldID = "postal_code"
	FieldCountry      FieldID = "country"

	// Service selection
	FieldPassportType              FieldID = "passport_type"
	FieldApplicationReason         FieldID = "application_reason"
	FieldProcessingSpeed           FieldID = "processing_speed"
	FieldPreviousPassportNumber    FieldID = "previous_passport_number"
	FieldPreviousPassportIssueDate FieldID = "previous_passport_issue_date"
	FieldReplacementReason         FieldID = "replacement_reason"

	// Documents
	FieldPhoto                FieldID = "photo"
	FieldNationalIDCopy       FieldID = "national_id_copy"
	FieldPreviousPassportCopy FieldID = "previous_passport_copy"

	// Payment
	FieldPaymentMethod  FieldID = "payment_method"
	FieldCardholderName FieldID = "cardholder_name"
	FieldCardNumber     FieldID = "card_number"
	FieldCardExpiry     FieldID = "card_expiry"
	FieldCardCVV        FieldID = "card_cvv"

	// Consent
	FieldAcceptTerms FieldID = "accept_terms"
	FieldDeclaration FieldID = "declaration"
)

// ValueKind tags the FieldValue variant a field accepts.
type ValueKind int

const (
	KindText ValueKind = iota + 1
	KindFlag
	KindFile
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFlag:
		return "flag"
	case KindFile:
		return "file"
	}
	return "unknown"
}

var fieldKinds = map[FieldID]ValueKind{
	FieldFirstName: KindText, FieldLastName: KindText, FieldDateOfBirth: KindText,
	FieldPlaceOfBirth: KindText, FieldGender: KindText, FieldNationality: KindText,
	FieldNationalID: KindText, FieldEmail: KindText, FieldPhone: KindText,
	FieldAddress: KindText, FieldCity: KindText, FieldPostalCode: KindText,
	FieldCountry: KindText,

	FieldPassportType: KindText, FieldApplicationReason: KindText, FieldProcessingSpeed: KindText,
	FieldPreviousPassportNumber: KindText, FieldPreviousPassportIssueDate: KindText,
	FieldReplacementReason: KindText,

	FieldPhoto: KindFile, FieldNationalIDCopy: KindFile, FieldPreviousPassportCopy: KindFile,

	FieldPaymentMethod: KindText, FieldCardholderName: KindText, FieldCardNumber: KindText,
	FieldCardExpiry: KindText, FieldCardCVV: KindText,

	FieldAcceptTerms: KindFlag, FieldDeclaration: KindFlag,
}

// ParseFieldID resolves a wire name to a FieldID.
func ParseFieldID(name string) (FieldID, error) {
	id := FieldID(name)
	if _, ok := fieldKinds[id]; !ok {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownField, name)
	}
	return id, nil
}

// Kind returns the value variant the field accepts, or 0 for unknown fields.
func (id FieldID) Kind() ValueKind {
	return fieldKinds[id]
}

// FieldValue is a tagged union of the three input shapes a field can take.
type FieldValue struct {
	Kind ValueKind
	Text string
	Flag bool
	File *FileRef
}

func Text(s string) FieldValue   { return FieldValue{Kind: KindText, Text: s} }
func Flag(b bool) FieldValue     { return FieldValue{Kind: KindFlag, Flag: b} }
func File(f *FileRef) FieldValue { return FieldValue{Kind: KindFile, File: f} }

// Set assigns v to the field id. The value kind must match the field.
func (d *ApplicationDraft) Set(id FieldID, v FieldValue) error {
	want := id.Kind()
	if want == 0 {
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, id)
	}
	if v.Kind != want {
		return fmt.Errorf("%w: %s expects %s, got %s", errors.ErrInvalidFieldValue, id, want, v.Kind)
	}

	switch id {
	case FieldFirstName:
		d.Personal.FirstName = v.Text
	case FieldLastName:
		d.Personal.LastName = v.Text
	case FieldDateOfBirth:
		d.Personal.DateOfBirth = v.Text
	case FieldPlaceOfBirth:
		d.Personal.PlaceOfBirth = v.Text
	case FieldGender:
		d.Personal.Gender = Gender(v.Text)
	case FieldNationality:
		d.Personal.Nationality = v.Text
	case FieldNationalID:
		d.Personal.NationalID = v.Text
	case FieldEmail:
		d.Personal.Email = v.Text
	case FieldPhone:
		d.Personal.Phone = v.Text
	case FieldAddress:
		d.Personal.Address = v.Text
	case FieldCity:
		d.Personal.City = v.Text
	case FieldPostalCode:
		d.Personal.PostalCode = v.Text
	case FieldCountry:
		d.Personal.Country = v.Text

	case FieldPassportType:
		d.Service.PassportType = PassportType(v.Text)
	case FieldApplicationReason:
		d.Service.ApplicationReason = ApplicationReason(v.Text)
	case FieldProcessingSpeed:
		d.Service.ProcessingSpeed = ProcessingSpeed(v.Text)
	case FieldPreviousPassportNumber:
		d.Service.PreviousPassportNumber = v.Text
	case FieldPreviousPassportIssueDate:
		d.Service.PreviousPassportIssueDate = v.Text
	case FieldReplacementReason:
		d.Service.ReplacementReason = ReplacementReason(v.Text)

	case FieldPhoto:
		d.Documents.Photo = v.File
	case FieldNationalIDCopy:
		d.Documents.NationalIDCopy = v.File
	case FieldPreviousPassportCopy:
		d.Documents.PreviousPassportCopy = v.File

	case FieldPaymentMethod:
		d.Payment.Method = PaymentMethod(v.Text)
	case FieldCardholderName:
		d.Payment.CardholderName = v.Text
	case FieldCardNumber:
		d.Payment.CardNumber = v.Text
	case FieldCardExpiry:
		d.Payment.CardExpiry = v.Text
	case FieldCardCVV:
		d.Payment.CardCVV = v.Text

	case FieldAcceptTerms:
		d.Consent.AcceptTerms = v.Flag
	case FieldDeclaration:
		d.Consent.Declaration = v.Flag
	}
	return nil
}

// Get returns the current value of id. Unknown fields yield the zero FieldValue.
func (d *ApplicationDraft) Get(id FieldID) FieldValue {
	switch id {
	case FieldFirstName:
		return Text(d.Personal.FirstName)
	case FieldLastName:
		return Text(d.Personal.LastName)
	case FieldDateOfBirth:
		return Text(d.Personal.DateOfBirth)
	case FieldPlaceOfBirth:
		return Text(d.Personal.PlaceOfBirth)
	case FieldGender:
		return Text(string(d.Personal.Gender))
	case FieldNationality:
		return Text(d.Personal.Nationality)
	case FieldNationalID:
		return Text(d.Personal.NationalID)
	case FieldEmail:
		return Text(d.Personal.Email)
	case FieldPhone:
		return Text(d.Personal.Phone)
	case FieldAddress:
		return Text(d.Personal.Address)
	case FieldCity:
		return Text(d.Personal.City)
	case FieldPostalCode:
		return Text(d.Personal.PostalCode)
	case FieldCountry:
		return Text(d.Personal.Country)

	case FieldPassportType:
		return Text(string(d.Service.PassportType))
	case FieldApplicationReason:
		return Text(string(d.Service.ApplicationReason))
	case FieldProcessingSpeed:
		return Text(string(d.Service.ProcessingSpeed))
	case FieldPreviousPassportNumber:
		return Text(d.Service.PreviousPassportNumber)
	case FieldPreviousPassportIssueDate:
		return Text(d.Service.PreviousPassportIssueDate)
	case FieldReplacementReason:
		return Text(string(d.Service.ReplacementReason))

	case FieldPhoto:
		return File(d.Documents.Photo)
	case FieldNationalIDCopy:
		return File(d.Documents.NationalIDCopy)
	case FieldPreviousPassportCopy:
		return File(d.Documents.PreviousPassportCopy)

	case FieldPaymentMethod:
		return Text(string(d.Payment.Method))
	case FieldCardholderName:
		return Text(d.Payment.CardholderName)
	case FieldCardNumber:
		return Text(d.Payment.CardNumber)
	case FieldCardExpiry:
		return Text(d.Payment.CardExpiry)
	case FieldCardCVV:
		return Text(d.Payment.CardCVV)

	case FieldAcceptTerms:
		return Flag(d.Consent.AcceptTerms)
	case FieldDeclaration:
		return Flag(d.Consent.Declaration)
	}
	return FieldValue{}
}
