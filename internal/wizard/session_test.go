package wizard

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"
	"consular/pkg/errors"
)

func TestSession_StartsEmptyOnFirstStep(t *testing.T) {
	s := NewSession(testRules(), nil)

	assert.NotEqual(t, uuid.Nil, s.ID())
	assert.Equal(t, FirstStep, s.Position())
	assert.Equal(t, StateActive, s.State())
	assert.Empty(t, s.VisibleErrors())
	assert.Equal(t, domain.Text(""), s.Value(domain.FieldFirstName))
}

func TestSession_AdvanceRejectsInvalidStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	_, err := s.OnFieldChange(domain.FieldFirstName, domain.Text("Amina"))
	require.NoError(t, err)

	pos, res, err := s.Advance()

	require.NoError(t, err)
	assert.Equal(t, StepPersonal, pos)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 12)
	assert.NotContains(t, res.Errors, domain.FieldFirstName)

	// every failing field is now touched, so every error is visible
	visible := s.VisibleErrors()
	assert.Equal(t, res.Errors, visible)
	assert.True(t, s.Touched(domain.FieldCountry))
}

func TestSession_AdvanceAndRetreat(t *testing.T) {
	s := NewSession(testRules(), nil)
	fill(t, s, validPersonal)

	pos, res, err := s.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, StepService, pos)

	// retreat never validates, even with an empty current step
	pos, err = s.Retreat()
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, pos)

	pos, err = s.Retreat()
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, pos, "floored at the first step")
}

func TestSession_RetreatFromInvalidStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	fill(t, s, validPersonal)
	advanceOK(t, s)

	_, res, err := s.Advance()
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, StepService, s.Position())

	pos, err := s.Retreat()
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, pos)
}

func TestSession_AdvanceClampsAtLastStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	toFinalStep(t, s)
	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldAcceptTerms: domain.Flag(true),
		domain.FieldDeclaration: domain.Flag(true),
	})

	pos, res, err := s.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, LastStep, pos)
	assert.Equal(t, StateActive, s.State(), "only Submit reaches the terminal state")
}

func TestSession_OnFieldChangeOnlyCurrentStep(t *testing.T) {
	s := NewSession(testRules(), nil)

	_, err := s.OnFieldChange(domain.FieldPaymentMethod, domain.Text("credit_card"))
	assert.ErrorIs(t, err, errors.ErrFieldNotOnStep)
	assert.Equal(t, domain.Text(""), s.Value(domain.FieldPaymentMethod))
	assert.False(t, s.Touched(domain.FieldPaymentMethod))

	_, err = s.OnFieldChange("shoe_size", domain.Text("42"))
	assert.ErrorIs(t, err, errors.ErrUnknownField)

	_, err = s.OnFieldChange(domain.FieldFirstName, domain.Flag(true))
	assert.ErrorIs(t, err, errors.ErrInvalidFieldValue)
}

func TestSession_OnFieldChangeValidatesOnlyThatField(t *testing.T) {
	s := NewSession(testRules(), nil)

	msg, err := s.OnFieldChange(domain.FieldEmail, domain.Text("not-an-email"))
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Equal(t, ErrorMap{domain.FieldEmail: msg}, s.VisibleErrors())

	msg, err = s.OnFieldChange(domain.FieldFirstName, domain.Text("Amina"))
	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Contains(t, s.VisibleErrors(), domain.FieldEmail, "unrelated edit keeps other errors")

	msg, err = s.OnFieldChange(domain.FieldEmail, domain.Text("amina@example.org"))
	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Empty(t, s.VisibleErrors())
}

func TestSession_StaleCrossFieldErrorKept(t *testing.T) {
	s := NewSession(testRules(), nil)
	fill(t, s, validPersonal)
	advanceOK(t, s)
	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldPassportType:      domain.Text("ordinary"),
		domain.FieldApplicationReason: domain.Text("new"),
		domain.FieldProcessingSpeed:   domain.Text("normal"),
	})
	advanceOK(t, s)
	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldPhoto:          domain.File(jpeg("p.jpg")),
		domain.FieldNationalIDCopy: domain.File(jpeg("i.jpg")),
	})
	advanceOK(t, s)

	_, err := s.OnFieldChange(domain.FieldPaymentMethod, domain.Text("credit_card"))
	require.NoError(t, err)
	expiryMsg, err := s.OnFieldChange(domain.FieldCardExpiry, domain.Text("01/20"))
	require.NoError(t, err)
	require.NotEmpty(t, expiryMsg)

	_, err = s.OnFieldChange(domain.FieldPaymentMethod, domain.Text("bank_transfer"))
	require.NoError(t, err)
	assert.Equal(t, expiryMsg, s.VisibleErrors()[domain.FieldCardExpiry],
		"changing the method does not revalidate the expiry field")

	// the step gate sees card fields as inactive and clears the stale error
	pos, res, err := s.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, StepConsent, pos)
	assert.Empty(t, s.VisibleErrors())
}

func TestSession_SubmitSuccess(t *testing.T) {
	s := NewSession(testRules(), catalog.Default())
	toFinalStep(t, s)
	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldAcceptTerms: domain.Flag(true),
		domain.FieldDeclaration: domain.Flag(true),
	})

	sub := &fakeSubmitter{result: apiclient.Result[domain.SubmissionReceipt]{
		Status: http.StatusCreated,
		Data: domain.SubmissionReceipt{
			ReferenceNumber: "PP-2024-000123",
			Status:          domain.ApplicationStatusSubmitted,
		},
	}}

	out, err := s.Submit(context.Background(), sub)

	require.NoError(t, err)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, StateSubmitted, out.State)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "PP-2024-000123", out.Receipt.ReferenceNumber)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, domain.FieldValue{}, s.Value(domain.FieldFirstName), "draft discarded")

	assert.Equal(t, []string{"application", "fee_amount", "fee_currency", "photo", "national_id_copy"},
		sub.payload.Parts())

	_, err = s.OnFieldChange(domain.FieldAcceptTerms, domain.Flag(false))
	assert.ErrorIs(t, err, errors.ErrAlreadySubmitted)
	_, _, err = s.Advance()
	assert.ErrorIs(t, err, errors.ErrAlreadySubmitted)
	_, err = s.Retreat()
	assert.ErrorIs(t, err, errors.ErrAlreadySubmitted)
	_, err = s.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, errors.ErrAlreadySubmitted)
	assert.Equal(t, 1, sub.calls)
}

func TestSession_SubmitFailureStaysOnLastStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	toFinalStep(t, s)
	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldAcceptTerms: domain.Flag(true),
		domain.FieldDeclaration: domain.Flag(true),
	})

	sub := &fakeSubmitter{result: apiclient.Result[domain.SubmissionReceipt]{
		Status: 0,
		Err: &apiclient.APIError{
			Code:    apiclient.CodeServiceUnavailable,
			Message: apiclient.MessageFor(apiclient.CodeServiceUnavailable),
		},
	}}

	out, err := s.Submit(context.Background(), sub)

	assert.ErrorIs(t, err, errors.ErrSubmissionFailed)
	assert.Equal(t, LastStep, out.Step)
	assert.Equal(t, StateActive, out.State)
	require.NotNil(t, out.Failure)
	assert.Equal(t, apiclient.CodeServiceUnavailable, out.Failure.Code)
	assert.Equal(t, LastStep, s.Position())
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, apiclient.CodeServiceUnavailable, s.LastFailure().Code)
	assert.Equal(t, domain.Flag(true), s.Value(domain.FieldAcceptTerms), "draft kept for a retry")
}

func TestSession_SubmitGatedByLastStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	toFinalStep(t, s)
	_, err := s.OnFieldChange(domain.FieldAcceptTerms, domain.Flag(true))
	require.NoError(t, err)

	sub := &fakeSubmitter{}
	out, err := s.Submit(context.Background(), sub)

	assert.ErrorIs(t, err, errors.ErrStepInvalid)
	assert.Equal(t, 0, sub.calls)
	assert.False(t, out.Validation.Valid)
	assert.Contains(t, out.Validation.Errors, domain.FieldDeclaration)
	assert.Contains(t, s.VisibleErrors(), domain.FieldDeclaration)
}

func TestSession_SubmitOnlyFromLastStep(t *testing.T) {
	s := NewSession(testRules(), nil)
	sub := &fakeSubmitter{}

	_, err := s.Submit(context.Background(), sub)

	assert.ErrorIs(t, err, errors.ErrNotOnFinalStep)
	assert.Equal(t, 0, sub.calls)
	assert.Equal(t, FirstStep, s.Position())
}

func TestBuildSubmission_RenewalByCard(t *testing.T) {
	d := &domain.ApplicationDraft{}
	for id, v := range validPersonal {
		require.NoError(t, d.Set(id, v))
	}
	d.Service = domain.ServiceDetails{
		PassportType:              domain.PassportTypeOrdinary,
		ApplicationReason:         domain.ApplicationReasonRenewal,
		ProcessingSpeed:           domain.ProcessingSpeedFastTrack,
		PreviousPassportNumber:    "A1234567",
		PreviousPassportIssueDate: "2014-03-01",
		ReplacementReason:         domain.ReplacementReasonLost,
	}
	d.Documents = domain.DocumentSet{
		Photo:                jpeg("photo.jpg"),
		NationalIDCopy:       jpeg("id.jpg"),
		PreviousPassportCopy: jpeg("old.jpg"),
	}
	d.Payment = domain.PaymentDetails{
		Method:         domain.PaymentMethodCreditCard,
		CardholderName: "A DIALLO",
		CardNumber:     "4111 1111 1111 1234",
		CardExpiry:     "12/27",
		CardCVV:        "123",
	}
	d.Consent = domain.Consent{AcceptTerms: true, Declaration: true}

	quote, err := catalog.Default().Quote(d.Service.PassportType, d.Service.ProcessingSpeed)
	require.NoError(t, err)

	mp, err := BuildSubmission(d, &quote)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(mp.ContentType())
	require.NoError(t, err)
	reader := multipart.NewReader(mp.Body(), params["boundary"])

	parts := map[string][]byte{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		parts[part.FormName()] = data
	}

	assert.Equal(t, "220.00", string(parts["fee_amount"]))
	assert.Equal(t, "USD", string(parts["fee_currency"]))
	assert.Contains(t, parts, "previous_passport_copy")

	var app map[string]interface{}
	require.NoError(t, json.Unmarshal(parts["application"], &app))
	details := app["details"].(map[string]interface{})
	assert.Equal(t, "A1234567", details["previous_passport_number"])
	assert.NotContains(t, details, "replacement_reason", "inactive for a renewal")

	payment := app["payment"].(map[string]interface{})
	assert.Equal(t, "1234", payment["card_last4"])
	assert.NotContains(t, string(parts["application"]), "4111")
	assert.NotContains(t, string(parts["application"]), `"123"`)
}
