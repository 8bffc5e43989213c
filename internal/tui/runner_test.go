package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"
	"consular/internal/wizard"
	"consular/pkg/errors"
)

// scriptedDriver answers prompts by message. Text prompts without a scripted answer
// accept their default, the way pressing Enter does.
type scriptedDriver struct {
	t       *testing.T
	answers map[string][]interface{}
	asked   map[string]int
	infos   []string
}

func newScriptedDriver(t *testing.T, answers map[string][]interface{}) *scriptedDriver {
	return &scriptedDriver{t: t, answers: answers, asked: make(map[string]int)}
}

func (d *scriptedDriver) next(message string) (interface{}, bool, error) {
	d.asked[message]++
	if d.asked[message] > 10 {
		return nil, false, fmt.Errorf("prompt %q asked too often", message)
	}
	queue := d.answers[message]
	if len(queue) == 0 {
		return nil, false, nil
	}
	d.answers[message] = queue[1:]
	return queue[0], true, nil
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	v, ok, err := d.next(cfg.Message)
	if err != nil || !ok {
		return cfg.Default, err
	}
	return v.(string), nil
}

func (d *scriptedDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	v, ok, err := d.next(cfg.Message)
	if err != nil || !ok {
		return cfg.Default, err
	}
	return v.(bool), nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	v, ok, err := d.next(cfg.Message)
	if err != nil || !ok {
		return cfg.DefaultIndex, err
	}
	return indexOf(cfg.Options, v.(string)), nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

type recordingSubmitter struct {
	results []apiclient.Result[domain.SubmissionReceipt]
	calls   int
}

func (s *recordingSubmitter) SubmitPassport(_ context.Context, _ *apiclient.Multipart) apiclient.Result[domain.SubmissionReceipt] {
	res := s.results[s.calls]
	s.calls++
	return res
}

func accepted(ref string) apiclient.Result[domain.SubmissionReceipt] {
	return apiclient.Result[domain.SubmissionReceipt]{
		Status: 201,
		Data: domain.SubmissionReceipt{
			ApplicationID:   uuid.New(),
			ReferenceNumber: ref,
			Service:         domain.ServiceTypePassport,
			Status:          domain.ApplicationStatusSubmitted,
			SubmittedAt:     time.Now().UTC(),
		},
	}
}

func writeScan(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0 scan"), 0o600))
	return path
}

func newSession() *wizard.Session {
	return wizard.NewSession(wizard.NewRules(nil), catalog.Default())
}

func happyPath(t *testing.T) map[string][]interface{} {
	return map[string][]interface{}{
		"First name":         {"Amina"},
		"Last name":          {"Diallo"},
		"Date of birth":      {"1990-04-12"},
		"Place of birth":     {"Dakar"},
		"Gender":             {"female"},
		"Nationality":        {"Senegalese"},
		"National ID number": {"SN-1990-4412"},
		"Email address":      {"amina.diallo@example.org"},
		"Phone number":       {"+221771234567"},
		"Address":            {"12 Rue Carnot"},
		"City":               {"Dakar"},
		"Postal code":        {"10200"},
		"Country":            {"Senegal"},

		"Passport type":          {"ordinary"},
		"Reason for application": {"new"},
		"Processing speed":       {"fast_track"},

		"Passport photo":      {writeScan(t, "photo.jpg")},
		"Copy of national ID": {writeScan(t, "id.png")},

		"Payment method":      {"credit_card"},
		"Cardholder name":     {"AMINA DIALLO"},
		"Card number":         {"4111111111111111"},
		"Expiry date (MM/YY)": {"12/39"},
		"CVV":                 {"123"},

		"I accept the terms and conditions":          {true},
		"I declare the information provided is true": {true},
	}
}

func TestRunner_CompletesApplication(t *testing.T) {
	sess := newSession()
	driver := newScriptedDriver(t, happyPath(t))
	sub := &recordingSubmitter{results: []apiclient.Result[domain.SubmissionReceipt]{accepted("PP-2026-000001")}}

	receipt, err := NewRunner(driver, sess, sub, nil).Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, "PP-2026-000001", receipt.ReferenceNumber)
	assert.Equal(t, wizard.StateSubmitted, sess.State())
	assert.Equal(t, 1, sub.calls)
	assert.Contains(t, driver.infos, "Application submitted. Reference: PP-2026-000001")
	assert.Contains(t, strings.Join(driver.infos, "\n"), "Fee due: 220.00 USD")
}

func TestRunner_RepromptsInvalidAnswers(t *testing.T) {
	answers := happyPath(t)
	answers["Email address"] = []interface{}{"not-an-email", "amina.diallo@example.org"}
	answers["Passport photo"] = []interface{}{"/nonexistent/photo.jpg", writeScan(t, "photo.jpg")}

	driver := newScriptedDriver(t, answers)
	sub := &recordingSubmitter{results: []apiclient.Result[domain.SubmissionReceipt]{accepted("PP-1")}}

	_, err := NewRunner(driver, newSession(), sub, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, driver.asked["Email address"])
	assert.Contains(t, driver.infos, "  ! Please enter a valid email address")
	assert.Contains(t, driver.infos, "  ! Cannot read /nonexistent/photo.jpg")
}

func TestRunner_BackReturnsToPreviousStep(t *testing.T) {
	answers := happyPath(t)
	answers["Passport type"] = []interface{}{backOption, "ordinary"}

	driver := newScriptedDriver(t, answers)
	sub := &recordingSubmitter{results: []apiclient.Result[domain.SubmissionReceipt]{accepted("PP-2")}}

	_, err := NewRunner(driver, newSession(), sub, nil).Run(context.Background())

	require.NoError(t, err)
	// step 1 is walked twice; the second pass keeps the stored answers
	assert.Equal(t, 2, driver.asked["First name"])
	assert.Equal(t, 2, driver.asked["Passport type"])
}

func TestRunner_SubmissionFailureCanBeRetried(t *testing.T) {
	declined := apiclient.Result[domain.SubmissionReceipt]{
		Status: 402,
		Err:    &apiclient.APIError{Code: apiclient.CodePaymentDeclined, Status: 402},
	}
	sub := &recordingSubmitter{results: []apiclient.Result[domain.SubmissionReceipt]{declined, accepted("PP-3")}}
	driver := newScriptedDriver(t, happyPath(t))

	receipt, err := NewRunner(driver, newSession(), sub, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "PP-3", receipt.ReferenceNumber)
	assert.Equal(t, 2, sub.calls)
	assert.Contains(t, driver.infos, "  ! "+apiclient.MessageFor(apiclient.CodePaymentDeclined))
}

func TestRunner_SubmissionFailureGivingUp(t *testing.T) {
	declined := apiclient.Result[domain.SubmissionReceipt]{
		Err: &apiclient.APIError{Code: apiclient.CodeServiceUnavailable, Message: "Down for maintenance"},
	}
	answers := happyPath(t)
	answers["Try again?"] = []interface{}{false}
	sess := newSession()

	receipt, err := NewRunner(newScriptedDriver(t, answers), sess, &recordingSubmitter{
		results: []apiclient.Result[domain.SubmissionReceipt]{declined},
	}, nil).Run(context.Background())

	assert.ErrorIs(t, err, errors.ErrSubmissionFailed)
	assert.Nil(t, receipt)
	assert.Equal(t, wizard.StateActive, sess.State())
	assert.Equal(t, wizard.LastStep, sess.Position())
}

func TestRunner_RefusedConsentCanGoBack(t *testing.T) {
	answers := happyPath(t)
	answers["I accept the terms and conditions"] = []interface{}{false, true}
	answers[GoBackPrompt] = []interface{}{true}

	driver := newScriptedDriver(t, answers)
	sub := &recordingSubmitter{results: []apiclient.Result[domain.SubmissionReceipt]{accepted("PP-4")}}

	_, err := NewRunner(driver, newSession(), sub, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, driver.asked[GoBackPrompt])
	// the payment step is shown again before consent is asked a second time
	assert.Equal(t, 2, driver.asked["Payment method"])
	assert.Equal(t, 2, driver.asked["I accept the terms and conditions"])
	assert.Equal(t, 1, sub.calls)
}
