package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"consular/internal/apiclient"
	"consular/internal/domain"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func testRules(opts ...Option) *Rules {
	return NewRules(nil, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func jpeg(name string) *domain.FileRef {
	return domain.NewFileRefFromBytes(name, "image/jpeg", []byte("\xff\xd8\xff\xe0 fake jpeg"))
}

var validPersonal = map[domain.FieldID]domain.FieldValue{
	domain.FieldFirstName:    domain.Text("Amina"),
	domain.FieldLastName:     domain.Text("Diallo"),
	domain.FieldDateOfBirth:  domain.Text("1990-04-12"),
	domain.FieldPlaceOfBirth: domain.Text("Dakar"),
	domain.FieldGender:       domain.Text("female"),
	domain.FieldNationality:  domain.Text("Senegalese"),
	domain.FieldNationalID:   domain.Text("SN-1990-4412"),
	domain.FieldEmail:        domain.Text("amina.diallo@example.org"),
	domain.FieldPhone:        domain.Text("+221 77 123 45 67"),
	domain.FieldAddress:      domain.Text("12 Rue Carnot"),
	domain.FieldCity:         domain.Text("Dakar"),
	domain.FieldPostalCode:   domain.Text("10200"),
	domain.FieldCountry:      domain.Text("Senegal"),
}

func fill(t *testing.T, s *Session, values map[domain.FieldID]domain.FieldValue) {
	t.Helper()
	for id, v := range values {
		_, err := s.OnFieldChange(id, v)
		require.NoError(t, err, id)
	}
}

func advanceOK(t *testing.T, s *Session) {
	t.Helper()
	_, res, err := s.Advance()
	require.NoError(t, err)
	require.True(t, res.Valid, "step %d errors: %v", s.Position(), res.Errors)
}

// toFinalStep drives a new-passport application paid at the embassy to step 5.
func toFinalStep(t *testing.T, s *Session) {
	t.Helper()
	fill(t, s, validPersonal)
	advanceOK(t, s)

	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldPassportType:      domain.Text("ordinary"),
		domain.FieldApplicationReason: domain.Text("new"),
		domain.FieldProcessingSpeed:   domain.Text("urgent"),
	})
	advanceOK(t, s)

	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldPhoto:          domain.File(jpeg("photo.jpg")),
		domain.FieldNationalIDCopy: domain.File(jpeg("id.jpg")),
	})
	advanceOK(t, s)

	fill(t, s, map[domain.FieldID]domain.FieldValue{
		domain.FieldPaymentMethod: domain.Text("pay_at_embassy"),
	})
	advanceOK(t, s)
	require.Equal(t, LastStep, s.Position())
}

type fakeSubmitter struct {
	result  apiclient.Result[domain.SubmissionReceipt]
	calls   int
	payload *apiclient.Multipart
}

func (f *fakeSubmitter) SubmitPassport(_ context.Context, payload *apiclient.Multipart) apiclient.Result[domain.SubmissionReceipt] {
	f.calls++
	f.payload = payload
	return f.result
}
