package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CREDENTIALS_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFeeCommand(t *testing.T) {
	out, err := run(t, "fee", "--type", "official", "--speed", "urgent")
	require.NoError(t, err)
	assert.Contains(t, out, "official passport, urgent processing: 90.00 USD (about 7 working days)")

	_, err = run(t, "fee", "--type", "tourist")
	assert.Error(t, err)
}

func TestCodesCommand(t *testing.T) {
	out, err := run(t, "codes", "--group", "auth")
	require.NoError(t, err)
	assert.Contains(t, out, "auth/token-expired")
	assert.NotContains(t, out, "payment/")
}

func TestTrackCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/citizen/applications/PP-7/tracking", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"status":"submitted","timestamp":"2026-03-01T10:00:00Z"},{"status":"under_review","note":"Biometrics booked","timestamp":"2026-03-03T09:30:00Z"}]`))
	}))
	defer srv.Close()

	out, err := run(t, "--api", srv.URL+"/api", "track", "PP-7")
	require.NoError(t, err)
	assert.Contains(t, out, "under_review  Biometrics booked")
}

func TestTokenSetRejectsExpiredJWT(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "citizen-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = run(t, "token", "set", expired)
	assert.ErrorContains(t, err, "token expired")

	out, err := run(t, "token", "set", "opaque-token")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored citizen_token")
}

func TestDescribeToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	valid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "citizen-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	assert.Equal(t, "not set", describeToken("", now))
	assert.Equal(t, "opaque token", describeToken("abc123", now))
	assert.Equal(t, "JWT for citizen-1, expires 2026-05-01T01:00:00Z", describeToken(valid, now))
	assert.Contains(t, describeToken(valid, now.Add(2*time.Hour)), "expired")
}
