package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = models.Address("0x00000000000000000000000000000000000000aa")

func newAuthApp(auth *Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/protected", auth.AuthRequired, func(c *fiber.Ctx) error {
		caller, ok := Caller(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(caller.String())
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	auth := NewAuthenticator("test-secret-that-is-long-enough-000")
	valid, err := auth.IssueToken(testAccount, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(testAccount, -time.Hour)
	require.NoError(t, err)
	foreign, err := NewAuthenticator("another-secret").IssueToken(testAccount, time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret-that-is-long-enough-000"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "foreign secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "subject not an address", header: "Bearer " + badSubject, wantStatus: http.StatusUnauthorized},
	}

	app := newAuthApp(auth)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestParseTokenCanonicalizesSubject(t *testing.T) {
	t.Parallel()

	auth := NewAuthenticator("test-secret-that-is-long-enough-000")
	token, err := auth.IssueToken(models.Address("0x00000000000000000000000000000000000000AA"), time.Hour)
	require.NoError(t, err)

	caller, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, testAccount, caller)
}
