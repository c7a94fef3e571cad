package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"tribehub/internal/config"
	"tribehub/internal/database"
	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(n int) models.Address {
	return models.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

type testServer struct {
	*Server
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:              "test-secret-that-is-at-least-32-characters",
		Port:                   "0",
		DBDriver:               "sqlite",
		Env:                    "test",
		GenesisAdmin:           testAddr(1).String(),
		ContentKey:             "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		RateLimitWrites:        1000,
		RateLimitWindowSeconds: 60,
	}
	s, err := newServer(cfg, db, nil)
	require.NoError(t, err)
	return &testServer{Server: s, app: s.NewApp()}
}

func (ts *testServer) do(t *testing.T, method, path string, as models.Address, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !as.IsZero() {
		token, err := ts.auth.IssueToken(as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (ts *testServer) createTribe(t *testing.T, admin models.Address, name string, policy models.JoinPolicy) models.Tribe {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/tribes", admin, CreateTribeRequest{
		Name:       name,
		Metadata:   "ipfs://" + name,
		JoinPolicy: policy,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[models.Tribe](t, body)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want int
	}{
		{models.CodeValidation, http.StatusBadRequest},
		{models.CodeSignatureInvalid, http.StatusBadRequest},
		{models.CodeUnauthorized, http.StatusForbidden},
		{models.CodeNotAdmin, http.StatusForbidden},
		{models.CodeNotOwner, http.StatusForbidden},
		{models.CodeJoinDenied, http.StatusForbidden},
		{models.CodeUnknownTribe, http.StatusNotFound},
		{models.CodeUnknownPost, http.StatusNotFound},
		{models.CodeNotFound, http.StatusNotFound},
		{models.CodeInsufficientPayment, http.StatusPaymentRequired},
		{models.CodeInsufficientBalance, http.StatusPaymentRequired},
		{models.CodeSupplyExhausted, http.StatusConflict},
		{models.CodeSignatureAlreadyUsed, http.StatusConflict},
		{models.CodeConflict, http.StatusConflict},
		{models.CodeRateLimited, http.StatusTooManyRequests},
		{models.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.code))
		})
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/health/live", models.ZeroAddress, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"up"`)

	status, body = ts.do(t, http.MethodGet, "/health/ready", models.ZeroAddress, nil)
	assert.Equal(t, http.StatusOK, status)
	ready := decode[map[string]interface{}](t, body)
	assert.Equal(t, "healthy", ready["status"])
	checks := ready["checks"].(map[string]interface{})
	assert.Equal(t, "disabled", checks["redis"])
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/api/swagger/doc.json", models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	var doc struct {
		BasePath string                            `json:"basePath"`
		Paths    map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "/api", doc.BasePath)

	param := regexp.MustCompile(`:(\w+)`)
	for _, route := range ts.app.GetRoutes(true) {
		if route.Method == http.MethodHead || !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		if strings.HasPrefix(route.Path, "/api/swagger") || strings.HasPrefix(route.Path, "/api/ws") {
			continue
		}
		path := param.ReplaceAllString(strings.TrimPrefix(route.Path, "/api"), "{$1}")
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "undocumented path %s", path) {
			assert.Contains(t, ops, strings.ToLower(route.Method), "undocumented %s %s", route.Method, path)
		}
	}
}

func TestWritesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodPost, "/api/tribes", models.ZeroAddress, CreateTribeRequest{Name: "Nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodPost, "/api/tribes", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTribeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := testAddr(10), testAddr(11)

	tribe := ts.createTribe(t, alice, "Climbers", models.JoinPolicyPublic)
	assert.Equal(t, alice, tribe.Admin)
	assert.Equal(t, int64(1), tribe.MemberCount)

	status, body := ts.do(t, http.MethodPost, "/api/tribes", bob, CreateTribeRequest{Name: "climbers"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, body).Code)

	meta := "ipfs://changed"
	status, body = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/tribes/%d", tribe.ID), bob, UpdateTribeRequest{Metadata: &meta})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeNotAdmin, decode[models.ErrorResponse](t, body).Code)

	status, body = ts.do(t, http.MethodPost, fmt.Sprintf("/api/tribes/%d/join", tribe.ID), bob, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	joined := decode[map[string]interface{}](t, body)
	assert.Equal(t, string(models.MemberStatusActive), joined["status"])

	status, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/tribes/%d/members/%s", tribe.ID, bob), models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), string(models.MemberStatusActive))

	status, body = ts.do(t, http.MethodGet, "/api/tribes/by-name/CLIMBERS", models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	byName := decode[models.Tribe](t, body)
	assert.Equal(t, tribe.ID, byName.ID)
	assert.Equal(t, int64(2), byName.MemberCount)
}

func TestUnknownTribe(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/api/tribes/999", models.ZeroAddress, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeUnknownTribe, decode[models.ErrorResponse](t, body).Code)

	status, _ = ts.do(t, http.MethodGet, "/api/tribes/abc", models.ZeroAddress, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGatedPostRedaction(t *testing.T) {
	ts := newTestServer(t)
	alice, outsider := testAddr(20), testAddr(21)
	tribe := ts.createTribe(t, alice, "Insiders", models.JoinPolicyPublic)

	status, body := ts.do(t, http.MethodPost, fmt.Sprintf("/api/tribes/%d/posts", tribe.ID), alice, map[string]interface{}{
		"metadata": "ipfs://secret",
		"access":   map[string]interface{}{"kind": models.AccessMembers},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	assert.True(t, post.Gated)

	path := fmt.Sprintf("/api/posts/%d", post.ID)
	tests := []struct {
		name     string
		viewer   models.Address
		redacted bool
	}{
		{name: "creator", viewer: alice, redacted: false},
		{name: "outsider", viewer: outsider, redacted: true},
		{name: "anonymous", viewer: models.ZeroAddress, redacted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodGet, path, tt.viewer, nil)
			require.Equal(t, http.StatusOK, status)
			got := decode[models.Post](t, body)
			assert.Equal(t, tt.redacted, got.Redacted)
			if tt.redacted {
				assert.Empty(t, got.Metadata)
			} else {
				assert.Equal(t, "ipfs://secret", got.Metadata)
			}
		})
	}

	status, body = ts.do(t, http.MethodPost, path+"/like", outsider, nil)
	assert.Equal(t, http.StatusForbidden, status, string(body))
}

func TestEventsListing(t *testing.T) {
	ts := newTestServer(t)
	alice := testAddr(30)
	tribe := ts.createTribe(t, alice, "Journal", models.JoinPolicyPublic)

	status, body := ts.do(t, http.MethodGet, "/api/events?entity=tribe&entity_id="+fmt.Sprint(tribe.ID), models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Items []models.Event `json:"items"`
		Total int64          `json:"total"`
	}](t, body)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "TribeCreated", page.Items[0].Name)
	assert.Equal(t, alice, page.Items[0].Actor)

	status, body = ts.do(t, http.MethodGet, "/api/ledger/head", models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), `"sequence":0`)
}

func TestValueAndRoles(t *testing.T) {
	ts := newTestServer(t)
	genesis, bob := testAddr(1), testAddr(40)

	status, body := ts.do(t, http.MethodPost, "/api/wallet/mint", bob, amountRequest{Account: bob.String(), Amount: 50})
	assert.Equal(t, http.StatusForbidden, status, string(body))

	status, body = ts.do(t, http.MethodPost, "/api/wallet/mint", genesis, amountRequest{Account: bob.String(), Amount: 50})
	require.Equal(t, http.StatusOK, status, string(body))
	receipt := decode[ReceiptResponse](t, body)
	assert.False(t, receipt.Noop)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "ValueMinted", receipt.Events[0].Name)

	status, body = ts.do(t, http.MethodGet, "/api/accounts/"+bob.String()+"/balance", models.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"balance":50`)

	status, body = ts.do(t, http.MethodPost, "/api/roles/FAN/grant", genesis, accountRequest{Account: bob.String()})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = ts.do(t, http.MethodPost, "/api/roles/FAN/grant", genesis, accountRequest{Account: bob.String()})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[ReceiptResponse](t, body).Noop)

	status, body = ts.do(t, http.MethodPost, "/api/roles/NOPE/grant", genesis, accountRequest{Account: bob.String()})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
}
