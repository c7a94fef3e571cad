package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"collectibleId", "collectible ID"},
		{"pointTypeId", "point type ID"},
		{"address", "address"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 25, wantOffset: 0},
		{name: "explicit", query: "?limit=10&offset=30", wantLimit: 10, wantOffset: 30},
		{name: "limit capped", query: "?limit=1000", wantLimit: maxPaginationLimit, wantOffset: 0},
		{name: "non-positive limit falls back", query: "?limit=0", wantLimit: 25, wantOffset: 0},
		{name: "negative offset clamped", query: "?offset=-5", wantLimit: 25, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			var body map[string]int
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantLimit, body["limit"])
			assert.Equal(t, tt.wantOffset, body["offset"])
		})
	}
}

func TestParseHelpersWriteBadRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/tribes/:id", func(c *fiber.Ctx) error {
		if _, err := parseID(c, "id"); err != nil {
			return nil
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/accounts/:address", func(c *fiber.Ctx) error {
		if _, err := parseAddressParam(c, "address"); err != nil {
			return nil
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		path string
		want int
	}{
		{"/tribes/12", http.StatusNoContent},
		{"/tribes/0", http.StatusBadRequest},
		{"/tribes/x", http.StatusBadRequest},
		{"/accounts/0x00000000000000000000000000000000000000aa", http.StatusNoContent},
		{"/accounts/bob", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusBadRequest {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeValidation, body.Code)
			}
		})
	}
}
