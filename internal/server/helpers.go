package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"tribehub/internal/ledger"
	"tribehub/internal/middleware"
	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit   = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// statusFor maps an AppError code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case models.CodeValidation, models.CodeSignatureInvalid:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized, models.CodeNotAdmin, models.CodeNotOwner, models.CodeJoinDenied:
		return fiber.StatusForbidden
	case models.CodeNotFound, models.CodeUnknownTribe, models.CodeUnknownPost:
		return fiber.StatusNotFound
	case models.CodeInsufficientPayment, models.CodeInsufficientBalance:
		return fiber.StatusPaymentRequired
	case models.CodeConflict, models.CodeSupplyExhausted, models.CodeSignatureAlreadyUsed:
		return fiber.StatusConflict
	case models.CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code maps to. Anything that is not an
// AppError is logged and reported as an internal error.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewInternalError(err))
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return models.RespondWithError(c, statusFor(appErr.Code), appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseAddressParam extracts an account address route parameter.
func parseAddressParam(c *fiber.Ctx, param string) (models.Address, error) {
	addr, err := models.ParseAddress(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return models.ZeroAddress, errResponseWritten
	}
	return addr, nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "collectibleId" -> "collectible ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// bindBody parses the JSON body into dst, writing a 400 on failure.
func bindBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// caller returns the authenticated account. AuthRequired guarantees it on protected routes.
func caller(c *fiber.Ctx) models.Address {
	addr, _ := middleware.Caller(c)
	return addr
}

// viewer returns the account reading a public route, or the zero address when the
// request carries no valid bearer token.
func (s *Server) viewer(c *fiber.Ctx) models.Address {
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return models.ZeroAddress
	}
	addr, err := s.auth.ParseToken(token)
	if err != nil {
		return models.ZeroAddress
	}
	return addr
}

// ReceiptResponse is the JSON form of a committed operation.
type ReceiptResponse struct {
	Seq    uint64         `json:"seq"`
	Noop   bool           `json:"noop"`
	Refund int64          `json:"refund,omitempty"`
	Events []models.Event `json:"events"`
}

func toReceipt(r *ledger.Receipt) ReceiptResponse {
	events := r.Events
	if events == nil {
		events = []models.Event{}
	}
	return ReceiptResponse{Seq: r.Seq, Noop: r.Noop(), Refund: r.Refund, Events: events}
}

// respondReceipt writes the outcome of a write operation.
func respondReceipt(c *fiber.Ctx, r *ledger.Receipt, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toReceipt(r))
}

// respondValue writes v as JSON with status, or the error.
func respondValue(c *fiber.Ctx, status int, v interface{}, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(v)
}

// parseOptionalTime parses an RFC 3339 timestamp, treating "" as absent.
func parseOptionalTime(c *fiber.Ctx, field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(field+" must be an RFC 3339 timestamp"))
		return nil, errResponseWritten
	}
	return &t, nil
}
