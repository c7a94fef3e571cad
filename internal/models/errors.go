package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned by every ledger operation. Rejections carry exactly one of these.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotAdmin             = "NOT_ADMIN"
	CodeNotOwner             = "NOT_OWNER"
	CodeNotFound             = "NOT_FOUND"
	CodeUnknownTribe         = "UNKNOWN_TRIBE"
	CodeUnknownPost          = "UNKNOWN_POST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeJoinDenied           = "JOIN_DENIED"
	CodeInsufficientPayment  = "INSUFFICIENT_PAYMENT"
	CodeSupplyExhausted      = "SUPPLY_EXHAUSTED"
	CodeSignatureInvalid     = "SIGNATURE_INVALID"
	CodeSignatureAlreadyUsed = "SIGNATURE_ALREADY_USED"
	CodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	CodeConflict             = "CONFLICT"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUnknownTribeError(id uint) *AppError {
	return &AppError{
		Code:    CodeUnknownTribe,
		Message: fmt.Sprintf("tribe %d does not exist or is inactive", id),
	}
}

func NewUnknownPostError(id uint) *AppError {
	return &AppError{
		Code:    CodeUnknownPost,
		Message: fmt.Sprintf("post %d does not exist", id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewNotAdminError(tribeID uint) *AppError {
	return &AppError{
		Code:    CodeNotAdmin,
		Message: fmt.Sprintf("caller is not an admin of tribe %d", tribeID),
	}
}

func NewNotOwnerError(message string) *AppError {
	return &AppError{
		Code:    CodeNotOwner,
		Message: message,
	}
}

func NewJoinDeniedError(message string) *AppError {
	return &AppError{
		Code:    CodeJoinDenied,
		Message: message,
	}
}

func NewInsufficientPaymentError(required, paid int64) *AppError {
	return &AppError{
		Code:    CodeInsufficientPayment,
		Message: fmt.Sprintf("payment of %d is below the required %d", paid, required),
	}
}

func NewSupplyExhaustedError(collectibleID uint) *AppError {
	return &AppError{
		Code:    CodeSupplyExhausted,
		Message: fmt.Sprintf("collectible %d has no remaining supply", collectibleID),
	}
}

func NewSignatureInvalidError(err error) *AppError {
	return &AppError{
		Code:    CodeSignatureInvalid,
		Message: "signature is invalid",
		Err:     err,
	}
}

func NewSignatureAlreadyUsedError() *AppError {
	return &AppError{
		Code:    CodeSignatureAlreadyUsed,
		Message: "signature has already been used",
	}
}

func NewInsufficientBalanceError(what string, have, want int64) *AppError {
	return &AppError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient %s balance: have %d, need %d", what, have, want),
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or CodeInternal for anything else.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
