// Package middleware provides authentication, logging, metrics and rate limiting for the HTTP API.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CallerLocal is the Fiber locals key holding the authenticated caller address.
const CallerLocal = "caller"

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken.
const DefaultTokenTTL = 24 * time.Hour

// Authenticator validates bearer tokens whose subject is the caller's account address.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an Authenticator for HMAC tokens signed with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for account valid for ttl.
func (a *Authenticator) IssueToken(account models.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "tribehub",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates tokenString and returns the caller address in its subject.
func (a *Authenticator) ParseToken(tokenString string) (models.Address, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return models.ZeroAddress, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return models.ZeroAddress, errors.New("invalid token structure - missing subject")
	}

	caller, err := models.ParseAddress(claims.Subject)
	if err != nil {
		return models.ZeroAddress, errors.New("invalid account address in token")
	}
	return caller, nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func (a *Authenticator) AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}

	caller, err := a.ParseToken(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Locals(CallerLocal, caller)
	c.SetUserContext(context.WithValue(c.UserContext(), CallerKey, caller))
	return c.Next()
}

// WebSocketAuthRequired validates a token passed as ?token= for websocket upgrades.
func (a *Authenticator) WebSocketAuthRequired(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return a.AuthRequired(c)
	}

	caller, err := a.ParseToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Locals(CallerLocal, caller)
	return c.Next()
}

// Caller returns the authenticated caller stored by AuthRequired.
func Caller(c *fiber.Ctx) (models.Address, bool) {
	caller, ok := c.Locals(CallerLocal).(models.Address)
	return caller, ok && !caller.IsZero()
}
