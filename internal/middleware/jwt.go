package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/coach-api/internal/utils"
)

var (
	errMissingAuthorization = errors.New("authorization header missing")
	errInvalidAuthorization = errors.New("invalid authorization header")
	errInvalidToken         = errors.New("invalid token")
	errInvalidClaims        = errors.New("invalid token claims")
)

// JWTProtected returns a middleware that rejects requests without a valid bearer token.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authenticate(c, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}

// JWTOptional binds the user when a valid bearer token is present and lets anonymous requests through.
// A malformed or expired token is treated as anonymous.
func JWTOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := authenticate(c, secret); err == nil {
			c.Locals("user_id", userID)
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret string) (string, error) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		return "", errMissingAuthorization
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", errInvalidAuthorization
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return "", errInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidClaims
	}

	userID := extractUserIDFromClaims(claims)
	if userID == "" {
		return "", errInvalidClaims
	}
	return userID, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized := normalizeUserID(value); normalized != "" {
				return normalized
			}
		}
	}
	return ""
}

func normalizeUserID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return ""
		}
		return strconv.FormatInt(int64(v), 10)
	case int:
		if v < 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// UserID returns the authenticated user bound by JWTProtected or JWTOptional.
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return v
	}
	return ""
}
