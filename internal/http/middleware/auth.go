package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerIDLocalKey stores the authenticated principal's user ID.
const OwnerIDLocalKey = "owner_id"

// JWT authenticates requests with an HS256 bearer token signed with secret.
// The token's subject becomes the owner ID for downstream handlers.
func JWT(secret []byte) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no subject")
		}

		c.Locals(OwnerIDLocalKey, claims.Subject)
		return c.Next()
	}
}

// OwnerID returns the principal set by JWT, or "" on unauthenticated routes.
func OwnerID(c *fiber.Ctx) string {
	id, _ := c.Locals(OwnerIDLocalKey).(string)
	return id
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
