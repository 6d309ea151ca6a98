package serverutils

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const tenantIDKey = "tenant_id"

var (
	errInvalidToken = errors.New("invalid token")
	errNoTenant     = errors.New("token has no tenant")
)

// ParseTenantToken verifies an HMAC-signed token and returns its tenant_id
// claim.
func ParseTenantToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	tenantID, _ := claims[tenantIDKey].(string)
	if tenantID == "" {
		return "", errNoTenant
	}
	return tenantID, nil
}

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	tenantID, err := ParseTenantToken(authHeader[7:])
	if errors.Is(err, errNoTenant) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Token has no tenant"))
	}
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	ctx.Locals(tenantIDKey, tenantID)
	return ctx.Next()
}

// TenantID returns the tenant set by JwtMiddleware.
func TenantID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(tenantIDKey).(string)
	return id
}
