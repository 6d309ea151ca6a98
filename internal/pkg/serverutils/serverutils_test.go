package serverutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/reconcile"
	"email-onboarding-be/pkg/schema"
	"email-onboarding-be/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appReturning(err error) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", func(ctx *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandlerMiddlewareStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"schema not found", &schema.SchemaNotFoundError{Layer: schema.LayerTaxonomy, BusinessType: "Roofer"}, 404},
		{"schema invalid", fmt.Errorf("load: %w", &schema.SchemaInvalidError{Layer: schema.LayerBehavior, BusinessType: "x", Err: io.EOF}), 400},
		{"request invalid", &ValidationError{Fields: map[string]string{"BusinessTypes": "min=1"}}, 400},
		{"intent target missing", &validation.IntentTargetMissingError{Violations: []validation.Violation{{Intent: "roof_leak", Category: "Leaks"}}}, 422},
		{"lock busy", fmt.Errorf("tenant t1: %w", reconcile.ErrLockNotAcquired), 409},
		{"unresolved placeholder", &inject.UnresolvedPlaceholderError{Tokens: []string{"<<>>"}}, 500},
		{"fiber error", fiber.ErrMethodNotAllowed, 405},
		{"anything else", io.ErrUnexpectedEOF, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := appReturning(tc.err).Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body Response[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.status, body.Code)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Name  string   `validate:"required"`
		Types []string `validate:"min=1"`
	}
	assert.NoError(t, ValidateRequest(req{Name: "a", Types: []string{"Plumber"}}))

	err := ValidateRequest(req{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["req.Name"])
	assert.Equal(t, "min=1", verr.Fields["req.Types"])
}

func TestJwtMiddlewareSetsTenant(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/", JwtMiddleware, func(ctx *fiber.Ctx) error {
		return ctx.SendString(TenantID(ctx))
	})

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return s
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(jwt.MapClaims{"tenant_id": "acme", "exp": time.Now().Add(time.Hour).Unix()}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "acme", string(body))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(jwt.MapClaims{"user_id": "u1"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestParseTenantToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"tenant_id": "acme"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	tenant, err := ParseTenantToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"tenant_id": "acme"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ParseTenantToken(forged)
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = ParseTenantToken("not-a-jwt")
	assert.ErrorIs(t, err, errInvalidToken)
}
