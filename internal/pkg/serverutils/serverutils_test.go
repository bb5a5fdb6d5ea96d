package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/identity"
	"ai-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func newIdentityApp() *fiber.App {
	app := fiber.New()
	app.Use(JwtMiddleware(testSecret))
	app.Get("/whoami", func(ctx *fiber.Ctx) error {
		userId, _ := identity.UserID(ctx.UserContext())
		return ctx.JSON(SuccessResponse("ok", userId))
	})
	app.Get("/private", RequireAuth, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestJwtMiddleware(t *testing.T) {
	app := newIdentityApp()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", fiber.StatusOK, ""},
		{"user_id claim", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "u1", "exp": exp}), fiber.StatusOK, "u1"},
		{"sub fallback", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "exp": exp}), fiber.StatusOK, "u2"},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": "u1", "exp": exp}), fiber.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}), fiber.StatusUnauthorized, ""},
		{"no subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"exp": exp}), fiber.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusOK {
				assert.Equal(t, tt.wantUser, decode(t, resp.Body)["data"])
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	app := newIdentityApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"user_id": "u1"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

type sampleRequest struct {
	Role string `json:"role" validate:"required,oneof=user assistant"`
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNop()))
	app.Get("/auth", func(ctx *fiber.Ctx) error { return apperror.ErrUnauthenticated })
	app.Get("/store", func(ctx *fiber.Ctx) error {
		return apperror.NewStoreError("load chat", errors.New("dial tcp: refused"))
	})
	app.Get("/fiber", func(ctx *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad body") })
	app.Get("/validation", func(ctx *fiber.Ctx) error { return ValidateRequest(sampleRequest{Role: "system"}) })
	app.Get("/other", func(ctx *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path        string
		wantStatus  int
		wantMessage string
	}{
		{"/auth", fiber.StatusUnauthorized, "user not authenticated"},
		{"/store", fiber.StatusInternalServerError, "Internal server error"},
		{"/fiber", fiber.StatusBadRequest, "bad body"},
		{"/validation", fiber.StatusBadRequest, "Invalid request"},
		{"/other", fiber.StatusInternalServerError, "Internal server error"},
		{"/missing", fiber.StatusNotFound, "Cannot GET /missing"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, float64(tt.wantStatus), body["code"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Role: "user"}))

	err := ValidateRequest(sampleRequest{Role: "system"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{"Role": "must be one of: user assistant"}, ve.Fields)

	err = ValidateRequest(sampleRequest{})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["Role"])
}
