// middleware_test.go
//
// A test case management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of testcasedb.
// testcasedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// testcasedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with testcasedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/testutil"
	"github.com/localnerve/testcasedb/internal/types"
	"github.com/localnerve/testcasedb/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func errorApp(t *testing.T, env string, err error) *fiber.App {
	t.Helper()
	cfg := &config.Config{Env: env}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(cfg, testutil.NewTestLogger(t))})
	app.Get("/fail", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"app validation", types.ValidationFailed("", "name is required"), 400, "VALIDATION_ERROR", "name is required"},
		{"app not found", types.NotFound("Test plan not found"), 404, "NOT_FOUND", "Test plan not found"},
		{"app conflict", types.Conflict("E_VERSION", nil), 409, "CONFLICT", "E_VERSION"},
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "bad"), 400, "VALIDATION_ERROR", "bad"},
		{"gorm not found", gorm.ErrRecordNotFound, 404, "NOT_FOUND", "Resource not found"},
		{"gorm duplicate", gorm.ErrDuplicatedKey, 409, "CONFLICT", "Duplicate key"},
		{"unknown in production", errors.New("boom"), 500, "INTERNAL_SERVER_ERROR", genericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := errorApp(t, "production", tt.err).Test(httptest.NewRequest("GET", "/fail", nil))
			require.NoError(t, err)
			testutil.AssertStatus(t, resp, tt.status)

			var body utils.ErrorResponseStruct
			testutil.ParseJSON(t, resp, &body)
			assert.Equal(t, "error", body.Status)
			assert.False(t, body.Ok)
			assert.Equal(t, tt.code, body.ErrorCode)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, "/fail", body.URL)
			assert.Empty(t, body.Stack)
		})
	}
}

func TestErrorHandlerDevelopmentStack(t *testing.T) {
	resp, err := errorApp(t, "development", errors.New("boom")).Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, 500)

	var body utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &body)
	assert.Contains(t, body.Message, "boom")
	assert.NotEmpty(t, body.Stack)
}

func authApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(cfg, testutil.NewTestLogger(t))})
	app.Use(Auth(cfg, testutil.NewTestLogger(t)))
	app.Get("/me", func(c *fiber.Ctx) error {
		p, _ := CurrentPrincipal(c)
		return c.SendString(p.Actor())
	})
	return app
}

func TestAuth(t *testing.T) {
	const secret = "middleware-secret"
	app := authApp(t, &config.Config{Env: "production", JWTSecret: secret})

	valid, err := services.IssueToken(services.Principal{ID: "u1", Email: "dana@example.com"}, secret, time.Hour)
	require.NoError(t, err)
	expired, err := services.IssueToken(services.Principal{ID: "u1"}, secret, -time.Hour)
	require.NoError(t, err)
	foreign, err := services.IssueToken(services.Principal{ID: "u1"}, "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", 401, "Authorization bearer token required"},
		{"wrong scheme", "Basic " + valid, 401, "Authorization bearer token required"},
		{"expired", "Bearer " + expired, 401, "Token expired"},
		{"wrong secret", "Bearer " + foreign, 401, "Invalid token"},
		{"valid", "bearer " + valid, 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			testutil.AssertStatus(t, resp, tt.status)
			if tt.status != 200 {
				var body utils.ErrorResponseStruct
				testutil.ParseJSON(t, resp, &body)
				assert.Equal(t, tt.message, body.Message)
				assert.Equal(t, "UNAUTHORIZED", body.ErrorCode)
			}
		})
	}
}

func TestAuthDisabledInDevelopment(t *testing.T) {
	app := authApp(t, &config.Config{Env: "development"})
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, 200)
}

func TestRequireRole(t *testing.T) {
	cfg := &config.Config{Env: "production"}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(cfg, testutil.NewTestLogger(t))})
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals(LocalsUser, services.Principal{ID: "u1", Role: role})
		}
		return c.Next()
	})
	app.Delete("/thing", RequireRole(DeleteRoles...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		role   string
		status int
		code   string
	}{
		{"no principal", "", 401, "UNAUTHORIZED"},
		{"plain user", "user", 403, "FORBIDDEN"},
		{"manager", "manager", 200, ""},
		{"admin", "admin", 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/thing", nil)
			if tt.role != "" {
				req.Header.Set("X-Test-Role", tt.role)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			testutil.AssertStatus(t, resp, tt.status)
			if tt.code != "" {
				var body utils.ErrorResponseStruct
				testutil.ParseJSON(t, resp, &body)
				assert.Equal(t, tt.code, body.ErrorCode)
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(VersionMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("apiVersion").(string))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Api-Version", "1.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, APIVersion, resp.Header.Get("X-Api-Version"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Api-Version", "2.1.0")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", resp.Header.Get("X-Api-Version"))
}
