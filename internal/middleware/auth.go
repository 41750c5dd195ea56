package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/types"
	"go.uber.org/zap"
)

// LocalsUser is the fiber.Ctx locals key holding the authenticated services.Principal.
const LocalsUser = "user"

// anonymous is the principal used when auth is disabled in development.
var anonymous = services.Principal{ID: "anonymous", Name: "anonymous", Role: "admin"}

// Auth verifies the bearer token of every request and stores the caller in
// the request locals. With an empty secret in development every request runs
// as the anonymous principal.
func Auth(cfg *config.Config, log *zap.Logger) fiber.Handler {
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		log.Warn("JWT_SECRET is empty, requests are not authenticated")
		return func(c *fiber.Ctx) error {
			c.Locals(LocalsUser, anonymous)
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return types.Unauthorized("Authorization bearer token required")
		}

		principal, err := services.ValidateToken(token, cfg.JWTSecret)
		if errors.Is(err, services.ErrTokenExpired) {
			return types.Unauthorized("Token expired")
		}
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			return types.Unauthorized("Invalid token")
		}

		c.Locals(LocalsUser, principal)
		return c.Next()
	}
}

// DeleteRoles may remove projects and test cases.
var DeleteRoles = []string{"admin", "manager"}

// RequireRole rejects callers whose role is not one of roles. It runs after Auth.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			return types.Unauthorized("Authentication required")
		}
		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}
		return types.Forbidden("You do not have permission to perform this action")
	}
}

// CurrentPrincipal returns the caller stored by Auth.
func CurrentPrincipal(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(LocalsUser).(services.Principal)
	return p, ok
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
