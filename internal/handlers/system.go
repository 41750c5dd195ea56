package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// SystemHandler handles health and recent activity routes
type SystemHandler struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger
}

// Health handles GET /api/health
// @Summary Service health
// @Tags System
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Log)
	status := fiber.StatusOK
	if !result.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}

// RecentActivity handles GET /api/recent-activity
// @Summary Recent activity
// @Description Newest entries first
// @Tags System
// @Produce json
// @Param limit query int false "Maximum entries (default 20, max 100)"
// @Success 200 {object} utils.ListResponseStruct
// @Security BearerAuth
// @Router /recent-activity [get]
func (h *SystemHandler) RecentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)
	if limit <= 0 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}

	entries, err := services.ListRecentActivity(c.UserContext(), h.DB, limit)
	if err != nil {
		return err
	}
	return utils.ListResponse(c, entries, len(entries))
}
