// routes.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/middleware"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Activity  *services.Recorder
	Allocator services.IDAllocator
}

// NewApp creates the Fiber app with the error handler and panic recovery.
func NewApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(cfg, log),
		BodyLimit:             cfg.UploadMaxBytes,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	return app
}

// Register mounts the API under /api.
func Register(app *fiber.App, deps Deps) {
	auth := middleware.Auth(deps.Config, deps.Log)
	canDelete := middleware.RequireRole(middleware.DeleteRoles...)

	testCases := &TestCaseHandler{Service: &services.TestCaseService{
		DB: deps.DB, Allocator: deps.Allocator, Activity: deps.Activity, Log: deps.Log,
	}}
	testPlans := &TestPlanHandler{Service: &services.TestPlanService{
		DB: deps.DB, Activity: deps.Activity, Log: deps.Log,
	}}
	testRuns := &TestRunHandler{Service: &services.TestRunService{
		DB: deps.DB, Activity: deps.Activity, Log: deps.Log,
	}}
	projects := &ProjectHandler{Service: &services.ProjectService{
		DB: deps.DB, Activity: deps.Activity, Log: deps.Log,
	}}
	system := &SystemHandler{Config: deps.Config, DB: deps.DB, Log: deps.Log}

	api := app.Group("/api", middleware.VersionMiddleware())

	// Public
	api.Get("/health", system.Health)

	api.Get("/recent-activity", auth, system.RecentActivity)

	// Projects
	pr := api.Group("/projects", auth)
	pr.Post("/", projects.CreateProject)
	pr.Get("/", projects.ListProjects)
	pr.Get("/:id", projects.GetProject)
	pr.Put("/:id", projects.UpdateProject)
	pr.Delete("/:id", canDelete, projects.DeleteProject)
	pr.Post("/:id/test-cases", projects.AttachTestCase)

	// Test cases, upload and download before the :id routes
	tc := api.Group("/testcases", auth)
	tc.Post("/upload", testCases.UploadTestCases)
	tc.Get("/download", testCases.DownloadTestCases)
	tc.Post("/", testCases.CreateTestCase)
	tc.Get("/", testCases.ListTestCases)
	tc.Get("/:id", testCases.GetTestCase)
	tc.Put("/:id", testCases.UpdateTestCase)
	tc.Delete("/:id", canDelete, testCases.DeleteTestCase)

	// Test plans
	tp := api.Group("/test-plan", auth)
	tp.Post("/", testPlans.CreateTestPlan)
	tp.Get("/", testPlans.ListTestPlans)
	tp.Get("/testPlanRun/:id", testPlans.GetTestPlanRuns)
	tp.Post("/:testPlanId/runs", testPlans.AppendTestPlanRun)
	tp.Get("/:testPlanId/:testRunId/:moduleId", testPlans.GetModule)
	tp.Put("/:testPlanId/:testRunId/:moduleId", testPlans.UpdateModule)
	tp.Get("/:id", testPlans.GetTestPlan)

	// Standalone test runs
	tr := api.Group("/test-runs", auth)
	tr.Post("/", testRuns.CreateTestRun)
	tr.Get("/", testRuns.ListTestRuns)
	tr.Get("/:id", testRuns.GetTestRun)
	tr.Put("/:id", testRuns.UpdateTestRun)
	tr.Delete("/:id", testRuns.DeleteTestRun)
}

// NotFound is the terminal handler for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
