// testplans.go
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
	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/utils"
)

// TestPlanHandler handles test plan routes, including addressed module access
type TestPlanHandler struct {
	Service *services.TestPlanService
}

func modulePath(c *fiber.Ctx) services.ModulePath {
	return services.ModulePath{
		PlanID:   c.Params("testPlanId"),
		RunID:    c.Params("testRunId"),
		ModuleID: c.Params("moduleId"),
	}
}

// CreateTestPlan handles POST /api/test-plan
// @Summary Create a test plan
// @Description Create a plan. Runs and modules without ids are assigned one.
// @Tags TestPlans
// @Accept json
// @Produce json
// @Param body body services.TestPlanInput true "Test plan"
// @Success 201 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan [post]
func (h *TestPlanHandler) CreateTestPlan(c *fiber.Ctx) error {
	var in services.TestPlanInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.CreatedBy = actor(c, in.CreatedBy)

	plan, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, plan, fiber.StatusCreated)
}

// ListTestPlans handles GET /api/test-plan
// @Summary List test plans
// @Tags TestPlans
// @Produce json
// @Success 200 {object} utils.ListResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan [get]
func (h *TestPlanHandler) ListTestPlans(c *fiber.Ctx) error {
	plans, err := h.Service.List(c.UserContext())
	if err != nil {
		return err
	}
	return utils.ListResponse(c, plans, len(plans))
}

// GetTestPlan handles GET /api/test-plan/:id
// @Summary Get a test plan
// @Tags TestPlans
// @Produce json
// @Param id path string true "Test plan ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan/{id} [get]
func (h *TestPlanHandler) GetTestPlan(c *fiber.Ctx) error {
	plan, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, plan, fiber.StatusOK)
}

// GetTestPlanRuns handles GET /api/test-plan/testPlanRun/:id
// @Summary Get the runs of a test plan
// @Tags TestPlans
// @Produce json
// @Param id path string true "Test plan ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan/testPlanRun/{id} [get]
func (h *TestPlanHandler) GetTestPlanRuns(c *fiber.Ctx) error {
	runs, err := h.Service.Runs(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, runs, fiber.StatusOK)
}

// AppendTestPlanRun handles POST /api/test-plan/:testPlanId/runs
// @Summary Append a run to a test plan
// @Tags TestPlans
// @Accept json
// @Produce json
// @Param testPlanId path string true "Test plan ID"
// @Param body body models.PlanRun true "Run with its modules"
// @Success 201 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan/{testPlanId}/runs [post]
func (h *TestPlanHandler) AppendTestPlanRun(c *fiber.Ctx) error {
	var run models.PlanRun
	if err := parseBody(c, &run); err != nil {
		return err
	}

	plan, added, err := h.Service.AppendRun(c.UserContext(), c.Params("testPlanId"), actor(c, ""), run)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, []interface{}{plan, added}, fiber.StatusCreated)
}

// GetModule handles GET /api/test-plan/:testPlanId/:testRunId/:moduleId
// @Summary Get a module of a test plan run
// @Tags TestPlans
// @Produce json
// @Param testPlanId path string true "Test plan ID"
// @Param testRunId path string true "Run ID"
// @Param moduleId path string true "Module ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan/{testPlanId}/{testRunId}/{moduleId} [get]
func (h *TestPlanHandler) GetModule(c *fiber.Ctx) error {
	module, err := h.Service.Module(c.UserContext(), modulePath(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, module, fiber.StatusOK)
}

// UpdateModule handles PUT /api/test-plan/:testPlanId/:testRunId/:moduleId
// @Summary Update a module of a test plan run
// @Description Merge the body into one module and save the plan. Responds with the plan and the run holding the module.
// @Tags TestPlans
// @Accept json
// @Produce json
// @Param testPlanId path string true "Test plan ID"
// @Param testRunId path string true "Run ID"
// @Param moduleId path string true "Module ID"
// @Param body body map[string]interface{} true "Module fields"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-plan/{testPlanId}/{testRunId}/{moduleId} [put]
func (h *TestPlanHandler) UpdateModule(c *fiber.Ctx) error {
	patch, err := parsePatch(c)
	if err != nil {
		return err
	}

	plan, run, err := h.Service.UpdateModule(c.UserContext(), modulePath(c), actor(c, ""), patch)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, []interface{}{plan, run}, fiber.StatusOK)
}
