// testruns.go
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
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/utils"
)

// TestRunHandler handles standalone test run routes
type TestRunHandler struct {
	Service *services.TestRunService
}

// CreateTestRun handles POST /api/test-runs
// @Summary Create a test run
// @Tags TestRuns
// @Accept json
// @Produce json
// @Param body body services.TestRunInput true "Test run"
// @Success 201 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-runs [post]
func (h *TestRunHandler) CreateTestRun(c *fiber.Ctx) error {
	var in services.TestRunInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.CreatedBy = actor(c, in.CreatedBy)

	run, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, run, fiber.StatusCreated)
}

// ListTestRuns handles GET /api/test-runs
// @Summary List test runs
// @Tags TestRuns
// @Produce json
// @Success 200 {object} utils.ListResponseStruct
// @Security BearerAuth
// @Router /test-runs [get]
func (h *TestRunHandler) ListTestRuns(c *fiber.Ctx) error {
	runs, err := h.Service.List(c.UserContext())
	if err != nil {
		return err
	}
	return utils.ListResponse(c, runs, len(runs))
}

// GetTestRun handles GET /api/test-runs/:id
// @Summary Get a test run
// @Tags TestRuns
// @Produce json
// @Param id path string true "Test run ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-runs/{id} [get]
func (h *TestRunHandler) GetTestRun(c *fiber.Ctx) error {
	run, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, run, fiber.StatusOK)
}

// UpdateTestRun handles PUT /api/test-runs/:id
// @Summary Update a test run
// @Tags TestRuns
// @Accept json
// @Produce json
// @Param id path string true "Test run ID"
// @Param body body services.TestRunUpdate true "Fields to update"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-runs/{id} [put]
func (h *TestRunHandler) UpdateTestRun(c *fiber.Ctx) error {
	var in services.TestRunUpdate
	if err := parseBody(c, &in); err != nil {
		return err
	}

	run, err := h.Service.Update(c.UserContext(), c.Params("id"), actor(c, ""), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, run, fiber.StatusOK)
}

// DeleteTestRun handles DELETE /api/test-runs/:id
// @Summary Delete a test run
// @Tags TestRuns
// @Produce json
// @Param id path string true "Test run ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /test-runs/{id} [delete]
func (h *TestRunHandler) DeleteTestRun(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Test run deleted successfully", fiber.StatusOK)
}
