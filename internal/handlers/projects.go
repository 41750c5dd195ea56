// projects.go
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

// ProjectHandler handles project routes
type ProjectHandler struct {
	Service *services.ProjectService
}

type attachInput struct {
	TestCaseID string `json:"testCaseId"`
}

// CreateProject handles POST /api/projects
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body services.ProjectInput true "Project"
// @Success 201 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var in services.ProjectInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.CreatedBy = actor(c, in.CreatedBy)

	project, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, project, fiber.StatusCreated)
}

// ListProjects handles GET /api/projects
// @Summary List projects
// @Tags Projects
// @Produce json
// @Success 200 {object} utils.ListResponseStruct
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.Service.List(c.UserContext())
	if err != nil {
		return err
	}
	return utils.ListResponse(c, projects, len(projects))
}

// GetProject handles GET /api/projects/:id
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, project, fiber.StatusOK)
}

// UpdateProject handles PUT /api/projects/:id
// @Summary Update a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param body body services.ProjectUpdate true "Fields to update"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	var in services.ProjectUpdate
	if err := parseBody(c, &in); err != nil {
		return err
	}

	project, err := h.Service.Update(c.UserContext(), c.Params("id"), actor(c, ""), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, project, fiber.StatusOK)
}

// DeleteProject handles DELETE /api/projects/:id
// @Summary Delete a project
// @Description Delete a project. Its test cases are kept without a project.
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Project deleted successfully", fiber.StatusOK)
}

// AttachTestCase handles POST /api/projects/:id/test-cases
// @Summary Attach a test case to a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param body body attachInput true "Test case reference"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id}/test-cases [post]
func (h *ProjectHandler) AttachTestCase(c *fiber.Ctx) error {
	var in attachInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	project, err := h.Service.AttachTestCase(c.UserContext(), c.Params("id"), in.TestCaseID)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, project, fiber.StatusOK)
}
