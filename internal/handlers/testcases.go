// testcases.go
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
	"bytes"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/sheets"
	"github.com/localnerve/testcasedb/internal/types"
	"github.com/localnerve/testcasedb/internal/utils"
)

// TestCaseHandler handles standalone test case routes
type TestCaseHandler struct {
	Service *services.TestCaseService
}

// CreateTestCase handles POST /api/testcases
// @Summary Create a test case
// @Description Create a test case with the next sequential code and append it to its project
// @Tags TestCases
// @Accept json
// @Produce json
// @Param body body services.TestCaseInput true "Test case"
// @Success 201 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases [post]
func (h *TestCaseHandler) CreateTestCase(c *fiber.Ctx) error {
	var in services.TestCaseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.CreatedBy = actor(c, in.CreatedBy)

	tc, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, tc, fiber.StatusCreated)
}

// ListTestCases handles GET /api/testcases
// @Summary List test cases
// @Description List test cases in code order with their activity logs
// @Tags TestCases
// @Produce json
// @Param module query string false "Module prefix, case insensitive"
// @Param projectId query string false "Project ID"
// @Success 200 {object} utils.ListResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases [get]
func (h *TestCaseHandler) ListTestCases(c *fiber.Ctx) error {
	cases, err := h.Service.List(c.UserContext(), parseFilter(c))
	if err != nil {
		return err
	}
	return utils.ListResponse(c, cases, len(cases))
}

// GetTestCase handles GET /api/testcases/:id
// @Summary Get a test case
// @Tags TestCases
// @Produce json
// @Param id path string true "Test case ID"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases/{id} [get]
func (h *TestCaseHandler) GetTestCase(c *fiber.Ctx) error {
	tc, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, tc, fiber.StatusOK)
}

// UpdateTestCase handles PUT /api/testcases/:id
// @Summary Update a test case
// @Description Partial update. updatedBy is required. testCaseId and script are server owned and ignored.
// @Tags TestCases
// @Accept json
// @Produce json
// @Param id path string true "Test case ID"
// @Param body body map[string]interface{} true "Fields to update"
// @Success 200 {object} utils.DataResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases/{id} [put]
func (h *TestCaseHandler) UpdateTestCase(c *fiber.Ctx) error {
	patch, err := parsePatch(c)
	if err != nil {
		return err
	}

	tc, err := h.Service.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, tc, fiber.StatusOK)
}

// DeleteTestCase handles DELETE /api/testcases/:id
// @Summary Delete a test case
// @Tags TestCases
// @Produce json
// @Param id path string true "Test case ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases/{id} [delete]
func (h *TestCaseHandler) DeleteTestCase(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Test case deleted successfully", fiber.StatusOK)
}

// UploadTestCases handles POST /api/testcases/upload
// @Summary Bulk import test cases
// @Description Import the first sheet of an xlsx workbook, one test case per row
// @Tags TestCases
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Param module formData string true "Module name"
// @Param projectId formData string true "Project ID"
// @Param createdBy formData string true "Creator"
// @Success 201 {object} services.ImportResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases/upload [post]
func (h *TestCaseHandler) UploadTestCases(c *fiber.Ctx) error {
	in := services.ImportInput{
		Module:    c.FormValue("module"),
		ProjectID: c.FormValue("projectId"),
		CreatedBy: strings.TrimSpace(c.FormValue("createdBy")),
	}

	if fh, err := c.FormFile("file"); err == nil {
		var f multipart.File
		if f, err = fh.Open(); err != nil {
			return types.ValidationFailed("Unreadable upload", err.Error())
		}
		defer f.Close()
		in.File = f
	}

	result, err := h.Service.Import(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// DownloadTestCases handles GET /api/testcases/download
// @Summary Export test cases
// @Description Download the filtered test cases as an xlsx workbook
// @Tags TestCases
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param module query string false "Module prefix, case insensitive"
// @Param projectId query string false "Project ID"
// @Success 200 {file} file
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /testcases/download [get]
func (h *TestCaseHandler) DownloadTestCases(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Service.Export(c.UserContext(), parseFilter(c), &buf); err != nil {
		return err
	}
	c.Attachment(services.ExportFilename)
	c.Set(fiber.HeaderContentType, sheets.ContentType)
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
