// export_service.go
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

package services

import (
	"context"
	"io"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/sheets"
	"github.com/localnerve/testcasedb/internal/types"
)

// ExportFilename is the attachment name of the exported workbook.
const ExportFilename = "test-cases.xlsx"

const noProjectName = "N/A"

var exportColumns = []sheets.Column{
	{Header: "Test Case ID", Width: 15},
	{Header: "Title", Width: 20},
	{Header: "Project", Width: 20},
	{Header: "Module", Width: 20},
	{Header: "Description", Width: 40},
	{Header: "Pre-Requisite", Width: 30},
	{Header: "Steps", Width: 50},
	{Header: "Expected Result", Width: 40},
	{Header: "Priority", Width: 10},
	{Header: "Automation Status", Width: 15},
	{Header: "Status", Width: 15},
	{Header: "Script", Width: 50},
	{Header: "Created At", Width: 20},
	{Header: "Updated At", Width: 20},
}

// Export writes the filtered test cases, newest first, as an xlsx workbook.
func (s *TestCaseService) Export(ctx context.Context, filter TestCaseFilter, w io.Writer) error {
	var cases []models.TestCase
	if err := filter.apply(silent(ctx, s.DB)).
		Preload("Project").
		Order("created_at DESC").
		Find(&cases).Error; err != nil {
		return storeError(err, msgTestCaseNotFound)
	}

	wb, err := sheets.NewWorkbook("Test Cases", exportColumns)
	if err != nil {
		return types.Internal(err)
	}
	defer wb.Close()

	for _, tc := range cases {
		projectName := noProjectName
		if tc.Project != nil && tc.Project.Name != "" {
			projectName = tc.Project.Name
		}
		if err := wb.AddRow(
			tc.TestCaseID,
			tc.Title,
			projectName,
			tc.Module,
			tc.Description,
			tc.PreRequisite,
			tc.Steps,
			tc.ExpectedResult,
			tc.Priority,
			tc.AutomationStatus,
			tc.Status,
			tc.Script,
			tc.CreatedAt,
			tc.UpdatedAt,
		); err != nil {
			return types.Internal(err)
		}
	}

	if _, err := wb.WriteTo(w); err != nil {
		return types.Internal(err)
	}
	return nil
}
