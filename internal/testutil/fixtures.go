// fixtures.go
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

package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateProject inserts a project.
func CreateProject(t *testing.T, db *gorm.DB, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, CreatedBy: "fixture"}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateTestCase inserts a test case with code TC-<seq> referenced by project.
func CreateTestCase(t *testing.T, db *gorm.DB, project *models.Project, seq int64, title string) *models.TestCase {
	t.Helper()
	code := fmt.Sprintf("TC-%04d", seq)
	tc := &models.TestCase{
		TestCaseID: code,
		Sequence:   seq,
		Title:      title,
		Status:     models.DefaultStatus,
		Module:     "fixtures",
		CreatedBy:  "fixture",
	}
	if project != nil {
		pid := project.ID
		tc.ProjectID = &pid
	}
	require.NoError(t, db.Create(tc).Error)

	if project != nil {
		project.TestCases = append(project.TestCases, tc.ID)
		require.NoError(t, db.Model(&models.Project{ID: project.ID}).Update("test_cases", project.TestCases).Error)
	}
	return tc
}

// PlanModule returns a module snapshot fixture.
func PlanModule(title, status string) models.PlanModule {
	return models.PlanModule{
		Title:            title,
		Status:           status,
		Steps:            "open " + title,
		ExpectedResult:   title + " works",
		Priority:         models.DefaultPriority,
		AutomationStatus: models.DefaultAutomationStatus,
		Type:             models.DefaultType,
	}
}

// CreatePlan inserts a plan holding the given runs. Identities are assigned
// to runs and modules on insert.
func CreatePlan(t *testing.T, db *gorm.DB, name string, runs ...models.PlanRun) *models.TestPlan {
	t.Helper()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	plan := &models.TestPlan{
		Name:        name,
		SubHeading:  "Q1",
		DueDateFrom: &from,
		DueDateTo:   &to,
		CreatedBy:   "fixture",
		TestRun:     datatypes.JSONSlice[models.PlanRun](runs),
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}
