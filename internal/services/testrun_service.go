// testrun_service.go
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

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgTestRunNotFound = "Test run not found"

// TestRunInput is the body of a standalone test run create request
type TestRunInput struct {
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description"`
	AssignedTo  string                 `json:"assignedTo"`
	Module      string                 `json:"module"`
	ProjectID   string                 `json:"projectId"`
	DueDateFrom types.FlexTime         `json:"dueDateFrom"`
	DueDateTo   types.FlexTime         `json:"dueDateTo"`
	CreatedBy   string                 `json:"createdBy"`
	TestCases   types.FlexList[string] `json:"testCases"`
}

// TestRunUpdate is the body of a test run update request. Absent fields are left unchanged.
type TestRunUpdate struct {
	Name        *string                 `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string                 `json:"description"`
	AssignedTo  *string                 `json:"assignedTo"`
	Module      *string                 `json:"module"`
	ProjectID   *string                 `json:"projectId"`
	DueDateFrom *types.FlexTime         `json:"dueDateFrom"`
	DueDateTo   *types.FlexTime         `json:"dueDateTo"`
	TestCases   *types.FlexList[string] `json:"testCases"`
}

// TestRunService manages standalone test runs.
type TestRunService struct {
	DB       *gorm.DB
	Activity *Recorder
	Log      *zap.Logger
}

// Create persists a run. Every referenced test case must exist.
func (s *TestRunService) Create(ctx context.Context, in TestRunInput) (*models.TestRun, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ids := dedupe(in.TestCases.Slice())
	if err := s.checkTestCases(ctx, ids); err != nil {
		return nil, err
	}

	run := &models.TestRun{
		Name:        in.Name,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		Module:      in.Module,
		ProjectID:   in.ProjectID,
		DueDateFrom: in.DueDateFrom.Ptr(),
		DueDateTo:   in.DueDateTo.Ptr(),
		CreatedBy:   in.CreatedBy,
		TestCaseIDs: models.IDList(ids),
	}
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, types.ValidationFailed("Invalid test run data", err.Error())
	}

	s.Activity.Record(ctx, in.CreatedBy, models.ModuleTestRun, run.Name, models.ActionCreated)
	return s.Get(ctx, run.ID)
}

// List returns every run with its test cases resolved.
func (s *TestRunService) List(ctx context.Context) ([]models.TestRun, error) {
	var runs []models.TestRun
	if err := silent(ctx, s.DB).Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, storeError(err, msgTestRunNotFound)
	}
	for i := range runs {
		if err := s.resolve(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Get returns one run with its test cases resolved.
func (s *TestRunService) Get(ctx context.Context, id string) (*models.TestRun, error) {
	var run models.TestRun
	if err := silent(ctx, s.DB).Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, storeError(err, msgTestRunNotFound)
	}
	if err := s.resolve(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Update applies the fields present in in.
func (s *TestRunService) Update(ctx context.Context, id, actor string, in TestRunUpdate) (*models.TestRun, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var run models.TestRun
	if err := silent(ctx, s.DB).Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, storeError(err, msgTestRunNotFound)
	}

	updates := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("name", in.Name)
	setString("description", in.Description)
	setString("assigned_to", in.AssignedTo)
	setString("module", in.Module)
	setString("project_id", in.ProjectID)
	if in.DueDateFrom != nil {
		updates["due_date_from"] = in.DueDateFrom.Ptr()
	}
	if in.DueDateTo != nil {
		updates["due_date_to"] = in.DueDateTo.Ptr()
	}
	if in.TestCases != nil {
		ids := dedupe(in.TestCases.Slice())
		if err := s.checkTestCases(ctx, ids); err != nil {
			return nil, err
		}
		updates["test_cases"] = models.IDList(ids)
	}

	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.TestRun{ID: run.ID}).Updates(updates).Error; err != nil {
			return nil, types.ValidationFailed("Invalid test run data", err.Error())
		}
		s.Activity.Record(ctx, actor, models.ModuleTestRun, run.Name, models.ActionUpdated)
	}
	return s.Get(ctx, id)
}

// Delete removes a run.
func (s *TestRunService) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.TestRun{ID: id})
	if res.Error != nil {
		return storeError(res.Error, msgTestRunNotFound)
	}
	if res.RowsAffected == 0 {
		return types.NotFound(msgTestRunNotFound)
	}
	return nil
}

func (s *TestRunService) checkTestCases(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := silent(ctx, s.DB).Model(&models.TestCase{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return storeError(err, msgTestCaseNotFound)
	}
	if count != int64(len(ids)) {
		return types.NotFound(msgTestCaseNotFound)
	}
	return nil
}

// resolve loads the referenced test cases in reference order. References to
// deleted test cases are skipped.
func (s *TestRunService) resolve(ctx context.Context, run *models.TestRun) error {
	run.TestCases = []models.TestCase{}
	if len(run.TestCaseIDs) == 0 {
		return nil
	}

	var cases []models.TestCase
	if err := silent(ctx, s.DB).Where("id IN ?", []string(run.TestCaseIDs)).Find(&cases).Error; err != nil {
		return storeError(err, msgTestCaseNotFound)
	}
	byID := make(map[string]models.TestCase, len(cases))
	for _, tc := range cases {
		byID[tc.ID] = tc
	}
	for _, id := range run.TestCaseIDs {
		if tc, ok := byID[id]; ok {
			run.TestCases = append(run.TestCases, tc)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
