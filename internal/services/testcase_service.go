// testcase_service.go
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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestCaseInput is the body of a test case create request
type TestCaseInput struct {
	Title            string `json:"title" validate:"required,max=255"`
	UserStory        string `json:"userStory"`
	Description      string `json:"description"`
	PreRequisite     string `json:"preRequisite"`
	Steps            string `json:"steps"`
	ExpectedResult   string `json:"expectedResult"`
	ActualResult     string `json:"actualResult"`
	Status           string `json:"status"`
	Type             string `json:"type"`
	Priority         string `json:"priority"`
	AutomationStatus string `json:"automationStatus"`
	Module           string `json:"module"`
	ProjectID        string `json:"projectId" validate:"required"`
	CreatedBy        string `json:"createdBy" validate:"required"`
}

// TestCaseFilter narrows list and export queries. Module matches as a
// case-insensitive prefix.
type TestCaseFilter struct {
	Module    string
	ProjectID string
}

// updatable test case fields by json key
var testCaseColumns = map[string]string{
	"title":            "title",
	"userStory":        "user_story",
	"description":      "description",
	"preRequisite":     "pre_requisite",
	"steps":            "steps",
	"expectedResult":   "expected_result",
	"actualResult":     "actual_result",
	"status":           "status",
	"type":             "type",
	"priority":         "priority",
	"automationStatus": "automation_status",
	"module":           "module",
	"projectId":        "project_id",
	"updatedBy":        "updated_by",
}

// TestCaseService owns standalone test cases and their project back references.
type TestCaseService struct {
	DB        *gorm.DB
	Allocator IDAllocator
	Activity  *Recorder
	Log       *zap.Logger
}

// Create allocates the next code, persists the test case and appends it to
// its project. The two writes are not atomic: a failed append is logged and
// the created test case is still returned.
func (s *TestCaseService) Create(ctx context.Context, in TestCaseInput) (*models.TestCase, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.DB, in.ProjectID)
	if err != nil {
		return nil, err
	}

	code, err := s.Allocator.Next(ctx)
	if err != nil {
		return nil, types.Internal(err)
	}

	projectID := project.ID
	tc := &models.TestCase{
		TestCaseID:       code.ID,
		Sequence:         code.Sequence,
		Title:            in.Title,
		UserStory:        in.UserStory,
		Description:      in.Description,
		PreRequisite:     in.PreRequisite,
		Steps:            in.Steps,
		ExpectedResult:   in.ExpectedResult,
		ActualResult:     in.ActualResult,
		Status:           in.Status,
		Type:             in.Type,
		Priority:         in.Priority,
		AutomationStatus: in.AutomationStatus,
		Module:           in.Module,
		Script:           GenerateScript(code.ID, in.Steps, in.ExpectedResult),
		ProjectID:        &projectID,
		CreatedBy:        in.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(tc).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}

	if err := attachTestCases(ctx, s.DB, project.ID, tc.ID); err != nil {
		s.Log.Warn("test case created without project reference",
			zap.String("testCase", tc.ID), zap.String("project", project.ID), zap.Error(err))
	}

	s.Activity.TestCaseEvent(ctx, models.ActionCreated, in.CreatedBy, tc)
	return tc, nil
}

// List returns test cases in allocation order, each with its activity log
// entries newest first.
func (s *TestCaseService) List(ctx context.Context, filter TestCaseFilter) ([]models.TestCase, error) {
	var cases []models.TestCase
	if err := filter.apply(silent(ctx, s.DB)).Order("sequence ASC").Find(&cases).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}
	if len(cases) == 0 {
		return cases, nil
	}

	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}

	var logs []models.ActivityLog
	if err := silent(ctx, s.DB).
		Where("entity = ? AND entity_id IN ?", models.EntityTestCase, ids).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}

	byCase := make(map[string][]models.ActivityLog, len(cases))
	for _, l := range logs {
		if l.EntityID != nil {
			byCase[*l.EntityID] = append(byCase[*l.EntityID], l)
		}
	}
	for i := range cases {
		entries := byCase[cases[i].ID]
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].CreatedAt.After(entries[b].CreatedAt)
		})
		cases[i].ActivityLogs = entries
	}
	return cases, nil
}

// Get returns a test case with its project name resolved.
func (s *TestCaseService) Get(ctx context.Context, id string) (*models.TestCase, error) {
	var tc models.TestCase
	if err := silent(ctx, s.DB).Preload("Project").Where("id = ?", id).Take(&tc).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}
	return &tc, nil
}

// Update applies a partial field set. updatedBy is required; testCaseId and
// script are server owned and dropped from the patch, as are unknown keys.
// The script is regenerated when steps or expectedResult change.
func (s *TestCaseService) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.TestCase, error) {
	updatedBy, err := patchString(patch, "updatedBy")
	if err != nil {
		return nil, err
	}
	if updatedBy == nil || strings.TrimSpace(*updatedBy) == "" {
		return nil, types.ValidationFailed("updatedBy is required")
	}

	var current models.TestCase
	if err := silent(ctx, s.DB).Where("id = ?", id).Take(&current).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}

	updates := map[string]interface{}{}
	var details []string
	for key, column := range testCaseColumns {
		value, err := patchString(patch, key)
		if err != nil {
			details = append(details, err.Error())
			continue
		}
		if value == nil {
			if raw, ok := patch[key]; ok && string(raw) == "null" {
				updates[column] = nil
			}
			continue
		}
		updates[column] = *value
	}
	if len(details) > 0 {
		sort.Strings(details)
		return nil, types.ValidationFailed("", details...)
	}

	var newProjectID string
	if v, ok := updates["project_id"]; ok {
		if p, isString := v.(string); isString && p != "" {
			project, err := loadProject(ctx, s.DB, p)
			if err != nil {
				return nil, err
			}
			newProjectID = project.ID
		} else {
			updates["project_id"] = nil
		}
	}

	_, stepsChanged := updates["steps"]
	_, expectedChanged := updates["expected_result"]
	if stepsChanged || expectedChanged {
		steps, expected := current.Steps, current.ExpectedResult
		if stepsChanged {
			steps, _ = updates["steps"].(string)
		}
		if expectedChanged {
			expected, _ = updates["expected_result"].(string)
		}
		updates["script"] = GenerateScript(current.TestCaseID, steps, expected)
	}

	if err := s.DB.WithContext(ctx).Model(&models.TestCase{ID: current.ID}).Updates(updates).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}

	if _, moved := updates["project_id"]; moved {
		if err := s.moveProject(ctx, current, newProjectID); err != nil {
			return nil, err
		}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Activity.TestCaseEvent(ctx, models.ActionUpdated, *updatedBy, updated)
	return updated, nil
}

// Delete removes the test case from its project's reference set, then deletes it.
func (s *TestCaseService) Delete(ctx context.Context, id string) error {
	var tc models.TestCase
	if err := silent(ctx, s.DB).Where("id = ?", id).Take(&tc).Error; err != nil {
		return storeError(err, msgTestCaseNotFound)
	}

	if tc.ProjectID != nil {
		if err := detachTestCase(ctx, s.DB, *tc.ProjectID, tc.ID); err != nil {
			return err
		}
	}
	if err := s.DB.WithContext(ctx).Delete(&models.TestCase{ID: tc.ID}).Error; err != nil {
		return storeError(err, msgTestCaseNotFound)
	}
	return nil
}

func (s *TestCaseService) moveProject(ctx context.Context, current models.TestCase, newProjectID string) error {
	if current.ProjectID != nil && *current.ProjectID != newProjectID {
		if err := detachTestCase(ctx, s.DB, *current.ProjectID, current.ID); err != nil {
			return err
		}
	}
	if newProjectID != "" {
		return attachTestCases(ctx, s.DB, newProjectID, current.ID)
	}
	return nil
}

func (f TestCaseFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Module != "" {
		db = db.Where("LOWER(module) LIKE ?", strings.ToLower(f.Module)+"%")
	}
	if f.ProjectID != "" {
		db = db.Where("project_id = ?", f.ProjectID)
	}
	return db
}

// patchString reads key from patch as a string. A missing key or JSON null
// yields nil.
func patchString(patch map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := patch[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s must be a string", key)
	}
	return &v, nil
}
