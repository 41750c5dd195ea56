// testplan_service.go
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
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgPlanNotFound   = "Test plan not found"
	msgRunNotFound    = "Test run not found"
	msgModuleNotFound = "Module not found"
	msgModuleRequired = "Testcase data is required"
	msgPlanVersion    = "E_VERSION - Test plan was modified concurrently. Reload and retry."
)

// Module fields that an addressed update may overwrite. Identity and
// timestamps are server owned.
var planModuleFields = map[string]bool{
	"title":            true,
	"userStory":        true,
	"testCaseId":       true,
	"description":      true,
	"createdBy":        true,
	"preRequisite":     true,
	"steps":            true,
	"expectedResult":   true,
	"actualResult":     true,
	"status":           true,
	"type":             true,
	"priority":         true,
	"automationStatus": true,
	"module":           true,
	"projectId":        true,
}

// TestPlanInput is the body of a test plan create request
type TestPlanInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	SubHeading  string           `json:"subHeading"`
	Description string           `json:"description"`
	DueDateFrom types.FlexTime   `json:"dueDateFrom"`
	DueDateTo   types.FlexTime   `json:"dueDateTo"`
	ProjectID   string           `json:"projectId"`
	CreatedBy   string           `json:"createdBy"`
	TestRun     []models.PlanRun `json:"testRun"`
}

// ModulePath addresses one module inside a plan.
type ModulePath struct {
	PlanID   string
	RunID    string
	ModuleID string
}

// TestPlanService owns the plan aggregate and its embedded runs and modules.
// A plan is always loaded and saved whole.
type TestPlanService struct {
	DB       *gorm.DB
	Activity *Recorder
	Log      *zap.Logger
	// Now is the clock used for embedded timestamps; nil means time.Now.
	Now func() time.Time
}

// Create persists a new plan. Runs and modules without identities get one.
func (s *TestPlanService) Create(ctx context.Context, in TestPlanInput) (*models.TestPlan, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.DueDateFrom.IsZero() && !in.DueDateTo.IsZero() && in.DueDateTo.Before(in.DueDateFrom.Time) {
		return nil, types.ValidationFailed("dueDateTo must not be before dueDateFrom")
	}

	plan := &models.TestPlan{
		Name:        in.Name,
		SubHeading:  in.SubHeading,
		Description: in.Description,
		DueDateFrom: in.DueDateFrom.Ptr(),
		DueDateTo:   in.DueDateTo.Ptr(),
		CreatedBy:   in.CreatedBy,
		TestRun:     datatypes.JSONSlice[models.PlanRun](in.TestRun),
	}
	if in.ProjectID != "" {
		projectID := in.ProjectID
		plan.ProjectID = &projectID
	}
	plan.AssignIDs(s.now())

	if err := s.DB.WithContext(ctx).Create(plan).Error; err != nil {
		s.Log.Warn("test plan create failed", zap.Error(err))
		return nil, types.ValidationFailed("Invalid test plan data", err.Error())
	}

	s.Activity.Record(ctx, in.CreatedBy, models.ModuleTestPlan, plan.Name, models.ActionCreated)
	return plan, nil
}

// List returns every plan, newest first.
func (s *TestPlanService) List(ctx context.Context) ([]models.TestPlan, error) {
	var plans []models.TestPlan
	if err := silent(ctx, s.DB).Order("created_at DESC").Find(&plans).Error; err != nil {
		return nil, storeError(err, msgPlanNotFound)
	}
	return plans, nil
}

// Get returns one plan.
func (s *TestPlanService) Get(ctx context.Context, id string) (*models.TestPlan, error) {
	if id == "" {
		return nil, types.NotFound(msgPlanNotFound)
	}
	var plan models.TestPlan
	if err := silent(ctx, s.DB).Where("id = ?", id).Take(&plan).Error; err != nil {
		return nil, storeError(err, msgPlanNotFound)
	}
	return &plan, nil
}

// Runs returns a plan's run sequence.
func (s *TestPlanService) Runs(ctx context.Context, id string) ([]models.PlanRun, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.TestRun == nil {
		return []models.PlanRun{}, nil
	}
	return plan.TestRun, nil
}

// locate resolves path stage by stage and stops at the first miss.
func (s *TestPlanService) locate(ctx context.Context, path ModulePath) (*models.TestPlan, *models.PlanRun, *models.PlanModule, error) {
	plan, err := s.Get(ctx, path.PlanID)
	if err != nil {
		return nil, nil, nil, err
	}
	run := plan.Run(path.RunID)
	if run == nil {
		return nil, nil, nil, types.NotFound(msgRunNotFound)
	}
	module := run.ModuleByID(path.ModuleID)
	if module == nil {
		return nil, nil, nil, types.NotFound(msgModuleNotFound)
	}
	return plan, run, module, nil
}

// Module returns the module addressed by path.
func (s *TestPlanService) Module(ctx context.Context, path ModulePath) (*models.PlanModule, error) {
	var missing []string
	if path.PlanID == "" {
		missing = append(missing, "testPlanId is required")
	}
	if path.RunID == "" {
		missing = append(missing, "testRunId is required")
	}
	if path.ModuleID == "" {
		missing = append(missing, "moduleId is required")
	}
	if len(missing) > 0 {
		return nil, types.ValidationFailed("", missing...)
	}

	_, _, module, err := s.locate(ctx, path)
	if err != nil {
		return nil, err
	}
	return module, nil
}

// UpdateModule merges patch onto the module addressed by path and saves the
// whole plan. It returns the saved plan and the run holding the module.
// The save is conditional on the plan version that was loaded.
func (s *TestPlanService) UpdateModule(ctx context.Context, path ModulePath, actor string, patch map[string]json.RawMessage) (*models.TestPlan, *models.PlanRun, error) {
	plan, run, module, err := s.locate(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if len(patch) == 0 {
		return nil, nil, types.ValidationFailed(msgModuleRequired)
	}
	if err := mergeModule(module, patch, s.now()); err != nil {
		return nil, nil, err
	}

	if err := s.save(ctx, plan); err != nil {
		return nil, nil, err
	}

	s.Activity.Record(ctx, actor, models.ModuleTestPlan, plan.Name, models.ActionUpdated)
	return plan, run, nil
}

// AppendRun adds a run to the end of the plan's run sequence.
func (s *TestPlanService) AppendRun(ctx context.Context, planID, actor string, run models.PlanRun) (*models.TestPlan, *models.PlanRun, error) {
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	run.ID = ""
	for i := range run.Module {
		run.Module[i].ID = ""
	}
	added := plan.AppendRun(run, s.now())

	if err := s.save(ctx, plan); err != nil {
		return nil, nil, err
	}

	s.Activity.Record(ctx, actor, models.ModuleTestPlan, plan.Name, models.ActionUpdated)
	return plan, added, nil
}

// save rewrites the run tree when the stored version still matches.
func (s *TestPlanService) save(ctx context.Context, plan *models.TestPlan) error {
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.TestPlan{}).
		Where("id = ? AND version = ?", plan.ID, plan.Version).
		Updates(map[string]interface{}{
			"test_run":   plan.TestRun,
			"version":    plan.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return storeError(res.Error, msgPlanNotFound)
	}
	if res.RowsAffected == 0 {
		s.Log.Info("test plan version conflict", zap.String("plan", plan.ID), zap.Uint64("version", plan.Version))
		return types.Conflict(msgPlanVersion, nil)
	}
	plan.Version++
	plan.UpdatedAt = now
	return nil
}

func (s *TestPlanService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// mergeModule overwrites the module fields present in patch. Keys outside
// the module shape, and values of the wrong type, are rejected without
// touching the module.
func mergeModule(module *models.PlanModule, patch map[string]json.RawMessage, now time.Time) error {
	var rejected []string
	for key := range patch {
		if !planModuleFields[key] {
			rejected = append(rejected, fmt.Sprintf("%s is not a module field", key))
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return types.ValidationFailed("", rejected...)
	}

	current, err := json.Marshal(module)
	if err != nil {
		return types.Internal(err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return types.Internal(err)
	}
	for key, value := range patch {
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return types.Internal(err)
	}

	var next models.PlanModule
	if err := json.Unmarshal(merged, &next); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return types.ValidationFailed("", fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		}
		return types.ValidationFailed("", err.Error())
	}
	next.UpdatedAt = now
	*module = next
	return nil
}
