// project_service.go
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
	"gorm.io/gorm/clause"
)

const (
	msgProjectNotFound  = "Project not found"
	msgTestCaseNotFound = "Test case not found"
)

// ProjectInput is the body of a project create request
type ProjectInput struct {
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description"`
	ProjectType string                 `json:"projectType"`
	AssignedTo  types.FlexList[string] `json:"assignedTo"`
	CreatedBy   string                 `json:"createdBy"`
}

// ProjectUpdate is the body of a project update request. Absent fields are left unchanged.
type ProjectUpdate struct {
	Name        *string                 `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string                 `json:"description"`
	ProjectType *string                 `json:"projectType"`
	AssignedTo  *types.FlexList[string] `json:"assignedTo"`
}

// TestCaseSummary is the resolved form of a project's test case reference.
type TestCaseSummary struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	TestCaseID string `json:"testCaseId"`
	Status     string `json:"status"`
}

// ProjectDetail is a project with its test case references resolved.
type ProjectDetail struct {
	models.Project
	TestCases []TestCaseSummary `json:"testCases"`
}

// ProjectService manages projects and their test case reference sets.
type ProjectService struct {
	DB       *gorm.DB
	Activity *Recorder
	Log      *zap.Logger
}

// Create persists a new project.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        in.Name,
		Description: in.Description,
		ProjectType: in.ProjectType,
		AssignedTo:  models.IDList(in.AssignedTo.Slice()),
		CreatedBy:   in.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(project).Error; err != nil {
		return nil, storeError(err, msgProjectNotFound)
	}

	s.Activity.Record(ctx, in.CreatedBy, models.ModuleProject, project.Name, models.ActionCreated)
	return project, nil
}

// List returns every project with resolved test case summaries.
func (s *ProjectService) List(ctx context.Context) ([]ProjectDetail, error) {
	var projects []models.Project
	if err := silent(ctx, s.DB).Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, storeError(err, msgProjectNotFound)
	}

	var ids []string
	for _, p := range projects {
		ids = append(ids, p.TestCases...)
	}
	summaries, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectDetail, len(projects))
	for i, p := range projects {
		out[i] = ProjectDetail{Project: p, TestCases: resolveSummaries(p.TestCases, summaries)}
	}
	return out, nil
}

// Get returns one project with resolved test case summaries.
func (s *ProjectService) Get(ctx context.Context, id string) (*ProjectDetail, error) {
	project, err := loadProject(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summaries(ctx, project.TestCases)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: *project, TestCases: resolveSummaries(project.TestCases, summaries)}, nil
}

// Update applies the fields present in in.
func (s *ProjectService) Update(ctx context.Context, id, actor string, in ProjectUpdate) (*models.Project, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ProjectType != nil {
		updates["project_type"] = *in.ProjectType
	}
	if in.AssignedTo != nil {
		updates["assigned_to"] = models.IDList(in.AssignedTo.Slice())
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Project{ID: project.ID}).Updates(updates).Error; err != nil {
			return nil, storeError(err, msgProjectNotFound)
		}
		s.Activity.Record(ctx, actor, models.ModuleProject, project.Name, models.ActionUpdated)
	}

	return loadProject(ctx, s.DB, id)
}

// Delete clears the project reference of its test cases, then removes the project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	project, err := loadProject(ctx, s.DB, id)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Model(&models.TestCase{}).
		Where("project_id = ?", project.ID).
		Update("project_id", nil).Error; err != nil {
		return storeError(err, msgProjectNotFound)
	}
	if err := s.DB.WithContext(ctx).Delete(&models.Project{ID: project.ID}).Error; err != nil {
		return storeError(err, msgProjectNotFound)
	}

	s.Log.Info("project deleted", zap.String("project", project.ID), zap.Int("testCases", len(project.TestCases)))
	return nil
}

// AttachTestCase moves an existing test case into the project. Attaching a
// test case that is already referenced is a no-op.
func (s *ProjectService) AttachTestCase(ctx context.Context, projectID, testCaseID string) (*models.Project, error) {
	if testCaseID == "" {
		return nil, types.ValidationFailed("testCaseId is required")
	}
	project, err := loadProject(ctx, s.DB, projectID)
	if err != nil {
		return nil, err
	}

	var tc models.TestCase
	if err := silent(ctx, s.DB).Select("id", "project_id").Where("id = ?", testCaseID).Take(&tc).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}

	if tc.ProjectID != nil && *tc.ProjectID != project.ID {
		if err := detachTestCase(ctx, s.DB, *tc.ProjectID, tc.ID); err != nil {
			return nil, err
		}
	}
	if err := s.DB.WithContext(ctx).Model(&models.TestCase{ID: tc.ID}).
		Update("project_id", project.ID).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}
	if err := attachTestCases(ctx, s.DB, project.ID, tc.ID); err != nil {
		return nil, err
	}

	return loadProject(ctx, s.DB, project.ID)
}

func (s *ProjectService) summaries(ctx context.Context, ids []string) (map[string]TestCaseSummary, error) {
	out := make(map[string]TestCaseSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []TestCaseSummary
	if err := silent(ctx, s.DB).Model(&models.TestCase{}).
		Select("id", "title", "test_case_id", "status").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, storeError(err, msgTestCaseNotFound)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// resolveSummaries keeps the reference order and drops dangling references.
func resolveSummaries(ids models.IDList, found map[string]TestCaseSummary) []TestCaseSummary {
	out := make([]TestCaseSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := found[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func loadProject(ctx context.Context, db *gorm.DB, id string) (*models.Project, error) {
	if id == "" {
		return nil, types.NotFound(msgProjectNotFound)
	}
	var project models.Project
	if err := silent(ctx, db).Where("id = ?", id).Take(&project).Error; err != nil {
		return nil, storeError(err, msgProjectNotFound)
	}
	return &project, nil
}

// lockProject loads a project inside tx and holds its row until tx ends, so
// concurrent reference updates apply one after the other.
func lockProject(ctx context.Context, tx *gorm.DB, id string) (*models.Project, error) {
	if id == "" {
		return nil, types.NotFound(msgProjectNotFound)
	}
	query := silent(ctx, tx)
	if tx.Dialector.Name() == "sqlserver" {
		// no FOR UPDATE in T-SQL, a no-op write takes the row lock
		if err := silent(ctx, tx).Exec("UPDATE projects SET test_cases = test_cases WHERE id = ?", id).Error; err != nil {
			return nil, storeError(err, msgProjectNotFound)
		}
	} else {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var project models.Project
	if err := query.Where("id = ?", id).Take(&project).Error; err != nil {
		return nil, storeError(err, msgProjectNotFound)
	}
	return &project, nil
}

// attachTestCases appends ids missing from the project's reference set.
func attachTestCases(ctx context.Context, db *gorm.DB, projectID string, ids ...string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		list := project.TestCases
		changed := false
		for _, id := range ids {
			if !list.Contains(id) {
				list = append(list, id)
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return storeError(tx.Model(&models.Project{ID: projectID}).Update("test_cases", list).Error, msgProjectNotFound)
	})
}

// detachTestCase removes id from the project's reference set. A missing
// project is not an error.
func detachTestCase(ctx context.Context, db *gorm.DB, projectID, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(ctx, tx, projectID)
		if types.IsKind(err, types.KindNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !project.TestCases.Contains(id) {
			return nil
		}
		return storeError(tx.Model(&models.Project{ID: projectID}).Update("test_cases", project.TestCases.Without(id)).Error, msgProjectNotFound)
	})
}
