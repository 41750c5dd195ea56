// project_service_test.go
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
	"testing"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/testutil"
	"github.com/localnerve/testcasedb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	project, err := env.projects.Create(ctx, ProjectInput{
		Name:       "Web",
		AssignedTo: types.FlexList[string]{"u1", "u2"},
		CreatedBy:  "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, models.IDList{"u1", "u2"}, project.AssignedTo)
	assert.Empty(t, project.TestCases)

	_, err = env.projects.Create(ctx, ProjectInput{CreatedBy: "alice"})
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"name is required"}, appErr.Details)

	env.recorder.Wait()
	recent, err := ListRecentActivity(ctx, env.db, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ModuleProject, recent[0].ActivityModule)
}

func TestGetProjectResolvesTestCases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, env.db, "Web")
	first := testutil.CreateTestCase(t, env.db, project, 2, "second code")
	second := testutil.CreateTestCase(t, env.db, project, 1, "first code")

	// dangling reference
	require.NoError(t, attachTestCases(ctx, env.db, project.ID, "gone"))

	detail, err := env.projects.Get(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, detail.TestCases, 2)
	assert.Equal(t, first.ID, detail.TestCases[0].ID)
	assert.Equal(t, "TC-0002", detail.TestCases[0].TestCaseID)
	assert.Equal(t, second.ID, detail.TestCases[1].ID)

	list, err := env.projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].TestCases, 2)

	_, err = env.projects.Get(ctx, "missing")
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, env.db, "Web")

	name := "Mobile"
	updated, err := env.projects.Update(ctx, project.ID, "bob", ProjectUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Mobile", updated.Name)

	empty := ""
	_, err = env.projects.Update(ctx, project.ID, "bob", ProjectUpdate{Name: &empty})
	assert.True(t, types.IsKind(err, types.KindValidation))

	_, err = env.projects.Update(ctx, "missing", "bob", ProjectUpdate{Name: &name})
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestDeleteProjectClearsReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, env.db, "Web")
	tc := testutil.CreateTestCase(t, env.db, project, 1, "Login")

	require.NoError(t, env.projects.Delete(ctx, project.ID))

	var stored models.TestCase
	require.NoError(t, env.db.First(&stored, "id = ?", tc.ID).Error)
	assert.Nil(t, stored.ProjectID)

	err := env.projects.Delete(ctx, project.ID)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestAttachTestCaseMovesBetweenProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	web := testutil.CreateProject(t, env.db, "Web")
	mobile := testutil.CreateProject(t, env.db, "Mobile")
	tc := testutil.CreateTestCase(t, env.db, web, 1, "Login")

	updated, err := env.projects.AttachTestCase(ctx, mobile.ID, tc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDList{tc.ID}, updated.TestCases)

	again, err := env.projects.AttachTestCase(ctx, mobile.ID, tc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDList{tc.ID}, again.TestCases)

	var old models.Project
	require.NoError(t, env.db.First(&old, "id = ?", web.ID).Error)
	assert.Empty(t, old.TestCases)

	var stored models.TestCase
	require.NoError(t, env.db.First(&stored, "id = ?", tc.ID).Error)
	require.NotNil(t, stored.ProjectID)
	assert.Equal(t, mobile.ID, *stored.ProjectID)

	_, err = env.projects.AttachTestCase(ctx, mobile.ID, "missing")
	assert.True(t, types.IsKind(err, types.KindNotFound))
	_, err = env.projects.AttachTestCase(ctx, mobile.ID, "")
	assert.True(t, types.IsKind(err, types.KindValidation))
}

func TestDetachMissingProjectIsNoop(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, detachTestCase(context.Background(), env.db, "missing", "tc"))
}
