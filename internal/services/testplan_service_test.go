// testplan_service_test.go
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
	"testing"

	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/testutil"
	"github.com/localnerve/testcasedb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patchOf(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	patch := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(body), &patch))
	return patch
}

// seedPlan stores a plan with two runs: the first holds Login and Logout,
// the second holds Search.
func seedPlan(t *testing.T, env *testEnv) *models.TestPlan {
	t.Helper()
	return testutil.CreatePlan(t, env.db, "Regression",
		models.PlanRun{Browser: "Chrome", OSType: "Linux", Module: []models.PlanModule{
			testutil.PlanModule("Login", "Untested"),
			testutil.PlanModule("Logout", "Untested"),
		}},
		models.PlanRun{Browser: "Firefox", OSType: "Windows", Module: []models.PlanModule{
			testutil.PlanModule("Search", "Untested"),
		}},
	)
}

func TestCreatePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var in TestPlanInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Regression",
		"subHeading": "Q1",
		"dueDateFrom": "2024-01-01",
		"dueDateTo": "2024-01-02",
		"testRun": []
	}`), &in))
	in.CreatedBy = "alice"

	plan, err := env.plans.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "Regression", plan.Name)
	assert.Equal(t, "Q1", plan.SubHeading)
	require.NotNil(t, plan.DueDateFrom)
	assert.Equal(t, "2024-01-01", plan.DueDateFrom.Format("2006-01-02"))
	assert.Empty(t, plan.TestRun)

	env.recorder.Wait()
	var recent []models.RecentActivity
	require.NoError(t, env.db.Find(&recent).Error)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ModuleTestPlan, recent[0].ActivityModule)
	assert.Equal(t, "Regression", recent[0].Activity)
}

func TestCreatePlanAssignsSubDocumentIDs(t *testing.T) {
	env := newTestEnv(t)
	plan, err := env.plans.Create(context.Background(), TestPlanInput{
		Name: "Smoke",
		TestRun: []models.PlanRun{{Browser: "Safari", Module: []models.PlanModule{
			{Title: "Home"}, {Title: "Cart"},
		}}},
	})
	require.NoError(t, err)
	require.Len(t, plan.TestRun, 1)
	run := plan.TestRun[0]
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Module, 2)
	assert.NotEmpty(t, run.Module[0].ID)
	assert.NotEqual(t, run.Module[0].ID, run.Module[1].ID)

	stored, err := env.plans.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Module[1].ID, stored.TestRun[0].Module[1].ID)
}

func TestCreatePlanRequiresName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.plans.Create(context.Background(), TestPlanInput{SubHeading: "nameless"})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"name is required"}, appErr.Details)
}

func TestGetPlanNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.plans.Get(context.Background(), "missing")
	assert.True(t, types.IsKind(err, types.KindNotFound))
}

func TestListPlansAndRuns(t *testing.T) {
	env := newTestEnv(t)
	plan := seedPlan(t, env)

	plans, err := env.plans.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)

	runs, err := env.plans.Runs(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Chrome", runs[0].Browser)
	assert.Equal(t, "Firefox", runs[1].Browser)
}

func TestUpdateModuleScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan, err := env.plans.Create(ctx, TestPlanInput{Name: "Regression", SubHeading: "Q1"})
	require.NoError(t, err)

	// add a run holding one module directly in storage
	plan.TestRun = append(plan.TestRun, models.PlanRun{
		Module: []models.PlanModule{{Title: "Login", Status: "Untested"}},
	})
	plan.AssignIDs(plan.CreatedAt)
	require.NoError(t, env.db.Model(&models.TestPlan{ID: plan.ID}).Update("test_run", plan.TestRun).Error)
	runID, moduleID := plan.TestRun[0].ID, plan.TestRun[0].Module[0].ID

	path := ModulePath{PlanID: plan.ID, RunID: runID, ModuleID: moduleID}
	saved, run, err := env.plans.UpdateModule(ctx, path, "alice", patchOf(t, `{"status":"Passed","actualResult":"OK"}`))
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, plan.ID, saved.ID)

	m := run.Module[0]
	assert.Equal(t, "Passed", m.Status)
	assert.Equal(t, "OK", m.ActualResult)
	assert.Equal(t, "Login", m.Title)

	got, err := env.plans.Module(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Passed", got.Status)
	assert.Equal(t, "OK", got.ActualResult)
	assert.Equal(t, "Login", got.Title)
	assert.Equal(t, moduleID, got.ID)
}

func TestUpdateModuleLeavesSiblingsUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := seedPlan(t, env)

	before, err := json.Marshal(plan.TestRun)
	require.NoError(t, err)

	target := plan.TestRun[0].Module[0]
	path := ModulePath{PlanID: plan.ID, RunID: plan.TestRun[0].ID, ModuleID: target.ID}
	_, _, err = env.plans.UpdateModule(ctx, path, "alice", patchOf(t, `{"status":"done"}`))
	require.NoError(t, err)

	stored, err := env.plans.Get(ctx, plan.ID)
	require.NoError(t, err)

	var runsBefore []models.PlanRun
	require.NoError(t, json.Unmarshal(before, &runsBefore))

	// the sibling module in the same run
	siblingBefore, err := json.Marshal(runsBefore[0].Module[1])
	require.NoError(t, err)
	siblingAfter, err := json.Marshal(stored.TestRun[0].Module[1])
	require.NoError(t, err)
	assert.JSONEq(t, string(siblingBefore), string(siblingAfter))

	// every other run
	otherBefore, err := json.Marshal(runsBefore[1])
	require.NoError(t, err)
	otherAfter, err := json.Marshal(stored.TestRun[1])
	require.NoError(t, err)
	assert.JSONEq(t, string(otherBefore), string(otherAfter))

	// the target changed status only
	updated := stored.TestRun[0].Module[0]
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, target.Title, updated.Title)
	assert.Equal(t, target.Steps, updated.Steps)
	assert.Equal(t, target.ID, updated.ID)
	assert.True(t, target.CreatedAt.Equal(updated.CreatedAt))
}

func TestUpdateModuleLookupOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := seedPlan(t, env)
	run := plan.TestRun[0]
	patch := patchOf(t, `{"status":"Passed"}`)

	cases := []struct {
		name string
		path ModulePath
		msg  string
	}{
		{"all invalid", ModulePath{PlanID: "nope", RunID: "nope", ModuleID: "nope"}, msgPlanNotFound},
		{"bad run and module", ModulePath{PlanID: plan.ID, RunID: "nope", ModuleID: "nope"}, msgRunNotFound},
		{"bad module", ModulePath{PlanID: plan.ID, RunID: run.ID, ModuleID: "nope"}, msgModuleNotFound},
		// module ids are scoped to their run
		{"module of another run", ModulePath{PlanID: plan.ID, RunID: run.ID, ModuleID: plan.TestRun[1].Module[0].ID}, msgModuleNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.plans.UpdateModule(ctx, tc.path, "alice", patch)
			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.KindNotFound, appErr.Kind)
			assert.Equal(t, tc.msg, appErr.Message)

			_, err = env.plans.Module(ctx, tc.path)
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}
}

func TestUpdateModuleRejectsEmptyPatch(t *testing.T) {
	env := newTestEnv(t)
	plan := seedPlan(t, env)
	path := ModulePath{PlanID: plan.ID, RunID: plan.TestRun[0].ID, ModuleID: plan.TestRun[0].Module[0].ID}

	_, _, err := env.plans.UpdateModule(context.Background(), path, "alice", map[string]json.RawMessage{})
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.KindValidation, appErr.Kind)
	assert.Equal(t, msgModuleRequired, appErr.Message)
}

func TestUpdateModuleRejectsUnknownAndServerOwnedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := seedPlan(t, env)
	path := ModulePath{PlanID: plan.ID, RunID: plan.TestRun[0].ID, ModuleID: plan.TestRun[0].Module[0].ID}

	_, _, err := env.plans.UpdateModule(ctx, path, "alice", patchOf(t, `{"status":"Passed","colour":"red","_id":"x"}`))
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"_id is not a module field", "colour is not a module field"}, appErr.Details)

	_, _, err = env.plans.UpdateModule(ctx, path, "alice", patchOf(t, `{"status":5}`))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.KindValidation, appErr.Kind)

	// nothing was persisted
	m, err := env.plans.Module(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Untested", m.Status)
}

func TestModuleRequiresPathSegments(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.plans.Module(context.Background(), ModulePath{PlanID: "p"})
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"testRunId is required", "moduleId is required"}, appErr.Details)
}

func TestUpdateModuleStaleVersionConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := seedPlan(t, env)
	path := ModulePath{PlanID: plan.ID, RunID: plan.TestRun[0].ID, ModuleID: plan.TestRun[0].Module[0].ID}

	stale, err := env.plans.Get(ctx, plan.ID)
	require.NoError(t, err)

	_, _, err = env.plans.UpdateModule(ctx, path, "alice", patchOf(t, `{"status":"Passed"}`))
	require.NoError(t, err)

	stale.TestRun[0].Module[1].Status = "Failed"
	err = env.plans.save(ctx, stale)
	assert.True(t, types.IsKind(err, types.KindConflict))

	stored, err := env.plans.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Passed", stored.TestRun[0].Module[0].Status)
	assert.Equal(t, "Untested", stored.TestRun[0].Module[1].Status)
	assert.Equal(t, uint64(1), stored.Version)
}

func TestUpdateModuleSucceedsWhenActivityWriteFails(t *testing.T) {
	env := newTestEnv(t)
	plan := seedPlan(t, env)
	require.NoError(t, env.db.Migrator().DropTable(&models.RecentActivity{}))

	path := ModulePath{PlanID: plan.ID, RunID: plan.TestRun[0].ID, ModuleID: plan.TestRun[0].Module[0].ID}
	_, run, err := env.plans.UpdateModule(context.Background(), path, "alice", patchOf(t, `{"status":"Blocked"}`))
	require.NoError(t, err)
	assert.Equal(t, "Blocked", run.Module[0].Status)
}

func TestAppendRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := seedPlan(t, env)

	saved, run, err := env.plans.AppendRun(ctx, plan.ID, "alice", models.PlanRun{
		ID:      "client-chosen",
		Browser: "Edge",
		Module:  []models.PlanModule{{ID: "also-client", Title: "Checkout"}},
	})
	require.NoError(t, err)
	assert.Len(t, saved.TestRun, 3)
	assert.NotEqual(t, "client-chosen", run.ID)
	assert.NotEqual(t, "also-client", run.Module[0].ID)

	m, err := env.plans.Module(ctx, ModulePath{PlanID: plan.ID, RunID: run.ID, ModuleID: run.Module[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", m.Title)

	_, _, err = env.plans.AppendRun(ctx, "missing", "alice", models.PlanRun{})
	assert.True(t, types.IsKind(err, types.KindNotFound))
}
