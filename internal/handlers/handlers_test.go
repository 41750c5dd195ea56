// handlers_test.go
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

package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/handlers"
	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/sheets"
	"github.com/localnerve/testcasedb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type server struct {
	app      *fiber.App
	db       *gorm.DB
	recorder *services.Recorder
}

// newServer builds the API over an in-memory database. A non-empty secret
// turns on token verification.
func newServer(t *testing.T, secret string) *server {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)
	cfg := &config.Config{
		Env:        "development",
		DBType:     "sqlite",
		DBDatabase: ":memory:",
		JWTSecret:  secret,
	}

	rec := services.NewRecorder(db, log, time.Second)
	t.Cleanup(rec.Wait)

	app := handlers.NewApp(cfg, log)
	handlers.Register(app, handlers.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Activity:  rec,
		Allocator: services.NewCounterAllocator(db),
	})
	app.Use(handlers.NotFound)
	return &server{app: app, db: db, recorder: rec}
}

func (s *server) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Status    string   `json:"status"`
	Ok        bool     `json:"ok"`
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Details   []string `json:"details"`
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) envelope {
	t.Helper()
	var env envelope
	testutil.ParseJSON(t, resp, &env)
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, target))
	return env
}

func TestTestPlanModuleScenario(t *testing.T) {
	s := newServer(t, "")

	resp := s.do(t, "POST", "/api/test-plan", map[string]interface{}{
		"name":        "Regression",
		"subHeading":  "Q1",
		"dueDateFrom": "2024-01-01",
		"dueDateTo":   "2024-01-02",
		"testRun":     []interface{}{},
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var created models.TestPlan
	decodeData(t, resp, &created)
	assert.Equal(t, "Regression", created.Name)

	// add a run with one module directly in storage
	run := models.PlanRun{Browser: "firefox", Module: []models.PlanModule{testutil.PlanModule("Login", "Untested")}}
	var plan models.TestPlan
	require.NoError(t, s.db.First(&plan, "id = ?", created.ID).Error)
	added := plan.AppendRun(run, time.Now().UTC())
	require.NoError(t, s.db.Model(&plan).Update("test_run", plan.TestRun).Error)
	runID, moduleID := added.ID, added.Module[0].ID

	path := "/api/test-plan/" + created.ID + "/" + runID + "/" + moduleID
	resp = s.do(t, "PUT", path, map[string]string{"status": "Passed", "actualResult": "OK"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	var pair []json.RawMessage
	decodeData(t, resp, &pair)
	require.Len(t, pair, 2)
	var updatedRun models.PlanRun
	require.NoError(t, json.Unmarshal(pair[1], &updatedRun))
	require.Len(t, updatedRun.Module, 1)
	assert.Equal(t, "Passed", updatedRun.Module[0].Status)
	assert.Equal(t, "OK", updatedRun.Module[0].ActualResult)
	assert.Equal(t, "Login", updatedRun.Module[0].Title)

	resp = s.do(t, "GET", path, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var module models.PlanModule
	decodeData(t, resp, &module)
	assert.Equal(t, "Passed", module.Status)
	assert.Equal(t, "open Login", module.Steps)

	resp = s.do(t, "GET", "/api/test-plan/testPlanRun/"+created.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var runs []models.PlanRun
	decodeData(t, resp, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)

	resp = s.do(t, "GET", "/api/test-plan", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var plans []models.TestPlan
	env := decodeData(t, resp, &plans)
	assert.Equal(t, 1, env.Count)
}

func TestTestPlanErrors(t *testing.T) {
	s := newServer(t, "")
	plan := testutil.CreatePlan(t, s.db, "Regression", models.PlanRun{
		Module: []models.PlanModule{testutil.PlanModule("Login", "Untested")},
	})
	runID := plan.TestRun[0].ID

	tests := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		status  int
		message string
	}{
		{"missing plan wins over bad run and module", "PUT", "/api/test-plan/nope/nope/nope", map[string]string{"status": "x"}, 404, "Test plan not found"},
		{"missing run", "PUT", "/api/test-plan/" + plan.ID + "/nope/nope", map[string]string{"status": "x"}, 404, "Test run not found"},
		{"missing module", "GET", "/api/test-plan/" + plan.ID + "/" + runID + "/nope", nil, 404, "Module not found"},
		{"empty body", "PUT", "/api/test-plan/" + plan.ID + "/" + runID + "/" + plan.TestRun[0].Module[0].ID, nil, 400, "Testcase data is required"},
		{"missing name", "POST", "/api/test-plan", map[string]string{"subHeading": "Q1"}, 400, "name is required"},
		{"unknown plan", "GET", "/api/test-plan/nope", nil, 404, "Test plan not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.method, tt.path, tt.body)
			testutil.AssertStatus(t, resp, tt.status)
			var body errorBody
			testutil.ParseJSON(t, resp, &body)
			assert.False(t, body.Ok)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestAppendTestPlanRun(t *testing.T) {
	s := newServer(t, "")
	plan := testutil.CreatePlan(t, s.db, "Regression")

	resp := s.do(t, "POST", "/api/test-plan/"+plan.ID+"/runs", map[string]interface{}{
		"browser": "chrome",
		"module":  []map[string]string{{"title": "Search", "status": "Untested"}},
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)

	var pair []json.RawMessage
	decodeData(t, resp, &pair)
	var run models.PlanRun
	require.NoError(t, json.Unmarshal(pair[1], &run))
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Module, 1)
	assert.NotEmpty(t, run.Module[0].ID)
}

func TestTestCaseLifecycle(t *testing.T) {
	s := newServer(t, "")
	project := testutil.CreateProject(t, s.db, "Web")

	resp := s.do(t, "POST", "/api/testcases", map[string]string{
		"title":     "Login",
		"module":    "Auth",
		"steps":     "click",
		"projectId": project.ID,
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var tc models.TestCase
	decodeData(t, resp, &tc)
	assert.Equal(t, "TC-0001", tc.TestCaseID)
	assert.Equal(t, "anonymous", tc.CreatedBy)

	// the caller is not substituted for a missing updatedBy
	resp = s.do(t, "PUT", "/api/testcases/"+tc.ID, map[string]string{"title": "Renamed"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	var rejected errorBody
	testutil.ParseJSON(t, resp, &rejected)
	assert.Equal(t, "updatedBy is required", rejected.Message)

	resp = s.do(t, "PUT", "/api/testcases/"+tc.ID, map[string]string{"status": "Passed", "testCaseId": "TC-9999", "updatedBy": "bob"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var updated models.TestCase
	decodeData(t, resp, &updated)
	assert.Equal(t, "Passed", updated.Status)
	assert.Equal(t, "Login", updated.Title)
	assert.Equal(t, "TC-0001", updated.TestCaseID)
	assert.Equal(t, "bob", updated.UpdatedBy)

	resp = s.do(t, "GET", "/api/testcases?module=auth", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var cases []models.TestCase
	env := decodeData(t, resp, &cases)
	assert.Equal(t, 1, env.Count)

	resp = s.do(t, "GET", "/api/projects/"+project.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var detail services.ProjectDetail
	decodeData(t, resp, &detail)
	require.Len(t, detail.TestCases, 1)
	assert.Equal(t, "TC-0001", detail.TestCases[0].TestCaseID)

	resp = s.do(t, "DELETE", "/api/testcases/"+tc.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = s.do(t, "GET", "/api/testcases/"+tc.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestCreateTestCaseValidation(t *testing.T) {
	s := newServer(t, "")

	resp := s.do(t, "POST", "/api/testcases", map[string]string{"module": "Auth"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	var body errorBody
	testutil.ParseJSON(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.ErrorCode)
	assert.ElementsMatch(t, []string{"title is required", "projectId is required"}, body.Details)
}

func TestMalformedBody(t *testing.T) {
	s := newServer(t, "")
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}

func uploadRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "cases.xlsx")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/testcases/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func workbookBytes(t *testing.T, titles ...string) []byte {
	t.Helper()
	wb, err := sheets.NewWorkbook("Sheet1", []sheets.Column{{Header: "title"}, {Header: "steps"}})
	require.NoError(t, err)
	defer wb.Close()
	for _, title := range titles {
		require.NoError(t, wb.AddRow(title, "do "+title))
	}
	var buf bytes.Buffer
	_, err = wb.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestUploadAndDownload(t *testing.T) {
	s := newServer(t, "")
	project := testutil.CreateProject(t, s.db, "Web")
	testutil.CreateTestCase(t, s.db, project, 4, "Existing")

	fields := map[string]string{"module": "Bulk", "projectId": project.ID, "createdBy": "alice"}
	resp, err := s.app.Test(uploadRequest(t, fields, workbookBytes(t, "One", "Two")), -1)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusCreated)

	var result services.ImportResult
	testutil.ParseJSON(t, resp, &result)
	assert.Equal(t, 2, result.InsertedCount)
	assert.Equal(t, "Testcase uploaded Successfully", result.Message)

	var codes []string
	require.NoError(t, s.db.Model(&models.TestCase{}).Where("module = ?", "Bulk").Order("sequence").Pluck("test_case_id", &codes).Error)
	assert.Equal(t, []string{"TC-0005", "TC-0006"}, codes)

	resp = s.do(t, "GET", "/api/testcases/download?module=bulk", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, sheets.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "test-cases.xlsx")

	rows, err := sheets.ReadRows(resp.Body)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUploadRejections(t *testing.T) {
	s := newServer(t, "")
	project := testutil.CreateProject(t, s.db, "Web")
	file := workbookBytes(t, "One")

	tests := []struct {
		name    string
		fields  map[string]string
		file    []byte
		status  int
		message string
	}{
		{"no file", map[string]string{"module": "Bulk", "projectId": project.ID, "createdBy": "alice"}, nil, 400, "No file uploaded"},
		{"no module", map[string]string{"projectId": project.ID, "createdBy": "alice"}, file, 400, "Module name, project ID, and createdBy are required"},
		{"no creator", map[string]string{"module": "Bulk", "projectId": project.ID}, file, 400, "Module name, project ID, and createdBy are required"},
		{"blank creator", map[string]string{"module": "Bulk", "projectId": project.ID, "createdBy": "  "}, file, 400, "Module name, project ID, and createdBy are required"},
		{"unknown project", map[string]string{"module": "Bulk", "projectId": "nope", "createdBy": "alice"}, file, 404, "Project not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.app.Test(uploadRequest(t, tt.fields, tt.file), -1)
			require.NoError(t, err)
			testutil.AssertStatus(t, resp, tt.status)
			var body errorBody
			testutil.ParseJSON(t, resp, &body)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestTestRunRoutes(t *testing.T) {
	s := newServer(t, "")
	tc := testutil.CreateTestCase(t, s.db, nil, 1, "Login")

	resp := s.do(t, "POST", "/api/test-runs", map[string]interface{}{"name": "Smoke", "testCases": tc.ID})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var run models.TestRun
	decodeData(t, resp, &run)
	require.Len(t, run.TestCases, 1)

	resp = s.do(t, "PUT", "/api/test-runs/"+run.ID, map[string]string{"name": "Nightly"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = s.do(t, "DELETE", "/api/test-runs/"+run.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	resp = s.do(t, "DELETE", "/api/test-runs/"+run.ID, nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestRecentActivityAndHealth(t *testing.T) {
	s := newServer(t, "")

	resp := s.do(t, "POST", "/api/projects", map[string]string{"name": "Web"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	s.recorder.Wait()

	resp = s.do(t, "GET", "/api/recent-activity", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var entries []models.RecentActivity
	decodeData(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "Web", entries[0].Activity)
	assert.Equal(t, "anonymous", entries[0].CreatedBy)

	resp = s.do(t, "GET", "/api/health", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var health services.HealthCheckResult
	testutil.ParseJSON(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
}

func TestAuthentication(t *testing.T) {
	s := newServer(t, testSecret)

	resp := s.do(t, "GET", "/api/projects", nil)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	token, err := services.IssueToken(services.Principal{ID: "u1", Name: "Dana"}, testSecret, time.Hour)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"name": "Web"})
	req := httptest.NewRequest("POST", "/api/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var project models.Project
	decodeData(t, resp, &project)
	assert.Equal(t, "Dana", project.CreatedBy)

	// health stays public
	resp = s.do(t, "GET", "/api/health", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func TestDeleteRequiresRole(t *testing.T) {
	s := newServer(t, testSecret)
	project := testutil.CreateProject(t, s.db, "Web")
	tc := testutil.CreateTestCase(t, s.db, project, 1, "Login")

	deleteAs := func(role, path string) *http.Response {
		t.Helper()
		token, err := services.IssueToken(services.Principal{ID: "u-" + role, Name: role, Role: role}, testSecret, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest("DELETE", path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	for _, path := range []string{"/api/testcases/" + tc.ID, "/api/projects/" + project.ID} {
		resp := deleteAs("user", path)
		testutil.AssertStatus(t, resp, fiber.StatusForbidden)
		var body errorBody
		testutil.ParseJSON(t, resp, &body)
		assert.Equal(t, "You do not have permission to perform this action", body.Message)
	}

	var count int64
	require.NoError(t, s.db.Model(&models.TestCase{}).Where("id = ?", tc.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	testutil.AssertStatus(t, deleteAs("manager", "/api/testcases/"+tc.ID), fiber.StatusOK)
	testutil.AssertStatus(t, deleteAs("admin", "/api/projects/"+project.ID), fiber.StatusOK)
}

func TestUnknownRoute(t *testing.T) {
	s := newServer(t, "")
	resp := s.do(t, "GET", "/nope", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	assert.Equal(t, "1.0.0", s.do(t, "GET", "/api/health", nil).Header.Get("X-Api-Version"))
}
