// import_service.go
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
	"strings"

	"github.com/localnerve/testcasedb/internal/metrics"
	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/sheets"
	"github.com/localnerve/testcasedb/internal/types"
	"go.uber.org/zap"
)

const (
	msgNoFile         = "No file uploaded"
	msgImportRequired = "Module name, project ID, and createdBy are required"
	msgImported       = "Testcase uploaded Successfully"
)

// ImportInput is a bulk upload request. File is nil when no file was sent.
type ImportInput struct {
	File      io.Reader
	Module    string
	ProjectID string
	CreatedBy string
}

// ImportResult reports the outcome of a bulk upload.
type ImportResult struct {
	Message       string `json:"message"`
	InsertedCount int    `json:"insertedCount"`
	FailedCount   int    `json:"failedCount,omitempty"`
}

// Import parses the first sheet of the uploaded workbook, reserves one code
// per row and inserts the rows as test cases of the target project.
// Rows that fail to insert do not block the others.
func (s *TestCaseService) Import(ctx context.Context, in ImportInput) (*ImportResult, error) {
	if in.File == nil {
		return nil, types.ValidationFailed(msgNoFile)
	}
	in.Module = strings.TrimSpace(in.Module)
	if in.Module == "" || in.ProjectID == "" || strings.TrimSpace(in.CreatedBy) == "" {
		return nil, types.ValidationFailed(msgImportRequired)
	}

	rows, err := sheets.ReadRows(in.File)
	if err != nil {
		return nil, types.ValidationFailed("Invalid spreadsheet", err.Error())
	}

	project, err := loadProject(ctx, s.DB, in.ProjectID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Message: msgImported}
	if len(rows) == 0 {
		return result, nil
	}

	codes, err := s.Allocator.Reserve(ctx, len(rows))
	if err != nil {
		return nil, types.Internal(err)
	}

	records := make([]models.TestCase, len(rows))
	for i, row := range rows {
		records[i] = newImportedTestCase(row, codes[i], in, project.ID)
	}

	inserted, failed, err := s.insertUnordered(ctx, records)
	metrics.ImportedRows.WithLabelValues("inserted").Add(float64(len(inserted)))
	metrics.ImportedRows.WithLabelValues("failed").Add(float64(failed))
	if len(inserted) == 0 {
		return nil, types.Internal(err)
	}

	ids := make([]string, len(inserted))
	for i := range inserted {
		ids[i] = inserted[i].ID
	}
	if err := attachTestCases(ctx, s.DB, project.ID, ids...); err != nil {
		return nil, types.Internal(err)
	}

	for i := range inserted {
		s.Activity.TestCaseEvent(ctx, models.ActionCreated, in.CreatedBy, &inserted[i])
	}

	s.Log.Info("test cases imported",
		zap.String("project", project.ID),
		zap.String("module", in.Module),
		zap.Int("inserted", len(inserted)),
		zap.Int("failed", failed))

	result.InsertedCount = len(inserted)
	result.FailedCount = failed
	return result, nil
}

// importBatchSize bounds the rows of one multi-row insert, keeping large
// uploads under the bind variable limits of every supported database.
var importBatchSize = 500

// insertUnordered inserts records in batches. A rejected batch falls back to
// row by row inserts so its valid rows still land. It returns the inserted
// records, the failure count and the first row error.
func (s *TestCaseService) insertUnordered(ctx context.Context, records []models.TestCase) ([]models.TestCase, int, error) {
	var (
		inserted []models.TestCase
		firstErr error
		failed   int
	)
	for start := 0; start < len(records); start += importBatchSize {
		end := start + importBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		err := s.DB.WithContext(ctx).Create(&batch).Error
		if err == nil {
			inserted = append(inserted, batch...)
			continue
		}
		s.Log.Warn("batch insert rejected, inserting rows individually",
			zap.Int("offset", start), zap.Int("rows", len(batch)), zap.Error(err))

		for i := range batch {
			tc := batch[i]
			if err := s.DB.WithContext(ctx).Create(&tc).Error; err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				s.Log.Warn("row insert failed", zap.String("testCaseId", tc.TestCaseID), zap.Error(err))
				continue
			}
			inserted = append(inserted, tc)
		}
	}
	return inserted, failed, firstErr
}

func newImportedTestCase(row sheets.Row, code Code, in ImportInput, projectID string) models.TestCase {
	pid := projectID
	steps := row.Get("steps")
	expected := row.Get("expectedResult")
	return models.TestCase{
		TestCaseID:       code.ID,
		Sequence:         code.Sequence,
		Title:            orDefault(row.Get("title"), models.DefaultTitle),
		UserStory:        row.Get("userStory"),
		Description:      row.Get("description"),
		PreRequisite:     row.Get("preRequisite"),
		Type:             orDefault(row.Get("type"), models.DefaultType),
		Steps:            steps,
		ExpectedResult:   expected,
		ActualResult:     row.Get("actualResult"),
		Status:           orDefault(row.Get("status"), models.DefaultStatus),
		Priority:         orDefault(row.Get("priority"), models.DefaultPriority),
		AutomationStatus: orDefault(row.Get("automationStatus"), models.DefaultAutomationStatus),
		Module:           in.Module,
		Script:           GenerateScript(code.ID, steps, expected),
		ProjectID:        &pid,
		CreatedBy:        in.CreatedBy,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
