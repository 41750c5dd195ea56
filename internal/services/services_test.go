// services_test.go
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
	"testing"
	"time"

	"github.com/localnerve/testcasedb/internal/testutil"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	recorder  *Recorder
	allocator IDAllocator
	testCases *TestCaseService
	plans     *TestPlanService
	projects  *ProjectService
	runs      *TestRunService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)

	rec := NewRecorder(db, log, time.Second)
	t.Cleanup(rec.Wait)

	alloc := NewCounterAllocator(db)
	return &testEnv{
		db:        db,
		recorder:  rec,
		allocator: alloc,
		testCases: &TestCaseService{DB: db, Allocator: alloc, Activity: rec, Log: log},
		plans:     &TestPlanService{DB: db, Activity: rec, Log: log},
		projects:  &ProjectService{DB: db, Activity: rec, Log: log},
		runs:      &TestRunService{DB: db, Activity: rec, Log: log},
	}
}
