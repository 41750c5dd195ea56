// testrun.go
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

package models

import (
	"time"

	"gorm.io/gorm"
)

// TestRun is a standalone execution aggregate referencing test cases by id.
type TestRun struct {
	ID          string     `gorm:"primaryKey;size:36" json:"_id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	AssignedTo  string     `gorm:"size:64" json:"assignedTo"`
	Module      string     `gorm:"size:255" json:"module"`
	ProjectID   string     `gorm:"size:36" json:"projectId"`
	DueDateFrom *time.Time `json:"dueDateFrom"`
	DueDateTo   *time.Time `json:"dueDateTo"`
	CreatedBy   string     `gorm:"size:64" json:"createdBy"`
	TestCaseIDs IDList     `gorm:"column:test_cases" json:"-"`
	TestCases   []TestCase `gorm:"-" json:"testCases"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (r *TestRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.TestCaseIDs == nil {
		r.TestCaseIDs = IDList{}
	}
	return nil
}

// TableName overrides the table name for TestRun
func (TestRun) TableName() string {
	return "test_runs"
}
