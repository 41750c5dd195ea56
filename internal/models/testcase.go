// testcase.go
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

// Test case defaults applied when a field is absent.
const (
	DefaultTitle            = "Untitled Test Case"
	DefaultStatus           = "Untested"
	DefaultPriority         = "Low"
	DefaultAutomationStatus = "No"
	DefaultType             = "Functional"
)

// TestCase is a standalone test case document.
// TestCaseID is server owned: assigned once at creation and never updated.
type TestCase struct {
	ID               string         `gorm:"primaryKey;size:36" json:"_id"`
	TestCaseID       string         `gorm:"column:test_case_id;uniqueIndex;size:32;not null" json:"testCaseId"`
	Sequence         int64          `gorm:"uniqueIndex;not null" json:"-"`
	Title            string         `gorm:"size:255" json:"title"`
	UserStory        string         `gorm:"type:text" json:"userStory"`
	Description      string         `gorm:"type:text" json:"description"`
	PreRequisite     string         `gorm:"type:text" json:"preRequisite"`
	Steps            string         `gorm:"type:text" json:"steps"`
	ExpectedResult   string         `gorm:"type:text" json:"expectedResult"`
	ActualResult     string         `gorm:"type:text" json:"actualResult"`
	Status           string         `gorm:"size:50" json:"status"`
	Type             string         `gorm:"size:50" json:"type"`
	Priority         string         `gorm:"size:50" json:"priority"`
	AutomationStatus string         `gorm:"size:50" json:"automationStatus"`
	Module           string         `gorm:"size:255;index" json:"module"`
	Script           string         `gorm:"type:text" json:"script"`
	ProjectID        *string        `gorm:"size:36;index" json:"projectId"`
	Project          *ProjectRef    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedBy        string         `gorm:"size:64" json:"createdBy"`
	UpdatedBy        string         `gorm:"size:64" json:"updatedBy,omitempty"`
	ActivityLogs     []ActivityLog  `gorm:"-" json:"activityLogs,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (tc *TestCase) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == "" {
		tc.ID = NewID()
	}
	return nil
}

// TableName overrides the table name for TestCase
func (TestCase) TableName() string {
	return "test_cases"
}
