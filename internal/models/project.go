// project.go
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

// Project owns a set of test case references.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ProjectType string    `gorm:"size:100" json:"projectType"`
	AssignedTo  IDList    `json:"assignedTo"`
	TestCases   IDList    `json:"testCases"`
	CreatedBy   string    `gorm:"size:64" json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectRef is the resolved name of a referenced project.
type ProjectRef struct {
	ID   string `gorm:"primaryKey" json:"_id"`
	Name string `json:"name"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.TestCases == nil {
		p.TestCases = IDList{}
	}
	if p.AssignedTo == nil {
		p.AssignedTo = IDList{}
	}
	return nil
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}

// TableName maps ProjectRef onto the projects table
func (ProjectRef) TableName() string {
	return "projects"
}
