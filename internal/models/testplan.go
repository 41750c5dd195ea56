// testplan.go
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

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestPlan is the aggregate root for a release or cycle. Its runs and their
// modules are embedded and always loaded and saved with the plan.
type TestPlan struct {
	ID          string                       `gorm:"primaryKey;size:36" json:"_id"`
	Name        string                       `gorm:"size:255;not null" json:"name"`
	SubHeading  string                       `gorm:"size:255" json:"subHeading"`
	Description string                       `gorm:"type:text" json:"description"`
	DueDateFrom *time.Time                   `json:"dueDateFrom"`
	DueDateTo   *time.Time                   `json:"dueDateTo"`
	CreatedBy   string                       `gorm:"size:64" json:"createdBy"`
	ProjectID   *string                      `gorm:"size:36;index" json:"projectId"`
	TestRun     datatypes.JSONSlice[PlanRun] `json:"testRun"`
	Version     uint64                       `gorm:"not null;default:0" json:"__v"`
	CreatedAt   time.Time                    `json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

// PlanRun is an execution pass embedded in a TestPlan.
type PlanRun struct {
	ID         string       `json:"_id"`
	Browser    string       `json:"browser"`
	OSType     string       `json:"osType"`
	AssignedTo string       `json:"assignedTo"`
	Module     []PlanModule `json:"module"`
}

// PlanModule is a per test case execution snapshot embedded in a PlanRun.
// It is owned by the run and never synchronized back to a TestCase.
type PlanModule struct {
	ID               string    `json:"_id"`
	Title            string    `json:"title"`
	UserStory        string    `json:"userStory"`
	TestCaseID       string    `json:"testCaseId"`
	Description      string    `json:"description"`
	CreatedBy        string    `json:"createdBy"`
	PreRequisite     string    `json:"preRequisite"`
	Steps            string    `json:"steps"`
	ExpectedResult   string    `json:"expectedResult"`
	ActualResult     string    `json:"actualResult"`
	Status           string    `json:"status"`
	Type             string    `json:"type"`
	Priority         string    `json:"priority"`
	AutomationStatus string    `json:"automationStatus"`
	Module           string    `json:"module"`
	ProjectID        string    `json:"projectId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (p *TestPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	p.AssignIDs(time.Now().UTC())
	return nil
}

// AssignIDs gives every run and module without an identity a fresh one.
func (p *TestPlan) AssignIDs(now time.Time) {
	if p.TestRun == nil {
		p.TestRun = datatypes.JSONSlice[PlanRun]{}
	}
	for i := range p.TestRun {
		p.TestRun[i].assignIDs(now)
	}
}

func (r *PlanRun) assignIDs(now time.Time) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Module == nil {
		r.Module = []PlanModule{}
	}
	for i := range r.Module {
		m := &r.Module[i]
		if m.ID == "" {
			m.ID = NewID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = now
		}
	}
}

// Run returns the embedded run with the given id, or nil.
// The pointer addresses the plan's own slice element.
func (p *TestPlan) Run(id string) *PlanRun {
	for i := range p.TestRun {
		if p.TestRun[i].ID == id {
			return &p.TestRun[i]
		}
	}
	return nil
}

// ModuleByID returns the embedded module with the given id, or nil.
func (r *PlanRun) ModuleByID(id string) *PlanModule {
	for i := range r.Module {
		if r.Module[i].ID == id {
			return &r.Module[i]
		}
	}
	return nil
}

// AppendRun adds a run to the end of the plan's run sequence.
func (p *TestPlan) AppendRun(run PlanRun, now time.Time) *PlanRun {
	run.assignIDs(now)
	p.TestRun = append(p.TestRun, run)
	return &p.TestRun[len(p.TestRun)-1]
}

// TableName overrides the table name for TestPlan
func (TestPlan) TableName() string {
	return "test_plans"
}
