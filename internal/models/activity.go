// activity.go
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

// Activity actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Entity labels used by activity entries.
const (
	EntityTestCase = "TestCase"
	ModuleTestCase = "Test Case"
	ModuleTestPlan = "Test Plan"
	ModuleTestRun  = "Test Run"
	ModuleProject  = "Project"
)

// ActivityLog is an append-only audit entry tied to an entity.
type ActivityLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	Action      string    `gorm:"size:16" json:"action"`
	Entity      string    `gorm:"size:64;index:idx_activity_entity" json:"entity"`
	EntityID    *string   `gorm:"size:36;index:idx_activity_entity" json:"entityId"`
	Message     string    `gorm:"type:text" json:"message"`
	PerformedBy string    `gorm:"size:64" json:"performedBy"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatorName string    `gorm:"size:255" json:"creatorName"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecentActivity feeds the dashboard activity stream.
type RecentActivity struct {
	ID             string    `gorm:"primaryKey;size:36" json:"_id"`
	CreatedBy      string    `gorm:"size:64" json:"createdBy"`
	ActivityModule string    `gorm:"size:64" json:"activityModule"`
	Activity       string    `gorm:"size:255" json:"activity"`
	Type           string    `gorm:"size:16" json:"type"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}

func (a *RecentActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}

// TableName overrides the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// TableName overrides the table name for RecentActivity
func (RecentActivity) TableName() string {
	return "recent_activities"
}
