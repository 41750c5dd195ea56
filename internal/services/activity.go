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

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/localnerve/testcasedb/internal/metrics"
	"github.com/localnerve/testcasedb/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sinkRecentActivity = "recent_activity"
	sinkActivityLog    = "activity_log"
)

// Recorder writes best-effort activity entries. Writes run detached from the
// calling request; failures are logged and counted, never returned.
type Recorder struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder creates a Recorder. A zero timeout defaults to five seconds.
func NewRecorder(db *gorm.DB, log *zap.Logger, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{db: db, log: log, timeout: timeout}
}

// Record appends a recent activity entry.
func (r *Recorder) Record(ctx context.Context, actor, activityModule, activity, kind string) {
	entry := &models.RecentActivity{
		CreatedBy:      actor,
		ActivityModule: activityModule,
		Activity:       activity,
		Type:           kind,
	}
	r.dispatch(ctx, sinkRecentActivity, func(db *gorm.DB) error {
		return db.Create(entry).Error
	})
}

// Log appends an audit log entry.
func (r *Recorder) Log(ctx context.Context, entry models.ActivityLog) {
	r.dispatch(ctx, sinkActivityLog, func(db *gorm.DB) error {
		return db.Create(&entry).Error
	})
}

// TestCaseEvent writes both entries for a test case mutation.
func (r *Recorder) TestCaseEvent(ctx context.Context, action, actor string, tc *models.TestCase) {
	r.Record(ctx, actor, models.ModuleTestCase, tc.Title, action)

	id := tc.ID
	r.Log(ctx, models.ActivityLog{
		Action:      action,
		Entity:      models.EntityTestCase,
		EntityID:    &id,
		Message:     fmt.Sprintf("%s %s test case %q", actor, action, tc.Title),
		PerformedBy: actor,
		Comment:     tc.Module,
		CreatorName: actor,
	})
}

// Wait blocks until every dispatched write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) dispatch(ctx context.Context, sink string, write func(*gorm.DB) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// the write outlives the request
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				metrics.ActivityWriteFailures.WithLabelValues(sink).Inc()
				r.log.Error("activity write panicked", zap.String("sink", sink), zap.Any("panic", p))
			}
		}()

		db := r.db.WithContext(ctx).Session(&gorm.Session{Logger: r.db.Logger.LogMode(logger.Silent)})
		if err := write(db); err != nil {
			metrics.ActivityWriteFailures.WithLabelValues(sink).Inc()
			r.log.Warn("activity write failed", zap.String("sink", sink), zap.Error(err))
		}
	}()
}

// ListRecentActivity returns recent activity newest first. A limit of zero
// or less returns everything.
func ListRecentActivity(ctx context.Context, db *gorm.DB, limit int) ([]models.RecentActivity, error) {
	var out []models.RecentActivity
	query := db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
