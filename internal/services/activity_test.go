// activity_test.go
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
	"testing"
	"time"

	"github.com/localnerve/testcasedb/internal/metrics"
	"github.com/localnerve/testcasedb/internal/models"
	"github.com/localnerve/testcasedb/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderWritesBothSinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tc := &models.TestCase{ID: "tc-1", Title: "Login", Module: "Auth"}
	env.recorder.TestCaseEvent(ctx, models.ActionCreated, "alice", tc)
	env.recorder.Wait()

	var recent []models.RecentActivity
	require.NoError(t, env.db.Find(&recent).Error)
	require.Len(t, recent, 1)
	assert.Equal(t, "alice", recent[0].CreatedBy)
	assert.Equal(t, models.ModuleTestCase, recent[0].ActivityModule)
	assert.Equal(t, "Login", recent[0].Activity)
	assert.Equal(t, models.ActionCreated, recent[0].Type)

	var logs []models.ActivityLog
	require.NoError(t, env.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EntityTestCase, logs[0].Entity)
	require.NotNil(t, logs[0].EntityID)
	assert.Equal(t, "tc-1", *logs[0].EntityID)
	assert.Equal(t, `alice created test case "Login"`, logs[0].Message)
	assert.Equal(t, "Auth", logs[0].Comment)
}

func TestRecorderOutlivesCanceledRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env.recorder.Record(ctx, "bob", models.ModuleProject, "Web", models.ActionCreated)
	env.recorder.Wait()

	var count int64
	require.NoError(t, env.db.Model(&models.RecentActivity{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Migrator().DropTable(&models.RecentActivity{}))

	before := promtest.ToFloat64(metrics.ActivityWriteFailures.WithLabelValues(sinkRecentActivity))

	assert.NotPanics(t, func() {
		env.recorder.Record(context.Background(), "carol", models.ModuleTestPlan, "Regression", models.ActionUpdated)
	})
	env.recorder.Wait()

	after := promtest.ToFloat64(metrics.ActivityWriteFailures.WithLabelValues(sinkRecentActivity))
	assert.Equal(t, before+1, after)
}

func TestListRecentActivityNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&models.RecentActivity{
			CreatedBy: "dave",
			Activity:  name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	all, err := ListRecentActivity(context.Background(), db, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Activity)
	assert.Equal(t, "first", all[2].Activity)

	limited, err := ListRecentActivity(context.Background(), db, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
