// idalloc.go
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
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/metrics"
	"github.com/localnerve/testcasedb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

const testCaseIDPrefix = "TC-"

var testCaseIDPattern = regexp.MustCompile(`^TC-(\d+)$`)

// Code is one allocated test case code and its numeric sequence.
type Code struct {
	ID       string
	Sequence int64
}

// IDAllocator hands out sequential test case codes.
type IDAllocator interface {
	// Next allocates exactly one code.
	Next(ctx context.Context) (Code, error)
	// Reserve allocates a contiguous increasing block of n codes.
	Reserve(ctx context.Context, n int) ([]Code, error)
}

// FormatTestCaseID renders seq as TC-0001. Values past 9999 widen.
func FormatTestCaseID(seq int64) string {
	return fmt.Sprintf("%s%04d", testCaseIDPrefix, seq)
}

// ParseTestCaseID returns the numeric suffix of a TC-<digits> code.
func ParseTestCaseID(code string) (int64, bool) {
	m := testCaseIDPattern.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NewAllocator returns the allocator named by kind.
func NewAllocator(kind string, db *gorm.DB) (IDAllocator, error) {
	switch kind {
	case config.AllocatorMax:
		return NewMaxScanAllocator(db), nil
	case config.AllocatorCounter, "":
		return NewCounterAllocator(db), nil
	}
	return nil, fmt.Errorf("unknown id allocator %q", kind)
}

func block(start int64, n int) []Code {
	codes := make([]Code, n)
	for i := range codes {
		seq := start + int64(i)
		codes[i] = Code{ID: FormatTestCaseID(seq), Sequence: seq}
	}
	return codes
}

// latestSequence reads the numeric suffix of the newest persisted code.
// It returns 0 when there are no test cases or the top code is malformed.
func latestSequence(ctx context.Context, db *gorm.DB) (int64, error) {
	var tc models.TestCase
	query := db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("test_case_id", "sequence")
	if db.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_test_cases_sequence"))
	}

	err := query.Order("sequence DESC").Take(&tc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	seq, ok := ParseTestCaseID(tc.TestCaseID)
	if !ok {
		return 0, nil
	}
	return seq, nil
}

// MaxScanAllocator reads the current maximum code and counts up from it.
// Two concurrent allocations can compute overlapping blocks; the unique
// index on test_case_id rejects the second insert.
type MaxScanAllocator struct {
	db *gorm.DB
}

func NewMaxScanAllocator(db *gorm.DB) *MaxScanAllocator {
	return &MaxScanAllocator{db: db}
}

func (a *MaxScanAllocator) Next(ctx context.Context) (Code, error) {
	codes, err := a.Reserve(ctx, 1)
	if err != nil {
		return Code{}, err
	}
	return codes[0], nil
}

func (a *MaxScanAllocator) Reserve(ctx context.Context, n int) ([]Code, error) {
	if n < 1 {
		return nil, fmt.Errorf("reserve: invalid block size %d", n)
	}
	latest, err := latestSequence(ctx, a.db)
	if err != nil {
		return nil, fmt.Errorf("read latest test case id: %w", err)
	}
	metrics.TestCaseCodesAllocated.WithLabelValues(config.AllocatorMax).Add(float64(n))
	return block(latest+1, n), nil
}

// CounterAllocator advances a row in the sequences table with an atomic
// increment, so concurrent allocations never overlap. The row is seeded
// from the highest persisted code on first use.
type CounterAllocator struct {
	db     *gorm.DB
	name   string
	mu     sync.Mutex
	seeded bool
}

func NewCounterAllocator(db *gorm.DB) *CounterAllocator {
	return &CounterAllocator{db: db, name: models.SequenceTestCase}
}

func (a *CounterAllocator) Next(ctx context.Context) (Code, error) {
	codes, err := a.Reserve(ctx, 1)
	if err != nil {
		return Code{}, err
	}
	return codes[0], nil
}

func (a *CounterAllocator) Reserve(ctx context.Context, n int) ([]Code, error) {
	if n < 1 {
		return nil, fmt.Errorf("reserve: invalid block size %d", n)
	}
	if err := a.seed(ctx); err != nil {
		return nil, fmt.Errorf("seed %s sequence: %w", a.name, err)
	}

	var end int64
	err := a.db.WithContext(ctx).Session(&gorm.Session{Logger: a.db.Logger.LogMode(logger.Silent)}).
		Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Sequence{}).
				Where("name = ?", a.name).
				Update("value", gorm.Expr("value + ?", n))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("sequence %q missing", a.name)
			}

			var seq models.Sequence
			if err := tx.Where("name = ?", a.name).Take(&seq).Error; err != nil {
				return err
			}
			end = seq.Value
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("advance %s sequence: %w", a.name, err)
	}

	metrics.TestCaseCodesAllocated.WithLabelValues(config.AllocatorCounter).Add(float64(n))
	return block(end-int64(n)+1, n), nil
}

// seed creates the counter row and raises it to the highest persisted code.
func (a *CounterAllocator) seed(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seeded {
		return nil
	}

	latest, err := latestSequence(ctx, a.db)
	if err != nil {
		return err
	}

	db := a.db.WithContext(ctx).Session(&gorm.Session{Logger: a.db.Logger.LogMode(logger.Silent)})
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Sequence{Name: a.name, Value: latest}).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Sequence{}).
		Where("name = ? AND value < ?", a.name, latest).
		Update("value", latest).Error; err != nil {
		return err
	}

	a.seeded = true
	return nil
}
