// metrics.go
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

// Package metrics holds the service's domain counters. HTTP metrics come from
// fiberprometheus and share the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActivityWriteFailures counts activity entries dropped after a failed write.
	ActivityWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "testcasedb",
		Name:      "activity_write_failures_total",
		Help:      "Activity entries that could not be persisted.",
	}, []string{"sink"})

	// TestCaseCodesAllocated counts sequential test case codes handed out.
	TestCaseCodesAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "testcasedb",
		Name:      "testcase_codes_allocated_total",
		Help:      "Sequential test case codes allocated.",
	}, []string{"mode"})

	// ImportedRows counts rows processed by the bulk import, by outcome.
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "testcasedb",
		Name:      "import_rows_total",
		Help:      "Spreadsheet rows processed by bulk import.",
	}, []string{"outcome"})
)
