// script.go
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

import "fmt"

const (
	noStepsText          = "No steps provided"
	noExpectedResultText = "No expected result provided"
)

// GenerateScript derives the execution script of a test case. The output
// depends only on the code, steps and expected result.
func GenerateScript(testCaseID, steps, expectedResult string) string {
	if steps == "" {
		steps = noStepsText
	}
	if expectedResult == "" {
		expectedResult = noExpectedResultText
	}
	return fmt.Sprintf("Test Script for %s:\n1. Execute steps: %s\n2. Verify: %s", testCaseID, steps, expectedResult)
}
