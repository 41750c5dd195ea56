// common.go
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

package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/middleware"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/localnerve/testcasedb/internal/types"
)

const msgInvalidBody = "Invalid request body"

// actor returns explicit when set, otherwise the authenticated caller.
func actor(c *fiber.Ctx, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	if p, ok := middleware.CurrentPrincipal(c); ok {
		return p.Actor()
	}
	return ""
}

// parseBody decodes a JSON body into out. An empty body leaves out unchanged.
func parseBody(c *fiber.Ctx, out interface{}) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return types.ValidationFailed(msgInvalidBody, err.Error())
	}
	return nil
}

// parsePatch decodes a JSON object body into its raw fields.
func parsePatch(c *fiber.Ctx) (map[string]json.RawMessage, error) {
	patch := map[string]json.RawMessage{}
	if err := parseBody(c, &patch); err != nil {
		return nil, err
	}
	if patch == nil {
		patch = map[string]json.RawMessage{}
	}
	return patch, nil
}

// parseFilter reads the module and projectId query parameters.
func parseFilter(c *fiber.Ctx) services.TestCaseFilter {
	return services.TestCaseFilter{
		Module:    strings.TrimSpace(c.Query("module")),
		ProjectID: strings.TrimSpace(c.Query("projectId")),
	}
}
