// errors.go
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

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/types"
	"github.com/localnerve/testcasedb/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const genericMessage = "An unexpected error occurred"

// ErrorHandler renders every error returned by a handler as an
// utils.ErrorResponseStruct.
func ErrorHandler(cfg *config.Config, log *zap.Logger) fiber.ErrorHandler {
	dev := cfg.IsDevelopment()

	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)

		body := utils.ErrorResponseStruct{
			Status:    "error",
			Ok:        false,
			ErrorCode: string(appErr.Kind),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			URL:       c.OriginalURL(),
		}

		if appErr.Code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
				zap.Error(err))
			if dev {
				body.Stack = fmt.Sprintf("%+v\n%s", err, debug.Stack())
			} else {
				body.Message = genericMessage
			}
		}

		return c.Status(appErr.Code).JSON(body)
	}
}

func toAppError(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &types.AppError{Code: fiberErr.Code, Kind: kindForStatus(fiberErr.Code), Message: fiberErr.Message, Err: err}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.NotFound("Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Conflict("Duplicate key", err)
	}
	return types.Internal(err)
}

func kindForStatus(code int) types.ErrorKind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return types.KindValidation
	case http.StatusUnauthorized:
		return types.KindUnauthorized
	case http.StatusForbidden:
		return types.KindForbidden
	case http.StatusNotFound:
		return types.KindNotFound
	case http.StatusConflict:
		return types.KindConflict
	}
	if code >= http.StatusInternalServerError {
		return types.KindInternal
	}
	return types.ErrorKind(http.StatusText(code))
}
