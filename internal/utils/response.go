package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DataResponse sends {success, data}
func DataResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(DataResponseStruct{Success: true, Data: data})
}

// ListResponse sends {success, count, data}
func ListResponse(c *fiber.Ctx, data interface{}, count int) error {
	return c.Status(fiber.StatusOK).JSON(ListResponseStruct{Success: true, Count: count, Data: data})
}

// MessageResponse sends {message}
func MessageResponse(c *fiber.Ctx, message string, status int) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
	})
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, status int, errorCode, message string, details []string) error {
	body := ErrorResponseStruct{
		Status:    "error",
		Ok:        false,
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
	}
	return c.Status(status).JSON(body)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", message, nil)
}

// DataResponseStruct defines the schema for single resource responses
type DataResponseStruct struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ListResponseStruct defines the schema for list responses
type ListResponseStruct struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

// MessageResponseStruct defines the schema for message only responses
type MessageResponseStruct struct {
	Message string `json:"message"`
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    string   `json:"status"`
	Ok        bool     `json:"ok"`
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Stack     string   `json:"stack,omitempty"`
}
