package middleware

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hirecircle/internal/domain"
)

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

type kindStatus struct {
	status int
	code   string
}

var kindStatuses = map[error]kindStatus{
	domain.ErrUnauthenticated:   {fiber.StatusUnauthorized, "UNAUTHORIZED"},
	domain.ErrProfileMissing:    {fiber.StatusForbidden, "PROFILE_MISSING"},
	domain.ErrValidation:        {fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	domain.ErrNotFound:          {fiber.StatusNotFound, "NOT_FOUND"},
	domain.ErrInvalidTransition: {fiber.StatusConflict, "INVALID_TRANSITION"},
	domain.ErrForbidden:         {fiber.StatusForbidden, "FORBIDDEN"},
	domain.ErrConflict:          {fiber.StatusConflict, "CONFLICT"},
	domain.ErrPersistence:       {fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	errorCode := "INTERNAL_ERROR"
	var details map[string]string

	traceID := uuid.New().String()[:8]

	var fe *fiber.Error
	var de *domain.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message

		switch code {
		case fiber.StatusBadRequest:
			errorCode = "BAD_REQUEST"
		case fiber.StatusUnauthorized:
			errorCode = "UNAUTHORIZED"
		case fiber.StatusForbidden:
			errorCode = "FORBIDDEN"
		case fiber.StatusNotFound:
			errorCode = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			errorCode = "METHOD_NOT_ALLOWED"
		case fiber.StatusConflict:
			errorCode = "CONFLICT"
		case fiber.StatusRequestEntityTooLarge:
			errorCode = "PAYLOAD_TOO_LARGE"
		case fiber.StatusUnprocessableEntity:
			errorCode = "VALIDATION_ERROR"
		case fiber.StatusTooManyRequests:
			errorCode = "RATE_LIMITED"
		case fiber.StatusServiceUnavailable:
			errorCode = "SERVICE_UNAVAILABLE"
		}
	case errors.As(err, &de):
		if ks, ok := kindStatuses[de.Kind]; ok {
			code, errorCode = ks.status, ks.code
			message = de.Message
			details = de.Fields
		}
		if de.Kind == domain.ErrPersistence {
			log.Printf("[%s] %s %s: %v", traceID, c.Method(), c.Path(), err)
			message = "The service is temporarily unavailable, please retry"
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusServiceUnavailable
		errorCode = "SERVICE_UNAVAILABLE"
		message = "Request was cancelled"
	default:
		log.Printf("[%s] %s %s: %v", traceID, c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Code:    errorCode,
		Message: message,
		Details: details,
		TraceID: traceID,
	})
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func TooManyRequests(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusTooManyRequests, message)
}

func ServiceUnavailable(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusServiceUnavailable, message)
}
