package utils

import (
	"net/http"
)

// AppError is an error carrying the HTTP status the handler layer
// should respond with.
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

// NewUnprocessableError marks input that was well-formed as a request
// but whose content could not be processed (e.g. a broken PDF).
func NewUnprocessableError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnprocessableEntity, Message: message}
}

// NewUpstreamError marks a failure in an external collaborator
// (LLM API, vector index).
func NewUpstreamError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}
