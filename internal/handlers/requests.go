package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// AITextRequest is the body of POST /api/ai/text.
type AITextRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AIQueryRequest is the body of the legacy POST /api/ai endpoint.
type AIQueryRequest struct {
	Query string `json:"query" validate:"required"`
}
