package config

import (
	"fmt"
	"strings"

	"termio/pkg/console"
)

// ValidationError represents a validation error with field context.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends a new validation error.
func (ve *ValidationErrors) Add(field, message string, value ...any) {
	var val any
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for mistakes that would otherwise
// surface later as registration surprises: an unknown color mode, sinks
// without a path, and entries that collapse onto the same log file once
// the .log extension is applied.
func (c Config) Validate() error {
	var errs ValidationErrors

	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		errs.Add("color", fmt.Sprintf("must be one of: %s, %s, %s", ColorAuto, ColorAlways, ColorNever), c.Color)
	}

	seen := make(map[string]int)
	for i, s := range c.Sinks {
		field := fmt.Sprintf("sinks[%d].path", i)
		if strings.TrimSpace(s.Path) == "" {
			errs.Add(field, "is required")
			continue
		}
		key := console.SinkPath(s.Path)
		if prev, ok := seen[key]; ok {
			errs.Add(field, fmt.Sprintf("resolves to the same file as sinks[%d].path (%s)", prev, key), s.Path)
			continue
		}
		seen[key] = i
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
