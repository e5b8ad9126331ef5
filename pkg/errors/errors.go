package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSherlockNotInstalled = errors.New("sherlock not installed")
	ErrRedditNotConfigured  = errors.New("reddit credentials not configured")
	ErrNoScanModes          = errors.New("no valid scan modes configured")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// ScanError wraps a failure of a single sub-scan, tagging the source.
type ScanError struct {
	Source string
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s scan failed: %v", e.Source, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func NewScanError(source string, err error) *ScanError {
	return &ScanError{
		Source: source,
		Err:    err,
	}
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
