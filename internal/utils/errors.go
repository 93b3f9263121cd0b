package utils

import "fmt"

// ValidationError represents an error occurring during request validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationErrorf creates a ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnknownKpiError is returned when a requested KPI name is not among the
// recognized company KPI columns.
type UnknownKpiError struct {
	Message string
}

func (e *UnknownKpiError) Error() string {
	return e.Message
}

// NewUnknownKpiError creates an UnknownKpiError naming the offending KPI
// and the valid set.
func NewUnknownKpiError(kpi string, known []string) error {
	return &UnknownKpiError{Message: fmt.Sprintf("invalid KPI: %s. Valid KPIs: %v", kpi, known)}
}

// UnknownSeriesError is returned when a requested macro series has no
// observations in the store at all.
type UnknownSeriesError struct {
	Message string
}

func (e *UnknownSeriesError) Error() string {
	return e.Message
}

// NewUnknownSeriesError creates an UnknownSeriesError for a series ID.
func NewUnknownSeriesError(seriesID string) error {
	return &UnknownSeriesError{Message: fmt.Sprintf("unknown macro series: %s", seriesID)}
}

// InsufficientDataError is returned when there is some data but fewer
// usable rows than an operation needs. Distinct from NoDataError, which
// means zero rows.
type InsufficientDataError struct {
	Message string
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// NewInsufficientDataErrorf creates an InsufficientDataError with a
// formatted message.
func NewInsufficientDataErrorf(format string, args ...interface{}) error {
	return &InsufficientDataError{Message: fmt.Sprintf(format, args...)}
}

// DegenerateInputError is returned when an input is numerically unusable,
// such as a predictor with zero variance.
type DegenerateInputError struct {
	Message string
}

func (e *DegenerateInputError) Error() string {
	return e.Message
}

// NewDegenerateInputErrorf creates a DegenerateInputError with a
// formatted message.
func NewDegenerateInputErrorf(format string, args ...interface{}) error {
	return &DegenerateInputError{Message: fmt.Sprintf(format, args...)}
}

// NoDataError is returned when no records exist for the requested symbol
// or series.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string {
	return e.Message
}

// NewNoDataErrorf creates a NoDataError with a formatted message.
func NewNoDataErrorf(format string, args ...interface{}) error {
	return &NoDataError{Message: fmt.Sprintf(format, args...)}
}
