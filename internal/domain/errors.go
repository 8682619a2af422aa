package domain

import "fmt"

// ValidationError indicates bad input shape or checksum. It is raised
// before any network attempt and maps to a 4xx-equivalent at the edge.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError indicates a vendor API rejected the call or the network
// failed. It wraps the vendor's message.
type UpstreamError struct {
	Platform  string
	Operation string
	Message   string
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed: %s", e.Platform, e.Operation, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Platform, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps a vendor failure.
func NewUpstreamError(platform, operation, message string, err error) *UpstreamError {
	return &UpstreamError{Platform: platform, Operation: operation, Message: message, Err: err}
}

// ConfigurationError indicates an adapter was constructed with missing
// required credentials. Construction fails fast; the adapter never reaches
// the registry.
type ConfigurationError struct {
	Platform string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %v", e.Platform, e.Missing)
}

// DuplicateIDError indicates an integration id is already registered.
// Re-registration must go through unregister first so accumulated counters
// are never silently lost.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("integration %q is already registered", e.ID)
}
