package model

import "fmt"

// maxUpstreamBodyExcerpt bounds provider error bodies so a failing upstream
// cannot dump an oversized payload into our error messages.
const maxUpstreamBodyExcerpt = 300

// ConfigError is returned as 500 when a required API key or setting is
// missing. Surfaced before any streaming begins — never a silent fallback.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// AccessDeniedError is returned as 403 when the project access check fails.
type AccessDeniedError struct {
	ProjectID string
}

func (e *AccessDeniedError) Error() string {
	return "Access denied"
}

// NotFoundError is returned as 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError carries a provider's non-2xx status and a bounded excerpt
// of its response body.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

// NewUpstreamError truncates body to the excerpt bound.
func NewUpstreamError(provider string, status int, body []byte) *UpstreamError {
	excerpt := string(body)
	if len(excerpt) > maxUpstreamBodyExcerpt {
		excerpt = excerpt[:maxUpstreamBodyExcerpt]
	}
	return &UpstreamError{Provider: provider, Status: status, Body: excerpt}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned %d: %s", e.Provider, e.Status, e.Body)
}
