package types

// ErrorResponse is the single error body shape returned by the gateway.
// Every error condition, from a malformed key to a quota denial, uses this
// envelope so API clients can branch on the machine-readable fields.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Type categorizes the error.
	// Possible values: "authentication_error", "rate_limit_error",
	// "invalid_request_error", "api_error".
	Type string `json:"type"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeAuthentication indicates an authentication failure (401).
	ErrorTypeAuthentication = "authentication_error"

	// ErrorTypeRateLimit indicates a rate-limit denial (429).
	ErrorTypeRateLimit = "rate_limit_error"

	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeAPI indicates an internal server error (500).
	ErrorTypeAPI = "api_error"
)

// Error code constants for common scenarios.
const (
	// CodeAPIKeyMissing indicates no credential was presented.
	CodeAPIKeyMissing = "api_key_missing"

	// CodeInvalidAPIKeyFormat indicates the credential does not match an
	// accepted prefix scheme.
	CodeInvalidAPIKeyFormat = "invalid_api_key_format"

	// CodeInvalidAPIKey indicates no key record matches the credential.
	CodeInvalidAPIKey = "invalid_api_key"

	// CodeAPIKeyRevoked indicates the key was deactivated.
	CodeAPIKeyRevoked = "api_key_revoked"

	// CodeAPIKeyExpired indicates the key is past its expiry timestamp.
	CodeAPIKeyExpired = "api_key_expired"

	// CodeRateLimitExceeded indicates a quota or attempt-window denial.
	CodeRateLimitExceeded = "rate_limit_exceeded"

	// CodeValidationError indicates the key store failed during lookup.
	CodeValidationError = "validation_error"

	// CodeInvalidCredentials indicates a failed login attempt.
	CodeInvalidCredentials = "invalid_credentials"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeInternalError indicates an unexpected server failure.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(errorType, message, code, param string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Type:    errorType,
			Message: message,
			Code:    code,
			Param:   param,
		},
	}
}

// NewAuthenticationError creates an error response for auth failures (401).
func NewAuthenticationError(message, code string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeAuthentication, message, code, "")
}

// NewRateLimitError creates an error response for rate-limit denials (429).
func NewRateLimitError(message string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeRateLimit, message, CodeRateLimitExceeded, "")
}

// NewInvalidRequestError creates an error response for malformed requests (400).
func NewInvalidRequestError(message, code, param string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeInvalidRequest, message, code, param)
}

// NewAPIError creates an error response for internal failures (500).
func NewAPIError(message, code string) *ErrorResponse {
	return NewErrorResponse(ErrorTypeAPI, message, code, "")
}

// HTTPStatusCode returns the appropriate HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypeRateLimit:
		return 429
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeAPI:
		return 500
	default:
		return 500
	}
}
