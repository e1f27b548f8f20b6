// Package unireqerr defines the error taxonomy shared across every policy
// in the request kernel, so a caller can `errors.As` a single type
// regardless of which policy or transport produced the failure.
package unireqerr

import "fmt"

// Code identifies the abstract error kind. Concrete policies attach a
// Code plus a human message and, where available, the underlying cause.
type Code string

const (
	Network                    Code = "NETWORK"
	Timeout                    Code = "TIMEOUT"
	HTTP                       Code = "HTTP"
	Serialization              Code = "SERIALIZATION"
	DuplicatePolicy            Code = "DUPLICATE_POLICY"
	InvalidSlot                Code = "INVALID_SLOT"
	MissingCapability          Code = "MISSING_CAPABILITY"
	UnsupportedAuthForTransport Code = "UNSUPPORTED_AUTH_FOR_TRANSPORT"
	UnsupportedMediaType       Code = "UNSUPPORTED_MEDIA_TYPE"
	NotAcceptable              Code = "NOT_ACCEPTABLE"
	URLNormalizationFailed     Code = "URL_NORMALIZATION_FAILED"
	Validation                 Code = "VALIDATION"
	TokenExtraction            Code = "TOKEN_EXTRACTION"
	LoginRequestFailed         Code = "LOGIN_REQUEST_FAILED"
	KeychainUnavailable        Code = "KEYCHAIN_UNAVAILABLE"
	CircularReference          Code = "CIRCULAR_REFERENCE"
	MaxRecursion               Code = "MAX_RECURSION"
)

// Error is the single, consistent error envelope required by spec §7:
// {code, message, cause?}. Status/headers/data are attached by higher
// layers (e.g. the HTTP-specific retry predicate) rather than living here,
// keeping the core transport-neutral.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause chain so errors.Is/errors.As keep working across
// policy boundaries, per spec §7's "MUST be throwable ... without loss of
// the cause chain".
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, unireqerr.New(Code, "")) to match on Code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
