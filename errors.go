package gatekeeper

import "errors"

var (
	// ErrTokenInvalid indicates a bearer token that failed verification.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates a bearer token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates a bearer token that has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrValidatorUnavailable indicates the token validation backend did not answer.
	ErrValidatorUnavailable = errors.New("token validator unavailable")
	// ErrTrackerUnavailable indicates the failed-attempt tracker did not answer.
	ErrTrackerUnavailable = errors.New("attempt tracker unavailable")
	// ErrSessionUnavailable indicates the session backend did not answer.
	ErrSessionUnavailable = errors.New("session backend unavailable")
	// ErrThreatUnavailable indicates the threat detector did not answer.
	ErrThreatUnavailable = errors.New("threat detector unavailable")
	// ErrGateNotReady indicates the gate was used before Builder.Build.
	ErrGateNotReady = errors.New("gate not initialized")
)
