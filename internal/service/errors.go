package service

import "errors"

// Conflict errors: the request was well-formed but the pod's current state
// rejects it. Retrying without changing input will not help.
var (
	ErrPodNotJoinable    = errors.New("pod is no longer joinable")
	ErrPodNotActive      = errors.New("pod is not active")
	ErrNotAParticipant   = errors.New("sender is not a participant of this pod")
	ErrContentTooLong    = errors.New("message exceeds the pod's character limit")
	ErrVoiceTooLong      = errors.New("voice message exceeds the pod's duration limit")
	ErrMediaTypeMismatch = errors.New("media type is not permitted in this pod")
	ErrNotCreator        = errors.New("only the pod creator can do this")
	ErrNotManualLaunch   = errors.New("pod does not use manual launch mode")
)

// ErrValidation wraps malformed-request failures; the detail message carries
// the specific field problem.
var ErrValidation = errors.New("validation failed")

// ErrInvalidSortKey rejects unknown search sort keys rather than silently
// falling back to the default order.
var ErrInvalidSortKey = errors.New("invalid sort key")

var ErrInvalidCredentials = errors.New("invalid username or password")
