package ecs

import "fmt"

// Severity classifies how a CoreError should be handled by a caller,
// adapted from the teacher's ECSError.GetSeverity/IsRecoverable pair
// (internal/core/ecs/errors.go in the retrieval pack).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// CoreError is the shared error shape used across the ecs, simulation, and
// tss packages so that error-kind
// classification (SPEC_FULL.md §7) is uniform everywhere. Code is a stable,
// programmatically matchable string; Err, when set, is the underlying cause
// and is exposed through Unwrap for errors.Is/errors.As.
type CoreError struct {
	Code     string
	Message  string
	Severity Severity
	Err      error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

// Recoverable reports whether the caller can continue without tearing down
// the owning simulation/controller.
func (e *CoreError) Recoverable() bool {
	return e.Severity != SeverityCritical
}

// Well-known error codes, matching the error kinds named in SPEC_FULL.md §7.
const (
	ErrCodeEntityNotFound      = "ENTITY_NOT_FOUND"
	ErrCodeInvalidEntityID     = "INVALID_ENTITY_ID"
	ErrCodeComponentNotFound   = "COMPONENT_NOT_FOUND"
	ErrCodeComponentExists     = "COMPONENT_EXISTS"
	ErrCodeSystemTagMismatch   = "SYSTEM_TAG_MISMATCH"
	ErrCodePacketMalformed     = "PACKET_MALFORMED"
	ErrCodeUnknownTypeTag      = "UNKNOWN_TYPE_TAG"
	ErrCodeCommandTooOld       = "COMMAND_TOO_OLD"
	ErrCodeCommandTooFuture    = "COMMAND_TOO_FUTURE"
	ErrCodePlayerMismatch      = "PLAYER_NUMBER_MISMATCH"
	ErrCodeHashMismatch        = "HASH_MISMATCH"
	ErrCodeSnapshotHash        = "SNAPSHOT_HASH_MISMATCH"
	ErrCodeSimulationInvalid   = "SIMULATION_INVALIDATED"
)

func newError(code string, severity Severity, msg string, cause error) *CoreError {
	return &CoreError{Code: code, Message: msg, Severity: severity, Err: cause}
}

// ErrEntityNotFound reports an operation against an entity id the Manager
// does not recognize.
func ErrEntityNotFound(id EntityID) error {
	return newError(ErrCodeEntityNotFound, SeverityWarning,
		fmt.Sprintf("entity %d not found", id), nil)
}

// ErrInvalidEntityID reports use of the zero entity id.
func ErrInvalidEntityID() error {
	return newError(ErrCodeInvalidEntityID, SeverityError, "entity id is invalid", nil)
}

// ErrComponentNotFound reports a lookup for a component id the Manager does
// not recognize.
func ErrComponentNotFound(id ComponentID) error {
	return newError(ErrCodeComponentNotFound, SeverityWarning,
		fmt.Sprintf("component %d not found", id), nil)
}

// ErrComponentExists reports a duplicate add of a single-instance component
// type to the same entity.
func ErrComponentExists(entity EntityID, kind ComponentType) error {
	return newError(ErrCodeComponentExists, SeverityError,
		fmt.Sprintf("entity %d already has component type %d", entity, kind), nil)
}

// ErrSystemTagMismatch reports a depacketize/copy_into call whose wire tag
// does not match the system already registered at that position — systems
// are structurally declared at construction time, never reconstructed from
// the wire, so a mismatch here is a programmer error.
func ErrSystemTagMismatch(expected, got string) error {
	return newError(ErrCodeSystemTagMismatch, SeverityCritical,
		fmt.Sprintf("expected system tag %q, got %q", expected, got), nil)
}
