// Package rerr defines the error kinds the core recognizes (spec.md §7),
// as sentinel values matched with errors.Is at package boundaries, in the
// manner of the teacher's root-level errors.go.
package rerr

import "errors"

var (
	// ErrUnknownProcessorName is returned when Create is given a
	// processor_name absent from the name→kind mapping.
	ErrUnknownProcessorName = errors.New("unknown processor name")

	// ErrUnknownProcessorID is returned when a processor id does not
	// resolve in the registry.
	ErrUnknownProcessorID = errors.New("unknown processor id")

	// ErrInvalidID is returned when a processor id fails to parse as a UUID.
	ErrInvalidID = errors.New("invalid processor id")

	// ErrProcessorUnreachable is returned when a command was sent to a
	// processor but no reply ever arrived — typically because the
	// processor was cancelled or panicked mid-command.
	ErrProcessorUnreachable = errors.New("processor unreachable")

	// ErrAckMismatch is returned when a command's acknowledgment reports a
	// status inconsistent with the command that was sent (e.g. Start
	// acknowledged as anything but Running or Errored).
	ErrAckMismatch = errors.New("processor acknowledgment mismatch")
)
