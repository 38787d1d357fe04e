package digitizer

import (
	"errors"
	"fmt"
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ErrWriteTable represents an error when appending rows to a table.
type ErrWriteTable struct {
	TableName string
	Err       error
}

func (e *ErrWriteTable) Error() string {
	return fmt.Sprintf("error writing table %q: %v", e.TableName, e.Err)
}

func (e *ErrWriteTable) Unwrap() error { return e.Err }

// ErrUnknownDetectorElement is returned when a deposit refers to an element
// id missing from the geometry. Only the deposit is dropped.
type ErrUnknownDetectorElement struct {
	EventID   uint32
	ElementID int32
}

func (e *ErrUnknownDetectorElement) Error() string {
	return fmt.Sprintf("event %d: unknown detector element %d", e.EventID, e.ElementID)
}

// ErrOutOfOrderDeposit is returned when the digitizer receives a
// notification that its current state does not allow.
type ErrOutOfOrderDeposit struct {
	EventID uint32
	State   State
	Op      string
}

func (e *ErrOutOfOrderDeposit) Error() string {
	return fmt.Sprintf("event %d: %s received in state %s", e.EventID, e.Op, e.State)
}

// ErrDegenerateGeometry is returned when a position cannot be smeared,
// e.g. a barrel hit on the detector axis.
type ErrDegenerateGeometry struct {
	EventID   uint32
	ElementID int32
	Reason    string
}

func (e *ErrDegenerateGeometry) Error() string {
	return fmt.Sprintf("event %d, element %d: degenerate geometry: %s", e.EventID, e.ElementID, e.Reason)
}

// ErrInvalidGeometry means the element mapping cannot be used at all.
type ErrInvalidGeometry struct {
	Reason string
}

func (e *ErrInvalidGeometry) Error() string {
	return fmt.Sprintf("invalid geometry mapping: %s", e.Reason)
}

// IsFatalToEvent reports whether err must abort the current event.
func IsFatalToEvent(err error) bool {
	var outOfOrder *ErrOutOfOrderDeposit
	var degenerate *ErrDegenerateGeometry
	return errors.As(err, &outOfOrder) || errors.As(err, &degenerate)
}
