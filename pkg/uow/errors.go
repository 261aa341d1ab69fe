package uow

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Usage errors: the coordinator was invoked outside its valid lifecycle.
// Both sentinels wrap ErrFinalized, so callers that only care that the scope
// is closed can match the one sentinel with errors.Is.
var (
	ErrFinalized         = errors.New("unit of work already finalized")
	ErrAlreadyCommitted  = fmt.Errorf("%w: committed", ErrFinalized)
	ErrAlreadyRolledBack = fmt.Errorf("%w: rolled back", ErrFinalized)
)

// Stages of the participant contract, used to label ContractError.
const (
	StageCheckpoint = "checkpoint"
	StageRestore    = "restore"
	StageCommit     = "commit"
)

// ContractError reports a checkpoint, restore or commit failure of a single
// participant, identified by its position in enrollment order.
type ContractError struct {
	Participant int
	Stage       string
	Err         error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("participant %d: %s: %v", e.Participant, e.Stage, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// RollbackError is returned when a unit of work was rolled back and one or
// more participants failed to restore. Cause is the failure that triggered
// the rollback, preserved rather than substituted; Restore holds every
// restore failure hit during the fan-out. Both are reachable through
// errors.Is and errors.As.
type RollbackError struct {
	Cause   error
	Restore []error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rolled back after: %v; restore failed: %v", e.Cause, multierr.Combine(e.Restore...))
}

func (e *RollbackError) Unwrap() []error {
	return append([]error{e.Cause}, e.Restore...)
}
