// Package uow implements a cooperative unit of work: a group of deferred
// operations against independent repositories that either all take effect or
// none do. Participants have no shared transactional backend; atomicity is
// best-effort and valid only while every participant stays reachable
// in-process.
package uow

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Snapshot is an opaque point-in-time copy of a participant's state. Its
// contents belong to the participant that produced it; the coordinator only
// carries it between Checkpoint and Restore. The alias keeps participant
// implementations free of an import on this package.
type Snapshot = any

// Participant is a store that can be enrolled in a unit of work. Checkpoint
// must return a deep, independent copy of the current state without mutating
// it. Restore must replace the live state wholesale with an independent copy
// of the snapshot's contents, and must be safe to call even if the store was
// never mutated. Commit discards any retained snapshots and must not alter
// live data. Participants own their locking; the coordinator never serializes
// access to stores it does not mutate itself.
type Participant interface {
	Checkpoint(ctx context.Context) (Snapshot, error)
	Restore(ctx context.Context, snapshot Snapshot) error
	Commit(ctx context.Context) error
}

// Operation is a deferred unit of work. Operations run strictly in
// registration order at commit time; later operations may depend on state
// mutated by earlier ones.
type Operation func(ctx context.Context) error

// State tracks the coordinator lifecycle. Exactly one of commit or rollback
// happens per unit of work, exactly once.
type State uint8

const (
	StateOpen State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type checkpoint struct {
	participant Participant
	snapshot    Snapshot
}

// UnitOfWork coordinates an all-or-nothing group of operations across a fixed
// set of participants. A single instance is not safe for concurrent use;
// confine each unit of work to one goroutine.
type UnitOfWork struct {
	status      State
	checkpoints []checkpoint
	operations  []Operation
}

// Begin opens a unit of work over the given participants, checkpointing each
// one in the order given. Duplicates are not deduplicated: a participant
// passed twice is checkpointed and restored twice. If a checkpoint fails, the
// participants checkpointed so far are restored (best effort) and the failure
// is returned before any operation can run.
func Begin(ctx context.Context, participants ...Participant) (*UnitOfWork, error) {
	u := &UnitOfWork{status: StateOpen}
	for i, p := range participants {
		snap, err := p.Checkpoint(ctx)
		if err != nil {
			cerr := &ContractError{Participant: i, Stage: StageCheckpoint, Err: err}
			u.status = StateRolledBack
			if rerr := u.restoreAll(ctx); rerr != nil {
				return nil, multierr.Append(cerr, rerr)
			}
			return nil, cerr
		}
		u.checkpoints = append(u.checkpoints, checkpoint{participant: p, snapshot: snap})
	}
	return u, nil
}

// State reports the coordinator lifecycle state.
func (u *UnitOfWork) State() State {
	return u.status
}

// Register appends a deferred operation. Valid only while the unit of work is
// open; registering after commit or rollback is a usage error and the
// operation is never executed.
func (u *UnitOfWork) Register(op Operation) error {
	if u.status != StateOpen {
		return u.usageError("register operation")
	}
	u.operations = append(u.operations, op)
	return nil
}

// Commit executes every registered operation strictly in registration order,
// stopping at the first failure. If all succeed, each participant's Commit is
// invoked in enrollment order; a participant commit failure does not undo
// already-committed participants (commit is best-effort cleanup, not a second
// transactional phase) but every such failure is surfaced. If any operation
// fails, every participant is restored and the triggering error is returned
// unchanged when all restores succeed, or wrapped in a *RollbackError carrying
// the restore failures otherwise.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.status != StateOpen {
		return u.usageError("commit")
	}
	for _, op := range u.operations {
		if err := op(ctx); err != nil {
			u.status = StateRolledBack
			if rerr := u.restoreAll(ctx); rerr != nil {
				return &RollbackError{Cause: err, Restore: multierr.Errors(rerr)}
			}
			return err
		}
	}
	u.status = StateCommitted
	var errs error
	for i, cp := range u.checkpoints {
		if err := cp.participant.Commit(ctx); err != nil {
			errs = multierr.Append(errs, &ContractError{Participant: i, Stage: StageCommit, Err: err})
		}
	}
	return errs
}

// Rollback restores every participant to its pre-scope snapshot and finalizes
// the unit of work. Participants are visited in reverse enrollment order so
// the most recently depended-upon state is undone first; this is a documented
// policy choice, not an observable requirement of the contract. A restore
// failure on one participant does not stop the fan-out; all restore failures
// are aggregated. Rolling back twice, or after commit, is a usage error and
// performs no further state change.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.status != StateOpen {
		return u.usageError("rollback")
	}
	u.status = StateRolledBack
	return u.restoreAll(ctx)
}

func (u *UnitOfWork) restoreAll(ctx context.Context) error {
	var errs error
	for i := len(u.checkpoints) - 1; i >= 0; i-- {
		cp := u.checkpoints[i]
		if err := cp.participant.Restore(ctx, cp.snapshot); err != nil {
			errs = multierr.Append(errs, &ContractError{Participant: i, Stage: StageRestore, Err: err})
		}
	}
	return errs
}

func (u *UnitOfWork) usageError(action string) error {
	if u.status == StateCommitted {
		return fmt.Errorf("%s: %w", action, ErrAlreadyCommitted)
	}
	return fmt.Errorf("%s: %w", action, ErrAlreadyRolledBack)
}

// Do runs fn inside a scoped unit of work over the given participants. fn
// registers deferred operations on the passed coordinator and may roll it
// back explicitly. When fn returns nil and the unit of work is still open it
// is committed; when fn returns an error the unit of work is rolled back and
// fn's error propagates, with any restore failures attached via
// *RollbackError. This is the preferred entry point; Begin/Commit/Rollback
// remain available for callers that need to hold a scope across function
// boundaries.
func Do(ctx context.Context, fn func(tx *UnitOfWork) error, participants ...Participant) error {
	tx, err := Begin(ctx, participants...)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if tx.status != StateOpen {
			// fn already finalized the scope; surface its error as-is.
			return err
		}
		if rerr := tx.Rollback(ctx); rerr != nil {
			return &RollbackError{Cause: err, Restore: multierr.Errors(rerr)}
		}
		return err
	}
	if tx.status != StateOpen {
		// fn rolled back explicitly and chose not to report an error.
		return nil
	}
	return tx.Commit(ctx)
}
