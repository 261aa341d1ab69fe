package uow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"atomik.backend/pkg/uow"
)

// fakeStore is a minimal rollback-capable participant: a map with deep-copy
// snapshots and optional injected contract failures.
type fakeStore struct {
	name  string
	items map[string]int
	calls *[]string // shared call log across stores, for ordering assertions

	failCheckpoint bool
	failRestore    bool
	failCommit     bool
}

type fakeSnapshot struct {
	items map[string]int
}

func newFakeStore(name string, calls *[]string) *fakeStore {
	return &fakeStore{name: name, items: map[string]int{}, calls: calls}
}

func (s *fakeStore) record(stage string) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name+"."+stage)
	}
}

func (s *fakeStore) copyItems() map[string]int {
	cp := make(map[string]int, len(s.items))
	for k, v := range s.items {
		cp[k] = v
	}
	return cp
}

func (s *fakeStore) Checkpoint(_ context.Context) (uow.Snapshot, error) {
	s.record("checkpoint")
	if s.failCheckpoint {
		return nil, fmt.Errorf("%s: checkpoint refused", s.name)
	}
	return &fakeSnapshot{items: s.copyItems()}, nil
}

func (s *fakeStore) Restore(_ context.Context, snap uow.Snapshot) error {
	s.record("restore")
	if s.failRestore {
		return fmt.Errorf("%s: restore refused", s.name)
	}
	fs, ok := snap.(*fakeSnapshot)
	if !ok {
		return fmt.Errorf("%s: foreign snapshot %T", s.name, snap)
	}
	s.items = make(map[string]int, len(fs.items))
	for k, v := range fs.items {
		s.items[k] = v
	}
	return nil
}

func (s *fakeStore) Commit(_ context.Context) error {
	s.record("commit")
	if s.failCommit {
		return fmt.Errorf("%s: commit refused", s.name)
	}
	return nil
}

// add mirrors the reference participant's only mutating operation: insert
// with duplicate-key rejection.
func (s *fakeStore) add(key string, value int) error {
	if _, ok := s.items[key]; ok {
		return fmt.Errorf("duplicate key %q", key)
	}
	s.items[key] = value
	return nil
}

func TestDo_AllOperationsSucceed_CommitsEveryParticipant(t *testing.T) {
	ctx := context.Background()
	var calls []string
	a := newFakeStore("a", &calls)
	b := newFakeStore("b", &calls)

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error { return a.add("x", 1) }))
		require.NoError(t, tx.Register(func(ctx context.Context) error { return b.add("y", 2) }))
		return nil
	}, a, b)

	require.NoError(t, err)
	require.Equal(t, map[string]int{"x": 1}, a.items)
	require.Equal(t, map[string]int{"y": 2}, b.items)
	require.Equal(t, []string{"a.checkpoint", "b.checkpoint", "a.commit", "b.commit"}, calls)
}

func TestDo_OperationsRunInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)

	var order []int
	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		for i := 0; i < 5; i++ {
			i := i
			require.NoError(t, tx.Register(func(ctx context.Context) error {
				order = append(order, i)
				return nil
			}))
		}
		return nil
	}, s)

	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

// Spec scenario: two empty stores, two good operations and a third that
// fails. The first two execute (intermediate state exists transiently) but
// both stores end up empty and the triggering error reaches the caller.
func TestDo_ThirdOperationFails_BothStoresRestored(t *testing.T) {
	ctx := context.Background()
	a := newFakeStore("a", nil)
	b := newFakeStore("b", nil)
	boom := errors.New("op3 exploded")

	sawIntermediate := false
	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error { return a.add("x", 1) }))
		require.NoError(t, tx.Register(func(ctx context.Context) error { return b.add("y", 2) }))
		require.NoError(t, tx.Register(func(ctx context.Context) error {
			sawIntermediate = len(a.items) == 1 && len(b.items) == 1
			return boom
		}))
		return nil
	}, a, b)

	require.ErrorIs(t, err, boom)
	require.True(t, sawIntermediate)
	require.Empty(t, a.items)
	require.Empty(t, b.items)
}

// Spec scenario: a store holding key k already; an operation inserting a
// duplicate fails, the rollback leaves only the original entry behind.
func TestDo_DuplicateKey_OriginalEntrySurvives(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)
	require.NoError(t, s.add("k", 1))

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		return tx.Register(func(ctx context.Context) error { return s.add("k", 99) })
	}, s)

	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate key")
	require.Equal(t, map[string]int{"k": 1}, s.items)
}

// Spec scenario: zero participants is a legal no-op transaction; operations
// still run once and the scope commits.
func TestDo_ZeroParticipants_OperationStillRuns(t *testing.T) {
	ctx := context.Background()
	ran := 0
	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		return tx.Register(func(ctx context.Context) error {
			ran++
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, ran)
}

func TestDo_ErrorFromFn_RollsBackWithoutRunningOperations(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)
	require.NoError(t, s.add("k", 1))
	boom := errors.New("forced rollback")

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error { return s.add("k2", 2) }))
		return boom
	}, s)

	require.ErrorIs(t, err, boom)
	require.Equal(t, map[string]int{"k": 1}, s.items)
}

func TestRollback_VisitsParticipantsInReverseOrder(t *testing.T) {
	ctx := context.Background()
	var calls []string
	a := newFakeStore("a", &calls)
	b := newFakeStore("b", &calls)
	c := newFakeStore("c", &calls)

	tx, err := uow.Begin(ctx, a, b, c)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	require.Equal(t, []string{
		"a.checkpoint", "b.checkpoint", "c.checkpoint",
		"c.restore", "b.restore", "a.restore",
	}, calls)
	require.Equal(t, uow.StateRolledBack, tx.State())
}

func TestRollback_Twice_IsUsageError(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)

	tx, err := uow.Begin(ctx, s)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	require.ErrorIs(t, tx.Rollback(ctx), uow.ErrAlreadyRolledBack)
}

func TestRollback_AfterCommit_IsUsageError(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)

	tx, err := uow.Begin(ctx, s)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.ErrorIs(t, tx.Rollback(ctx), uow.ErrAlreadyCommitted)
	require.Equal(t, uow.StateCommitted, tx.State())
}

func TestRegister_AfterFinalize_IsUsageErrorAndNeverExecutes(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)

	tx, err := uow.Begin(ctx, s)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	ran := false
	regErr := tx.Register(func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, regErr, uow.ErrAlreadyCommitted)
	require.ErrorIs(t, tx.Commit(ctx), uow.ErrAlreadyCommitted)
	require.False(t, ran)
}

func TestUsageErrors_MatchFinalizedSentinel(t *testing.T) {
	ctx := context.Background()

	committed, err := uow.Begin(ctx, newFakeStore("a", nil))
	require.NoError(t, err)
	require.NoError(t, committed.Commit(ctx))
	require.ErrorIs(t, committed.Commit(ctx), uow.ErrFinalized)
	require.ErrorIs(t, committed.Rollback(ctx), uow.ErrFinalized)

	rolledBack, err := uow.Begin(ctx, newFakeStore("b", nil))
	require.NoError(t, err)
	require.NoError(t, rolledBack.Rollback(ctx))
	require.ErrorIs(t, rolledBack.Rollback(ctx), uow.ErrFinalized)
	require.ErrorIs(t, rolledBack.Register(func(context.Context) error { return nil }), uow.ErrFinalized)
}

func TestBegin_CheckpointFailure_RestoresEarlierParticipants(t *testing.T) {
	ctx := context.Background()
	var calls []string
	a := newFakeStore("a", &calls)
	b := newFakeStore("b", &calls)
	b.failCheckpoint = true

	tx, err := uow.Begin(ctx, a, b)
	require.Nil(t, tx)
	require.Error(t, err)

	var cerr *uow.ContractError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, uow.StageCheckpoint, cerr.Stage)
	require.Equal(t, 1, cerr.Participant)
	require.Equal(t, []string{"a.checkpoint", "b.checkpoint", "a.restore"}, calls)
}

func TestCommit_RestoreFailure_AggregatesWithOriginalError(t *testing.T) {
	ctx := context.Background()
	a := newFakeStore("a", nil)
	b := newFakeStore("b", nil)
	a.failRestore = true
	boom := errors.New("operation failed")

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error { return b.add("y", 2) }))
		require.NoError(t, tx.Register(func(ctx context.Context) error { return boom }))
		return nil
	}, a, b)

	var rerr *uow.RollbackError
	require.ErrorAs(t, err, &rerr)
	require.ErrorIs(t, err, boom) // original cause preserved, not substituted
	require.Len(t, rerr.Restore, 1)

	var cerr *uow.ContractError
	require.ErrorAs(t, rerr.Restore[0], &cerr)
	require.Equal(t, uow.StageRestore, cerr.Stage)
	// the failing restore on a must not have stopped the restore of b
	require.Empty(t, b.items)
}

func TestCommit_ParticipantCommitFailure_SurfacedButNotUndone(t *testing.T) {
	ctx := context.Background()
	var calls []string
	a := newFakeStore("a", &calls)
	b := newFakeStore("b", &calls)
	a.failCommit = true

	tx, err := uow.Begin(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, tx.Register(func(ctx context.Context) error { return a.add("x", 1) }))

	err = tx.Commit(ctx)
	var cerr *uow.ContractError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, uow.StageCommit, cerr.Stage)
	// state stays committed and the other participant was still committed
	require.Equal(t, uow.StateCommitted, tx.State())
	require.Contains(t, calls, "b.commit")
	require.Equal(t, map[string]int{"x": 1}, a.items)
}

func TestDo_ExplicitRollbackInsideScope_SkipsCommit(t *testing.T) {
	ctx := context.Background()
	s := newFakeStore("s", nil)

	ran := false
	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		require.NoError(t, tx.Register(func(ctx context.Context) error {
			ran = true
			return nil
		}))
		return tx.Rollback(ctx)
	}, s)

	require.NoError(t, err)
	require.False(t, ran)
	require.Empty(t, s.items)
}

func TestDo_DuplicateParticipant_CheckpointedAndRestoredTwice(t *testing.T) {
	ctx := context.Background()
	var calls []string
	s := newFakeStore("s", &calls)
	boom := errors.New("fail")

	err := uow.Do(ctx, func(tx *uow.UnitOfWork) error {
		return tx.Register(func(ctx context.Context) error { return boom })
	}, s, s)

	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"s.checkpoint", "s.checkpoint", "s.restore", "s.restore"}, calls)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "open", uow.StateOpen.String())
	require.Equal(t, "committed", uow.StateCommitted.String())
	require.Equal(t, "rolled_back", uow.StateRolledBack.String())
}
