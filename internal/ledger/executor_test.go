package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tribehub/internal/database"
	"tribehub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.MustParseAddress("0x000000000000000000000000000000000000a11c")
	bob   = models.MustParseAddress("0x0000000000000000000000000000000000000b0b")
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
	fail   bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	if s.fail {
		return errors.New("sink down")
	}
	return nil
}

func newTestExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	exec, err := NewExecutor(db, opts...)
	require.NoError(t, err)
	return exec
}

func fund(t *testing.T, exec *Executor, account models.Address, amount int64) {
	t.Helper()
	require.NoError(t, Credit(exec.DB(), account, amount, time.Now()))
}

func TestExecuteCommitsEventsAndAdvancesHead(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	exec := newTestExecutor(t, WithSinks(sink), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		receipt, err := exec.Execute(ctx, Call{Op: "ping", Caller: alice}, func(tx *Tx) error {
			return tx.Emit("Pinged", "test", i, Fields{"n": i})
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), receipt.Seq)
		require.Len(t, receipt.Events, 1)
		assert.Equal(t, fixed, receipt.Events[0].CommittedAt)
	}

	head, err := exec.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head)

	var journal []models.Event
	require.NoError(t, exec.DB().Order("id").Find(&journal).Error)
	require.Len(t, journal, 3)
	for i, ev := range journal {
		assert.Equal(t, uint64(i+1), ev.OpSeq)
		assert.Equal(t, alice, ev.Actor)
		assert.Equal(t, "ping", ev.Op)
	}
	assert.Len(t, sink.events, 3)
}

func TestExecuteRollsBackRejectedOperation(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	exec := newTestExecutor(t, WithSinks(sink))
	ctx := context.Background()
	fund(t, exec, alice, 100)

	_, err := exec.Execute(ctx, Call{Op: "doomed", Caller: alice, Value: 40, Payable: true}, func(tx *Tx) error {
		require.NoError(t, tx.Pay(bob, 30, "test"))
		require.NoError(t, tx.Emit("Halfway", "test", 1, nil))
		return models.NewJoinDeniedError("nope")
	})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeJoinDenied))

	aliceBal, err := Balance(exec.DB(), alice)
	require.NoError(t, err)
	bobBal, err := Balance(exec.DB(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(100), aliceBal)
	assert.Equal(t, int64(0), bobBal)

	var count int64
	require.NoError(t, exec.DB().Model(&models.Event{}).Count(&count).Error)
	assert.Zero(t, count)
	head, err := exec.Head(ctx)
	require.NoError(t, err)
	assert.Zero(t, head)
	assert.Empty(t, sink.events)
}

func TestExecuteEscrowPaysAndRefunds(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	ctx := context.Background()
	fund(t, exec, alice, 100)

	receipt, err := exec.Execute(ctx, Call{Op: "buy", Caller: alice, Value: 50, Payable: true}, func(tx *Tx) error {
		assert.Equal(t, int64(50), tx.Held())
		if err := tx.RequirePayment(30); err != nil {
			return err
		}
		return tx.Pay(bob, 30, "purchase")
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), receipt.Refund)

	aliceBal, _ := Balance(exec.DB(), alice)
	bobBal, _ := Balance(exec.DB(), bob)
	assert.Equal(t, int64(70), aliceBal)
	assert.Equal(t, int64(30), bobBal)

	names := make([]string, 0, len(receipt.Events))
	for _, ev := range receipt.Events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"ValueTransferred", "ValueRefunded"}, names)
}

func TestExecutePaymentGuards(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	ctx := context.Background()
	fund(t, exec, alice, 10)
	noop := func(tx *Tx) error { return tx.Emit("Touched", "test", 1, nil) }

	tests := []struct {
		name     string
		call     Call
		wantCode string
	}{
		{name: "missing caller", call: Call{Op: "x"}, wantCode: models.CodeUnauthorized},
		{name: "negative value", call: Call{Op: "x", Caller: alice, Value: -1, Payable: true}, wantCode: models.CodeValidation},
		{name: "value on non-payable", call: Call{Op: "x", Caller: alice, Value: 1}, wantCode: models.CodeValidation},
		{name: "value above wallet", call: Call{Op: "x", Caller: alice, Value: 11, Payable: true}, wantCode: models.CodeInsufficientBalance},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Execute(ctx, tt.call, noop)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, models.ErrorCode(err))
		})
	}

	_, err := exec.Execute(ctx, Call{Op: "short", Caller: alice, Value: 5, Payable: true}, func(tx *Tx) error {
		return tx.RequirePayment(6)
	})
	assert.Equal(t, models.CodeInsufficientPayment, models.ErrorCode(err))
}

func TestExecuteNoopLeavesNoTrace(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	ctx := context.Background()
	fund(t, exec, alice, 10)

	receipt, err := exec.Execute(ctx, Call{Op: "idle", Caller: alice, Value: 10, Payable: true}, func(tx *Tx) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, receipt.Noop())
	assert.Equal(t, int64(10), receipt.Refund)

	bal, _ := Balance(exec.DB(), alice)
	assert.Equal(t, int64(10), bal)
	head, _ := exec.Head(ctx)
	assert.Zero(t, head)
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := exec.Execute(ctx, Call{Op: "late", Caller: alice}, func(tx *Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExecuteSerializesConcurrentCallers(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := exec.Execute(ctx, Call{Op: "count", Caller: alice}, func(tx *Tx) error {
				return tx.Emit("Counted", "test", i, nil)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	head, err := exec.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), head)

	var seqs []uint64
	require.NoError(t, exec.DB().Model(&models.Event{}).Order("op_seq").Pluck("op_seq", &seqs).Error)
	for i, s := range seqs {
		assert.Equal(t, uint64(i+1), s)
	}
}

func TestSinkFailureDoesNotUndoCommit(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{fail: true}
	exec := newTestExecutor(t, WithSinks(sink))

	receipt, err := exec.Execute(context.Background(), Call{Op: "ping", Caller: alice}, func(tx *Tx) error {
		return tx.Emit("Pinged", "test", 1, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Seq)
	assert.Len(t, sink.events, 1)
}
