package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/events"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) ApplyCommit(ctx context.Context, commit binder.Commit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

type collectingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *collectingDispatcher) Dispatch(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func commitEvent(version uint64) events.Event {
	return events.NewTypedEvent(context.Background(), events.TypeBinderCommitted, binder.Commit{Version: version})
}

func TestPersister_WritesInOrder(t *testing.T) {
	writer := &mockWriter{}
	var order []uint64
	writer.On("ApplyCommit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(binder.Commit).Version)
		}).
		Return(nil)

	p := NewPersister(writer, nil)
	for v := uint64(1); v <= 3; v++ {
		require.NoError(t, p.OnEvent(commitEvent(v)))
	}
	assert.Equal(t, 3, p.Pending())

	p.Flush(context.Background())

	assert.Equal(t, []uint64{1, 2, 3}, order)
	assert.Equal(t, 0, p.Pending())
	writer.AssertNumberOfCalls(t, "ApplyCommit", 3)
}

func TestPersister_FailureReported(t *testing.T) {
	writer := &mockWriter{}
	writer.On("ApplyCommit", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	dispatcher := &collectingDispatcher{}

	p := NewPersister(writer, dispatcher)
	require.NoError(t, p.OnEvent(commitEvent(7)))
	assert.False(t, p.Flush(context.Background()))

	assert.Equal(t, 1, p.Failures())
	assert.Equal(t, 1, p.Pending(), "failed commit stays queued")
	require.Len(t, dispatcher.events, 1)
	payload, ok := events.GetTypedData[events.PersistErrorEvent](dispatcher.events[0])
	require.True(t, ok)
	assert.Equal(t, uint64(7), payload.Version)
	assert.Contains(t, payload.Error, "disk full")
}

func TestPersister_RetriesFailedCommitBeforeLaterOnes(t *testing.T) {
	writer := &mockWriter{}
	var order []uint64
	record := func(args mock.Arguments) {
		order = append(order, args.Get(1).(binder.Commit).Version)
	}
	writer.On("ApplyCommit", mock.Anything, mock.Anything).Run(record).Return(errors.New("disk full")).Once()
	writer.On("ApplyCommit", mock.Anything, mock.Anything).Run(record).Return(nil)

	p := NewPersister(writer, nil)
	require.NoError(t, p.OnEvent(commitEvent(1)))
	require.NoError(t, p.OnEvent(commitEvent(2)))

	assert.False(t, p.Flush(context.Background()))
	assert.Equal(t, []uint64{1}, order, "commit 2 waits behind the failed commit")
	assert.Equal(t, 2, p.Pending())

	assert.True(t, p.Flush(context.Background()))
	assert.Equal(t, []uint64{1, 1, 2}, order)
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 0, p.Dropped())
}

func TestPersister_DropsAfterMaxAttempts(t *testing.T) {
	writer := &mockWriter{}
	writer.On("ApplyCommit", mock.Anything, mock.MatchedBy(func(c binder.Commit) bool { return c.Version == 1 })).
		Return(errors.New("constraint failed"))
	writer.On("ApplyCommit", mock.Anything, mock.MatchedBy(func(c binder.Commit) bool { return c.Version == 2 })).
		Return(nil)
	dispatcher := &collectingDispatcher{}

	p := NewPersister(writer, dispatcher)
	require.NoError(t, p.OnEvent(commitEvent(1)))
	require.NoError(t, p.OnEvent(commitEvent(2)))

	for i := 1; i < maxCommitAttempts; i++ {
		assert.False(t, p.Flush(context.Background()))
	}
	assert.True(t, p.Flush(context.Background()))

	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 1, p.Dropped())
	assert.Equal(t, maxCommitAttempts, p.Failures())
	writer.AssertNumberOfCalls(t, "ApplyCommit", maxCommitAttempts+1)

	require.Len(t, dispatcher.events, maxCommitAttempts)
	last, ok := events.GetTypedData[events.PersistErrorEvent](dispatcher.events[maxCommitAttempts-1])
	require.True(t, ok)
	assert.Contains(t, last.Error, "dropped")
}

func TestPersister_RunRetriesAfterDelay(t *testing.T) {
	writer := &mockWriter{}
	written := make(chan uint64, 4)
	writer.On("ApplyCommit", mock.Anything, mock.Anything).Return(errors.New("io error")).Once()
	writer.On("ApplyCommit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written <- args.Get(1).(binder.Commit).Version }).
		Return(nil)

	p := NewPersister(writer, nil)
	p.retryDelay = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.NoError(t, p.OnEvent(commitEvent(1)))
	select {
	case v := <-written:
		assert.Equal(t, uint64(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("failed commit was not retried")
	}
	assert.Equal(t, 1, p.Failures())
}

func TestPersister_Filters(t *testing.T) {
	p := NewPersister(&mockWriter{}, nil)

	assert.True(t, p.ShouldHandle(events.TypeBinderCommitted))
	assert.False(t, p.ShouldHandle(events.TypeDragUpdated))
	assert.Error(t, p.OnEvent(events.Event{Type: events.TypeBinderCommitted, Data: "nope"}))
}

func TestPersister_RunFlushesOnShutdown(t *testing.T) {
	writer := &mockWriter{}
	done := make(chan struct{}, 4)
	writer.On("ApplyCommit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { done <- struct{}{} }).
		Return(nil)

	p := NewPersister(writer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- p.Run(ctx) }()

	require.NoError(t, p.OnEvent(commitEvent(1)))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("commit was not written")
	}

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("persister did not stop")
	}
	assert.Equal(t, 0, p.Pending())
}
