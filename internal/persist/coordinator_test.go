package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripcraft/itinerary-editor/internal/docstore"
	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/remote"
	"github.com/tripcraft/itinerary-editor/internal/remote/remotetest"
)

type fixedTarget string

func (t fixedTarget) SaveTarget() string { return string(t) }

func sampleDoc() itinerary.Document {
	return itinerary.Document{
		Destination: "Da Nang",
		Summary:     "Beach week",
		Days: []itinerary.Day{{
			DayNumber: 1, Day: 1, Theme: "Arrival",
			Activities: []itinerary.Activity{{ActivityID: "a1", Activity: "Visit My Khe", Time: "09:00", Duration: "2 hours", Cost: 100000, Type: itinerary.TypeSightseeing}},
			DayTotal:   100000,
		}},
		TravelTips: []itinerary.Tip{},
	}
}

func newCoordinator(t *testing.T, rs remote.Store, opts ...Option) *Coordinator {
	t.Helper()
	opts = append([]Option{
		WithDebounce(30 * time.Millisecond),
		WithStatusWindows(20*time.Millisecond, 20*time.Millisecond),
	}, opts...)
	c, err := New(docstore.New(sampleDoc()), rs, fixedTarget("cust-1"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func addDay(s *docstore.Store) error {
	_, err := s.AddDay()
	return err
}

func TestEdit_RapidEditsProduceSingleSave(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	c := newCoordinator(t, fake, WithDebounce(100*time.Millisecond))

	for _, v := range []string{"first", "second", "third"} {
		v := v
		require.NoError(t, c.Edit(func(s *docstore.Store) error { return s.SetField("summary", v) }))
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, c.Dirty())
	assert.Equal(t, 0, fake.SaveCount())

	require.Eventually(t, func() bool { return fake.SaveCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, fake.SaveCount())

	last, ok := fake.LastSave()
	require.True(t, ok)
	assert.Equal(t, "third", last.Doc.Summary)
	assert.Equal(t, "cust-1", last.ID)
	assert.Eventually(t, func() bool { return !c.Dirty() }, time.Second, 5*time.Millisecond)
}

func TestCommit_SavesImmediatelyAndReconciles(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	c := newCoordinator(t, &renamingStore{Fake: fake, destination: "Da Nang (server)"})

	require.NoError(t, c.Commit(context.Background(), "add-day", addDay))

	assert.Equal(t, 1, fake.SaveCount())
	last, _ := fake.LastSave()
	assert.Len(t, last.Doc.Days, 2)

	doc := c.Snapshot()
	assert.Equal(t, "Da Nang (server)", doc.Destination, "server response replaces the local document")
	assert.Len(t, doc.Days, 2)
	assert.False(t, c.Dirty())
	assert.False(t, c.FailedSave())
}

func TestCommit_FailureKeepsMutation(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	boom := &remote.Error{Op: "save", Kind: remote.KindGeneric, Status: 500, Message: "db down"}
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error { return boom }

	var (
		mu     sync.Mutex
		failed []Channel
	)
	c := newCoordinator(t, fake, WithStatusWindows(20*time.Millisecond, 300*time.Millisecond), WithErrorHandler(func(ch Channel, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, ch)
	}))

	err := c.Commit(context.Background(), "add-day", addDay)
	require.ErrorIs(t, err, boom)

	assert.Len(t, c.Snapshot().Days, 2, "no rollback on failure")
	assert.True(t, c.Dirty())
	assert.True(t, c.FailedSave())
	assert.Equal(t, Error, c.Status())
	mu.Lock()
	assert.Equal(t, []Channel{Immediate}, failed)
	mu.Unlock()

	assert.Eventually(t, func() bool { return c.Status() == Idle }, time.Second, 5*time.Millisecond)
}

func TestCommit_ValidationErrorNeverSaves(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	c := newCoordinator(t, fake)

	err := c.Commit(context.Background(), "add-activity", func(s *docstore.Store) error {
		_, err := s.AddActivity(0, itinerary.Activity{Activity: " ", Time: ""})
		return err
	})
	require.True(t, docstore.IsValidationError(err))
	assert.Equal(t, 0, fake.SaveCount())
	assert.False(t, c.Dirty())
	assert.Len(t, c.Snapshot().Days[0].Activities, 1)
}

func TestCommit_BusyOperationIsIgnored(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	c := newCoordinator(t, fake)

	release, err := c.Acquire("add-day")
	require.NoError(t, err)

	err = c.Commit(context.Background(), "add-day", addDay)
	require.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Snapshot().Days, 1)

	release()
	release()
	require.NoError(t, c.Commit(context.Background(), "add-day", addDay))
	assert.Len(t, c.Snapshot().Days, 2)
}

func TestSave_MutationDuringFlightIsNotOverwritten(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	gate := make(chan struct{})
	entered := make(chan struct{})
	var first int32
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(entered)
			<-gate
		}
		return nil
	}
	c := newCoordinator(t, fake, WithDebounce(200*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- c.Commit(context.Background(), "add-day", addDay) }()
	<-entered

	// A second immediate save is skipped by the saving guard.
	require.NoError(t, c.Commit(context.Background(), "set-summary", func(s *docstore.Store) error {
		return s.SetField("summary", "typed during save")
	}))
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, "typed during save", c.Snapshot().Summary)
	assert.True(t, c.Dirty())

	require.Eventually(t, func() bool { return fake.SaveCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	last, _ := fake.LastSave()
	assert.Equal(t, "typed during save", last.Doc.Summary)
	assert.Len(t, last.Doc.Days, 2)
	assert.Eventually(t, func() bool { return !c.Dirty() }, time.Second, 5*time.Millisecond)
}

func TestDebouncedAuthErrorIsSilent(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error {
		return &remote.Error{Op: "save", Kind: remote.KindAuthRequired, Status: 401}
	}
	var got atomic.Value
	c := newCoordinator(t, fake, WithErrorHandler(func(ch Channel, err error) { got.Store(ch) }))

	require.NoError(t, c.Edit(func(s *docstore.Store) error { return s.SetField("destination", "Hue") }))
	require.Eventually(t, func() bool { return fake.SaveCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return got.Load() != nil }, time.Second, 5*time.Millisecond)

	assert.Equal(t, Debounced, got.Load())
	assert.Equal(t, Idle, c.Status())
	assert.True(t, c.Dirty())
}

func TestStatusListenerSeesFullCycle(t *testing.T) {
	t.Parallel()
	var (
		mu   sync.Mutex
		seen []Status
	)
	c := newCoordinator(t, remotetest.New(), WithStatusListener(func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}))

	require.NoError(t, c.Commit(context.Background(), "add-day", addDay))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{Saving, Saved, Idle}, seen)
}

func TestExplicitSaveWaitsForInFlightSave(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	fake.NewID = "it-42"
	gate := make(chan struct{})
	entered := make(chan struct{})
	var first int32
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(entered)
			<-gate
		}
		return nil
	}
	c := newCoordinator(t, fake)

	go func() { _ = c.Commit(context.Background(), "add-day", addDay) }()
	<-entered

	type result struct {
		res *remote.SaveResult
		err error
	}
	out := make(chan result, 1)
	go func() {
		res, err := c.Save(context.Background())
		out <- result{res, err}
	}()

	select {
	case <-out:
		t.Fatal("explicit save returned while another save was in flight")
	case <-time.After(30 * time.Millisecond):
	}
	close(gate)

	r := <-out
	require.NoError(t, r.err)
	require.NotNil(t, r.res)
	assert.Equal(t, "it-42", r.res.ItineraryID)
	assert.Equal(t, 2, fake.SaveCount())
}

func TestExplicitSaveWaitHonoursContext(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	gate := make(chan struct{})
	entered := make(chan struct{})
	var first int32
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(entered)
			<-gate
		}
		return nil
	}
	c := newCoordinator(t, fake)

	done := make(chan error, 1)
	go func() { done <- c.Commit(context.Background(), "add-day", addDay) }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Save(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fake.SaveCount())
}

func TestFlushWaitsForInFlightSave(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	gate := make(chan struct{})
	entered := make(chan struct{})
	var first int32
	fake.BeforeSave = func(context.Context, string, itinerary.Document) error {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			close(entered)
			<-gate
		}
		return nil
	}
	c := newCoordinator(t, fake, WithDebounce(time.Hour))

	done := make(chan error, 1)
	go func() { done <- c.Commit(context.Background(), "add-day", addDay) }()
	<-entered
	require.NoError(t, c.Edit(func(s *docstore.Store) error { return s.SetField("summary", "typed during save") }))

	flushed := make(chan error, 1)
	go func() { flushed <- c.Flush(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	require.NoError(t, <-done)
	require.NoError(t, <-flushed)
	require.Equal(t, 2, fake.SaveCount())
	last, _ := fake.LastSave()
	assert.Equal(t, "typed during save", last.Doc.Summary)
	assert.False(t, c.Dirty())
}

func TestFlushAndClose(t *testing.T) {
	t.Parallel()
	fake := remotetest.New()
	c := newCoordinator(t, fake, WithDebounce(time.Hour))

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, fake.SaveCount())

	require.NoError(t, c.Edit(func(s *docstore.Store) error { return s.SetDayField(0, "theme", "Old Town") }))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 1, fake.SaveCount())
	assert.False(t, c.Dirty())

	require.NoError(t, c.Close())
	err := c.Edit(func(s *docstore.Store) error { return s.SetField("summary", "late") })
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestNoTarget(t *testing.T) {
	t.Parallel()
	c, err := New(docstore.New(sampleDoc()), remotetest.New(), fixedTarget(""))
	require.NoError(t, err)
	defer c.Close()

	err = c.Commit(context.Background(), "add-day", addDay)
	assert.ErrorIs(t, err, ErrNoTarget)
}

// renamingStore returns a server-side variant of the saved document.
type renamingStore struct {
	*remotetest.Fake
	destination string
}

func (r *renamingStore) SaveDocument(ctx context.Context, id string, doc itinerary.Document) (*remote.SaveResult, error) {
	res, err := r.Fake.SaveDocument(ctx, id, doc)
	if err != nil {
		return nil, err
	}
	res.Data["destination"] = r.destination
	return res, nil
}
