// Package persist decides when the document under edit is saved and
// reconciles server responses back into it.
//
// Structural mutations go through Commit and are saved immediately. Free-text
// edits go through Edit and are saved once the user stops typing. At most one
// save per Coordinator is in flight; overlapping requests are skipped, and a
// document changed during a save is picked up by a follow-up debounced save.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/debounce"
	"github.com/tripcraft/itinerary-editor/internal/docstore"
	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/normalize"
	"github.com/tripcraft/itinerary-editor/internal/remote"
	"github.com/tripcraft/itinerary-editor/internal/saveq"
)

const (
	DefaultDebounce    = time.Second
	DefaultSavedWindow = 2 * time.Second
	DefaultErrorWindow = 4 * time.Second
)

// Target resolves the identifier saves are sent to.
type Target interface {
	SaveTarget() string
}

// Mutation changes the document. A non-nil error means nothing changed.
type Mutation func(*docstore.Store) error

// Coordinator owns the document store and its save state.
type Coordinator struct {
	mu   sync.Mutex
	cond *sync.Cond // signalled when an in-flight save finishes

	store     *docstore.Store
	rs        remote.Store
	target    Target
	exec      *saveq.Executor
	ownsExec  bool
	debouncer *debounce.Debouncer
	log       zerolog.Logger

	debounceDelay time.Duration
	savedWindow   time.Duration
	errorWindow   time.Duration
	onStatus      func(Status)
	onError       func(Channel, error)

	status      Status
	statusGen   uint64
	statusTimer *time.Timer

	dirty  bool
	failed bool
	saving bool
	closed bool
	locks  map[string]struct{}

	rev uint64 // bumped on every applied mutation
	seq uint64 // last issued save
}

// New returns a Coordinator over store that saves through rs to the
// identifier reported by target.
func New(store *docstore.Store, rs remote.Store, target Target, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		store:         store,
		rs:            rs,
		target:        target,
		log:           zerolog.Nop(),
		debounceDelay: DefaultDebounce,
		savedWindow:   DefaultSavedWindow,
		errorWindow:   DefaultErrorWindow,
		locks:         map[string]struct{}{},
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.exec == nil {
		c.exec = saveq.NewExecutor(saveq.Config{Logger: c.log})
		c.ownsExec = true
	}
	c.debouncer = debounce.New(c.debounceDelay, func(ctx context.Context) error {
		_, err := c.save(ctx, Debounced, false)
		return err
	})
	return c, nil
}

// Reset installs a freshly loaded document and clears the dirty state.
func (c *Coordinator) Reset(doc itinerary.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Replace(doc)
	c.rev++
	c.dirty = false
	c.failed = false
}

// Refresh installs a reloaded document unless there are unsaved local edits
// or a save in flight. It reports whether the document was replaced.
func (c *Coordinator) Refresh(doc itinerary.Document) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty || c.saving {
		return false
	}
	c.store.Replace(doc)
	c.rev++
	return true
}

// Snapshot returns a deep copy of the current document.
func (c *Coordinator) Snapshot() itinerary.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// Totals returns the aggregate counters of the current document.
func (c *Coordinator) Totals() itinerary.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Totals()
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Dirty reports unsaved changes.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// FailedSave reports that the document has been dirty since a failed save.
func (c *Coordinator) FailedSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty && c.failed
}

// Acquire takes the named operation lock. A held lock yields ErrBusy; the
// returned release func is idempotent.
func (c *Coordinator) Acquire(op string) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[op]; held {
		return nil, ErrBusy
	}
	c.locks[op] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.locks, op)
			c.mu.Unlock()
		})
	}, nil
}

// Commit applies mutate under the op lock and saves the whole document
// immediately. Dirty is cleared only if the save succeeds; a failed save
// leaves the mutation in place.
func (c *Coordinator) Commit(ctx context.Context, op string, mutate Mutation) error {
	release, err := c.Acquire(op)
	if err != nil {
		return err
	}
	defer release()
	return c.Apply(ctx, mutate)
}

// Apply is Commit for callers already holding an op lock.
func (c *Coordinator) Apply(ctx context.Context, mutate Mutation) error {
	if err := c.mutate(mutate); err != nil {
		return err
	}
	// The immediate save carries any pending debounced edit too.
	c.debouncer.Cancel()
	_, err := c.save(ctx, Immediate, false)
	return err
}

// Edit applies mutate and schedules a debounced save.
func (c *Coordinator) Edit(mutate Mutation) error {
	if err := c.mutate(mutate); err != nil {
		return err
	}
	if c.debouncer.Pending() {
		coalescedEditsTotal.Inc()
	}
	c.debouncer.Trigger()
	return nil
}

// Flush waits for a save in flight, then runs a pending debounced save now.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	err := c.waitIdleLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = c.debouncer.Flush(ctx)
	return err
}

// Save performs an explicit save. Unlike the automatic channels it waits for
// an in-flight save instead of being skipped, until ctx ends.
func (c *Coordinator) Save(ctx context.Context) (*remote.SaveResult, error) {
	c.debouncer.Cancel()
	return c.save(ctx, Explicit, true)
}

// Close cancels pending work. Pending debounced edits are dropped; call
// Flush first to keep them.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.statusGen++
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
	c.cond.Broadcast()
	c.mu.Unlock()

	c.debouncer.Stop()
	if c.ownsExec {
		c.exec.Stop()
	}
	return nil
}

// ------------------------- internals -------------------------

func (c *Coordinator) mutate(fn Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := fn(c.store); err != nil {
		return err
	}
	c.rev++
	c.dirty = true
	return nil
}

// save sends a snapshot of the document. It returns (nil, nil) when skipped
// because another save is in flight.
func (c *Coordinator) save(ctx context.Context, ch Channel, wait bool) (*remote.SaveResult, error) {
	c.mu.Lock()
	if wait {
		if err := c.waitIdleLocked(ctx); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.saving {
		c.mu.Unlock()
		savesTotal.WithLabelValues(ch.String(), "skipped").Inc()
		c.log.Debug().Str("channel", ch.String()).Msg("save skipped, another save in flight")
		return nil, nil
	}
	target := c.target.SaveTarget()
	if target == "" {
		c.mu.Unlock()
		return nil, ErrNoTarget
	}
	c.saving = true
	c.seq++
	seq, rev := c.seq, c.rev
	doc := c.store.Snapshot()
	c.setStatusLocked(Saving)
	c.mu.Unlock()
	c.emit(Saving)

	start := time.Now()
	var res *remote.SaveResult
	err := c.exec.Do(ctx, target, saveq.JobFunc(func(ctx context.Context) error {
		r, err := c.rs.SaveDocument(ctx, target, doc)
		res = r
		return err
	}))
	saveDuration.WithLabelValues(ch.String()).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	c.saving = false
	c.cond.Broadcast()

	if err != nil {
		c.failed = true
		next := Error
		if ch == Debounced && remote.Is(err, remote.KindAuthRequired) {
			next = Idle
		}
		c.setStatusLocked(next)
		c.mu.Unlock()

		savesTotal.WithLabelValues(ch.String(), "error").Inc()
		c.log.Warn().Err(err).Str("channel", ch.String()).Str("target", target).Uint64("seq", seq).Msg("save failed")
		c.emit(next)
		if c.onError != nil {
			c.onError(ch, err)
		}
		return nil, err
	}
	if res == nil {
		res = &remote.SaveResult{Success: true}
	}

	// Saves never overlap, so the only stale case is a document edited while
	// this save was in flight; reconciling would drop those edits.
	followUp := c.rev != rev
	if followUp {
		staleResponsesTotal.Inc()
	} else {
		if len(res.Data) > 0 {
			c.store.Replace(normalize.Normalize(res.Data))
		}
		c.dirty = false
		c.failed = false
	}
	c.setStatusLocked(Saved)
	c.mu.Unlock()

	savesTotal.WithLabelValues(ch.String(), "ok").Inc()
	c.log.Debug().Str("channel", ch.String()).Str("target", target).Uint64("seq", seq).Bool("follow_up", followUp).Msg("document saved")
	c.emit(Saved)
	if followUp {
		c.debouncer.Trigger()
	}
	return res, nil
}

// waitIdleLocked blocks until no save is in flight, the coordinator closes
// or ctx ends. c.mu must be held.
func (c *Coordinator) waitIdleLocked(ctx context.Context) error {
	if !c.saving || c.closed {
		return nil
	}
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()
	for c.saving && !c.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.cond.Wait()
	}
	return nil
}

// setStatusLocked moves the state machine and arms the display window that
// returns Saved and Error to Idle. c.mu must be held.
func (c *Coordinator) setStatusLocked(s Status) {
	c.status = s
	c.statusGen++
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
	var window time.Duration
	switch s {
	case Saved:
		window = c.savedWindow
	case Error:
		window = c.errorWindow
	}
	if window > 0 {
		gen := c.statusGen
		c.statusTimer = time.AfterFunc(window, func() { c.expireStatus(gen) })
	}
}

func (c *Coordinator) expireStatus(gen uint64) {
	c.mu.Lock()
	if gen != c.statusGen || c.closed {
		c.mu.Unlock()
		return
	}
	c.status = Idle
	c.statusTimer = nil
	c.mu.Unlock()
	c.emit(Idle)
}

func (c *Coordinator) emit(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}
