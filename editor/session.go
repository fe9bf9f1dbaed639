// Package editor is the itinerary editing session: it loads a customizable
// copy of an itinerary, applies the traveler's edits, and keeps the server
// copy in sync.
//
// Structural edits (days, activities, tips) are saved immediately. Free-text
// edits (destination, summary, day fields, inline activity fields) are saved
// once the traveler stops typing. A Session is safe for concurrent use.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/docstore"
	"github.com/tripcraft/itinerary-editor/internal/identity"
	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/normalize"
	"github.com/tripcraft/itinerary-editor/internal/persist"
	"github.com/tripcraft/itinerary-editor/internal/remote"
	"github.com/tripcraft/itinerary-editor/internal/saveq"
)

const DefaultRedirectDelay = 1500 * time.Millisecond

const unsavedChangesPrompt = "You have unsaved changes. Are you sure you want to leave?"

type (
	RemoteStore = remote.Store
	Route       = identity.Route
	Identity    = identity.Triple
	Status      = persist.Status
	Document    = itinerary.Document
	Activity    = itinerary.Activity
	Tip         = itinerary.Tip
	Totals      = itinerary.Totals
	Direction   = docstore.Direction
)

const (
	StatusIdle   = persist.Idle
	StatusSaving = persist.Saving
	StatusSaved  = persist.Saved
	StatusError  = persist.Error

	Up   = docstore.Up
	Down = docstore.Down
)

// Session edits one itinerary.
type Session struct {
	rs       RemoteStore
	user     User
	nav      Navigator
	notifier Notifier
	log      zerolog.Logger
	exec     *saveq.Executor
	onStatus func(Status)

	debounce      time.Duration
	savedWindow   time.Duration
	errorWindow   time.Duration
	redirectDelay time.Duration

	mu       sync.Mutex
	route    Route
	ids      *identity.Resolver
	coord    *persist.Coordinator
	redirect *time.Timer
	closed   bool
}

// New returns a Session for user against rs. Without a user it redirects to
// the login view and returns ErrAuthRequired.
func New(rs RemoteStore, user User, opts ...Option) (*Session, error) {
	if rs == nil {
		return nil, errors.New("remote store cannot be nil")
	}
	s := &Session{
		rs:            rs,
		user:          user,
		nav:           nopNavigator{},
		notifier:      nopNotifier{},
		log:           zerolog.Nop(),
		debounce:      persist.DefaultDebounce,
		savedWindow:   persist.DefaultSavedWindow,
		errorWindow:   persist.DefaultErrorWindow,
		redirectDelay: DefaultRedirectDelay,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(user.ID) == "" {
		redirectsTotal.WithLabelValues("login").Inc()
		s.nav.Navigate(identity.LoginPath)
		return nil, ErrAuthRequired
	}
	s.log = s.log.With().Str("user", user.ID).Logger()
	return s, nil
}

// Open loads the itinerary named by route. An original itinerary is cloned
// into a customizable copy first and the route is upgraded to that copy.
func (s *Session) Open(ctx context.Context, route Route) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return persist.ErrClosed
	}
	if s.coord != nil {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.route = route
	s.mu.Unlock()

	routeKind := "original"
	if route.Customizing {
		routeKind = "customized"
	}

	ids := identity.New(route, s.nav)
	res, err := ids.Load(ctx, s.rs)
	if err != nil {
		sessionsOpened.WithLabelValues(routeKind, "error").Inc()
		s.log.Warn().Err(err).Str("itinerary_id", route.ItineraryID).Msg("load failed")
		s.reportLoadError(err)
		return err
	}

	popts := []persist.Option{
		persist.WithDebounce(s.debounce),
		persist.WithStatusWindows(s.savedWindow, s.errorWindow),
		persist.WithLogger(s.log),
		persist.WithErrorHandler(s.reportSaveError),
	}
	if s.exec != nil {
		popts = append(popts, persist.WithExecutor(s.exec))
	}
	if s.onStatus != nil {
		popts = append(popts, persist.WithStatusListener(s.onStatus))
	}
	coord, err := persist.New(docstore.New(normalize.Normalize(res.Raw)), s.rs, ids, popts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord != nil || s.closed {
		_ = coord.Close()
		return ErrAlreadyOpen
	}
	s.ids, s.coord = ids, coord
	sessionsOpened.WithLabelValues(routeKind, "ok").Inc()
	s.log.Info().Str("itinerary_id", route.ItineraryID).Str("save_target", ids.SaveTarget()).Msg("session opened")
	return nil
}

// ------------------------- debounced edits -------------------------

// SetDestination edits the destination.
func (s *Session) SetDestination(value string) error {
	return s.edit(func(st *docstore.Store) error { return st.SetField("destination", value) })
}

// SetSummary edits the summary.
func (s *Session) SetSummary(value string) error {
	return s.edit(func(st *docstore.Store) error { return st.SetField("summary", value) })
}

// SetDayField edits "theme" or "description" of a day.
func (s *Session) SetDayField(dayIndex int, field, value string) error {
	return s.edit(func(st *docstore.Store) error { return st.SetDayField(dayIndex, field, value) })
}

// SetActivityField edits one field of an activity inline.
func (s *Session) SetActivityField(dayIndex, activityIndex int, field, value string) error {
	return s.edit(func(st *docstore.Store) error {
		return st.SetActivityField(dayIndex, activityIndex, field, value)
	})
}

// ------------------------- immediate edits -------------------------

func (s *Session) AddDay(ctx context.Context) error {
	return s.commit(ctx, "add-day", func(st *docstore.Store) error {
		_, err := st.AddDay()
		return err
	})
}

func (s *Session) DeleteDay(ctx context.Context, dayIndex int) error {
	return s.commit(ctx, "delete-day", func(st *docstore.Store) error { return st.DeleteDay(dayIndex) })
}

// AddActivity validates draft and appends it to the day. The created
// activity is returned with its local identifier.
func (s *Session) AddActivity(ctx context.Context, dayIndex int, draft Activity) (Activity, error) {
	var added Activity
	err := s.commit(ctx, "add-activity", func(st *docstore.Store) error {
		var err error
		added, err = st.AddActivity(dayIndex, draft)
		return err
	})
	return added, err
}

func (s *Session) EditActivity(ctx context.Context, dayIndex, activityIndex int, draft Activity) error {
	return s.commit(ctx, "edit-activity", func(st *docstore.Store) error {
		_, err := st.EditActivity(dayIndex, activityIndex, draft)
		return err
	})
}

// MoveActivity swaps an activity with its neighbour. At either end it does
// nothing and no save is issued.
func (s *Session) MoveActivity(ctx context.Context, dayIndex, activityIndex int, dir Direction) error {
	return s.commit(ctx, "move-activity", func(st *docstore.Store) error {
		moved, err := st.MoveActivity(dayIndex, activityIndex, dir)
		if err == nil && !moved {
			return errNoChange
		}
		return err
	})
}

// DeleteActivity removes an activity. The single-activity delete call is
// best-effort; the whole document is always saved afterwards and is what
// counts.
func (s *Session) DeleteActivity(ctx context.Context, dayIndex, activityIndex int) error {
	coord, ids, err := s.open()
	if err != nil {
		return err
	}
	release, err := coord.Acquire("delete-activity")
	if err != nil {
		return err
	}
	defer release()

	doc := coord.Snapshot()
	if dayIndex < 0 || dayIndex >= len(doc.Days) {
		return fmt.Errorf("day %d: %w", dayIndex, ErrIndexOutOfRange)
	}
	acts := doc.Days[dayIndex].Activities
	if activityIndex < 0 || activityIndex >= len(acts) {
		return fmt.Errorf("activity %d: %w", activityIndex, ErrIndexOutOfRange)
	}

	id := acts[activityIndex].ActivityID
	if id != "" {
		if err := s.rs.DeleteActivity(ctx, ids.SaveTarget(), id); err != nil {
			s.log.Debug().Err(err).Str("activity_id", id).Msg("single activity delete failed, relying on full save")
		}
	}

	// Other edits may have moved the activity while the delete call ran.
	err = coord.Apply(ctx, func(st *docstore.Store) error {
		d, a := dayIndex, activityIndex
		if id != "" {
			var ok bool
			if d, a, ok = st.FindActivity(id); !ok {
				return errNoChange
			}
		}
		_, err := st.DeleteActivity(d, a)
		return err
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	s.reportLocalError(err)
	return err
}

func (s *Session) AddTip(ctx context.Context, draft Tip) (Tip, error) {
	var added Tip
	err := s.commit(ctx, "add-tip", func(st *docstore.Store) error {
		var err error
		added, err = st.AddTip(draft)
		return err
	})
	return added, err
}

func (s *Session) EditTip(ctx context.Context, index int, draft Tip) error {
	return s.commit(ctx, "edit-tip", func(st *docstore.Store) error {
		_, err := st.EditTip(index, draft)
		return err
	})
}

func (s *Session) DeleteTip(ctx context.Context, index int) error {
	return s.commit(ctx, "delete-tip", func(st *docstore.Store) error { return st.DeleteTip(index) })
}

// ------------------------- save / cancel -------------------------

// Save persists the whole document now, reloads it bypassing caches and,
// when the server assigned a new identifier, redirects to its detail view
// after the redirect delay.
func (s *Session) Save(ctx context.Context) error {
	coord, ids, err := s.open()
	if err != nil {
		return err
	}
	res, err := coord.Save(ctx)
	if err != nil {
		return err
	}

	msg := res.Message
	if msg == "" {
		msg = "Itinerary saved successfully"
	}
	s.notify(Notice{Level: LevelSuccess, Message: msg})

	if loaded, err := ids.Reload(ctx, s.rs); err != nil {
		s.log.Warn().Err(err).Msg("reload after save failed")
	} else if !coord.Refresh(normalize.Normalize(loaded.Raw)) {
		s.log.Debug().Msg("reload skipped, document changed meanwhile")
	}

	if res.ItineraryID != "" {
		s.scheduleRedirect("saved", identity.DetailPath(res.ItineraryID))
	}
	return nil
}

// Cancel leaves the editor for the original itinerary, asking for
// confirmation when there are unsaved changes. It reports whether the
// session navigated away.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	coord, ids, route := s.coord, s.ids, s.route
	s.mu.Unlock()

	target := identity.HomePath
	switch {
	case ids != nil:
		target = ids.CancelTarget()
	case route.ItineraryID != "":
		// Open failed; go back to the itinerary the user came from.
		target = identity.DetailPath(route.ItineraryID)
	}
	if coord != nil && coord.Dirty() && !s.nav.Confirm(unsavedChangesPrompt) {
		return false
	}
	redirectsTotal.WithLabelValues("cancel").Inc()
	s.nav.Navigate(target)
	return true
}

// Close flushes a pending debounced save and releases timers.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	coord := s.coord
	if s.redirect != nil {
		s.redirect.Stop()
		s.redirect = nil
	}
	s.mu.Unlock()

	if coord == nil {
		return nil
	}
	err := coord.Flush(ctx)
	if cerr := coord.Close(); err == nil {
		err = cerr
	}
	return err
}

// ------------------------- accessors -------------------------

func (s *Session) Status() Status {
	if coord, _, err := s.open(); err == nil {
		return coord.Status()
	}
	return StatusIdle
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	coord, _, err := s.open()
	return err == nil && coord.Dirty()
}

// FailedSave reports unsaved changes left behind by a failed save.
func (s *Session) FailedSave() bool {
	coord, _, err := s.open()
	return err == nil && coord.FailedSave()
}

// Document returns a deep copy of the document under edit.
func (s *Session) Document() Document {
	if coord, _, err := s.open(); err == nil {
		return coord.Snapshot()
	}
	return Document{}
}

func (s *Session) Totals() Totals {
	if coord, _, err := s.open(); err == nil {
		return coord.Totals()
	}
	return Totals{}
}

func (s *Session) Identity() Identity {
	if _, ids, err := s.open(); err == nil {
		return ids.Identity()
	}
	return Identity{}
}

// ------------------------- internals -------------------------

// errNoChange aborts a mutation that turned out to be a no-op.
var errNoChange = errors.New("no change")

func (s *Session) open() (*persist.Coordinator, *identity.Resolver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, persist.ErrClosed
	}
	if s.coord == nil {
		return nil, nil, ErrNotOpen
	}
	return s.coord, s.ids, nil
}

func (s *Session) edit(m persist.Mutation) error {
	coord, _, err := s.open()
	if err != nil {
		return err
	}
	err = coord.Edit(m)
	s.reportLocalError(err)
	return err
}

func (s *Session) commit(ctx context.Context, op string, m persist.Mutation) error {
	coord, _, err := s.open()
	if err != nil {
		return err
	}
	err = coord.Commit(ctx, op, m)
	if errors.Is(err, errNoChange) {
		return nil
	}
	s.reportLocalError(err)
	return err
}

// reportLocalError surfaces errors raised before any network call. Save
// failures are reported by reportSaveError.
func (s *Session) reportLocalError(err error) {
	var (
		ve *docstore.ValidationError
		qe *docstore.QuotaError
	)
	switch {
	case err == nil:
	case errors.As(err, &ve):
		s.notify(Notice{Level: LevelError, Message: strings.Join(ve.Problems, "\n")})
	case errors.As(err, &qe):
		kind := KindMaxDaysExceeded
		if qe.Quota == docstore.QuotaActivities {
			kind = KindMaxActivitiesExceeded
		}
		s.notify(Notice{Level: LevelError, Kind: kind, Message: qe.Error()})
	case errors.Is(err, docstore.ErrLastDay):
		s.notify(Notice{Level: LevelError, Message: "Cannot delete the last day"})
	}
}

func (s *Session) reportLoadError(err error) {
	kind := remote.KindOf(err)
	switch kind {
	case remote.KindAuthRequired:
		redirectsTotal.WithLabelValues("login").Inc()
		s.nav.Navigate(identity.LoginPath)
	case remote.KindNotFound:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: "Itinerary not found"})
		s.scheduleRedirect("not_found", identity.HomePath)
	case remote.KindAccessDenied:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: "You do not have access to this itinerary"})
		s.scheduleRedirect("access_denied", identity.HomePath)
	default:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: remote.Message(err)})
	}
}

// reportSaveError maps a failed save to a notice. Auth failures on the
// debounced channel are tolerated silently.
func (s *Session) reportSaveError(ch persist.Channel, err error) {
	kind := remote.KindOf(err)
	switch kind {
	case remote.KindAuthRequired:
		if ch == persist.Debounced {
			s.log.Debug().Err(err).Msg("autosave not authorized, will retry on next edit")
			return
		}
		s.notify(Notice{Level: LevelError, Kind: kind, Message: "Authentication required. Please log in again."})
	case remote.KindNotFound:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: "Itinerary not found"})
		s.scheduleRedirect("not_found", identity.HomePath)
	case remote.KindMaxDaysExceeded:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: orDefault(remote.Message(err), "Maximum 30 days allowed")})
	case remote.KindMaxActivitiesExceeded:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: orDefault(remote.Message(err), "Maximum 20 activities per day")})
	default:
		s.notify(Notice{Level: LevelError, Kind: kind, Message: remote.Message(err)})
	}
}

func (s *Session) notify(n Notice) {
	noticesTotal.WithLabelValues(n.Level.String(), n.Kind.String()).Inc()
	s.notifier.Notify(n)
}

func (s *Session) scheduleRedirect(reason, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.redirect != nil {
		s.redirect.Stop()
	}
	s.redirect = time.AfterFunc(s.redirectDelay, func() {
		redirectsTotal.WithLabelValues(reason).Inc()
		s.nav.Navigate(path)
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
