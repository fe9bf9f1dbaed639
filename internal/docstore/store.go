// Package docstore holds the in-memory itinerary document under edit and
// exposes validated, synchronous mutations on it. It never performs I/O.
//
// A Store is not safe for concurrent use; callers serialise access.
package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
)

// Direction is the way MoveActivity shifts an activity.
type Direction int

const (
	Up Direction = iota
	Down
)

// Store owns a single itinerary.Document.
type Store struct {
	doc   itinerary.Document
	newID func() string
}

// New returns a store holding doc.
func New(doc itinerary.Document) *Store {
	s := &Store{newID: NewActivityID}
	s.Replace(doc)
	return s
}

// NewActivityID generates a local identifier for an activity that has not
// been persisted yet: time-based with a random suffix.
func NewActivityID() string { return localID("act") }

// NewTipID is NewActivityID for tips.
func NewTipID() string { return localID("tip") }

func localID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

// Replace swaps in a new document wholesale.
func (s *Store) Replace(doc itinerary.Document) {
	s.doc = doc.Clone()
	if s.doc.Days == nil {
		s.doc.Days = []itinerary.Day{}
	}
	if s.doc.TravelTips == nil {
		s.doc.TravelTips = []itinerary.Tip{}
	}
	s.doc.DurationDays = len(s.doc.Days)
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() itinerary.Document { return s.doc.Clone() }

// Totals summarises the current document.
func (s *Store) Totals() itinerary.Totals { return itinerary.CalculateTotals(s.doc) }

// SetField edits a top-level text field ("destination" or "summary").
func (s *Store) SetField(path, value string) error {
	switch path {
	case "destination":
		s.doc.Destination = value
	case "summary":
		s.doc.Summary = value
	default:
		return fmt.Errorf("document field %q: %w", path, ErrUnknownField)
	}
	return nil
}

// SetDayField edits a text field of one day ("theme" or "description").
func (s *Store) SetDayField(dayIndex int, field, value string) error {
	day, err := s.day(dayIndex)
	if err != nil {
		return err
	}
	switch field {
	case "theme":
		day.Theme = value
	case "description":
		day.Description = value
	default:
		return fmt.Errorf("day field %q: %w", field, ErrUnknownField)
	}
	day.UserModified = true
	return nil
}

// SetActivityField edits one field of an activity in place. Cost values are
// coerced to a non-negative integer, falling back to 0 when unparseable.
func (s *Store) SetActivityField(dayIndex, activityIndex int, field, value string) error {
	day, err := s.day(dayIndex)
	if err != nil {
		return err
	}
	if activityIndex < 0 || activityIndex >= len(day.Activities) {
		return outOfRange("activity", activityIndex)
	}
	act := &day.Activities[activityIndex]
	switch field {
	case "activity":
		act.Activity = value
	case "time":
		act.Time = value
	case "duration":
		act.Duration = value
	case "cost":
		act.Cost = ParseCost(value)
	case "type":
		t, err := itinerary.ParseActivityType(value)
		if err != nil {
			return err
		}
		act.Type = t
	case "location":
		act.Location = value
	default:
		return fmt.Errorf("activity field %q: %w", field, ErrUnknownField)
	}
	act.UserModified = true
	day.UserModified = true
	day.DayTotal = day.ActivityCost()
	return nil
}

// ParseCost coerces user input into a whole number of VND in
// [0, itinerary.MaxAmount].
func ParseCost(value string) int64 {
	v := strings.TrimSpace(value)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return itinerary.ClampAmount(n)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return itinerary.AmountFromFloat(f)
	}
	return 0
}

// AddActivity validates draft and appends it to the day.
func (s *Store) AddActivity(dayIndex int, draft itinerary.Activity) (itinerary.Activity, error) {
	day, err := s.day(dayIndex)
	if err != nil {
		return itinerary.Activity{}, err
	}
	act, err := cleanActivity(draft)
	if err != nil {
		return itinerary.Activity{}, err
	}
	if len(day.Activities) >= itinerary.MaxActivitiesPerDay {
		return itinerary.Activity{}, &QuotaError{Quota: QuotaActivities, Limit: itinerary.MaxActivitiesPerDay}
	}
	if act.ActivityID == "" {
		act.ActivityID = s.newID()
	}
	day.Activities = append(day.Activities, act)
	day.UserModified = true
	day.DayTotal = day.ActivityCost()
	return act, nil
}

// EditActivity validates draft and replaces the activity at activityIndex,
// keeping its identifier when the draft carries none.
func (s *Store) EditActivity(dayIndex, activityIndex int, draft itinerary.Activity) (itinerary.Activity, error) {
	day, err := s.day(dayIndex)
	if err != nil {
		return itinerary.Activity{}, err
	}
	if activityIndex < 0 || activityIndex >= len(day.Activities) {
		return itinerary.Activity{}, outOfRange("activity", activityIndex)
	}
	act, err := cleanActivity(draft)
	if err != nil {
		return itinerary.Activity{}, err
	}
	if act.ActivityID == "" {
		act.ActivityID = day.Activities[activityIndex].ActivityID
	}
	day.Activities[activityIndex] = act
	day.UserModified = true
	day.DayTotal = day.ActivityCost()
	return act, nil
}

// DeleteActivity removes and returns the activity at activityIndex.
func (s *Store) DeleteActivity(dayIndex, activityIndex int) (itinerary.Activity, error) {
	day, err := s.day(dayIndex)
	if err != nil {
		return itinerary.Activity{}, err
	}
	if activityIndex < 0 || activityIndex >= len(day.Activities) {
		return itinerary.Activity{}, outOfRange("activity", activityIndex)
	}
	removed := day.Activities[activityIndex]
	day.Activities = append(day.Activities[:activityIndex:activityIndex], day.Activities[activityIndex+1:]...)
	day.UserModified = true
	day.DayTotal = day.ActivityCost()
	return removed, nil
}

// FindActivity locates the activity with the given identifier.
func (s *Store) FindActivity(activityID string) (dayIndex, activityIndex int, ok bool) {
	if activityID == "" {
		return -1, -1, false
	}
	for d, day := range s.doc.Days {
		for a, act := range day.Activities {
			if act.ActivityID == activityID {
				return d, a, true
			}
		}
	}
	return -1, -1, false
}

// MoveActivity swaps the activity with its neighbour. Moving past either end
// is a silent no-op and reports moved=false.
func (s *Store) MoveActivity(dayIndex, activityIndex int, dir Direction) (moved bool, err error) {
	day, err := s.day(dayIndex)
	if err != nil {
		return false, err
	}
	if activityIndex < 0 || activityIndex >= len(day.Activities) {
		return false, outOfRange("activity", activityIndex)
	}
	target := activityIndex - 1
	if dir == Down {
		target = activityIndex + 1
	}
	if target < 0 || target >= len(day.Activities) {
		return false, nil
	}
	day.Activities[activityIndex], day.Activities[target] = day.Activities[target], day.Activities[activityIndex]
	day.UserModified = true
	return true, nil
}

// AddDay appends an empty day numbered after the last one.
func (s *Store) AddDay() (itinerary.Day, error) {
	if len(s.doc.Days) >= itinerary.MaxDays {
		return itinerary.Day{}, &QuotaError{Quota: QuotaDays, Limit: itinerary.MaxDays}
	}
	n := len(s.doc.Days) + 1
	day := itinerary.Day{
		DayNumber:    n,
		Day:          n,
		Theme:        fmt.Sprintf("Day %d", n),
		Activities:   []itinerary.Activity{},
		UserModified: true,
	}
	s.doc.Days = append(s.doc.Days, day)
	s.doc.DurationDays = len(s.doc.Days)
	return day, nil
}

// DeleteDay removes a day and renumbers the remaining ones. The only
// remaining day cannot be deleted.
func (s *Store) DeleteDay(dayIndex int) error {
	if dayIndex < 0 || dayIndex >= len(s.doc.Days) {
		return outOfRange("day", dayIndex)
	}
	if len(s.doc.Days) <= 1 {
		return ErrLastDay
	}
	s.doc.Days = append(s.doc.Days[:dayIndex:dayIndex], s.doc.Days[dayIndex+1:]...)
	for i := range s.doc.Days {
		d := &s.doc.Days[i]
		if d.DayNumber != i+1 {
			d.UserModified = true
		}
		d.DayNumber = i + 1
		d.Day = i + 1
	}
	s.doc.DurationDays = len(s.doc.Days)
	return nil
}

// AddTip validates and appends a tip.
func (s *Store) AddTip(draft itinerary.Tip) (itinerary.Tip, error) {
	tip, err := cleanTip(draft)
	if err != nil {
		return itinerary.Tip{}, err
	}
	if tip.ID == "" {
		tip.ID = NewTipID()
	}
	s.doc.TravelTips = append(s.doc.TravelTips, tip)
	return tip, nil
}

// EditTip validates draft and replaces the tip at index.
func (s *Store) EditTip(index int, draft itinerary.Tip) (itinerary.Tip, error) {
	if index < 0 || index >= len(s.doc.TravelTips) {
		return itinerary.Tip{}, outOfRange("tip", index)
	}
	tip, err := cleanTip(draft)
	if err != nil {
		return itinerary.Tip{}, err
	}
	if tip.ID == "" {
		tip.ID = s.doc.TravelTips[index].ID
	}
	s.doc.TravelTips[index] = tip
	return tip, nil
}

// DeleteTip removes the tip at index.
func (s *Store) DeleteTip(index int) error {
	if index < 0 || index >= len(s.doc.TravelTips) {
		return outOfRange("tip", index)
	}
	s.doc.TravelTips = append(s.doc.TravelTips[:index:index], s.doc.TravelTips[index+1:]...)
	return nil
}

func (s *Store) day(idx int) (*itinerary.Day, error) {
	if idx < 0 || idx >= len(s.doc.Days) {
		return nil, outOfRange("day", idx)
	}
	return &s.doc.Days[idx], nil
}

func cleanActivity(draft itinerary.Activity) (itinerary.Activity, error) {
	var problems []string
	draft.Activity = strings.TrimSpace(draft.Activity)
	draft.Time = strings.TrimSpace(draft.Time)
	if draft.Activity == "" {
		problems = append(problems, "Activity name is required")
	}
	if draft.Time == "" {
		problems = append(problems, "Time is required")
	}
	if draft.Type == "" {
		draft.Type = itinerary.TypeSightseeing
	} else if !draft.Type.Valid() {
		problems = append(problems, fmt.Sprintf("Unknown activity type %q", draft.Type))
	}
	if len(problems) > 0 {
		return itinerary.Activity{}, &ValidationError{Problems: problems}
	}
	draft.Cost = itinerary.ClampAmount(draft.Cost)
	draft.UserModified = true
	return draft, nil
}

func cleanTip(draft itinerary.Tip) (itinerary.Tip, error) {
	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		return itinerary.Tip{}, &ValidationError{Problems: []string{"Tip content is required"}}
	}
	if draft.Category == "" || !draft.Category.Valid() {
		draft.Category = itinerary.TipGeneral
	}
	return draft, nil
}
