// Package itinerary defines the canonical editable itinerary document.
package itinerary

import "fmt"

// ------------------------------
// Limits
// ------------------------------

const (
	// MaxDays is the largest number of days a document may hold.
	MaxDays = 30
	// MaxActivitiesPerDay is the largest number of activities a single day may hold.
	MaxActivitiesPerDay = 20
)

// ------------------------------
// Enums
// ------------------------------

// ActivityType is the category of an activity.
type ActivityType string

const (
	TypeSightseeing   ActivityType = "sightseeing"
	TypeAdventure     ActivityType = "adventure"
	TypeFood          ActivityType = "food"
	TypeTransport     ActivityType = "transport"
	TypeShopping      ActivityType = "shopping"
	TypeEntertainment ActivityType = "entertainment"
	TypeCulture       ActivityType = "culture"
	TypeHistory       ActivityType = "history"
	TypeNature        ActivityType = "nature"
	TypeRelaxation    ActivityType = "relaxation"
)

var activityTypes = map[ActivityType]bool{
	TypeSightseeing: true, TypeAdventure: true, TypeFood: true, TypeTransport: true,
	TypeShopping: true, TypeEntertainment: true, TypeCulture: true, TypeHistory: true,
	TypeNature: true, TypeRelaxation: true,
}

// Valid reports whether t is one of the known activity categories.
func (t ActivityType) Valid() bool { return activityTypes[t] }

// ParseActivityType returns the ActivityType named by s.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown activity type %q", s)
	}
	return t, nil
}

// TipCategory is the category of a travel tip.
type TipCategory string

const (
	TipGeneral   TipCategory = "general"
	TipWeather   TipCategory = "weather"
	TipSafety    TipCategory = "safety"
	TipFood      TipCategory = "food"
	TipTransport TipCategory = "transport"
	TipCulture   TipCategory = "culture"
	TipBudget    TipCategory = "budget"
)

var tipCategories = map[TipCategory]bool{
	TipGeneral: true, TipWeather: true, TipSafety: true, TipFood: true,
	TipTransport: true, TipCulture: true, TipBudget: true,
}

// Valid reports whether c is one of the known tip categories.
func (c TipCategory) Valid() bool { return tipCategories[c] }

// ------------------------------
// Document
// ------------------------------

// Document is the root aggregate under edit.
type Document struct {
	Destination  string `json:"destination"`
	Summary      string `json:"summary"`
	Days         []Day  `json:"days"`
	TravelTips   []Tip  `json:"travelTips"`
	DurationDays int    `json:"durationDays"`
}

// Day is one day of the plan. DayNumber and Day both hold the 1-based position.
type Day struct {
	DayNumber    int        `json:"dayNumber"`
	Day          int        `json:"day"`
	Theme        string     `json:"theme"`
	Description  string     `json:"description"`
	Activities   []Activity `json:"activities"`
	DayTotal     int64      `json:"dayTotal"`
	UserModified bool       `json:"userModified"`
}

// Activity is a single scheduled item. Cost is in VND.
type Activity struct {
	ActivityID   string       `json:"activityId"`
	Activity     string       `json:"activity"`
	Time         string       `json:"time"`
	Duration     string       `json:"duration"`
	Cost         int64        `json:"cost"`
	Type         ActivityType `json:"type"`
	Location     string       `json:"location"`
	UserModified bool         `json:"userModified"`
}

// Tip is a free-form piece of trip advice.
type Tip struct {
	ID       string      `json:"id"`
	Content  string      `json:"content"`
	Category TipCategory `json:"category"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	if d.Days != nil {
		out.Days = make([]Day, len(d.Days))
		for i, day := range d.Days {
			out.Days[i] = day.Clone()
		}
	}
	if d.TravelTips != nil {
		out.TravelTips = append([]Tip(nil), d.TravelTips...)
	}
	return out
}

// Clone returns a deep copy of d.
func (d Day) Clone() Day {
	out := d
	if d.Activities != nil {
		out.Activities = append([]Activity(nil), d.Activities...)
	}
	return out
}

// ActivityCost sums the cost of the day's activities, saturating at
// MaxAmount.
func (d Day) ActivityCost() int64 {
	var sum int64
	for _, a := range d.Activities {
		sum = AddAmounts(sum, a.Cost)
	}
	return sum
}
