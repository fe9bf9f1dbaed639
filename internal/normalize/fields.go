package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultClockTime = "09:00"

	// Records that carried a time slot and no duration.
	defaultConvertedDuration = "1 hour"
	// Records imported with no duration information at all.
	defaultImportedDuration = "2 hours"

	maxDayNumber = math.MaxInt32
	maxMinutes   = math.MaxInt32
)

// slotTimes lists candidate clock times per time slot. Activities sharing a
// slot are spread across the list by their index within the day.
var slotTimes = map[string][]string{
	"morning":   {"08:00", "09:00", "10:00", "11:00"},
	"afternoon": {"13:00", "14:00", "15:00", "16:00"},
	"evening":   {"17:00", "18:00", "19:00", "20:00"},
	"night":     {"21:00", "22:00", "23:00", "23:30"},
}

var verbs = map[string]string{
	"sightseeing":   "Visit",
	"adventure":     "Explore",
	"food":          "Dine at",
	"transport":     "Travel to",
	"accommodation": "Stay at",
}

var fallbackLabels = map[string]string{
	"sightseeing":   "Sightseeing",
	"adventure":     "Adventure Activity",
	"food":          "Dining Experience",
	"transport":     "Transportation",
	"accommodation": "Accommodation Check-in",
}

// SlotTime resolves a time slot to a clock time for the activity at index
// idx. Unknown slots resolve to the default clock time.
func SlotTime(slot string, idx int) string {
	times, ok := slotTimes[slot]
	if !ok || idx < 0 {
		return defaultClockTime
	}
	return times[idx%len(times)]
}

// FormatMinutes renders a duration given in minutes as display text.
func FormatMinutes(n int) string {
	switch {
	case n < 60:
		return fmt.Sprintf("%d minutes", n)
	case n%60 == 0:
		h := n / 60
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%dh %dm", n/60, n%60)
	}
}

func synthesizeName(typ, location string) string {
	place := strings.TrimSpace(strings.SplitN(location, ",", 2)[0])
	if place == "" {
		if label, ok := fallbackLabels[typ]; ok {
			return label
		}
		return "Activity"
	}
	verb, ok := verbs[typ]
	if !ok {
		verb = "Visit"
	}
	return verb + " " + place
}

// durationOr reads the activity duration. Numbers are minutes; free text is
// kept as-is.
func durationOr(raw map[string]any, fallback string) string {
	if v, ok := raw["duration"]; ok {
		switch d := v.(type) {
		case string:
			s := strings.TrimSpace(d)
			if n, err := strconv.Atoi(s); err == nil {
				if n > 0 {
					return FormatMinutes(n)
				}
				return fallback
			}
			if s != "" {
				return s
			}
		default:
			if n, ok := toNumber(d); ok && n > 0 {
				return FormatMinutes(minutes(n))
			}
		}
	}
	if n, ok := firstNumber(raw, "duration_minutes", "durationMinutes"); ok && n > 0 {
		return FormatMinutes(minutes(n))
	}
	return fallback
}

// minutes rounds a positive duration to whole minutes, capped at maxMinutes.
func minutes(n float64) int {
	if n >= maxMinutes {
		return maxMinutes
	}
	return int(math.Round(n))
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := toNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return b
		}
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
