// Package normalize converts server-shaped itinerary payloads into the
// canonical itinerary.Document.
//
// Normalize is a pure function: it performs no I/O, generates no random data,
// and re-normalizing a canonical document (see Raw) yields the same document.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
)

// Normalize maps a decoded JSON object into a canonical Document. A payload
// with no recognisable day list yields a document with zero days.
func Normalize(raw map[string]any) itinerary.Document {
	doc := itinerary.Document{
		Destination: firstString(raw, "destination", "city"),
		Summary:     firstString(raw, "summary", "overview"),
		Days:        []itinerary.Day{},
		TravelTips:  []itinerary.Tip{},
	}

	for i, d := range objects(dayList(raw)) {
		doc.Days = append(doc.Days, normalizeDay(d, i))
	}
	doc.TravelTips = normalizeTips(tipList(raw))
	doc.DurationDays = len(doc.Days)
	return doc
}

// Raw renders a canonical document back into the generic JSON object shape
// accepted by Normalize.
func Raw(doc itinerary.Document) map[string]any {
	b, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Document re-normalizes an already canonical document.
func Document(doc itinerary.Document) itinerary.Document {
	return Normalize(Raw(doc))
}

func dayList(raw map[string]any) []any {
	if raw == nil {
		return nil
	}
	for _, k := range []string{"itinerary_data", "days"} {
		if v, ok := raw[k].([]any); ok {
			return v
		}
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		return dayList(inner)
	}
	return nil
}

func tipList(raw map[string]any) []any {
	if raw == nil {
		return nil
	}
	for _, k := range []string{"travel_tips", "travelTips", "tips"} {
		if v, ok := raw[k].([]any); ok {
			return v
		}
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		return tipList(inner)
	}
	return nil
}

func normalizeDay(raw map[string]any, idx int) itinerary.Day {
	n := idx + 1
	if v, ok := firstNumber(raw, "day_number", "dayNumber", "day"); ok && v >= 1 && v <= maxDayNumber {
		n = int(v)
	}

	theme := firstString(raw, "title", "theme")
	if strings.TrimSpace(theme) == "" {
		theme = fmt.Sprintf("Day %d", n)
	}

	day := itinerary.Day{
		DayNumber:    n,
		Day:          n,
		Theme:        theme,
		Description:  firstString(raw, "description"),
		Activities:   []itinerary.Activity{},
		UserModified: firstBool(raw, "userModified", "user_modified"),
	}

	var acts []any
	for _, k := range []string{"activities", "items"} {
		if v, ok := raw[k].([]any); ok {
			acts = v
			break
		}
	}
	for i, a := range objects(acts) {
		day.Activities = append(day.Activities, normalizeActivity(a, i))
	}

	if total, ok := firstNumber(raw, "day_total", "dayTotal"); ok && total >= 0 {
		day.DayTotal = itinerary.AmountFromFloat(total)
	} else {
		day.DayTotal = day.ActivityCost()
	}
	return day
}

func normalizeActivity(raw map[string]any, idx int) itinerary.Activity {
	rawType := strings.ToLower(strings.TrimSpace(firstString(raw, "type", "category")))
	location := firstString(raw, "location", "address")

	name := firstString(raw, "activity", "name", "title")
	if strings.TrimSpace(name) == "" {
		name = synthesizeName(rawType, location)
	}

	slot := strings.ToLower(strings.TrimSpace(firstString(raw, "timeSlot", "time_slot")))
	clock := firstString(raw, "time", "start_time")
	if clock == "" {
		clock = SlotTime(slot, idx)
	}

	var duration string
	if slot != "" {
		duration = durationOr(raw, defaultConvertedDuration)
	} else {
		duration = durationOr(raw, defaultImportedDuration)
	}

	var cost int64
	if v, ok := firstNumber(raw, "cost", "estimated_cost", "price"); ok {
		cost = itinerary.AmountFromFloat(v)
	}

	typ := itinerary.ActivityType(rawType)
	if !typ.Valid() {
		typ = itinerary.TypeSightseeing
	}

	return itinerary.Activity{
		ActivityID:   firstString(raw, "activityId", "activity_id", "id", "_id"),
		Activity:     name,
		Time:         clock,
		Duration:     duration,
		Cost:         cost,
		Type:         typ,
		Location:     location,
		UserModified: firstBool(raw, "userModified", "user_modified"),
	}
}

func normalizeTips(list []any) []itinerary.Tip {
	tips := []itinerary.Tip{}
	for i, item := range list {
		tip := itinerary.Tip{ID: fmt.Sprintf("tip-%d", i+1), Category: itinerary.TipGeneral}
		switch v := item.(type) {
		case string:
			tip.Content = v
		case map[string]any:
			if id := firstString(v, "id", "_id"); id != "" {
				tip.ID = id
			}
			tip.Content = firstString(v, "content", "tip", "text")
			if c := itinerary.TipCategory(strings.ToLower(firstString(v, "category"))); c.Valid() {
				tip.Category = c
			}
		default:
			continue
		}
		tips = append(tips, tip)
	}
	return tips
}

// objects keeps the JSON objects of list, dropping any other element kinds.
func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
