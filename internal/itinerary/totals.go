package itinerary

// Totals summarises a document for display.
type Totals struct {
	TotalDays       int   `json:"totalDays"`
	TotalActivities int   `json:"totalActivities"`
	TotalCost       int64 `json:"totalCost"`
}

// CalculateTotals counts days and activities and sums activity costs.
// TotalCost saturates at MaxAmount.
func CalculateTotals(d Document) Totals {
	t := Totals{TotalDays: len(d.Days)}
	for _, day := range d.Days {
		t.TotalActivities += len(day.Activities)
		t.TotalCost = AddAmounts(t.TotalCost, day.ActivityCost())
	}
	return t
}
