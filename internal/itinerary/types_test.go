package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotals_TwoDaysThreeActivities(t *testing.T) {
	t.Parallel()
	doc := Document{Days: []Day{
		{DayNumber: 1, Activities: []Activity{{Activity: "Ben Thanh Market", Cost: 500000}}},
		{DayNumber: 2, Activities: []Activity{
			{Activity: "Cu Chi Tunnels", Cost: 300000},
			{Activity: "Pho dinner", Cost: 200000},
		}},
	}}

	got := CalculateTotals(doc)
	assert.Equal(t, Totals{TotalDays: 2, TotalActivities: 3, TotalCost: 1000000}, got)
}

func TestCalculateTotals_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Totals{}, CalculateTotals(Document{}))
}

func TestDocumentClone_Independent(t *testing.T) {
	t.Parallel()
	orig := Document{
		Days:       []Day{{DayNumber: 1, Activities: []Activity{{Activity: "a"}}}},
		TravelTips: []Tip{{ID: "t1", Content: "bring water"}},
	}
	cp := orig.Clone()
	cp.Days[0].Activities[0].Activity = "changed"
	cp.Days[0].Theme = "changed"
	cp.TravelTips[0].Content = "changed"

	require.Equal(t, "a", orig.Days[0].Activities[0].Activity)
	require.Empty(t, orig.Days[0].Theme)
	require.Equal(t, "bring water", orig.TravelTips[0].Content)
}

func TestParseActivityType(t *testing.T) {
	t.Parallel()
	got, err := ParseActivityType("food")
	require.NoError(t, err)
	assert.Equal(t, TypeFood, got)

	_, err = ParseActivityType("accommodation")
	assert.Error(t, err)
	assert.False(t, TipCategory("nope").Valid())
	assert.True(t, TipBudget.Valid())
}

func TestAmounts_SaturateAtMax(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(0), AmountFromFloat(-3))
	assert.Equal(t, int64(12), AmountFromFloat(12.9))
	assert.Equal(t, MaxAmount, AmountFromFloat(1e19))
	assert.Equal(t, int64(0), ClampAmount(-1))
	assert.Equal(t, MaxAmount, AddAmounts(MaxAmount, 1))

	doc := Document{Days: []Day{
		{Activities: []Activity{{Cost: MaxAmount}, {Cost: MaxAmount}}},
		{Activities: []Activity{{Cost: 1}}},
	}}
	assert.Equal(t, MaxAmount, doc.Days[0].ActivityCost())
	assert.Equal(t, MaxAmount, CalculateTotals(doc).TotalCost)
}
