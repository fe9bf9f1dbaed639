package devserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripcraft/itinerary-editor/editor"
	"github.com/tripcraft/itinerary-editor/internal/itinerary"
)

type pathRecorder struct{ replaced []string }

func (p *pathRecorder) Navigate(string)     {}
func (p *pathRecorder) Replace(path string) { p.replaced = append(p.replaced, path) }
func (p *pathRecorder) Confirm(string) bool { return true }

func TestEditorAgainstDevServer(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "orig-e2e", originalBody)
	ctx := context.Background()

	nav := &pathRecorder{}
	s, err := editor.New(clientFor(t, srv, "carol"), editor.User{ID: "carol"},
		editor.WithNavigator(nav),
		editor.WithDebounce(30*time.Millisecond),
		editor.WithRedirectDelay(time.Millisecond),
	)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Open(ctx, editor.Route{ItineraryID: "orig-e2e"}))
	custID := s.Identity().CustomizedAIID
	require.NotEmpty(t, custID)
	assert.Equal(t, []string{"/itinerary/" + custID + "/customize"}, nav.replaced)

	require.NoError(t, s.AddDay(ctx))
	_, err = s.AddActivity(ctx, 1, editor.Activity{Activity: "Cooking class", Time: "10:00", Cost: 650000, Type: itinerary.TypeFood})
	require.NoError(t, err)
	require.NoError(t, s.SetSummary("Lanterns, tailors and noodles"))
	require.NoError(t, s.Save(ctx))
	assert.False(t, s.Dirty())

	// A fresh session sees the persisted state.
	other, err := editor.New(clientFor(t, srv, "carol"), editor.User{ID: "carol"})
	require.NoError(t, err)
	defer other.Close(ctx)
	require.NoError(t, other.Open(ctx, editor.Route{ItineraryID: custID, Customizing: true}))

	doc := other.Document()
	assert.Equal(t, "Lanterns, tailors and noodles", doc.Summary)
	require.Len(t, doc.Days, 2)
	assert.Equal(t, int64(650000), doc.Days[1].DayTotal)
	assert.Equal(t, editor.Totals{TotalDays: 2, TotalActivities: 3, TotalCost: 770000}, other.Totals())
	assert.Equal(t, "orig-e2e", other.Identity().OriginalAIID)
}
