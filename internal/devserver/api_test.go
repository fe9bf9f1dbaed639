package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/remote"
)

const originalBody = `{
  "destination": "Hoi An",
  "summary": "Lanterns and tailors",
  "itinerary_data": [
    {"day_number": 1, "title": "Old Town", "activities": [
      {"id": "a1", "name": "Japanese Bridge", "timeSlot": "morning", "cost": 120000, "type": "culture"},
      {"id": "a2", "location": "An Bang Beach, Hoi An", "timeSlot": "afternoon", "duration": 90, "type": "nature"}
    ]}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(openTestStore(t), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func seedOriginal(t *testing.T, srv *httptest.Server, id, body string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/originals/"+id, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer seeder")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func clientFor(t *testing.T, srv *httptest.Server, user string) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(srv.URL, user, remote.WithLoadRetry(1, time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestAPI_CustomizeLoadSaveDelete(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "orig-hoian", originalBody)
	alice := clientFor(t, srv, "alice")
	ctx := context.Background()

	res, err := alice.LoadCustomizable(ctx, "orig-hoian")
	require.NoError(t, err)
	require.NotEmpty(t, res.CustomizedAIID)
	assert.Equal(t, "orig-hoian", res.OriginalAIID)
	custID := res.CustomizedAIID

	again, err := alice.LoadCustomizable(ctx, "orig-hoian")
	require.NoError(t, err)
	assert.Equal(t, custID, again.CustomizedAIID, "customize is idempotent per user")

	loaded, err := alice.LoadExisting(ctx, custID, remote.LoadOptions{NoCache: true})
	require.NoError(t, err)
	days, ok := loaded.Raw["days"].([]any)
	require.True(t, ok)
	require.Len(t, days, 1)
	first := days[0].(map[string]any)["activities"].([]any)
	assert.Equal(t, "14:00", first[1].(map[string]any)["time"])
	assert.Equal(t, "1h 30m", first[1].(map[string]any)["duration"])

	// Save with a stale day total; the server recomputes it.
	var doc itinerary.Document
	raw, _ := json.Marshal(loaded.Raw)
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc.Days[0].Activities[1].Cost = 80000
	doc.Days[0].DayTotal = 1
	saved, err := alice.SaveDocument(ctx, custID, doc)
	require.NoError(t, err)
	assert.Equal(t, "Itinerary updated successfully", saved.Message)
	assert.EqualValues(t, 200000, saved.Data["days"].([]any)[0].(map[string]any)["dayTotal"])

	require.NoError(t, alice.DeleteActivity(ctx, custID, "a1"))
	err = alice.DeleteActivity(ctx, custID, "a1")
	assert.True(t, remote.Is(err, remote.KindNotFound))

	after, err := alice.LoadExisting(ctx, custID, remote.LoadOptions{})
	require.NoError(t, err)
	acts := after.Raw["days"].([]any)[0].(map[string]any)["activities"].([]any)
	assert.Len(t, acts, 1)
}

func TestAPI_ErrorCodes(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "orig-1", originalBody)
	ctx := context.Background()
	alice := clientFor(t, srv, "alice")
	bob := clientFor(t, srv, "bob")

	_, err := alice.LoadCustomizable(ctx, "unknown")
	assert.True(t, remote.Is(err, remote.KindNotFound))

	res, err := alice.LoadCustomizable(ctx, "orig-1")
	require.NoError(t, err)

	_, err = bob.LoadExisting(ctx, res.CustomizedAIID, remote.LoadOptions{})
	assert.True(t, remote.Is(err, remote.KindAccessDenied))

	tooLong := itinerary.Document{}
	for i := 0; i <= itinerary.MaxDays; i++ {
		tooLong.Days = append(tooLong.Days, itinerary.Day{DayNumber: i + 1, Day: i + 1})
	}
	_, err = alice.SaveDocument(ctx, res.CustomizedAIID, tooLong)
	assert.True(t, remote.Is(err, remote.KindMaxDaysExceeded))

	crowded := itinerary.Document{Days: []itinerary.Day{{DayNumber: 1, Day: 1}}}
	for i := 0; i <= itinerary.MaxActivitiesPerDay; i++ {
		crowded.Days[0].Activities = append(crowded.Days[0].Activities, itinerary.Activity{Activity: "x", Time: "09:00"})
	}
	_, err = alice.SaveDocument(ctx, res.CustomizedAIID, crowded)
	assert.True(t, remote.Is(err, remote.KindMaxActivitiesExceeded))
	assert.Equal(t, "Maximum 20 activities per day", remote.Message(err))
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/itineraries/x/customize", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var env map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "AUTH_REQUIRED", env["code"])
	assert.Equal(t, false, env["success"])

	health, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}
