package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/normalize"
	"github.com/tripcraft/itinerary-editor/internal/remote"
)

const maxBodyBytes = 4 << 20

// Handler serves the itinerary customization API.
type Handler struct {
	store Store
	log   zerolog.Logger
}

func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// PutOriginal PUT /api/originals/{id}
// Seeds an AI-generated itinerary in any of the accepted raw shapes.
func (h *Handler) PutOriginal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "Invalid body")
		return
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.store.PutOriginal(r.Context(), id, body); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("store original")
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Original itinerary stored", ItineraryID: id})
}

// Customize POST /api/itineraries/{id}/customize
// Returns the caller's customized copy of original {id}, cloning it first
// when none exists.
func (h *Handler) Customize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	originalID := mux.Vars(r)["id"]
	user := userFrom(ctx)

	c, err := h.store.FindCustomized(ctx, user, originalID)
	if errors.Is(err, ErrNotFound) {
		c, err = h.clone(r, user, originalID)
	}
	if errors.Is(err, ErrNotFound) {
		writeNotFound(w, "Itinerary not found")
		return
	}
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	data, err := payload(c)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeData(w, http.StatusOK, data, "")
}

func (h *Handler) clone(r *http.Request, user, originalID string) (*Customized, error) {
	body, err := h.store.GetOriginal(r.Context(), originalID)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode original %s: %w", originalID, err)
	}
	doc, err := json.Marshal(canonical(normalize.Normalize(raw)))
	if err != nil {
		return nil, err
	}
	c := &Customized{ID: uuid.NewString(), OriginalID: originalID, Owner: user, Body: doc}
	if err := h.store.PutCustomized(r.Context(), c); err != nil {
		return nil, err
	}
	h.log.Info().Str("original_id", originalID).Str("customized_id", c.ID).Str("user", user).Msg("customized copy created")
	return c, nil
}

// GetCustomized GET /api/itineraries/customized/{id}
func (h *Handler) GetCustomized(w http.ResponseWriter, r *http.Request) {
	c, ok := h.owned(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("noCache") == "true" {
		w.Header().Set("Cache-Control", "no-store")
	}
	data, err := payload(c)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeData(w, http.StatusOK, data, "")
}

// PutCustomized PUT /api/itineraries/customized/{id}
func (h *Handler) PutCustomized(w http.ResponseWriter, r *http.Request) {
	c, ok := h.owned(w, r)
	if !ok {
		return
	}
	var doc itinerary.Document
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&doc); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}
	if len(doc.Days) > itinerary.MaxDays {
		writeFailure(w, http.StatusUnprocessableEntity, remote.KindMaxDaysExceeded, fmt.Sprintf("Maximum %d days allowed", itinerary.MaxDays))
		return
	}
	for _, d := range doc.Days {
		if len(d.Activities) > itinerary.MaxActivitiesPerDay {
			writeFailure(w, http.StatusUnprocessableEntity, remote.KindMaxActivitiesExceeded,
				fmt.Sprintf("Maximum %d activities per day", itinerary.MaxActivitiesPerDay))
			return
		}
	}
	h.save(w, r, c, canonical(normalize.Document(doc)), "Itinerary updated successfully")
}

// DeleteActivity DELETE /api/itineraries/customized/{id}/activities/{activityId}
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	c, ok := h.owned(w, r)
	if !ok {
		return
	}
	activityID := mux.Vars(r)["activityId"]

	var doc itinerary.Document
	if err := json.Unmarshal(c.Body, &doc); err != nil {
		writeInternalError(w, err.Error())
		return
	}
	found := false
	for i := range doc.Days {
		acts := doc.Days[i].Activities
		for j := range acts {
			if acts[j].ActivityID == activityID {
				doc.Days[i].Activities = append(acts[:j:j], acts[j+1:]...)
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		writeNotFound(w, "Activity not found")
		return
	}
	h.save(w, r, c, canonical(doc), "Activity deleted")
}

// Health GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// owned loads the customized copy named in the route and enforces ownership.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*Customized, bool) {
	id := mux.Vars(r)["id"]
	c, err := h.store.GetCustomized(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeNotFound(w, "Itinerary not found")
		return nil, false
	}
	if err != nil {
		writeInternalError(w, err.Error())
		return nil, false
	}
	if c.Owner != userFrom(r.Context()) {
		writeFailure(w, http.StatusForbidden, remote.KindAccessDenied, "Access denied")
		return nil, false
	}
	return c, true
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, c *Customized, doc itinerary.Document, message string) {
	body, err := json.Marshal(doc)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	c.Body = body
	if err := h.store.PutCustomized(r.Context(), c); err != nil {
		h.log.Error().Err(err).Str("id", c.ID).Msg("store customized")
		writeInternalError(w, err.Error())
		return
	}
	data, err := payload(c)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeData(w, http.StatusOK, data, message)
}

// canonical recomputes derived fields the client may have left stale.
func canonical(doc itinerary.Document) itinerary.Document {
	for i := range doc.Days {
		d := &doc.Days[i]
		d.DayNumber, d.Day = i+1, i+1
		d.DayTotal = d.ActivityCost()
	}
	doc.DurationDays = len(doc.Days)
	return doc
}

// payload renders a stored copy with its identifiers.
func payload(c *Customized) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal(c.Body, &data); err != nil {
		return nil, err
	}
	data["customizedAiId"] = c.ID
	data["originalAiId"] = c.OriginalID
	return data, nil
}
