package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tripcraft/itinerary-editor/internal/remote"
)

// envelope is the body shape of every endpoint.
type envelope struct {
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data,omitempty"`
	Message     string         `json:"message,omitempty"`
	Code        string         `json:"code,omitempty"`
	ItineraryID string         `json:"itineraryId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeData(w http.ResponseWriter, statusCode int, data map[string]any, message string) {
	writeJSON(w, statusCode, envelope{Success: true, Data: data, Message: message})
}

// writeFailure writes {success:false} carrying the wire code of kind.
func writeFailure(w http.ResponseWriter, statusCode int, kind remote.Kind, message string) {
	env := envelope{Success: false, Message: message}
	if kind != remote.KindGeneric {
		env.Code = kind.String()
	}
	writeJSON(w, statusCode, env)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusBadRequest, remote.KindGeneric, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusNotFound, remote.KindNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusInternalServerError, remote.KindGeneric, message)
}
