package devserver

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter wires the customization API onto a gorilla/mux router.
func NewRouter(store Store, log zerolog.Logger) *mux.Router {
	h := NewHandler(store, log)

	router := mux.NewRouter()
	router.Use(recoverPanics(log))

	router.HandleFunc("/api/health", h.Health).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(requireUser)

	api.HandleFunc("/originals/{id}", h.PutOriginal).Methods("PUT")
	api.HandleFunc("/itineraries/{id}/customize", h.Customize).Methods("POST")
	api.HandleFunc("/itineraries/customized/{id}", h.GetCustomized).Methods("GET")
	api.HandleFunc("/itineraries/customized/{id}", h.PutCustomized).Methods("PUT")
	api.HandleFunc("/itineraries/customized/{id}/activities/{activityId}", h.DeleteActivity).Methods("DELETE")

	return router
}
