// Package remote defines the boundary to the remote itinerary store and an
// HTTP implementation of it.
package remote

import (
	"context"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
)

// Store is the remote persistence collaborator consumed by the editor.
// Every error it returns is an *Error.
type Store interface {
	// LoadCustomizable initialises (or returns the existing) customizable
	// clone of an original itinerary.
	LoadCustomizable(ctx context.Context, itineraryID string) (*LoadResult, error)
	// LoadExisting fetches an already customized itinerary.
	LoadExisting(ctx context.Context, itineraryID string, opts LoadOptions) (*LoadResult, error)
	// SaveDocument persists the whole document.
	SaveDocument(ctx context.Context, itineraryID string, doc itinerary.Document) (*SaveResult, error)
	// DeleteActivity removes a single activity. Best-effort.
	DeleteActivity(ctx context.Context, itineraryID, activityID string) error
}

// LoadOptions tune LoadExisting.
type LoadOptions struct {
	NoCache bool
}

// LoadResult carries the raw server payload and the identifiers found in it.
type LoadResult struct {
	Raw            map[string]any
	CustomizedAIID string
	OriginalAIID   string
}

// SaveResult mirrors the save endpoint envelope.
type SaveResult struct {
	Success bool
	// Data holds the server's canonical document, when returned.
	Data    map[string]any
	Message string
	// ItineraryID is a new top-level identifier, when the server assigned one.
	ItineraryID string
}

// NewLoadResult extracts identity fields from a raw payload.
func NewLoadResult(raw map[string]any) *LoadResult {
	return &LoadResult{
		Raw:            raw,
		CustomizedAIID: firstString(raw, "customizedAiId", "customized_ai_id", "_id", "id"),
		OriginalAIID:   firstString(raw, "originalAiId", "original_ai_id", "aiItineraryId"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
