// Package identity tracks which itinerary a session edits: the route it was
// opened with, the customized copy learned from the first load, and the
// original it was cloned from.
package identity

import (
	"context"
	"net/url"
	"sync"

	"github.com/tripcraft/itinerary-editor/internal/remote"
)

const (
	LoginPath = "/login"
	HomePath  = "/itineraries"
)

// DetailPath is the read-only view of an itinerary.
func DetailPath(id string) string { return "/itinerary/" + url.PathEscape(id) }

// CustomizePath is the editing view of a customized itinerary.
func CustomizePath(id string) string { return DetailPath(id) + "/customize" }

// Route is what the session was opened with.
type Route struct {
	ItineraryID string
	// Customizing is set when the route already denotes a customization in
	// progress rather than an original itinerary.
	Customizing bool
}

// Triple is the session-scoped identity of the document.
type Triple struct {
	ItineraryID    string
	CustomizedAIID string
	OriginalAIID   string
}

// Replacer swaps the current location without adding a history entry.
type Replacer interface {
	Replace(path string)
}

// Resolver is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	route    Route
	ids      Triple
	nav      Replacer
	upgraded bool
}

// New returns a Resolver for route. nav may be nil.
func New(route Route, nav Replacer) *Resolver {
	return &Resolver{route: route, ids: Triple{ItineraryID: route.ItineraryID}, nav: nav}
}

// Load performs the initial fetch. An original itinerary is first cloned
// into a customizable copy and the route is upgraded to that copy once.
func (r *Resolver) Load(ctx context.Context, rs remote.Store) (*remote.LoadResult, error) {
	r.mu.RLock()
	route := r.route
	r.mu.RUnlock()

	var (
		res *remote.LoadResult
		err error
	)
	if route.Customizing {
		res, err = rs.LoadExisting(ctx, route.ItineraryID, remote.LoadOptions{})
	} else {
		res, err = rs.LoadCustomizable(ctx, route.ItineraryID)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.capture(res)
	var upgradeTo string
	if !route.Customizing && !r.upgraded && r.ids.CustomizedAIID != "" {
		r.upgraded = true
		r.route = Route{ItineraryID: r.ids.CustomizedAIID, Customizing: true}
		upgradeTo = CustomizePath(r.ids.CustomizedAIID)
	}
	r.mu.Unlock()

	if upgradeTo != "" && r.nav != nil {
		r.nav.Replace(upgradeTo)
	}
	return res, nil
}

// Reload fetches the saved document again, bypassing caches.
func (r *Resolver) Reload(ctx context.Context, rs remote.Store) (*remote.LoadResult, error) {
	res, err := rs.LoadExisting(ctx, r.SaveTarget(), remote.LoadOptions{NoCache: true})
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.capture(res)
	r.mu.Unlock()
	return res, nil
}

func (r *Resolver) capture(res *remote.LoadResult) {
	if res == nil {
		return
	}
	if res.CustomizedAIID != "" {
		r.ids.CustomizedAIID = res.CustomizedAIID
	}
	if res.OriginalAIID != "" {
		r.ids.OriginalAIID = res.OriginalAIID
	}
}

// SaveTarget prefers the customized copy once it is known.
func (r *Resolver) SaveTarget() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ids.CustomizedAIID != "" {
		return r.ids.CustomizedAIID
	}
	return r.ids.ItineraryID
}

// CancelTarget is where "go back" leads: the original when known.
func (r *Resolver) CancelTarget() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ids.OriginalAIID != "" {
		return DetailPath(r.ids.OriginalAIID)
	}
	return DetailPath(r.ids.ItineraryID)
}

func (r *Resolver) Identity() Triple {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ids
}
