// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/remote"
)

// SaveCall records one SaveDocument invocation.
type SaveCall struct {
	ID  string
	Doc itinerary.Document
}

// Fake is a concurrency-safe remote.Store backed by maps. Originals are
// cloned into customized copies with id "cust-<original>".
type Fake struct {
	mu sync.Mutex

	Originals  map[string]map[string]any
	Customized map[string]map[string]any

	Saves   []SaveCall
	Deletes []string
	Loads   []string

	// Hooks run before the default behaviour; a non-nil error is returned as is.
	BeforeSave   func(ctx context.Context, id string, doc itinerary.Document) error
	BeforeLoad   func(ctx context.Context, id string) error
	BeforeDelete func(ctx context.Context, id, activityID string)
	DeleteErr    error
	EchoDocument bool   // return the saved document as response data
	NewID        string // itineraryId reported by every successful save
}

var _ remote.Store = (*Fake)(nil)

// New returns a Fake that echoes saved documents back.
func New() *Fake {
	return &Fake{
		Originals:    map[string]map[string]any{},
		Customized:   map[string]map[string]any{},
		EchoDocument: true,
	}
}

// SeedOriginal registers raw as the original itinerary id.
func (f *Fake) SeedOriginal(id string, raw map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Originals[id] = raw
}

// SeedCustomized registers raw as an existing customization.
func (f *Fake) SeedCustomized(id string, raw map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Customized[id] = raw
}

func (f *Fake) LoadCustomizable(ctx context.Context, itineraryID string) (*remote.LoadResult, error) {
	if err := f.beforeLoad(ctx, itineraryID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads = append(f.Loads, "customize:"+itineraryID)
	orig, ok := f.Originals[itineraryID]
	if !ok {
		return nil, &remote.Error{Op: "load customizable", Kind: remote.KindNotFound, Status: 404, Message: "Itinerary not found"}
	}
	custID := "cust-" + itineraryID
	raw, ok := f.Customized[custID]
	if !ok {
		raw = copyMap(orig)
		f.Customized[custID] = raw
	}
	out := copyMap(raw)
	out["customizedAiId"] = custID
	out["originalAiId"] = itineraryID
	return remote.NewLoadResult(out), nil
}

func (f *Fake) LoadExisting(ctx context.Context, itineraryID string, _ remote.LoadOptions) (*remote.LoadResult, error) {
	if err := f.beforeLoad(ctx, itineraryID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads = append(f.Loads, "existing:"+itineraryID)
	raw, ok := f.Customized[itineraryID]
	if !ok {
		return nil, &remote.Error{Op: "load", Kind: remote.KindNotFound, Status: 404, Message: "Itinerary not found"}
	}
	out := copyMap(raw)
	out["customizedAiId"] = itineraryID
	return remote.NewLoadResult(out), nil
}

func (f *Fake) SaveDocument(ctx context.Context, itineraryID string, doc itinerary.Document) (*remote.SaveResult, error) {
	if f.BeforeSave != nil {
		if err := f.BeforeSave(ctx, itineraryID, doc); err != nil {
			f.mu.Lock()
			f.Saves = append(f.Saves, SaveCall{ID: itineraryID, Doc: doc.Clone()})
			f.mu.Unlock()
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Saves = append(f.Saves, SaveCall{ID: itineraryID, Doc: doc.Clone()})
	raw := toMap(doc)
	f.Customized[itineraryID] = raw
	res := &remote.SaveResult{Success: true, Message: "Itinerary saved", ItineraryID: f.NewID}
	if f.EchoDocument {
		res.Data = copyMap(raw)
	}
	return res, nil
}

func (f *Fake) DeleteActivity(ctx context.Context, itineraryID, activityID string) error {
	if f.BeforeDelete != nil {
		f.BeforeDelete(ctx, itineraryID, activityID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, itineraryID+"/"+activityID)
	return f.DeleteErr
}

// SaveCount returns the number of SaveDocument calls so far.
func (f *Fake) SaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Saves)
}

// LastSave returns the most recent save, or false if none happened.
func (f *Fake) LastSave() (SaveCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Saves) == 0 {
		return SaveCall{}, false
	}
	return f.Saves[len(f.Saves)-1], true
}

// DeleteCalls returns a copy of the recorded DeleteActivity calls.
func (f *Fake) DeleteCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Deletes...)
}

// LoadCalls returns a copy of the recorded loads.
func (f *Fake) LoadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Loads...)
}

func (f *Fake) beforeLoad(ctx context.Context, id string) error {
	if f.BeforeLoad == nil {
		return nil
	}
	return f.BeforeLoad(ctx, id)
}

func toMap(doc itinerary.Document) map[string]any {
	b, _ := json.Marshal(doc)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

func copyMap(in map[string]any) map[string]any {
	b, _ := json.Marshal(in)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}
