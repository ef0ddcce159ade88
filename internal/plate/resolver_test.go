package plate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"platewatch/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore records lookup order and serves a fixed identity set.
type fakeStore struct {
	entries map[string]types.WatchlistEntry
	err     error
	queried []string
}

func (f *fakeStore) Lookup(ctx context.Context, identity string) (types.WatchlistEntry, bool, error) {
	f.queried = append(f.queried, identity)
	if f.err != nil {
		return types.WatchlistEntry{}, false, f.err
	}
	entry, ok := f.entries[identity]
	return entry, ok, nil
}

func storeWith(identities ...string) *fakeStore {
	entries := make(map[string]types.WatchlistEntry, len(identities))
	for _, id := range identities {
		entries[id] = types.WatchlistEntry{Identity: id, Status: types.StatusConfirmed}
	}
	return &fakeStore{entries: entries}
}

func TestResolvePrimaryMatch(t *testing.T) {
	store := storeWith("ABC123")
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "ABC123", []string{"A8C123"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match == nil {
		t.Fatal("Resolve() returned no match")
	}
	if match.MatchedIdentity != "ABC123" {
		t.Errorf("matched identity = %q, want ABC123", match.MatchedIdentity)
	}
	if match.FromAlternate {
		t.Error("primary match reported FromAlternate")
	}
	// Primary matched first, so the alternate is never queried.
	if len(store.queried) != 1 {
		t.Errorf("store queried %d times, want 1: %v", len(store.queried), store.queried)
	}
}

func TestResolveAlternateMatchIsAuthoritative(t *testing.T) {
	// OCR read 5XH646 but the physical plate is SXH646 (5/S confusion).
	store := storeWith("SXH646")
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "5XH646", []string{"SXH646"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match == nil {
		t.Fatal("Resolve() returned no match")
	}
	if match.MatchedIdentity != "SXH646" {
		t.Errorf("matched identity = %q, want SXH646", match.MatchedIdentity)
	}
	if !match.FromAlternate {
		t.Error("alternate match did not report FromAlternate")
	}
	if match.Entry.Status != types.StatusConfirmed {
		t.Errorf("entry status = %s, want %s", match.Entry.Status, types.StatusConfirmed)
	}
}

func TestResolvePrimaryPrecedence(t *testing.T) {
	// Both candidates resolve to different entries: first-in-list wins.
	store := storeWith("ABC123", "A8C123")
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "ABC123", []string{"A8C123"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match == nil || match.MatchedIdentity != "ABC123" {
		t.Errorf("match = %+v, want primary ABC123", match)
	}
}

func TestResolveCandidateOrder(t *testing.T) {
	store := storeWith() // nothing matches
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "abc 123", []string{"a8c-123", "ab0123"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match != nil {
		t.Fatalf("Resolve() = %+v, want no match", match)
	}

	want := []string{"ABC123", "A8C123", "AB0123"}
	if len(store.queried) != len(want) {
		t.Fatalf("queried = %v, want %v", store.queried, want)
	}
	for i, q := range want {
		if store.queried[i] != q {
			t.Errorf("query[%d] = %q, want %q", i, store.queried[i], q)
		}
	}
}

func TestResolveEmptyCandidatesSkipsStore(t *testing.T) {
	store := storeWith("ABC123")
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match != nil {
		t.Errorf("Resolve() = %+v, want no match", match)
	}
	if len(store.queried) != 0 {
		t.Errorf("store queried %d times for empty candidates, want 0", len(store.queried))
	}
}

func TestResolveAlternatesOnly(t *testing.T) {
	store := storeWith("SXH646")
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "", []string{"SXH646"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if match == nil {
		t.Fatal("Resolve() returned no match")
	}
	if !match.FromAlternate {
		t.Error("alternate-only match did not report FromAlternate")
	}
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	loadErr := types.NewAppError(types.ErrCodeWatchlistLoad, "snapshot fetch failed",
		errors.New("connection refused"))
	store := &fakeStore{err: loadErr}
	r := NewResolver(store, discardLogger())

	match, err := r.Resolve(context.Background(), "ABC123", nil)
	if err == nil {
		t.Fatal("Resolve() swallowed a store error")
	}
	if match != nil {
		t.Errorf("Resolve() = %+v alongside error, want nil", match)
	}
	// A failed lookup must surface as a load error, never as "plate clear".
	if !types.IsLoadError(err) {
		t.Errorf("error = %v, want load error", err)
	}
}
