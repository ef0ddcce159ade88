package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"platewatch/internal/types"
)

// healthCheckTimeout bounds the total time spent on dependency probes.
const healthCheckTimeout = 2 * time.Second

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`

	WatchlistLoaded   bool       `json:"watchlist_loaded"`
	WatchlistSize     int        `json:"watchlist_size"`
	WatchlistLoadedAt *time.Time `json:"watchlist_loaded_at,omitempty"`
}

// HandleHealth runs all registered probes concurrently under a short
// deadline and reports watchlist snapshot state. Returns 503 when any
// probe fails. Public: mounted outside the authenticated group.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:          "healthy",
		WatchlistLoaded: s.store.IsLoaded(),
		WatchlistSize:   s.store.Size(),
	}
	if loadedAt := s.store.LoadedAt(); !loadedAt.IsZero() {
		resp.WatchlistLoadedAt = &loadedAt
	}

	if len(s.probes) > 0 {
		resp.Components = make(map[string]componentStatus, len(s.probes))

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, probe := range s.probes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := probe.Check(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					resp.Status = "unhealthy"
					resp.Components[probe.Name()] = componentStatus{
						Status:  "unhealthy",
						Message: err.Error(),
					}
					return
				}
				resp.Components[probe.Name()] = componentStatus{Status: "healthy"}
			}()
		}
		wg.Wait()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

// watchlistEntryResponse is the client-facing view of a watchlist hit. The
// raw provider payload is deliberately omitted.
type watchlistEntryResponse struct {
	Identity string                `json:"identity"`
	Status   types.WatchlistStatus `json:"status"`
	Issuer   string                `json:"issuer,omitempty"`
	Tags     []string              `json:"tags,omitempty"`
	Notes    string                `json:"notes,omitempty"`
}

// HandleWatchlistLookup serves GET /v1/watchlist/{plate}. The path segment
// is normalized the same way load-time keys are, so clients may pass raw
// readings with separators.
func (s *Server) HandleWatchlistLookup(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "plate")
	identity := types.NormalizePlate(raw)
	if identity == "" {
		Error(w, r, types.NewAppError(types.ErrCodeValidationPlateFormat,
			"plate must not be empty", nil))
		return
	}

	entry, found, err := s.store.Lookup(r.Context(), identity)
	if err != nil {
		Error(w, r, err)
		return
	}
	if !found {
		Error(w, r, types.NewAppError(types.ErrCodeNotFoundPlate,
			fmt.Sprintf("plate %s is not on the watchlist", identity), nil))
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: watchlistEntryResponse{
		Identity: entry.Identity,
		Status:   entry.Status,
		Issuer:   entry.Issuer,
		Tags:     entry.Tags,
		Notes:    entry.Notes,
	}})
}

type reloadResponse struct {
	Entries  int       `json:"entries"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HandleWatchlistReload serves POST /v1/watchlist/reload: forces a
// wholesale snapshot replacement from the backing source.
func (s *Server) HandleWatchlistReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Load(r.Context()); err != nil {
		Error(w, r, err)
		return
	}

	s.logger.Info("watchlist reloaded via ops API",
		"entries", s.store.Size(),
		"request_id", types.GetRequestID(r.Context()),
	)

	JSON(w, r, http.StatusOK, APIResponse{Data: reloadResponse{
		Entries:  s.store.Size(),
		LoadedAt: s.store.LoadedAt(),
	}})
}

// classifyRequest is the dry-run classification input.
type classifyRequest struct {
	Observation     types.VehicleObservation `json:"observation"`
	KnownSuspicious bool                     `json:"known_suspicious"`
}

// classifyResponse carries the decision plus the resolution detail that
// produced it.
type classifyResponse struct {
	Plate         string             `json:"plate,omitempty"`
	Matched       bool               `json:"matched"`
	FromAlternate bool               `json:"from_alternate,omitempty"`
	Decision      types.RiskDecision `json:"decision"`
}

// HandleClassify serves POST /v1/classify: runs resolution and
// classification for a posted observation without any pipeline side
// effects. Used to preview scoring changes and debug decisions.
func (s *Server) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	obs := req.Observation
	if err := types.ValidateObservation(&obs); err != nil {
		Error(w, r, err)
		return
	}

	if !obs.HasPlate() {
		Error(w, r, types.NewAppError(types.ErrCodeValidationPlateFormat,
			"observation has no primary plate; nothing to classify", nil))
		return
	}

	match, err := s.resolver.Resolve(r.Context(), obs.PrimaryPlate, obs.AlternatePlates)
	if err != nil {
		Error(w, r, err)
		return
	}

	resp := classifyResponse{
		Plate:    types.NormalizePlate(obs.PrimaryPlate),
		Decision: s.classifier.Classify(&obs, match, req.KnownSuspicious),
	}
	if match != nil {
		resp.Plate = match.Entry.Identity
		resp.Matched = true
		resp.FromAlternate = match.FromAlternate
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: resp})
}
