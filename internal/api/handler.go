package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"lotofacil_sync/internal/domain"
	"lotofacil_sync/internal/service"
	"lotofacil_sync/internal/stats"
)

const (
	defaultDrawsLimit = 10
	maxDrawsLimit     = 100
)

// Syncer is the slice of the sync service the API needs.
type Syncer interface {
	SyncIfNeeded(ctx context.Context) (bool, error)
	ReadLocalBundle() (*domain.LocalBundle, error)
	LastSync(ctx context.Context) (*domain.SyncState, error)
}

type DrawReader interface {
	Recent(ctx context.Context, limit int) ([]domain.LocalDraw, error)
}

type BetStore interface {
	Create(ctx context.Context, bet *domain.SavedBet) error
	List(ctx context.Context, owner string) ([]domain.SavedBet, error)
	Delete(ctx context.Context, owner string, id int64) error
}

type Handler struct {
	syncer Syncer
	draws  DrawReader
	bets   BetStore
	logger *slog.Logger
}

// NewHandler builds the handlers. draws may be nil when indexing is off;
// draws are then served from the local bundle. A nil bets leaves the
// saved bet routes unmounted.
func NewHandler(syncer Syncer, draws DrawReader, bets BetStore, logger *slog.Logger) *Handler {
	return &Handler{syncer: syncer, draws: draws, bets: bets, logger: logger}
}

type bundleResponse struct {
	Metadata domain.RemoteMetadata `json:"metadata"`
	Draws    int                   `json:"draws"`
	LastSync *domain.SyncState     `json:"lastSync,omitempty"`
}

type statsResponse struct {
	Summary      stats.Summary `json:"summary"`
	SuggestedBet []int         `json:"suggestedBet"`
}

type suggestionResponse struct {
	Numbers []int `json:"numbers"`
}

type syncResponse struct {
	Updated bool `json:"updated"`
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleBundle handles GET /api/v1/bundle requests.
func (h *Handler) HandleBundle(w http.ResponseWriter, r *http.Request) {
	b, ok := h.localBundle(w)
	if !ok {
		return
	}

	resp := bundleResponse{Metadata: b.Metadata, Draws: len(b.Draws)}

	state, err := h.syncer.LastSync(r.Context())
	if err != nil {
		h.logger.Warn("failed to read sync state", "error", err)
	} else if state != nil && state.LastDownloadedAt != nil {
		resp.LastSync = state
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDraws handles GET /api/v1/draws requests.
func (h *Handler) HandleDraws(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultDrawsLimit, 1, maxDrawsLimit, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if h.draws != nil {
		draws, err := h.draws.Recent(r.Context(), limit)
		if err != nil {
			h.logger.Error("failed to load draws", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
		writeJSON(w, http.StatusOK, draws)
		return
	}

	b, ok := h.localBundle(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recentDraws(b.Draws, limit))
}

// HandleStats handles GET /api/v1/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	b, ok := h.localBundle(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Summary:      stats.Summarize(b.Draws),
		SuggestedBet: stats.SuggestedBet(b.RawStats, stats.DefaultBetSize),
	})
}

// HandleSuggestion handles GET /api/v1/suggestion requests.
func (h *Handler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, stats.DefaultBetSize, stats.MinNumber, stats.MaxNumber, false)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	b, ok := h.localBundle(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, suggestionResponse{Numbers: stats.TopNumbers(b.Draws, limit)})
}

// HandleSync handles POST /api/v1/sync requests.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	updated, err := h.syncer.SyncIfNeeded(r.Context())
	if err != nil {
		h.logger.Error("manual sync failed", "error", err)
		if errors.Is(err, service.ErrRemoteUnavailable) {
			writeJSON(w, http.StatusBadGateway, errorResponse("remote bundle unavailable"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	if claims, ok := ClaimsFromContext(r.Context()); ok {
		h.logger.Info("manual sync", "subject", claims.Subject, "updated", updated)
	}

	writeJSON(w, http.StatusOK, syncResponse{Updated: updated})
}

// localBundle writes the error response itself and reports false when
// there is nothing to serve.
func (h *Handler) localBundle(w http.ResponseWriter) (*domain.LocalBundle, bool) {
	b, err := h.syncer.ReadLocalBundle()
	if err != nil {
		h.logger.Error("failed to read local bundle", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return nil, false
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, errorResponse("no local bundle"))
		return nil, false
	}
	return b, true
}

var errInvalidLimit = errors.New("invalid limit")

// queryLimit reads ?limit. Out of range values are clamped when clamp is
// set and rejected otherwise.
func queryLimit(r *http.Request, def, lo, hi int, clamp bool) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < lo {
		return 0, errInvalidLimit
	}
	if n > hi {
		if !clamp {
			return 0, errInvalidLimit
		}
		n = hi
	}
	return n, nil
}

func recentDraws(draws []domain.LocalDraw, limit int) []domain.LocalDraw {
	sorted := make([]domain.LocalDraw, len(draws))
	copy(sorted, draws)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
