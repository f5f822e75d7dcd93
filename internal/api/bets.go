package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lotofacil_sync/internal/domain"
	"lotofacil_sync/internal/stats"
)

const maxBetBody = 1 << 16

type createBetRequest struct {
	Numbers []int  `json:"numbers"`
	Source  string `json:"source"`
}

// betResponse adds the result of the bet against the latest draw, when
// one is known.
type betResponse struct {
	domain.SavedBet
	Contest *int `json:"contest,omitempty"`
	Hits    *int `json:"hits,omitempty"`
}

// HandleListBets handles GET /api/v1/bets requests.
func (h *Handler) HandleListBets(w http.ResponseWriter, r *http.Request) {
	owner := subject(r)

	bets, err := h.bets.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("failed to list bets", "owner", owner, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	latest := h.latestDraw(r)
	resp := make([]betResponse, len(bets))
	for i, b := range bets {
		resp[i] = scoreBet(b, latest)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreateBet handles POST /api/v1/bets requests.
func (h *Handler) HandleCreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBetBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	source := req.Source
	if source == "" {
		source = domain.SourceUser
	}
	if source != domain.SourceUser && source != domain.SourceSuggestion {
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown bet source"))
		return
	}

	h.saveBet(w, r, req.Numbers, source)
}

// HandleSaveSuggestion handles POST /api/v1/bets/suggestion requests. The
// backend's frequency ranking is saved when it names a full bet,
// otherwise the most drawn numbers of the local history.
func (h *Handler) HandleSaveSuggestion(w http.ResponseWriter, r *http.Request) {
	b, ok := h.localBundle(w)
	if !ok {
		return
	}

	numbers := stats.SuggestedBet(b.RawStats, stats.DefaultBetSize)
	if len(numbers) < stats.DefaultBetSize {
		numbers = stats.TopNumbers(b.Draws, stats.DefaultBetSize)
	}
	if len(numbers) < stats.DefaultBetSize {
		writeJSON(w, http.StatusNotFound, errorResponse("no suggestion available"))
		return
	}

	h.saveBet(w, r, numbers, domain.SourceSuggestion)
}

// HandleDeleteBet handles DELETE /api/v1/bets/{id} requests.
func (h *Handler) HandleDeleteBet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid bet id"))
		return
	}

	owner := subject(r)
	if err := h.bets.Delete(r.Context(), owner, id); err != nil {
		if errors.Is(err, domain.ErrBetNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("bet not found"))
			return
		}
		h.logger.Error("failed to delete bet", "owner", owner, "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) saveBet(w http.ResponseWriter, r *http.Request, numbers []int, source string) {
	normalized, err := stats.NormalizeBet(numbers)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	bet := &domain.SavedBet{
		Owner:   subject(r),
		Numbers: normalized,
		Source:  source,
	}
	if err := h.bets.Create(r.Context(), bet); err != nil {
		h.logger.Error("failed to save bet", "owner", bet.Owner, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	h.logger.Info("bet saved", "owner", bet.Owner, "id", bet.ID, "source", bet.Source)
	writeJSON(w, http.StatusCreated, scoreBet(*bet, h.latestDraw(r)))
}

// latestDraw prefers the draw index and falls back to the local bundle.
// Failures only cost the hit count.
func (h *Handler) latestDraw(r *http.Request) *domain.LocalDraw {
	if h.draws != nil {
		draws, err := h.draws.Recent(r.Context(), 1)
		if err != nil {
			h.logger.Warn("failed to load latest draw", "error", err)
			return nil
		}
		if len(draws) == 0 {
			return nil
		}
		return &draws[0]
	}

	b, err := h.syncer.ReadLocalBundle()
	if err != nil {
		h.logger.Warn("failed to read local bundle", "error", err)
		return nil
	}
	if b == nil {
		return nil
	}
	latest := recentDraws(b.Draws, 1)
	if len(latest) == 0 {
		return nil
	}
	return &latest[0]
}

func scoreBet(bet domain.SavedBet, latest *domain.LocalDraw) betResponse {
	resp := betResponse{SavedBet: bet}
	if latest != nil {
		contest := latest.ID
		hits := stats.Hits(bet.Numbers, latest.Numbers)
		resp.Contest = &contest
		resp.Hits = &hits
	}
	return resp
}

func subject(r *http.Request) string {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Subject
}
