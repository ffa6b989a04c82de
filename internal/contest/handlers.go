package contest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// statusFor maps service errors to HTTP status codes. Validation
// failures are the caller's fault, a missing contest is a 404, and
// anything unrecognized (store failures included) is a 500.
func statusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrContestNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrContestEnded),
		errors.Is(err, ErrBudgetExceeded),
		errors.Is(err, ErrCaptainNotInTeam),
		errors.Is(err, ErrViceCaptainNotInTeam),
		errors.Is(err, ErrSameCaptainVice),
		errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ContestRoutes returns the contest lifecycle API routes.
func (s *Service) ContestRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleListContests)
	r.Post("/create/daily", s.handleCreateDaily)
	r.Post("/create/weekly", s.handleCreateWeekly)
	r.Route("/{contestID}", func(r chi.Router) {
		r.Get("/", s.handleGetContest)
		r.Post("/submit", s.handleSubmit)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/score", s.handleScoreContest)
	})
	return r
}

// UserRoutes returns the session user API routes.
func (s *Service) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleGetUser)
	r.Get("/entries", s.handleUserEntries)
	r.Post("/reset", s.handleResetUser)
	return r
}

// ScoringRoutes returns the scoring reference API routes.
func (s *Service) ScoringRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/rules", s.handleScoringRules)
	r.Post("/calculate", s.handleCalculateScore)
	r.Get("/rank", s.handleRank)
	return r
}

func (s *Service) handleListContests(w http.ResponseWriter, r *http.Request) {
	contests, err := s.ListActiveContests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contests": contests})
}

func (s *Service) handleGetContest(w http.ResponseWriter, r *http.Request) {
	contest, err := s.GetContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contest": contest})
}

func (s *Service) handleCreateDaily(w http.ResponseWriter, r *http.Request) {
	contest, err := s.CreateDailyContest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contest")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contest": contest})
}

func (s *Service) handleCreateWeekly(w http.ResponseWriter, r *http.Request) {
	contest, err := s.CreateWeeklyContest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contest")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contest": contest})
}

type submitRequest struct {
	UserID      string            `json:"user_id"`
	Stocks      []model.HeldStock `json:"stocks"`
	Captain     string            `json:"captain"`
	ViceCaptain string            `json:"vice_captain"`
}

func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = model.DefaultUserID
	}

	entry, err := s.SubmitPortfolio(r.Context(), chi.URLParam(r, "contestID"), req.UserID, req.Stocks, req.Captain, req.ViceCaptain)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entry":   entry,
		"message": "Portfolio submitted successfully!",
	})
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	contest, rows, err := s.Leaderboard(r.Context(), chi.URLParam(r, "contestID"), limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"contest":     contest,
		"leaderboard": rows,
	})
}

func (s *Service) handleScoreContest(w http.ResponseWriter, r *http.Request) {
	scores, err := s.ScoreContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scores": scores})
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), model.DefaultUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleUserEntries(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = model.DefaultUserID
	}
	entries, err := s.UserEntries(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": entries})
}

func (s *Service) handleResetUser(w http.ResponseWriter, r *http.Request) {
	user := model.DefaultUser()
	if err := s.store.SaveUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Service) handleScoringRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scoring.Rules())
}

type calculateRequest struct {
	Stocks      []model.HeldStock `json:"stocks"`
	Captain     string            `json:"captain"`
	ViceCaptain string            `json:"vice_captain"`
}

// handleCalculateScore runs the scoring engine over an ad-hoc
// portfolio without touching any stored contest state.
func (s *Service) handleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := scoring.ScorePortfolio(r.Context(), s.source, req.Stocks, req.Captain, req.ViceCaptain)
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleRank(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("score")
	if raw == "" {
		raw = "0"
	}
	score, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid score")
		return
	}
	writeJSON(w, http.StatusOK, scoring.RankPortfolio(score))
}
