package learning

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

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

// Routes returns the learning API routes.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/insights", s.handleInsights)
	r.Get("/tips", s.handleTips)
	r.Get("/stock/{stockName}", s.handleStockContext)
	return r
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var result scoring.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, AnalyzePerformance(result))
}

func (s *Service) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.MarketInsights(r.Context()))
}

func (s *Service) handleTips(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = model.DefaultUserID
	}
	history, err := s.history.UserEntries(r.Context(), userID)
	if err != nil {
		s.logger.Warn("tips: history unavailable", "user", userID, "err", err)
		history = nil
	}
	writeJSON(w, http.StatusOK, TipsForNextContest(history))
}

func (s *Service) handleStockContext(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "stockName")
	writeJSON(w, http.StatusOK, s.StockLearningContext(r.Context(), name))
}
