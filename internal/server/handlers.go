package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type turnRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := s.manager.SubmitTurn(r.Context(), key, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	p, err := s.manager.GetProgress(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type searchResult struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	Phase      string   `json:"phase,omitempty"`
	Situation  string   `json:"situation,omitempty"`
	Similarity float32  `json:"similarity"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	if s.store == nil || s.store.Count() == 0 {
		writeJSON(w, http.StatusOK, []searchResult{})
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	results, err := s.store.Query(r.Context(), query, limit, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tag := r.URL.Query().Get("tag")
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		if tag != "" && !res.Exchange.HasTag(tag) {
			continue
		}
		out = append(out, searchResult{
			ID:         res.Exchange.ID,
			Text:       res.Exchange.Text,
			Tags:       res.Exchange.Tags,
			Phase:      res.Exchange.Phase,
			Situation:  res.Exchange.Situation,
			Similarity: res.Similarity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
