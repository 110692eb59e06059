package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ASaxcs/bot2/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":    "healthy",
		"sequence":  s.engine.Sequence(),
		"timestamp": time.Now(),
	}
	if s.sched != nil {
		payload["scheduler"] = s.sched.GetStats()
	}
	s.respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleGetPersonality(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.GetPersonality())
}

func (s *Server) handleGetInfluence(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.GetInfluence())
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.engine.RecentStates(limit)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDialogue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := s.engine.ProcessDialogue(input.Text)
	if errors.Is(err, core.ErrRequestTimeout) {
		// The update still lands; the caller gets the safe fallback now.
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"timed_out": true,
			"influence": res.Influence,
		})
		return
	}
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.Broadcast("state.updated", s.engine.Snapshot())
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecordExperience(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserInput    string            `json:"user_input"`
		AIResponse   string            `json:"ai_response"`
		Context      map[string]string `json:"context,omitempty"`
		SuccessScore float64           `json:"success_score"`
		Tags         []string          `json:"tags,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, err := s.engine.RecordExperience(core.InteractionExperience{
		UserInput:       input.UserInput,
		AIResponse:      input.AIResponse,
		ContextSnapshot: input.Context,
		SuccessScore:    input.SuccessScore,
		LearningTags:    input.Tags,
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.Broadcast("experience.recorded", out)
	s.respondJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	experiences, err := s.engine.Experiences(limit, offset)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, experiences)
}

func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exp, err := s.engine.Experience(id)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, exp)
}

func (s *Server) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.engine.Patterns()
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, patterns)
}

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.engine.AdaptationInsights()
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, insights)
}

func (s *Server) handlePredictStyle(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Trigger string `json:"trigger"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.Trigger == "" {
		s.respondError(w, http.StatusBadRequest, "Trigger required")
		return
	}

	styles, err := s.engine.PredictStyle(input.Trigger)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"trigger": input.Trigger,
		"styles":  styles,
	})
}

func (s *Server) handleGetTrend(w http.ResponseWriter, r *http.Request) {
	name := core.TraitName(chi.URLParam(r, "trait"))
	window := queryInt(r, "window", 10)

	trend, err := s.engine.Trend(name, window)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trend)
}

func (s *Server) handleSetBaseline(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Emotion   string  `json:"emotion"`
		Intensity float64 `json:"intensity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := s.engine.SetBaseline(core.Emotion(input.Emotion), input.Intensity); err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.Broadcast("state.updated", s.engine.Snapshot())
	s.respondJSON(w, http.StatusOK, s.engine.GetState())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reset(); err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.Broadcast("state.updated", s.engine.Snapshot())
	s.respondJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Save(); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.engine.Load()
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.Broadcast("state.updated", s.engine.Snapshot())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded": loaded,
		"view":   s.engine.Snapshot(),
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	result := map[string]interface{}{
		"engine": stats,
	}
	if s.sched != nil {
		result["scheduler"] = s.sched.GetStats()
	}
	result["websocket_clients"] = s.wsHub.ClientCount()

	s.respondJSON(w, http.StatusOK, result)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
