package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"trainingcal/internal/datemath"
	"trainingcal/internal/events"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// mutationResponse carries the affected id and the re-fetched calendar for
// the view/date in the request query.
type mutationResponse struct {
	ID       string           `json:"id"`
	Calendar calendarResponse `json:"calendar"`
}

const maxMutationBody = 64 << 10

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	m, ok := s.decodeMutation(w, r)
	if !ok {
		return
	}
	id, err := s.mutator.Create(r.Context(), m)
	s.finishMutation(w, r, "create", id, err, http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	m, ok := s.decodeMutation(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	s.finishMutation(w, r, "update", id, s.mutator.Update(r.Context(), id, m), http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireMutator(w) {
		return
	}
	id := mux.Vars(r)["id"]
	s.finishMutation(w, r, "delete", id, s.mutator.Delete(r.Context(), id), http.StatusOK)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if !s.requireMutator(w) {
		return
	}
	id := mux.Vars(r)["id"]
	s.finishMutation(w, r, "complete", id, s.mutator.Complete(r.Context(), id), http.StatusOK)
}

func (s *Server) requireMutator(w http.ResponseWriter) bool {
	if s.mutator == nil {
		writeError(w, http.StatusServiceUnavailable, "event mutation service not configured")
		return false
	}
	return true
}

func (s *Server) decodeMutation(w http.ResponseWriter, r *http.Request) (events.Mutation, bool) {
	var m events.Mutation
	if !s.requireMutator(w) {
		return m, false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMutationBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return m, false
	}
	if err := validateMutation(&m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return m, false
	}
	return m, true
}

// validateMutation checks the payload and normalizes its category.
func validateMutation(m *events.Mutation) error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return errors.New("title is required")
	}
	if _, err := datemath.ParseDateKey(m.Date, nil); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	start, ok := model.ParseClock(m.Start)
	if !ok {
		return errors.New("startTime must be HH:MM")
	}
	end, ok := model.ParseClock(m.End)
	if !ok {
		return errors.New("endTime must be HH:MM")
	}
	if end <= start {
		return errors.New("endTime must be after startTime")
	}
	m.Start, m.End = model.FormatClock(start), model.FormatClock(end)
	m.Category = model.ParseCategory(string(m.Category))
	return nil
}

// finishMutation maps the service error, and on success drops the range
// cache and answers with a fresh fetch. Nothing is patched locally.
func (s *Server) finishMutation(w http.ResponseWriter, r *http.Request, op, id string, err error, status int) {
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		appLog.Error("event mutation failed", err, "op", op, "id", id)
		writeError(w, http.StatusBadGateway, "event service rejected the change")
		return
	}

	appLog.Info("event mutated", "op", op, "id", id)
	s.cache.invalidate()

	c, store := s.controllerFor(r)
	res, err := c.AfterMutation(r.Context())
	if err != nil {
		appLog.Error("re-fetch after mutation failed", err, "op", op, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to reload calendar")
		return
	}
	writeJSON(w, status, mutationResponse{ID: id, Calendar: s.calendarBody(c, store, res)})
}
