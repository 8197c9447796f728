package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	"github.com/tanpawarit/agentic-query-router/agent/meeting"
)

type meetingRequest struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	Description string `json:"description"`
}

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	caseSensitive, _ := strconv.ParseBool(q.Get("case_sensitive"))

	var (
		meetings []meeting.Meeting
		err      error
	)
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		meetings, err = s.meetings.Search(r.Context(), text, meeting.SearchOptions{CaseSensitive: caseSensitive})
	} else {
		meetings, err = s.meetings.GetAll(r.Context())
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid meeting body"})
		return
	}

	id, err := s.meetings.Create(r.Context(), req.Title, req.StartTime, req.Description)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	m, err := s.meetings.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	m, err := s.meetings.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	var upd meeting.MeetingUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid meeting body"})
		return
	}
	m, err := s.meetings.Update(r.Context(), id, upd)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := meetingID(w, r)
	if !ok {
		return
	}
	if err := s.meetings.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func meetingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid meeting id"})
		return 0, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "meeting not found"})
	case errors.Is(err, contractx.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
	default:
		log.Error().Err(err).Msg("meeting store")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
