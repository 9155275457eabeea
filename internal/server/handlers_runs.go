package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/server/middleware"
	"github.com/jonathan/ray-assessment/internal/types"
)

// handleCreateRun gates and creates a draft run for the caller.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	created, err := s.runService.CreateRun(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleStartRun activates a draft run and returns its item list.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	started, err := s.runService.StartRun(r.Context(), userID, runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, started)
}

// handleSubmitResponses stores a batch of answers for an active run.
func (s *Server) handleSubmitResponses(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	var req types.SubmitResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := s.runService.SubmitResponses(r.Context(), userID, runID, req.Responses); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"accepted": len(req.Responses)})
}

// handleCompleteRun scores the run and returns the profile.
func (s *Server) handleCompleteRun(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	profile, err := s.runService.CompleteRun(r.Context(), userID, runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleCancelRun abandons a draft or active run.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	if err := s.runService.CancelRun(r.Context(), userID, runID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "canceled"})
}

// handleGetRun returns the caller's run record.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	found, err := s.runService.GetRun(r.Context(), userID, runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, found)
}

// handleGetResult returns the stored profile for a completed run.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	profile, err := s.runService.GetResult(r.Context(), userID, runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleVerifyRun re-derives the run's signature pair and reports the
// comparison.
func (s *Server) handleVerifyRun(w http.ResponseWriter, r *http.Request) {
	userID, runID, ok := s.runRequest(w, r)
	if !ok {
		return
	}

	report, err := s.runService.VerifySignature(r.Context(), userID, runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// runRequest extracts the authenticated user and the {id} path value.
func (s *Server) runRequest(w http.ResponseWriter, r *http.Request) (userID, runID uuid.UUID, ok bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	runID, err = uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, runID, true
}
