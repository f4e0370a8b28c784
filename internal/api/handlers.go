// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	xlog "github.com/quizwire/quizwire/internal/log"
	"github.com/quizwire/quizwire/internal/session"
)

type createSessionRequest struct {
	QuizID               string `json:"quiz_id"`
	HostID               string `json:"host_id"`
	Mode                 string `json:"mode"`
	PerQuestionTimeLimit *int   `json:"per_question_time_limit"`
}

type joinRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type hostRequest struct {
	HostID               string `json:"host_id"`
	PerQuestionTimeLimit *int   `json:"per_question_time_limit"`
}

type sessionView struct {
	SessionCode          string                 `json:"session_code"`
	QuizID               string                 `json:"quiz_id"`
	HostID               string                 `json:"host_id"`
	Status               session.Status         `json:"status"`
	Mode                 session.Mode           `json:"mode"`
	QuizTitle            string                 `json:"quiz_title"`
	CurrentQuestionIndex int                    `json:"current_question_index"`
	TotalQuestions       int                    `json:"total_questions"`
	PerQuestionTimeLimit int                    `json:"per_question_time_limit"`
	CreatedAt            time.Time              `json:"created_at"`
	ExpiresAt            time.Time              `json:"expires_at"`
	Participants         []*session.Participant `json:"participants"`
	ParticipantCount     int                    `json:"participant_count"`
}

func viewOf(sess *session.Session) sessionView {
	list := sess.ParticipantList()
	return sessionView{
		SessionCode:          sess.Code,
		QuizID:               sess.QuizID,
		HostID:               sess.HostID,
		Status:               sess.Status,
		Mode:                 sess.Mode,
		QuizTitle:            sess.QuizTitle,
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		TotalQuestions:       sess.TotalQuestions,
		PerQuestionTimeLimit: sess.PerQuestionTimeLimit,
		CreatedAt:            sess.CreatedAt,
		ExpiresAt:            sess.ExpiresAt,
		Participants:         list,
		ParticipantCount:     len(list),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuizID == "" || req.HostID == "" {
		writeError(w, http.StatusBadRequest, "quiz_id and host_id are required")
		return
	}

	mode := session.ModeLive
	if req.Mode != "" {
		mode = session.Mode(req.Mode)
		if !mode.Valid() {
			writeError(w, http.StatusBadRequest, "unknown session mode")
			return
		}
	}

	q, err := s.quizzes.FindByID(r.Context(), req.QuizID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	perQuestion := s.questionTime
	if req.PerQuestionTimeLimit != nil && *req.PerQuestionTimeLimit > 0 {
		perQuestion = *req.PerQuestionTimeLimit
	}

	code, err := s.store.Create(r.Context(), req.QuizID, req.HostID, mode, q.Title, len(q.Questions), perQuestion)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.logger.Info().
		Str("event", "session.created").
		Str(xlog.FieldSessionCode, code).
		Str(xlog.FieldQuizID, req.QuizID).
		Str(xlog.FieldMode, string(mode)).
		Msg("session created")

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"session_code": code,
		"message":      "Session created successfully",
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": viewOf(sess),
	})
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	list := sess.ParticipantList()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"participants":      list,
		"participant_count": len(list),
		"mode":              sess.Mode,
		"is_started":        sess.Status != session.StatusWaiting,
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	username := req.Username
	if username == "" {
		username = "Anonymous"
	}

	code := chi.URLParam(r, "code")
	_, sess, err := s.store.UpsertParticipant(r.Context(), code, req.UserID, username)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Joined session successfully",
		"session_code":      sess.Code,
		"participant_count": len(sess.Participants),
		"quiz_id":           sess.QuizID,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := chi.URLParam(r, "code")
	sess, err := s.store.Get(r.Context(), code)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if req.HostID != sess.HostID {
		writeForbidden(w, "Only the host can start the session")
		return
	}

	if req.PerQuestionTimeLimit != nil && *req.PerQuestionTimeLimit > 0 {
		if err := s.store.SetPerQuestionTimeLimit(r.Context(), code, *req.PerQuestionTimeLimit); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if err := s.store.SetStatus(r.Context(), code, session.StatusActive); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.ctrl.InitCursors(r.Context(), sess); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.store.StartQuestionTimer(r.Context(), code); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session started",
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := chi.URLParam(r, "code")
	sess, err := s.store.Get(r.Context(), code)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if req.HostID != sess.HostID {
		writeForbidden(w, "Only the host can end the session")
		return
	}

	if err := s.store.SetStatus(r.Context(), code, session.StatusCompleted); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session ended",
	})
}

// handleValidate reports whether a code refers to a joinable session.
// A missing session is a negative result, not an error.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess, err := s.store.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"valid":   false,
			})
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"valid":             true,
		"session_code":      sess.Code,
		"status":            sess.Status,
		"mode":              sess.Mode,
		"quiz_id":           sess.QuizID,
		"quiz_title":        sess.QuizTitle,
		"participant_count": len(sess.Participants),
	})
}
