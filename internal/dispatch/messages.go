// SPDX-License-Identifier: MIT

package dispatch

import (
	"encoding/json"
	"time"

	"github.com/quizwire/quizwire/internal/leaderboard"
	"github.com/quizwire/quizwire/internal/session"
)

// Envelope is the wire format in both directions: a type discriminator and
// a type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound message types.
const (
	msgJoin                = "join"
	msgStartQuiz           = "start_quiz"
	msgSubmitAnswer        = "submit_answer"
	msgNextQuestion        = "next_question"
	msgRequestNextQuestion = "request_next_question"
	msgEndQuiz             = "end_quiz"
	msgRequestLeaderboard  = "request_leaderboard"
)

// Outbound message types.
const (
	msgSessionState        = "session_state"
	msgSessionUpdate       = "session_update"
	msgQuizStarted         = "quiz_started"
	msgQuestion            = "question"
	msgAnswerResult        = "answer_result"
	msgLeaderboardUpdate   = "leaderboard_update"
	msgLeaderboardResponse = "leaderboard_response"
	msgQuizEnded           = "quiz_ended"
	msgQuizCompleted       = "quiz_completed"
	msgHostUpdate          = "host_update"
	msgError               = "error"
)

// outMessage is a fully-formed outbound envelope.
type outMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type joinPayload struct {
	Username string `json:"username"`
}

type startQuizPayload struct {
	PerQuestionTimeLimit *int `json:"per_question_time_limit"`
}

type submitAnswerPayload struct {
	Answer    json.RawMessage `json:"answer"`
	Timestamp *float64        `json:"timestamp"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionStatePayload struct {
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

func sessionState(sess *session.Session) sessionStatePayload {
	list := sess.ParticipantList()
	return sessionStatePayload{
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

type sessionUpdatePayload struct {
	Status           session.Status         `json:"status"`
	ParticipantCount int                    `json:"participant_count"`
	Participants     []*session.Participant `json:"participants"`
}

func sessionUpdate(sess *session.Session) sessionUpdatePayload {
	list := sess.ParticipantList()
	return sessionUpdatePayload{
		Status:           sess.Status,
		ParticipantCount: len(list),
		Participants:     list,
	}
}

type quizStartedPayload struct {
	Message              string `json:"message"`
	PerQuestionTimeLimit int    `json:"per_question_time_limit"`
}

type leaderboardPayload struct {
	Leaderboard    []leaderboard.Entry `json:"leaderboard"`
	TotalQuestions *int                `json:"total_questions,omitempty"`
}

// hostUpdatePayload carries per-question progress to the host screen.
type hostUpdatePayload struct {
	AnswerDistribution map[string]int `json:"answer_distribution"`
	AllAnswered        bool           `json:"all_answered"`
}

type resultsPayload struct {
	Message string                   `json:"message"`
	Results []leaderboard.FinalEntry `json:"results"`
}
