// SPDX-License-Identifier: MIT

// Package session implements the authoritative session state store backed
// by Redis. All persistent multiplayer state is owned by this package;
// other components mutate it only through the Store API.
package session

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the lifecycle state of a session. Transitions are one-way:
// waiting -> active -> completed.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// after reports whether s comes strictly later than other in the lifecycle.
func (s Status) after(other Status) bool {
	return rank(s) > rank(other)
}

func rank(s Status) int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusActive:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// Mode selects how participants advance through questions.
type Mode string

const (
	// ModeLive is host-driven: all participants see the same question.
	ModeLive Mode = "live"
	// ModeSelfPaced lets each participant advance independently.
	ModeSelfPaced Mode = "self_paced"
	// ModeTimedIndividual behaves like self-paced; the label is advisory
	// for clients that enforce timers locally.
	ModeTimedIndividual Mode = "timed_individual"
)

// SelfPaced reports whether participants advance on their own cursor.
func (m Mode) SelfPaced() bool {
	return m == ModeSelfPaced || m == ModeTimedIndividual
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLive || m == ModeSelfPaced || m == ModeTimedIndividual
}

// AnswerRecord is the immutable record of one answer event. At most one
// record exists per (participant, question index).
type AnswerRecord struct {
	QuestionIndex int             `json:"question_index"`
	Answer        json.RawMessage `json:"answer"`
	Timestamp     float64         `json:"timestamp"`
	IsCorrect     bool            `json:"is_correct"`
	PointsEarned  int             `json:"points_earned"`
}

// Participant is a joined user other than the host.
type Participant struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	JoinedAt  time.Time      `json:"joined_at"`
	Connected bool           `json:"connected"`
	Score     int            `json:"score"`
	Answers   []AnswerRecord `json:"answers"`
}

// AnsweredIndex reports whether the participant already answered the
// question at idx.
func (p *Participant) AnsweredIndex(idx int) bool {
	for _, a := range p.Answers {
		if a.QuestionIndex == idx {
			return true
		}
	}
	return false
}

// MaxAnsweredIndex returns the highest question index answered, or -1.
func (p *Participant) MaxAnsweredIndex() int {
	max := -1
	for _, a := range p.Answers {
		if a.QuestionIndex > max {
			max = a.QuestionIndex
		}
	}
	return max
}

// Session is a point-in-time snapshot of session state. Values returned by
// the store are copies; mutating them has no effect on persisted state.
type Session struct {
	Code                 string                  `json:"session_code"`
	QuizID               string                  `json:"quiz_id"`
	HostID               string                  `json:"host_id"`
	Status               Status                  `json:"status"`
	Mode                 Mode                    `json:"mode"`
	QuizTitle            string                  `json:"quiz_title"`
	CurrentQuestionIndex int                     `json:"current_question_index"`
	TotalQuestions       int                     `json:"total_questions"`
	PerQuestionTimeLimit int                     `json:"per_question_time_limit"`
	QuestionStartTime    time.Time               `json:"question_start_time"`
	CreatedAt            time.Time               `json:"created_at"`
	ExpiresAt            time.Time               `json:"expires_at"`
	Participants         map[string]*Participant `json:"participants"`
}

// ParticipantList returns the participants in a stable order (by user ID).
func (s *Session) ParticipantList() []*Participant {
	ids := make([]string, 0, len(s.Participants))
	for id := range s.Participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Participants[id])
	}
	return out
}
