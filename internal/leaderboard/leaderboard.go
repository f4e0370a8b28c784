// SPDX-License-Identifier: MIT

// Package leaderboard derives ranked views over participant scores. It
// never mutates session state.
package leaderboard

import (
	"math"
	"sort"

	"github.com/quizwire/quizwire/internal/session"
)

// Entry is one live leaderboard row.
type Entry struct {
	Position        int    `json:"position"`
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	Score           int    `json:"score"`
	AnsweredCount   int    `json:"answered_count"`
	TotalQuestions  int    `json:"total_questions"`
	CurrentQuestion int    `json:"current_question"`
	IsConnected     bool   `json:"is_connected"`
}

// FinalEntry extends a live entry with accuracy stats for final results.
type FinalEntry struct {
	Entry
	Accuracy       float64 `json:"accuracy"`
	CorrectAnswers int     `json:"correct_answers"`
	WrongAnswers   int     `json:"wrong_answers"`
}

// Live projects the current leaderboard. Ordering is descending by score,
// then ascending by answered count (fewer answers for the same score is
// more efficient), then by user ID so the output is deterministic.
// Positions are dense, 1..N.
func Live(sess *session.Session) []Entry {
	entries := make([]Entry, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		entries = append(entries, Entry{
			UserID:          p.UserID,
			Username:        p.Username,
			Score:           p.Score,
			AnsweredCount:   len(p.Answers),
			TotalQuestions:  sess.TotalQuestions,
			CurrentQuestion: sess.CurrentQuestionIndex + 1,
			IsConnected:     p.Connected,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AnsweredCount != b.AnsweredCount {
			return a.AnsweredCount < b.AnsweredCount
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// Final projects final results: live ordering extended with per-participant
// accuracy. Accuracy is the share of correct answers rounded to one
// decimal, or 0.0 for participants who never answered.
func Final(sess *session.Session) []FinalEntry {
	live := Live(sess)
	final := make([]FinalEntry, 0, len(live))
	for _, e := range live {
		fe := FinalEntry{Entry: e}
		if p, ok := sess.Participants[e.UserID]; ok {
			correct := 0
			for _, a := range p.Answers {
				if a.IsCorrect {
					correct++
				}
			}
			fe.CorrectAnswers = correct
			fe.WrongAnswers = len(p.Answers) - correct
			if len(p.Answers) > 0 {
				fe.Accuracy = round1(float64(correct) / float64(len(p.Answers)) * 100)
			}
		}
		final = append(final, fe)
	}
	return final
}

// Rank holds one participant's standing.
type Rank struct {
	Position          int `json:"position"`
	Score             int `json:"score"`
	TotalParticipants int `json:"total_participants"`
}

// RankOf returns the standing of a single participant, or ok=false when the
// user is not on the board.
func RankOf(sess *session.Session, userID string) (Rank, bool) {
	live := Live(sess)
	for _, e := range live {
		if e.UserID == userID {
			return Rank{Position: e.Position, Score: e.Score, TotalParticipants: len(live)}, true
		}
	}
	return Rank{TotalParticipants: len(live)}, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
