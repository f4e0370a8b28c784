// SPDX-License-Identifier: MIT

package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/quizwire/internal/session"
)

func sessionWith(participants ...*session.Participant) *session.Session {
	sess := &session.Session{
		TotalQuestions:       5,
		CurrentQuestionIndex: 2,
		Participants:         map[string]*session.Participant{},
	}
	for _, p := range participants {
		sess.Participants[p.UserID] = p
	}
	return sess
}

func answered(n, correct int) []session.AnswerRecord {
	recs := make([]session.AnswerRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, session.AnswerRecord{QuestionIndex: i, IsCorrect: i < correct})
	}
	return recs
}

func TestLiveOrdering(t *testing.T) {
	sess := sessionWith(
		&session.Participant{UserID: "a", Username: "A", Score: 2450, Connected: true, Answers: answered(2, 2)},
		&session.Participant{UserID: "b", Username: "B", Score: 2450, Connected: true, Answers: answered(3, 2)},
		&session.Participant{UserID: "c", Username: "C", Score: 1000, Connected: true, Answers: answered(1, 1)},
	)

	live := Live(sess)
	require.Len(t, live, 3)

	// Equal scores: fewer answers ranks higher.
	assert.Equal(t, "a", live[0].UserID)
	assert.Equal(t, 1, live[0].Position)
	assert.Equal(t, "b", live[1].UserID)
	assert.Equal(t, 2, live[1].Position)
	assert.Equal(t, "c", live[2].UserID)
	assert.Equal(t, 3, live[2].Position)

	assert.Equal(t, 5, live[0].TotalQuestions)
	assert.Equal(t, 3, live[0].CurrentQuestion)
}

func TestLiveTiesBreakByUserID(t *testing.T) {
	sess := sessionWith(
		&session.Participant{UserID: "zed", Score: 500, Answers: answered(1, 1)},
		&session.Participant{UserID: "amy", Score: 500, Answers: answered(1, 1)},
	)

	live := Live(sess)
	require.Len(t, live, 2)
	assert.Equal(t, "amy", live[0].UserID)
	assert.Equal(t, "zed", live[1].UserID)
}

func TestLiveEmptySession(t *testing.T) {
	live := Live(sessionWith())
	assert.Empty(t, live)
}

func TestFinalAccuracy(t *testing.T) {
	sess := sessionWith(
		&session.Participant{UserID: "a", Score: 3000, Answers: answered(3, 2)},
		&session.Participant{UserID: "b", Score: 0, Answers: nil},
	)

	final := Final(sess)
	require.Len(t, final, 2)

	assert.Equal(t, "a", final[0].UserID)
	assert.Equal(t, 2, final[0].CorrectAnswers)
	assert.Equal(t, 1, final[0].WrongAnswers)
	assert.InDelta(t, 66.7, final[0].Accuracy, 0.001)

	// Never answered: accuracy is zero, not NaN.
	assert.Equal(t, "b", final[1].UserID)
	assert.Equal(t, 0.0, final[1].Accuracy)
	assert.Equal(t, 0, final[1].CorrectAnswers)
	assert.Equal(t, 0, final[1].WrongAnswers)
}

func TestRankOf(t *testing.T) {
	sess := sessionWith(
		&session.Participant{UserID: "a", Score: 2000, Answers: answered(2, 2)},
		&session.Participant{UserID: "b", Score: 1000, Answers: answered(2, 1)},
	)

	r, ok := RankOf(sess, "b")
	require.True(t, ok)
	assert.Equal(t, 2, r.Position)
	assert.Equal(t, 1000, r.Score)
	assert.Equal(t, 2, r.TotalParticipants)

	_, ok = RankOf(sess, "nobody")
	assert.False(t, ok)
}
