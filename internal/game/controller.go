// SPDX-License-Identifier: MIT

// Package game implements the stateless game logic over the session store:
// question retrieval, answer validation, time-bonus scoring and progress
// tracking for both host-driven and self-paced play.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizwire/quizwire/internal/metrics"
	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

// Controller validates answers, computes scores and tracks progress. It
// holds no per-session state of its own.
type Controller struct {
	store   *session.Store
	quizzes quiz.Store
	logger  zerolog.Logger

	// fallbackTime is used when a session carries no per-question limit.
	fallbackTime int

	now func() time.Time
}

// NewController wires the game controller to its collaborators.
func NewController(store *session.Store, quizzes quiz.Store, fallbackTime int, logger zerolog.Logger) *Controller {
	return &Controller{
		store:        store,
		quizzes:      quizzes,
		logger:       logger,
		fallbackTime: fallbackTime,
		now:          time.Now,
	}
}

func (c *Controller) timeLimit(sess *session.Session) int {
	if sess.PerQuestionTimeLimit > 0 {
		return sess.PerQuestionTimeLimit
	}
	return c.fallbackTime
}

// QuestionView is the normalized question payload delivered to clients.
type QuestionView struct {
	Question             string            `json:"question"`
	QuestionType         string            `json:"questionType"`
	Type                 string            `json:"type"`
	Options              []string          `json:"options"`
	ID                   string            `json:"id"`
	CorrectAnswerIndex   *int              `json:"correctAnswerIndex,omitempty"`
	CorrectAnswerIndices []int             `json:"correctAnswerIndices,omitempty"`
	DragItems            []string          `json:"dragItems,omitempty"`
	DropTargets          []string          `json:"dropTargets,omitempty"`
	CorrectMatches       map[string]string `json:"correctMatches,omitempty"`
	ImageURL             string            `json:"imageUrl,omitempty"`
}

// QuestionEnvelope wraps a question with its position and remaining time.
type QuestionEnvelope struct {
	Question      QuestionView `json:"question"`
	Index         int          `json:"index"`
	Total         int          `json:"total"`
	TimeRemaining int          `json:"time_remaining"`
}

// QuestionByIndex fetches the quiz and returns the normalized question at
// idx. In live mode the remaining time is derived from the question start
// stamp; in self-paced modes every participant gets the full limit.
func (c *Controller) QuestionByIndex(ctx context.Context, sess *session.Session, idx int) (*QuestionEnvelope, error) {
	q, total, err := c.question(ctx, sess.QuizID, idx)
	if err != nil {
		return nil, err
	}

	limit := c.timeLimit(sess)
	remaining := limit
	if !sess.Mode.SelfPaced() && !sess.QuestionStartTime.IsZero() {
		elapsed := int(c.now().UTC().Sub(sess.QuestionStartTime).Seconds())
		remaining = limit - elapsed
		if remaining < 0 {
			remaining = 0
		}
	}

	view := QuestionView{
		Question:             q.Text(),
		QuestionType:         q.Type,
		Type:                 q.Type,
		Options:              q.Options,
		ID:                   q.ID,
		CorrectAnswerIndex:   q.CorrectAnswerIndex,
		CorrectAnswerIndices: q.CorrectAnswerIndices,
		DragItems:            q.DragItems,
		DropTargets:          q.DropTargets,
		CorrectMatches:       q.CorrectMatches,
		ImageURL:             q.ImageURL,
	}
	if view.Options == nil {
		view.Options = []string{}
	}
	if view.ID == "" {
		view.ID = fmt.Sprintf("%d", idx)
	}

	return &QuestionEnvelope{
		Question:      view,
		Index:         idx,
		Total:         total,
		TimeRemaining: remaining,
	}, nil
}

func (c *Controller) question(ctx context.Context, quizID string, idx int) (*quiz.Question, int, error) {
	qz, err := c.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, 0, err
	}
	if idx < 0 || idx >= len(qz.Questions) {
		return nil, 0, fmt.Errorf("index %d of %d: %w", idx, len(qz.Questions), ErrIndexOutOfRange)
	}
	q := &qz.Questions[idx]
	if q.Text() == "" {
		return nil, 0, fmt.Errorf("question %d has no text: %w", idx, ErrBadQuestion)
	}
	return q, len(qz.Questions), nil
}

// AnswerResult is the personal reply to a submission.
type AnswerResult struct {
	IsCorrect     bool   `json:"is_correct"`
	Points        int    `json:"points"`
	CorrectAnswer any    `json:"correct_answer"`
	NewTotalScore int    `json:"new_total_score"`
	QuestionType  string `json:"question_type"`
}

// SubmitAnswer validates and scores an answer for the participant's current
// question, then records it. The target index is the session cursor in live
// mode and the participant's own cursor in self-paced modes. A nil
// timestamp earns no time bonus. The first answer per question stands;
// resubmission returns session.ErrDuplicateAnswer.
func (c *Controller) SubmitAnswer(ctx context.Context, sess *session.Session, userID string, raw json.RawMessage, timestamp *float64) (*AnswerResult, error) {
	idx := sess.CurrentQuestionIndex
	if sess.Mode.SelfPaced() {
		var err error
		idx, err = c.store.Cursor(ctx, sess.Code, userID)
		if err != nil {
			return nil, err
		}
	}

	q, _, err := c.question(ctx, sess.QuizID, idx)
	if err != nil {
		metrics.AnswersSubmitted.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	correct, err := checkAnswer(q, raw)
	if err != nil {
		metrics.AnswersSubmitted.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	limit := c.timeLimit(sess)
	ts := float64(limit)
	if timestamp != nil {
		ts = *timestamp
	}
	if ts < 0 {
		ts = 0
	}
	points := Score(correct, ts, limit)

	p, err := c.store.RecordAnswer(ctx, sess.Code, userID, session.AnswerRecord{
		QuestionIndex: idx,
		Answer:        raw,
		Timestamp:     ts,
		IsCorrect:     correct,
		PointsEarned:  points,
	})
	if err != nil {
		metrics.AnswersSubmitted.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	outcome := metrics.OutcomeIncorrect
	if correct {
		outcome = metrics.OutcomeCorrect
	}
	metrics.AnswersSubmitted.WithLabelValues(outcome).Inc()

	c.logger.Info().
		Str("event", "answer.recorded").
		Str("session_code", sess.Code).
		Str("user_id", userID).
		Int("question_index", idx).
		Bool("is_correct", correct).
		Int("points", points).
		Int("score", p.Score).
		Msg("answer recorded")

	return &AnswerResult{
		IsCorrect:     correct,
		Points:        points,
		CorrectAnswer: correctAnswerOf(q),
		NewTotalScore: p.Score,
		QuestionType:  q.Type,
	}, nil
}

// InitCursors seeds every participant's cursor to question 0. Called when
// the host starts the quiz.
func (c *Controller) InitCursors(ctx context.Context, sess *session.Session) error {
	for userID := range sess.Participants {
		if err := c.store.SetCursor(ctx, sess.Code, userID, 0); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceSelfPaced moves the participant's own cursor forward. It returns
// the next index, or done=true when the participant has reached the end of
// the quiz.
func (c *Controller) AdvanceSelfPaced(ctx context.Context, sess *session.Session, userID string) (next int, done bool, err error) {
	cursor, err := c.store.Cursor(ctx, sess.Code, userID)
	if err != nil {
		return 0, false, err
	}
	if cursor >= sess.TotalQuestions-1 {
		return cursor, true, nil
	}
	next = cursor + 1
	if err := c.store.SetCursor(ctx, sess.Code, userID, next); err != nil {
		return 0, false, err
	}
	return next, false, nil
}

// AllAnswered reports whether every connected participant has answered the
// session's current question.
func (c *Controller) AllAnswered(sess *session.Session) bool {
	for _, p := range sess.Participants {
		if !p.Connected {
			continue
		}
		if !p.AnsweredIndex(sess.CurrentQuestionIndex) {
			return false
		}
	}
	return true
}

// AnswerDistribution tallies submitted answer values for the session's
// current question, keyed by the raw answer encoding.
func (c *Controller) AnswerDistribution(sess *session.Session) map[string]int {
	dist := make(map[string]int)
	for _, p := range sess.Participants {
		for _, a := range p.Answers {
			if a.QuestionIndex == sess.CurrentQuestionIndex {
				dist[string(a.Answer)]++
			}
		}
	}
	return dist
}
