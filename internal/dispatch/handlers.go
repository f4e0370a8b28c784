// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/quizwire/quizwire/internal/game"
	"github.com/quizwire/quizwire/internal/leaderboard"
	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

// dispatch routes one inbound envelope. It runs on the connection's read
// goroutine, so messages from a single client are handled strictly in
// order, and every handler keeps the store-update -> personal-reply ->
// broadcast sequence.
func (d *Dispatcher) dispatch(ctx context.Context, c *client, env Envelope) {
	logger := d.logger.With().
		Str("session_code", c.code).
		Str("user_id", c.userID).
		Str("message_type", env.Type).
		Logger()

	switch env.Type {
	case msgJoin:
		var p joinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.sendError(c, "Invalid join payload")
			return
		}
		d.handleJoin(ctx, c, p)
	case msgStartQuiz:
		var p startQuizPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				d.sendError(c, "Invalid start payload")
				return
			}
		}
		d.handleStartQuiz(ctx, c, p)
	case msgSubmitAnswer:
		var p submitAnswerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.sendError(c, "Invalid answer submission")
			return
		}
		d.handleSubmitAnswer(ctx, c, p)
	case msgNextQuestion:
		d.handleNextQuestion(ctx, c)
	case msgRequestNextQuestion:
		d.handleRequestNextQuestion(ctx, c)
	case msgEndQuiz:
		d.handleEndQuiz(ctx, c)
	case msgRequestLeaderboard:
		d.handleRequestLeaderboard(ctx, c)
	default:
		// Unknown types are logged and ignored, never fatal.
		logger.Warn().Str("event", "ws.unknown_type").Msg("ignoring unknown message type")
	}
}

// getSession loads the session or reports the failure on the channel.
func (d *Dispatcher) getSession(ctx context.Context, c *client) (*session.Session, bool) {
	sess, err := d.store.Get(ctx, c.code)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			d.sendError(c, "Session not found")
		} else {
			d.sendError(c, "Session store unavailable")
		}
		return nil, false
	}
	return sess, true
}

func (d *Dispatcher) handleJoin(ctx context.Context, c *client, p joinPayload) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}

	username := p.Username
	if username == "" {
		username = "Anonymous"
	}

	// The host observes their own session; they are never a participant.
	if c.userID == sess.HostID {
		d.send(c, outMessage{Type: msgSessionState, Payload: sessionState(sess)})
		return
	}

	outcome, updated, err := d.store.UpsertParticipant(ctx, c.code, c.userID, username)
	switch {
	case errors.Is(err, session.ErrSessionClosed):
		d.sendError(c, "Session is already active")
		return
	case errors.Is(err, session.ErrSessionFull):
		d.sendError(c, "Session is full")
		return
	case err != nil:
		d.sendError(c, "Failed to join session")
		return
	}

	d.broadcast(c.code, outMessage{Type: msgSessionUpdate, Payload: sessionUpdate(updated)})
	d.send(c, outMessage{Type: msgSessionState, Payload: sessionState(updated)})

	// A participant reconnecting mid-quiz picks up where they left off.
	if outcome == session.Reconnected && updated.Status == session.StatusActive {
		idx := updated.CurrentQuestionIndex
		if updated.Mode.SelfPaced() {
			idx, err = d.store.Cursor(ctx, c.code, c.userID)
			if err != nil {
				return
			}
		}
		q, err := d.ctrl.QuestionByIndex(ctx, updated, idx)
		if err != nil {
			return
		}
		d.send(c, outMessage{Type: msgQuestion, Payload: q})
	}
}

func (d *Dispatcher) handleStartQuiz(ctx context.Context, c *client, p startQuizPayload) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}
	if c.userID != sess.HostID {
		d.sendError(c, "Only host can start the quiz")
		return
	}

	if p.PerQuestionTimeLimit != nil && *p.PerQuestionTimeLimit > 0 {
		if err := d.store.SetPerQuestionTimeLimit(ctx, c.code, *p.PerQuestionTimeLimit); err != nil {
			d.sendError(c, "Failed to start session")
			return
		}
	}

	if err := d.store.SetStatus(ctx, c.code, session.StatusActive); err != nil {
		d.sendError(c, "Failed to start session")
		return
	}

	sess, ok = d.getSession(ctx, c)
	if !ok {
		return
	}
	if err := d.ctrl.InitCursors(ctx, sess); err != nil {
		d.sendError(c, "Failed to start session")
		return
	}
	if err := d.store.StartQuestionTimer(ctx, c.code); err != nil {
		d.sendError(c, "Failed to start session")
		return
	}

	q, err := d.ctrl.QuestionByIndex(ctx, sess, 0)
	if err != nil {
		d.sendError(c, "No questions available")
		return
	}

	d.broadcast(c.code, outMessage{Type: msgQuizStarted, Payload: quizStartedPayload{
		Message:              "Quiz is starting!",
		PerQuestionTimeLimit: sess.PerQuestionTimeLimit,
	}})
	d.broadcast(c.code, outMessage{Type: msgQuestion, Payload: q})
}

func (d *Dispatcher) handleSubmitAnswer(ctx context.Context, c *client, p submitAnswerPayload) {
	if len(p.Answer) == 0 || string(p.Answer) == "null" {
		d.sendError(c, "Invalid answer submission")
		return
	}

	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}

	result, err := d.ctrl.SubmitAnswer(ctx, sess, c.userID, p.Answer, p.Timestamp)
	switch {
	case errors.Is(err, session.ErrDuplicateAnswer):
		d.sendError(c, "Already answered")
		return
	case errors.Is(err, session.ErrUnknownUser):
		d.sendError(c, "Participant not found")
		return
	case errors.Is(err, game.ErrInvalidAnswer):
		d.sendError(c, "Invalid answer submission")
		return
	case errors.Is(err, game.ErrUnknownType), errors.Is(err, game.ErrBadQuestion):
		d.sendError(c, "Invalid question configuration")
		return
	case errors.Is(err, quiz.ErrNotFound):
		d.sendError(c, "Quiz not found")
		return
	case err != nil:
		d.sendError(c, "Failed to process answer")
		return
	}

	d.send(c, outMessage{Type: msgAnswerResult, Payload: result})

	sess, ok = d.getSession(ctx, c)
	if !ok {
		return
	}
	d.broadcast(c.code, outMessage{Type: msgLeaderboardUpdate, Payload: leaderboardPayload{
		Leaderboard: leaderboard.Live(sess),
	}})

	// The host screen tracks how the current question is going.
	if !sess.Mode.SelfPaced() {
		d.sendToHost(c.code, outMessage{Type: msgHostUpdate, Payload: hostUpdatePayload{
			AnswerDistribution: d.ctrl.AnswerDistribution(sess),
			AllAnswered:        d.ctrl.AllAnswered(sess),
		}})
	}
}

func (d *Dispatcher) handleNextQuestion(ctx context.Context, c *client) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}
	if c.userID != sess.HostID {
		d.sendError(c, "Only host can control questions")
		return
	}

	next, err := d.store.AdvanceQuestion(ctx, c.code)
	if err != nil {
		d.sendError(c, "Failed to advance question")
		return
	}

	if next >= sess.TotalQuestions {
		d.endQuiz(ctx, c)
		return
	}

	sess, ok = d.getSession(ctx, c)
	if !ok {
		return
	}
	q, err := d.ctrl.QuestionByIndex(ctx, sess, next)
	if err != nil {
		d.endQuiz(ctx, c)
		return
	}
	d.broadcast(c.code, outMessage{Type: msgQuestion, Payload: q})
}

func (d *Dispatcher) handleRequestNextQuestion(ctx context.Context, c *client) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}

	next, done, err := d.ctrl.AdvanceSelfPaced(ctx, sess, c.userID)
	if err != nil {
		d.sendError(c, "Failed to advance question")
		return
	}
	if done {
		d.send(c, outMessage{Type: msgQuizCompleted, Payload: resultsPayload{
			Message: "You've completed all questions!",
			Results: leaderboard.Final(sess),
		}})
		return
	}

	q, err := d.ctrl.QuestionByIndex(ctx, sess, next)
	if err != nil {
		d.send(c, outMessage{Type: msgQuizCompleted, Payload: resultsPayload{
			Message: "You've completed all questions!",
			Results: leaderboard.Final(sess),
		}})
		return
	}
	d.send(c, outMessage{Type: msgQuestion, Payload: q})
}

func (d *Dispatcher) handleEndQuiz(ctx context.Context, c *client) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}
	if c.userID != sess.HostID {
		d.sendError(c, "Only host can end the quiz")
		return
	}
	d.endQuiz(ctx, c)
}

// endQuiz completes the session and broadcasts final results. Host
// authorization has already been checked by the caller.
func (d *Dispatcher) endQuiz(ctx context.Context, c *client) {
	if err := d.store.SetStatus(ctx, c.code, session.StatusCompleted); err != nil &&
		!errors.Is(err, session.ErrInvalidTransition) {
		d.sendError(c, "Failed to end session")
		return
	}

	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}
	d.broadcast(c.code, outMessage{Type: msgQuizEnded, Payload: resultsPayload{
		Message: "Quiz completed!",
		Results: leaderboard.Final(sess),
	}})
}

func (d *Dispatcher) handleRequestLeaderboard(ctx context.Context, c *client) {
	sess, ok := d.getSession(ctx, c)
	if !ok {
		return
	}
	total := sess.TotalQuestions
	d.send(c, outMessage{Type: msgLeaderboardResponse, Payload: leaderboardPayload{
		Leaderboard:    leaderboard.Live(sess),
		TotalQuestions: &total,
	}})
}
