// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizwire/quizwire/internal/metrics"
)

// Hash field names under session:<code>.
const (
	fieldCode          = "session_code"
	fieldQuizID        = "quiz_id"
	fieldHostID        = "host_id"
	fieldStatus        = "status"
	fieldMode          = "mode"
	fieldQuizTitle     = "quiz_title"
	fieldCurrentIndex  = "current_question_index"
	fieldTotal         = "total_questions"
	fieldTimeLimit     = "per_question_time_limit"
	fieldQuestionStart = "question_start_time"
	fieldCreatedAt     = "created_at"
	fieldExpiresAt     = "expires_at"
	fieldParticipants  = "participants"
)

const (
	// casRetries bounds optimistic retries on the participants blob before
	// the write surfaces as unavailable.
	casRetries = 5
	// codeAttempts bounds rejection sampling for a fresh session code.
	codeAttempts = 10
)

func sessionKey(code string) string {
	return "session:" + code
}

func cursorKey(code, userID string) string {
	return "participant:" + code + ":" + userID + ":question_index"
}

// Options configures a Store.
type Options struct {
	Expiry          time.Duration // TTL of session and derived keys
	MaxParticipants int           // join rejection threshold
}

// Store is the Redis-backed session store. It is safe for concurrent use;
// mutations on a single session are serialized through optimistic CAS on
// the session hash, sessions never contend with each other.
type Store struct {
	rdb    *redis.Client
	logger zerolog.Logger
	opts   Options

	// overridable for tests
	codeFn func() string
	now    func() time.Time
}

// NewStore creates a session store on top of an established Redis client.
func NewStore(rdb *redis.Client, opts Options, logger zerolog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: logger,
		opts:   opts,
		codeFn: randomCode,
		now:    time.Now,
	}
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %s: %w", op, err, ErrUnavailable)
}

// Create generates a unique session code, initializes the session hash with
// status=waiting and persists it under the configured TTL.
func (s *Store) Create(ctx context.Context, quizID, hostID string, mode Mode, quizTitle string, totalQuestions, perQuestionTime int) (string, error) {
	code, err := s.uniqueCode(ctx)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	expires := now.Add(s.opts.Expiry)

	values := map[string]any{
		fieldCode:          code,
		fieldQuizID:        quizID,
		fieldHostID:        hostID,
		fieldStatus:        string(StatusWaiting),
		fieldMode:          string(mode),
		fieldQuizTitle:     quizTitle,
		fieldCurrentIndex:  0,
		fieldTotal:         totalQuestions,
		fieldTimeLimit:     perQuestionTime,
		fieldQuestionStart: "",
		fieldCreatedAt:     now.Format(time.RFC3339Nano),
		fieldExpiresAt:     expires.Format(time.RFC3339Nano),
		fieldParticipants:  "{}",
	}

	key := sessionKey(code)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.opts.Expiry)
		return nil
	})
	if err != nil {
		return "", wrapStoreErr("create session", err)
	}

	metrics.SessionsCreated.WithLabelValues(string(mode)).Inc()
	s.logger.Info().
		Str("event", "session.created").
		Str("session_code", code).
		Str("quiz_id", quizID).
		Str("host_id", hostID).
		Str("mode", string(mode)).
		Int("total_questions", totalQuestions).
		Msg("session created")
	return code, nil
}

// uniqueCode samples codes until one is free in the store.
func (s *Store) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := s.codeFn()
		n, err := s.rdb.Exists(ctx, sessionKey(code)).Result()
		if err != nil {
			return "", wrapStoreErr("code check", err)
		}
		if n == 0 {
			return code, nil
		}
		s.logger.Debug().
			Str("event", "session.code_collision").
			Str("session_code", code).
			Msg("session code collision, retrying")
	}
	return "", fmt.Errorf("no free session code after %d attempts: %w", codeAttempts, ErrUnavailable)
}

// Get returns a deserialized snapshot of the session. The returned value is
// a copy, not a handle.
func (s *Store) Get(ctx context.Context, code string) (*Session, error) {
	m, err := s.rdb.HGetAll(ctx, sessionKey(code)).Result()
	if err != nil {
		return nil, wrapStoreErr("get session", err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return parseSession(code, m)
}

func parseSession(code string, m map[string]string) (*Session, error) {
	sess := &Session{
		Code:      code,
		QuizID:    m[fieldQuizID],
		HostID:    m[fieldHostID],
		Status:    Status(m[fieldStatus]),
		Mode:      Mode(m[fieldMode]),
		QuizTitle: m[fieldQuizTitle],
	}

	var err error
	if sess.CurrentQuestionIndex, err = parseIntField(m, fieldCurrentIndex); err != nil {
		return nil, err
	}
	if sess.TotalQuestions, err = parseIntField(m, fieldTotal); err != nil {
		return nil, err
	}
	if sess.PerQuestionTimeLimit, err = parseIntField(m, fieldTimeLimit); err != nil {
		return nil, err
	}
	if sess.QuestionStartTime, err = parseTimeField(m, fieldQuestionStart); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTimeField(m, fieldCreatedAt); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = parseTimeField(m, fieldExpiresAt); err != nil {
		return nil, err
	}

	blob := m[fieldParticipants]
	if blob == "" {
		blob = "{}"
	}
	if err := json.Unmarshal([]byte(blob), &sess.Participants); err != nil {
		return nil, fmt.Errorf("participants blob: %s: %w", err, ErrCorrupt)
	}
	if sess.Participants == nil {
		sess.Participants = map[string]*Participant{}
	}
	return sess, nil
}

func parseIntField(m map[string]string, field string) (int, error) {
	v, ok := m[field]
	if !ok || v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %s=%q: %w", field, v, ErrCorrupt)
	}
	return i, nil
}

func parseTimeField(m map[string]string, field string) (time.Time, error) {
	v, ok := m[field]
	if !ok || v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s=%q: %w", field, v, ErrCorrupt)
	}
	return t, nil
}

// mutate runs fn against a fresh snapshot under WATCH and writes the mutable
// fields back in a transaction. A concurrent writer invalidates the attempt
// and the whole cycle retries, up to casRetries times.
func (s *Store) mutate(ctx context.Context, code string, fn func(sess *Session) error) (*Session, error) {
	key := sessionKey(code)

	for attempt := 0; attempt < casRetries; attempt++ {
		var snapshot *Session
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			m, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return wrapStoreErr("mutate read", err)
			}
			if len(m) == 0 {
				return ErrNotFound
			}
			sess, err := parseSession(code, m)
			if err != nil {
				return err
			}
			if err := fn(sess); err != nil {
				return err
			}

			blob, err := json.Marshal(sess.Participants)
			if err != nil {
				return fmt.Errorf("marshal participants: %s: %w", err, ErrCorrupt)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, map[string]any{
					fieldStatus:        string(sess.Status),
					fieldCurrentIndex:  sess.CurrentQuestionIndex,
					fieldTimeLimit:     sess.PerQuestionTimeLimit,
					fieldQuestionStart: formatTime(sess.QuestionStartTime),
					fieldParticipants:  blob,
				})
				return nil
			})
			if err != nil {
				return err
			}
			snapshot = sess
			return nil
		}, key)

		switch {
		case err == nil:
			return snapshot, nil
		case errors.Is(err, redis.TxFailedErr):
			metrics.StoreCASRetries.Inc()
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("session %s: cas retries exhausted: %w", code, ErrUnavailable)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// JoinOutcome distinguishes a first join from a reconnect.
type JoinOutcome int

const (
	// Joined means the user was added as a new participant.
	Joined JoinOutcome = iota
	// Reconnected means the user was already a participant and their
	// connected flag was flipped; score and answers are preserved.
	Reconnected
)

// UpsertParticipant atomically adds a participant or reconnects a known one.
// Hosts are never added to the participant map. New joins are rejected once
// the session has left the waiting state or is at capacity.
func (s *Store) UpsertParticipant(ctx context.Context, code, userID, username string) (JoinOutcome, *Session, error) {
	outcome := Joined
	sess, err := s.mutate(ctx, code, func(sess *Session) error {
		if userID == sess.HostID {
			return ErrIsHost
		}
		if p, ok := sess.Participants[userID]; ok {
			p.Connected = true
			p.Username = username
			outcome = Reconnected
			return nil
		}
		if sess.Status != StatusWaiting {
			return ErrSessionClosed
		}
		if s.opts.MaxParticipants > 0 && len(sess.Participants) >= s.opts.MaxParticipants {
			return ErrSessionFull
		}
		sess.Participants[userID] = &Participant{
			UserID:    userID,
			Username:  username,
			JoinedAt:  s.now().UTC(),
			Connected: true,
			Answers:   []AnswerRecord{},
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	metrics.ParticipantJoins.Inc()
	return outcome, sess, nil
}

// MarkDisconnected flips the participant's connected flag off. Unknown users
// (including the host) are a no-op.
func (s *Store) MarkDisconnected(ctx context.Context, code, userID string) (*Session, error) {
	return s.mutate(ctx, code, func(sess *Session) error {
		if p, ok := sess.Participants[userID]; ok {
			p.Connected = false
		}
		return nil
	})
}

// RemoveIfDisconnected drops a participant from a still-waiting session iff
// their connected flag is still off. Once the quiz has started participants
// are kept regardless, so a later reconnect finds their score and answers.
func (s *Store) RemoveIfDisconnected(ctx context.Context, code, userID string) (bool, *Session, error) {
	removed := false
	sess, err := s.mutate(ctx, code, func(sess *Session) error {
		if sess.Status != StatusWaiting {
			return nil
		}
		p, ok := sess.Participants[userID]
		if !ok || p.Connected {
			return nil
		}
		delete(sess.Participants, userID)
		removed = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return removed, sess, nil
}

// RecordAnswer appends the answer record iff the participant has not yet
// answered that question index, and adds the earned points to their score.
// Returns the updated participant.
func (s *Store) RecordAnswer(ctx context.Context, code, userID string, rec AnswerRecord) (*Participant, error) {
	var updated *Participant
	_, err := s.mutate(ctx, code, func(sess *Session) error {
		p, ok := sess.Participants[userID]
		if !ok {
			return ErrUnknownUser
		}
		if p.AnsweredIndex(rec.QuestionIndex) {
			return ErrDuplicateAnswer
		}
		p.Answers = append(p.Answers, rec)
		p.Score += rec.PointsEarned
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus transitions the session status. Only forward transitions in the
// order waiting < active < completed are accepted.
func (s *Store) SetStatus(ctx context.Context, code string, next Status) error {
	_, err := s.mutate(ctx, code, func(sess *Session) error {
		if !next.after(sess.Status) {
			return fmt.Errorf("cannot transition %s -> %s: %w", sess.Status, next, ErrInvalidTransition)
		}
		sess.Status = next
		return nil
	})
	return err
}

// SetPerQuestionTimeLimit overrides the session's per-question time limit.
func (s *Store) SetPerQuestionTimeLimit(ctx context.Context, code string, seconds int) error {
	_, err := s.mutate(ctx, code, func(sess *Session) error {
		sess.PerQuestionTimeLimit = seconds
		return nil
	})
	return err
}

// StartQuestionTimer stamps the current question's dispatch time.
func (s *Store) StartQuestionTimer(ctx context.Context, code string) error {
	_, err := s.mutate(ctx, code, func(sess *Session) error {
		sess.QuestionStartTime = s.now().UTC()
		return nil
	})
	return err
}

// AdvanceQuestion increments the host-synchronized cursor, clamped to the
// question count, and restarts the question timer. Returns the new index;
// index == total means the quiz is exhausted.
func (s *Store) AdvanceQuestion(ctx context.Context, code string) (int, error) {
	next := 0
	_, err := s.mutate(ctx, code, func(sess *Session) error {
		next = sess.CurrentQuestionIndex + 1
		if next > sess.TotalQuestions {
			next = sess.TotalQuestions
		}
		sess.CurrentQuestionIndex = next
		sess.QuestionStartTime = s.now().UTC()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// SetCursor persists a participant's self-paced progress cursor. The cursor
// key inherits the remaining TTL of its session so both expire together.
func (s *Store) SetCursor(ctx context.Context, code, userID string, idx int) error {
	ttl, err := s.rdb.TTL(ctx, sessionKey(code)).Result()
	if err != nil {
		return wrapStoreErr("cursor ttl", err)
	}
	if ttl <= 0 {
		ttl = s.opts.Expiry
	}
	if err := s.rdb.Set(ctx, cursorKey(code, userID), idx, ttl).Err(); err != nil {
		return wrapStoreErr("set cursor", err)
	}
	return nil
}

// Cursor returns a participant's progress cursor. When no explicit cursor
// has been set it is derived from the highest answered question index, or 0.
func (s *Store) Cursor(ctx context.Context, code, userID string) (int, error) {
	v, err := s.rdb.Get(ctx, cursorKey(code, userID)).Result()
	if err == nil {
		idx, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, fmt.Errorf("cursor %q: %w", v, ErrCorrupt)
		}
		return idx, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, wrapStoreErr("get cursor", err)
	}

	sess, err := s.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	if p, ok := sess.Participants[userID]; ok {
		if max := p.MaxAnsweredIndex(); max >= 0 {
			return max, nil
		}
	}
	return 0, nil
}

// IsHost reports whether userID created the session.
func (s *Store) IsHost(ctx context.Context, code, userID string) (bool, error) {
	hostID, err := s.rdb.HGet(ctx, sessionKey(code), fieldHostID).Result()
	if err != nil {
		return false, wrapStoreErr("is host", err)
	}
	return hostID == userID, nil
}
