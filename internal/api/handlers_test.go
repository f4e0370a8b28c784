// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/quizwire/internal/dispatch"
	"github.com/quizwire/quizwire/internal/game"
	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

func intp(i int) *int { return &i }

func newTestServer(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	store := session.NewStore(client, session.Options{Expiry: time.Hour, MaxParticipants: 50}, zerolog.Nop())
	quizzes := quiz.NewMemoryStore()
	quizzes.Put(&quiz.Quiz{
		ID:    "quiz-1",
		Title: "Capitals",
		Questions: []quiz.Question{
			{Type: quiz.TypeSingleMCQ, Question: "Capital of France?", Options: []string{"Berlin", "Paris"}, CorrectAnswerIndex: intp(1)},
			{Type: quiz.TypeTrueFalse, Question: "Rome is in Italy.", CorrectAnswerIndex: intp(0)},
		},
	})
	ctrl := game.NewController(store, quizzes, 30, zerolog.Nop())
	d := dispatch.New(store, ctrl, dispatch.Options{}, zerolog.Nop())

	srv := NewServer(store, quizzes, ctrl, d, Options{QuestionTime: 30}, zerolog.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func createSession(t *testing.T, ts *httptest.Server, mode string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/create-session", map[string]any{
		"quiz_id": "quiz-1",
		"host_id": "host-1",
		"mode":    mode,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
	code, _ := body["session_code"].(string)
	require.Len(t, code, 6)
	return code
}

func TestCreateSession(t *testing.T) {
	ts, store := newTestServer(t)
	code := createSession(t, ts, "live")

	sess, err := store.Get(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", sess.QuizID)
	assert.Equal(t, "Capitals", sess.QuizTitle)
	assert.Equal(t, 2, sess.TotalQuestions)
	assert.Equal(t, 30, sess.PerQuestionTimeLimit)
	assert.Equal(t, session.StatusWaiting, sess.Status)
}

func TestCreateSessionValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/create-session", map[string]any{
		"quiz_id": "quiz-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/create-session", map[string]any{
		"quiz_id": "no-such-quiz",
		"host_id": "host-1",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/create-session", map[string]any{
		"quiz_id": "quiz-1",
		"host_id": "host-1",
		"mode":    "tournament",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetSession(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createSession(t, ts, "live")

	status, body := doJSON(t, http.MethodGet, ts.URL+"/multiplayer/session/"+code, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	sess, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, code, sess["session_code"])
	assert.Equal(t, "waiting", sess["status"])

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/multiplayer/session/NOSUCH", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestJoinAndParticipants(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createSession(t, ts, "live")

	status, body := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/join", map[string]any{
		"user_id":  "alice",
		"username": "Alice",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["participant_count"])
	assert.Equal(t, "quiz-1", body["quiz_id"])

	// Rejoining the same identity is not an error.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/join", map[string]any{
		"user_id":  "alice",
		"username": "Alice",
	})
	assert.Equal(t, http.StatusOK, status)

	// The host cannot join their own session as a player.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/join", map[string]any{
		"user_id": "host-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, http.MethodGet, ts.URL+"/multiplayer/session/"+code+"/participants", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["participant_count"])
	assert.Equal(t, "live", body["mode"])
	assert.Equal(t, false, body["is_started"])
}

func TestStartRequiresHost(t *testing.T) {
	ts, store := newTestServer(t)
	code := createSession(t, ts, "live")

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/start", map[string]any{
		"host_id": "impostor",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/start", map[string]any{
		"host_id":                 "host-1",
		"per_question_time_limit": 45,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	sess, err := store.Get(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, sess.Status)
	assert.Equal(t, 45, sess.PerQuestionTimeLimit)
	assert.False(t, sess.QuestionStartTime.IsZero())

	// A second start hits the forward-only transition rule.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/start", map[string]any{
		"host_id": "host-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEndRequiresHost(t *testing.T) {
	ts, store := newTestServer(t)
	code := createSession(t, ts, "live")

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/end", map[string]any{
		"host_id": "impostor",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/end", map[string]any{
		"host_id": "host-1",
	})
	require.Equal(t, http.StatusOK, status)

	sess, err := store.Get(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, sess.Status)
}

func TestValidateNeverErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createSession(t, ts, "live")

	status, body := doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/"+code+"/validate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "Capitals", body["quiz_title"])
	assert.Equal(t, "waiting", body["status"])

	status, body = doJSON(t, http.MethodPost, ts.URL+"/multiplayer/session/NOSUCH/validate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["valid"])
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	status, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
