// SPDX-License-Identifier: MIT

package quiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStoreFindByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/quizzes/quiz-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"title": "Capitals",
				"questions": [
					{"type": "singleMcq", "question": "Capital of France?", "options": ["Berlin","Paris"], "correctAnswerIndex": 1}
				]
			}`))
		case "/api/quizzes/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	ctx := context.Background()

	q, err := store.FindByID(ctx, "quiz-1")
	require.NoError(t, err)
	// The service response has no ID field; the store backfills it.
	assert.Equal(t, "quiz-1", q.ID)
	assert.Equal(t, "Capitals", q.Title)
	require.Len(t, q.Questions, 1)
	assert.Equal(t, "Capital of France?", q.Questions[0].Text())
	require.NotNil(t, q.Questions[0].CorrectAnswerIndex)
	assert.Equal(t, 1, *q.Questions[0].CorrectAnswerIndex)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByID(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
