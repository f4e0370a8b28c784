// SPDX-License-Identifier: MIT

package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/quizwire/internal/quiz"
)

func intp(i int) *int { return &i }

func TestCheckAnswerSingleMCQ(t *testing.T) {
	q := &quiz.Question{Type: quiz.TypeSingleMCQ, CorrectAnswerIndex: intp(2)}

	ok, err := checkAnswer(q, json.RawMessage(`2`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checkAnswer(q, json.RawMessage(`1`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checkAnswer(q, json.RawMessage(`"two"`))
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = checkAnswer(q, json.RawMessage(`[2]`))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestCheckAnswerTrueFalse(t *testing.T) {
	q := &quiz.Question{Type: quiz.TypeTrueFalse, CorrectAnswerIndex: intp(0)}

	ok, err := checkAnswer(q, json.RawMessage(`0`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checkAnswer(q, json.RawMessage(`1`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckAnswerMultiMCQ(t *testing.T) {
	q := &quiz.Question{Type: quiz.TypeMultiMCQ, CorrectAnswerIndices: []int{0, 2}}

	// Order does not matter.
	ok, err := checkAnswer(q, json.RawMessage(`[2,0]`))
	require.NoError(t, err)
	assert.True(t, ok)

	// Subsets and supersets are wrong.
	ok, err = checkAnswer(q, json.RawMessage(`[0]`))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checkAnswer(q, json.RawMessage(`[0,1,2]`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checkAnswer(q, json.RawMessage(`2`))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestCheckAnswerDragAndDrop(t *testing.T) {
	q := &quiz.Question{
		Type:           quiz.TypeDragAndDrop,
		CorrectMatches: map[string]string{"Paris": "France", "Rome": "Italy"},
	}

	ok, err := checkAnswer(q, json.RawMessage(`{"Paris":"France","Rome":"Italy"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checkAnswer(q, json.RawMessage(`{"Paris":"Italy","Rome":"France"}`))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checkAnswer(q, json.RawMessage(`{"Paris":"France"}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checkAnswer(q, json.RawMessage(`["Paris"]`))
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestCheckAnswerUnknownType(t *testing.T) {
	q := &quiz.Question{Type: "essay"}
	_, err := checkAnswer(q, json.RawMessage(`"anything"`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestCheckAnswerMisconfiguredQuestion(t *testing.T) {
	_, err := checkAnswer(&quiz.Question{Type: quiz.TypeSingleMCQ}, json.RawMessage(`0`))
	assert.ErrorIs(t, err, ErrBadQuestion)

	_, err = checkAnswer(&quiz.Question{Type: quiz.TypeMultiMCQ}, json.RawMessage(`[0]`))
	assert.ErrorIs(t, err, ErrBadQuestion)

	_, err = checkAnswer(&quiz.Question{Type: quiz.TypeDragAndDrop}, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrBadQuestion)
}

func TestCorrectAnswerOf(t *testing.T) {
	assert.Equal(t, "2", correctAnswerOf(&quiz.Question{Type: quiz.TypeSingleMCQ, CorrectAnswerIndex: intp(2)}))
	assert.Equal(t, []int{1, 3}, correctAnswerOf(&quiz.Question{Type: quiz.TypeMultiMCQ, CorrectAnswerIndices: []int{1, 3}}))
	assert.Equal(t,
		map[string]string{"a": "b"},
		correctAnswerOf(&quiz.Question{Type: quiz.TypeDragAndDrop, CorrectMatches: map[string]string{"a": "b"}}))
	assert.Nil(t, correctAnswerOf(&quiz.Question{Type: "essay"}))
}
