// SPDX-License-Identifier: MIT

package game

import (
	"encoding/json"
	"fmt"

	"github.com/quizwire/quizwire/internal/quiz"
)

// checkAnswer validates a raw answer value against the question's correct
// answer. The answer shape is dispatched on the question type: integer index
// for single-choice, list of indices for multi-choice, item-to-target
// mapping for drag-and-drop. Shape mismatches surface as ErrInvalidAnswer
// before any correctness check.
func checkAnswer(q *quiz.Question, raw json.RawMessage) (bool, error) {
	switch q.Type {
	case quiz.TypeSingleMCQ, quiz.TypeTrueFalse:
		if q.CorrectAnswerIndex == nil {
			return false, fmt.Errorf("%s question without correctAnswerIndex: %w", q.Type, ErrBadQuestion)
		}
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return false, fmt.Errorf("expected integer index: %w", ErrInvalidAnswer)
		}
		return idx == *q.CorrectAnswerIndex, nil

	case quiz.TypeMultiMCQ:
		if len(q.CorrectAnswerIndices) == 0 {
			return false, fmt.Errorf("multiMcq question without correctAnswerIndices: %w", ErrBadQuestion)
		}
		var indices []int
		if err := json.Unmarshal(raw, &indices); err != nil {
			return false, fmt.Errorf("expected list of integer indices: %w", ErrInvalidAnswer)
		}
		return sameIndexSet(indices, q.CorrectAnswerIndices), nil

	case quiz.TypeDragAndDrop:
		if len(q.CorrectMatches) == 0 {
			return false, fmt.Errorf("dragAndDrop question without correctMatches: %w", ErrBadQuestion)
		}
		var matches map[string]string
		if err := json.Unmarshal(raw, &matches); err != nil {
			return false, fmt.Errorf("expected item-to-target mapping: %w", ErrInvalidAnswer)
		}
		return sameMatches(matches, q.CorrectMatches), nil

	default:
		return false, fmt.Errorf("%q: %w", q.Type, ErrUnknownType)
	}
}

// sameIndexSet compares as sets: order and duplicates do not matter.
func sameIndexSet(got, want []int) bool {
	gotSet := make(map[int]struct{}, len(got))
	for _, i := range got {
		gotSet[i] = struct{}{}
	}
	wantSet := make(map[int]struct{}, len(want))
	for _, i := range want {
		wantSet[i] = struct{}{}
	}
	if len(gotSet) != len(wantSet) {
		return false
	}
	for i := range wantSet {
		if _, ok := gotSet[i]; !ok {
			return false
		}
	}
	return true
}

func sameMatches(got, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

// correctAnswerOf returns the revealed correct answer for the result
// payload, shaped per question type.
func correctAnswerOf(q *quiz.Question) any {
	switch q.Type {
	case quiz.TypeSingleMCQ, quiz.TypeTrueFalse:
		if q.CorrectAnswerIndex == nil {
			return nil
		}
		return fmt.Sprintf("%d", *q.CorrectAnswerIndex)
	case quiz.TypeMultiMCQ:
		return q.CorrectAnswerIndices
	case quiz.TypeDragAndDrop:
		return q.CorrectMatches
	}
	return nil
}
