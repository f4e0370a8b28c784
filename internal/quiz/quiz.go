// SPDX-License-Identifier: MIT

// Package quiz defines the read-only view of quiz content the engine
// consumes. Quiz authoring lives in an external service; this package only
// fetches and normalizes.
package quiz

import (
	"context"
	"errors"
)

// Question types the engine can validate.
const (
	TypeSingleMCQ   = "singleMcq"
	TypeTrueFalse   = "trueFalse"
	TypeMultiMCQ    = "multiMcq"
	TypeDragAndDrop = "dragAndDrop"
)

// ErrNotFound is returned when the content service has no quiz for the ID.
var ErrNotFound = errors.New("quiz not found")

// Question is one quiz question as stored by the content service. Only the
// fields matching the question's type are populated.
type Question struct {
	ID           string   `json:"id,omitempty"`
	Type         string   `json:"type"`
	Question     string   `json:"question,omitempty"`
	QuestionText string   `json:"questionText,omitempty"`
	Options      []string `json:"options,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`

	// singleMcq / trueFalse
	CorrectAnswerIndex *int `json:"correctAnswerIndex,omitempty"`

	// multiMcq
	CorrectAnswerIndices []int `json:"correctAnswerIndices,omitempty"`

	// dragAndDrop
	DragItems      []string          `json:"dragItems,omitempty"`
	DropTargets    []string          `json:"dropTargets,omitempty"`
	CorrectMatches map[string]string `json:"correctMatches,omitempty"`
}

// Text returns the question text, preferring the questionText field.
func (q *Question) Text() string {
	if q.QuestionText != "" {
		return q.QuestionText
	}
	return q.Question
}

// Quiz is a quiz record with its questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Store is the consumed interface over the quiz-content service.
type Store interface {
	// FindByID returns the quiz or ErrNotFound.
	FindByID(ctx context.Context, quizID string) (*Quiz, error)
}
