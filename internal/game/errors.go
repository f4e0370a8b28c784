// SPDX-License-Identifier: MIT

package game

import "errors"

var (
	// ErrUnknownType is returned for question types the engine cannot
	// validate.
	ErrUnknownType = errors.New("unknown question type")

	// ErrInvalidAnswer is returned when the submitted answer value does
	// not match the shape the question type expects.
	ErrInvalidAnswer = errors.New("invalid answer shape")

	// ErrBadQuestion is returned for malformed quiz content: empty
	// question text or a missing correct-answer configuration.
	ErrBadQuestion = errors.New("invalid question configuration")

	// ErrIndexOutOfRange is returned for question indexes past the end of
	// the quiz.
	ErrIndexOutOfRange = errors.New("question index out of range")
)
