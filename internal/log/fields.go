// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID   = "request_id"
	FieldSessionCode = "session_code"
	FieldUserID      = "user_id"
	FieldQuizID      = "quiz_id"
	FieldHostID      = "host_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Game fields
	FieldMessageType   = "message_type"
	FieldQuestionIndex = "question_index"
	FieldStatus        = "status"
	FieldMode          = "mode"
	FieldScore         = "score"
)
