// SPDX-License-Identifier: MIT

package session

import "errors"

var (
	// ErrNotFound is returned when a session does not exist or its TTL
	// has expired; the two cases are indistinguishable.
	ErrNotFound = errors.New("session not found")

	// ErrCorrupt is returned when persisted state cannot be deserialized.
	ErrCorrupt = errors.New("session state corrupt")

	// ErrUnavailable is returned on store I/O failure, including a lost
	// CAS after the retry budget is exhausted.
	ErrUnavailable = errors.New("session store unavailable")

	// ErrIsHost rejects a host trying to join their own session as a
	// participant.
	ErrIsHost = errors.New("host cannot join as participant")

	// ErrSessionClosed rejects new participants once the session has left
	// the waiting state. Known participants may still reconnect.
	ErrSessionClosed = errors.New("session no longer accepts participants")

	// ErrSessionFull rejects joins beyond the participant limit.
	ErrSessionFull = errors.New("session is full")

	// ErrDuplicateAnswer rejects a second answer for the same question;
	// the first answer stands.
	ErrDuplicateAnswer = errors.New("already answered")

	// ErrUnknownUser is returned for operations on a user that never
	// joined the session.
	ErrUnknownUser = errors.New("participant not found")

	// ErrInvalidTransition rejects status changes that would move the
	// lifecycle backwards or sideways.
	ErrInvalidTransition = errors.New("invalid status transition")
)
