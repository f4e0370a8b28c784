// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 50, cfg.RedisPoolSize)
	assert.Equal(t, 24*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 30, cfg.QuestionTime)
	assert.Equal(t, 60*time.Second, cfg.ReconnectionTimeout)
	assert.Equal(t, 50, cfg.MaxParticipants)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("QUIZWIRE_LISTEN", ":9999")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("SESSION_EXPIRY_HOURS", "2")
	t.Setenv("QUESTION_TIME_SECONDS", "15")
	t.Setenv("MAX_PARTICIPANTS_PER_SESSION", "8")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 15, cfg.QuestionTime)
	assert.Equal(t, 8, cfg.MaxParticipants)
}

func TestFromEnvBadIntFallsBack(t *testing.T) {
	t.Setenv("QUESTION_TIME_SECONDS", "soon")
	cfg := FromEnv()
	assert.Equal(t, 30, cfg.QuestionTime)
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()

	bad := cfg
	bad.ListenAddr = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RedisAddr = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.QuestionTime = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.SessionExpiry = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxParticipants = -1
	assert.Error(t, bad.Validate())
}
