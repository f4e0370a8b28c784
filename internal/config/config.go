// SPDX-License-Identifier: MIT

// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"time"
)

// Config holds the full daemon configuration.
type Config struct {
	// HTTP
	ListenAddr string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Quiz content service
	QuizServiceURL string

	// Game
	SessionExpiry       time.Duration // TTL of session and derived keys
	QuestionTime        int           // fallback per-question time limit, seconds
	ReconnectionTimeout time.Duration // grace for reconnect before cleanup
	MaxParticipants     int           // rejection threshold on join

	// Logging
	LogLevel string

	// Rate limiting for the admin API
	RateLimitRPM int
}

// FromEnv builds a Config from environment variables with defaults
// matching the deployed service.
func FromEnv() Config {
	return Config{
		ListenAddr:          ParseString("QUIZWIRE_LISTEN", ":8080"),
		RedisAddr:           ParseString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       ParseString("REDIS_PASSWORD", ""),
		RedisDB:             ParseInt("REDIS_DB", 0),
		RedisPoolSize:       ParseInt("REDIS_MAX_CONNECTIONS", 50),
		QuizServiceURL:      ParseString("QUIZ_SERVICE_URL", "http://localhost:9090"),
		SessionExpiry:       time.Duration(ParseInt("SESSION_EXPIRY_HOURS", 24)) * time.Hour,
		QuestionTime:        ParseInt("QUESTION_TIME_SECONDS", 30),
		ReconnectionTimeout: time.Duration(ParseInt("RECONNECTION_TIMEOUT", 60)) * time.Second,
		MaxParticipants:     ParseInt("MAX_PARTICIPANTS_PER_SESSION", 50),
		LogLevel:            ParseString("LOG_LEVEL", "info"),
		RateLimitRPM:        ParseInt("QUIZWIRE_RATE_LIMIT_RPM", 300),
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address must not be empty")
	}
	if c.QuestionTime <= 0 {
		return fmt.Errorf("question time must be positive, got %d", c.QuestionTime)
	}
	if c.SessionExpiry <= 0 {
		return fmt.Errorf("session expiry must be positive, got %s", c.SessionExpiry)
	}
	if c.MaxParticipants <= 0 {
		return fmt.Errorf("max participants must be positive, got %d", c.MaxParticipants)
	}
	return nil
}
