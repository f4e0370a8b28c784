// SPDX-License-Identifier: MIT

package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStore fetches quizzes from the quiz-content service over HTTP.
type HTTPStore struct {
	base string
	http *http.Client
}

// NewHTTPStore creates a client for the content service at base.
func NewHTTPStore(base string) *HTTPStore {
	return &HTTPStore{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// FindByID implements Store.
func (s *HTTPStore) FindByID(ctx context.Context, quizID string) (*Quiz, error) {
	u := s.base + "/api/quizzes/" + url.PathEscape(quizID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quiz service: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("quiz service: unexpected status %d", res.StatusCode)
	}

	var q Quiz
	if err := json.NewDecoder(res.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("quiz service: decode: %w", err)
	}
	if q.ID == "" {
		q.ID = quizID
	}
	return &q, nil
}
