// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestContextValueDoesNotLeakAcrossContexts(t *testing.T) {
	parent := context.Background()
	child := ContextWithRequestID(parent, "req-a")

	assert.Empty(t, RequestIDFromContext(parent))
	assert.Equal(t, "req-a", RequestIDFromContext(child))
}
