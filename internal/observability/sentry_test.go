package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
)

func TestCaptureTagsAddsOp(t *testing.T) {
	ctx := ctxutil.WithOp(context.Background(), "POST /access-requests/{id}/approve")

	tags := captureTags(ctx, map[string]string{"request_id": "r1"})
	assert.Equal(t, map[string]string{
		"request_id": "r1",
		"op":         "POST /access-requests/{id}/approve",
	}, tags)

	explicit := captureTags(ctx, map[string]string{"op": "consent_event"})
	assert.Equal(t, "consent_event", explicit["op"])

	assert.Empty(t, captureTags(context.Background(), nil))
}

func TestCaptureErrCtxWithoutClient(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureErrCtx(context.Background(), assert.AnError, nil)
		CaptureErrCtx(context.Background(), nil, nil)
	})
}
