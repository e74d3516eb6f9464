package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	_, ok := RequestID(context.Background())
	assert.False(t, ok)

	id, ok := RequestID(WithRequestID(context.Background(), "abc"))
	require.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestWithTimeoutZeroHasNoDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

func TestWithDBTimeoutKeepsShorterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()

	dl, ok := ctx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(dl), time.Second)
}

func TestWithDBTimeoutAppliesDefault(t *testing.T) {
	ctx, cancel := WithDBTimeout(context.Background())
	defer cancel()

	dl, ok := ctx.Deadline()
	require.True(t, ok)
	assert.InDelta(t, DefaultDBTimeout.Seconds(), time.Until(dl).Seconds(), 1)
}

func TestOp(t *testing.T) {
	_, ok := Op(context.Background())
	assert.False(t, ok)

	op, ok := Op(WithOp(context.Background(), "complete_approval"))
	require.True(t, ok)
	assert.Equal(t, "complete_approval", op)
}
