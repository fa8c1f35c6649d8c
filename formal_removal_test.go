package netty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selfRedeemingFormalRemovable struct {
	RemovableBase
	removed bool
}

func (h *selfRedeemingFormalRemovable) HandlerRemoved(ctx HandlerContext) { h.removed = true }

func (h *selfRedeemingFormalRemovable) HandleFormalRemove(ctx HandlerContext, token RemovalToken) {
	_ = ctx.LeavePipeline(token)
}

func TestFormalRemoveSelfRedeemCompletesImmediately(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h := &selfRedeemingFormalRemovable{}
	_, err := drain(ch, p.AddLast("formal", h))
	require.NoError(t, err)

	_, err = drain(ch, p.Remove("formal"))
	require.NoError(t, err)

	assert.True(t, h.removed)
	assert.Equal(t, 2, p.Size())
}

type tokenCapturingFormalRemovable struct {
	RemovableBase
	removedCount int
	ctx          HandlerContext
	token        RemovalToken
}

func (h *tokenCapturingFormalRemovable) HandlerRemoved(ctx HandlerContext) { h.removedCount++ }

func (h *tokenCapturingFormalRemovable) HandleFormalRemove(ctx HandlerContext, token RemovalToken) {
	h.ctx = ctx
	h.token = token
}

func TestLeavePipelineSecondCallIsNoop(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h := &tokenCapturingFormalRemovable{}
	_, err := drain(ch, p.AddLast("formal", h))
	require.NoError(t, err)

	_, err = drain(ch, p.Remove("formal"))
	require.NoError(t, err)

	require.NoError(t, h.ctx.LeavePipeline(h.token))
	assert.Equal(t, 1, h.removedCount)

	require.NoError(t, h.ctx.LeavePipeline(h.token))
	assert.Equal(t, 1, h.removedCount)
}

func TestLeavePipelineRejectsForeignToken(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h1 := &tokenCapturingFormalRemovable{}
	h2 := &tokenCapturingFormalRemovable{}
	_, err := drain(ch, p.AddLast("first", h1))
	require.NoError(t, err)
	_, err = drain(ch, p.AddLast("second", h2))
	require.NoError(t, err)

	_, err = drain(ch, p.Remove("first"))
	require.NoError(t, err)
	_, err = drain(ch, p.Remove("second"))
	require.NoError(t, err)

	assert.Panics(t, func() {
		h2.ctx.LeavePipeline(h1.token)
	})
}
