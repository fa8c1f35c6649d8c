package netty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedChannelWriteInboundReportsTailArrival(t *testing.T) {
	ch := NewEmbeddedChannel(nil)

	assert.True(t, ch.WriteInbound("hello"))
	in, ok := ch.ReadInbound()
	require.True(t, ok)
	assert.Equal(t, "hello", in)

	_, ok = ch.ReadInbound()
	assert.False(t, ok)
}

func TestEmbeddedChannelWriteInboundFalseWhenConsumed(t *testing.T) {
	ch := NewEmbeddedChannel(func(channel Channel) {
		channel.Pipeline().AddLast("sink", &sinkHandler{})
	})

	assert.False(t, ch.WriteInbound("consumed"))
	_, ok := ch.ReadInbound()
	assert.False(t, ok)
}

type sinkHandler struct{ RemovableBase }

func (h *sinkHandler) HandleRead(ctx HandlerContext, msg Message) {
	// Swallows the message - nothing reaches tail.
}

func TestEmbeddedChannelWriteOutboundReportsHeadArrival(t *testing.T) {
	ch := NewEmbeddedChannel(nil)

	assert.True(t, ch.WriteOutbound("bye"))
	out, ok := ch.ReadOutbound()
	require.True(t, ok)
	assert.Equal(t, "bye", out)
}

func TestEmbeddedChannelFinishReportsNonEmptyBuffers(t *testing.T) {
	ch := NewEmbeddedChannel(nil)
	ch.WriteInbound("leftover")

	nonEmpty, err := ch.Finish()
	require.NoError(t, err)
	assert.True(t, nonEmpty)
}

func TestEmbeddedChannelFinishReportsEmptyBuffers(t *testing.T) {
	ch := NewEmbeddedChannel(nil)

	nonEmpty, err := ch.Finish()
	require.NoError(t, err)
	assert.False(t, nonEmpty)
}

func TestEmbeddedChannelFinishTwiceFails(t *testing.T) {
	ch := NewEmbeddedChannel(nil)

	_, err := ch.Finish()
	require.NoError(t, err)

	_, err = ch.Finish()
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestEmbeddedChannelLastErrorRecordsUnhandledException(t *testing.T) {
	ch := NewEmbeddedChannel(nil)

	ch.Pipeline().FireErrorCaught(AsException(assert.AnError, nil))
	ch.Run()

	ex, ok := ch.LastError()
	require.True(t, ok)
	assert.ErrorIs(t, ex.Unwrap(), assert.AnError)
}

func TestEmbeddedChannelActiveAfterConstruction(t *testing.T) {
	ch := NewEmbeddedChannel(nil)
	assert.True(t, ch.Registered())
	assert.True(t, ch.Active())
	assert.False(t, ch.Closed())
}

func TestEmbeddedChannelInactiveAfterFinish(t *testing.T) {
	ch := NewEmbeddedChannel(nil)
	_, err := ch.Finish()
	require.NoError(t, err)
	assert.False(t, ch.Active())
	assert.True(t, ch.Closed())
}
