package netty

import (
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- scenario 1: outbound transform chain ---

type stringToIntHandler struct{}

func (h *stringToIntHandler) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	s, ok := msg.(string)
	if !ok || s != "msg" {
		promise.Fail(fmt.Errorf("unexpected outbound value %v", msg))
		return
	}
	ctx.Write(1, promise)
}

type intToBufferHandler struct{}

func (h *intToBufferHandler) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	_ = msg.(int)
	ctx.Write("hello", promise)
}

func TestScenarioOutboundTransformChain(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	_, err := drain(ch, p.AddLast("A", &intToBufferHandler{}))
	require.NoError(t, err)
	_, err = drain(ch, p.AddLast("B", &stringToIntHandler{}))
	require.NoError(t, err)

	assert.True(t, ch.WriteOutbound("msg"))

	out, ok := ch.ReadOutbound()
	require.True(t, ok)
	assert.Equal(t, "hello", out)

	_, ok = ch.ReadOutbound()
	assert.False(t, ok)
}

// --- scenario 2: index writers ---

type indexWriter struct {
	idx byte
}

func (w *indexWriter) HandleRead(ctx HandlerContext, msg Message) {
	ctx.FireChannelRead(append(append([]byte{}, msg.([]byte)...), w.idx))
}

func (w *indexWriter) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	ctx.Write(append(append([]byte{}, msg.([]byte)...), w.idx), promise)
}

func TestScenarioIndexWriters(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h1, h2, h3 := &indexWriter{1}, &indexWriter{2}, &indexWriter{3}

	_, err := drain(ch, p.AddLast("h1", h1))
	require.NoError(t, err)
	_, err = drain(ch, p.AddLast("h2", h2))
	require.NoError(t, err)
	_, err = drain(ch, p.AddAfter("h1", "h3", h3)) // final order: h1, h3, h2

	require.NoError(t, err)

	ch.WriteInbound([]byte{})
	in, ok := ch.ReadInbound()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 3, 2}, in)

	ch.WriteOutbound([]byte{})
	out, ok := ch.ReadOutbound()
	require.True(t, ok)
	assert.Equal(t, []byte{2, 3, 1}, out)
}

// --- scenario 3: outbound-next-for-inbound-only ---

type printOutboundAsByteBuffer struct{}

func (h *printOutboundAsByteBuffer) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	ctx.Write(formatIntSlice(msg.([]int)), promise)
}

func formatIntSlice(data []int) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type markInbound struct{ by int }

func (m *markInbound) HandleRead(ctx HandlerContext, msg Message) {
	ctx.FireChannelRead(append(append([]int{}, msg.([]int)...), m.by))
}

type markOutbound struct{ by int }

func (m *markOutbound) HandleWrite(ctx HandlerContext, msg Message, promise Promise) {
	ctx.Write(append(append([]int{}, msg.([]int)...), m.by), promise)
}

type writeOnRead struct{}

func (w *writeOnRead) HandleRead(ctx HandlerContext, msg Message) {
	data := msg.([]int)
	negated := make([]int, len(data))
	for i, v := range data {
		negated[i] = -v
	}
	ctx.Write(negated, nil)
	ctx.FireChannelRead(data)
}

func TestScenarioOutboundNextForInboundOnly(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	handlers := []NamedHandler{
		{Name: "print", Handler: &printOutboundAsByteBuffer{}},
		{Name: "mark2", Handler: &markInbound{by: 2}},
		{Name: "wor1", Handler: &writeOnRead{}},
		{Name: "mark4", Handler: &markOutbound{by: 4}},
		{Name: "wor2", Handler: &writeOnRead{}},
		{Name: "mark6", Handler: &markInbound{by: 6}},
		{Name: "wor3", Handler: &writeOnRead{}},
	}
	_, err := drain(ch, p.AddMultiple(Last, handlers...))
	require.NoError(t, err)

	ch.WriteInbound([]int{})

	in, ok := ch.ReadInbound()
	require.True(t, ok)
	assert.Equal(t, []int{2, 6}, in)

	var buffers []string
	for {
		out, ok := ch.ReadOutbound()
		if !ok {
			break
		}
		buffers = append(buffers, out.(string))
	}
	assert.Equal(t, []string{"[-2]", "[-2, 4]", "[-2, -6, 4]"}, buffers)
}

// --- scenario 4: teardown during formal removal ---

type captureOnlyFormalRemovable struct {
	RemovableBase
	removedCount int
	captured     bool
}

func (h *captureOnlyFormalRemovable) HandlerRemoved(ctx HandlerContext) { h.removedCount++ }

func (h *captureOnlyFormalRemovable) HandleFormalRemove(ctx HandlerContext, token RemovalToken) {
	h.captured = true
	// deliberately never calls ctx.LeavePipeline(token)
}

func TestScenarioTeardownDuringFormalRemoval(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h := &captureOnlyFormalRemovable{}
	_, err := drain(ch, p.AddLast("formal", h))
	require.NoError(t, err)

	_, err = drain(ch, p.Remove("formal"))
	require.NoError(t, err)
	assert.True(t, h.captured)
	assert.Equal(t, 0, h.removedCount) // still pending, token never redeemed

	_, err = ch.Finish()
	require.NoError(t, err)

	assert.Equal(t, 1, h.removedCount)
	assert.Equal(t, 2, p.Size()) // head, tail only
}

// --- scenario 5: find by type with duplicates ---

type duplicateTypeHandler struct{ RemovableBase }

func TestScenarioFindByTypeWithDuplicates(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	h1, h2 := &duplicateTypeHandler{}, &duplicateTypeHandler{}
	_, err := drain(ch, p.AddLast("first", h1))
	require.NoError(t, err)
	_, err = drain(ch, p.AddLast("second", h2))
	require.NoError(t, err)

	ctx, err := p.ContextByHandlerType(&duplicateTypeHandler{})
	require.NoError(t, err)
	assert.Equal(t, "first", ctx.Name())
	assert.Same(t, h1, ctx.Handler().(*duplicateTypeHandler))
}

// --- scenario 6: connect does not bind ---

type bindRejecter struct {
	called bool
}

func (b *bindRejecter) HandleBind(ctx HandlerContext, addr net.Addr, promise Promise) {
	b.called = true
	promise.Fail(fmt.Errorf("bind rejected"))
}

type connectAccepter struct{}

func (c *connectAccepter) HandleConnect(ctx HandlerContext, addr net.Addr, promise Promise) {
	promise.Succeed(nil)
}

func TestScenarioConnectDoesNotBind(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	reject := &bindRejecter{}
	_, err := drain(ch, p.AddLast("reject", reject))
	require.NoError(t, err)
	_, err = drain(ch, p.AddLast("accept", &connectAccepter{}))
	require.NoError(t, err)

	f := p.Connect(embeddedAddr{"remote"}, nil)
	ch.Run()
	_, err = f.Wait()
	require.NoError(t, err)
	assert.False(t, reject.called)
}

// --- P8: events fired from within lifecycle-removed are observed downstream ---

type fireOnRemoveHandler struct{ RemovableBase }

func (h *fireOnRemoveHandler) HandlerRemoved(ctx HandlerContext) {
	ctx.FireChannelRead("fired-on-remove")
}

func TestFireOnRemoveDeliveredDownstream(t *testing.T) {
	ch := newTestChannel()
	p := ch.Pipeline()

	_, err := drain(ch, p.AddLast("x", &fireOnRemoveHandler{}))
	require.NoError(t, err)

	_, err = drain(ch, p.Remove("x"))
	require.NoError(t, err)

	in, ok := ch.ReadInbound()
	require.True(t, ok)
	assert.Equal(t, "fired-on-remove", in)
}

// --- P9: empty pipeline passes messages through unchanged ---

func TestEmptyPipelinePassesMessagesThrough(t *testing.T) {
	ch := newTestChannel()

	assert.True(t, ch.WriteInbound("raw-in"))
	in, ok := ch.ReadInbound()
	require.True(t, ok)
	assert.Equal(t, "raw-in", in)

	assert.True(t, ch.WriteOutbound("raw-out"))
	out, ok := ch.ReadOutbound()
	require.True(t, ok)
	assert.Equal(t, "raw-out", out)
}
