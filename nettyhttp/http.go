// Package nettyhttp composes an HTTP/1.1 pipeline out of plain handlers,
// added to a Pipeline in one atomic AddMultiple call.
package nettyhttp

import (
	"bufio"
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	netty "github.com/summerhf/go-netty"
)

// Request is the decoded inbound envelope forwarded by the request
// decoder.
type Request struct {
	*http.Request
}

// Response is what handlers write to send an HTTP response; the encoder
// turns it into wire bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options configures AddHTTPCodec's handler set.
type Options struct {
	// Pipelining, if true, installs an assistance handler that serializes
	// back-to-back requests on one connection in request order.
	Pipelining bool
	// OnError, if non-nil, installs an error handler that receives errors
	// fired by the decoder, such as malformed requests. Without it, those
	// errors reach the pipeline's tail, which records them as the channel's
	// last error; the connection is not closed.
	OnError func(ctx netty.HandlerContext, err error)
	// Upgrade, if non-nil, installs an upgrade handler that offers every
	// decoded Request to Upgrade before the rest of the HTTP handler chain
	// sees it.
	Upgrade UpgradeNegotiator
}

// UpgradeNegotiator inspects a decoded Request and decides whether to
// upgrade the connection. When handled is false, the request is forwarded
// unchanged to the rest of the pipeline. When handled is true, response is
// written through the still-installed HTTP codec and handlers then
// replaces the HTTP codec in the live pipeline, so everything that follows
// on this connection is driven by the negotiated protocol instead.
type UpgradeNegotiator func(req Request) (response Response, handlers []netty.NamedHandler, handled bool)

// AddHTTPCodec installs the response encoder, request decoder, optional
// pipelining assistance, optional error handler, and optional upgrade
// handler onto pipeline in one atomic AddMultiple call, per spec.
func AddHTTPCodec(pipeline netty.Pipeline, opts Options) netty.Future {
	handlers := []netty.NamedHandler{
		{Name: "http-encoder", Handler: &responseEncoder{}},
		{Name: "http-decoder", Handler: &requestDecoder{}},
	}
	if opts.Pipelining {
		handlers = append(handlers, netty.NamedHandler{Name: "http-pipelining", Handler: &pipeliningAssist{}})
	}
	if opts.OnError != nil {
		handlers = append(handlers, netty.NamedHandler{Name: "http-errors", Handler: &errorHandler{onError: opts.OnError}})
	}
	if opts.Upgrade != nil {
		const upgradeName = "http-upgrade"
		codecNames := make([]string, len(handlers), len(handlers)+1)
		for i, h := range handlers {
			codecNames[i] = h.Name
		}
		codecNames = append(codecNames, upgradeName)
		handlers = append(handlers, netty.NamedHandler{
			Name:    upgradeName,
			Handler: &upgradeHandler{negotiate: opts.Upgrade, codecNames: codecNames},
		})
	}
	return pipeline.AddMultiple(netty.Last, handlers...)
}

// requestDecoder parses a full HTTP/1.1 request out of a []byte chunk and
// fires it inbound as a Request.
type requestDecoder struct {
	netty.RemovableBase
}

func (d *requestDecoder) HandleRead(ctx netty.HandlerContext, msg netty.Message) {
	raw, err := netty.Unwrap[[]byte](msg)
	if err != nil {
		ctx.FireErrorCaught(netty.AsException(err, nil))
		return
	}

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		ctx.FireErrorCaught(netty.AsException(fmt.Errorf("nettyhttp: malformed request: %w", err), nil))
		return
	}

	ctx.FireChannelRead(Request{Request: req})
}

// responseEncoder renders a Response to wire bytes and forwards them as a
// []byte write.
type responseEncoder struct {
	netty.RemovableBase
}

func (e *responseEncoder) HandleWrite(ctx netty.HandlerContext, msg netty.Message, promise netty.Promise) {
	resp, err := netty.Unwrap[Response](msg)
	if err != nil {
		promise.Fail(err)
		return
	}

	var buf bytes.Buffer
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))

	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	_ = header.Write(&buf)
	buf.WriteString("\r\n")
	buf.Write(resp.Body)

	ctx.Write(buf.Bytes(), promise)
}

// pipeliningAssist serializes responses to pipelined requests in request
// order by holding each write until the one ahead of it in the queue has
// completed. HandleWrite only ever runs on the channel's own loop, so the
// single last-enqueued field is safe without a lock.
type pipeliningAssist struct {
	netty.RemovableBase
	last netty.Promise
}

func (p *pipeliningAssist) HandleWrite(ctx netty.HandlerContext, msg netty.Message, promise netty.Promise) {
	wait := p.last
	p.last = promise
	if wait == nil {
		ctx.Write(msg, promise)
		return
	}
	wait.OnComplete(func(netty.Future) {
		ctx.Write(msg, promise)
	})
}

// errorHandler routes pipeline errors to a caller-supplied callback
// instead of the default tail behavior of stashing them as last-error.
type errorHandler struct {
	netty.RemovableBase
	onError func(ctx netty.HandlerContext, err error)
}

func (h *errorHandler) HandleException(ctx netty.HandlerContext, ex netty.Exception) {
	h.onError(ctx, ex.Unwrap())
}

// upgradeHandler offers every decoded Request to negotiate before the rest
// of the HTTP chain sees it. codecNames captures the encoder and every
// other HTTP handler installed alongside it, so a successful negotiation
// can remove exactly those and splice the negotiated protocol's handlers
// in their place.
type upgradeHandler struct {
	netty.RemovableBase
	negotiate  UpgradeNegotiator
	codecNames []string
}

func (h *upgradeHandler) HandleRead(ctx netty.HandlerContext, msg netty.Message) {
	req, ok := msg.(Request)
	if !ok {
		ctx.FireChannelRead(msg)
		return
	}

	response, handlers, handled := h.negotiate(req)
	if !handled {
		ctx.FireChannelRead(msg)
		return
	}

	// The encoder this handler captured a reference to (via codecNames) is
	// still in the pipeline at this point, so the handshake response goes
	// out through it exactly like any other Response write.
	ctx.WriteAndFlush(response, nil)

	pipeline := ctx.Channel().Pipeline()
	for _, name := range h.codecNames {
		pipeline.Remove(name)
	}
	if len(handlers) > 0 {
		pipeline.AddMultiple(netty.Last, handlers...)
	}
}
