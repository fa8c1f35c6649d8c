// Package jsonevent is a pipeline codec for newline-delimited JSON events:
// an inbound handler that extracts fields without a full unmarshal, and an
// outbound handler that marshals a Go value to a line of JSON.
package jsonevent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	netty "github.com/summerhf/go-netty"
)

// Event is the decoded inbound envelope: Type is read directly from the
// JSON without unmarshaling the rest of the payload, Payload is the whole
// raw JSON object (surrounding whitespace trimmed) for the next handler to
// interpret.
type Event struct {
	Type    string
	Payload []byte
}

// Decoder is an inbound ReadHandler: it expects msg to be a []byte holding
// exactly one JSON object per call (framing - e.g. splitting on '\n' - is
// left to an earlier handler) and forwards an Event with Type extracted via
// jsonparser, avoiding a full unmarshal just to dispatch on the event kind.
type Decoder struct {
	TypeField string
	netty.RemovableBase
}

// NewDecoder returns a Decoder keyed on JSON field typeField (commonly
// "type" or "event").
func NewDecoder(typeField string) *Decoder {
	return &Decoder{TypeField: typeField}
}

func (d *Decoder) HandleRead(ctx netty.HandlerContext, msg netty.Message) {
	raw, err := netty.Unwrap[[]byte](msg)
	if err != nil {
		ctx.FireErrorCaught(netty.AsException(err, nil))
		return
	}

	typ, err := jsonparser.GetString(raw, d.TypeField)
	if err != nil {
		ctx.FireErrorCaught(netty.AsException(fmt.Errorf("jsonevent: missing %q field: %w", d.TypeField, err), nil))
		return
	}

	ctx.FireChannelRead(Event{Type: typ, Payload: bytes.TrimSpace(raw)})
}

// Encoder is an outbound WriteHandler: it marshals msg to a line of JSON
// via encoding/json (a full encode has no worthwhile zero-copy
// alternative) and forwards the bytes toward head.
type Encoder struct {
	netty.RemovableBase
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) HandleWrite(ctx netty.HandlerContext, msg netty.Message, promise netty.Promise) {
	b, err := json.Marshal(msg)
	if err != nil {
		promise.Fail(err)
		return
	}
	b = append(b, '\n')
	ctx.Write(b, promise)
}
