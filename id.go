package netty

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// ChannelIDFactory mints a new channel identity each time it is called.
type ChannelIDFactory func() string

// SequenceID is the teacher's default: an atomic counter owned by the
// returned factory, rendered as a decimal string. Each SequenceID call
// starts a fresh count at "1". Cheap, monotonic, readable in logs.
func SequenceID() ChannelIDFactory {
	var seq atomic.Uint64
	return func() string {
		return strconv.FormatUint(seq.Add(1), 10)
	}
}

// UUIDChannelID mints a random UUIDv4 per channel, for deployments where
// channel ids must not reveal ordering or process-restart counters.
func UUIDChannelID() ChannelIDFactory {
	return func() string {
		return uuid.NewString()
	}
}
