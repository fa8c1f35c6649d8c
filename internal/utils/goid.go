package utils

import (
	"runtime"
	"strconv"
)

// GoroutineID returns the calling goroutine's runtime id by parsing the
// "goroutine N [...]" header of a single-goroutine stack dump. The standard
// library deliberately exposes no thread-local/goroutine-local storage, so
// this is the idiomatic (if unglamorous) way to answer EventLoop.InLoop():
// compare the caller's id against the id captured when the loop's worker
// goroutine started. It is only ever called a handful of times per pipeline
// mutation, never on the per-event dispatch hot path.
func GoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return 0
	}
	b = b[len(prefix):]

	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	id, _ := strconv.ParseUint(string(b[:i]), 10, 64)
	return id
}
