package netty

import (
	"time"

	"github.com/robfig/cron/v3"
)

// NewCronSchedule arranges for task to run on loop (never off it) at every
// time expr matches, using cron's standard five-field parser. The returned
// stop func cancels the next pending fire; in-flight executions already
// queued on loop still run.
func NewCronSchedule(loop EventLoop, expr string, task func()) (stop func(), err error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, err
	}

	var cancel func()
	var armNext func()
	armNext = func() {
		delay := time.Until(schedule.Next(time.Now()))
		if delay < 0 {
			delay = 0
		}
		cancel = loop.Schedule(delay, func() {
			task()
			armNext()
		})
	}
	armNext()

	return func() {
		if cancel != nil {
			cancel()
		}
	}, nil
}
