package bridge

import (
	"context"
	"time"
)

// taskStatusTimeout is the sentinel returned when a task's poll budget is
// exhausted. Timeout is a normal, reportable outcome, not a fault: the
// job may still complete remotely after the bridge has given up.
const taskStatusTimeout = "timeout"

// waitForTask polls a task's status until it reaches a terminal state and
// returns its exit status string.
//
// Transient query failures are swallowed and treated as "not yet
// terminal": a momentary hiccup must not abort an otherwise-succeeding
// long-running job. Budget exhaustion and context cancellation both
// return the timeout sentinel; neither is an error.
func (b *Bridge) waitForTask(ctx context.Context, upid string, budget time.Duration) string {
	deadline := time.NewTimer(budget)
	defer deadline.Stop()
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		status, err := b.client.TaskStatus(ctx, upid)
		if err == nil && status.Finished() {
			if status.ExitStatus == "" {
				return "unknown"
			}
			return status.ExitStatus
		}
		if err != nil {
			b.log.WithError(err).WithField("upid", upid).Debug("task status query failed, retrying")
		}

		select {
		case <-ctx.Done():
			return taskStatusTimeout
		case <-deadline.C:
			return taskStatusTimeout
		case <-ticker.C:
		}
	}
}

// sleep blocks for d or until the context is cancelled, whichever comes
// first.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
