package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// return when ctx is cancelled.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the known tasks keyed by the name used in the
// scheduler config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["chatters_reset"] = newChattersResetTask(deps)
	tasks["channel_stats"] = newChannelStatsTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
