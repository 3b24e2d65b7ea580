package tasks

import (
	"context"
	"fmt"
	"time"
)

// newChattersResetTask forgets every channel's chatters. The identity
// index is kept so that name lookups keep working.
func newChattersResetTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "chatters_reset")

	return func(ctx context.Context) error {
		if deps.Chatters == nil {
			return fmt.Errorf("chatters reset: no registry configured")
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		log.InfoContext(ctx, "Starting scheduled chatters reset...")
		startTime := time.Now()

		perChannel, identities := deps.Chatters.Stats()
		deps.Chatters.Reset()

		log.InfoContext(ctx, "Chatters reset completed",
			"channels", len(perChannel),
			"identities", identities,
			"duration", time.Since(startTime))
		return nil
	}
}
