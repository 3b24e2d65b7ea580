package tasks

import (
	"context"
	"fmt"
	"time"
)

// newChannelStatsTask logs the size of every channel's state and chatter
// list. Channels whose state fails to initialize are reported as errors.
func newChannelStatsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "channel_stats")

	return func(ctx context.Context) error {
		log.DebugContext(ctx, "Collecting channel stats...")
		startTime := time.Now()

		var perChannel map[int64]int
		var identities int
		if deps.Chatters != nil {
			perChannel, identities = deps.Chatters.Stats()
		}
		for id, n := range perChannel {
			log.InfoContext(ctx, "Channel chatters", "channel_id", id, "chatters", n)
		}

		var failed int
		if deps.Channels != nil {
			for _, name := range deps.Channels.Channels() {
				if err := ctx.Err(); err != nil {
					return err
				}
				values, err := deps.Channels.Get(name)
				if err != nil {
					log.ErrorContext(ctx, "Channel state unavailable", "channel", name, "error", err)
					failed++
					continue
				}
				log.InfoContext(ctx, "Channel state", "channel", name, "values", values.Len())
			}
		}

		log.InfoContext(ctx, "Channel stats collected",
			"identities", identities,
			"duration", time.Since(startTime))

		if failed > 0 {
			return fmt.Errorf("channel stats: %d channel(s) failed to initialize", failed)
		}
		return nil
	}
}
