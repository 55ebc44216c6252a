package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ibeckermayer/xsweep/internal/types"
)

const logPreviewLen = 50

// ExecutorConfig controls a deletion pass
type ExecutorConfig struct {
	DryRun bool
	// Delay is the pause between real delete calls, failed or not.
	Delay time.Duration
	// MaxCount caps how many posts are processed. Zero means no cap.
	MaxCount int
}

// Executor deletes posts one at a time
type Executor struct {
	deleter PostDeleter
	cfg     ExecutorConfig
	sleep   Sleeper
}

func NewExecutor(deleter PostDeleter, cfg ExecutorConfig) *Executor {
	return &Executor{deleter: deleter, cfg: cfg, sleep: Sleep}
}

// WithSleeper replaces the pause between deletions
func (e *Executor) WithSleeper(s Sleeper) *Executor {
	e.sleep = s
	return e
}

// Execute deletes posts in the given order and returns the tallies. A failed
// deletion is counted and skipped. When ctx is cancelled no further deletion
// is started. The deleter is expected to let a request already on the wire
// finish, so its result is counted.
func (e *Executor) Execute(ctx context.Context, posts []types.PostRecord) types.Tally {
	var tally types.Tally

	for i, post := range posts {
		if e.cfg.MaxCount > 0 && i >= e.cfg.MaxCount {
			slog.Info("Reached maximum post limit", "max", e.cfg.MaxCount)
			break
		}
		if ctx.Err() != nil {
			slog.Warn("Deletion interrupted", "processed", i, "remaining", len(posts)-i)
			break
		}

		if e.cfg.DryRun {
			slog.Info("[DRY RUN] Would delete post", "id", post.ID, "text", post.Preview(logPreviewLen))
			tally.Deleted++
			continue
		}

		if err := e.deleter.DeletePost(ctx, post.ID); err != nil {
			slog.Error("Failed to delete post", "id", post.ID, "error", err)
			tally.Failed++
		} else {
			slog.Info("Deleted post", "id", post.ID, "text", post.Preview(logPreviewLen))
			tally.Deleted++
		}

		if i == len(posts)-1 || (e.cfg.MaxCount > 0 && i+1 >= e.cfg.MaxCount) {
			break
		}
		if err := e.sleep(ctx, e.cfg.Delay); err != nil {
			slog.Warn("Deletion interrupted", "processed", i+1, "remaining", len(posts)-i-1)
			break
		}
	}

	return tally
}
