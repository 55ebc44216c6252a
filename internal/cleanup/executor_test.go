package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ibeckermayer/xsweep/internal/types"
)

func records(n int) []types.PostRecord {
	var out []types.PostRecord
	for _, raw := range rawPosts("p", n) {
		out = append(out, newRecord(raw, nil))
	}
	return out
}

func TestExecuteDryRunNeverDeletes(t *testing.T) {
	p := newFakePlatform()

	tally := NewExecutor(p, ExecutorConfig{DryRun: true, Delay: time.Hour}).Execute(context.Background(), records(5))

	assert.Equal(t, types.Tally{Deleted: 5}, tally)
	assert.Empty(t, p.deleted)
}

func TestExecuteDeletesInOrderAndPauses(t *testing.T) {
	p := newFakePlatform()
	var pauses []time.Duration
	sleeper := func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	tally := NewExecutor(p, ExecutorConfig{Delay: time.Second}).WithSleeper(sleeper).Execute(context.Background(), records(3))

	assert.Equal(t, types.Tally{Deleted: 3}, tally)
	assert.Equal(t, []string{"p-0", "p-1", "p-2"}, p.deleted)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, pauses)
}

func TestExecuteNoPauseAfterMaxCount(t *testing.T) {
	p := newFakePlatform()
	pauses := 0
	sleeper := func(ctx context.Context, d time.Duration) error {
		pauses++
		return nil
	}

	tally := NewExecutor(p, ExecutorConfig{Delay: time.Second, MaxCount: 2}).WithSleeper(sleeper).Execute(context.Background(), records(5))

	assert.Equal(t, 2, tally.Deleted)
	assert.Equal(t, 1, pauses)
}

func TestExecuteCountsFailuresAndContinues(t *testing.T) {
	p := newFakePlatform()
	p.deleteErr["p-1"] = errors.New("gone")

	tally := NewExecutor(p, ExecutorConfig{}).WithSleeper(noSleep).Execute(context.Background(), records(3))

	assert.Equal(t, types.Tally{Deleted: 2, Failed: 1}, tally)
	assert.Equal(t, []string{"p-0", "p-1", "p-2"}, p.deleted)
}

func TestExecuteRespectsMaxCount(t *testing.T) {
	p := newFakePlatform()

	tally := NewExecutor(p, ExecutorConfig{MaxCount: 2}).WithSleeper(noSleep).Execute(context.Background(), records(5))
	assert.Equal(t, 2, tally.Deleted)
	assert.Len(t, p.deleted, 2)

	dry := NewExecutor(p, ExecutorConfig{DryRun: true, MaxCount: 4}).Execute(context.Background(), records(10))
	assert.Equal(t, 4, dry.Deleted)
	assert.Len(t, p.deleted, 2)
}

func TestExecuteStopsOnCancel(t *testing.T) {
	p := newFakePlatform()
	ctx, cancel := context.WithCancel(context.Background())
	sleeper := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	tally := NewExecutor(p, ExecutorConfig{Delay: time.Second}).WithSleeper(sleeper).Execute(ctx, records(4))

	assert.Equal(t, types.Tally{Deleted: 1}, tally)
	assert.Equal(t, []string{"p-0"}, p.deleted)
}

func TestExecuteCancelDuringDeleteStopsPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newFakePlatform()
	p.onDelete = func(ctx context.Context, id string) error {
		cancel()
		return ctx.Err()
	}

	tally := NewExecutor(p, ExecutorConfig{Delay: time.Second}).Execute(ctx, records(3))

	assert.Equal(t, types.Tally{Failed: 1}, tally)
	assert.Equal(t, []string{"p-0"}, p.deleted)
}

func TestExecuteCancelledBeforeStartMakesNoCalls(t *testing.T) {
	p := newFakePlatform()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tally := NewExecutor(p, ExecutorConfig{}).Execute(ctx, records(3))

	assert.Equal(t, types.Tally{}, tally)
	assert.Empty(t, p.deleted)
}

// Three pages of 100, 100 and 1 original posts: everything is classified for
// deletion and a dry run reports all 201.
func TestDryRunOverThreePages(t *testing.T) {
	p := newFakePlatform()
	p.pages[""] = types.Page{Posts: rawPosts("a", 100), NextCursor: "c1"}
	p.pages["c1"] = types.Page{Posts: rawPosts("b", 100), NextCursor: "c2"}
	p.pages["c2"] = types.Page{Posts: rawPosts("c", 1)}

	h := NewAggregator(p, 100, 0).WithSleeper(noSleep).Fetch(context.Background(), "me")
	toDelete, toKeep := Partition(h.Posts, types.NewPreserveSet("7"))
	tally := NewExecutor(p, ExecutorConfig{DryRun: true}).Execute(context.Background(), toDelete)

	assert.Len(t, h.Posts, 201)
	assert.Len(t, toDelete, 201)
	assert.Empty(t, toKeep)
	assert.Equal(t, types.Tally{Deleted: 201}, tally)
	assert.Empty(t, p.deleted)
}

func TestRetweetScenario(t *testing.T) {
	p := newFakePlatform()
	p.users["friend"] = "7"
	p.pages[""] = types.Page{
		Posts:      []types.RawPost{retweet("A", "900"), retweet("B", "901")},
		Expansions: types.ExpansionIndex{"900": "7", "901": "8"},
	}

	preserve, _ := ResolvePreserveSet(context.Background(), p, []string{"friend", "ghost_user"})
	h := NewAggregator(p, 100, 0).WithSleeper(noSleep).Fetch(context.Background(), "me")

	assert.Equal(t, types.Preserve, Classify(h.Posts[0], preserve))
	assert.Equal(t, types.Delete, Classify(h.Posts[1], preserve))
}
