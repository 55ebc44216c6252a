package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/xsweep/internal/cleanup"
	"github.com/ibeckermayer/xsweep/internal/config"
	"github.com/ibeckermayer/xsweep/internal/report"
	"github.com/ibeckermayer/xsweep/internal/types"
	"github.com/ibeckermayer/xsweep/internal/xapi"
)

// ConfirmPhrase must be typed exactly before a destructive run starts
const ConfirmPhrase = "DELETE"

// ErrAborted is returned when the user declines confirmation or the run is
// interrupted.
var ErrAborted = errors.New("run aborted")

// State is a step of a cleanup run
type State string

const (
	Idle           State = "idle"
	Aggregating    State = "aggregating"
	Classifying    State = "classifying"
	ConfirmPending State = "confirm_pending"
	Deleting       State = "deleting"
	Reported       State = "reported"
	Aborted        State = "aborted"
)

// Options are the per-run settings, usually taken from config.CleanupConfig
// and overridden by flags.
type Options struct {
	Preserve []string
	DryRun   bool
	Executor cleanup.ExecutorConfig
	// Unattended skips the confirmation prompt. Only scheduled runs set it.
	Unattended bool
}

// OptionsFromConfig builds run options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Preserve: cfg.Preserve.Usernames,
		DryRun:   cfg.Cleanup.DryRun,
		Executor: cleanup.ExecutorConfig{
			DryRun:   cfg.Cleanup.DryRun,
			Delay:    cfg.Cleanup.DeleteDelay.Duration,
			MaxCount: cfg.Cleanup.MaxPosts,
		},
	}
}

// Result describes what a run did
type Result struct {
	RunID     string
	State     State
	User      types.User
	Fetched   int
	Complete  bool
	ToDelete  int
	Preserved int
	Tally     types.Tally
}

// App runs cleanups against one platform account.
type App struct {
	platform   cleanup.Platform
	reports    *report.Builder
	in         io.Reader
	out        io.Writer
	pageSize   int
	pageDelay  time.Duration
	sleep      cleanup.Sleeper
	onProgress func(State)
}

// New creates a new App. Reports are written to out and the confirmation
// phrase is read from in.
func New(cfg *config.Config, platform cleanup.Platform, reports *report.Builder, in io.Reader, out io.Writer) *App {
	return &App{
		platform:  platform,
		reports:   reports,
		in:        in,
		out:       out,
		pageSize:  cfg.Cleanup.PageSize,
		pageDelay: cfg.Cleanup.PageDelay.Duration,
		sleep:     cleanup.Sleep,
	}
}

// WithSleeper replaces every pause of the run
func (a *App) WithSleeper(s cleanup.Sleeper) *App {
	a.sleep = s
	return a
}

// OnStateChange registers a callback for state transitions
func (a *App) OnStateChange(fn func(State)) *App {
	a.onProgress = fn
	return a
}

// Run performs one cleanup: resolve the preserve set, fetch the full history,
// classify, confirm when destructive, delete and report. Only an
// authentication failure is returned as a plain error; a declined or
// interrupted run returns ErrAborted together with the partial result.
func (a *App) Run(ctx context.Context, opts Options) (Result, error) {
	res := Result{RunID: uuid.NewString(), State: Idle}
	log := slog.With("run_id", res.RunID)
	opts.Executor.DryRun = opts.DryRun

	a.reported(&res, "banner", a.reports.Banner(a.out, opts.DryRun))

	me, err := a.platform.Me(ctx)
	if err != nil {
		a.transition(&res, Aborted)
		return res, fmt.Errorf("authenticate: %w", err)
	}
	res.User = me
	log.Info("Authenticated", "username", me.Username, "user_id", me.ID)

	preserve, _ := cleanup.ResolvePreserveSet(ctx, a.platform, opts.Preserve)

	a.transition(&res, Aggregating)
	log.Info("Fetching posts", "username", me.Username)
	history := cleanup.NewAggregator(a.platform, a.pageSize, a.pageDelay).
		WithSleeper(a.sleep).
		Fetch(ctx, me.ID)
	res.Fetched = len(history.Posts)
	res.Complete = history.Complete
	log.Info("Total posts fetched", "count", res.Fetched, "complete", history.Complete)

	if ctx.Err() != nil {
		return a.abort(&res, ctx.Err())
	}
	if len(history.Posts) == 0 {
		fmt.Fprintln(a.out, "No posts found.")
		a.transition(&res, Reported)
		return res, nil
	}

	a.transition(&res, Classifying)
	toDelete, toKeep := cleanup.Partition(history.Posts, preserve)
	res.ToDelete = len(toDelete)
	res.Preserved = len(toKeep)
	res.Tally.Preserved = len(toKeep)

	summary := report.NewSummary(me.Username, len(history.Posts), toDelete, toKeep, history.Complete, history.Err)
	a.reported(&res, "summary", a.reports.WriteSummary(a.out, summary))

	if len(toDelete) == 0 {
		fmt.Fprintln(a.out, "\nNo posts to delete!")
		a.transition(&res, Reported)
		return res, nil
	}

	if !opts.DryRun && !opts.Unattended {
		a.transition(&res, ConfirmPending)
		ok, err := a.confirm(ctx)
		if err != nil {
			return a.abort(&res, err)
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted.")
			return a.abort(&res, nil)
		}
	}

	a.transition(&res, Deleting)
	if opts.DryRun {
		fmt.Fprintln(a.out, "Starting DRY RUN deletion process...")
	} else {
		fmt.Fprintln(a.out, "Starting ACTUAL deletion process...")
		fmt.Fprintln(a.out, "You can stop at any time with Ctrl+C")
	}

	tally := cleanup.NewExecutor(a.platform, opts.Executor).WithSleeper(a.sleep).Execute(ctx, toDelete)
	tally.Preserved = len(toKeep)
	res.Tally = tally

	interrupted := ctx.Err() != nil
	a.reported(&res, "final", a.reports.WriteFinal(a.out, report.Final{DryRun: opts.DryRun, Interrupted: interrupted, Tally: tally}))
	log.Info("Run finished", "deleted", tally.Deleted, "failed", tally.Failed, "preserved", tally.Preserved, "dry_run", opts.DryRun)

	if interrupted {
		a.transition(&res, Aborted)
		return res, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
	a.transition(&res, Reported)
	return res, nil
}

// confirm asks for ConfirmPhrase. It gives up when ctx is cancelled.
func (a *App) confirm(ctx context.Context) (bool, error) {
	fmt.Fprintf(a.out, "\nType '%s' to confirm: ", ConfirmPhrase)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(a.in).ReadString('\n')
		answer <- strings.TrimRight(line, "\r\n")
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		return line == ConfirmPhrase, nil
	}
}

func (a *App) abort(res *Result, cause error) (Result, error) {
	a.transition(res, Aborted)
	if cause != nil {
		a.reported(res, "final", a.reports.WriteFinal(a.out, report.Final{Interrupted: true, Tally: res.Tally}))
		return *res, fmt.Errorf("%w: %w", ErrAborted, cause)
	}
	return *res, ErrAborted
}

// reported logs a report that could not be written. The run carries on.
func (a *App) reported(res *Result, name string, err error) {
	if err != nil {
		slog.Debug("report write failed", "run_id", res.RunID, "report", name, "error", err)
	}
}

func (a *App) transition(res *Result, s State) {
	slog.Debug("run state", "run_id", res.RunID, "from", res.State, "to", s)
	res.State = s
	if a.onProgress != nil {
		a.onProgress(s)
	}
}

// Explain turns a run error into a message for the console.
func Explain(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAborted):
		if errors.Is(err, context.Canceled) {
			return "Interrupted by user."
		}
		return "Aborted."
	case errors.Is(err, xapi.ErrAuth):
		return "Authentication failed.\n\nMake sure you have:\n" +
			"1. Run `xs login` or set " + config.EnvAccessToken + " and " + config.EnvAccessSecret + "\n" +
			"2. Set " + config.EnvConsumerKey + " and " + config.EnvConsumerSecret + "\n" +
			"3. Enabled OAuth 1.0a with read and write permissions for your app"
	}
	return "The run stopped because of an unexpected error; see the log for details."
}
