package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ibeckermayer/xsweep/internal/types"
	"github.com/ibeckermayer/xsweep/internal/xapi"
)

// LookupResult is the outcome of resolving one configured username
type LookupResult struct {
	Username string
	UserID   string
	Err      error
}

// NotFound reports whether the lookup failed because the user does not exist
func (r LookupResult) NotFound() bool {
	return errors.Is(r.Err, xapi.ErrNotFound)
}

// ResolvePreserveSet looks up each username and collects the ids of those
// that resolve. A failed lookup is logged and skipped; it never stops the
// remaining lookups.
func ResolvePreserveSet(ctx context.Context, lookup UserLookup, usernames []string) (types.PreserveSet, []LookupResult) {
	set := types.NewPreserveSet()
	results := make([]LookupResult, 0, len(usernames))

	for _, raw := range usernames {
		name := strings.TrimPrefix(strings.TrimSpace(raw), "@")
		if name == "" {
			continue
		}

		user, err := lookup.LookupUser(ctx, name)
		result := LookupResult{Username: name, UserID: user.ID, Err: err}
		results = append(results, result)

		switch {
		case err == nil && user.ID != "":
			set.Add(user.ID)
			slog.Info("Will preserve retweets", "username", name, "user_id", user.ID)
		case result.NotFound() || err == nil:
			slog.Warn("Could not find user", "username", name)
		default:
			slog.Warn("Error looking up user", "username", name, "error", err)
		}
	}

	return set, results
}
