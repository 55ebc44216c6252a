// Package cleanup decides which of the user's posts to delete and deletes
// them. It depends only on the small platform interfaces below; the X API
// client in internal/xapi satisfies all of them.
package cleanup

import (
	"context"
	"time"

	"github.com/ibeckermayer/xsweep/internal/types"
)

// UserLookup resolves usernames to users
type UserLookup interface {
	LookupUser(ctx context.Context, username string) (types.User, error)
}

// PostLister pages through a user's posts
type PostLister interface {
	ListPosts(ctx context.Context, userID, cursor string, pageSize int) (types.Page, error)
}

// PostDeleter deletes a single post
type PostDeleter interface {
	DeletePost(ctx context.Context, postID string) error
}

// Platform is everything a cleanup run needs from the social platform
type Platform interface {
	Me(ctx context.Context) (types.User, error)
	UserLookup
	PostLister
	PostDeleter
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
