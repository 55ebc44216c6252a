package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ibeckermayer/xsweep/internal/types"
	"github.com/ibeckermayer/xsweep/internal/xapi"
)

// fakePlatform serves canned pages keyed by cursor and records calls
type fakePlatform struct {
	users     map[string]string
	lookupErr map[string]error

	pages   map[string]types.Page
	pageErr map[string]error
	cursors []string

	deleteErr map[string]error
	onDelete  func(ctx context.Context, postID string) error
	deleted   []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		users:     map[string]string{},
		lookupErr: map[string]error{},
		pages:     map[string]types.Page{},
		pageErr:   map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakePlatform) Me(ctx context.Context) (types.User, error) {
	return types.User{ID: "me", Username: "me"}, nil
}

func (f *fakePlatform) LookupUser(ctx context.Context, username string) (types.User, error) {
	if err, ok := f.lookupErr[username]; ok {
		return types.User{}, err
	}
	id, ok := f.users[username]
	if !ok {
		return types.User{}, fmt.Errorf("lookup @%s: %w", username, xapi.ErrNotFound)
	}
	return types.User{ID: id, Username: username}, nil
}

func (f *fakePlatform) ListPosts(ctx context.Context, userID, cursor string, pageSize int) (types.Page, error) {
	f.cursors = append(f.cursors, cursor)
	if err, ok := f.pageErr[cursor]; ok {
		return types.Page{}, err
	}
	page, ok := f.pages[cursor]
	if !ok {
		return types.Page{}, errors.New("unexpected cursor " + cursor)
	}
	return page, nil
}

func (f *fakePlatform) DeletePost(ctx context.Context, postID string) error {
	f.deleted = append(f.deleted, postID)
	if f.onDelete != nil {
		return f.onDelete(ctx, postID)
	}
	if err, ok := f.deleteErr[postID]; ok {
		return err
	}
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// rawPosts makes n original posts with ids prefix-0 .. prefix-(n-1)
func rawPosts(prefix string, n int) []types.RawPost {
	posts := make([]types.RawPost, n)
	for i := range posts {
		posts[i] = types.RawPost{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			Text:      fmt.Sprintf("post %d of %s", i, prefix),
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
		}
	}
	return posts
}

func retweet(id, target string) types.RawPost {
	return types.RawPost{
		ID:         id,
		Text:       "RT " + target,
		References: []types.Reference{{Kind: types.Retweeted, TargetID: target}},
	}
}
