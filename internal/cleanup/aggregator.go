package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ibeckermayer/xsweep/internal/types"
)

// History is the result of paging through the user's posts
type History struct {
	Posts []types.PostRecord
	Pages int
	// Complete is false when paging stopped on an error or cancellation; Err
	// holds the cause and Posts holds everything fetched before it.
	Complete bool
	Err      error
}

// Aggregator assembles the user's full post history from the paged API
type Aggregator struct {
	lister    PostLister
	pageSize  int
	pageDelay time.Duration
	sleep     Sleeper
}

// NewAggregator creates an aggregator that requests pageSize posts per page
// and pauses pageDelay between requests.
func NewAggregator(lister PostLister, pageSize int, pageDelay time.Duration) *Aggregator {
	return &Aggregator{
		lister:    lister,
		pageSize:  pageSize,
		pageDelay: pageDelay,
		sleep:     Sleep,
	}
}

// WithSleeper replaces the pause between page requests
func (a *Aggregator) WithSleeper(s Sleeper) *Aggregator {
	a.sleep = s
	return a
}

// Fetch pages through every post of userID in the order the platform returns
// them. It never fails: a page error ends paging and the partial history is
// returned with Complete unset.
func (a *Aggregator) Fetch(ctx context.Context, userID string) History {
	var h History
	cursor := ""

	for {
		page, err := a.lister.ListPosts(ctx, userID, cursor, a.pageSize)
		if err != nil {
			slog.Error("Error fetching posts", "page", h.Pages+1, "fetched", len(h.Posts), "error", err)
			h.Err = err
			return h
		}
		h.Pages++

		for _, raw := range page.Posts {
			h.Posts = append(h.Posts, newRecord(raw, page.Expansions))
		}
		slog.Info("Fetched posts so far", "count", len(h.Posts), "pages", h.Pages)

		if len(page.Posts) == 0 || page.NextCursor == "" {
			h.Complete = true
			return h
		}
		cursor = page.NextCursor

		if err := a.sleep(ctx, a.pageDelay); err != nil {
			h.Err = err
			return h
		}
	}
}

// newRecord copies raw verbatim and attaches the authors of retweeted posts
// found in the page's expansion index.
func newRecord(raw types.RawPost, expansions types.ExpansionIndex) types.PostRecord {
	rec := types.PostRecord{
		ID:         raw.ID,
		Text:       raw.Text,
		CreatedAt:  raw.CreatedAt,
		References: append([]types.Reference(nil), raw.References...),
	}

	for _, ref := range raw.References {
		if ref.Kind != types.Retweeted {
			continue
		}
		author, ok := expansions[ref.TargetID]
		if !ok || author == "" {
			continue
		}
		if rec.RetweetAuthors == nil {
			rec.RetweetAuthors = make(map[string]string)
		}
		rec.RetweetAuthors[ref.TargetID] = author
	}

	return rec
}
