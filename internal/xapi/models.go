package xapi

import (
	"strings"
	"time"

	"github.com/ibeckermayer/xsweep/internal/types"
)

const (
	tweetFields = "created_at,referenced_tweets,author_id"
	expansions  = "referenced_tweets.id.author_id"

	minPageSize = 5
	maxPageSize = 100
)

type apiUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type apiRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type apiTweet struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	AuthorID         string    `json:"author_id"`
	CreatedAt        time.Time `json:"created_at"`
	ReferencedTweets []apiRef  `json:"referenced_tweets"`
}

// apiProblem is an entry of the "errors" array, or a top level problem
// document on non-2xx responses.
type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Value  string `json:"value"`
	Status int    `json:"status"`
}

func (p apiProblem) notFound() bool {
	return strings.Contains(p.Type, "resource-not-found") || strings.HasPrefix(p.Title, "Not Found")
}

type userResponse struct {
	Data   *apiUser     `json:"data"`
	Errors []apiProblem `json:"errors"`
}

type tweetsResponse struct {
	Data     []apiTweet `json:"data"`
	Includes struct {
		Tweets []apiTweet `json:"tweets"`
		Users  []apiUser  `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
	Errors []apiProblem `json:"errors"`
}

type deleteResponse struct {
	Data struct {
		Deleted bool `json:"deleted"`
	} `json:"data"`
	Errors []apiProblem `json:"errors"`
}

func (u apiUser) toUser() types.User {
	return types.User{ID: u.ID, Username: u.Username, Name: u.Name}
}

// toPage converts a timeline response into the typed page model. The
// expansion index only covers referenced tweets included in this response.
func (r tweetsResponse) toPage() types.Page {
	page := types.Page{
		Posts:      make([]types.RawPost, 0, len(r.Data)),
		Expansions: make(types.ExpansionIndex, len(r.Includes.Tweets)),
		NextCursor: r.Meta.NextToken,
	}

	for _, inc := range r.Includes.Tweets {
		if inc.ID != "" && inc.AuthorID != "" {
			page.Expansions[inc.ID] = inc.AuthorID
		}
	}

	for _, t := range r.Data {
		refs := make([]types.Reference, 0, len(t.ReferencedTweets))
		for _, ref := range t.ReferencedTweets {
			refs = append(refs, types.Reference{
				Kind:     types.ReferenceKind(ref.Type),
				TargetID: ref.ID,
			})
		}
		page.Posts = append(page.Posts, types.RawPost{
			ID:         t.ID,
			Text:       t.Text,
			CreatedAt:  t.CreatedAt,
			References: refs,
		})
	}

	return page
}

func clampPageSize(n int) int {
	return min(max(n, minPageSize), maxPageSize)
}
