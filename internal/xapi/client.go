package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/sethvargo/go-retry"

	"github.com/ibeckermayer/xsweep/internal/types"
)

// DefaultBaseURL is the X API v2 root
const DefaultBaseURL = "https://api.x.com/2"

// Options tunes a Client
type Options struct {
	BaseURL string
	// RateLimitRetries is how many times a rate limited request is retried
	// after waiting for the window to reset.
	RateLimitRetries int
	// MaxRateLimitWait caps a single wait for a rate limit reset.
	MaxRateLimitWait time.Duration
	Timeout          time.Duration
}

// Client talks to the X API v2 on behalf of one user
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	maxWait time.Duration
	minWait time.Duration
	now     func() time.Time
}

// New creates a client around an already authenticated http.Client
func New(httpClient *http.Client, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxRateLimitWait <= 0 {
		opts.MaxRateLimitWait = 15 * time.Minute
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		retries: max(opts.RateLimitRetries, 0),
		maxWait: opts.MaxRateLimitWait,
		minWait: time.Second,
		now:     time.Now,
	}
}

// NewOAuth1 creates a client that signs requests with an OAuth 1.0a user
// context token.
func NewOAuth1(consumerKey, consumerSecret, accessToken, accessSecret string, opts Options) *Client {
	cfg := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	return New(cfg.Client(oauth1.NoContext, token), opts)
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var result userResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &result); err != nil {
		return types.User{}, fmt.Errorf("get authenticated user: %w", err)
	}
	if result.Data == nil || result.Data.ID == "" {
		return types.User{}, fmt.Errorf("get authenticated user: %w", ErrAuth)
	}
	return result.Data.toUser(), nil
}

// LookupUser resolves a username (without the @) to a user
func (c *Client) LookupUser(ctx context.Context, username string) (types.User, error) {
	path := "/users/by/username/" + url.PathEscape(username)

	var result userResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return types.User{}, fmt.Errorf("lookup @%s: %w", username, err)
	}
	if result.Data == nil || result.Data.ID == "" {
		for _, p := range result.Errors {
			if !p.notFound() {
				return types.User{}, fmt.Errorf("lookup @%s: %w", username, &APIError{StatusCode: http.StatusOK, Title: p.Title, Detail: p.Detail})
			}
		}
		return types.User{}, fmt.Errorf("lookup @%s: %w", username, ErrNotFound)
	}
	return result.Data.toUser(), nil
}

// ListPosts fetches one page of the user's own posts with the original
// authors of referenced posts expanded.
func (c *Client) ListPosts(ctx context.Context, userID, cursor string, pageSize int) (types.Page, error) {
	query := url.Values{}
	query.Set("max_results", strconv.Itoa(clampPageSize(pageSize)))
	query.Set("tweet.fields", tweetFields)
	query.Set("expansions", expansions)
	if cursor != "" {
		query.Set("pagination_token", cursor)
	}

	path := "/users/" + url.PathEscape(userID) + "/tweets"

	var result tweetsResponse
	if err := c.do(ctx, http.MethodGet, path, query, &result); err != nil {
		return types.Page{}, fmt.Errorf("list posts: %w", err)
	}
	return result.toPage(), nil
}

// DeletePost deletes one of the user's posts. Every failure is a *DeleteError.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	var result deleteResponse
	if err := c.do(ctx, http.MethodDelete, "/tweets/"+url.PathEscape(postID), nil, &result); err != nil {
		return &DeleteError{PostID: postID, Reason: err.Error(), Err: err}
	}
	if !result.Data.Deleted {
		reason := "not deleted"
		if len(result.Errors) > 0 {
			reason = result.Errors[0].Detail
		}
		return &DeleteError{PostID: postID, Reason: reason}
	}
	return nil
}

// do performs one API call. A 429 blocks until the rate limit window resets
// and is retried up to c.retries times; every other failure returns at once.
// Cancelling ctx ends a rate limit wait and prevents further attempts.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var wait time.Duration
	backoff := retry.WithMaxRetries(uint64(c.retries), retry.BackoffFunc(func() (time.Duration, bool) {
		return wait, false
	}))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		// A request that was sent is allowed to complete so its outcome is
		// known; the waits between attempts still end on cancellation.
		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		slog.Debug("x api request", "method", method, "path", path)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransientError{Op: method + " " + path, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransientError{Op: method + " " + path, StatusCode: resp.StatusCode, Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait = c.rateLimitWait(resp.Header)
			slog.Warn("rate limited, waiting for reset", "path", path, "wait", wait)
			return retry.RetryableError(&TransientError{
				Op:         method + " " + path,
				StatusCode: resp.StatusCode,
				Err:        errors.New("rate limit exceeded"),
			})
		}

		if err := statusError(method+" "+path, resp.StatusCode, body); err != nil {
			return err
		}

		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	})
}

// rateLimitWait reads x-rate-limit-reset (epoch seconds) and clamps the
// resulting wait to [minWait, maxWait].
func (c *Client) rateLimitWait(h http.Header) time.Duration {
	wait := c.maxWait
	if reset, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		wait = time.Unix(reset, 0).Sub(c.now())
	}
	return min(max(wait, c.minWait), c.maxWait)
}

func statusError(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var problem apiProblem
	_ = json.Unmarshal(body, &problem)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, firstNonEmpty(problem.Detail, problem.Title, http.StatusText(status)))
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return &TransientError{Op: op, StatusCode: status, Err: errors.New(firstNonEmpty(problem.Detail, problem.Title, http.StatusText(status)))}
	}
	return &APIError{StatusCode: status, Title: firstNonEmpty(problem.Title, http.StatusText(status)), Detail: problem.Detail}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
