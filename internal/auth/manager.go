package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/dghubble/oauth1"
	"github.com/dghubble/oauth1/twitter"
	"github.com/pkg/browser"

	browseropts "github.com/ibeckermayer/xsweep/internal/browser"
	"github.com/ibeckermayer/xsweep/internal/config"
)

// ErrNotLoggedIn is returned when no access token is available
var ErrNotLoggedIn = errors.New("not logged in: run `xs login` or set " + config.EnvAccessToken + " and " + config.EnvAccessSecret)

// Manager handles X authorization for the app's consumer key
type Manager struct {
	tokenStore *TokenStore
	oauth      *oauth1.Config
	pinTimeout time.Duration
}

// NewManager creates a new auth manager
func NewManager(tokenStore *TokenStore, consumerKey, consumerSecret string) *Manager {
	return &Manager{
		tokenStore: tokenStore,
		oauth: &oauth1.Config{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			CallbackURL:    "oob",
			Endpoint:       twitter.AuthorizeEndpoint,
		},
		pinTimeout: 5 * time.Minute,
	}
}

// IsAuthenticated checks if an access token is available
func (m *Manager) IsAuthenticated() bool {
	_, _, err := m.AccessToken()
	return err == nil
}

// AccessToken returns the user's access token and secret. The environment
// takes precedence over the token store.
func (m *Manager) AccessToken() (token, secret string, err error) {
	token, secret = os.Getenv(config.EnvAccessToken), os.Getenv(config.EnvAccessSecret)
	if token != "" && secret != "" {
		return token, secret, nil
	}

	stored, err := m.tokenStore.Load()
	if err != nil || stored.AccessToken == "" || stored.AccessSecret == "" {
		return "", "", ErrNotLoggedIn
	}
	return stored.AccessToken, stored.AccessSecret, nil
}

// Login runs the PIN-based OAuth flow in a visible browser window. The user
// approves the app, the PIN is read from the page and exchanged for an
// access token which is then saved.
func (m *Manager) Login(ctx context.Context) (*StoredToken, error) {
	requestToken, requestSecret, authURL, err := m.start()
	if err != nil {
		return nil, err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, browseropts.Options()...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(authURL)); err != nil {
		return nil, fmt.Errorf("failed to open authorization page: %w", err)
	}

	pin, err := m.waitForPIN(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return m.finish(requestToken, requestSecret, pin)
}

// LoginManual opens the authorization page in the default browser and reads
// the PIN from in. Used when Chrome is not available.
func (m *Manager) LoginManual(in io.Reader, out io.Writer) (*StoredToken, error) {
	requestToken, requestSecret, authURL, err := m.start()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Authorize xsweep at:\n  %s\n", authURL)
	if err := browser.OpenURL(authURL); err != nil {
		fmt.Fprintln(out, "(open the link above manually)")
	}

	fmt.Fprint(out, "Enter the PIN: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read PIN: %w", err)
	}

	return m.finish(requestToken, requestSecret, strings.TrimSpace(line))
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.tokenStore.Clear()
}

// Remember records which account the stored token belongs to
func (m *Manager) Remember(userID, username string) error {
	stored, err := m.tokenStore.Load()
	if err != nil {
		return err
	}
	stored.UserID = userID
	stored.Username = username
	return m.tokenStore.Save(*stored)
}

func (m *Manager) start() (requestToken, requestSecret, authURL string, err error) {
	if m.oauth.ConsumerKey == "" || m.oauth.ConsumerSecret == "" {
		return "", "", "", fmt.Errorf("missing consumer key: set %s and %s", config.EnvConsumerKey, config.EnvConsumerSecret)
	}

	requestToken, requestSecret, err = m.oauth.RequestToken()
	if err != nil {
		return "", "", "", fmt.Errorf("failed to get request token: %w", err)
	}

	u, err := m.oauth.AuthorizationURL(requestToken)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to build authorization URL: %w", err)
	}
	return requestToken, requestSecret, u.String(), nil
}

func (m *Manager) finish(requestToken, requestSecret, pin string) (*StoredToken, error) {
	if pin == "" {
		return nil, errors.New("empty PIN")
	}

	accessToken, accessSecret, err := m.oauth.AccessToken(requestToken, requestSecret, pin)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange PIN: %w", err)
	}

	token := StoredToken{
		AccessToken:  accessToken,
		AccessSecret: accessSecret,
		CapturedAt:   time.Now(),
	}
	if err := m.tokenStore.Save(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return &token, nil
}

// waitForPIN polls the authorization page until X shows the PIN
func (m *Manager) waitForPIN(ctx context.Context) (string, error) {
	timeout := time.After(m.pinTimeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return "", fmt.Errorf("authorization timeout exceeded")
		case <-ticker.C:
			var pin string
			var denied bool
			err := chromedp.Run(ctx,
				chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q) !== null`, DeniedNotice), &denied),
				chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q)?.textContent?.trim() || ""`, PINCode), &pin),
			)
			if err != nil {
				continue
			}
			if denied {
				return "", errors.New("authorization was denied")
			}
			if pin != "" {
				return pin, nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
