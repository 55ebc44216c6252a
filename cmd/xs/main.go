// Command xs handles xsweep account setup and maintenance.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/browser"

	"github.com/ibeckermayer/xsweep/internal/auth"
	"github.com/ibeckermayer/xsweep/internal/config"
	"github.com/ibeckermayer/xsweep/internal/logging"
	"github.com/ibeckermayer/xsweep/internal/types"
	"github.com/ibeckermayer/xsweep/internal/xapi"
)

var errUsage = errors.New("usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	logging.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stdout)
		} else {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "login", "logout", "whoami":
	case "open":
		if len(args) < 2 || args[1] != "config" {
			return fmt.Errorf("%w: xs open config", errUsage)
		}
		return openConfig(cfg)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	manager, err := newManager(cfg)
	if err != nil {
		return err
	}

	switch args[0] {
	case "login":
		return login(ctx, cfg, manager, out)
	case "logout":
		if err := manager.Logout(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(out, "Logged out.")
		return nil
	default:
		user, err := whoami(ctx, cfg, manager)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "@%s (ID: %s)\n", user.Username, user.ID)
		return nil
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xs <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  login          Authorize xsweep for your X account")
	fmt.Fprintln(w, "  logout         Forget the stored access token")
	fmt.Fprintln(w, "  whoami         Show the account the stored token belongs to")
	fmt.Fprintln(w, "  open config    Open config file in default editor")
}

func newManager(cfg *config.Config) (*auth.Manager, error) {
	tokenStorePath, err := auth.DefaultTokenStorePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get token store path: %w", err)
	}
	consumerKey, consumerSecret := cfg.Credentials()
	return auth.NewManager(auth.NewTokenStore(tokenStorePath), consumerKey, consumerSecret), nil
}

func login(ctx context.Context, cfg *config.Config, manager *auth.Manager, out io.Writer) error {
	slog.Info("Opening X authorization page - approve xsweep to continue")

	if _, err := manager.Login(ctx); err != nil {
		if ctx.Err() != nil {
			return errors.New("login cancelled")
		}
		slog.Warn("Browser login failed, falling back to manual PIN entry", "error", err)
		if _, err := manager.LoginManual(os.Stdin, out); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	user, err := whoami(ctx, cfg, manager)
	if err != nil {
		return err
	}
	if err := manager.Remember(user.ID, user.Username); err != nil {
		slog.Warn("Could not record account", "error", err)
	}
	fmt.Fprintf(out, "Logged in as @%s (ID: %s)\n", user.Username, user.ID)
	return nil
}

func whoami(ctx context.Context, cfg *config.Config, manager *auth.Manager) (types.User, error) {
	token, secret, err := manager.AccessToken()
	if err != nil {
		return types.User{}, err
	}
	consumerKey, consumerSecret := cfg.Credentials()
	client := xapi.NewOAuth1(consumerKey, consumerSecret, token, secret, xapi.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout.Duration,
	})

	user, err := client.Me(ctx)
	if err != nil {
		return types.User{}, fmt.Errorf("failed to authenticate: %w", err)
	}
	return user, nil
}

func openConfig(cfg *config.Config) error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get path: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
	}

	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	return nil
}
