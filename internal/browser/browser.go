// Package browser opens notification links in the user's browser.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
)

// ErrInvalidURL is returned for links that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid url")

// Runner starts an external command. It is swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) error

// Opener launches URLs with the platform's default handler.
type Opener struct {
	goos string
	run  Runner
}

// New returns an Opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, run: start}
}

// NewWithRunner returns an Opener for goos that starts commands with run.
func NewWithRunner(goos string, run Runner) *Opener {
	return &Opener{goos: goos, run: run}
}

// Open launches rawURL. Background links keep the current window focused
// where the platform supports it.
func (o *Opener) Open(rawURL string, pref model.OpenPreference) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	name, args := o.command(u.String(), pref)
	logging.Logger().WithField("url", u.String()).Debug("opening link")
	if err := o.run(context.Background(), name, args...); err != nil {
		return fmt.Errorf("opening %s: %w", u.Redacted(), err)
	}
	return nil
}

func (o *Opener) command(target string, pref model.OpenPreference) (string, []string) {
	switch o.goos {
	case "darwin":
		if pref == model.OpenBackground {
			return "open", []string{"-g", target}
		}
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

func start(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
