// Package app holds the start-up and shutdown steps shared by the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/config"
	"github.com/RavensCloud/douyin-gofun/internal/logging"
)

// Env is the loaded config plus logger and an interrupt-aware context.
type Env struct {
	Config *config.Config
	Log    zerolog.Logger
	Ctx    context.Context
	// Proxy is the address the browser was launched with, "" for none.
	Proxy string

	stop      context.CancelFunc
	logCloser io.Closer
}

// Start loads config and logging and wires SIGINT/SIGTERM into Ctx.
func Start() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &Env{Config: cfg, Log: log, Ctx: ctx, stop: stop, logCloser: closer}, nil
}

// Close releases the signal handler and the log file.
func (e *Env) Close() {
	e.stop()
	_ = e.logCloser.Close()
}

// Exit reports how a command ended: a clean message on interruption, the
// error otherwise.
func (e *Env) Exit(err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled) || e.Ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "\ninterrupted by user")
		e.Close()
		os.Exit(130)
	default:
		e.Log.Error().Err(err).Msg("run failed")
		e.Close()
		os.Exit(1)
	}
}

// LaunchBrowser starts the shared browser, routing it through a proxy from
// the pool when one is configured and restoring saved cookies.
func (e *Env) LaunchBrowser() (*douyin.Browser, error) {
	opts := douyin.BrowserOptions{
		Headless:        e.Config.Browser.Headless,
		InitScript:      e.Config.Browser.InitScript,
		UserDataDir:     e.Config.Browser.UserDataDir,
		BlockMedia:      e.Config.Browser.BlockMedia,
		ResponseTimeout: e.Config.Browser.ResponseTimeout,
	}

	if pp := douyin.NewProxyProvider(e.Config.ProxyAPI); pp.Enabled() {
		addr, err := pp.Fetch(e.Ctx)
		if err != nil {
			e.Log.Warn().Err(err).Msg("proxy unavailable, continuing without")
		} else {
			e.Log.Info().Str("proxy", addr).Msg("using proxy")
			opts.Proxy = addr
			e.Proxy = addr
		}
	}

	e.Log.Info().Bool("headless", opts.Headless).Msg("starting browser")
	b, err := douyin.LaunchBrowser(opts)
	if err != nil {
		return nil, err
	}

	if path := e.Config.CookiesFile; path != "" {
		cookies, err := douyin.LoadCookieFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.Log.Info().Str("path", path).Msg("no saved cookies yet")
		case err != nil:
			e.Log.Warn().Err(err).Msg("saved cookies unreadable")
		default:
			if err := b.SetCookies(cookies); err != nil {
				e.Log.Warn().Err(err).Msg("restore cookies failed")
			} else {
				e.Log.Info().Int("cookies", len(cookies)).Msg("restored browser session")
			}
		}
	}
	return b, nil
}

// CloseBrowser saves the session cookies when configured and closes the
// browser.
func (e *Env) CloseBrowser(b *douyin.Browser) {
	if b == nil {
		return
	}
	if path := e.Config.CookiesFile; path != "" {
		cookies, err := b.Cookies()
		if err == nil {
			err = douyin.SaveCookieFile(path, cookies)
		}
		if err != nil {
			e.Log.Warn().Err(err).Msg("save cookies failed")
		}
	}
	if err := b.Close(); err != nil {
		e.Log.Warn().Err(err).Msg("close browser")
	}
}
