//go:build !unittest

package douyin

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Browser is a single stealth Chrome tab shared by every step of a run.
type Browser struct {
	browser         *rod.Browser
	page            *rod.Page
	responseTimeout time.Duration
}

// LaunchBrowser starts Chrome, opens a stealth page and enables the network
// domain so responses can be intercepted.
func LaunchBrowser(opts BrowserOptions) (*Browser, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create stealth page: %w", err)
	}

	b := &Browser{browser: browser, page: page, responseTimeout: opts.ResponseTimeout}
	if b.responseTimeout <= 0 {
		b.responseTimeout = 30 * time.Second
	}

	if opts.InitScript != "" {
		js, err := os.ReadFile(opts.InitScript)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("read init script: %w", err)
		}
		if _, err := page.EvalOnNewDocument(string(js)); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("add init script: %w", err)
		}
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	if opts.BlockMedia {
		b.setupResourceBlocking()
	}
	return b, nil
}

// setupResourceBlocking drops heavy media and analytics. Images stay so
// slider challenges remain solvable.
func (b *Browser) setupResourceBlocking() {
	router := b.browser.HijackRequests()
	blocked := []string{"*.mp4", "*.m4a", "*.webm", "*analytics*", "*mcs.zijieapi.com*"}
	for _, pattern := range blocked {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if b.page == nil {
		return ErrBrowserNotReady
	}
	p := b.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current document.
func (b *Browser) Reload(ctx context.Context) error {
	if b.page == nil {
		return ErrBrowserNotReady
	}
	p := b.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait after reload: %w", err)
	}
	return nil
}

// HasAny reports whether any selector matches an element right now.
func (b *Browser) HasAny(selectors ...string) bool {
	if b.page == nil {
		return false
	}
	for _, sel := range selectors {
		has, _, err := b.page.Has(sel)
		if err == nil && has {
			return true
		}
	}
	return false
}

// ExpectResponse subscribes to network events immediately and returns a
// waiter that resolves once the first matching response finished loading.
func (b *Browser) ExpectResponse(ctx context.Context, match func(url string) bool) ResponseWaiter {
	if b.page == nil {
		return func() ([]byte, error) { return nil, ErrBrowserNotReady }
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.responseTimeout)
	var reqID proto.NetworkRequestID
	done := false

	// Both callbacks run on rod's single event goroutine.
	wait := b.page.Context(waitCtx).EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if reqID == "" && match(e.Response.URL) {
				reqID = e.RequestID
			}
		},
		func(e *proto.NetworkLoadingFinished) bool {
			if reqID != "" && e.RequestID == reqID {
				done = true
				return true
			}
			return false
		},
	)

	return func() ([]byte, error) {
		defer cancel()
		wait()
		if !done {
			return nil, fmt.Errorf("wait for response: %w", context.Cause(waitCtx))
		}
		res, err := proto.NetworkGetResponseBody{RequestID: reqID}.Call(b.page)
		if err != nil {
			return nil, fmt.Errorf("get response body: %w", err)
		}
		if res.Base64Encoded {
			return base64.StdEncoding.DecodeString(res.Body)
		}
		return []byte(res.Body), nil
	}
}

// Cookies returns the page's douyin.com cookies in net/http form.
func (b *Browser) Cookies() ([]*http.Cookie, error) {
	if b.page == nil {
		return nil, ErrBrowserNotReady
	}
	cookies, err := b.page.Cookies([]string{defaultBaseURL})
	if err != nil {
		return nil, fmt.Errorf("get browser cookies: %w", err)
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		httpCookies = append(httpCookies, httpCookie(c))
	}
	return httpCookies, nil
}

// SetCookies installs saved cookies into the browser so a previous session
// (and any verification already passed) carries over.
func (b *Browser) SetCookies(cookies []*http.Cookie) error {
	if b.page == nil {
		return ErrBrowserNotReady
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, browserCookie(c))
	}
	if err := b.page.SetCookies(params); err != nil {
		return fmt.Errorf("set browser cookies: %w", err)
	}
	return nil
}

// UserAgent returns the browser's navigator.userAgent.
func (b *Browser) UserAgent() string {
	if b.page == nil {
		return ""
	}
	res, err := b.page.Timeout(3 * time.Second).Eval(`() => navigator.userAgent`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// SignURL appends the page's frontierSign params (X-Bogus) to rawURL. When
// the signing script is not loaded the URL is returned unchanged.
func (b *Browser) SignURL(rawURL string) (string, error) {
	if b.page == nil {
		return "", ErrBrowserNotReady
	}

	result, err := b.page.Timeout(5 * time.Second).Eval(`(url) => {
		if (typeof window.byted_acrawler === 'undefined' || !window.byted_acrawler.frontierSign) {
			return url;
		}
		const params = window.byted_acrawler.frontierSign(url);
		if (typeof params === 'string') {
			return params;
		}
		const u = new URL(url);
		for (const [k, v] of Object.entries(params)) {
			u.searchParams.set(k, v);
		}
		return u.toString();
	}`, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return result.Value.Str(), nil
}

// Close closes the page and the browser. Safe to call more than once.
func (b *Browser) Close() error {
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			return fmt.Errorf("close page: %w", err)
		}
		b.page = nil
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		b.browser = nil
	}
	return nil
}
