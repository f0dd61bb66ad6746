//go:build unittest

package douyin

import (
	"context"
	"fmt"
	"net/http"
)

// Browser is a stand-in that never launches Chrome.
type Browser struct{}

func LaunchBrowser(opts BrowserOptions) (*Browser, error) {
	return nil, fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (b *Browser) Navigate(ctx context.Context, url string) error { return ErrBrowserNotReady }

func (b *Browser) Reload(ctx context.Context) error { return ErrBrowserNotReady }

func (b *Browser) HasAny(selectors ...string) bool { return false }

func (b *Browser) ExpectResponse(ctx context.Context, match func(url string) bool) ResponseWaiter {
	return func() ([]byte, error) { return nil, ErrBrowserNotReady }
}

func (b *Browser) Cookies() ([]*http.Cookie, error) { return nil, ErrBrowserNotReady }

func (b *Browser) SetCookies(cookies []*http.Cookie) error { return ErrBrowserNotReady }

func (b *Browser) UserAgent() string { return "" }

func (b *Browser) SignURL(rawURL string) (string, error) { return "", ErrBrowserNotReady }

func (b *Browser) Close() error { return nil }
