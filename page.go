package douyin

import (
	"context"
	"net/http"
	"time"
)

// ResponseWaiter blocks until the armed network response has been fully
// received and returns its body.
type ResponseWaiter func() ([]byte, error)

// Page is the part of a browser tab the pipeline drives: navigation,
// response interception, selector probing and the session cookies.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	HasAny(selectors ...string) bool
	// ExpectResponse must be called before the navigation that triggers the
	// response; it captures the first response whose URL satisfies match.
	// Cancelling ctx releases a waiter that will not be called.
	ExpectResponse(ctx context.Context, match func(url string) bool) ResponseWaiter
	Cookies() ([]*http.Cookie, error)
}

// BrowserOptions configures LaunchBrowser.
type BrowserOptions struct {
	Headless        bool
	Proxy           string // passed to Chrome's --proxy-server
	UserDataDir     string
	InitScript      string // path of extra JS evaluated before every document
	ResponseTimeout time.Duration
	BlockMedia      bool // drop video streams and analytics beacons
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
