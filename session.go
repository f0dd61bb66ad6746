package douyin

import "fmt"

type urlSigner interface {
	SignURL(rawURL string) (string, error)
}

type userAgenter interface {
	UserAgent() string
}

// NewSession builds a Client that shares the browser page's cookies, user
// agent and signer, so API calls look like they come from the open tab.
// Calling it again after manual verification yields a fresh session.
func NewSession(page Page) (*Client, error) {
	if page == nil {
		return nil, ErrBrowserNotReady
	}
	cookies, err := page.Cookies()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	c := New()
	c.AddCookies(cookies)
	if ua, ok := page.(userAgenter); ok {
		c.WithUserAgent(ua.UserAgent())
	}
	if s, ok := page.(urlSigner); ok {
		c.WithSigner(s.SignURL)
	}
	return c, nil
}
