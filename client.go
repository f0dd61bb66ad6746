package douyin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	defaultBaseURL   = "https://www.douyin.com"
)

var douyinURL, _ = url.Parse(defaultBaseURL)

// Client talks to the Douyin web API over plain HTTP, reusing the cookies of
// a browser session. It is the crawler client the ingestion pipeline drives.
type Client struct {
	client    *http.Client
	proxy     string
	userAgent string
	baseURL   string // defaults to "https://www.douyin.com"

	// signFunc appends anti-bot signature params to a raw URL. The default
	// returns the URL unchanged; the browser provides an in-page signer.
	signFunc func(rawURL string) (string, error)

	profilePace pacer
	postsPace   pacer

	// Session token mirrored from the msToken cookie.
	msToken string
}

// New creates a Client with an empty cookie jar, no proxy and 1s spacing
// between calls to the same endpoint.
func New() *Client {
	jar, _ := cookiejar.New(nil)
	t, _ := transportFor("")
	c := &Client{
		client: &http.Client{
			Jar:       jar,
			Timeout:   15 * time.Second,
			Transport: t,
		},
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		profilePace: pacer{delay: time.Second},
		postsPace:   pacer{delay: time.Second},
	}
	c.signFunc = identitySigner
	return c
}

func identitySigner(rawURL string) (string, error) { return rawURL, nil }

// WithProfileDelay sets the minimum delay between profile requests.
func (c *Client) WithProfileDelay(d time.Duration) *Client {
	c.profilePace.delay = d
	return c
}

// WithPostsDelay sets the minimum delay between post list page requests.
func (c *Client) WithPostsDelay(d time.Duration) *Client {
	c.postsPace.delay = d
	return c
}

// WithSigner replaces the URL signer. A nil signer restores the identity signer.
func (c *Client) WithSigner(sign func(rawURL string) (string, error)) *Client {
	if sign == nil {
		sign = identitySigner
	}
	c.signFunc = sign
	return c
}

// WithUserAgent overrides the User-Agent header, usually to match the browser.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// SetProxy routes API calls through the same proxy the browser uses, so the
// session cookies are presented from one exit address. "" goes direct.
func (c *Client) SetProxy(proxyAddr string) error {
	t, err := transportFor(proxyAddr)
	if err != nil {
		return err
	}
	c.client.Transport = t
	c.proxy = proxyAddr
	return nil
}

// transportFor builds a pooled transport, optionally behind an http(s) or
// socks5 proxy.
func transportFor(proxyAddr string) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	t := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if proxyAddr == "" {
		return t, nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		d, err := proxy.SOCKS5("tcp", u.Host, auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 proxy: dialer has no DialContext")
		}
		t.DialContext = cd.DialContext
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}
	return t, nil
}

// get fetches rawURL with the headers the web app sends and returns the
// body. Douyin answers a flagged session with 200 and an empty or "blocked"
// body rather than an error status.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", defaultBaseURL+"/")
	req.Header.Set("Origin", defaultBaseURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: http status %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) == 0 || string(body) == "blocked" {
		return nil, ErrAccountBlocked
	}
	return body, nil
}

// getJSON signs and fetches an API path with the common web params and
// decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	q := commonParams()
	for k, vs := range params {
		q[k] = vs
	}
	if c.msToken != "" {
		q.Set("msToken", c.msToken)
	}

	signedURL, err := c.signFunc(c.baseURL + path + "?" + q.Encode())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	body, err := c.get(ctx, signedURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// commonParams are the query params the Douyin web app sends on every call.
func commonParams() url.Values {
	return url.Values{
		"device_platform": {"webapp"},
		"aid":             {"6383"},
		"channel":         {"channel_pc_web"},
		"version_code":    {"190600"},
		"version_name":    {"19.6.0"},
		"cookie_enabled":  {"true"},
		"platform":        {"PC"},
		"pc_client_type":  {"1"},
	}
}
