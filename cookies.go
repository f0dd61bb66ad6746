package douyin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

const cookieDomain = ".douyin.com"

// httpCookie converts a DevTools cookie. DevTools reports session cookies
// with expires -1; they keep a zero Expires so cookie jars do not treat them
// as already expired.
func httpCookie(c *proto.NetworkCookie) *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
	if !c.Session && c.Expires > 0 {
		hc.Expires = time.Unix(int64(c.Expires), 0)
	}
	return hc
}

// browserCookie converts a cookie for Network.setCookies. Cookies without
// a domain or path (for example read back from a cookie jar) are scoped to
// the whole site.
func browserCookie(c *http.Cookie) *proto.NetworkCookieParam {
	p := &proto.NetworkCookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
	}
	if p.Domain == "" {
		p.Domain = cookieDomain
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if !c.Expires.IsZero() {
		p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
	}
	return p
}

// savedCookie is the on-disk form of a session cookie. Expires is unix
// seconds, 0 for session cookies.
type savedCookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  int64  `json:"expires,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
}

// SaveCookieFile writes cookies to path as JSON, keeping their attributes.
func SaveCookieFile(path string, cookies []*http.Cookie) error {
	out := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		sc := savedCookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			Secure: c.Secure, HTTPOnly: c.HttpOnly,
		}
		if !c.Expires.IsZero() {
			sc.Expires = c.Expires.Unix()
		}
		out = append(out, sc)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadCookieFile reads a file written by SaveCookieFile. Cookies that have
// expired since are dropped.
func LoadCookieFile(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookies file: %w", err)
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("unmarshal cookies: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, sc := range saved {
		c := &http.Cookie{
			Name: sc.Name, Value: sc.Value, Domain: sc.Domain, Path: sc.Path,
			Secure: sc.Secure, HttpOnly: sc.HTTPOnly,
		}
		if sc.Expires > 0 {
			c.Expires = time.Unix(sc.Expires, 0)
			if c.Expires.Before(now) {
				continue
			}
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// Cookies returns the name/value pairs the client sends to douyin.com.
func (c *Client) Cookies() []*http.Cookie {
	return c.client.Jar.Cookies(douyinURL)
}

// AddCookies stores session cookies and picks up the msToken the API
// expects as a query parameter.
func (c *Client) AddCookies(cookies []*http.Cookie) {
	c.client.Jar.SetCookies(douyinURL, cookies)
	for _, ck := range cookies {
		if ck.Name == "msToken" {
			c.msToken = ck.Value
		}
	}
}
