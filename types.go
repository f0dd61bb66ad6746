package douyin

import "strings"

// PreferredCDN is the host fragment of the play address that serves a
// directly playable, watermark-free file.
const PreferredCDN = "v5-dy-o-abtest.zjcdn.com"

// UserProfile is a Douyin account profile.
//
// Defaulting rules: absent text fields are "", absent counters are nil so
// callers can tell "missing" from zero.
type UserProfile struct {
	UID            string
	SecUID         string
	UniqueID       string
	ShortID        string
	Nickname       string
	Signature      string
	FollowerCount  *int64
	FollowingCount *int64
	TotalFavorited *int64
	AwemeCount     *int64
}

// UserInfoResponse is the envelope of a profile lookup. StatusCode is 0 on
// success; anything else means the lookup failed even though HTTP succeeded.
type UserInfoResponse struct {
	StatusCode int
	StatusMsg  string
	User       UserProfile
}

// OK reports whether the API accepted the lookup.
func (r UserInfoResponse) OK() bool {
	return r.StatusCode == 0
}

// PostStats are the engagement counters of a post. Absent counters are nil.
type PostStats struct {
	CommentCount *int64
	DiggCount    *int64
	ShareCount   *int64
	CollectCount *int64
}

// Post is one published item (aweme) of an account.
type Post struct {
	AwemeID    string
	Desc       string
	CreateTime *int64 // unix seconds
	Stats      PostStats
	PlayURLs   []string // video.play_addr.url_list, empty when absent
	CoverURLs  []string // video.cover.url_list, empty when absent
}

// VideoURL returns the preferred direct play URL, or "" when none qualifies.
func (p Post) VideoURL() string {
	return PreferredVideoURL(p.PlayURLs)
}

// CoverURL returns the first cover image URL, or "".
func (p Post) CoverURL() string {
	if len(p.CoverURLs) == 0 {
		return ""
	}
	return p.CoverURLs[0]
}

// PreferredVideoURL picks the first URL served from PreferredCDN. Other
// candidates are usually watermarked or short-lived, so there is no fallback.
func PreferredVideoURL(urls []string) string {
	for _, u := range urls {
		if strings.Contains(u, PreferredCDN) {
			return u
		}
	}
	return ""
}
