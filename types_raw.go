package douyin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Profile API response.

type userProfileResponse struct {
	StatusCode int            `json:"status_code"`
	StatusMsg  string         `json:"status_msg"`
	User       rawUserProfile `json:"user"`
}

type rawUserProfile struct {
	UID            flexString `json:"uid"`
	SecUID         string     `json:"sec_uid"`
	UniqueID       flexString `json:"unique_id"`
	ShortID        flexString `json:"short_id"`
	Nickname       string     `json:"nickname"`
	Signature      string     `json:"signature"`
	FollowerCount  *flexInt   `json:"follower_count"`
	FollowingCount *flexInt   `json:"following_count"`
	TotalFavorited *flexInt   `json:"total_favorited"`
	AwemeCount     *flexInt   `json:"aweme_count"`
}

// Post list API response.

type postListResponse struct {
	StatusCode int        `json:"status_code"`
	HasMore    flexBool   `json:"has_more"`
	MaxCursor  flexInt    `json:"max_cursor"`
	AwemeList  []rawAweme `json:"aweme_list"`
}

type rawAweme struct {
	AwemeID    flexString    `json:"aweme_id"`
	Desc       string        `json:"desc"`
	CreateTime *flexInt      `json:"create_time"`
	Statistics rawStatistics `json:"statistics"`
	Video      rawVideo      `json:"video"`
}

type rawStatistics struct {
	CommentCount *flexInt `json:"comment_count"`
	DiggCount    *flexInt `json:"digg_count"`
	ShareCount   *flexInt `json:"share_count"`
	CollectCount *flexInt `json:"collect_count"`
}

type rawVideo struct {
	PlayAddr rawURLList `json:"play_addr"`
	Cover    rawURLList `json:"cover"`
}

type rawURLList struct {
	URLList []string `json:"url_list"`
}

// Discover search response, intercepted from the search page.

type searchUserResponse struct {
	UserList []rawSearchUser `json:"user_list"`
}

type rawSearchUser struct {
	UserInfo rawSearchUserInfo `json:"user_info"`
}

type rawSearchUserInfo struct {
	UniqueID flexString `json:"unique_id"`
	SecUID   string     `json:"sec_uid"`
	Nickname string     `json:"nickname"`
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			return fmt.Errorf("flexInt: %q is not a number", b)
		}
		n = int64(fl)
	}
	*f = flexInt(n)
	return nil
}

func (f *flexInt) ptr() *int64 {
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

// flexString decodes a JSON string or a bare number (short_id, uid and
// aweme_id switch between the two).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flexString: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// flexBool decodes true/false as well as the 0/1 integers the API uses.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", "null", `"0"`, `"false"`, `""`:
		*f = false
	default:
		return fmt.Errorf("flexBool: unexpected value %s", b)
	}
	return nil
}

// parseUserProfile converts the raw profile into the public type.
func parseUserProfile(raw rawUserProfile) UserProfile {
	return UserProfile{
		UID:            string(raw.UID),
		SecUID:         raw.SecUID,
		UniqueID:       string(raw.UniqueID),
		ShortID:        string(raw.ShortID),
		Nickname:       raw.Nickname,
		Signature:      raw.Signature,
		FollowerCount:  raw.FollowerCount.ptr(),
		FollowingCount: raw.FollowingCount.ptr(),
		TotalFavorited: raw.TotalFavorited.ptr(),
		AwemeCount:     raw.AwemeCount.ptr(),
	}
}

// parsePost converts a raw aweme into the public Post type.
func parsePost(raw rawAweme) Post {
	return Post{
		AwemeID:    string(raw.AwemeID),
		Desc:       raw.Desc,
		CreateTime: raw.CreateTime.ptr(),
		Stats: PostStats{
			CommentCount: raw.Statistics.CommentCount.ptr(),
			DiggCount:    raw.Statistics.DiggCount.ptr(),
			ShareCount:   raw.Statistics.ShareCount.ptr(),
			CollectCount: raw.Statistics.CollectCount.ptr(),
		},
		PlayURLs:  nonNil(raw.Video.PlayAddr.URLList),
		CoverURLs: nonNil(raw.Video.Cover.URLList),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
