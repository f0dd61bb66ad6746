package douyin

import (
	"context"
	"fmt"
	"net/url"
)

// GetUserInfo fetches the full profile of the account identified by secUID.
// A non-zero StatusCode is returned as-is; the caller decides how to treat it.
func (c *Client) GetUserInfo(ctx context.Context, secUID string) (UserInfoResponse, error) {
	if secUID == "" {
		return UserInfoResponse{}, fmt.Errorf("get user info: sec_uid is required")
	}

	if err := c.profilePace.wait(ctx); err != nil {
		return UserInfoResponse{}, err
	}

	params := url.Values{
		"sec_user_id":                 {secUID},
		"publish_video_strategy_type": {"2"},
		"personal_center_strategy":    {"1"},
	}
	var raw userProfileResponse
	if err := c.getJSON(ctx, "/aweme/v1/web/user/profile/other/", params, &raw); err != nil {
		return UserInfoResponse{}, fmt.Errorf("get user info %q: %w", secUID, err)
	}

	user := parseUserProfile(raw.User)
	if user.SecUID == "" {
		user.SecUID = secUID
	}
	return UserInfoResponse{
		StatusCode: raw.StatusCode,
		StatusMsg:  raw.StatusMsg,
		User:       user,
	}, nil
}
