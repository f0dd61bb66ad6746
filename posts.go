package douyin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const postsPageSize = 18

// GetAllUserPosts pages through every post of the account and returns them
// concatenated. On error the posts collected so far are returned with it.
func (c *Client) GetAllUserPosts(ctx context.Context, secUID string) ([]Post, error) {
	if secUID == "" {
		return nil, fmt.Errorf("get all user posts: sec_uid is required")
	}

	var all []Post
	var cursor int64

	for {
		posts, next, hasMore, err := c.GetUserPosts(ctx, secUID, cursor)
		if err != nil {
			return all, fmt.Errorf("get all user posts %q: %w", secUID, err)
		}
		all = append(all, posts...)
		// A cursor that does not advance would loop forever.
		if !hasMore || next == cursor {
			break
		}
		cursor = next
	}
	return all, nil
}

// GetUserPosts fetches one page of posts starting at maxCursor. It returns
// the posts, the cursor of the next page and whether more pages exist.
func (c *Client) GetUserPosts(ctx context.Context, secUID string, maxCursor int64) ([]Post, int64, bool, error) {
	if err := c.postsPace.wait(ctx); err != nil {
		return nil, 0, false, err
	}

	params := url.Values{
		"sec_user_id":                 {secUID},
		"count":                       {strconv.Itoa(postsPageSize)},
		"max_cursor":                  {strconv.FormatInt(maxCursor, 10)},
		"locate_query":                {"false"},
		"publish_video_strategy_type": {"2"},
	}
	var raw postListResponse
	if err := c.getJSON(ctx, "/aweme/v1/web/aweme/post/", params, &raw); err != nil {
		return nil, 0, false, err
	}
	if raw.StatusCode != 0 {
		return nil, 0, false, fmt.Errorf("%w: post list status_code %d", ErrInvalidResponse, raw.StatusCode)
	}

	posts := make([]Post, 0, len(raw.AwemeList))
	for _, a := range raw.AwemeList {
		posts = append(posts, parsePost(a))
	}
	return posts, int64(raw.MaxCursor), bool(raw.HasMore), nil
}
