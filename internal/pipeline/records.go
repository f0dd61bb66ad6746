package pipeline

import (
	"strconv"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/store"
)

// UserRecord flattens a profile into a users row. Absent counters become
// blank cells.
func UserRecord(account, secUID string, u douyin.UserProfile) store.Row {
	return store.Row{
		"account":         account,
		"sec_uid":         secUID,
		"nickname":        u.Nickname,
		"signature":       u.Signature,
		"follower_count":  formatCount(u.FollowerCount),
		"following_count": formatCount(u.FollowingCount),
		"total_favorited": formatCount(u.TotalFavorited),
		"aweme_count":     formatCount(u.AwemeCount),
		"unique_id":       u.UniqueID,
		"short_id":        u.ShortID,
	}
}

// PostRecord flattens a post into a posts row.
func PostRecord(account, secUID string, p douyin.Post) store.Row {
	return store.Row{
		"account":       account,
		"sec_uid":       secUID,
		"aweme_id":      p.AwemeID,
		"desc":          p.Desc,
		"create_time":   formatCount(p.CreateTime),
		"comment_count": formatCount(p.Stats.CommentCount),
		"digg_count":    formatCount(p.Stats.DiggCount),
		"share_count":   formatCount(p.Stats.ShareCount),
		"collect_count": formatCount(p.Stats.CollectCount),
		"video_url":     p.VideoURL(),
		"cover_url":     p.CoverURL(),
	}
}

func formatCount(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
