package store

// Schema fixes the columns of an accumulated table and the column that
// identifies a record.
type Schema struct {
	Columns []string
	Key     string
	// Numeric columns are written as numbers by backends that have types.
	Numeric []string
}

// Input spreadsheet columns.
const (
	ColAccount = "Account"
	ColSecUID  = "douyin_user_sec_id"
)

// UserSchema is the layout of douyin_user_info.
var UserSchema = Schema{
	Columns: []string{
		"account", "sec_uid", "nickname", "signature",
		"follower_count", "following_count", "total_favorited",
		"aweme_count", "unique_id", "short_id",
	},
	Key:     "sec_uid",
	Numeric: []string{"follower_count", "following_count", "total_favorited", "aweme_count"},
}

// PostSchema is the layout of douyin_posts_info.
var PostSchema = Schema{
	Columns: []string{
		"account", "sec_uid", "aweme_id", "desc",
		"create_time", "comment_count", "digg_count",
		"share_count", "collect_count",
		"video_url", "cover_url",
	},
	Key:     "aweme_id",
	Numeric: []string{"create_time", "comment_count", "digg_count", "share_count", "collect_count"},
}
