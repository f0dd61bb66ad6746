package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/store"
)

type fakeNavigator struct {
	urls []string
	err  error
}

func (n *fakeNavigator) Navigate(ctx context.Context, url string) error {
	n.urls = append(n.urls, url)
	return n.err
}

// fakeAPI backs every client handed out by its session factory.
type fakeAPI struct {
	users     map[string]douyin.UserInfoResponse
	posts     map[string][]douyin.Post
	postErrs  []error // consumed one per GetAllUserPosts call
	infoCalls int
	postCalls int
	sessions  int
}

func (a *fakeAPI) factory(ctx context.Context) (CrawlerClient, error) {
	a.sessions++
	return a, nil
}

func (a *fakeAPI) GetUserInfo(ctx context.Context, secUID string) (douyin.UserInfoResponse, error) {
	a.infoCalls++
	resp, ok := a.users[secUID]
	if !ok {
		return douyin.UserInfoResponse{}, douyin.ErrNotFound
	}
	return resp, nil
}

func (a *fakeAPI) GetAllUserPosts(ctx context.Context, secUID string) ([]douyin.Post, error) {
	a.postCalls++
	if len(a.postErrs) > 0 {
		err := a.postErrs[0]
		a.postErrs = a.postErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return a.posts[secUID], nil
}

type countingChallenge struct{ calls int }

func (c *countingChallenge) AwaitClearance(ctx context.Context, reason string) error {
	c.calls++
	return nil
}

func i64(n int64) *int64 { return &n }

func profile(nick string, followers int64) douyin.UserInfoResponse {
	return douyin.UserInfoResponse{User: douyin.UserProfile{
		Nickname:      nick,
		UniqueID:      nick,
		FollowerCount: i64(followers),
	}}
}

func post(id string, likes int64) douyin.Post {
	return douyin.Post{
		AwemeID:    id,
		Desc:       "post " + id,
		CreateTime: i64(1700000000),
		Stats:      douyin.PostStats{DiggCount: i64(likes)},
		PlayURLs:   []string{"https://v3-web.douyinvod.com/x.mp4", "https://v5-dy-o-abtest.zjcdn.com/" + id + ".mp4"},
		CoverURLs:  []string{"https://p3.douyinpic.com/" + id + ".jpeg"},
	}
}

type collectFixture struct {
	input, users, posts store.Backend
	nav                 *fakeNavigator
	api                 *fakeAPI
	challenge           *countingChallenge
}

func newCollectFixture(t *testing.T, rows ...store.Row) *collectFixture {
	t.Helper()
	dir := t.TempDir()
	f := &collectFixture{
		input:     store.NewCSV(filepath.Join(dir, "accounts.csv")),
		users:     store.NewCSV(filepath.Join(dir, "out", "douyin_user_info.csv")),
		posts:     store.NewCSV(filepath.Join(dir, "out", "douyin_posts_info.csv")),
		nav:       &fakeNavigator{},
		api:       &fakeAPI{users: map[string]douyin.UserInfoResponse{}, posts: map[string][]douyin.Post{}},
		challenge: &countingChallenge{},
	}
	writeAccounts(t, f.input, []string{store.ColAccount, store.ColSecUID}, rows...)
	return f
}

func (f *collectFixture) run(t *testing.T) (CollectStats, error) {
	t.Helper()
	c := NewCollector(f.nav, f.api.factory, f.challenge, f.users, f.posts, zerolog.Nop()).WithSettleDelay(0)
	return c.Run(context.Background(), f.input)
}

func account(acc, secUID string) store.Row {
	return store.Row{store.ColAccount: acc, store.ColSecUID: secUID}
}

func TestCollector_Run(t *testing.T) {
	f := newCollectFixture(t,
		account("a(douyin)", "S1"),
		account("no-id(douyin)", ""),
		account("b(douyin)", "S2"),
	)
	f.api.users["S1"] = profile("alice", 10)
	f.api.users["S2"] = profile("bob", 20)
	f.api.posts["S1"] = []douyin.Post{post("p1", 5), post("p2", 6)}
	f.api.posts["S2"] = []douyin.Post{post("p3", 7)}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.UsersAdded)
	assert.Equal(t, 3, stats.PostsAdded)
	assert.Equal(t, 1, f.api.sessions, "one session is reused across rows")
	assert.Equal(t, []string{
		"https://www.douyin.com/user/S1",
		"https://www.douyin.com/user/S2",
	}, f.nav.urls)

	users, err := f.users.Load()
	require.NoError(t, err)
	assert.Equal(t, store.UserSchema.Columns, users.Columns())
	require.Equal(t, 2, users.Len())
	assert.Equal(t, "a(douyin)", users.Get(0, "account"))
	assert.Equal(t, "S1", users.Get(0, "sec_uid"))
	assert.Equal(t, "alice", users.Get(0, "nickname"))
	assert.Equal(t, "10", users.Get(0, "follower_count"))
	assert.Equal(t, "", users.Get(0, "following_count"), "absent counter is blank")

	posts, err := f.posts.Load()
	require.NoError(t, err)
	assert.Equal(t, store.PostSchema.Columns, posts.Columns())
	require.Equal(t, 3, posts.Len())
	assert.Equal(t, "p1", posts.Get(0, "aweme_id"))
	assert.Equal(t, "S1", posts.Get(0, "sec_uid"))
	assert.Equal(t, "5", posts.Get(0, "digg_count"))
	assert.Equal(t, "1700000000", posts.Get(0, "create_time"))
	assert.Equal(t, "https://v5-dy-o-abtest.zjcdn.com/p1.mp4", posts.Get(0, "video_url"))
	assert.Equal(t, "https://p3.douyinpic.com/p1.jpeg", posts.Get(0, "cover_url"))
}

func TestCollector_RerunIsNoop(t *testing.T) {
	f := newCollectFixture(t, account("a(douyin)", "S1"))
	f.api.users["S1"] = profile("alice", 10)
	f.api.posts["S1"] = []douyin.Post{post("p1", 5)}

	_, err := f.run(t)
	require.NoError(t, err)
	usersBefore, err := os.ReadFile(f.users.Path())
	require.NoError(t, err)
	postsBefore, err := os.ReadFile(f.posts.Path())
	require.NoError(t, err)

	f.api.infoCalls, f.api.postCalls, f.nav.urls = 0, 0, nil
	stats, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, f.api.infoCalls)
	assert.Zero(t, f.api.postCalls)
	assert.Empty(t, f.nav.urls)

	usersAfter, err := os.ReadFile(f.users.Path())
	require.NoError(t, err)
	postsAfter, err := os.ReadFile(f.posts.Path())
	require.NoError(t, err)
	assert.Equal(t, usersBefore, usersAfter)
	assert.Equal(t, postsBefore, postsAfter)
}

func TestCollector_DedupesPosts(t *testing.T) {
	f := newCollectFixture(t,
		account("a(douyin)", "S1"),
		account("b(douyin)", "S2"),
	)
	f.api.users["S1"] = profile("alice", 1)
	f.api.users["S2"] = profile("bob", 2)
	// p1 appears twice in one listing and again under another account
	f.api.posts["S1"] = []douyin.Post{post("p1", 1), post("p1", 1), post("p2", 2)}
	f.api.posts["S2"] = []douyin.Post{post("p1", 1)}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PostsAdded)
	assert.Equal(t, 2, stats.TotalPosts)

	posts, err := f.posts.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, posts.Len())
}

func TestCollector_BlockedRetriesOnce(t *testing.T) {
	f := newCollectFixture(t, account("a(douyin)", "S1"))
	f.api.users["S1"] = profile("alice", 1)
	f.api.posts["S1"] = []douyin.Post{post("p1", 1)}
	f.api.postErrs = []error{douyin.ErrAccountBlocked}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, f.challenge.calls)
	assert.Equal(t, 1, stats.Retries)
	assert.Equal(t, 2, f.api.postCalls)
	assert.Equal(t, 2, f.api.sessions, "a fresh session follows verification")
	assert.Equal(t, 1, stats.PostsAdded)
}

func TestCollector_BlockedTwiceFailsRow(t *testing.T) {
	f := newCollectFixture(t, account("a(douyin)", "S1"))
	f.api.users["S1"] = profile("alice", 1)
	f.api.postErrs = []error{douyin.ErrAccountBlocked, douyin.ErrAccountBlocked}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, f.challenge.calls)
	assert.Equal(t, 2, f.api.postCalls, "no second retry")
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.UsersAdded)

	_, statErr := os.Stat(f.users.Path())
	assert.True(t, os.IsNotExist(statErr), "failed row is not saved")
}

func TestCollector_OtherPostErrorKeepsProfile(t *testing.T) {
	f := newCollectFixture(t, account("a(douyin)", "S1"))
	f.api.users["S1"] = profile("alice", 1)
	f.api.postErrs = []error{errors.New("connection reset")}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UsersAdded)
	assert.Zero(t, stats.PostsAdded)
	assert.Zero(t, f.challenge.calls)

	users, err := f.users.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, users.Len())
	_, statErr := os.Stat(f.posts.Path())
	assert.True(t, os.IsNotExist(statErr), "posts table untouched without new posts")
}

func TestCollector_NonZeroStatusFailsRow(t *testing.T) {
	f := newCollectFixture(t,
		account("a(douyin)", "S1"),
		account("b(douyin)", "S2"),
	)
	f.api.users["S1"] = douyin.UserInfoResponse{StatusCode: 2053, StatusMsg: "user not found"}
	f.api.users["S2"] = profile("bob", 2)

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.UsersAdded)
	assert.Equal(t, 1, f.api.postCalls, "posts are not listed for a failed profile")

	users, err := f.users.Load()
	require.NoError(t, err)
	require.Equal(t, 1, users.Len())
	assert.Equal(t, "S2", users.Get(0, "sec_uid"))
}

func TestCollector_NavigationErrorContinues(t *testing.T) {
	f := newCollectFixture(t, account("a(douyin)", "S1"))
	f.nav.err = errors.New("net::ERR_TIMED_OUT")

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, f.api.infoCalls)
}

func TestCollector_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	input := store.NewCSV(filepath.Join(dir, "accounts.csv"))
	writeAccounts(t, input, []string{store.ColAccount}, store.Row{store.ColAccount: "a(douyin)"})

	api := &fakeAPI{}
	c := NewCollector(&fakeNavigator{}, api.factory, nil,
		store.NewCSV(filepath.Join(dir, "users.csv")),
		store.NewCSV(filepath.Join(dir, "posts.csv")),
		zerolog.Nop())
	_, err := c.Run(context.Background(), input)
	assert.ErrorIs(t, err, store.ErrMissingColumn)
	assert.Zero(t, api.sessions)
}
