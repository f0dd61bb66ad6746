package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/store"
)

const profileBaseURL = "https://www.douyin.com/user/"

// Navigator opens pages in the shared browser tab.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// CrawlerClient is the API surface the collector needs.
type CrawlerClient interface {
	GetUserInfo(ctx context.Context, secUID string) (douyin.UserInfoResponse, error)
	GetAllUserPosts(ctx context.Context, secUID string) ([]douyin.Post, error)
}

// SessionFactory creates a crawler client bound to the current browser
// session. It is called again after manual verification so the new client
// carries the refreshed cookies.
type SessionFactory func(ctx context.Context) (CrawlerClient, error)

// CollectStats summarizes one collection pass.
type CollectStats struct {
	Rows       int
	Skipped    int // blank sec_uid or already collected
	Failed     int
	UsersAdded int
	PostsAdded int
	Retries    int
	TotalUsers int
	TotalPosts int
}

// Collector fetches profile and post metadata for every resolved account and
// appends what is new to the users and posts tables.
type Collector struct {
	nav        Navigator
	newSession SessionFactory
	challenge  douyin.ChallengeHandler
	users      store.Backend
	posts      store.Backend
	log        zerolog.Logger
	settle     time.Duration

	client CrawlerClient
}

// NewCollector wires a collector. users and posts are the accumulated
// output tables; they are created with the fixed schemas when absent.
func NewCollector(nav Navigator, newSession SessionFactory, challenge douyin.ChallengeHandler, users, posts store.Backend, log zerolog.Logger) *Collector {
	if challenge == nil {
		challenge = douyin.NopChallenge{}
	}
	return &Collector{
		nav:        nav,
		newSession: newSession,
		challenge:  challenge,
		users:      users,
		posts:      posts,
		log:        log,
		settle:     3 * time.Second,
	}
}

// WithSettleDelay sets the pause after opening a profile page.
func (c *Collector) WithSettleDelay(d time.Duration) *Collector {
	c.settle = d
	return c
}

// Run processes input row by row. Per-row failures are logged and skipped;
// only unreadable tables or missing input columns abort the run.
func (c *Collector) Run(ctx context.Context, input store.Backend) (CollectStats, error) {
	var stats CollectStats

	c.log.Info().Str("path", input.Path()).Msg("reading accounts sheet")
	in, err := LoadInput(input, CollectColumns...)
	if err != nil {
		return stats, err
	}

	users, err := store.Open(c.users, store.UserSchema)
	if err != nil {
		return stats, err
	}
	c.logOpened("users", users)

	posts, err := store.Open(c.posts, store.PostSchema)
	if err != nil {
		return stats, err
	}
	c.logOpened("posts", posts)

	stats.Rows = in.Len()
	var runErr error

	for i := 0; i < in.Len(); i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		secUID := in.Get(i, store.ColSecUID)
		if secUID == "" {
			stats.Skipped++
			continue
		}
		log := c.log.With().Int("row", i+1).Str("sec_uid", secUID).Logger()
		if users.Contains(secUID) {
			stats.Skipped++
			log.Info().Msg("user already collected, skipping")
			continue
		}

		added, err := c.collectRow(ctx, log, in.Get(i, store.ColAccount), secUID, users, posts, &stats)
		if err != nil {
			stats.Failed++
			log.Error().Err(err).Msg("row failed")
			continue
		}
		stats.UsersAdded++
		stats.PostsAdded += added
	}

	stats.TotalUsers = users.Len()
	stats.TotalPosts = posts.Len()
	c.log.Info().
		Int("users_added", stats.UsersAdded).
		Int("posts_added", stats.PostsAdded).
		Int("failed", stats.Failed).
		Int("total_users", stats.TotalUsers).
		Int("total_posts", stats.TotalPosts).
		Msg("collection finished")
	return stats, runErr
}

func (c *Collector) logOpened(name string, r *store.Repository) {
	if r.Created() {
		c.log.Info().Str("path", r.Path()).Msgf("starting new %s table", name)
		return
	}
	c.log.Info().Str("path", r.Path()).Int("rows", r.Len()).Msgf("loaded %s table", name)
}

// collectRow fetches and stores one account. It returns the number of new
// posts written.
func (c *Collector) collectRow(ctx context.Context, log zerolog.Logger, account, secUID string, users, posts *store.Repository, stats *CollectStats) (int, error) {
	profileURL := profileBaseURL + secUID
	log.Info().Str("url", profileURL).Msg("opening profile")
	if err := c.nav.Navigate(ctx, profileURL); err != nil {
		return 0, err
	}
	if err := sleepCtx(ctx, c.settle); err != nil {
		return 0, err
	}

	client, err := c.session(ctx, false)
	if err != nil {
		return 0, err
	}

	info, err := client.GetUserInfo(ctx, secUID)
	if err != nil {
		return 0, err
	}
	if !info.OK() {
		return 0, fmt.Errorf("user info status_code %d: %s", info.StatusCode, info.StatusMsg)
	}

	fetched, err := client.GetAllUserPosts(ctx, secUID)
	switch {
	case errors.Is(err, douyin.ErrAccountBlocked):
		log.Warn().Err(err).Msg("account blocked while listing posts")
		if err := c.challenge.AwaitClearance(ctx, "Account blocked, please complete verification in the browser."); err != nil {
			return 0, err
		}
		stats.Retries++
		client, err = c.session(ctx, true)
		if err != nil {
			return 0, err
		}
		fetched, err = client.GetAllUserPosts(ctx, secUID)
		if err != nil {
			return 0, fmt.Errorf("list posts after verification: %w", err)
		}
	case err != nil:
		log.Warn().Err(err).Msg("listing posts failed, saving profile only")
		fetched = nil
	}
	log.Info().Int("posts", len(fetched)).Msg("posts fetched")

	users.Insert(UserRecord(account, secUID, info.User))
	if err := users.Persist(); err != nil {
		return 0, err
	}
	log.Info().Str("path", users.Path()).Msg("saved user")

	added := 0
	for _, p := range fetched {
		if posts.Contains(p.AwemeID) {
			log.Debug().Str("aweme_id", p.AwemeID).Msg("post already stored, skipping")
			continue
		}
		if posts.Insert(PostRecord(account, secUID, p)) {
			added++
		}
	}
	if added == 0 {
		log.Info().Msg("no new posts")
		return 0, nil
	}
	if err := posts.Persist(); err != nil {
		return 0, err
	}
	log.Info().Int("new_posts", added).Str("path", posts.Path()).Msg("saved posts")
	return added, nil
}

// session returns the current crawler client, creating it on first use or
// when fresh is set.
func (c *Collector) session(ctx context.Context, fresh bool) (CrawlerClient, error) {
	if c.client != nil && !fresh {
		return c.client, nil
	}
	client, err := c.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create crawler session: %w", err)
	}
	c.client = client
	return client, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
