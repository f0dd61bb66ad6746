// Command collect fetches profile and post metadata for every resolved
// account and appends new rows to the users and posts tables.
package main

import (
	"context"
	"fmt"
	"os"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/app"
	"github.com/RavensCloud/douyin-gofun/internal/pipeline"
	"github.com/RavensCloud/douyin-gofun/internal/store"
)

func main() {
	env, err := app.Start()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	env.Exit(run(env))
	env.Close()
}

func run(env *app.Env) error {
	cfg := env.Config

	input, err := store.ForPath(cfg.InputPath)
	if err != nil {
		return err
	}
	users, err := store.ForPath(cfg.UsersPath(), store.UserSchema.Numeric...)
	if err != nil {
		return err
	}
	posts, err := store.ForPath(cfg.PostsPath(), store.PostSchema.Numeric...)
	if err != nil {
		return err
	}

	// Fail on a bad sheet before starting Chrome.
	if _, err := pipeline.LoadInput(input, pipeline.CollectColumns...); err != nil {
		return err
	}

	b, err := env.LaunchBrowser()
	if err != nil {
		return err
	}
	defer env.CloseBrowser(b)

	newSession := func(ctx context.Context) (pipeline.CrawlerClient, error) {
		c, err := douyin.NewSession(b)
		if err != nil {
			return nil, err
		}
		if err := c.SetProxy(env.Proxy); err != nil {
			return nil, err
		}
		return c.WithProfileDelay(cfg.Delays.ProfileAPI).WithPostsDelay(cfg.Delays.PostsAPI), nil
	}

	collector := pipeline.NewCollector(b, newSession, douyin.NewConsoleChallenge(), users, posts, env.Log).
		WithSettleDelay(cfg.Delays.ProfileSettle)

	stats, err := collector.Run(env.Ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("\nusers stored: %d\nposts stored: %d\n", stats.TotalUsers, stats.TotalPosts)
	return nil
}
