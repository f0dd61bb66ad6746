// Command enrich fills the douyin_user_sec_id column of the accounts sheet.
package main

import (
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
	input, err := store.ForPath(env.Config.InputPath)
	if err != nil {
		return err
	}

	// Fail on a bad sheet before starting Chrome.
	if _, err := pipeline.LoadInput(input, pipeline.EnrichColumns...); err != nil {
		return err
	}

	b, err := env.LaunchBrowser()
	if err != nil {
		return err
	}
	defer env.CloseBrowser(b)

	r := douyin.NewResolver(b, douyin.NewConsoleChallenge(), env.Log).
		WithDelays(env.Config.Delays.SearchSettle, env.Config.Delays.Reload)

	stats, err := pipeline.NewEnricher(r, env.Log).Run(env.Ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("\ndone: %d resolved, %d not found, %d already resolved\n",
		stats.Resolved, stats.Unresolved, stats.Skipped)
	return nil
}
