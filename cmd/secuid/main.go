// Command secuid resolves the configured demo handle to its sec_uid.
package main

import (
	"fmt"
	"os"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/app"
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
	b, err := env.LaunchBrowser()
	if err != nil {
		return err
	}
	defer env.CloseBrowser(b)

	handle := env.Config.DemoHandle
	r := douyin.NewResolver(b, douyin.NewConsoleChallenge(), env.Log).
		WithDelays(env.Config.Delays.SearchSettle, env.Config.Delays.Reload)

	secUID, ok := r.ResolveSecUID(env.Ctx, handle)
	if err := env.Ctx.Err(); err != nil {
		return err
	}
	if !ok {
		fmt.Printf("no sec_uid found for %s\n", handle)
		return nil
	}
	fmt.Printf("sec_uid of %s is %s\n", handle, secUID)
	return nil
}
