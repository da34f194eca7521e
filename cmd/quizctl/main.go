// quizctl manages quizzes through the mock dataset or the quiz API.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/starquake/quizai/cmd/quizctl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
