// Application server is the quiz API server.
package main

import (
	"context"
	"os"

	"github.com/starquake/quizai/cmd/server/app"
	"github.com/starquake/quizai/internal/must"
)

func main() {
	ctx := context.Background()
	must.OK(app.Run(ctx, os.Getenv, os.Stdout, nil))
}
