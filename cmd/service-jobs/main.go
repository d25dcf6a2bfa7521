package main

import (
	"context"
	"os/signal"
	"syscall"

	"service-job-assignment/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.MustBuildContainer(ctx)
	app.NewAPIRunner().MustRun(container)
}
