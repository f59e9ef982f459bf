package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"broker-removal/internal/config"
	"broker-removal/internal/di"
	"broker-removal/internal/infrastructure/console"
	"broker-removal/internal/infrastructure/env"
)

const usage = `usage: removal <command> [flags] [args]

commands:
  serve                 run the HTTP API
  run USER_ID...        submit automated removals for each user
  summary USER_ID       print the removal summary of a user
  instructions USER_ID  print the manual removal checklist of a user
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(env.NewEnvService())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Initialization failed: %v\n", err)
		os.Exit(1)
	}

	code := dispatch(ctx, container, console.New(os.Stdout), os.Args[1], os.Args[2:])
	container.Close()
	os.Exit(code)
}

func dispatch(ctx context.Context, c *di.Container, out *console.Console, cmd string, args []string) int {
	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, c, args)
	case "run":
		err = runBatches(ctx, c, out, args)
	case "summary":
		err = summary(ctx, c, out, args)
	case "instructions":
		err = instructions(ctx, c, out, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		c.Logger.Error("Command failed", "command", cmd, "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}
