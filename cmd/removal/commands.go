package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"broker-removal/internal/di"
	"broker-removal/internal/infrastructure/console"

	"github.com/juju/gnuflag"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, c *di.Container, args []string) error {
	f := gnuflag.NewFlagSet("serve", gnuflag.ContinueOnError)
	addr := f.String("addr", c.Config.HTTPAddr, "listen address")
	if err := f.Parse(true, args); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("HTTP server listening", "addr", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runBatches(ctx context.Context, c *di.Container, out *console.Console, args []string) error {
	f := gnuflag.NewFlagSet("run", gnuflag.ContinueOnError)
	if err := f.Parse(true, args); err != nil {
		return err
	}
	users := f.Args()
	if len(users) == 0 {
		return errors.New("at least one USER_ID is required")
	}

	if len(users) == 1 {
		out.ShowBatchStart(users[0])
		outcomes, err := c.Service.RunAutomatedBatch(ctx, users[0])
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			out.ShowOutcome(o)
		}
		return nil
	}

	var failed int
	for userID, err := range c.Service.RunAutomatedBatches(ctx, users) {
		if err != nil {
			failed++
			out.ShowBatchError(userID, err)
		}
	}
	for _, userID := range users {
		s, err := c.Service.GetSummary(ctx, userID)
		if err != nil {
			continue
		}
		out.ShowSummary(userID, s)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed", failed, len(users))
	}
	return nil
}

func summary(ctx context.Context, c *di.Container, out *console.Console, args []string) error {
	userID, err := singleUser("summary", args)
	if err != nil {
		return err
	}
	s, err := c.Service.GetSummary(ctx, userID)
	if err != nil {
		return err
	}
	out.ShowSummary(userID, s)
	return nil
}

func instructions(ctx context.Context, c *di.Container, out *console.Console, args []string) error {
	userID, err := singleUser("instructions", args)
	if err != nil {
		return err
	}
	list, err := c.Service.ManualInstructions(ctx, userID)
	if err != nil {
		return err
	}
	out.ShowChecklist(list)
	return nil
}

func singleUser(name string, args []string) (string, error) {
	f := gnuflag.NewFlagSet(name, gnuflag.ContinueOnError)
	if err := f.Parse(true, args); err != nil {
		return "", err
	}
	if f.NArg() != 1 {
		return "", fmt.Errorf("%s takes exactly one USER_ID", name)
	}
	return f.Arg(0), nil
}
