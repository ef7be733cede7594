package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

type Entrypoint interface {
	io.Closer
	Init(ctx context.Context) error
	Run(ctx context.Context) error
}

func Run(ctx context.Context, e Entrypoint) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := e.Init(ctx); err != nil {
		return fmt.Errorf("entrypoint init error: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	var runErr error
	eg.Go(func() error {
		// a finished run shuts the app down as well
		defer cancel()

		runErr = e.Run(ctx)
		return runErr
	})

	// graceful shutdown
	eg.Go(func() error {
		<-ctx.Done()

		return e.Close()
	})

	err := eg.Wait()
	if err != nil {
		fmt.Printf("app was shut down, reason: %s\n", err.Error())
	}

	if runErr != nil {
		return runErr
	}
	return err
}
