package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	ctx, cancel := interruptContext(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, nil)))

	err := newRootCmd().ExecuteContext(ctx)

	cancel()

	if err != nil {
		// The failed envelope has already been printed.
		if errors.Is(err, errCallFailed) {
			os.Exit(1)
		}

		exitOnError(err)
	}
}
