package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// SignalContext is cancelled on the first SIGINT or SIGTERM. A second signal exits
// the process straight away in case shutdown gets stuck.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case received := <-signals:
			log.Info().Str("signal", received.String()).Msg("Shutting down")
			cancel()
		case <-ctx.Done():
			signal.Stop(signals)
			return
		}

		<-signals
		os.Exit(1)
	}()

	return ctx, cancel
}
