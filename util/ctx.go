package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// ReqContext returns a context cancelled on SIGINT/SIGTERM, scoped to the
// lifetime of the command.
func ReqContext(cctx *cli.Context) context.Context {
	ctx, cancel := context.WithCancel(cctx.Context)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigCh
		cancel()
		signal.Stop(sigCh)
	}()

	return ctx
}
