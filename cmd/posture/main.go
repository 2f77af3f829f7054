// Command posture audits an AWS account's storage, identity and audit-trail
// posture and writes a single JSON report.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The first signal truncates the audit; restoring default handling lets
	// a second one kill the process.
	go func() {
		<-ctx.Done()
		stop()
	}()

	a := newApp(os.Stdout, os.Stderr)
	defer a.shutdown()

	err := newRootCmd(a).ExecuteContext(ctx)
	return a.exitCode(err)
}
