package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/seethroughlab/familliar-sub003/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Serve runs the download scheduler and its HTTP API until interrupted.
// Other terminals talk to it with `familliar jobs` or plain HTTP.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	sched, err := r.buildScheduler(cmd.String("dir"))
	if err != nil {
		return err
	}
	defer sched.Close()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewDownloadsHandler(sched.registry, sched.engine, sched.index, r.logger))

	srv := server.New(addr, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("daemon starting", "addr", addr)
	r.writePlain("Familliar daemon listening on http://%s\n", addr)
	r.writePlain("Submit downloads with POST /api/downloads or follow them with `familliar jobs`.\n")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	r.writePlain("\n✓ Daemon stopped\n")
	return nil
}
