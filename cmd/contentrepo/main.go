// Command contentrepo runs the standalone append-only content store
// (spec.md §2's "Content repository"): a single writer task owns one
// file, and a TCP listener turns each framed chunk it receives into a
// write request, replying with the offset at which the record begins.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rusk-dataflow/rusk/core/contentrepo"
	"github.com/rusk-dataflow/rusk/core/logger"
	"github.com/rusk-dataflow/rusk/core/metrics"
	"github.com/rusk-dataflow/rusk/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.MustLoad()

	log := logger.New(logger.WithProduction("contentrepo"))
	logger.SetAsDefault(log)

	reg := prometheus.NewRegistry()
	repoMetrics := metrics.NewContentRepo(reg)

	repo, err := contentrepo.Open(
		cfg.ContentRepository.BasePath,
		cfg.ContentRepository.FileNamePrefix,
		contentrepo.WithLogger(log),
		contentrepo.WithMetrics(repoMetrics),
	)
	if err != nil {
		return fmt.Errorf("opening content repository: %w", err)
	}

	addr := ":" + strconv.Itoa(int(cfg.ContentRepository.ServerPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := contentrepo.NewServer(ln, repo, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error {
		repo.Run(gctx)
		if gctx.Err() == nil {
			return errors.New("content repository writer stopped")
		}
		return nil
	})

	return g.Wait()
}
