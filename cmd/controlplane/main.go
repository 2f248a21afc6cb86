// Command controlplane hosts the processor registry and its HTTP API
// (spec.md §2's "Control service"): every processor runs as an
// independent concurrent task under this process, and operators drive
// lifecycle and topology through the routes core/registry exposes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rusk-dataflow/rusk/core/logger"
	"github.com/rusk-dataflow/rusk/core/metrics"
	"github.com/rusk-dataflow/rusk/core/registry"
	"github.com/rusk-dataflow/rusk/core/server"
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

	log := logger.New(logger.WithProduction("controlplane"))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	procMetrics := metrics.NewProcessor(reg)

	registryCtx, cancelRegistry := context.WithCancel(context.Background())
	defer cancelRegistry()

	rg := registry.New(registryCtx, cfg.RuskMain.ProcessorQueueLength,
		registry.WithLogger(log),
		registry.WithMetrics(procMetrics),
	)

	mux := rg.Mux(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := ":" + strconv.Itoa(int(cfg.RuskMain.ServerPort))
	srv := server.New(addr,
		server.WithLogger(log),
		server.WithOnShutdown(func() {
			cancelRegistry()
			rg.Wait()
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, mux))

	return g.Wait()
}
