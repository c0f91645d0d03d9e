// SPDX-License-Identifier: MIT

// The edge-ai-api daemon: control plane for video analytics pipeline
// instances. It serves the HTTP API, owns the instance manager and the
// node pool, and persists its state as JSON under the storage directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cvedix/edge-ai-api/internal/api"
	"github.com/cvedix/edge-ai-api/internal/builder"
	"github.com/cvedix/edge-ai-api/internal/config"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/factory"
	"github.com/cvedix/edge-ai-api/internal/instance"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/models"
	"github.com/cvedix/edge-ai-api/internal/nodes"
	"github.com/cvedix/edge-ai-api/internal/platform"
	"github.com/cvedix/edge-ai-api/internal/securt"
	"github.com/cvedix/edge-ai-api/internal/solution"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to the JSON config file (default $EDGE_AI_CONFIG)")
	listen := flag.String("listen", "", "listen address override (host:port)")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{
		Level:   *logLevel,
		Service: "edge-ai-api",
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := *configPath
	if path == "" {
		path = os.Getenv("EDGE_AI_CONFIG")
	}
	cfg := config.New(path)

	probe := platform.NewProbe()
	logger.Info().
		Str("version", version).
		Str(log.FieldPlatform, probe.DetectPlatform()).
		Str(log.FieldPath, path).
		Msg("starting")

	resolver := models.NewResolver()
	templates := nodes.NewRegistry()
	solutions := solution.NewRegistry()

	pool := nodes.NewPool(templates)
	storageDir := cfg.GetString("system.storage_dir", "/opt/edge_ai_api/storage")
	if err := pool.Load(storageDir); err != nil {
		logger.Warn().Err(err).Str(log.FieldPath, storageDir).Msg("node snapshot load failed")
	}
	if total, _ := pool.Stats(); total == 0 {
		created := pool.CreateNodesFromDefaultSolutions(solutions)
		logger.Info().Int("created", created).Msg("seeded node pool from default solutions")
	}

	f := factory.New(cfg, probe, resolver)
	b := builder.New(solutions, templates, f, engine.NewInProc())
	mgr := instance.NewManager(cfg, b, instance.NewRegistry())
	facade := securt.NewManager(mgr)
	mgr.SetOnDelete(facade.OnCoreDelete)

	addr := *listen
	if addr == "" {
		host := cfg.GetString("system.web_server.host", "0.0.0.0")
		port := cfg.GetInt("system.web_server.port", 8080)
		addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(cfg, mgr, facade, pool, templates, solutions).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cfg.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown incomplete")
		}
		for _, rec := range mgr.List() {
			if rec.Running {
				if err := mgr.Stop(shutdownCtx, rec.InstanceID); err != nil {
					logger.Warn().Err(err).Str(log.FieldInstanceID, rec.InstanceID).
						Msg("instance stop failed during shutdown")
				}
			}
		}
		if err := pool.Save(storageDir); err != nil {
			logger.Warn().Err(err).Msg("node snapshot save failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("daemon stopped")
}
