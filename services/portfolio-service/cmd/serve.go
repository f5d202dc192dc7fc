package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/app"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/config"
	"github.com/vasapolrittideah/portfolio-api/shared/discovery"
	"github.com/vasapolrittideah/portfolio-api/shared/logger"
	"github.com/vasapolrittideah/portfolio-api/shared/utilities"
)

const readHeaderTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := application.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to release resources")
		}
	}()

	router, err := application.Router()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	var grpcServer *grpc.Server
	var grpcListener net.Listener
	if cfg.GRPC.Addr != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		grpcServer = grpc.NewServer()
	}

	registrar, err := discovery.NewRegistrar(cfg.Consul, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.Environment).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcServer != nil {
		healthServer := utilities.RegisterHealthServer(grpcServer, cfg.Consul.ServiceName)

		g.Go(func() error {
			log.Info().Str("addr", cfg.GRPC.Addr).Msg("gRPC health server listening")
			return grpcServer.Serve(grpcListener)
		})

		g.Go(func() error {
			<-gctx.Done()
			healthServer.Shutdown()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if registrar != nil {
		if err := registrar.Register(); err != nil {
			log.Warn().Err(err).Msg("consul registration failed")
		} else {
			defer func() {
				if err := registrar.Deregister(); err != nil {
					log.Warn().Err(err).Msg("consul deregistration failed")
				}
			}()
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
