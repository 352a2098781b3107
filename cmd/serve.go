package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dubber/internal/apihandlers"
	"dubber/internal/app"
)

const shutdownTimeout = 15 * time.Second

var (
	serveAddr     string
	servePort     int
	serveSimulate bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dubbing job HTTP API",
	Long: `Starts the HTTP API for uploads, job status, job updates and downloads.
With --simulate (or simulation.enabled) active jobs advance on their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := appInstance.Config
		if cmd.Flags().Changed("addr") {
			cfg.Server.Address = serveAddr
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if serveSimulate {
			cfg.Simulation.Enabled = true
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, appInstance)
	},
}

func runServer(ctx context.Context, appInstance *app.App) error {
	cfg := appInstance.Config
	handler := apihandlers.NewAPIHandler(appInstance.JobService, appInstance.Health)
	router := apihandlers.NewRouter(handler, appInstance.Metrics)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Simulation.Enabled {
		g.Go(func() error {
			appInstance.Simulator.Start(gctx)
			return nil
		})
	}
	if cfg.Reconcile.Enabled {
		g.Go(func() error {
			appInstance.Reconciler.Start(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("API server exited with error")
		return err
	}
	log.Info("API server stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "0.0.0.0", "Address to listen on (overrides server.address)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveSimulate, "simulate", false, "Advance active jobs with simulated progress")
}
