package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/atsbridge/pkg/bus"
	"github.com/cuemby/atsbridge/pkg/clock"
	"github.com/cuemby/atsbridge/pkg/config"
	"github.com/cuemby/atsbridge/pkg/log"
	"github.com/cuemby/atsbridge/pkg/metrics"
	"github.com/cuemby/atsbridge/pkg/service"
	_ "github.com/cuemby/atsbridge/pkg/tracker" // registers the built-in session-tracker extension service
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timeline forwarding service",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		appID, _ := cmd.Flags().GetString("app-id")
		attemptID, _ := cmd.Flags().GetString("attempt-id")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		metrics.SetVersion(Version)

		broker := bus.NewBroker()
		broker.Start()

		svc := service.New(cfg, clock.System{}, broker, cfg.Extension.Services)

		ctx := context.Background()
		if err := svc.Start(ctx, service.Binding{AppID: appID, AttemptID: attemptID}); err != nil {
			return fmt.Errorf("service start: %w", err)
		}
		log.Info(fmt.Sprintf("timeline forwarding service started for app %s", appID))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/healthz", metrics.HealthHandler())
		mux.Handle("/readyz", metrics.ReadyHandler())
		mux.Handle("/livez", metrics.LivenessHandler())

		errCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
		fmt.Printf("metrics endpoint: http://%s/metrics\n", metricsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("shutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}

		svc.Stop()
		broker.Stop()
		fmt.Println("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML configuration manifest")
	serveCmd.Flags().String("app-id", "", "Application id to bind this service instance to")
	serveCmd.Flags().String("attempt-id", "", "Application attempt id, if the host runs with attempts")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the metrics/health HTTP server")
}
