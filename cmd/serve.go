package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/handlers"
	"github.com/jjenkins/motreport/internal/report"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MOT report web server",
	Long: `Start the web server for looking up vehicles and downloading reports.

The lookup log and the /history page are enabled when DATABASE_URL is set.
Prometheus metrics are served on /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if port == "" {
		port = rt.cfg.Port
	}

	lookup := rt.newLookup()
	renderer := report.NewRenderer(report.DefaultStyle, rt.metrics, rt.logger)

	var history handlers.LookupHistory
	if rt.lookups != nil {
		history = rt.lookups
	}

	app := fiber.New(fiber.Config{
		AppName:      "MOT Report",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * rt.cfg.HTTPTimeout,
	})

	app.Use(logger.New())

	log := rt.logger.Named("http")

	// Routes
	app.Get("/", handlers.HomeHandler(history, log))

	// Vehicle routes
	app.Get("/vehicles", handlers.VehicleSearchHandler())
	app.Get("/vehicles/:reg", handlers.VehicleHandler(lookup, log))
	app.Get("/vehicles/:reg/report.pdf", handlers.VehicleReportHandler(lookup, renderer, log))
	app.Get("/api/vehicles/:reg", handlers.VehicleAPIHandler(lookup, log))

	// History route
	app.Get("/history", handlers.HistoryHandler(history, log))

	app.Get("/metrics", handlers.MetricsHandler(rt.metrics.Registry))

	go func() {
		<-ctx.Done()
		rt.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			rt.logger.Error("Failed to shut down cleanly", zap.Error(err))
		}
	}()

	rt.logger.Info("Starting server", zap.String("port", port), zap.Bool("lookup_log", history != nil))
	if err := app.Listen(":" + port); err != nil {
		rt.logger.Error("Failed to start server", zap.Error(err))
		return err
	}
	return nil
}
