// Package cmd implements the motreport command line
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/config"
	"github.com/jjenkins/motreport/internal/logger"
	"github.com/jjenkins/motreport/internal/service"
	"github.com/jjenkins/motreport/internal/store"
	"github.com/jjenkins/motreport/internal/telemetry"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "motreport",
	Short: "Reconcile UK vehicle records and produce MOT history reports",
	Long: `motreport fetches a vehicle from the MOT history API and the DVLA
Vehicle Enquiry Service, reconciles the two records, derives test history
metrics and renders them as a PDF report.

Credentials are read from the environment or from a .env file:
  MOT_API_KEY, MOT_AUTHORIZATION_KEY, VES_API_KEY`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// runtime is the wiring shared by every subcommand
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *telemetry.Metrics
	db      *sql.DB
	lookups *store.LookupStore
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  log,
		metrics: telemetry.NewMetrics(),
	}

	if cfg.DatabaseURL == "" {
		log.Debug("DATABASE_URL not set, lookup log disabled")
		return rt, nil
	}

	log.Info("Connecting to database")
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	rt.db = db
	rt.lookups = store.NewLookupStore(db)

	return rt, nil
}

func (rt *runtime) newLookup() *service.Lookup {
	mot := service.NewMOTClient(rt.cfg.MOTEndpoint, rt.cfg.MOTAPIKey, rt.cfg.MOTAuthorizationKey, rt.cfg.HTTPTimeout)
	ves := service.NewVESClient(rt.cfg.VESEndpoint, rt.cfg.VESAPIKey, rt.cfg.HTTPTimeout)

	var log service.LookupLog
	if rt.lookups != nil {
		log = rt.lookups
	}
	return service.NewLookup(mot, ves, log, rt.metrics, rt.logger)
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}
