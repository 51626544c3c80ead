package service

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/telemetry"
)

// VehicleFetcher retrieves a raw provider payload for a registration
type VehicleFetcher interface {
	FetchVehicle(ctx context.Context, registration string) (model.Payload, error)
}

// LookupLog records lookup summaries
type LookupLog interface {
	SaveLookup(ctx context.Context, summary *model.LookupSummary) (created bool, err error)
}

// Result is the outcome of one lookup
type Result struct {
	ID      string               `json:"id"`
	Vehicle *model.VehicleRecord `json:"vehicle"`
	// Summary is nil when the vehicle has no test history
	Summary *Summary `json:"summary"`
}

// Lookup orchestrates fetching, reconciling and summarising a vehicle
type Lookup struct {
	mot     VehicleFetcher
	ves     VehicleFetcher
	log     LookupLog
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewLookup creates a new Lookup. log and metrics may be nil.
func NewLookup(mot, ves VehicleFetcher, log LookupLog, metrics *telemetry.Metrics, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{
		mot:     mot,
		ves:     ves,
		log:     log,
		metrics: metrics,
		logger:  logger.Named("lookup"),
	}
}

// NormalizeRegistration trims, removes spaces and upper-cases a registration
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.Join(strings.Fields(reg), ""))
}

// Run fetches both providers concurrently, then reconciles and summarises
func (l *Lookup) Run(ctx context.Context, registration string) (*Result, error) {
	reg := NormalizeRegistration(registration)
	if reg == "" {
		l.metrics.ObserveLookup("invalid")
		return nil, ErrInvalidRegistration
	}

	logger := l.logger.With(zap.String("registration", reg))
	logger.Info("Fetching vehicle data")

	var motPayload, vesPayload model.Payload
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := l.fetch(gctx, ProviderMOT, l.mot, reg)
		motPayload = p
		return err
	})
	g.Go(func() error {
		p, err := l.fetch(gctx, ProviderVES, l.ves, reg)
		vesPayload = p
		return err
	})
	if err := g.Wait(); err != nil {
		l.metrics.ObserveLookup(outcome(err))
		logger.Error("Failed to fetch vehicle data", zap.Error(err))
		return nil, err
	}

	vehicle, err := Reconcile(motPayload, vesPayload)
	if err != nil {
		l.metrics.ObserveLookup(outcome(err))
		logger.Warn("Failed to reconcile vehicle data", zap.Error(err))
		return nil, fmt.Errorf("failed to reconcile %s: %w", reg, err)
	}

	result := &Result{
		ID:      uuid.NewString(),
		Vehicle: vehicle,
	}

	if vehicle.HasHistory() {
		summary, err := Summarize(vehicle.Tests)
		if err != nil {
			l.metrics.ObserveLookup("error")
			return nil, fmt.Errorf("failed to summarise %s: %w", reg, err)
		}
		result.Summary = summary
	}

	l.record(ctx, logger, result)
	l.metrics.ObserveLookup("ok")
	logger.Info("Lookup complete",
		zap.String("lookup_id", result.ID),
		zap.Int("tests", len(vehicle.Tests)),
	)

	return result, nil
}

func (l *Lookup) fetch(ctx context.Context, provider Provider, fetcher VehicleFetcher, reg string) (model.Payload, error) {
	start := time.Now()
	payload, err := fetcher.FetchVehicle(ctx, reg)
	l.metrics.ObserveProviderRequest(string(provider), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s data: %w", provider, err)
	}
	return payload, nil
}

// record writes the lookup summary; failures are logged, not returned
func (l *Lookup) record(ctx context.Context, logger *zap.Logger, result *Result) {
	if l.log == nil {
		return
	}

	summary, err := Digest(result)
	if err != nil {
		logger.Warn("Failed to digest lookup", zap.Error(err))
		return
	}

	created, err := l.log.SaveLookup(ctx, summary)
	if err != nil {
		logger.Warn("Failed to record lookup", zap.Error(err))
		return
	}
	if created {
		logger.Debug("Lookup recorded (record changed)")
	} else {
		logger.Debug("Lookup unchanged")
	}
}

// Digest builds the persisted summary of a lookup result
func Digest(result *Result) (*model.LookupSummary, error) {
	checksum, err := Checksum(result.Vehicle)
	if err != nil {
		return nil, err
	}

	v := result.Vehicle
	summary := &model.LookupSummary{
		ID:           result.ID,
		Registration: v.Registration.String(),
		Make:         v.Make.String(),
		Model:        v.Model.String(),
		TestCount:    len(v.Tests),
		Checksum:     checksum,
		LookedUpAt:   time.Now(),
	}

	if result.Summary != nil {
		if rate, err := result.Summary.Results.Rate(); err == nil {
			summary.PassRate = sql.NullInt64{Int64: int64(rate), Valid: true}
		}
		if result.Summary.HasMileage {
			summary.AverageMileage = sql.NullFloat64{Float64: result.Summary.AverageAnnualMileage, Valid: true}
		}
	}

	return summary, nil
}

// Checksum computes an MD5 hash of the record's JSON form for change detection
func Checksum(vehicle *model.VehicleRecord) (string, error) {
	content, err := json.Marshal(vehicle)
	if err != nil {
		return "", fmt.Errorf("failed to encode vehicle: %w", err)
	}
	hash := md5.Sum(content)
	return hex.EncodeToString(hash[:]), nil
}

// outcome classifies a lookup error for metrics
func outcome(err error) string {
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr) && upErr.NotFound():
		return "not_found"
	case errors.As(err, &upErr):
		return "upstream_error"
	case errors.Is(err, ErrMalformedTestData), errors.Is(err, ErrMissingData):
		return "malformed"
	default:
		return "error"
	}
}
