package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/report"
	"github.com/jjenkins/motreport/internal/service"
	"github.com/jjenkins/motreport/internal/telemetry"
)

type fakeLookup struct {
	result *service.Result
	err    error
	got    string
}

func (f *fakeLookup) Run(ctx context.Context, registration string) (*service.Result, error) {
	f.got = registration
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeHistory struct {
	recent []model.LookupSummary
	byReg  map[string][]model.LookupSummary
	stats  *model.LookupStats
	err    error
}

func (f *fakeHistory) GetRecent(ctx context.Context, limit int) ([]model.LookupSummary, error) {
	return f.recent, f.err
}

func (f *fakeHistory) GetByRegistration(ctx context.Context, registration string) ([]model.LookupSummary, error) {
	return f.byReg[registration], f.err
}

func (f *fakeHistory) GetStats(ctx context.Context) (*model.LookupStats, error) {
	return f.stats, f.err
}

func vehicleResult() *service.Result {
	return &service.Result{
		ID: "lookup-1",
		Vehicle: &model.VehicleRecord{
			Registration: model.PresentValue("AB12CDE"),
			Make:         model.PresentValue("FORD"),
			Model:        model.PresentValue("FOCUS"),
			TestDueDate:  model.PresentValue("2027-01-31"),
		},
	}
}

func newTestApp(lookup VehicleLookup, history LookupHistory) *fiber.App {
	logger := zap.NewNop()
	app := fiber.New()
	app.Get("/", HomeHandler(history, logger))
	app.Get("/vehicles", VehicleSearchHandler())
	app.Get("/vehicles/:reg", VehicleHandler(lookup, logger))
	app.Get("/vehicles/:reg/report.pdf", VehicleReportHandler(lookup, report.NewRenderer(report.DefaultStyle, nil, nil), logger))
	app.Get("/api/vehicles/:reg", VehicleAPIHandler(lookup, logger))
	app.Get("/history", HistoryHandler(history, logger))
	return app
}

func readBody(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestVehicleSearchRedirects(t *testing.T) {
	app := newTestApp(&fakeLookup{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/vehicles?reg=ab12+cde", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/vehicles/AB12CDE", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest("GET", "/vehicles?reg=", nil))
	require.NoError(t, err)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestVehicleHandler(t *testing.T) {
	lookup := &fakeLookup{result: vehicleResult()}
	app := newTestApp(lookup, nil)

	status, body := readBody(t, app, "/vehicles/AB12CDE")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "AB12CDE", lookup.got)
	assert.Contains(t, body, `<span class="plate">AB12CDE</span>`)
	assert.Contains(t, body, "FORD FOCUS")
	assert.Contains(t, body, "MOT due: 31/01/2027")
}

func TestVehicleHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("wrapped: %w", &service.UpstreamError{Provider: service.ProviderVES, Code: "404", Message: "Vehicle Not Found"}), fiber.StatusNotFound},
		{"upstream refusal", &service.UpstreamError{Provider: service.ProviderMOT, Code: "403", Message: "Forbidden"}, fiber.StatusBadGateway},
		{"malformed history", &service.MalformedTestDataError{Index: 2, Reason: "not an object"}, fiber.StatusBadGateway},
		{"invalid registration", service.ErrInvalidRegistration, fiber.StatusBadRequest},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeLookup{err: tt.err}, nil)

			status, body := readBody(t, app, "/vehicles/AB12CDE")
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, `class="error"`)

			status, _ = readBody(t, app, "/api/vehicles/AB12CDE")
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestVehicleReportHandler(t *testing.T) {
	app := newTestApp(&fakeLookup{result: vehicleResult()}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/vehicles/ab12cde/report.pdf", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="AB12CDE.pdf"`, resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))
}

func TestVehicleAPIHandler(t *testing.T) {
	app := newTestApp(&fakeLookup{result: vehicleResult()}, nil)

	status, body := readBody(t, app, "/api/vehicles/AB12CDE")
	require.Equal(t, fiber.StatusOK, status)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, "lookup-1", decoded["id"])

	vehicle := decoded["vehicle"].(map[string]any)
	assert.Equal(t, "AB12CDE", vehicle["registration"])
	assert.Nil(t, vehicle["colour"])
}

func TestHomeHandler(t *testing.T) {
	t.Run("without history", func(t *testing.T) {
		status, body := readBody(t, newTestApp(&fakeLookup{}, nil), "/")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, body, `action="/vehicles"`)
		assert.NotContains(t, body, "Total lookups")
	})

	t.Run("with stats", func(t *testing.T) {
		history := &fakeHistory{stats: &model.LookupStats{TotalLookups: 7, DistinctVehicles: 3, AveragePassRate: 81.6}}
		status, body := readBody(t, newTestApp(&fakeLookup{}, history), "/")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, body, "Total lookups")
		assert.Contains(t, body, "82%")
	})

	t.Run("stats failure still renders", func(t *testing.T) {
		history := &fakeHistory{err: errors.New("db down")}
		status, body := readBody(t, newTestApp(&fakeLookup{}, history), "/")
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotContains(t, body, "Total lookups")
	})
}

func TestHistoryHandler(t *testing.T) {
	lookedUp := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	history := &fakeHistory{
		recent: []model.LookupSummary{
			{Registration: "AB12CDE", Make: "FORD", Model: "FOCUS", TestCount: 4, PassRate: sql.NullInt64{Int64: 75, Valid: true}, LookedUpAt: lookedUp},
		},
		byReg: map[string][]model.LookupSummary{
			"XY99ZZZ": {{Registration: "XY99ZZZ", Make: "<script>", LookedUpAt: lookedUp}},
		},
	}
	app := newTestApp(&fakeLookup{}, history)

	status, body := readBody(t, app, "/history")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "AB12CDE")
	assert.Contains(t, body, "75%")
	assert.Contains(t, body, "01/05/2024 12:30")

	status, body = readBody(t, app, "/history?reg=xy99+zzz")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "XY99ZZZ")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "AB12CDE")

	status, _ = readBody(t, newTestApp(&fakeLookup{}, nil), "/history")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMetricsHandler(t *testing.T) {
	metrics := telemetry.NewMetrics()
	metrics.ObserveLookup("ok")

	app := fiber.New()
	app.Get("/metrics", MetricsHandler(metrics.Registry))

	status, body := readBody(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `motreport_lookups_total{outcome="ok"} 1`)
}
