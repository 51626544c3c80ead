package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/report"
	"github.com/jjenkins/motreport/internal/service"
	"github.com/jjenkins/motreport/internal/templates"
)

// VehicleLookup runs a full lookup for one registration
type VehicleLookup interface {
	Run(ctx context.Context, registration string) (*service.Result, error)
}

// ReportRenderer writes a PDF report
type ReportRenderer interface {
	Render(w io.Writer, vehicle *model.VehicleRecord, summary *service.Summary) error
}

// VehicleSearchHandler redirects the search form to the vehicle page
func VehicleSearchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reg := service.NormalizeRegistration(c.Query("reg"))
		if reg == "" {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Redirect("/vehicles/"+url.PathEscape(reg), fiber.StatusSeeOther)
	}
}

// VehicleHandler renders the reconciled record as HTML
func VehicleHandler(lookup VehicleLookup, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reg := registrationParam(c)
		result, err := lookup.Run(c.UserContext(), reg)
		if err != nil {
			status, message := errorStatus(err)
			logger.Warn("Vehicle lookup failed", zap.String("registration", reg), zap.Int("status", status), zap.Error(err))
			return render(c, templates.Error(status, message, reg), status)
		}

		doc := report.Build(result.Vehicle, result.Summary, time.Now())
		return render(c, templates.Vehicle(doc), fiber.StatusOK)
	}
}

// VehicleReportHandler streams the PDF report as an attachment
func VehicleReportHandler(lookup VehicleLookup, renderer ReportRenderer, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reg := registrationParam(c)
		result, err := lookup.Run(c.UserContext(), reg)
		if err != nil {
			status, message := errorStatus(err)
			logger.Warn("Report lookup failed", zap.String("registration", reg), zap.Int("status", status), zap.Error(err))
			return c.Status(status).SendString(message)
		}

		var buf bytes.Buffer
		if err := renderer.Render(&buf, result.Vehicle, result.Summary); err != nil {
			logger.Error("Failed to render report", zap.String("registration", reg), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).SendString("Error rendering report")
		}

		filename := service.NormalizeRegistration(reg) + ".pdf"
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(buf.Bytes())
	}
}

// VehicleAPIHandler returns the lookup result as JSON
func VehicleAPIHandler(lookup VehicleLookup, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reg := registrationParam(c)
		result, err := lookup.Run(c.UserContext(), reg)
		if err != nil {
			status, message := errorStatus(err)
			logger.Warn("API lookup failed", zap.String("registration", reg), zap.Int("status", status), zap.Error(err))
			return c.Status(status).JSON(fiber.Map{"error": message})
		}
		return c.JSON(result)
	}
}

func registrationParam(c *fiber.Ctx) string {
	reg, err := url.PathUnescape(c.Params("reg"))
	if err != nil {
		return c.Params("reg")
	}
	return reg
}

// errorStatus maps a lookup error to an HTTP status and a user-facing message
func errorStatus(err error) (int, string) {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrInvalidRegistration):
		return fiber.StatusBadRequest, "Please enter a registration"
	case errors.As(err, &upErr) && upErr.NotFound():
		return fiber.StatusNotFound, "Vehicle not found"
	case errors.As(err, &upErr):
		return fiber.StatusBadGateway, "The vehicle data service returned an error"
	case errors.Is(err, service.ErrMalformedTestData), errors.Is(err, service.ErrMissingData):
		return fiber.StatusBadGateway, "The vehicle data service returned incomplete data"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "The vehicle data service timed out"
	default:
		return fiber.StatusInternalServerError, "Error looking up vehicle"
	}
}

func render(c *fiber.Ctx, page templ.Component, status int) error {
	handler := adaptor.HTTPHandler(templ.Handler(page, templ.WithStatus(status)))
	return handler(c)
}
