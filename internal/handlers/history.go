package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/service"
	"github.com/jjenkins/motreport/internal/templates"
)

const historyLimit = 100

// HistoryHandler lists recorded lookups, optionally filtered by ?reg=
func HistoryHandler(history LookupHistory, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if history == nil {
			return render(c, templates.Error(fiber.StatusNotFound, "Lookup history is not enabled", ""), fiber.StatusNotFound)
		}

		ctx := c.UserContext()

		var (
			lookups []model.LookupSummary
			err     error
		)
		if reg := service.NormalizeRegistration(c.Query("reg")); reg != "" {
			lookups, err = history.GetByRegistration(ctx, reg)
		} else {
			lookups, err = history.GetRecent(ctx, historyLimit)
		}
		if err != nil {
			logger.Error("Error loading lookup history", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading lookup history")
		}

		return render(c, templates.History(lookups), fiber.StatusOK)
	}
}
