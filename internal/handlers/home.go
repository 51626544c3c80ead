package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/templates"
)

// LookupHistory reads the lookup log
type LookupHistory interface {
	GetRecent(ctx context.Context, limit int) ([]model.LookupSummary, error)
	GetByRegistration(ctx context.Context, registration string) ([]model.LookupSummary, error)
	GetStats(ctx context.Context) (*model.LookupStats, error)
}

// HomeHandler renders the search page. history may be nil when no database is configured.
func HomeHandler(history LookupHistory, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var stats *model.LookupStats

		if history != nil {
			var err error
			stats, err = history.GetStats(c.UserContext())
			if err != nil {
				logger.Warn("Error loading lookup stats", zap.Error(err))
				stats = nil
			}
		}

		return render(c, templates.Home(stats), fiber.StatusOK)
	}
}
