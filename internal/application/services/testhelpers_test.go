package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func newTestTracker() *performance.Tracker {
	return performance.NewTracker()
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

// paidSales builds n PAID sales of the given amount, spread one per week
// backwards from the most recent date.
func paidSales(now time.Time, n int, amount float64, newestDaysAgo int) []retail.Sale {
	sales := make([]retail.Sale, n)
	for i := 0; i < n; i++ {
		sales[i] = retail.Sale{
			ID:            "sale-" + string(rune('a'+i)),
			TotalAmount:   amount,
			SaleDate:      now.AddDate(0, 0, -(newestDaysAgo + i*7)),
			PaymentStatus: retail.PaymentPaid,
		}
	}
	return sales
}
