package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// generateBookingNumber returns MW-YYYYMMDD-XXXXXXXX.
func generateBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "MW-" + now.Format("20060102") + "-" + suffix
}

func clampPage(page, limit, max int) (int64, int64) {
	if max <= 0 {
		max = defaultMaxPageSize
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > max {
		limit = max
	}
	page = NormalizePage(page)
	return int64(limit), int64((page - 1) * limit)
}

// NormalizePage maps missing or non-positive page numbers to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
