package evaluation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"performa/internal/domain"
)

var (
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	quarterPattern = regexp.MustCompile(`(?i)\bq([1-4])\b|\bquarter\s*([1-4])\b|\b([1-4])(?:st|nd|rd|th)\s+quarter\b`)
	annualPattern  = regexp.MustCompile(`(?i)\b(annual|yearly|year)\b`)
)

// DerivePeriod returns the (periodType, periodDate) an evaluation in cycle
// belongs to. Explicit period fields on the cycle win. Otherwise the cycle
// name is scanned for a quarter or an annual marker, and when nothing matches
// the calendar quarter of now is used.
func DerivePeriod(cycle *CycleRef, now time.Time) (string, string) {
	if cycle != nil && cycle.PeriodType != nil && cycle.PeriodDate != nil &&
		domain.IsValidPeriod(*cycle.PeriodType, *cycle.PeriodDate) {
		return *cycle.PeriodType, *cycle.PeriodDate
	}

	year := now.Year()
	if cycle != nil {
		name := strings.TrimSpace(cycle.Name)
		if y, err := strconv.Atoi(yearPattern.FindString(name)); err == nil {
			year = y
		}
		if m := quarterPattern.FindStringSubmatch(name); m != nil {
			q := firstNonEmpty(m[1:]...)
			return domain.PeriodTypeQuarterly, fmt.Sprintf("%d-Q%s", year, q)
		}
		if annualPattern.MatchString(name) {
			return domain.PeriodTypeAnnual, strconv.Itoa(year)
		}
	}

	return domain.PeriodTypeQuarterly, fmt.Sprintf("%d-Q%d", now.Year(), (int(now.Month())-1)/3+1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
