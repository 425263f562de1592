package weather

import "strings"

// maxForecastDays caps the aggregated forecast length.
const maxForecastDays = 5

// DailyForecast collapses the provider's periodic forecast samples into at
// most one entry per calendar day, capped at maxForecastDays. The first
// sample seen for a date wins; later same-day samples are discarded, not
// averaged. Callers depend on that rule for compatibility, so it must not be
// replaced with a daily mean.
func DailyForecast(items []RawForecastItem) []ForecastEntry {
	seen := make(map[string]struct{}, maxForecastDays)
	forecast := make([]ForecastEntry, 0, maxForecastDays)

	for _, item := range items {
		if len(forecast) >= maxForecastDays {
			break
		}

		date, _, _ := strings.Cut(item.DtTxt, " ")
		if date == "" {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}

		desc := ""
		if len(item.Weather) > 0 {
			desc = item.Weather[0].Description
		}

		forecast = append(forecast, ForecastEntry{
			Date:        date,
			Temp:        item.Main.Temp,
			Description: desc,
		})
	}

	return forecast
}
