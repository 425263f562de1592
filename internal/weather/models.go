package weather

// Observation is the normalized current-conditions view returned by the provider.
type Observation struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Description string  `json:"description"`
}

// ForecastEntry is one day of an aggregated forecast.
// Date is the calendar date in ISO form (YYYY-MM-DD).
type ForecastEntry struct {
	Date        string  `json:"date"`
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
}

// RawForecastItem is a single periodic (3-hour) sample from the provider's
// forecast list, before daily aggregation.
type RawForecastItem struct {
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}
