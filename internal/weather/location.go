package weather

import (
	"net/url"
	"strings"
)

// ResolveLocation classifies a free-text location string and renders it into
// provider query values. Classification order, first match wins:
//
//  1. GPS pair: two comma-separated numeric tokens -> lat/lon query.
//  2. Postal code: all digits once commas/hyphens are stripped, or any
//     remaining comma-bearing string (catches "94040,US") -> zip query.
//  3. Anything else is treated as a place name -> q query.
//
// Classification always succeeds; bad locations surface later as provider
// errors.
func ResolveLocation(location string) url.Values {
	values := url.Values{}

	if strings.Contains(location, ",") {
		parts := strings.Split(location, ",")
		if len(parts) == 2 {
			lat := strings.TrimSpace(parts[0])
			lon := strings.TrimSpace(parts[1])
			if isNumericToken(lat) && isNumericToken(lon) {
				values.Set("lat", lat)
				values.Set("lon", lon)
				return values
			}
		}
	}

	stripped := strings.ReplaceAll(strings.ReplaceAll(location, ",", ""), "-", "")
	if isDigits(stripped) || strings.Contains(location, ",") {
		values.Set("zip", location)
		return values
	}

	values.Set("q", location)
	return values
}

// isNumericToken reports whether s is all digits after removing at most one
// leading minus sign and at most one decimal point.
func isNumericToken(s string) bool {
	s = strings.TrimPrefix(s, "-")
	s = strings.Replace(s, ".", "", 1)
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
