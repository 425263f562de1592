package weather

import "testing"

// TestResolveLocationClassification verifies the classification order:
// GPS pair, then postal code, then free-text place name.
func TestResolveLocationClassification(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKey  string
		wantVals map[string]string
	}{
		{
			name:    "gps pair",
			input:   "31.5497,74.3436",
			wantKey: "lat",
			wantVals: map[string]string{
				"lat": "31.5497",
				"lon": "74.3436",
			},
		},
		{
			name:    "gps pair with negative latitude",
			input:   "-33.86,151.21",
			wantKey: "lat",
			wantVals: map[string]string{
				"lat": "-33.86",
				"lon": "151.21",
			},
		},
		{
			name:    "zip with country",
			input:   "94040,US",
			wantKey: "zip",
			wantVals: map[string]string{
				"zip": "94040,US",
			},
		},
		{
			name:    "bare numeric zip without comma",
			input:   "94040",
			wantKey: "zip",
			wantVals: map[string]string{
				"zip": "94040",
			},
		},
		{
			name:    "hyphenated postal code",
			input:   "100-0001",
			wantKey: "zip",
			wantVals: map[string]string{
				"zip": "100-0001",
			},
		},
		{
			name:    "city name",
			input:   "Paris",
			wantKey: "q",
			wantVals: map[string]string{
				"q": "Paris",
			},
		},
		{
			name:    "city with spaces",
			input:   "New York",
			wantKey: "q",
			wantVals: map[string]string{
				"q": "New York",
			},
		},
		{
			name:    "three comma tokens fall through to zip",
			input:   "1,2,3",
			wantKey: "zip",
			wantVals: map[string]string{
				"zip": "1,2,3",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveLocation(tc.input)

			if !got.Has(tc.wantKey) {
				t.Fatalf("expected %q key in %v", tc.wantKey, got)
			}
			for k, v := range tc.wantVals {
				if got.Get(k) != v {
					t.Errorf("expected %s=%q, got %q", k, v, got.Get(k))
				}
			}
		})
	}
}

func TestResolveLocationNeverEmpty(t *testing.T) {
	// Even degenerate input classifies; the provider decides whether it is a
	// real place.
	got := ResolveLocation("??")
	if got.Get("q") != "??" {
		t.Fatalf("expected q fallback, got %v", got)
	}
}
