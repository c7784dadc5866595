package domain

import (
	"testing"
)

func TestPriorityForScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected PriorityLevel
	}{
		{"exactly high threshold", 0.7, PRIORITY_HIGH},
		{"above high threshold", 0.95, PRIORITY_HIGH},
		{"exactly medium threshold", 0.4, PRIORITY_MEDIUM},
		{"between thresholds", 0.55, PRIORITY_MEDIUM},
		{"just below medium threshold", 0.3999, PRIORITY_LOW},
		{"zero", 0.0, PRIORITY_LOW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriorityForScore(tt.score); got != tt.expected {
				t.Errorf("PriorityForScore(%v) = %s, want %s", tt.score, got, tt.expected)
			}
		})
	}
}

func TestPriorityLevelRank(t *testing.T) {
	tests := []struct {
		name     string
		level    PriorityLevel
		expected int
	}{
		{"high", PRIORITY_HIGH, 3},
		{"medium", PRIORITY_MEDIUM, 2},
		{"low", PRIORITY_LOW, 1},
		{"unknown", PriorityLevel("urgent"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.Rank(); got != tt.expected {
				t.Errorf("Rank() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMaxPriority(t *testing.T) {
	if got := MaxPriority(PRIORITY_LOW, PRIORITY_HIGH); got != PRIORITY_HIGH {
		t.Errorf("MaxPriority(low, high) = %s, want high", got)
	}
	if got := MaxPriority(PRIORITY_MEDIUM, PRIORITY_LOW); got != PRIORITY_MEDIUM {
		t.Errorf("MaxPriority(medium, low) = %s, want medium", got)
	}
}

func TestNormalizedTestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mixed case", "Lipid Profile", "lipid profile"},
		{"trailing whitespace", "lipid profile ", "lipid profile"},
		{"internal whitespace run", "Lipid   Profile", "lipid profile"},
		{"leading whitespace", "  HbA1c Retest", "hba1c retest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedTestName(tt.input); got != tt.expected {
				t.Errorf("NormalizedTestName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseTestCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TestCategory
	}{
		{"known category", "lipid_profile", CATEGORY_LIPID_PROFILE},
		{"uppercase", "METABOLIC", CATEGORY_METABOLIC},
		{"unknown falls back to metabolic", "genomics", CATEGORY_METABOLIC},
		{"empty falls back to metabolic", "", CATEGORY_METABOLIC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTestCategory(tt.input); got != tt.expected {
				t.Errorf("ParseTestCategory(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMarkerStatusIsAbnormal(t *testing.T) {
	if MARKER_NORMAL.IsAbnormal() {
		t.Error("normal status reported abnormal")
	}
	if !MARKER_HIGH.IsAbnormal() || !MARKER_LOW.IsAbnormal() {
		t.Error("high/low status not reported abnormal")
	}
}
