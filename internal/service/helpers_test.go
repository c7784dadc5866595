package service

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// testLogger returns a silenced logger for pipeline tests.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testNow is the fixed reference instant used across the pipeline tests.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// daysAgo returns an instant n days before testNow.
func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

// snapshotAt builds a snapshot with the given categories at the given date.
func snapshotAt(date time.Time, categories map[string]map[string]domain.MarkerReading) domain.BiomarkerSnapshot {
	return domain.BiomarkerSnapshot{
		TestDate:   date,
		Categories: categories,
	}
}

// fullRecentSnapshot covers every essential category with normal readings so
// baseline and staleness rules stay quiet in tests that target other rules.
func fullRecentSnapshot(date time.Time) domain.BiomarkerSnapshot {
	categories := make(map[string]map[string]domain.MarkerReading)
	for category, test := range essentialCategoryTests {
		markers := make(map[string]domain.MarkerReading)
		for _, name := range test.Markers {
			markers[name] = domain.MarkerReading{Value: 1.0, Status: domain.MARKER_NORMAL}
		}
		categories[category.String()] = markers
	}
	return snapshotAt(date, categories)
}

// findByName returns the first recommendation matching the normalized test
// name, with a found flag.
func findByName(recs []domain.Recommendation, name string) (domain.Recommendation, bool) {
	key := domain.NormalizedTestName(name)
	for _, rec := range recs {
		if rec.NormalizedName() == key {
			return rec, true
		}
	}
	return domain.Recommendation{}, false
}
