package domain

import (
	"sort"
	"strconv"
	"time"
)

// HealthRecord is the aggregated input snapshot for one subject. It is owned
// by the caller and read-only during evaluation: evaluators must never mutate
// it, including reordering its slices in place.
type HealthRecord struct {
	Demographics  Demographics         `json:"demographics"`
	Snapshots     []BiomarkerSnapshot  `json:"biomarker_history,omitempty"`
	Conditions    []Condition          `json:"conditions,omitempty"`
	Medications   []Medication         `json:"medications,omitempty"`
	Supplements   []Supplement         `json:"supplements,omitempty"`
	FamilyHistory []FamilyHistoryEntry `json:"family_history,omitempty"`
	Lifestyle     *Lifestyle           `json:"lifestyle,omitempty"`
	Goals         []Goal               `json:"goals,omitempty"`
}

// Demographics holds the subject's basic demographic data.
type Demographics struct {
	Age      int           `json:"age"`
	Sex      BiologicalSex `json:"sex"`
	Location string        `json:"location,omitempty"`
}

// BiomarkerSnapshot is one lab test event: a date, lab/package label, and
// categorized marker readings. Category keys map marker names to readings.
type BiomarkerSnapshot struct {
	TestDate    time.Time                           `json:"test_date"`
	LabName     string                              `json:"lab_name,omitempty"`
	TestPackage string                              `json:"test_package,omitempty"`
	Categories  map[string]map[string]MarkerReading `json:"categories"`
}

// MarkerReading is a single biomarker measurement. Value is deliberately
// loosely typed: upstream aggregation may deliver numbers or strings, and a
// value that cannot be read as a number is treated as absent, never as an
// error.
type MarkerReading struct {
	Value          any          `json:"value"`
	Unit           string       `json:"unit,omitempty"`
	ReferenceRange string       `json:"reference_range,omitempty"`
	Status         MarkerStatus `json:"status"`
}

// NumericValue returns the reading's value as a float64 when it can be parsed
// as one. The second return reports whether a usable number was found.
func (mr MarkerReading) NumericValue() (float64, bool) {
	switch v := mr.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Condition is one recorded health condition.
type Condition struct {
	Name          string          `json:"name"`
	Status        ConditionStatus `json:"status"`
	Severity      string          `json:"severity,omitempty"`
	DiagnosisDate *time.Time      `json:"diagnosis_date,omitempty"`
}

// Medication is one recorded medication.
type Medication struct {
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// Supplement is one recorded supplement.
type Supplement struct {
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// FamilyHistoryEntry records a condition in the subject's family.
type FamilyHistoryEntry struct {
	Condition  string `json:"condition"`
	Relation   string `json:"relation"`
	AgeOfOnset int    `json:"age_of_onset,omitempty"`
}

// Lifestyle holds optional lifestyle descriptors.
type Lifestyle struct {
	DietType          string `json:"diet_type,omitempty"`
	ExerciseFrequency string `json:"exercise_frequency,omitempty"`
	SmokingStatus     string `json:"smoking_status,omitempty"`
	AlcoholUse        string `json:"alcohol_use,omitempty"`
	SleepQuality      string `json:"sleep_quality,omitempty"`
	StressLevel       string `json:"stress_level,omitempty"`
}

// Goal is a free-text health goal.
type Goal struct {
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

// HasBiomarkerHistory reports whether any lab results are on record.
func (hr *HealthRecord) HasBiomarkerHistory() bool {
	return len(hr.Snapshots) > 0
}

// LatestSnapshot returns the most recent biomarker snapshot, or nil when no
// history exists. The contract does not guarantee input ordering, so the
// snapshot is located by explicit date comparison without reordering the
// record's slice.
func (hr *HealthRecord) LatestSnapshot() *BiomarkerSnapshot {
	if len(hr.Snapshots) == 0 {
		return nil
	}
	latest := &hr.Snapshots[0]
	for i := 1; i < len(hr.Snapshots); i++ {
		if hr.Snapshots[i].TestDate.After(latest.TestDate) {
			latest = &hr.Snapshots[i]
		}
	}
	return latest
}

// SnapshotsChronological returns a copy of the biomarker history sorted oldest
// first. The record's own slice is left untouched.
func (hr *HealthRecord) SnapshotsChronological() []BiomarkerSnapshot {
	out := make([]BiomarkerSnapshot, len(hr.Snapshots))
	copy(out, hr.Snapshots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TestDate.Before(out[j].TestDate)
	})
	return out
}

// ActiveConditions returns the conditions whose status is active.
func (hr *HealthRecord) ActiveConditions() []Condition {
	var active []Condition
	for _, c := range hr.Conditions {
		if c.Status == CONDITION_ACTIVE {
			active = append(active, c)
		}
	}
	return active
}

// FindMarker looks a marker up by name across all categories of the snapshot.
func (bs *BiomarkerSnapshot) FindMarker(name string) (MarkerReading, bool) {
	for _, markers := range bs.Categories {
		if reading, ok := markers[name]; ok {
			return reading, true
		}
	}
	return MarkerReading{}, false
}

// HasCategory reports whether the snapshot covers the given category.
func (bs *BiomarkerSnapshot) HasCategory(category TestCategory) bool {
	_, ok := bs.Categories[category.String()]
	return ok
}
