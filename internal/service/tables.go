package service

import (
	"strings"

	"github.com/health-recommendation-engine/internal/domain"
)

// categoryTest names the standard test and marker list for an essential
// snapshot category.
type categoryTest struct {
	TestName string
	Markers  []string
}

// essentialCategoryTests maps each essential category to its standard test.
// Iterate via domain.EssentialCategories to keep output order deterministic.
var essentialCategoryTests = map[domain.TestCategory]categoryTest{
	domain.CATEGORY_METABOLIC: {
		TestName: "Comprehensive Metabolic Panel",
		Markers:  []string{"glucose", "hba1c", "sodium", "potassium", "calcium"},
	},
	domain.CATEGORY_LIPID_PROFILE: {
		TestName: "Lipid Profile",
		Markers:  []string{"total_cholesterol", "ldl_cholesterol", "hdl_cholesterol", "triglycerides"},
	},
	domain.CATEGORY_COMPLETE_BLOOD_COUNT: {
		TestName: "Complete Blood Count",
		Markers:  []string{"hemoglobin", "hematocrit", "wbc", "platelets"},
	},
	domain.CATEGORY_KIDNEY_FUNCTION: {
		TestName: "Kidney Function Panel",
		Markers:  []string{"creatinine", "egfr", "bun"},
	},
	domain.CATEGORY_LIVER_FUNCTION: {
		TestName: "Liver Function Panel",
		Markers:  []string{"alt", "ast", "bilirubin", "albumin"},
	},
	domain.CATEGORY_VITAMINS: {
		TestName: "Vitamin D & B12 Panel",
		Markers:  []string{"vitamin_d", "vitamin_b12", "folate"},
	},
}

// markerAcronyms are marker tokens rendered verbatim rather than title-cased.
var markerAcronyms = map[string]string{
	"hba1c": "HbA1c",
	"ldl":   "LDL",
	"hdl":   "HDL",
	"tsh":   "TSH",
	"crp":   "CRP",
	"egfr":  "eGFR",
	"bun":   "BUN",
	"alt":   "ALT",
	"ast":   "AST",
	"wbc":   "WBC",
	"psa":   "PSA",
	"b12":   "B12",
	"d":     "D",
}

// markerDisplayName renders a snake_case marker key as a human-readable test
// name component, e.g. "ldl_cholesterol" -> "LDL Cholesterol".
func markerDisplayName(key string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if acronym, ok := markerAcronyms[p]; ok {
			parts[i] = acronym
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// containsAny reports whether s contains any of the given keywords. Matching
// is caller-lowercased; keywords must already be lower case.
func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
