package service

import (
	"fmt"
	"strings"
)

// educationEntry binds a test-name keyword to one explanatory sentence.
type educationEntry struct {
	Keyword  string
	Sentence string
}

// educationTable is the ordered keyword lookup used to synthesize educational
// context when no evaluator supplied one. First match wins.
var educationTable = []educationEntry{
	{"hba1c", "HbA1c reflects your average blood sugar over the past three months."},
	{"glucose", "Blood glucose shows how your body is managing sugar right now."},
	{"lipid", "A lipid profile measures cholesterol and triglycerides, key indicators of cardiovascular health."},
	{"cholesterol", "Cholesterol levels help gauge your risk of heart and vessel disease."},
	{"triglycerides", "Triglycerides are blood fats linked to diet, metabolism and heart health."},
	{"metabolic", "A metabolic panel checks blood sugar, electrolytes and organ function markers in one test."},
	{"blood count", "A complete blood count screens for anemia, infection and blood cell disorders."},
	{"kidney", "Kidney function tests show how well your kidneys filter waste from the blood."},
	{"liver", "Liver function tests detect inflammation or damage to the liver early."},
	{"electrolyte", "Electrolytes such as sodium and potassium keep nerves, muscles and fluid balance working."},
	{"vitamin d", "Vitamin D supports bone strength, immunity and mood; deficiency is common and easy to correct."},
	{"b12", "Vitamin B12 is essential for nerve function and red blood cell production."},
	{"vitamin", "Vitamin and mineral levels reveal nutritional gaps that affect energy and immunity."},
	{"thyroid", "Thyroid tests check the gland that regulates metabolism, energy and temperature."},
	{"tsh", "TSH is the most sensitive screening marker for thyroid function."},
	{"testosterone", "Testosterone influences muscle mass, energy and mood in men."},
	{"hormone", "Hormone panels assess the chemical messengers that regulate many body systems."},
	{"menopause", "Menopause panels track the hormonal transition and guide symptom management."},
	{"psa", "PSA screening helps detect prostate changes before symptoms appear."},
	{"cardiac", "Cardiac panels combine cholesterol and inflammation markers to assess heart disease risk."},
	{"retest", "Repeating an abnormal test confirms whether the result is persistent or was a one-off."},
	{"monitoring", "Regular monitoring catches changes early, when they are easiest to act on."},
}

// educationalContextFor looks an explanatory sentence up by test-name
// keyword. Returns the empty string when nothing matches.
func educationalContextFor(testName string) string {
	name := strings.ToLower(testName)
	for _, entry := range educationTable {
		if strings.Contains(name, entry.Keyword) {
			return entry.Sentence
		}
	}
	return ""
}

// fallbackEducationalContext is the generic sentence used when no keyword
// matches; it always references the test so output context is never empty.
func fallbackEducationalContext(testName string) string {
	return fmt.Sprintf("The %s provides useful insight into your current health status.", testName)
}

// resolveEducationalContext returns the given context when present, otherwise
// synthesizes one from the test name.
func resolveEducationalContext(current, testName string) string {
	if current != "" {
		return current
	}
	if sentence := educationalContextFor(testName); sentence != "" {
		return sentence
	}
	return fallbackEducationalContext(testName)
}
