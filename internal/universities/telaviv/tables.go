// internal/universities/telaviv/tables.go
package telaviv

import "admission-checker/internal/normalize"

// Score sections of the match calculator.
const (
	sectionEngineering = "הנדסה"
	sectionExact       = "מדעים מדויקים"
	sectionNoMor       = "ללא מור"
	sectionManagement  = "ניהול"
	sectionGeneral     = "כללי"
)

// otherSubjectRow labels the bagrut rows that take any subject without bonus.
const otherSubjectRow = "אחר ללא בונוס"

// program is one degree's program page and the score section it is ranked by.
// An empty section means the degree is decided by threshold rules only.
type program struct {
	URL     string
	Section string
}

func programs() map[string]program {
	return map[string]program{
		"מדעי המחשב":          {"https://go.tau.ac.il/he/exact/ba/computer", sectionExact},
		"הנדסה אזרחית":        {"https://engineering.tau.ac.il/welcome_undergrad", sectionEngineering},
		"הנדסה ביורפואית":     {"https://go.tau.ac.il/he/engineering/ba/biomedical", sectionEngineering},
		"הנדסת חשמל":          {"https://go.tau.ac.il/he/engineering/ba/electrical", sectionEngineering},
		"הנדסת מכונות":        {"https://go.tau.ac.il/he/engineering/ba/mechanical", sectionEngineering},
		"הנדסה תעשייה וניהול": {"https://go.tau.ac.il/he/engineering/ba/industrial-engineering", sectionEngineering},
		"הנדסת תוכנה":         {"https://go.tau.ac.il/he/exact/ba/electrical-engineering-computer-science", sectionEngineering},
		"חינוך והוראה":        {"https://go.tau.ac.il/he/education/ba", sectionGeneral},
		"משפטים":              {"https://go.tau.ac.il/he/law/ba/law", sectionGeneral},
		"מנהל עסקים":          {"https://go.tau.ac.il/he/management/ba/management", sectionManagement},
		"סיעוד":               {"https://go.tau.ac.il/he/med/ba/nursing", sectionGeneral},
		"פסיכולוגיה":          {"https://go.tau.ac.il/he/social-sciences/ba/psychology", sectionGeneral},
		"כלכלה":               {"https://go.tau.ac.il/he/social-sciences/ba/economics", sectionGeneral},
		"הנדסה ביוטכנולוגית":  {"https://go.tau.ac.il/he/life/ba/biotechnology", sectionGeneral},
		"רפואה":               {"https://go.tau.ac.il/he/med/ba/med-doc", ""},
		"עבודה סוציאלית":      {"https://go.tau.ac.il/he/social-sciences/ba/social-work", sectionGeneral},
		"הנדסת חומרים":        {"https://go.tau.ac.il/he/engineering/ba/materials", sectionEngineering},
		"מדעי המוח וקוגניציה": {"https://go.tau.ac.il/he/neuroscience/ba", sectionGeneral},
		"פיזיקה":              {"https://go.tau.ac.il/he/exact/ba/physics", sectionExact},
		"מתמטיקה":             {"https://go.tau.ac.il/he/exact/ba/math", sectionExact},
		"פיזיותרפיה":          {"https://go.tau.ac.il/he/med/ba/phys", ""},
		"ריפוי בעיסוק":        {"https://go.tau.ac.il/he/med/ba/occu", sectionGeneral},
	}
}

// thresholdRules decide degrees whose program page publishes no cutoffs.
func thresholdRules() map[string]int {
	return map[string]int{
		"רפואה":      700,
		"פיזיותרפיה": 630,
	}
}

func unsupportedDegrees() map[string]bool {
	return map[string]bool{"הנדסה אזרחית": true}
}

func subjectNames() map[string]string {
	return map[string]string{
		"עברית: הבנה, הבעה ולשון": "הבעה עברית",
		"היסטוריה":                `היסטוריה/תע"י`,
		`תושב"ע`:                  `תורה שבע"פ`,
		"אמנות חזותית":            "אמנות",
		"מערכות חשמל":             "חשמל",
		"מערכות בקרה":             "מכשור ובקרה",
	}
}

// degreeNames are the names the admissions site lists some degrees under.
func degreeNames() map[string]string {
	return map[string]string{
		"הנדסת תוכנה":        "הנדסת מחשבים",
		"חינוך והוראה":       "חינוך",
		"מנהל עסקים":         "ניהול",
		"הנדסה ביוטכנולוגית": "ביולוגיה וביוטגנולוגיה",
	}
}

// formSubjects have their own row on the bagrut form.
var formSubjects = map[string]bool{
	"אזרחות": true, "אנגלית": true, "מתמטיקה": true, `היסטוריה/תע"י`: true,
	"הבעה עברית": true, "ספרות": true, `תנ"ך`: true, "ערבית": true,
	"עברית": true, "אלקטרוניקה": true, "אמנות": true, "ביולוגיה": true,
	"גיאוגרפיה": true, "חקלאות": true, "חשמל": true, "כימיה": true,
	"מדעי החברה": true, "מדעי המחשב": true, "מוסיקה": true, "מחשבת ישראל": true,
	"מכשור ובקרה": true, "מכניקה הנדסית": true, "פיזיקה": true, "פסיכולוגיה": true,
	"צרפתית": true, `תורה שבע"פ`: true, "תלמוד": true,
}

func missingDegreeMessage(degree string) string {
	return degree + " לא קיימת במערכת הקבלה של אוניברסיטת תל אביב. יש לבדוק את המידע באתר האוניברסיטה."
}

// Tables returns the TAU vocabulary tables.
func Tables() normalize.Tables {
	return normalize.NewTables(subjectNames(), degreeNames(), nil, nil)
}
