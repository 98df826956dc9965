// internal/universities/technion/tables.go
package technion

import "admission-checker/internal/normalize"

const otherSubjectOption = "מקצוע אחר שאינו ברשימה"

func subjectNames() map[string]string {
	return map[string]string{
		"עברית: הבנה, הבעה ולשון": "עברית (הבעה)",
		"היסטוריה":                "היסטוריה / תולדות עם ישראל",
		"היסטוריה של עם ישראל":    "היסטוריה / תולדות עם ישראל",
		"ספרות":                   "ספרות עברית",
		"ערבית (ליהודים)":         "ערבית",
		"אמנות חזותית":            "אמנות",
		`תושב"ע`:                  `תלמוד / תושב"ע`,
		"תלמוד":                   `תלמוד / תושב"ע`,
	}
}

func degreeNames() map[string]string {
	return map[string]string{
		"הנדסה ביוטכנולוגית":  "הנדסה ביוטכנולוגית ומזון",
		"הנדסה ביורפואית":     "הנדסה ביו-רפואית",
		"הנדסה תעשייה וניהול": "הנדסת תעשיה וניהול",
		"רפואה":               "מדעי הרפואה-מגמת רפואה",
	}
}

func unsupportedDegrees() map[string]string {
	out := map[string]string{}
	for _, d := range []string{"חינוך והוראה", "מנהל עסקים", "משפטים", "עבודה סוציאלית"} {
		out[d] = missingDegreeMessage(d)
	}
	return out
}

func missingDegreeMessage(degree string) string {
	return "תואר " + degree + " לא קיים בטכניון"
}

// Tables returns the Technion vocabulary tables.
func Tables() normalize.Tables {
	return normalize.NewTables(subjectNames(), degreeNames(), unsupportedDegrees(), nil)
}
