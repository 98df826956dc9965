// internal/universities/hebrewuniversity/tables.go
package hebrewuniversity

import "admission-checker/internal/normalize"

// program is how one degree is found on the programs site: the label typed
// into the search bar and the track picked on the program page.
type program struct {
	Search string
	Track  string
}

func programs() map[string]program {
	return map[string]program{
		"מדעי המחשב":          {"מדעי המחשב", "מדעי המחשב, חד-חוגי"},
		"חינוך והוראה":        {"חינוך", "חינוך, דו-חוגי"},
		"מנהל עסקים":          {"מנהל עסקים", "מנהל עסקים, דו-חוגי"},
		"סיעוד":               {"אחיוּת (סיעוד)", "אחיות (סיעוד), חד-חוגי, שלוחת קפלן"},
		"הנדסת חשמל":          {"הנדסת חשמל ומדעי המחשב", "הנדסת חשמל ומדעי המחשב, חד-חוגי"},
		"משפטים":              {"משפטים", "משפטים, חד-חוגי"},
		"פסיכולוגיה":          {"פסיכולוגיה", "פסיכולוגיה, דו-חוגי"},
		"כלכלה":               {"כלכלה", "כלכלה, דו-חוגי"},
		"רפואה":               {"רפואה", "רפואה, חד-חוגי, לימודים פרה קליניים"},
		"עבודה סוציאלית":      {"עבודה סוציאלית", "עבודה סוציאלית, חד-חוגי"},
		"מתמטיקה":             {"מתמטיקה", "מתמטיקה, חד-חוגי"},
		"פיזיקה":              {"פיסיקה", "פיסיקה, חד-חוגי"},
		"מדעי המוח וקוגניציה": {"מדעי הקוגניציה והמוח", "מדעי הקוגניציה והמוח, דו-חוגי"},
		"ריפוי בעיסוק":        {"ריפוי בעיסוק", "ריפוי בעיסוק, חג-חוגי"},
	}
}

// coreSubjects are the rows the calculator shows before any subject is added.
var coreSubjects = map[string]bool{
	"אזרחות":   true,
	"עברית":    true,
	"אנגלית":   true,
	"מתמטיקה":  true,
	"ספרות":    true,
	"היסטוריה": true,
	`תנ"ך`:     true,
}

// missingSubjects have no entry in the calculator's subject search.
var missingSubjects = map[string]bool{
	"חינוך פיננסי":         true,
	"הנדסת מכונות":         true,
	"קולנוע":               true,
	"היסטוריה של עם ישראל": true,
}

func subjectNames() map[string]string {
	return map[string]string{
		"עברית: הבנה, הבעה ולשון": "עברית",
		"תנך":                     `תנ"ך`,
		"מערכות מידע":             "מערכות מידע וידע",
		"עיצוב פנים":              "עיצוב",
		"עיצוב גרפי":              "עיצוב",
		"תרבות ומורשת האסלאם":     "מורשת ודת האסלאם",
		"מורשת ודת נוצרית":        "מורשת דת נוצרית",
		"פיזיקה":                  "פיסיקה",
		"מוזיקה":                  "מוסיקה",
		"מערכות בקרה":             "מערכות בקרה ממוחשבות",
		"הנדסת תוכנה":             "מדעי המחשב",
		"ערבית (ליהודים)":         "ערבית",
		"גיאוגרפיה":               "גאוגרפיה אדם וסביבה",
	}
}

func missingDegreeMessage(degree string) string {
	return "התואר '" + degree + "' לא קיים במערכת הקבלה של האוניברסיטה העברית. יש לבדוק את המידע באתר האוניברסיטה."
}

// Tables returns the HUJI vocabulary tables. Degrees stay in caller
// vocabulary; the programs table resolves them on the site.
func Tables() normalize.Tables {
	return normalize.NewTables(subjectNames(), nil, nil, nil)
}
