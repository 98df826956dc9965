// internal/universities/bengurion/tables.go
package bengurion

import "admission-checker/internal/normalize"

const (
	mathSubject    = "מתמטיקה"
	physicsSubject = "פיסיקה"
)

func subjectNames() map[string]string {
	return map[string]string{
		"עברית: הבנה, הבעה ולשון":       "הבעה עברית",
		"פיזיקה":                        "פיסיקה",
		"חינוך פיננסי":                  "כלכלה",
		"לימודי ארץ ישראל וארכיאולוגיה": "לימודי ארץ ישראל",
		"מערכות מידע":                   "מערכות מידענות ממוחשבות",
		"מוזיקה":                        "מוסיקה",
	}
}

func degreeNames() map[string]string {
	return map[string]string{
		"הנדסה ביוטכנולוגית": "הנדסת ביוטכנולוגיה",
		"הנדסה אזרחית":       "הנדסה אזרחית/הנדסת בנייין",
	}
}

func unsupportedDegrees() map[string]string {
	return map[string]string{
		"משפטים":     "לא קיים תואר משפטים בבן גוריון",
		"מנהל עסקים": "לא קיים תואר מנהל עסקים בבן גוריון",
	}
}

// scienceSubjects earn the science bonus, in site vocabulary. Math and
// physics have fixed rows and are not listed.
var scienceSubjects = map[string]bool{
	"ביוטכנולוגיה":              true,
	"ביולוגיה":                  true,
	"בקרת מכונות":               true,
	"כימיה":                     true,
	"כימיה טכנולוגית":           true,
	"מדעי החיים והחקלאות":       true,
	"מדעי המחשב":                true,
	"מידע ונתונים":              true,
	"מערכות ביוטכנולוגיות":      true,
	"ניתוח נתונים":              true,
	"ע. גמר בתכנות ותכנון מער'": true,
	"תכנון ותכנות מערכות":       true,
}

// Tables returns the BGU vocabulary tables.
func Tables() normalize.Tables {
	return normalize.NewTables(subjectNames(), degreeNames(), unsupportedDegrees(), nil)
}
