package normalize

import (
	"testing"

	"admission-checker/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestTables() Tables {
	return NewTables(
		map[string]string{
			"פיזיקה":                  "פיסיקה",
			"עברית: הבנה, הבעה ולשון": "הבעה עברית",
			"מוזיקה":                  "מוסיקה",
		},
		map[string]string{
			"מנהל עסקים": "ניהול",
		},
		map[string]string{
			"משפטים": "לא קיים תואר משפטים בבן גוריון",
		},
		nil,
	)
}

// ==========================
// Subjects
// ==========================

func TestNormalizeSubjects(t *testing.T) {
	tables := createTestTables()
	req := models.NewAdmissionRequest("כלכלה", nil,
		[]string{"מתמטיקה", "פיזיקה", "חקלאות"},
		map[string]models.SubjectScore{
			"מתמטיקה": {Grade: 95, Units: 5},
			"פיזיקה":  {Grade: 90, Units: 5},
			"חקלאות":  {Grade: 80, Units: 2},
		},
		models.Psychometric{},
	)

	out := tables.NormalizeSubjects(req)

	assert.Equal(t, []string{"מתמטיקה", "פיסיקה", "חקלאות"}, out.Subjects())
	assert.Equal(t, models.SubjectScore{Grade: 90, Units: 5}, out.HighschoolScores["פיסיקה"])
	_, stillCaller := out.HighschoolScores["פיזיקה"]
	assert.False(t, stillCaller)
	// original request untouched
	assert.Contains(t, req.HighschoolScores, "פיזיקה")
}

func TestNormalizeSubjects_CollapsedNamesKeepFirst(t *testing.T) {
	tables := NewTables(map[string]string{"תנך": `תנ"ך`}, nil, nil, nil)
	req := models.NewAdmissionRequest("", nil,
		[]string{`תנ"ך`, "תנך"},
		map[string]models.SubjectScore{`תנ"ך`: {Grade: 70, Units: 2}, "תנך": {Grade: 99, Units: 2}},
		models.Psychometric{},
	)

	out := tables.NormalizeSubjects(req)
	assert.Equal(t, []string{`תנ"ך`}, out.Subjects())
	assert.Equal(t, 70, out.HighschoolScores[`תנ"ך`].Grade)
}

func TestSubjectName_Idempotent(t *testing.T) {
	tables := createTestTables()
	names := []string{"פיזיקה", "פיסיקה", "עברית: הבנה, הבעה ולשון", "הבעה עברית", "מוזיקה", "ערבית"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			once := tables.SubjectName(name)
			assert.Equal(t, once, tables.SubjectName(once))
		})
	}
}

// ==========================
// Degrees
// ==========================

func TestNormalizeDegree(t *testing.T) {
	tables := createTestTables()

	tests := []struct {
		name   string
		input  string
		want   string
		absent bool
	}{
		{"mapped", "מנהל עסקים", "ניהול", false},
		{"pass through", "מדעי המחשב", "מדעי המחשב", false},
		{"already site name", "ניהול", "ניהול", false},
		{"absent sentinel", "משפטים", "משפטים", true},
		{"trimmed", "  מנהל עסקים ", "ניהול", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tables.NormalizeDegree(tt.input)
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, tt.absent, got.Absent)
			if tt.absent {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestCleanDegreeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"הנדסת חשמל, חד-חוגי", "הנדסת חשמל"},
		{"כלכלה דו מחלקתי", "כלכלה"},
		{"פסיכולוגיה - ראשי", "פסיכולוגיה"},
		{"מדעי המחשב", "מדעי המחשב"},
		{"  ביולוגיה   מגמה  ", "ביולוגיה"},
		{"תכנית מצוינות", "מצוינות"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CleanDegreeName(tt.input, DefaultQualifiers)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CleanDegreeName(got, DefaultQualifiers))
		})
	}
}
