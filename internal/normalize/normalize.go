// internal/normalize/normalize.go
package normalize

import (
	"strings"

	"admission-checker/internal/models"
)

// DefaultQualifiers are stripped from degree names before list matching.
var DefaultQualifiers = []string{
	"חד מחלקתי", "דו מחלקתי", "ראשי", "משני", "מסלול",
	"התמחות", "מגמה", "תכנית", "חד-חוגי", "דו-חוגי",
}

// Tables are one university's immutable vocabulary tables.
type Tables struct {
	// Subjects maps caller subject names to site names. Missing entries pass through.
	Subjects map[string]string
	// Degrees maps caller degree names to site names. Missing entries pass through.
	Degrees map[string]string
	// Unsupported lists caller degrees the university does not offer, with the
	// message returned to the caller.
	Unsupported map[string]string
	Qualifiers  []string
}

// Degree is the outcome of degree normalization.
type Degree struct {
	Name   string
	Absent bool
	Reason string
}

// NewTables copies the given maps so later mutation by the caller cannot leak in.
func NewTables(subjects, degrees, unsupported map[string]string, qualifiers []string) Tables {
	if qualifiers == nil {
		qualifiers = DefaultQualifiers
	}
	return Tables{
		Subjects:    copyMap(subjects),
		Degrees:     copyMap(degrees),
		Unsupported: copyMap(unsupported),
		Qualifiers:  append([]string(nil), qualifiers...),
	}
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SubjectName translates one subject name.
func (t Tables) SubjectName(name string) string {
	name = strings.TrimSpace(name)
	if site, ok := t.Subjects[name]; ok {
		return site
	}
	return name
}

// NormalizeSubjects translates every subject of req into site vocabulary.
// When two caller names collapse onto one site name the first one wins.
func (t Tables) NormalizeSubjects(req models.AdmissionRequest) models.AdmissionRequest {
	order := make([]string, 0, len(req.HighschoolScores))
	scores := make(map[string]models.SubjectScore, len(req.HighschoolScores))
	for _, name := range req.Subjects() {
		site := t.SubjectName(name)
		if _, dup := scores[site]; dup {
			continue
		}
		scores[site] = req.HighschoolScores[name]
		order = append(order, site)
	}
	return req.WithScores(order, scores)
}

// NormalizeDegree translates a degree, or reports it as absent.
func (t Tables) NormalizeDegree(name string) Degree {
	name = strings.TrimSpace(name)
	if reason, ok := t.Unsupported[name]; ok {
		return Degree{Name: name, Absent: true, Reason: reason}
	}
	if site, ok := t.Degrees[name]; ok {
		return Degree{Name: site}
	}
	return Degree{Name: name}
}

// CleanDegreeName strips qualifiers and trailing punctuation from a degree name.
func (t Tables) CleanDegreeName(name string) string {
	qualifiers := t.Qualifiers
	if qualifiers == nil {
		qualifiers = DefaultQualifiers
	}
	return CleanDegreeName(name, qualifiers)
}

// CleanDegreeName strips the given qualifiers as whole words.
func CleanDegreeName(name string, qualifiers []string) string {
	cleaned := " " + strings.Join(strings.Fields(name), " ") + " "
	for _, q := range qualifiers {
		for _, sep := range []string{" ", ","} {
			cleaned = strings.ReplaceAll(cleaned, sep+q+" ", " ")
			cleaned = strings.ReplaceAll(cleaned, sep+q+",", ",")
		}
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, " ,-–")
}
