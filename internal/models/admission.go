// internal/models/admission.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UniversityID identifies one supported university.
type UniversityID string

const (
	BenGurion        UniversityID = "ben-gurion"
	TelAviv          UniversityID = "tel-aviv"
	HebrewUniversity UniversityID = "hebrew-university"
	Technion         UniversityID = "technion"
)

// Verdict is the localized acceptance outcome.
type Verdict string

const (
	VerdictAccepted Verdict = "קבלה"
	VerdictRejected Verdict = "דחייה"
)

// SubjectScore is one bagrut subject: a 0-100 grade and a study-unit level.
type SubjectScore struct {
	Grade int `json:"grade"`
	Units int `json:"units"`
}

// Psychometric holds the composite and sub-scores; 0 means absent.
type Psychometric struct {
	Total        int `json:"total"`
	Quantitative int `json:"math"`
	Verbal       int `json:"verbal"`
	English      int `json:"english"`
}

type AdmissionRequest struct {
	Subject          string
	DegreesToCheck   []string
	HighschoolScores map[string]SubjectScore
	Psychometric     Psychometric

	// subjectOrder keeps the caller's subject order; wizards enter rows in it.
	subjectOrder []string
}

type AdmissionResult struct {
	IsAccepted *Verdict `json:"isAccepted"`
	URL        string   `json:"url"`
	Message    *string  `json:"message"`
}

// NewResult builds a result; an empty verdict or message is reported as null.
func NewResult(verdict Verdict, url, message string) AdmissionResult {
	res := AdmissionResult{URL: url}
	if verdict != "" {
		v := verdict
		res.IsAccepted = &v
	}
	if message != "" {
		m := message
		res.Message = &m
	}
	return res
}

// Verdict returns the verdict or "" when there is none.
func (r AdmissionResult) Verdict() Verdict {
	if r.IsAccepted == nil {
		return ""
	}
	return *r.IsAccepted
}

// Text returns the message or "".
func (r AdmissionResult) Text() string {
	if r.Message == nil {
		return ""
	}
	return *r.Message
}

// NewAdmissionRequest builds a request keeping the iteration order of subjects.
func NewAdmissionRequest(subject string, degrees []string, subjects []string, scores map[string]SubjectScore, psycho Psychometric) AdmissionRequest {
	return AdmissionRequest{
		Subject:          subject,
		DegreesToCheck:   degrees,
		HighschoolScores: scores,
		Psychometric:     psycho,
		subjectOrder:     subjects,
	}
}

// Degrees returns the degrees to check; an empty list defaults to Subject.
func (r AdmissionRequest) Degrees() []string {
	if len(r.DegreesToCheck) > 0 {
		return r.DegreesToCheck
	}
	if r.Subject != "" {
		return []string{r.Subject}
	}
	return nil
}

// RequestedDegree is the degree reported in the response.
func (r AdmissionRequest) RequestedDegree() string {
	if degrees := r.Degrees(); len(degrees) > 0 {
		return degrees[0]
	}
	return ""
}

// Subjects returns subject names in caller order.
func (r AdmissionRequest) Subjects() []string {
	if len(r.subjectOrder) == len(r.HighschoolScores) {
		return r.subjectOrder
	}
	out := make([]string, 0, len(r.HighschoolScores))
	seen := make(map[string]bool, len(r.subjectOrder))
	for _, s := range r.subjectOrder {
		if _, ok := r.HighschoolScores[s]; ok && !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	for s := range r.HighschoolScores {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// Score looks up one subject.
func (r AdmissionRequest) Score(subject string) (SubjectScore, bool) {
	s, ok := r.HighschoolScores[subject]
	return s, ok
}

// WithScores returns a copy carrying translated subjects.
func (r AdmissionRequest) WithScores(subjects []string, scores map[string]SubjectScore) AdmissionRequest {
	r.HighschoolScores = scores
	r.subjectOrder = subjects
	return r
}

type wireRequest struct {
	Subject          *string           `json:"subject"`
	DegreesToCheck   json.RawMessage   `json:"degrees_to_check"`
	HighschoolScores json.RawMessage   `json:"highschool_scores"`
	Psychometric     *wirePsychometric `json:"psychometric"`
	PsychoScore      json.RawMessage   `json:"psycho_score"`
	PsychoMath       json.RawMessage   `json:"psycho_math"`
	PsychoHebrew     json.RawMessage   `json:"psycho_hebrew"`
	PsychoEnglish    json.RawMessage   `json:"psycho_english"`
}

type wirePsychometric struct {
	Total   json.RawMessage `json:"total"`
	Math    json.RawMessage `json:"math"`
	Verbal  json.RawMessage `json:"verbal"`
	English json.RawMessage `json:"english"`
}

// UnmarshalJSON accepts both the nested and the flat psychometric forms,
// degrees as a string or a list, and numbers given as numeric strings.
func (r *AdmissionRequest) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var out AdmissionRequest
	if w.Subject != nil {
		out.Subject = strings.TrimSpace(*w.Subject)
	}

	degrees, err := decodeDegrees(w.DegreesToCheck)
	if err != nil {
		return fmt.Errorf("degrees_to_check: %w", err)
	}
	out.DegreesToCheck = degrees

	scores, order, err := decodeScores(w.HighschoolScores)
	if err != nil {
		return fmt.Errorf("highschool_scores: %w", err)
	}
	out.HighschoolScores = scores
	out.subjectOrder = order

	if w.Psychometric != nil {
		out.Psychometric, err = decodePsychometric(w.Psychometric.Total, w.Psychometric.Math, w.Psychometric.Verbal, w.Psychometric.English)
	} else {
		out.Psychometric, err = decodePsychometric(w.PsychoScore, w.PsychoMath, w.PsychoHebrew, w.PsychoEnglish)
	}
	if err != nil {
		return fmt.Errorf("psychometric: %w", err)
	}

	*r = out
	return nil
}

// MarshalJSON writes the nested form, preserving subject order.
func (r AdmissionRequest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"subject":`)
	if err := writeJSON(&buf, r.Subject); err != nil {
		return nil, err
	}
	buf.WriteString(`,"degrees_to_check":`)
	degrees := r.DegreesToCheck
	if degrees == nil {
		degrees = []string{}
	}
	if err := writeJSON(&buf, degrees); err != nil {
		return nil, err
	}
	buf.WriteString(`,"highschool_scores":{`)
	for i, name := range r.Subjects() {
		if i > 0 {
			buf.WriteByte(',')
		}
		s := r.HighschoolScores[name]
		if err := writeJSON(&buf, name); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, ":[%d,%d]", s.Grade, s.Units)
	}
	buf.WriteString(`},"psychometric":`)
	if err := writeJSON(&buf, r.Psychometric); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeDegrees(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		single = strings.TrimSpace(single)
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected string or list of strings")
	}
	out := make([]string, 0, len(list))
	for _, d := range list {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// decodeScores walks the object token by token so subject order survives.
func decodeScores(raw json.RawMessage) (map[string]SubjectScore, []string, error) {
	scores := make(map[string]SubjectScore)
	if isNull(raw) {
		return scores, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}

	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, _ := keyTok.(string)

		var pair []json.RawMessage
		if err := dec.Decode(&pair); err != nil {
			return nil, nil, fmt.Errorf("%s: expected [grade, units]", name)
		}
		if len(pair) < 2 {
			return nil, nil, fmt.Errorf("%s: expected [grade, units]", name)
		}
		grade, err := decodeNumber(pair[0], gradeRange)
		if err != nil {
			return nil, nil, fmt.Errorf("%s grade: %w", name, err)
		}
		units, err := decodeNumber(pair[1], unitsRange)
		if err != nil {
			return nil, nil, fmt.Errorf("%s units: %w", name, err)
		}

		if _, dup := scores[name]; !dup {
			order = append(order, name)
		}
		scores[name] = SubjectScore{Grade: grade, Units: units}
	}
	return scores, order, nil
}

func decodePsychometric(total, quant, verbal, english json.RawMessage) (Psychometric, error) {
	var p Psychometric
	var err error
	if p.Total, err = decodeNumber(total, totalRange); err != nil {
		return p, fmt.Errorf("total: %w", err)
	}
	if p.Quantitative, err = decodeNumber(quant, sectionRange); err != nil {
		return p, fmt.Errorf("math: %w", err)
	}
	if p.Verbal, err = decodeNumber(verbal, sectionRange); err != nil {
		return p, fmt.Errorf("verbal: %w", err)
	}
	if p.English, err = decodeNumber(english, sectionRange); err != nil {
		return p, fmt.Errorf("english: %w", err)
	}
	return p, nil
}

// numberRange bounds one request number. Absent values (null, "") decode to 0
// and are only accepted when absentOK is set.
type numberRange struct {
	min, max float64
	absentOK bool
}

var (
	gradeRange   = numberRange{min: 0, max: 100}
	unitsRange   = numberRange{min: 1, max: 10}
	totalRange   = numberRange{min: 200, max: 800, absentOK: true}
	sectionRange = numberRange{min: 0, max: 800, absentOK: true}
)

// decodeNumber accepts a JSON number or numeric string inside r. A total of 0
// means the score is absent.
func decodeNumber(raw json.RawMessage, r numberRange) (int, error) {
	f, absent, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if absent || (r.absentOK && f == 0) {
		if !r.absentOK {
			return 0, fmt.Errorf("value is required")
		}
		return 0, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	if f < r.min || f > r.max {
		return 0, fmt.Errorf("%g outside [%g, %g]", f, r.min, r.max)
	}
	return int(math.Round(f)), nil
}

func parseNumber(raw json.RawMessage) (float64, bool, error) {
	if isNull(raw) {
		return 0, true, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("expected number")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	return f, false, nil
}
