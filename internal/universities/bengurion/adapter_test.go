package bengurion

import (
	"context"
	"testing"

	"admission-checker/internal/common/logger"
	"admission-checker/internal/extract"
	"admission-checker/internal/models"
	"admission-checker/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAdapter(t *testing.T) *Adapter {
	return NewAdapter(LoadConfig(), logger.NewTestLogger(t))
}

func request(degrees []string, order []string) models.AdmissionRequest {
	scores := make(map[string]models.SubjectScore, len(order))
	for _, name := range order {
		scores[name] = models.SubjectScore{Grade: 90, Units: 5}
	}
	return models.NewAdmissionRequest("", degrees, order, scores, models.Psychometric{Total: 700})
}

type listSource struct {
	list     []string
	listErr  error
	searched map[string]string
}

func (s *listSource) AcceptedDegrees(ctx context.Context) ([]string, error) {
	return s.list, s.listErr
}

func (s *listSource) SearchDegree(ctx context.Context, degree string) (string, error) {
	if v, ok := s.searched[degree]; ok {
		return v, nil
	}
	return "", assert.AnError
}

func TestTables(t *testing.T) {
	tables := Tables()

	assert.Equal(t, "פיסיקה", tables.SubjectName("פיזיקה"))
	assert.Equal(t, "הבעה עברית", tables.SubjectName("עברית: הבנה, הבעה ולשון"))
	assert.Equal(t, "הנדסת ביוטכנולוגיה", tables.NormalizeDegree("הנדסה ביוטכנולוגית").Name)

	law := tables.NormalizeDegree("משפטים")
	assert.True(t, law.Absent)
	assert.Equal(t, "לא קיים תואר משפטים בבן גוריון", law.Reason)

	for caller := range subjectNames() {
		site := tables.SubjectName(caller)
		assert.Equal(t, site, tables.SubjectName(site), caller)
	}
}

func TestPrecheck_AnyUnsupportedDegree(t *testing.T) {
	a := createTestAdapter(t)

	tests := []struct {
		name        string
		degrees     []string
		wantDecided bool
		wantMessage string
	}{
		{"all supported", []string{"מדעי המחשב", "כלכלה"}, false, ""},
		{"law second", []string{"מדעי המחשב", "משפטים"}, true, "לא קיים תואר משפטים בבן גוריון"},
		{"business first", []string{"מנהל עסקים"}, true, "לא קיים תואר מנהל עסקים בבן גוריון"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(tt.degrees, nil)
			res, decided := a.Precheck(req, a.Tables().NormalizeDegree(req.RequestedDegree()))
			assert.Equal(t, tt.wantDecided, decided)
			if tt.wantDecided {
				assert.Nil(t, res.IsAccepted)
				assert.Equal(t, tt.wantMessage, res.Text())
				assert.Equal(t, a.BaseURL(), res.URL)
			}
		})
	}
}

func TestOrderedSubjects(t *testing.T) {
	req := request(nil, []string{"אנגלית", "פיסיקה", "כימיה", "מתמטיקה"})
	assert.Equal(t, []string{"מתמטיקה", "פיסיקה", "אנגלית", "כימיה"}, orderedSubjects(req))

	req = request(nil, []string{"היסטוריה", "אנגלית"})
	assert.Equal(t, []string{"היסטוריה", "אנגלית"}, orderedSubjects(req))
}

func TestRawVerdict(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"התקבלתי", extract.Accepted},
		{"  התקבלתי לתואר  ", extract.Accepted},
		{"לא התקבלתי", extract.NotAccepted},
		{"מועמדות בבדיקה", "מועמדות בבדיקה"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rawVerdict(tt.text), tt.text)
	}
}

func TestDecide(t *testing.T) {
	url := LoadConfig().BaseURL

	tests := []struct {
		name        string
		raw         string
		wantVerdict models.Verdict
		wantMessage string
		wantRaw     string
	}{
		{"accepted", extract.Accepted, models.VerdictAccepted, "התקבלת לתואר כלכלה", extract.Accepted},
		{"not accepted", extract.NotAccepted, models.VerdictRejected, "לא התקבלת לתואר כלכלה", extract.NotAccepted},
		{"unexpected text", "מועמדות בבדיקה", models.VerdictRejected, "לא התקבלת לתואר כלכלה", extract.NotAccepted},
		{"missing", "", "", "לא נמצאו תוצאות עבור תחום הלימוד כלכלה", ""},
		{"search failed", extract.ErrorChecking, "", "לא נמצאו תוצאות עבור תחום הלימוד כלכלה", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := decide(tt.raw, "כלכלה", url)
			assert.Equal(t, tt.wantVerdict, live.Result.Verdict())
			assert.Equal(t, tt.wantMessage, live.Result.Text())
			assert.Equal(t, tt.wantRaw, live.Raw)
			assert.Equal(t, url, live.Result.URL)
		})
	}
}

func TestExtractor_SiteNamesAndFallback(t *testing.T) {
	a := createTestAdapter(t)
	ctx := context.Background()

	t.Run("accepted list uses site names", func(t *testing.T) {
		src := &listSource{list: []string{"הנדסת ביוטכנולוגיה חד מחלקתי", "כלכלה"}}
		got, err := a.extractor.Extract(ctx, src, []string{"הנדסה ביוטכנולוגית", "רפואה"})
		require.NoError(t, err)
		assert.Equal(t, extract.Accepted, got["הנדסה ביוטכנולוגית"])
		assert.Equal(t, extract.NotAccepted, got["רפואה"])
	})

	t.Run("individual search on list failure", func(t *testing.T) {
		a.extractor.Search.BaseDelay = 0
		a.extractor.Search.MaxDelay = 0
		src := &listSource{
			listErr:  assert.AnError,
			searched: map[string]string{"כלכלה": extract.Accepted},
		}
		got, err := a.extractor.Extract(ctx, src, []string{"כלכלה", "רפואה"})
		require.NoError(t, err)
		assert.Equal(t, extract.Accepted, got["כלכלה"])
		assert.Equal(t, extract.ErrorChecking, got["רפואה"])
	})
}

func TestStates_FormValidGraph(t *testing.T) {
	a := createTestAdapter(t)
	r := &run{adapter: a, log: logger.NewNoOpLogger()}

	_, err := wizard.NewMachine("ben-gurion", stateLanding, logger.NewNoOpLogger(), r.states()...)
	require.NoError(t, err)
}
