package extract

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/retry"
	"admission-checker/internal/models"
	"admission-checker/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchDegree(t *testing.T) {
	q := normalize.DefaultQualifiers

	tests := []struct {
		name      string
		accepted  []string
		requested string
		want      MatchKind
	}{
		{"qualifier stripped", []string{"הנדסת חשמל, חד-חוגי"}, "הנדסת חשמל", ExactMatch},
		{"prefix of longer name", []string{"הנדסת חשמל ומחשבים"}, "הנדסת חשמל", PrefixMatch},
		{"exact", []string{"כלכלה"}, "כלכלה", ExactMatch},
		{"prefix", []string{"מדעי המחשב ומתמטיקה"}, "מדעי המחשב", PrefixMatch},
		{"substring", []string{"תואר משולב: ביולוגיה וכימיה"}, "ביולוגיה", SubstringMatch},
		{"reverse substring", []string{"פסיכולוגיה"}, "פסיכולוגיה קלינית", SubstringMatch},
		{"no match", []string{"היסטוריה"}, "רפואה", NoMatch},
		{"empty request", []string{"היסטוריה"}, "  ", NoMatch},
		{"empty list", nil, "רפואה", NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kind := MatchDegree(tt.accepted, tt.requested, q)
			assert.Equal(t, tt.want, kind, kind.String())
		})
	}
}

func TestMatchDegree_ExactBeatsEarlierPrefix(t *testing.T) {
	accepted := []string{"מתמטיקה שימושית", "מתמטיקה, חד-חוגי"}
	hit, kind := MatchDegree(accepted, "מתמטיקה", normalize.DefaultQualifiers)
	assert.Equal(t, ExactMatch, kind)
	assert.Equal(t, "מתמטיקה, חד-חוגי", hit)
}

func TestAcceptedList(t *testing.T) {
	accepted := []string{"הנדסת חשמל, חד-חוגי", "ניהול"}
	siteName := func(d string) string {
		if d == "מנהל עסקים" {
			return "ניהול"
		}
		return d
	}

	got := AcceptedList(accepted, []string{"הנדסת חשמל", "מנהל עסקים", "רפואה"}, siteName, normalize.DefaultQualifiers)
	assert.Equal(t, map[string]string{
		"הנדסת חשמל": Accepted,
		"מנהל עסקים": Accepted,
		"רפואה":      NotAccepted,
	}, got)
}

func TestCompareThreshold(t *testing.T) {
	assert.Equal(t, models.VerdictAccepted, CompareThreshold(92.0, 91))
	assert.Equal(t, models.VerdictAccepted, CompareThreshold(91.0, 91))
	assert.Equal(t, models.VerdictRejected, CompareThreshold(90.0, 91))
}

func TestCompareBands(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{720, BandAccepted},
		{700, BandAccepted},
		{690, BandWaitlist},
		{680, BandWaitlist},
		{679.9, BandRejected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareBands(tt.score, 700, 680), "score %v", tt.score)
	}
}

func TestThresholds(t *testing.T) {
	table := []Cutoff{
		{Degree: "מדעי המחשב", Required: 91},
		{Degree: "הנדסת תעשיה וניהול", Required: 85.5},
	}

	got := Thresholds(88, table, []string{"מדעי המחשב", "הנדסה תעשייה וניהול", "ארכיטקטורה"}, func(d string) string {
		if d == "הנדסה תעשייה וניהול" {
			return "הנדסת תעשיה וניהול"
		}
		return d
	})

	assert.Equal(t, models.VerdictRejected, got["מדעי המחשב"])
	assert.Equal(t, models.VerdictAccepted, got["הנדסה תעשייה וניהול"])
	_, ok := got["ארכיטקטורה"]
	assert.False(t, ok)
}

func TestComputeEmphases(t *testing.T) {
	first := ComputeEmphases(650, 120, 130, 110)
	second := ComputeEmphases(650, 120, 130, 110)

	assert.Equal(t, first, second)
	assert.Equal(t, Emphases{Quantitative: 671, Verbal: 650, Multi: 661}, first)
	for _, v := range first.Ordered() {
		assert.GreaterOrEqual(t, v, 200)
		assert.LessOrEqual(t, v, 800)
	}
}

func TestComputeEmphases_Clamped(t *testing.T) {
	high := ComputeEmphases(800, 100, 150, 50)
	assert.Equal(t, 800, high.Quantitative)

	low := ComputeEmphases(200, 150, 50, 50)
	assert.Equal(t, 200, low.Quantitative)
}

func TestParseTrailingScore(t *testing.T) {
	tests := []struct {
		text    string
		want    float64
		wantErr bool
	}{
		{"הסכם לדיוני הקבלה: 87.45", 87.45, false},
		{"הסכם לדיוני הקבלה 92", 92, false},
		{"הסכם לדיוני הקבלה 92.  ", 92, false},
		{"אין תוצאה", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseTrailingScore(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestParseFirstNumber(t *testing.T) {
	got, err := ParseFirstNumber("ממוצע: 104.35 (כולל בונוס)")
	require.NoError(t, err)
	assert.InDelta(t, 104.35, got, 0.0001)

	_, err = ParseFirstNumber("—")
	assert.Error(t, err)
}

type fakeListSource struct {
	list     []string
	listErr  error
	results  map[string]string
	failures map[string]int
	searched []string
}

func (f *fakeListSource) AcceptedDegrees(ctx context.Context) ([]string, error) {
	return f.list, f.listErr
}

func (f *fakeListSource) SearchDegree(ctx context.Context, degree string) (string, error) {
	f.searched = append(f.searched, degree)
	if f.failures[degree] > 0 {
		f.failures[degree]--
		return "", stderrors.New("result did not render")
	}
	if r, ok := f.results[degree]; ok {
		return r, nil
	}
	return "", stderrors.New("no result")
}

func createTestExtractor(t *testing.T) *ListExtractor {
	x := NewListExtractor(normalize.DefaultQualifiers, nil, logger.NewTestLogger(t))
	x.Search = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return x
}

func TestListExtractor_UsesList(t *testing.T) {
	src := &fakeListSource{list: []string{"מדעי המחשב, חד-חוגי"}}
	got, err := createTestExtractor(t).Extract(context.Background(), src, []string{"מדעי המחשב"})

	require.NoError(t, err)
	assert.Equal(t, Accepted, got["מדעי המחשב"])
	assert.Empty(t, src.searched)
}

func TestListExtractor_FallsBackToSearch(t *testing.T) {
	src := &fakeListSource{
		listErr:  stderrors.New("list link missing"),
		results:  map[string]string{"כלכלה": Accepted, "רפואה": NotAccepted},
		failures: map[string]int{"כלכלה": 2},
	}
	got, err := createTestExtractor(t).Extract(context.Background(), src, []string{"כלכלה", "רפואה", "משפטים"})

	require.NoError(t, err)
	assert.Equal(t, Accepted, got["כלכלה"])
	assert.Equal(t, NotAccepted, got["רפואה"])
	assert.Equal(t, ErrorChecking, got["משפטים"])
	assert.Len(t, src.searched, 3+1+3)
}

func TestListExtractor_AllSearchesFail(t *testing.T) {
	src := &fakeListSource{listErr: stderrors.New("list link missing")}
	_, err := createTestExtractor(t).Extract(context.Background(), src, []string{"כלכלה"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtraction))
}
