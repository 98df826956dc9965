// internal/extract/match.go
package extract

import (
	"strings"

	"admission-checker/internal/normalize"
)

// Raw verdict strings produced by accepted-list universities.
const (
	Accepted      = "התקבלתי"
	NotAccepted   = "לא התקבלתי"
	ErrorChecking = "Error checking"
)

// MatchKind names the layer of the matching policy that produced a hit.
type MatchKind int

const (
	NoMatch MatchKind = iota
	ExactMatch
	PrefixMatch
	SubstringMatch
)

func (k MatchKind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case PrefixMatch:
		return "prefix"
	case SubstringMatch:
		return "substring"
	default:
		return "none"
	}
}

// MatchDegree tests requested against an accepted list. Layers are tried in
// order over the whole list: exact cleaned equality, prefix, then substring in
// either direction. The first layer with a hit wins.
func MatchDegree(accepted []string, requested string, qualifiers []string) (string, MatchKind) {
	requested = strings.TrimSpace(requested)
	cleanReq := normalize.CleanDegreeName(requested, qualifiers)
	if cleanReq == "" {
		return "", NoMatch
	}

	cleaned := make([]string, len(accepted))
	for i, a := range accepted {
		cleaned[i] = normalize.CleanDegreeName(a, qualifiers)
	}

	for i, c := range cleaned {
		if c == cleanReq {
			return accepted[i], ExactMatch
		}
	}
	for i, c := range cleaned {
		if strings.HasPrefix(strings.TrimSpace(accepted[i]), requested) || strings.HasPrefix(c, cleanReq) {
			return accepted[i], PrefixMatch
		}
	}
	for i, c := range cleaned {
		if c == "" {
			continue
		}
		if strings.Contains(c, cleanReq) || strings.Contains(cleanReq, c) {
			return accepted[i], SubstringMatch
		}
	}
	return "", NoMatch
}

// AcceptedList maps each requested degree to Accepted or NotAccepted.
// siteName translates a caller degree into the name printed on the list.
func AcceptedList(accepted, degrees []string, siteName func(string) string, qualifiers []string) map[string]string {
	out := make(map[string]string, len(degrees))
	for _, d := range degrees {
		name := d
		if siteName != nil {
			name = siteName(d)
		}
		if _, kind := MatchDegree(accepted, name, qualifiers); kind != NoMatch {
			out[d] = Accepted
		} else {
			out[d] = NotAccepted
		}
	}
	return out
}
