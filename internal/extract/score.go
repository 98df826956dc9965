// internal/extract/score.go
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingNumber = regexp.MustCompile(`([\d.]+)\s*$`)
	anyNumber      = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParseTrailingScore reads the number that ends text, as in
// "הסכם לדיוני הקבלה: 87.45".
func ParseTrailingScore(text string) (float64, error) {
	m := trailingNumber.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("no trailing number in %q", text)
	}
	return parseFloat(m[1])
}

// ParseFirstNumber reads the first number in text.
func ParseFirstNumber(text string) (float64, error) {
	m := anyNumber.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", text)
	}
	return parseFloat(m)
}

func parseFloat(s string) (float64, error) {
	s = strings.Trim(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}
